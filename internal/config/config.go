// Package config defines the application configuration and its loading
// from files, environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/overland-robotics/birdview/internal/camera"
)

// Config represents the complete configuration for the birdview tool. It
// covers all commands (calibrate, extract, mosaic) and supports loading
// from configuration files, environment variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Camera intrinsics
	Camera camera.Intrinsics `mapstructure:"camera" yaml:"camera" json:"camera"`

	// Chessboard calibration target
	Chessboard ChessboardConfig `mapstructure:"chessboard" yaml:"chessboard" json:"chessboard"`

	// Patch extraction
	Sampler SamplerConfig `mapstructure:"sampler" yaml:"sampler" json:"sampler"`

	// BEV mosaic rendering
	Mosaic MosaicConfig `mapstructure:"mosaic" yaml:"mosaic" json:"mosaic"`
}

// ChessboardConfig describes the calibration target: its inner corner grid.
type ChessboardConfig struct {
	Rows int `mapstructure:"rows" yaml:"rows" json:"rows"`
	Cols int `mapstructure:"cols" yaml:"cols" json:"cols"`
}

// SamplerConfig contains patch extraction settings.
type SamplerConfig struct {
	HistorySize int    `mapstructure:"history_size" yaml:"history_size" json:"history_size"`
	PatchSize   int    `mapstructure:"patch_size" yaml:"patch_size" json:"patch_size"`
	CacheFile   string `mapstructure:"cache_file" yaml:"cache_file" json:"cache_file"`
}

// MosaicConfig contains BEV mosaic settings.
type MosaicConfig struct {
	PatchesX      int `mapstructure:"patches_x" yaml:"patches_x" json:"patches_x"`
	PatchesY      int `mapstructure:"patches_y" yaml:"patches_y" json:"patches_y"`
	ShiftStep     int `mapstructure:"shift_step" yaml:"shift_step" json:"shift_step"`
	Workers       int `mapstructure:"workers" yaml:"workers" json:"workers"`
	TrimThreshold int `mapstructure:"trim_threshold" yaml:"trim_threshold" json:"trim_threshold"`
}

// DefaultConfig returns the configuration defaults. Camera intrinsics have
// no sane defaults and must come from a config file or flags.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Verbose:  false,
		Chessboard: ChessboardConfig{
			Rows: 8,
			Cols: 6,
		},
		Sampler: SamplerConfig{
			HistorySize: 10,
			PatchSize:   128,
		},
		Mosaic: MosaicConfig{
			PatchesX:      6,
			PatchesY:      10,
			ShiftStep:     128,
			Workers:       8,
			TrimThreshold: 1,
		},
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for consistency. Camera intrinsics are
// validated separately by camera.Load, since not every command needs them.
func (c *Config) Validate() error {
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log_level %q (expected debug, info, warn or error)", c.LogLevel)
	}
	if c.Chessboard.Rows < 2 || c.Chessboard.Cols < 2 {
		return fmt.Errorf("chessboard grid %dx%d too small, need at least 2x2 inner corners",
			c.Chessboard.Rows, c.Chessboard.Cols)
	}
	if c.Sampler.HistorySize < 1 {
		return fmt.Errorf("sampler.history_size must be at least 1, got %d", c.Sampler.HistorySize)
	}
	if c.Sampler.PatchSize < 1 {
		return fmt.Errorf("sampler.patch_size must be at least 1, got %d", c.Sampler.PatchSize)
	}
	if c.Mosaic.PatchesX < 0 || c.Mosaic.PatchesY < 0 {
		return fmt.Errorf("mosaic grid extents must be non-negative, got %dx%d",
			c.Mosaic.PatchesX, c.Mosaic.PatchesY)
	}
	if c.Mosaic.ShiftStep < 1 {
		return fmt.Errorf("mosaic.shift_step must be at least 1, got %d", c.Mosaic.ShiftStep)
	}
	if c.Mosaic.Workers < 1 {
		return fmt.Errorf("mosaic.workers must be at least 1, got %d", c.Mosaic.Workers)
	}
	if c.Mosaic.TrimThreshold < 0 || c.Mosaic.TrimThreshold > 255 {
		return fmt.Errorf("mosaic.trim_threshold must be within [0,255], got %d", c.Mosaic.TrimThreshold)
	}
	return nil
}
