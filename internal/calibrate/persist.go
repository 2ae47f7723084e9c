package calibrate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Save writes a calibration result to path as YAML, so one chessboard shot
// calibrates every later run.
func Save(path string, result *Result) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling calibration: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing calibration file: %w", err)
	}
	return nil
}

// Load reads a calibration result previously written by Save.
func Load(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading calibration file: %w", err)
	}
	var result Result
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing calibration file: %w", err)
	}
	return &result, nil
}
