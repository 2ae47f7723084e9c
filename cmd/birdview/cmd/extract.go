package cmd

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/overland-robotics/birdview/internal/calibrate"
	"github.com/overland-robotics/birdview/internal/camera"
	"github.com/overland-robotics/birdview/internal/sampler"
	"github.com/overland-robotics/birdview/internal/warp"
)

// extractCmd represents the extract command.
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract temporally aligned ground patches from a trajectory",
	Long: `Walk a recorded trajectory and cut the same physical ground patch
out of the current frame and each overlapping past frame, using the
calibrated homography propagated through the odometry.

The trajectory directory holds one image per timestep plus a poses.csv
with the row-major 4x4 pose of each frame. Patches are written as PNG
files grouped per timestep; with --cache, results are stored in a gob
file and reused on the next run.

Examples:
  birdview extract --trajectory ./run42 --calibration calibration.yaml -o patches/
  birdview extract --trajectory ./run42 --calibration calibration.yaml --cache run42.gob -o patches/`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		trajectory, _ := cmd.Flags().GetString("trajectory")
		calibFile, _ := cmd.Flags().GetString("calibration")
		outputDir, _ := cmd.Flags().GetString("output")
		cacheFile, _ := cmd.Flags().GetString("cache")
		if trajectory == "" {
			return fmt.Errorf("no trajectory directory provided (use --trajectory)")
		}
		if calibFile == "" {
			return fmt.Errorf("no calibration file provided (use --calibration)")
		}
		if cacheFile == "" {
			cacheFile = cfg.Sampler.CacheFile
		}

		s, err := buildSampler(cfg.Camera, calibFile, sampler.Config{
			HistorySize: cfg.Sampler.HistorySize,
			PatchSize:   cfg.Sampler.PatchSize,
		})
		if err != nil {
			return err
		}

		src, err := sampler.OpenDir(trajectory)
		if err != nil {
			return err
		}

		data, err := s.SampleCached(src, cacheFile)
		if err != nil {
			return err
		}

		if outputDir != "" {
			if err := writePatches(outputDir, data); err != nil {
				return err
			}
		}
		if sheetDir, _ := cmd.Flags().GetString("sheets"); sheetDir != "" {
			if err := writeSheets(sheetDir, data); err != nil {
				return err
			}
		}

		total := 0
		for _, stack := range data {
			total += len(stack.Patches)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d patches over %d timesteps\n",
			total, len(data))
		return nil
	},
}

// buildSampler wires the calibration, camera model and propagator into a
// ready-to-run sampler.
func buildSampler(intr camera.Intrinsics, calibFile string, cfg sampler.Config) (*sampler.Sampler, error) {
	cam, err := camera.Load(intr)
	if err != nil {
		return nil, fmt.Errorf("loading camera model: %w", err)
	}

	calib, err := calibrate.Load(calibFile)
	if err != nil {
		return nil, err
	}
	patchH, err := calib.PatchHomography()
	if err != nil {
		return nil, fmt.Errorf("inverting calibration homography: %w", err)
	}

	prop := sampler.NewPropagator(cam.K(), patchH, calib.Normal, calib.Distance, sampler.DefaultCameraOffset)
	return sampler.NewSampler(prop, cfg, slog.Default())
}

// writePatches lays the extracted stacks out as one directory per timestep.
func writePatches(dir string, data []sampler.TimestepPatches) error {
	for _, stack := range data {
		stackDir := filepath.Join(dir, fmt.Sprintf("t_%06d", stack.Timestep))
		if err := os.MkdirAll(stackDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		for i, patch := range stack.Patches {
			path := filepath.Join(stackDir, fmt.Sprintf("patch_%02d.png", i))
			if err := imaging.Save(patch, path); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
		}
	}
	return nil
}

// writeSheets renders one stitched inspection sheet per timestep: the
// anchor patch on top, the history grid below.
func writeSheets(dir string, data []sampler.TimestepPatches) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating sheet directory: %w", err)
	}
	for _, stack := range data {
		sheet, err := warp.StitchGrid(stack.Patches, 4, color.White)
		if err != nil {
			return fmt.Errorf("stitching timestep %d: %w", stack.Timestep, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("t_%06d.png", stack.Timestep))
		if err := imaging.Save(sheet, path); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("trajectory", "", "trajectory directory (images + poses.csv)")
	extractCmd.Flags().String("calibration", "", "calibration file from 'birdview calibrate'")
	extractCmd.Flags().StringP("output", "o", "", "directory to write patch PNGs into")
	extractCmd.Flags().String("cache", "", "gob cache file (loaded if present, written otherwise)")
	extractCmd.Flags().String("sheets", "", "directory to write per-timestep inspection sheets into")
	extractCmd.Flags().Int("history", 10, "temporal window size in frames")
	extractCmd.Flags().Int("patch-size", 128, "patch side length in pixels")

	_ = viper.BindPFlag("sampler.history_size", extractCmd.Flags().Lookup("history"))
	_ = viper.BindPFlag("sampler.patch_size", extractCmd.Flags().Lookup("patch-size"))
}
