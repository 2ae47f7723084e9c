package cmd

import (
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/overland-robotics/birdview/internal/calibrate"
	"github.com/overland-robotics/birdview/internal/warp"
)

// mosaicCmd represents the mosaic command.
var mosaicCmd = &cobra.Command{
	Use:   "mosaic",
	Short: "Render a tiled bird's-eye-view mosaic from a single frame",
	Long: `Warp one camera frame through the calibrated homography once per
lattice shift and stitch the results into a wide top-down mosaic of the
ground around the vehicle. Trailing all-black rows are cropped from the
bottom.

Examples:
  birdview mosaic --image frame.png --calibration calibration.yaml -o bev.png
  birdview mosaic --image frame.png --calibration calibration.yaml --patches-x 4 --patches-y 6 -o bev.png`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		imagePath, _ := cmd.Flags().GetString("image")
		calibFile, _ := cmd.Flags().GetString("calibration")
		output, _ := cmd.Flags().GetString("output")
		if imagePath == "" {
			return fmt.Errorf("no input frame provided (use --image)")
		}
		if calibFile == "" {
			return fmt.Errorf("no calibration file provided (use --calibration)")
		}

		calib, err := calibrate.Load(calibFile)
		if err != nil {
			return err
		}
		patchH, err := calib.PatchHomography()
		if err != nil {
			return fmt.Errorf("inverting calibration homography: %w", err)
		}

		img, err := imaging.Open(imagePath)
		if err != nil {
			return fmt.Errorf("opening input frame: %w", err)
		}

		builder := &warp.MosaicBuilder{
			Grid: warp.GridSpec{
				PatchesX:  cfg.Mosaic.PatchesX,
				PatchesY:  cfg.Mosaic.PatchesY,
				ShiftStep: cfg.Mosaic.ShiftStep,
			},
			Workers:       cfg.Mosaic.Workers,
			TrimThreshold: uint8(cfg.Mosaic.TrimThreshold),
		}

		mosaic, err := builder.Build(img, patchH, cfg.Sampler.PatchSize)
		if err != nil {
			return err
		}

		if err := imaging.Save(mosaic, output); err != nil {
			return fmt.Errorf("writing mosaic: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Mosaic written to %s (%dx%d)\n",
			output, mosaic.Rect.Dx(), mosaic.Rect.Dy())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mosaicCmd)

	mosaicCmd.Flags().String("image", "", "camera frame to render")
	mosaicCmd.Flags().String("calibration", "", "calibration file from 'birdview calibrate'")
	mosaicCmd.Flags().StringP("output", "o", "bev.png", "output mosaic file")
	mosaicCmd.Flags().Int("patches-x", 6, "lateral patch count on each side of the reference patch")
	mosaicCmd.Flags().Int("patches-y", 10, "forward patch count")
	mosaicCmd.Flags().Int("workers", 8, "parallel warp workers")

	_ = viper.BindPFlag("mosaic.patches_x", mosaicCmd.Flags().Lookup("patches-x"))
	_ = viper.BindPFlag("mosaic.patches_y", mosaicCmd.Flags().Lookup("patches-y"))
	_ = viper.BindPFlag("mosaic.workers", mosaicCmd.Flags().Lookup("workers"))
}
