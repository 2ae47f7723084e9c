package cmd

import (
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/overland-robotics/birdview/internal/calibrate"
	"github.com/overland-robotics/birdview/internal/camera"
)

// calibrateCmd represents the calibrate command.
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Calibrate the ground-plane homography from a chessboard image",
	Long: `Detect a chessboard lying on the ground, fit the model-to-image
homography and decompose it into the camera pose and ground-plane terms.

The result is written as YAML and reused by the extract and mosaic
commands.

Examples:
  birdview calibrate --image board.png -o calibration.yaml
  birdview calibrate --image board.png --rows 8 --cols 6 -o calibration.yaml`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		imagePath, _ := cmd.Flags().GetString("image")
		output, _ := cmd.Flags().GetString("output")
		if imagePath == "" {
			return fmt.Errorf("no chessboard image provided (use --image)")
		}

		cam, err := camera.Load(cfg.Camera)
		if err != nil {
			return fmt.Errorf("loading camera model: %w", err)
		}

		img, err := imaging.Open(imagePath)
		if err != nil {
			return fmt.Errorf("opening chessboard image: %w", err)
		}

		calibrator := calibrate.NewCalibrator(cam, calibrate.NewHarrisDetector())
		result, err := calibrator.Calibrate(img, cfg.Chessboard.Rows, cfg.Chessboard.Cols)
		if err != nil {
			return err
		}

		if err := calibrate.Save(output, result); err != nil {
			return err
		}

		inliers := 0
		for _, in := range result.Inliers {
			if in {
				inliers++
			}
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(),
			"Calibration written to %s (tile width %.1f px, %d/%d inliers, plane distance %.3f)\n",
			output, result.TileWidth, inliers, len(result.Inliers), result.Distance)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(calibrateCmd)

	calibrateCmd.Flags().String("image", "", "chessboard image to calibrate from")
	calibrateCmd.Flags().StringP("output", "o", "calibration.yaml", "output calibration file")
	calibrateCmd.Flags().Int("rows", 8, "chessboard inner corner rows")
	calibrateCmd.Flags().Int("cols", 6, "chessboard inner corner columns")

	_ = viper.BindPFlag("chessboard.rows", calibrateCmd.Flags().Lookup("rows"))
	_ = viper.BindPFlag("chessboard.cols", calibrateCmd.Flags().Lookup("cols"))
}
