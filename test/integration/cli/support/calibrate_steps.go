package support

import (
	"fmt"
	"image/png"
	"os"

	"github.com/cucumber/godog"

	"github.com/overland-robotics/birdview/internal/calibrate"
	"github.com/overland-robotics/birdview/internal/testutil"
)

const (
	boardRows = 4
	boardCols = 5
	boardTile = 24
)

func (c *TestContext) registerCalibrateSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a chessboard image on the ground$`, c.aChessboardImage)
	sc.Step(`^a calibrated ground plane$`, c.aCalibratedGroundPlane)
	sc.Step(`^I calibrate from the chessboard image$`, c.iCalibrate)
	sc.Step(`^I run calibrate without an image$`, c.iCalibrateWithoutImage)
	sc.Step(`^the calibration file reports a positive plane distance$`, c.calibrationHasPositiveDistance)
}

func (c *TestContext) aChessboardImage() error {
	img := testutil.Chessboard(boardRows, boardCols, boardTile)
	f, err := os.Create(c.chessboardPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func (c *TestContext) iCalibrate() error {
	return c.run("calibrate",
		"--image", c.chessboardPath,
		"--rows", fmt.Sprint(boardRows),
		"--cols", fmt.Sprint(boardCols),
		"-o", c.calibrationPath,
	)
}

func (c *TestContext) iCalibrateWithoutImage() error {
	// Flag values persist across in-process executions, so clear --image
	// explicitly rather than omitting it.
	return c.run("calibrate", "--image=", "-o", c.calibrationPath)
}

// aCalibratedGroundPlane runs the full calibrate flow as a precondition
// for the extract and mosaic scenarios.
func (c *TestContext) aCalibratedGroundPlane() error {
	if err := c.aChessboardImage(); err != nil {
		return err
	}
	if err := c.iCalibrate(); err != nil {
		return err
	}
	return c.commandSucceeds()
}

func (c *TestContext) calibrationHasPositiveDistance() error {
	result, err := calibrate.Load(c.calibrationPath)
	if err != nil {
		return err
	}
	if result.Distance <= 0 {
		return fmt.Errorf("plane distance %g, expected positive", result.Distance)
	}
	if len(result.Corners) != boardRows*boardCols {
		return fmt.Errorf("calibration has %d corners, expected %d",
			len(result.Corners), boardRows*boardCols)
	}
	return nil
}
