package support

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"
)

func (c *TestContext) registerMosaicSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I render a mosaic to "([^"]*)"$`, c.iRenderMosaic)
	sc.Step(`^I render a mosaic without a calibration file$`, c.iRenderMosaicWithoutCalibration)
	sc.Step(`^the mosaic "([^"]*)" is (\d+) pixels wide and at most (\d+) pixels tall$`, c.mosaicHasDimensions)
}

func (c *TestContext) iRenderMosaic(name string) error {
	return c.run("mosaic",
		"--image", c.chessboardPath,
		"--calibration", c.calibrationPath,
		"-o", filepath.Join(c.workDir, name),
	)
}

func (c *TestContext) iRenderMosaicWithoutCalibration() error {
	// Flag values persist across in-process executions, so clear the
	// calibration flag explicitly rather than omitting it.
	return c.run("mosaic", "--image", c.chessboardPath, "--calibration=")
}

func (c *TestContext) mosaicHasDimensions(name string, width, maxHeight int) error {
	img, err := readPNG(filepath.Join(c.workDir, name))
	if err != nil {
		return err
	}
	if img.Bounds().Dx() != width {
		return fmt.Errorf("mosaic is %d pixels wide, expected %d", img.Bounds().Dx(), width)
	}
	if img.Bounds().Dy() > maxHeight {
		return fmt.Errorf("mosaic is %d pixels tall, expected at most %d", img.Bounds().Dy(), maxHeight)
	}
	return nil
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}
