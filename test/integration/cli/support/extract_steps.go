package support

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"

	"github.com/overland-robotics/birdview/internal/testutil"
)

func (c *TestContext) registerExtractSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a recorded trajectory of (\d+) stationary frames$`, c.aStationaryTrajectory)
	sc.Step(`^I extract patches into "([^"]*)"$`, c.iExtractPatchesInto)
	sc.Step(`^patch stacks exist for timesteps (\d+) through (\d+)$`, c.patchStacksExist)
	sc.Step(`^each stack contains (\d+) patches of (\d+) pixels$`, c.eachStackContains)
}

func (c *TestContext) aStationaryTrajectory(n int) error {
	frames := make([]*image.NRGBA, n)
	poses := make([][16]float64, n)
	for t := 0; t < n; t++ {
		frames[t] = testutil.TrajectoryFrame(t, 160, 120)
		poses[t] = testutil.IdentityPose(0, 0, 0)
	}
	return testutil.WriteTrajectory(c.trajectoryDir, frames, poses)
}

func (c *TestContext) iExtractPatchesInto(dir string) error {
	return c.run("extract",
		"--trajectory", c.trajectoryDir,
		"--calibration", c.calibrationPath,
		"--history", "3",
		"--patch-size", "24",
		"-o", filepath.Join(c.workDir, dir),
	)
}

func (c *TestContext) patchStacksExist(from, to int) error {
	for t := from; t <= to; t++ {
		dir := filepath.Join(c.workDir, "patches", fmt.Sprintf("t_%06d", t))
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("missing patch stack for timestep %d: %w", t, err)
		}
	}
	return nil
}

func (c *TestContext) eachStackContains(count, size int) error {
	root := filepath.Join(c.workDir, "patches")
	stacks, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, stack := range stacks {
		files, err := os.ReadDir(filepath.Join(root, stack.Name()))
		if err != nil {
			return err
		}
		if len(files) != count {
			return fmt.Errorf("stack %s has %d patches, expected %d", stack.Name(), len(files), count)
		}
		img, err := readPNG(filepath.Join(root, stack.Name(), files[0].Name()))
		if err != nil {
			return err
		}
		if img.Bounds().Dx() != size || img.Bounds().Dy() != size {
			return fmt.Errorf("stack %s patch is %dx%d, expected %dx%d",
				stack.Name(), img.Bounds().Dx(), img.Bounds().Dy(), size, size)
		}
	}
	return nil
}
