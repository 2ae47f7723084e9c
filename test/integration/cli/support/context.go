// Package support holds the step definitions and scenario state for the
// CLI feature suite. Commands run in process against the real command
// tree, with all inputs generated into a per-scenario temp directory.
package support

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cucumber/godog"

	"github.com/overland-robotics/birdview/cmd/birdview/cmd"
)

// configTemplate matches the synthetic chessboard camera used throughout
// the suite: a 144x120 target image with the principal point at its
// center, and small patches to keep scenarios fast.
const configTemplate = `camera:
  fx: 600
  fy: 600
  cx: 72
  cy: 60
sampler:
  history_size: 3
  patch_size: 24
mosaic:
  patches_x: 1
  patches_y: 1
  shift_step: 24
  workers: 4
  trim_threshold: 1
`

// TestContext carries per-scenario state: the working directory and the
// output of the last executed command.
type TestContext struct {
	workDir         string
	configPath      string
	chessboardPath  string
	trajectoryDir   string
	calibrationPath string

	output  bytes.Buffer
	lastErr error
}

// NewTestContext creates a scenario context with its own temp directory.
func NewTestContext() (*TestContext, error) {
	workDir, err := os.MkdirTemp("", "birdview-cli-*")
	if err != nil {
		return nil, fmt.Errorf("creating scenario directory: %w", err)
	}

	ctx := &TestContext{
		workDir:         workDir,
		configPath:      filepath.Join(workDir, "birdview.yaml"),
		chessboardPath:  filepath.Join(workDir, "chessboard.png"),
		trajectoryDir:   filepath.Join(workDir, "trajectory"),
		calibrationPath: filepath.Join(workDir, "calibration.yaml"),
	}
	if err := os.WriteFile(ctx.configPath, []byte(configTemplate), 0o644); err != nil {
		return nil, fmt.Errorf("writing scenario config: %w", err)
	}
	return ctx, nil
}

// RegisterSteps binds all step definitions and cleanup for this scenario.
func (c *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	c.registerCalibrateSteps(sc)
	c.registerExtractSteps(sc)
	c.registerMosaicSteps(sc)

	sc.Step(`^the command succeeds$`, c.commandSucceeds)
	sc.Step(`^the command fails mentioning "([^"]*)"$`, c.commandFailsMentioning)

	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		_ = os.RemoveAll(c.workDir)
		return ctx, nil
	})
}

// run executes the command tree in process and records output and error.
func (c *TestContext) run(args ...string) error {
	root := cmd.GetRootCommand()
	c.output.Reset()
	root.SetOut(&c.output)
	root.SetErr(&c.output)
	root.SetArgs(append([]string{"--config", c.configPath}, args...))
	c.lastErr = root.Execute()
	return nil
}

func (c *TestContext) commandSucceeds() error {
	if c.lastErr != nil {
		return fmt.Errorf("command failed: %v\noutput:\n%s", c.lastErr, c.output.String())
	}
	return nil
}

func (c *TestContext) commandFailsMentioning(fragment string) error {
	if c.lastErr == nil {
		return fmt.Errorf("expected a failure, command succeeded with output:\n%s", c.output.String())
	}
	if !bytes.Contains([]byte(c.lastErr.Error()), []byte(fragment)) {
		return fmt.Errorf("error %q does not mention %q", c.lastErr, fragment)
	}
	return nil
}
