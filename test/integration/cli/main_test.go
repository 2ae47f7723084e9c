package cli_test

import (
	"testing"

	"github.com/cucumber/godog"

	"github.com/overland-robotics/birdview/test/integration/cli/support"
)

// InitializeScenario wires a fresh test context into each scenario.
func InitializeScenario(sc *godog.ScenarioContext) {
	ctx, err := support.NewTestContext()
	if err != nil {
		panic(err)
	}
	ctx.RegisterSteps(sc)
}

// TestFeatures runs the CLI feature suite end to end, in process.
func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "birdview-cli",
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("feature suite failed")
	}
}
