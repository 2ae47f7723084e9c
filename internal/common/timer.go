// Package common holds small helpers shared across the pipeline stages.
package common

import (
	"fmt"
	"time"
)

// Phase measures how long a named pipeline stage takes. Start it when the
// stage begins and Stop it once, then hand the duration to the logger.
type Phase struct {
	name    string
	start   time.Time
	elapsed time.Duration
}

// StartPhase begins timing the named stage.
func StartPhase(name string) *Phase {
	return &Phase{name: name, start: time.Now()}
}

// Stop freezes the measurement and returns the elapsed duration.
func (p *Phase) Stop() time.Duration {
	p.elapsed = time.Since(p.start)
	return p.elapsed
}

// Elapsed returns the frozen duration. Zero until Stop is called.
func (p *Phase) Elapsed() time.Duration {
	return p.elapsed
}

// Name returns the stage name.
func (p *Phase) Name() string {
	return p.name
}

func (p *Phase) String() string {
	return fmt.Sprintf("%s: %v", p.name, p.elapsed)
}
