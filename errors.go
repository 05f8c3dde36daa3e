package livetest

import (
	"fmt"

	"github.com/ethereum-optimism/infra/livetest/exitcodes"
	"github.com/ethereum-optimism/infra/livetest/runner"
	"github.com/ethereum-optimism/infra/livetest/smoke"
)

// Run modes, as used in failures and in the run result metric.
const (
	ModeLive  = "live"
	ModeSmoke = "smoke"
)

// RuntimeError is a failure that kept a run from being carried out at all, such as
// an unreadable suite or a bad engine configuration.
type RuntimeError struct {
	Stage string // config, setup, run or discovery
	Err   error
}

func NewRuntimeError(stage string, err error) *RuntimeError {
	return &RuntimeError{Stage: stage, Err: err}
}

func (e *RuntimeError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("runtime error: %v", e.Err)
	}
	return fmt.Sprintf("runtime error during %s: %v", e.Stage, e.Err)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// ExitCode implements cli.ExitCoder.
func (e *RuntimeError) ExitCode() int {
	return exitcodes.RuntimeErr
}

// TestFailureError reports a completed run in which cases (or, for smoke runs,
// packages) failed.
type TestFailureError struct {
	Mode        string
	RunID       string
	Selected    int
	Failed      int
	Interrupted bool
}

func liveFailure(result *runner.RunResult) *TestFailureError {
	return &TestFailureError{
		Mode:        ModeLive,
		RunID:       result.RunID,
		Selected:    result.Stats.Selected,
		Failed:      result.Stats.Failed,
		Interrupted: result.Interrupted,
	}
}

func smokeFailure(runID string, results []smoke.UnitResult) *TestFailureError {
	e := &TestFailureError{Mode: ModeSmoke, RunID: runID, Selected: len(results)}
	for _, res := range results {
		if res.Err != nil {
			e.Failed++
		}
	}
	return e
}

func (e *TestFailureError) Error() string {
	unit := "cases"
	if e.Mode == ModeSmoke {
		unit = "packages"
	}
	msg := fmt.Sprintf("%s run %s: %d of %d %s failed", e.Mode, e.RunID, e.Failed, e.Selected, unit)
	if e.Interrupted {
		msg += " (interrupted)"
	}
	return msg
}

// ExitCode implements cli.ExitCoder.
func (e *TestFailureError) ExitCode() int {
	return exitcodes.TestFailure
}
