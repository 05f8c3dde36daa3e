package livetest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/livetest/exitcodes"
	"github.com/ethereum-optimism/infra/livetest/runner"
	"github.com/ethereum-optimism/infra/livetest/smoke"
)

func TestRuntimeError(t *testing.T) {
	base := errors.New("suite not found")
	rt := NewRuntimeError("run", base)
	assert.Equal(t, "runtime error during run: suite not found", rt.Error())
	assert.Equal(t, "runtime error: suite not found", (&RuntimeError{Err: base}).Error())
	assert.ErrorIs(t, rt, base)

	var coder cli.ExitCoder
	require.ErrorAs(t, fmt.Errorf("start: %w", rt), &coder)
	assert.Equal(t, exitcodes.RuntimeErr, coder.ExitCode())
}

func TestLiveFailure(t *testing.T) {
	err := liveFailure(&runner.RunResult{
		RunID:       "run-7",
		Interrupted: true,
		Stats:       runner.ResultStats{Total: 5, Selected: 4, Passed: 1, Failed: 2, Interrupted: 1},
	})
	assert.Equal(t, "live run run-7: 2 of 4 cases failed (interrupted)", err.Error())

	var coder cli.ExitCoder
	require.ErrorAs(t, errors.Join(errors.New("failed to start"), err), &coder)
	assert.Equal(t, exitcodes.TestFailure, coder.ExitCode())
}

func TestSmokeFailure(t *testing.T) {
	err := smokeFailure("run-8", []smoke.UnitResult{
		{Unit: smoke.Unit{ImportPath: "example.com/a"}},
		{Unit: smoke.Unit{ImportPath: "example.com/b"}, Err: errors.New("undefined: x")},
		{Unit: smoke.Unit{ImportPath: "example.com/c"}},
	})
	assert.Equal(t, "smoke run run-8: 1 of 3 packages failed", err.Error())
	assert.Equal(t, exitcodes.TestFailure, err.ExitCode())
}
