package livetest

import (
	"context"
	"os"

	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/livetest/smoke"
)

// RunSmoke smoke tests the module at cfg.Root. A failing package is reported as a
// TestFailureError, a discovery problem as a RuntimeError.
func RunSmoke(ctx context.Context, cfg *SmokeConfig) error {
	runID := uuid.New().String()
	r, err := smoke.NewRunner(smoke.Config{
		Discoverer: &smoke.GoPackageDiscoverer{Root: cfg.Root, Exclude: cfg.Exclude},
		Loader:     &smoke.TypeCheckLoader{},
		Executor:   &smoke.GoTestExecutor{GoBinary: cfg.GoBinary, Dir: cfg.Root},
		Progress:   smoke.NewTerminalProgress(os.Stdout),
		RunID:      runID,
		Log:        cfg.Log,
	})
	if err != nil {
		return NewRuntimeError("setup", err)
	}

	passed, err := r.Run(ctx)
	if err != nil {
		return NewRuntimeError("discovery", err)
	}
	if !passed {
		return smokeFailure(runID, r.Results())
	}
	return nil
}
