package smoke

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/livetest/metrics"
)

// Config holds configuration for creating a smoke Runner
type Config struct {
	Discoverer Discoverer
	Loader     UnitLoader // type checks with go/packages when nil
	Executor   ExampleExecutor
	Progress   Progress // no-op when nil
	RunID      string
	Log        log.Logger
}

// UnitResult is the smoke result of one package.
type UnitResult struct {
	Unit     Unit
	Examples []string
	Err      error
}

// Runner loads every discovered unit and runs its examples.
type Runner struct {
	cfg     Config
	log     log.Logger
	results []UnitResult
}

// NewRunner creates a new smoke test runner
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Discoverer == nil {
		return nil, fmt.Errorf("discoverer is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("example executor is required")
	}
	if cfg.Loader == nil {
		cfg.Loader = &TypeCheckLoader{}
	}
	if cfg.Progress == nil {
		cfg.Progress = NewNoOpProgress()
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	return &Runner{cfg: cfg, log: cfg.Log}, nil
}

// Results returns the per unit results of the last run.
func (r *Runner) Results() []UnitResult {
	return r.results
}

// Run smoke tests every unit. A failing unit marks the run failed but never stops
// the walk; only discovery errors and cancellation are returned as errors.
func (r *Runner) Run(ctx context.Context) (bool, error) {
	inv, err := r.cfg.Discoverer.Discover(ctx)
	if err != nil {
		return false, err
	}

	r.results = r.results[:0]
	passed := true
	advanced := 0
	r.cfg.Progress.Start(inv.TotalFiles)
	for _, u := range inv.Units {
		if err := ctx.Err(); err != nil {
			r.cfg.Progress.Done()
			return false, err
		}
		res := r.runUnit(ctx, u)
		r.results = append(r.results, res)
		metrics.RecordSmokeUnit(res.Err == nil)
		if res.Err != nil {
			passed = false
		}
		r.cfg.Progress.Advance(u.FileCount)
		advanced += u.FileCount
	}
	// files in directories without a package
	if rest := inv.TotalFiles - advanced; rest > 0 {
		r.cfg.Progress.Advance(rest)
	}
	r.cfg.Progress.Done()

	if passed {
		r.log.Info("smoke test final result: PASSED", "packages", len(inv.Units))
	} else {
		r.log.Error("smoke test final result: FAILED", "packages", len(inv.Units))
	}
	if r.cfg.RunID != "" {
		metrics.RecordRunResult(r.cfg.RunID, "smoke", passed)
	}
	return passed, nil
}

func (r *Runner) runUnit(ctx context.Context, u Unit) UnitResult {
	res := UnitResult{Unit: u}
	if err := r.cfg.Loader.Load(ctx, u); err != nil {
		r.cfg.Progress.Clear()
		r.log.Error("Failed to load package", "package", u.ImportPath, "err", err)
		res.Err = err
		return res
	}

	examples, err := FindExamples(u)
	if err != nil {
		r.cfg.Progress.Clear()
		r.log.Error("Failed to read examples", "package", u.ImportPath, "err", err)
		res.Err = err
		return res
	}
	res.Examples = examples
	if len(examples) == 0 {
		return res
	}

	out, err := r.cfg.Executor.RunExamples(ctx, u, examples)
	if err != nil {
		r.cfg.Progress.Clear()
		r.log.Error("Failed examples", "package", u.ImportPath, "examples", strings.Join(examples, ","), "err", err, "output", string(out))
		res.Err = err
		return res
	}
	r.log.Debug("Examples passed", "package", u.ImportPath, "examples", len(examples))
	return res
}
