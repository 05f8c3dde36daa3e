package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/livetest/alert"
	"github.com/ethereum-optimism/infra/livetest/metrics"
	"github.com/ethereum-optimism/infra/livetest/suite"
	"github.com/ethereum-optimism/infra/livetest/types"
)

// SuiteLoader loads a suite document.
type SuiteLoader interface {
	LoadFile(path string) (*types.Suite, error)
}

// CaseResult pairs a resolved case with its outcome.
type CaseResult struct {
	Case    types.ResolvedCase
	Outcome *types.Outcome
}

// ResultStats tracks case statistics for a run
type ResultStats struct {
	Total       int // cases in the suite
	Selected    int
	Passed      int
	Failed      int
	Interrupted int
	StartTime   time.Time
	EndTime     time.Time
}

// RunResult captures the complete live test run
type RunResult struct {
	RunID       string
	SuitePath   string
	Cases       []*CaseResult // executed cases in suite order
	Passed      bool
	Stopped     bool // halted by stop-on-failure
	Interrupted bool
	Duration    time.Duration
	Stats       ResultStats
}

// Config holds configuration for creating a LiveTestRunner
type Config struct {
	SuitePath     string
	Loader        SuiteLoader
	Coercer       suite.Coercer
	Executor      Executor
	Selector      *Selector
	StopOnFailure bool
	KeepWorkDirs  bool          // keep working directories of passing cases
	Alerter       alert.Alerter // sounded for every failing case, nil disables
	RunID         string        // generated when empty
	Log           log.Logger
}

// LiveTestRunner runs the selected cases of a suite sequentially.
type LiveTestRunner struct {
	cfg    Config
	log    log.Logger
	tracer trace.Tracer
}

// NewLiveTestRunner creates a new live test runner
func NewLiveTestRunner(cfg Config) (*LiveTestRunner, error) {
	if cfg.SuitePath == "" {
		return nil, fmt.Errorf("suite path is required")
	}
	if cfg.Loader == nil {
		return nil, fmt.Errorf("suite loader is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("case executor is required")
	}
	if cfg.Alerter == nil {
		cfg.Alerter = alert.Nop{}
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}

	cfg.Log.Debug("NewLiveTestRunner()", "suite", cfg.SuitePath, "selector", cfg.Selector,
		"stopOnFailure", cfg.StopOnFailure, "keepWorkDirs", cfg.KeepWorkDirs)

	return &LiveTestRunner{
		cfg:    cfg,
		log:    cfg.Log,
		tracer: otel.Tracer("live test runner"),
	}, nil
}

// Run loads the suite and executes every selected case in order. The returned
// error covers loading and setup failures only; failing cases are reported in the
// result.
func (r *LiveTestRunner) Run(ctx context.Context) (*RunResult, error) {
	runID := r.cfg.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	start := time.Now()

	s, err := r.cfg.Loader.LoadFile(r.cfg.SuitePath)
	if err != nil {
		metrics.RecordErrorDetails("load", err)
		return nil, err
	}

	result := &RunResult{
		RunID:     runID,
		SuitePath: s.Path,
		Passed:    true,
		Stats:     ResultStats{Total: len(s.Cases), StartTime: start},
	}
	defer func() {
		result.Duration = time.Since(start)
		result.Stats.EndTime = time.Now()
	}()

	r.log.Debug("Running live tests", "run_id", runID, "suite", s.Path, "cases", len(s.Cases))

	for pos, c := range s.Cases {
		index := pos + 1
		if !r.cfg.Selector.Matches(index, c.Name) {
			continue
		}
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}
		result.Stats.Selected++

		rc, err := suite.Resolve(s, pos, r.cfg.Coercer)
		if err != nil {
			return nil, err
		}

		outcome, err := r.runCase(ctx, runID, rc, len(s.Cases))
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", rc.DisplayName(), err)
		}
		result.Cases = append(result.Cases, &CaseResult{Case: rc, Outcome: outcome})

		if outcome.Verdict == types.VerdictInterrupted {
			result.Stats.Interrupted++
			result.Interrupted = true
			r.log.Warn("live test interrupted", "name", rc.DisplayName(), "dir", outcome.WorkDir)
			break
		}
		if !outcome.Verdict.Failed() {
			result.Stats.Passed++
			continue
		}
		result.Stats.Failed++
		result.Passed = false
		if r.cfg.StopOnFailure {
			result.Stopped = true
			break
		}
	}

	if result.Stats.Selected == 0 {
		r.log.Warn("No live test cases selected", "selector", r.cfg.Selector)
	}
	if result.Passed {
		r.log.Info("live test final result: PASSED", "run_id", runID)
	} else {
		r.log.Error("live test final result: FAILED", "run_id", runID)
	}
	metrics.RecordRunResult(runID, "live", result.Passed)
	return result, nil
}

// runCase executes one case and handles its outcome: cleanup on pass, persisted
// diagnostics and an alert on failure.
func (r *LiveTestRunner) runCase(ctx context.Context, runID string, rc types.ResolvedCase, total int) (*types.Outcome, error) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("case %s", rc.DisplayName()))
	defer span.End()
	span.SetAttributes(attribute.Int("case.index", rc.Index), attribute.String("run.id", runID))

	r.log.Info("running live test case", "name", rc.DisplayName(), "case", fmt.Sprintf("%d/%d", rc.Index, total))

	outcome, err := r.cfg.Executor.Execute(ctx, rc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "setup failed")
		metrics.RecordErrorDetails("case", err)
		return nil, err
	}
	span.SetAttributes(attribute.String("case.verdict", string(outcome.Verdict)))
	metrics.RecordCase(runID, outcome.Verdict, outcome.Duration)

	switch {
	case outcome.Verdict == types.VerdictPassed:
		r.log.Info("test passed", "name", rc.DisplayName(), "duration", outcome.Duration)
		if !r.cfg.KeepWorkDirs {
			if err := os.RemoveAll(outcome.WorkDir); err != nil {
				r.log.Warn("Failed to remove working directory", "dir", outcome.WorkDir, "err", err)
			}
		}
	case outcome.Verdict.Failed():
		span.SetStatus(codes.Error, string(outcome.Verdict))
		r.logFailure(rc, outcome)
		if err := persistFailure(rc, outcome); err != nil {
			r.log.Error("Failed to persist case diagnostics", "name", rc.DisplayName(), "err", err)
		}
		r.cfg.Alerter.Alert()
	}
	return outcome, nil
}

func (r *LiveTestRunner) logFailure(rc types.ResolvedCase, o *types.Outcome) {
	ctx := []any{
		"name", rc.DisplayName(),
		"verdict", o.Verdict,
		"dir", o.WorkDir,
		"traceback", o.HasTrace(),
	}
	if o.FailedAssertion != nil {
		ctx = append(ctx, "item", o.FailedAssertion.Pattern)
	}
	if o.Verdict == types.VerdictNotVulnerable {
		ctx = append(ctx, "negative", o.NegativeKind)
	}
	r.log.Error(o.Summary(), ctx...)
}
