package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/livetest/capture"
	"github.com/ethereum-optimism/infra/livetest/engine"
	"github.com/ethereum-optimism/infra/livetest/options"
	"github.com/ethereum-optimism/infra/livetest/types"
)

// Executor runs one resolved case. The returned outcome's WorkDir is owned by the
// caller.
type Executor interface {
	Execute(ctx context.Context, c types.ResolvedCase) (*types.Outcome, error)
}

var _ Executor = (*CaseExecutor)(nil)

// ExecutorConfig configures a CaseExecutor.
type ExecutorConfig struct {
	Table   *options.Table // declared options; switches not in a non-empty table are dropped
	Factory engine.Factory
	BaseDir string // parent of the per-case working directories, os.TempDir() when empty
	Log     log.Logger
}

// CaseExecutor runs cases in isolation: fresh working directory, fresh option set,
// fresh engine, captured output.
type CaseExecutor struct {
	table   *options.Table
	factory engine.Factory
	baseDir string
	log     log.Logger
}

// NewCaseExecutor creates a new case executor
func NewCaseExecutor(cfg ExecutorConfig) (*CaseExecutor, error) {
	if cfg.Factory == nil {
		return nil, fmt.Errorf("engine factory cannot be nil")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
	}
	return &CaseExecutor{
		table:   cfg.Table,
		factory: cfg.Factory,
		baseDir: cfg.BaseDir,
		log:     cfg.Log,
	}, nil
}

// Execute runs the case and classifies the result. Errors are returned only for
// setup failures; everything the engine does is reflected in the outcome.
func (e *CaseExecutor) Execute(ctx context.Context, c types.ResolvedCase) (*types.Outcome, error) {
	start := time.Now()

	workDir, err := os.MkdirTemp(e.baseDir, WorkDirPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}
	e.log.Debug("Using working directory for case", "case", c.DisplayName(), "dir", workDir)

	opts, rejected := e.table.Defaults().Overlay(c.Switches, e.accepts)
	for _, name := range rejected {
		e.log.Warn("Ignoring unknown option", "case", c.DisplayName(), "option", name)
	}

	eng := e.factory()
	if err := eng.Init(opts, engine.Environment{WorkDir: workDir}, true); err != nil {
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	res, raw, err := e.invoke(ctx, eng, workDir)
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, err
	}

	outcome, err := e.classify(ctx, c, eng, res, decodeConsole(raw))
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, err
	}
	outcome.WorkDir = workDir
	outcome.Duration = time.Since(start)
	return outcome, nil
}

func (e *CaseExecutor) accepts(name string) bool {
	if len(e.table.Groups()) == 0 {
		return true
	}
	return e.table.Has(name)
}

// panicError carries a panic raised inside the engine, with the stack at recovery.
type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.value, p.stack)
}

// invoke runs the engine with stdout and the root logger captured. The capture is
// released on every path, including panics, before invoke returns.
func (e *CaseExecutor) invoke(ctx context.Context, eng engine.Engine, workDir string) (res engine.Result, console []byte, err error) {
	h, err := capture.Acquire(workDir)
	if err != nil {
		return engine.Result{}, nil, err
	}
	defer func() {
		out, relErr := h.Release()
		console = out
		if relErr != nil && err == nil {
			err = relErr
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			res = engine.Failed(&panicError{value: r, stack: debug.Stack()})
		}
	}()

	return eng.Run(ctx), nil, nil
}

func (e *CaseExecutor) classify(ctx context.Context, c types.ResolvedCase, eng engine.Engine, res engine.Result, console string) (*types.Outcome, error) {
	outcome := &types.Outcome{}

	if ctx.Err() != nil {
		outcome.Verdict = types.VerdictInterrupted
		return outcome, nil
	}

	switch res.Kind {
	case engine.KindNotVulnerable:
		outcome.Verdict = types.VerdictNotVulnerable
		outcome.NegativeKind = types.NegativeSignal
		outcome.EngineNote = res.Note
		outcome.Console = console
	case engine.KindNegative:
		outcome.Verdict = types.VerdictNotVulnerable
		outcome.NegativeKind = types.NegativeReturn
		outcome.EngineNote = res.Note
		outcome.Console = console
	case engine.KindError:
		if engine.IsDomainError(res.Err) {
			outcome.Verdict = types.VerdictHandledError
			outcome.Diagnostic = fmt.Sprintf("handled exception: %v", res.Err)
		} else {
			outcome.Verdict = types.VerdictUnhandledError
			outcome.Diagnostic = fmt.Sprintf("unhandled exception: %v", errOrUnknown(res.Err))
		}
	case engine.KindVulnerable:
		if len(c.Assertions) == 0 {
			outcome.Verdict = types.VerdictPassed
			return outcome, nil
		}
		artifact, err := readArtifact(eng.OutputFile())
		if err != nil {
			return nil, err
		}
		failed, err := matchAssertions(c.Assertions, evidence{console: console, artifact: artifact})
		if failed == nil {
			outcome.Verdict = types.VerdictPassed
			return outcome, nil
		}
		outcome.Verdict = types.VerdictAssertionFailed
		outcome.FailedAssertion = failed
		outcome.Console = console
		if err != nil {
			outcome.Diagnostic = err.Error()
		}
	default:
		outcome.Verdict = types.VerdictUnhandledError
		outcome.Diagnostic = fmt.Sprintf("unhandled exception: unknown engine result %s", res.Kind)
	}
	return outcome, nil
}

func errOrUnknown(err error) error {
	if err == nil {
		return errors.New("engine failed without an error")
	}
	return err
}
