// Package livetest wires the live test runner into a run-once cliapp lifecycle.
package livetest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"

	"github.com/ethereum-optimism/infra/livetest/alert"
	"github.com/ethereum-optimism/infra/livetest/engine"
	"github.com/ethereum-optimism/infra/livetest/options"
	"github.com/ethereum-optimism/infra/livetest/reporting"
	"github.com/ethereum-optimism/infra/livetest/runner"
	"github.com/ethereum-optimism/infra/livetest/service"
	"github.com/ethereum-optimism/infra/livetest/suite"
)

// LiveTest implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = (*LiveTest)(nil)

// LiveTestRunner is the part of runner.LiveTestRunner the lifecycle depends on.
type LiveTestRunner interface {
	Run(ctx context.Context) (*runner.RunResult, error)
}

// LiveTest runs a suite once and then asks the application to shut down.
type LiveTest struct {
	config  *Config
	version string
	runID   string
	runner  LiveTestRunner
	service *service.Service
	result  *runner.RunResult

	running          atomic.Bool
	shutdownCallback func(error)
}

// New creates the live test lifecycle, building the option table, the process
// engine and the runner from config.
func New(config *Config, version string, shutdownCallback func(error)) (*LiveTest, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating live test with config",
		"suite", config.SuitePath,
		"options", config.OptionsPath,
		"selector", config.Selector,
		"stopOnFailure", config.StopOnFailure,
		"engine", config.EngineBinary)

	table := options.NewTable()
	if config.OptionsPath != "" {
		var err error
		table, err = options.LoadTable(config.OptionsPath)
		if err != nil {
			return nil, err
		}
	}

	factory, err := engine.NewProcessFactory(engine.ProcessConfig{
		Binary:            config.EngineBinary,
		Args:              config.EngineArgs,
		NotVulnerableCode: config.NotVulnerableCode,
		NegativeCode:      config.NegativeCode,
		Log:               config.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	executor, err := runner.NewCaseExecutor(runner.ExecutorConfig{
		Table:   table,
		Factory: factory,
		BaseDir: config.WorkDir,
		Log:     config.Log,
	})
	if err != nil {
		return nil, err
	}

	var alerter alert.Alerter = alert.Nop{}
	if config.Beep {
		alerter = alert.NewBell()
	}

	runID := uuid.New().String()
	liveRunner, err := runner.NewLiveTestRunner(runner.Config{
		SuitePath:     config.SuitePath,
		Loader:        suite.NewLoader(table, config.Log),
		Coercer:       table,
		Executor:      executor,
		Selector:      config.Selector,
		StopOnFailure: config.StopOnFailure,
		KeepWorkDirs:  config.KeepWorkDirs,
		Alerter:       alerter,
		RunID:         runID,
		Log:           config.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create live test runner: %w", err)
	}

	return NewWithRunner(config, version, runID, liveRunner, shutdownCallback), nil
}

// NewWithRunner creates the lifecycle around an existing runner.
func NewWithRunner(config *Config, version string, runID string, r LiveTestRunner, shutdownCallback func(error)) *LiveTest {
	if shutdownCallback == nil {
		shutdownCallback = func(error) {}
	}
	return &LiveTest{
		config:  config,
		version: version,
		runID:   runID,
		runner:  r,
		service: service.New(service.Config{
			HealthzAddr: config.HealthzAddr,
			MetricsAddr: config.MetricsAddr,
			Log:         config.Log,
		}),
		shutdownCallback: shutdownCallback,
	}
}

// Start runs the suite. It returns a TestFailureError when any case failed and a
// RuntimeError when the run could not be carried out.
// Start implements the cliapp.Lifecycle interface.
func (l *LiveTest) Start(ctx context.Context) error {
	l.running.Store(true)
	l.config.Log.Info("Starting live test", "version", l.version, "run_id", l.runID, "suite", l.config.SuitePath)

	if err := l.service.Start(ctx); err != nil {
		return NewRuntimeError("setup", err)
	}

	result, err := l.runner.Run(ctx)
	if err != nil {
		l.config.Log.Error("Runtime error running live tests", "error", err)
		return NewRuntimeError("run", err)
	}
	l.result = result

	reporting.Print(os.Stdout, result)
	if l.config.ReportFile != "" {
		if err := reporting.WriteFile(l.config.ReportFile, result); err != nil {
			l.config.Log.Error("Failed to write report", "file", l.config.ReportFile, "err", err)
		}
	}
	l.config.Log.Info(reporting.Summary(result), "run_id", result.RunID)

	if !result.Passed {
		return liveFailure(result)
	}

	go func() {
		l.shutdownCallback(nil)
	}()
	return nil
}

// Result returns the result of the completed run, nil before Start finishes.
func (l *LiveTest) Result() *runner.RunResult {
	return l.result
}

// Stop implements the cliapp.Lifecycle interface.
func (l *LiveTest) Stop(ctx context.Context) error {
	if !l.running.Load() {
		return nil
	}
	l.running.Store(false)
	l.service.Shutdown()
	l.config.Log.Info("live test stopped")
	return nil
}

// Stopped implements the cliapp.Lifecycle interface.
func (l *LiveTest) Stopped() bool {
	return !l.running.Load()
}
