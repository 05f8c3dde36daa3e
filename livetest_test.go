package livetest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/livetest/options"
	"github.com/ethereum-optimism/infra/livetest/runner"
	"github.com/ethereum-optimism/infra/livetest/suite"
	"github.com/ethereum-optimism/infra/livetest/types"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context) (*runner.RunResult, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*runner.RunResult), args.Error(1)
}

func testConfig(t *testing.T) *Config {
	return &Config{
		SuitePath:  "livetests.xml",
		ReportFile: filepath.Join(t.TempDir(), "report.txt"),
		Log:        log.NewLogger(log.DiscardHandler()),
	}
}

func passingResult() *runner.RunResult {
	return &runner.RunResult{
		RunID:  "run-1",
		Passed: true,
		Stats:  runner.ResultStats{Total: 1, Selected: 1, Passed: 1},
		Cases: []*runner.CaseResult{{
			Case:    types.ResolvedCase{Index: 1, Name: "basic"},
			Outcome: &types.Outcome{Verdict: types.VerdictPassed},
		}},
	}
}

func TestLiveTestPass(t *testing.T) {
	m := &mockRunner{}
	m.On("Run").Return(passingResult(), nil)
	shutdown := make(chan error, 1)
	cfg := testConfig(t)

	lt := NewWithRunner(cfg, "v0.0.0", "run-1", m, func(err error) { shutdown <- err })
	require.NoError(t, lt.Start(context.Background()))
	assert.False(t, lt.Stopped())
	assert.True(t, lt.Result().Passed)

	select {
	case err := <-shutdown:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown callback not called")
	}

	assert.FileExists(t, cfg.ReportFile)
	require.NoError(t, lt.Stop(context.Background()))
	assert.True(t, lt.Stopped())
}

func TestLiveTestFailure(t *testing.T) {
	result := passingResult()
	result.Passed = false
	result.Stats.Passed, result.Stats.Failed = 0, 1
	result.Cases[0].Outcome = &types.Outcome{Verdict: types.VerdictNotVulnerable, WorkDir: "/tmp/livetest-x"}

	m := &mockRunner{}
	m.On("Run").Return(result, nil)

	err := NewWithRunner(testConfig(t), "v0.0.0", "run-1", m, nil).Start(context.Background())
	var failure *TestFailureError
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "live run run-1: 1 of 1 cases failed", failure.Error())
}

func TestLiveTestRuntimeError(t *testing.T) {
	m := &mockRunner{}
	m.On("Run").Return(nil, errors.New("failed to parse suite"))

	err := NewWithRunner(testConfig(t), "v0.0.0", "run-1", m, nil).Start(context.Background())
	var rt *RuntimeError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, "run", rt.Stage)
}

func TestNewBuildsRunner(t *testing.T) {
	dir := t.TempDir()
	optionsPath := filepath.Join(dir, "options.yaml")
	require.NoError(t, os.WriteFile(optionsPath, []byte("General:\n  batch: boolean\n"), 0644))

	cfg := testConfig(t)
	cfg.OptionsPath = optionsPath
	cfg.EngineBinary = "scanner"
	lt, err := New(cfg, "v0.0.0", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, lt.runID)

	cfg.OptionsPath = filepath.Join(dir, "missing.yaml")
	_, err = New(cfg, "v0.0.0", nil)
	require.Error(t, err)

	cfg.OptionsPath = ""
	cfg.EngineBinary = ""
	_, err = New(cfg, "v0.0.0", nil)
	require.ErrorContains(t, err, "engine")

	_, err = New(nil, "v0.0.0", nil)
	require.Error(t, err)
}

func TestRunSmoke(t *testing.T) {
	logger := log.NewLogger(log.DiscardHandler())

	t.Run("missing module", func(t *testing.T) {
		err := RunSmoke(context.Background(), &SmokeConfig{Root: t.TempDir(), Log: logger})
		var rt *RuntimeError
		require.ErrorAs(t, err, &rt)
		assert.Equal(t, "discovery", rt.Stage)
	})

	t.Run("broken package", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/demo\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package demo\nfunc {\n"), 0644))
		err := RunSmoke(context.Background(), &SmokeConfig{Root: root, Log: logger})
		var failure *TestFailureError
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, ModeSmoke, failure.Mode)
		assert.Equal(t, 1, failure.Failed)
	})

	t.Run("clean package without examples", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/demo\n"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.go"), []byte("package demo\n"), 0644))
		require.NoError(t, RunSmoke(context.Background(), &SmokeConfig{Root: root, Log: logger}))
	})
}

func TestSampleSuites(t *testing.T) {
	logger := log.NewLogger(log.DiscardHandler())
	table, err := options.LoadTable("testdata/options.yaml")
	require.NoError(t, err)
	loader := suite.NewLoader(table, logger)

	for path, cases := range map[string]int{"testdata/livetests.xml": 4, "testdata/livetests.yaml": 2} {
		s, err := loader.LoadFile(path)
		require.NoError(t, err, path)
		require.Len(t, s.Cases, cases, path)
		assert.Equal(t, true, s.Globals["batch"], path)
		for pos := range s.Cases {
			_, err := suite.Resolve(s, pos, table)
			require.NoError(t, err, path)
		}
	}
}
