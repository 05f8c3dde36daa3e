package reporting

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/livetest/runner"
	"github.com/ethereum-optimism/infra/livetest/types"
)

func sampleResult() *runner.RunResult {
	return &runner.RunResult{
		RunID:     "run-1",
		SuitePath: "livetests.xml",
		Duration:  3 * time.Second,
		Stats:     runner.ResultStats{Total: 4, Selected: 3, Passed: 1, Failed: 2},
		Cases: []*runner.CaseResult{
			{
				Case:    types.ResolvedCase{Index: 1, Name: "boolean blind"},
				Outcome: &types.Outcome{Verdict: types.VerdictPassed, Duration: time.Second},
			},
			{
				Case: types.ResolvedCase{Index: 2},
				Outcome: &types.Outcome{
					Verdict:         types.VerdictAssertionFailed,
					FailedAssertion: &types.Assertion{Pattern: "r'Parameter: (id)'"},
					WorkDir:         "/tmp/livetest-2",
				},
			},
			{
				Case:    types.ResolvedCase{Index: 4, Name: "stacked"},
				Outcome: &types.Outcome{Verdict: types.VerdictNotVulnerable, NegativeKind: types.NegativeReturn, WorkDir: "/tmp/livetest-4"},
			},
		},
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, WriteFile(path, sampleResult()))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(content)
	assert.True(t, strings.HasPrefix(s, "run: run-1\nsuite: livetests.xml\n"))
	assert.Contains(t, s, "boolean blind")
	assert.Contains(t, s, "case #2")
	assert.Contains(t, s, `item "r'Parameter: (id)'" not found`)
	assert.Contains(t, s, "negative result returned")
	assert.Contains(t, s, "/tmp/livetest-4")
	assert.Contains(t, s, "3/4 SELECTED")
	assert.Contains(t, s, "FAILED")
}

func TestWriteFileError(t *testing.T) {
	require.Error(t, WriteFile(filepath.Join(t.TempDir(), "missing", "report.txt"), sampleResult()))
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, sampleResult())
	assert.Contains(t, buf.String(), "stacked")
}

func TestSummary(t *testing.T) {
	r := sampleResult()
	assert.Equal(t, "live test run run-1 FAILED: 3 selected, 1 passed, 2 failed in 3.0s", Summary(r))

	r.Passed, r.Interrupted = true, true
	assert.Contains(t, Summary(r), "INTERRUPTED")
}

func TestDetailTruncates(t *testing.T) {
	o := &types.Outcome{Verdict: types.VerdictUnhandledError, Diagnostic: strings.Repeat("x", 500), WorkDir: "/tmp/w"}
	d := detail(o)
	assert.Len(t, d, maxNoteLength)
	assert.True(t, strings.HasSuffix(d, "..."))
}
