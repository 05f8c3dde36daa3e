// Package reporting renders live test results for humans.
package reporting

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/livetest/runner"
	"github.com/ethereum-optimism/infra/livetest/types"
)

const maxNoteLength = 120

// NewTable builds the results table for a run: one row per executed case and a
// TOTAL footer.
func NewTable(result *runner.RunResult) table.Writer {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Live Test Results (%s)", formatDuration(result.Duration)))
	t.AppendHeader(table.Row{"#", "Case", "Duration", "Verdict", "Detail"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Case", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Detail", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, c := range result.Cases {
		t.AppendRow(table.Row{
			c.Case.Index,
			c.Case.DisplayName(),
			formatDuration(c.Outcome.Duration),
			getVerdictString(c.Outcome.Verdict),
			detail(c.Outcome),
		})
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d/%d selected", result.Stats.Selected, result.Stats.Total),
		formatDuration(result.Duration),
		getRunString(result),
		fmt.Sprintf("passed %d, failed %d", result.Stats.Passed, result.Stats.Failed),
	})
	return t
}

// Print renders the colored results table to w, stdout when nil.
func Print(w io.Writer, result *runner.RunResult) {
	if w == nil {
		w = os.Stdout
	}
	t := NewTable(result)
	switch {
	case result.Interrupted:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	case result.Passed:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}
	t.SetOutputMirror(w)
	t.Render()
}

// WriteFile writes the plain text results table to path.
func WriteFile(path string, result *runner.RunResult) error {
	t := NewTable(result)
	t.SetStyle(table.StyleLight)
	content := fmt.Sprintf("run: %s\nsuite: %s\n%s\n", result.RunID, result.SuitePath, t.Render())
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// Summary returns a one line description of a run.
func Summary(result *runner.RunResult) string {
	return fmt.Sprintf("live test run %s %s: %d selected, %d passed, %d failed in %s",
		result.RunID, getRunString(result), result.Stats.Selected, result.Stats.Passed, result.Stats.Failed,
		formatDuration(result.Duration))
}

func detail(o *types.Outcome) string {
	var s string
	switch {
	case o.FailedAssertion != nil:
		s = fmt.Sprintf("item %q not found", o.FailedAssertion.Pattern)
	case o.Verdict == types.VerdictNotVulnerable:
		s = "vulnerability not detected"
		if o.NegativeKind == types.NegativeReturn {
			s += " (negative result returned)"
		}
	case o.HasTrace():
		s = o.Diagnostic
	}
	if o.Verdict.Failed() {
		s += " [" + o.WorkDir + "]"
	}
	if len(s) > maxNoteLength {
		s = s[:maxNoteLength-3] + "..."
	}
	return s
}

func getVerdictString(v types.Verdict) string {
	switch v {
	case types.VerdictPassed:
		return "✓ passed"
	case types.VerdictInterrupted:
		return "- interrupted"
	default:
		return "✗ " + string(v)
	}
}

func getRunString(result *runner.RunResult) string {
	switch {
	case result.Interrupted && result.Passed:
		return "INTERRUPTED"
	case result.Passed:
		return "PASSED"
	default:
		return "FAILED"
	}
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
