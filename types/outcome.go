package types

import (
	"fmt"
	"strings"
	"time"
)

// Verdict represents the classified result of one case execution
type Verdict string

const (
	VerdictPassed          Verdict = "passed"
	VerdictNotVulnerable   Verdict = "not_vulnerable"
	VerdictAssertionFailed Verdict = "assertion_failed"
	VerdictHandledError    Verdict = "handled_error"
	VerdictUnhandledError  Verdict = "unhandled_error"
	VerdictInterrupted     Verdict = "interrupted" // operator interrupt, neither pass nor fail
)

// Failed reports whether the verdict counts as a failure for aggregation.
func (v Verdict) Failed() bool {
	switch v {
	case VerdictNotVulnerable, VerdictAssertionFailed, VerdictHandledError, VerdictUnhandledError:
		return true
	default:
		return false
	}
}

// NegativeKind distinguishes the two ways an engine can report that nothing was found.
type NegativeKind string

const (
	NegativeNone   NegativeKind = ""
	NegativeSignal NegativeKind = "signal"          // engine raised the not-vulnerable signal
	NegativeReturn NegativeKind = "negative_return" // engine returned an explicit negative result
)

// Outcome captures everything the runner needs to report and persist for one case.
type Outcome struct {
	Verdict         Verdict
	NegativeKind    NegativeKind
	Console         string     // Decoded console capture
	FailedAssertion *Assertion // First assertion that did not match
	Diagnostic      string     // Formatted error/trace detail
	EngineNote      string     // Detail reported by the engine alongside its result
	WorkDir         string
	Duration        time.Duration
}

// HasTrace reports whether a diagnostic trace was captured.
func (o *Outcome) HasTrace() bool {
	return o != nil && o.Diagnostic != ""
}

// Summary returns the one-line failure summary used in logs and in the test_case file.
func (o *Outcome) Summary() string {
	msg := "test failed "
	if o.FailedAssertion != nil {
		msg += fmt.Sprintf("at parsing item \"%s\" ", o.FailedAssertion.Pattern)
	}
	msg += fmt.Sprintf("- scan folder: %s ", o.WorkDir)
	msg += fmt.Sprintf("- traceback: %t", o.HasTrace())
	if o.Verdict == VerdictNotVulnerable {
		msg += " - vulnerability not detected"
		var details []string
		if o.NegativeKind == NegativeReturn {
			details = append(details, "negative result returned")
		}
		if o.EngineNote != "" {
			details = append(details, o.EngineNote)
		}
		if len(details) > 0 {
			msg += " (" + strings.Join(details, ", ") + ")"
		}
	}
	return msg
}
