package types

import (
	"strconv"
	"strings"
)

// Source selects which captured evidence stream an assertion is checked against.
type Source string

const (
	SourceConsole  Source = "console"
	SourceArtifact Source = "artifact"
)

// Suite is a parsed live test definition. Globals and Vars are read-only once loaded.
type Suite struct {
	Path    string
	Globals map[string]any    // Coerced switches applied to every case
	Vars    map[string]string // Literal values or per-run random tokens
	Cases   []Case
}

// Case is a single configured engine invocation plus its expected evidence.
type Case struct {
	Name       string
	Switches   []Switch
	Assertions []Assertion
}

// Switch is a raw, not yet substituted or coerced, case option.
type Switch struct {
	Name  string
	Value string
}

// Assertion is a single pass/fail check against console or artifact text.
type Assertion struct {
	Pattern string
	Source  Source
}

// IsRegex reports whether the pattern is written as a regex literal, r'...'.
func (a Assertion) IsRegex() bool {
	return len(a.Pattern) >= 3 && strings.HasPrefix(a.Pattern, "r'") && strings.HasSuffix(a.Pattern, "'")
}

// Expr returns the regular expression body of a regex literal.
func (a Assertion) Expr() string {
	if !a.IsRegex() {
		return a.Pattern
	}
	return a.Pattern[2 : len(a.Pattern)-1]
}

func (a Assertion) String() string {
	return a.Pattern
}

// ResolvedCase is a case with variables substituted and switches coerced,
// ready to hand to the executor.
type ResolvedCase struct {
	Index      int // 1-based position in the suite
	Name       string
	Switches   map[string]any // Globals merged with the case's own switches
	Assertions []Assertion
}

// DisplayName returns the case name, or a positional name for unnamed cases.
func (c ResolvedCase) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return "case #" + strconv.Itoa(c.Index)
}
