package runner

import (
	"fmt"
	"regexp"
	"strconv"
)

// Selector picks which cases of a suite run. A nil Selector selects every case.
type Selector struct {
	expr  string
	index int
	re    *regexp.Regexp
}

// ParseSelector parses a case selector. An all-digit expression selects the case
// with that 1-based index; anything else is a regular expression searched in the
// case name, with dot matching newlines. An empty expression selects everything.
func ParseSelector(expr string) (*Selector, error) {
	if expr == "" {
		return nil, nil
	}
	if isDigits(expr) {
		index, err := strconv.Atoi(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid case index %q: %w", expr, err)
		}
		return &Selector{expr: expr, index: index}, nil
	}
	re, err := regexp.Compile("(?s)" + expr)
	if err != nil {
		return nil, fmt.Errorf("invalid case selector %q: %w", expr, err)
	}
	return &Selector{expr: expr, re: re}, nil
}

// Matches reports whether the case at the 1-based index with the given name is selected.
func (s *Selector) Matches(index int, name string) bool {
	if s == nil {
		return true
	}
	if s.re == nil {
		return s.index == index
	}
	return s.re.MatchString(name)
}

func (s *Selector) String() string {
	if s == nil {
		return "all"
	}
	return s.expr
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
