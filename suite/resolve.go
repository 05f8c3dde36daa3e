package suite

import (
	"fmt"
	"maps"

	"github.com/ethereum-optimism/infra/livetest/types"
)

// Resolve prepares the case at the given 0-based position for execution: variables
// are substituted into every switch value and assertion pattern, switch values are
// coerced, and the result is merged over a copy of the suite globals.
func Resolve(s *types.Suite, pos int, coercer Coercer) (types.ResolvedCase, error) {
	if pos < 0 || pos >= len(s.Cases) {
		return types.ResolvedCase{}, fmt.Errorf("case index %d out of range", pos+1)
	}
	c := s.Cases[pos]

	switches := maps.Clone(s.Globals)
	if switches == nil {
		switches = make(map[string]any)
	}
	for _, sw := range c.Switches {
		value := Substitute(sw.Value, s.Vars)
		if coercer == nil {
			switches[sw.Name] = value
			continue
		}
		coerced, err := coercer.Coerce(sw.Name, value)
		if err != nil {
			return types.ResolvedCase{}, fmt.Errorf("case %d switch %s: %w", pos+1, sw.Name, err)
		}
		switches[sw.Name] = coerced
	}

	assertions := make([]types.Assertion, len(c.Assertions))
	for i, a := range c.Assertions {
		assertions[i] = types.Assertion{Pattern: Substitute(a.Pattern, s.Vars), Source: a.Source}
	}

	return types.ResolvedCase{
		Index:      pos + 1,
		Name:       c.Name,
		Switches:   switches,
		Assertions: assertions,
	}, nil
}
