package options

import (
	"maps"
	"slices"
)

// Set is the option set handed to the engine for one case. Every case gets its own
// Set; callers must never share one between cases.
type Set map[string]any

// Clone returns a shallow copy of the set.
func (s Set) Clone() Set {
	if s == nil {
		return make(Set)
	}
	return maps.Clone(s)
}

// Overlay returns a new set with values applied on top of s. Keys for which
// accept returns false are skipped and reported back.
func (s Set) Overlay(values map[string]any, accept func(name string) bool) (Set, []string) {
	out := s.Clone()
	var rejected []string
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if accept != nil && !accept(name) {
			rejected = append(rejected, name)
			continue
		}
		out[name] = values[name]
	}
	return out, rejected
}

// String returns the option value as a string when it is one.
func (s Set) String(name string) string {
	v, _ := s[name].(string)
	return v
}

// Names returns the option names in sorted order.
func (s Set) Names() []string {
	return slices.Sorted(maps.Keys(s))
}
