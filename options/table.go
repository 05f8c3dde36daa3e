// Package options holds the engine option metadata table and the option sets
// built from it for each case.
package options

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Type is the declared primitive type of an engine option
type Type string

const (
	TypeBoolean Type = "boolean"
	TypeInteger Type = "integer"
	TypeFloat   Type = "float"
	TypeString  Type = "string"
)

// Option describes a single engine option.
type Option struct {
	Name    string
	Type    Type
	Default any
}

// Group is a named, ordered family of options.
type Group struct {
	Name    string
	Options []Option
}

// Table is the option metadata: groups in document order, each with its options
// in document order. Lookups search groups in order and the first match wins.
type Table struct {
	groups []Group
}

// NewTable creates a table from already built groups.
func NewTable(groups ...Group) *Table {
	return &Table{groups: groups}
}

// LoadTable reads option metadata from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read option table %s: %w", path, err)
	}
	table, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse option table %s: %w", path, err)
	}
	return table, nil
}

// ParseTable parses option metadata. The document is a mapping of group name to a
// mapping of option name to either a type name, a list whose first element is the
// type name, or a mapping with "type" and "default" keys.
func ParseTable(data []byte) (*Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return NewTable(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of option groups", root.Line)
	}

	table := &Table{}
	for i := 0; i+1 < len(root.Content); i += 2 {
		groupName, body := root.Content[i].Value, root.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: group %q must be a mapping", body.Line, groupName)
		}
		group := Group{Name: groupName}
		for j := 0; j+1 < len(body.Content); j += 2 {
			opt, err := parseOption(body.Content[j].Value, body.Content[j+1])
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", groupName, err)
			}
			group.Options = append(group.Options, opt)
		}
		table.groups = append(table.groups, group)
	}
	return table, nil
}

func parseOption(name string, node *yaml.Node) (Option, error) {
	opt := Option{Name: name}
	switch node.Kind {
	case yaml.ScalarNode:
		opt.Type = Type(node.Value)
	case yaml.SequenceNode:
		if len(node.Content) > 0 {
			opt.Type = Type(node.Content[0].Value)
		}
	case yaml.MappingNode:
		var decl struct {
			Type    string `yaml:"type"`
			Default any    `yaml:"default"`
		}
		if err := node.Decode(&decl); err != nil {
			return opt, fmt.Errorf("line %d: option %q: %w", node.Line, name, err)
		}
		opt.Type = Type(decl.Type)
		opt.Default = decl.Default
	default:
		return opt, fmt.Errorf("line %d: option %q has an unsupported declaration", node.Line, name)
	}
	return opt, nil
}

// Groups returns the table's groups in declaration order.
func (t *Table) Groups() []Group {
	if t == nil {
		return nil
	}
	return t.groups
}

// Lookup finds an option by name across all groups; the first match wins.
func (t *Table) Lookup(name string) (Option, bool) {
	if t == nil {
		return Option{}, false
	}
	for _, g := range t.groups {
		for _, opt := range g.Options {
			if opt.Name == name {
				return opt, true
			}
		}
	}
	return Option{}, false
}

// Has reports whether name is a declared option.
func (t *Table) Has(name string) bool {
	_, ok := t.Lookup(name)
	return ok
}

// Coerce converts a raw switch value into the declared type of the named option.
// Booleans are true only for the literal "True". Undeclared options and options
// of any other type pass through as the raw string.
func (t *Table) Coerce(name, raw string) (any, error) {
	opt, ok := t.Lookup(name)
	if !ok {
		return raw, nil
	}
	switch opt.Type {
	case TypeBoolean:
		return raw == "True", nil
	case TypeInteger:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("option %s: invalid integer %q: %w", name, raw, err)
		}
		return v, nil
	case TypeFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("option %s: invalid float %q: %w", name, raw, err)
		}
		return v, nil
	default:
		return raw, nil
	}
}

// Defaults builds a fresh option set holding every declared option at its default.
// Options without a declared default are present with a nil value.
func (t *Table) Defaults() Set {
	set := make(Set)
	for _, g := range t.Groups() {
		for _, opt := range g.Options {
			if _, exists := set[opt.Name]; exists {
				continue
			}
			set[opt.Name] = opt.Default
		}
	}
	return set
}
