// Package suite loads live test definitions and resolves their cases into
// executable, fully substituted and coerced form.
package suite

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/livetest/options"
	"github.com/ethereum-optimism/infra/livetest/types"
)

// Coercer converts raw switch values into their declared option types.
type Coercer interface {
	Coerce(name, raw string) (any, error)
}

// Loader parses suite documents.
type Loader struct {
	Coercer Coercer
	Random  func() string // generates tokens for "random" vars, defaults to RandomToken
	Log     log.Logger
}

// NewLoader creates a loader coercing globals through the given option table.
func NewLoader(table *options.Table, logger log.Logger) *Loader {
	if logger == nil {
		logger = log.New()
	}
	return &Loader{
		Coercer: table,
		Random:  RandomToken,
		Log:     logger,
	}
}

// LoadFile loads a suite from disk. Files ending in .yaml or .yml are parsed as
// YAML, everything else as XML.
func (l *Loader) LoadFile(path string) (*types.Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open suite %s: %w", path, err)
	}
	defer f.Close()

	var s *types.Suite
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		s, err = l.ParseYAML(f)
	default:
		s, err = l.ParseXML(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse suite %s: %w", path, err)
	}
	s.Path = path
	l.Log.Debug("Suite loaded", "path", path, "cases", len(s.Cases), "globals", len(s.Globals), "vars", len(s.Vars))
	return s, nil
}

// rawSuite is the format independent shape of a suite document.
type rawSuite struct {
	globals []types.Switch
	vars    []types.Switch
	cases   []types.Case
}

func (l *Loader) build(raw rawSuite) (*types.Suite, error) {
	random := l.Random
	if random == nil {
		random = RandomToken
	}

	s := &types.Suite{
		Globals: make(map[string]any, len(raw.globals)),
		Vars:    make(map[string]string, len(raw.vars)),
		Cases:   raw.cases,
	}
	for _, g := range raw.globals {
		v, err := l.coerce(g.Name, g.Value)
		if err != nil {
			return nil, fmt.Errorf("global %s: %w", g.Name, err)
		}
		s.Globals[g.Name] = v
	}
	for _, v := range raw.vars {
		if v.Value == RandomValue {
			s.Vars[v.Name] = random()
			continue
		}
		s.Vars[v.Name] = v.Value
	}
	return s, nil
}

func (l *Loader) coerce(name, raw string) (any, error) {
	if l.Coercer == nil {
		return raw, nil
	}
	return l.Coercer.Coerce(name, raw)
}

// xmlNode is a generic element: suite documents use option names as tag names.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []xmlNode  `xml:",any"`
}

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *xmlNode) children(tag string) []*xmlNode {
	var out []*xmlNode
	for i := range n.Children {
		if n.Children[i].XMLName.Local == tag {
			out = append(out, &n.Children[i])
		}
	}
	return out
}

func (n *xmlNode) firstChild(tag string) *xmlNode {
	if c := n.children(tag); len(c) > 0 {
		return c[0]
	}
	return nil
}

// valued returns every child element carrying a value attribute, as switches.
func (n *xmlNode) valued() []types.Switch {
	var out []types.Switch
	for i := range n.Children {
		child := &n.Children[i]
		if v, ok := child.attr("value"); ok {
			out = append(out, types.Switch{Name: child.XMLName.Local, Value: v})
		}
	}
	return out
}

// ParseXML parses the XML suite format:
//
//	<root>
//	  <global><url value="..."/></global>
//	  <vars><tbl value="random"/></vars>
//	  <case name="...">
//	    <switches><data value="id=${tbl}"/></switches>
//	    <parse><item value="r'...'" console_output="True"/></parse>
//	  </case>
//	</root>
func (l *Loader) ParseXML(r io.Reader) (*types.Suite, error) {
	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, err
	}

	var raw rawSuite
	for _, g := range root.children("global") {
		raw.globals = append(raw.globals, g.valued()...)
	}
	for _, v := range root.children("vars") {
		raw.vars = append(raw.vars, v.valued()...)
	}
	for _, c := range root.children("case") {
		tc := types.Case{}
		tc.Name, _ = c.attr("name")
		if sw := c.firstChild("switches"); sw != nil {
			tc.Switches = sw.valued()
		}
		if parse := c.firstChild("parse"); parse != nil {
			for _, item := range parse.children("item") {
				value, ok := item.attr("value")
				if !ok {
					continue
				}
				source := types.SourceArtifact
				if flag, _ := item.attr("console_output"); flag != "" {
					source = types.SourceConsole
				}
				tc.Assertions = append(tc.Assertions, types.Assertion{Pattern: value, Source: source})
			}
		}
		raw.cases = append(raw.cases, tc)
	}
	return l.build(raw)
}

type yamlSuite struct {
	Global yaml.Node  `yaml:"global"`
	Vars   yaml.Node  `yaml:"vars"`
	Cases  []yamlCase `yaml:"cases"`
}

type yamlCase struct {
	Name     string     `yaml:"name"`
	Switches yaml.Node  `yaml:"switches"`
	Parse    []yamlItem `yaml:"parse"`
}

type yamlItem struct {
	Value         string `yaml:"value"`
	ConsoleOutput bool   `yaml:"console_output"`
}

// ParseYAML parses the YAML suite format. Sections mirror the XML format:
// global and vars are mappings, cases is a list of {name, switches, parse}.
func (l *Loader) ParseYAML(r io.Reader) (*types.Suite, error) {
	var doc yamlSuite
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty suite document")
		}
		return nil, err
	}

	var raw rawSuite
	var err error
	if raw.globals, err = scalarPairs(&doc.Global); err != nil {
		return nil, fmt.Errorf("global: %w", err)
	}
	if raw.vars, err = scalarPairs(&doc.Vars); err != nil {
		return nil, fmt.Errorf("vars: %w", err)
	}
	for i, c := range doc.Cases {
		tc := types.Case{Name: c.Name}
		if tc.Switches, err = scalarPairs(&c.Switches); err != nil {
			return nil, fmt.Errorf("case %d switches: %w", i+1, err)
		}
		for _, item := range c.Parse {
			source := types.SourceArtifact
			if item.ConsoleOutput {
				source = types.SourceConsole
			}
			tc.Assertions = append(tc.Assertions, types.Assertion{Pattern: item.Value, Source: source})
		}
		raw.cases = append(raw.cases, tc)
	}
	return l.build(raw)
}

// scalarPairs flattens a mapping of scalars in document order. An absent section
// yields no pairs.
func scalarPairs(node *yaml.Node) ([]types.Switch, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	out := make([]types.Switch, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: %s must be a scalar value", value.Line, key.Value)
		}
		out = append(out, types.Switch{Name: key.Value, Value: scalarText(value)})
	}
	return out, nil
}

// scalarText returns the raw text of a scalar. YAML booleans are normalised to the
// True/False literals the boolean coercion expects.
func scalarText(n *yaml.Node) string {
	if n.Tag == "!!bool" {
		if strings.EqualFold(n.Value, "true") {
			return "True"
		}
		return "False"
	}
	return n.Value
}
