package suite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/livetest/options"
	"github.com/ethereum-optimism/infra/livetest/types"
)

const xmlSuite = `<?xml version="1.0" encoding="UTF-8"?>
<root>
  <global>
    <url value="http://target/vuln.php?id=1"/>
    <batch value="True"/>
    <level value="3"/>
    <ignored/>
  </global>
  <vars>
    <tbl value="random"/>
    <db value="testdb"/>
  </vars>
  <case name="basic">
    <switches>
      <data value="id=1&amp;t=${tbl}"/>
      <level value="5"/>
    </switches>
    <parse>
      <item value="Parameter: id"/>
      <item value="r'back-end DBMS: (MySQL|PostgreSQL)'" console_output="True"/>
      <item/>
    </parse>
  </case>
  <case>
    <switches><getBanner value="True"/></switches>
  </case>
</root>
`

const yamlSuiteDoc = `
global:
  url: http://target/vuln.php?id=1
  batch: true
  level: 3
vars:
  tbl: random
  db: testdb
cases:
  - name: basic
    switches:
      data: id=1&t=${tbl}
      level: 5
    parse:
      - value: "Parameter: id"
      - value: "r'back-end DBMS: (MySQL|PostgreSQL)'"
        console_output: true
  - switches:
      getBanner: True
`

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	table := options.NewTable(
		options.Group{Name: "Target", Options: []options.Option{{Name: "url", Type: options.TypeString}}},
		options.Group{Name: "General", Options: []options.Option{
			{Name: "batch", Type: options.TypeBoolean},
			{Name: "level", Type: options.TypeInteger},
			{Name: "getBanner", Type: options.TypeBoolean},
			{Name: "data", Type: options.TypeString},
		}},
	)
	l := NewLoader(table, log.NewLogger(log.DiscardHandler()))
	l.Random = func() string { return "rndtok" }
	return l
}

func assertParsedSuite(t *testing.T, s *types.Suite) {
	t.Helper()
	assert.Equal(t, map[string]any{
		"url":   "http://target/vuln.php?id=1",
		"batch": true,
		"level": 3,
	}, s.Globals)
	assert.Equal(t, map[string]string{"tbl": "rndtok", "db": "testdb"}, s.Vars)

	require.Len(t, s.Cases, 2)
	basic := s.Cases[0]
	assert.Equal(t, "basic", basic.Name)
	assert.Equal(t, []types.Switch{{Name: "data", Value: "id=1&t=${tbl}"}, {Name: "level", Value: "5"}}, basic.Switches)
	assert.Equal(t, []types.Assertion{
		{Pattern: "Parameter: id", Source: types.SourceArtifact},
		{Pattern: "r'back-end DBMS: (MySQL|PostgreSQL)'", Source: types.SourceConsole},
	}, basic.Assertions)

	unnamed := s.Cases[1]
	assert.Empty(t, unnamed.Name)
	assert.Equal(t, []types.Switch{{Name: "getBanner", Value: "True"}}, unnamed.Switches)
	assert.Empty(t, unnamed.Assertions)
}

func TestParseXML(t *testing.T) {
	s, err := newTestLoader(t).ParseXML(strings.NewReader(xmlSuite))
	require.NoError(t, err)
	assertParsedSuite(t, s)
}

func TestParseYAML(t *testing.T) {
	s, err := newTestLoader(t).ParseYAML(strings.NewReader(yamlSuiteDoc))
	require.NoError(t, err)
	assertParsedSuite(t, s)
}

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()
	xmlPath := filepath.Join(dir, "livetests.xml")
	yamlPath := filepath.Join(dir, "livetests.yml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(xmlSuite), 0644))
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlSuiteDoc), 0644))

	l := newTestLoader(t)
	for _, path := range []string{xmlPath, yamlPath} {
		s, err := l.LoadFile(path)
		require.NoError(t, err, path)
		assert.Equal(t, path, s.Path)
		assertParsedSuite(t, s)
	}
}

func TestLoadErrors(t *testing.T) {
	l := newTestLoader(t)

	t.Run("missing file", func(t *testing.T) {
		_, err := l.LoadFile(filepath.Join(t.TempDir(), "nope.xml"))
		require.Error(t, err)
	})

	t.Run("malformed xml", func(t *testing.T) {
		_, err := l.ParseXML(strings.NewReader("<root><case></root>"))
		require.Error(t, err)
	})

	t.Run("bad global value", func(t *testing.T) {
		_, err := l.ParseXML(strings.NewReader(`<root><global><level value="high"/></global></root>`))
		require.ErrorContains(t, err, "global level")
	})

	t.Run("empty yaml", func(t *testing.T) {
		_, err := l.ParseYAML(strings.NewReader(""))
		require.ErrorContains(t, err, "empty suite document")
	})

	t.Run("yaml switches not a mapping", func(t *testing.T) {
		_, err := l.ParseYAML(strings.NewReader("cases:\n  - switches: [a, b]\n"))
		require.ErrorContains(t, err, "case 1 switches")
	})

	t.Run("yaml nested switch value", func(t *testing.T) {
		_, err := l.ParseYAML(strings.NewReader("global:\n  url: {a: b}\n"))
		require.ErrorContains(t, err, "must be a scalar")
	})
}

func TestRandomVarsResolvedOncePerLoad(t *testing.T) {
	l := newTestLoader(t)
	calls := 0
	l.Random = func() string {
		calls++
		return "tok"
	}
	s, err := l.ParseXML(strings.NewReader(`<root><vars><a value="random"/><b value="random"/></vars><case/><case/></root>`))
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "one token per random var, not per case")
	assert.Equal(t, "tok", s.Vars["a"])
}
