package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTable = `
Target:
  url: string
  direct: string
Request:
  data: string
  timeout: {type: float, default: 30}
  retries: [integer, 3]
Enumeration:
  getBanner: {type: boolean, default: false}
  limitStart: integer
General:
  batch: boolean
  timeout: integer
`

func loadTestTable(t *testing.T) *Table {
	t.Helper()
	table, err := ParseTable([]byte(testTable))
	require.NoError(t, err)
	return table
}

func TestParseTable(t *testing.T) {
	table := loadTestTable(t)

	groups := table.Groups()
	require.Len(t, groups, 4)
	assert.Equal(t, "Target", groups[0].Name)
	assert.Equal(t, "General", groups[3].Name)

	opt, ok := table.Lookup("retries")
	require.True(t, ok)
	assert.Equal(t, TypeInteger, opt.Type)

	opt, ok = table.Lookup("timeout")
	require.True(t, ok)
	assert.Equal(t, TypeFloat, opt.Type, "first group declaring the option wins")
	assert.Equal(t, 30, opt.Default)

	assert.False(t, table.Has("missing"))
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not a mapping", "- a\n- b\n"},
		{"group not a mapping", "Target: string\n"},
		{"invalid yaml", "Target: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestParseTableEmpty(t *testing.T) {
	table, err := ParseTable(nil)
	require.NoError(t, err)
	assert.Empty(t, table.Groups())
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testTable), 0644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.True(t, table.Has("getBanner"))

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestCoerce(t *testing.T) {
	table := loadTestTable(t)

	tests := []struct {
		name    string
		option  string
		raw     string
		want    any
		wantErr bool
	}{
		{name: "boolean True", option: "batch", raw: "True", want: true},
		{name: "boolean lowercase true is false", option: "batch", raw: "true", want: false},
		{name: "boolean other literal", option: "getBanner", raw: "1", want: false},
		{name: "integer", option: "limitStart", raw: "42", want: 42},
		{name: "integer from list declaration", option: "retries", raw: "5", want: 5},
		{name: "integer invalid", option: "limitStart", raw: "abc", wantErr: true},
		{name: "float", option: "timeout", raw: "2.5", want: 2.5},
		{name: "float invalid", option: "timeout", raw: "soon", wantErr: true},
		{name: "string", option: "url", raw: "http://x/?id=1", want: "http://x/?id=1"},
		{name: "unknown option is identity", option: "nope", raw: "True", want: "True"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := table.Coerce(tt.option, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceNilTable(t *testing.T) {
	var table *Table
	got, err := table.Coerce("batch", "True")
	require.NoError(t, err)
	assert.Equal(t, "True", got)
}

func TestDefaults(t *testing.T) {
	table := loadTestTable(t)

	first := table.Defaults()
	assert.Equal(t, 30, first["timeout"])
	assert.Equal(t, false, first["getBanner"])
	assert.Contains(t, first, "url")
	assert.Nil(t, first["url"])

	first["url"] = "http://changed/"
	second := table.Defaults()
	assert.Nil(t, second["url"], "each call must return a fresh set")
}

func TestSetOverlay(t *testing.T) {
	base := Set{"url": nil, "batch": false}
	out, rejected := base.Overlay(map[string]any{"url": "http://x/", "bogus": 1, "batch": true}, func(name string) bool {
		_, ok := base[name]
		return ok
	})

	assert.Equal(t, "http://x/", out["url"])
	assert.Equal(t, true, out["batch"])
	assert.Equal(t, []string{"bogus"}, rejected)
	assert.Nil(t, base["url"], "overlay must not modify the base set")
	assert.Equal(t, "http://x/", out.String("url"))
	assert.Equal(t, "", out.String("batch"))
	assert.Equal(t, []string{"batch", "url"}, out.Names())
}
