package suite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/livetest/options"
	"github.com/ethereum-optimism/infra/livetest/types"
)

func TestResolve(t *testing.T) {
	table := options.NewTable(options.Group{Name: "General", Options: []options.Option{
		{Name: "level", Type: options.TypeInteger},
		{Name: "batch", Type: options.TypeBoolean},
	}})
	s := &types.Suite{
		Globals: map[string]any{"batch": true, "url": "http://x/"},
		Vars:    map[string]string{"rnd": "abc123"},
		Cases: []types.Case{
			{
				Name: "first",
				Switches: []types.Switch{
					{Name: "tbl", Value: "table_${rnd}"},
					{Name: "level", Value: "${lvl}"},
				},
			},
			{
				Name: "second",
				Switches: []types.Switch{
					{Name: "tbl", Value: "table_${rnd}"},
					{Name: "url", Value: "http://y/"},
					{Name: "level", Value: "2"},
				},
				Assertions: []types.Assertion{
					{Pattern: "dumped table_${rnd}", Source: types.SourceArtifact},
					{Pattern: "r'${missing}'", Source: types.SourceConsole},
				},
			},
		},
	}

	t.Run("coercion failure after substitution propagates", func(t *testing.T) {
		_, err := Resolve(s, 0, table)
		require.ErrorContains(t, err, "case 1 switch level")
	})

	t.Run("merged over globals", func(t *testing.T) {
		rc, err := Resolve(s, 1, table)
		require.NoError(t, err)
		assert.Equal(t, 2, rc.Index)
		assert.Equal(t, "second", rc.Name)
		assert.Equal(t, map[string]any{
			"batch": true,
			"url":   "http://y/",
			"tbl":   "table_abc123",
			"level": 2,
		}, rc.Switches)
		assert.Equal(t, []types.Assertion{
			{Pattern: "dumped table_abc123", Source: types.SourceArtifact},
			{Pattern: "r'${missing}'", Source: types.SourceConsole},
		}, rc.Assertions)
	})

	t.Run("globals and case definitions are not mutated", func(t *testing.T) {
		_, err := Resolve(s, 1, table)
		require.NoError(t, err)
		assert.Equal(t, "http://x/", s.Globals["url"])
		assert.NotContains(t, s.Globals, "tbl")
		assert.Equal(t, "table_${rnd}", s.Cases[1].Switches[0].Value)
		assert.Equal(t, "dumped table_${rnd}", s.Cases[1].Assertions[0].Pattern)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := Resolve(s, 2, table)
		require.Error(t, err)
		_, err = Resolve(s, -1, table)
		require.Error(t, err)
	})

	t.Run("nil coercer keeps strings", func(t *testing.T) {
		rc, err := Resolve(s, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, "2", rc.Switches["level"])
	})
}
