package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/forgeplan/internal/ir"
)

func TestParseMatcher(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"steel_ingot", "ID:steel_ingot"},
		{"  steel_ingot ", "ID:steel_ingot"},
		{"id:coal", "ID:coal"},
		{"ID:coal", "ID:coal"},
		{"any_of:FUEL", "CAT_ANY:[FUEL]"},
		{"any_of:ORE,FUEL", "CAT_ANY:[FUEL,ORE]"},
		{"CAT_ANY:[ORE,FUEL]", "CAT_ANY:[FUEL,ORE]"},
		{"all_of:METAL,ALLOY", "CAT_ALL:[ALLOY,METAL]"},
		{"cat_all:[METAL]", "CAT_ALL:[METAL]"},
		{"any", "ANY"},
		{"ANY", "ANY"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMatcher(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Key())
		})
	}
}

func TestParseMatcherRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "id:", "any_of:", "all_of:[]", "kind:x", "any_of:A,,B"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseMatcher(in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ir.ErrInvalidMatcher)
		})
	}
}

func TestParseMatchers(t *testing.T) {
	ms, err := ParseMatchers([]string{"iron_ingot", "any_of:FUEL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ID:iron_ingot", "CAT_ANY:[FUEL]"}, ir.MatcherKeys(ms))

	empty, err := ParseMatchers(nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = ParseMatchers([]string{"coal", "bogus:x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"bogus:x"`)
}
