package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/forgeplan/internal/ir"
	"github.com/roach88/forgeplan/internal/testutil"
)

func TestExpand(t *testing.T) {
	cat := testutil.SmeltingCatalog()

	tests := []struct {
		name   string
		target ir.Matcher
		limit  int
		want   []string
	}{
		{"identity passes through", ir.MustIdentity("gold"), 1, []string{"ID:gold"}},
		{"wildcard passes through", ir.Any(), 5, []string{"ANY"}},
		{"any of one category", ir.MustAnyOf("FUEL"), 10, []string{"ID:coal", "ID:charcoal"}},
		{"any of keeps catalog order", ir.MustAnyOf("FUEL", "METAL"), 10, []string{"ID:iron_ingot", "ID:coal", "ID:charcoal", "ID:steel_ingot"}},
		{"any of stops at limit", ir.MustAnyOf("FUEL", "METAL"), 2, []string{"ID:iron_ingot", "ID:coal"}},
		{"all of requires superset", ir.MustAllOf("METAL", "ALLOY"), 10, []string{"ID:steel_ingot"}},
		{"all of single", ir.MustAllOf("FUEL"), 1, []string{"ID:coal"}},
		{"unknown category", ir.MustAnyOf("GEM"), 10, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.target, cat, tt.limit)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, ir.MatcherKeys(got))
		})
	}
}

func TestExpandRejectsNonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -1} {
		_, err := Expand(ir.MustAnyOf("FUEL"), testutil.SmeltingCatalog(), limit)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidArgument)

		var qe *QueryError
		require.ErrorAs(t, err, &qe)
		assert.Equal(t, ErrCodeInvalidBound, qe.Code)
		assert.Equal(t, "expand_limit", qe.Field)
	}
}

func TestExpandRejectsUnsetTarget(t *testing.T) {
	_, err := Expand(ir.Matcher{}, testutil.SmeltingCatalog(), 3)
	assert.True(t, IsInvalidArgument(err))
}
