package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcherKey(t *testing.T) {
	tests := []struct {
		name    string
		matcher Matcher
		want    string
	}{
		{"any", Any(), "ANY"},
		{"identity", MustIdentity("steel_ingot"), "ID:steel_ingot"},
		{"identity trimmed", MustIdentity("  coal "), "ID:coal"},
		{"any of sorted", MustAnyOf("ORE", "FUEL"), "CAT_ANY:[FUEL,ORE]"},
		{"any of deduplicated", MustAnyOf("FUEL", "FUEL"), "CAT_ANY:[FUEL]"},
		{"all of", MustAllOf("METAL", "ALLOY"), "CAT_ALL:[ALLOY,METAL]"},
		{"unset", Matcher{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.matcher.Key())
		})
	}
}

func TestMatcherKeyIsInjective(t *testing.T) {
	matchers := []Matcher{
		Any(),
		MustIdentity("FUEL"),
		MustAnyOf("FUEL"),
		MustAllOf("FUEL"),
		MustAnyOf("FUEL", "ORE"),
		MustAllOf("FUEL", "ORE"),
		MustIdentity("CAT_ANY:[FUEL]"),
	}

	seen := map[string]int{}
	for i, m := range matchers {
		prev, dup := seen[m.Key()]
		require.False(t, dup, "matchers %d and %d share key %q", prev, i, m.Key())
		seen[m.Key()] = i
	}
}

func TestMatcherConstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (Matcher, error)
	}{
		{"blank identity", func() (Matcher, error) { return Identity("  ") }},
		{"empty any of", func() (Matcher, error) { return AnyOf() }},
		{"empty all of", func() (Matcher, error) { return AllOf() }},
		{"blank category", func() (Matcher, error) { return AnyOf("FUEL", "") }},
		{"comma in category", func() (Matcher, error) { return AllOf("A,B") }},
		{"bracket in category", func() (Matcher, error) { return AnyOf("A]") }},
		{"space in category", func() (Matcher, error) { return AnyOf("A B") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.fn()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidMatcher)
		})
	}
}

func TestMatcherNFCNormalisation(t *testing.T) {
	composed := MustIdentity("caf\u00E9")
	decomposed := MustIdentity("cafe\u0301")

	assert.True(t, composed.Equal(decomposed))
}

func TestSpecificityOrder(t *testing.T) {
	assert.Greater(t, MustIdentity("x").Specificity(), MustAllOf("A").Specificity())
	assert.Greater(t, MustAllOf("A").Specificity(), MustAnyOf("A").Specificity())
	assert.Greater(t, MustAnyOf("A").Specificity(), Any().Specificity())
	assert.Equal(t, 0, Any().Specificity())
}

func TestCovers(t *testing.T) {
	tests := []struct {
		name   string
		output Matcher
		target Matcher
		want   bool
	}{
		{"wildcard covers identity", Any(), MustIdentity("coal"), true},
		{"wildcard covers category", Any(), MustAnyOf("FUEL"), true},
		{"identity equal", MustIdentity("coal"), MustIdentity("coal"), true},
		{"identity different", MustIdentity("coal"), MustIdentity("charcoal"), false},
		{"category does not cover identity", MustAnyOf("FUEL"), MustIdentity("coal"), false},
		{"category sets compare by key", MustAnyOf("FUEL", "ORE"), MustAnyOf("FUEL"), false},
		{"same category set", MustAnyOf("ORE", "FUEL"), MustAnyOf("FUEL", "ORE"), true},
		{"any of is not all of", MustAnyOf("FUEL"), MustAllOf("FUEL"), false},
		{"identity does not cover wildcard", MustIdentity("coal"), Any(), false},
		{"unset target", Any(), Matcher{}, true},
		{"unset output", Matcher{}, MustIdentity("coal"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.output.Covers(tt.target))
		})
	}
}

func TestAvailableCovers(t *testing.T) {
	have := []Matcher{MustIdentity("iron_ingot"), MustAnyOf("FUEL")}

	assert.True(t, AvailableCovers(have, MustIdentity("iron_ingot")))
	assert.True(t, AvailableCovers(have, MustAnyOf("FUEL")))
	assert.False(t, AvailableCovers(have, MustIdentity("coal")), "category availability does not imply members")
	assert.False(t, AvailableCovers(nil, MustIdentity("coal")))
	assert.True(t, AvailableCovers([]Matcher{Any()}, MustIdentity("anything")))
}

func TestMostSpecific(t *testing.T) {
	_, ok := MostSpecific(nil)
	assert.False(t, ok)

	best, ok := MostSpecific([]Matcher{Any(), MustAnyOf("A"), MustIdentity("x"), MustIdentity("y")})
	require.True(t, ok)
	assert.Equal(t, "ID:x", best.Key(), "ties keep the first")
}

func TestMatcherLiteral(t *testing.T) {
	tests := []struct {
		name    string
		literal MatcherLiteral
		want    string
		wantErr bool
	}{
		{"id", MatcherLiteral{ID: "coal"}, "ID:coal", false},
		{"any of", MatcherLiteral{AnyOf: []string{"FUEL"}}, "CAT_ANY:[FUEL]", false},
		{"all of", MatcherLiteral{AllOf: []string{"B", "A"}}, "CAT_ALL:[A,B]", false},
		{"any", MatcherLiteral{Any: true}, "ANY", false},
		{"nothing set", MatcherLiteral{}, "", true},
		{"two set", MatcherLiteral{ID: "coal", Any: true}, "", true},
		{"empty any of", MatcherLiteral{AnyOf: []string{}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.literal.Matcher()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidMatcher)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Key())
			assert.Equal(t, m.Key(), mustMatcher(t, m.Literal()).Key())
		})
	}
}

func TestMatcherJSON(t *testing.T) {
	data, err := json.Marshal([]Matcher{MustIdentity("coal"), MustAnyOf("FUEL"), Any()})
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"coal"},{"any_of":["FUEL"]},{"any":true}]`, string(data))

	var decoded []Matcher
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []string{"ID:coal", "CAT_ANY:[FUEL]", "ANY"}, MatcherKeys(decoded))

	_, err = json.Marshal(Matcher{})
	assert.Error(t, err)
}

func mustMatcher(t *testing.T, l MatcherLiteral) Matcher {
	t.Helper()
	m, err := l.Matcher()
	require.NoError(t, err)
	return m
}
