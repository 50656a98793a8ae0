package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecipeSelectorMatchesFactory(t *testing.T) {
	furnace := Factory{ID: "blast_furnace", Groups: []string{"furnace", "heavy"}, Level: 2}

	tests := []struct {
		name     string
		selector RecipeSelector
		want     bool
	}{
		{"zero selector accepts all", RecipeSelector{}, true},
		{"id listed", RecipeSelector{FactoryIDs: []string{"blast_furnace"}}, true},
		{"id not listed", RecipeSelector{FactoryIDs: []string{"kiln"}}, false},
		{"group intersects", RecipeSelector{FactoryGroups: []string{"heavy"}}, true},
		{"group disjoint", RecipeSelector{FactoryGroups: []string{"light"}}, false},
		{"level met", RecipeSelector{MinLevel: 2}, true},
		{"level too low", RecipeSelector{MinLevel: 3}, false},
		{"id and group both required", RecipeSelector{FactoryIDs: []string{"blast_furnace"}, FactoryGroups: []string{"light"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.selector.MatchesFactory(furnace))
		})
	}
}

func TestRecipeProducesAndValidate(t *testing.T) {
	r := &Recipe{
		ID:      "smelt",
		Inputs:  []Matcher{MustIdentity("iron_ingot")},
		Outputs: []Matcher{MustIdentity("steel_ingot"), MustAnyOf("METAL")},
		Cost:    5,
	}
	assert.NoError(t, r.Validate())
	assert.True(t, r.Produces(MustIdentity("steel_ingot")))
	assert.True(t, r.Produces(MustAnyOf("METAL")))
	assert.False(t, r.Produces(MustIdentity("iron_ingot")))

	bad := &Recipe{ID: " ", Cost: -1, Inputs: []Matcher{{}}}
	err := bad.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "blank")
	assert.Contains(t, err.Error(), "negative")
	assert.Contains(t, err.Error(), "at least one output")
	assert.Contains(t, err.Error(), "unset")
}
