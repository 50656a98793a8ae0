package ir

import "slices"

// Factory is a place recipes run in. Groups let a recipe target a family of
// factories; Level gates recipes that need an upgraded factory.
type Factory struct {
	ID     string   `json:"id" yaml:"id"`
	Groups []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	Level  int      `json:"level" yaml:"level"`
}

// RecipeSelector restricts the factories a recipe may run in.
// Empty id and group sets impose no constraint.
type RecipeSelector struct {
	FactoryIDs    []string `json:"factories,omitempty" yaml:"factories,omitempty"`
	FactoryGroups []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	MinLevel      int      `json:"min_level,omitempty" yaml:"min_level,omitempty"`
}

// IsZero reports whether the selector accepts every factory.
func (s RecipeSelector) IsZero() bool {
	return len(s.FactoryIDs) == 0 && len(s.FactoryGroups) == 0 && s.MinLevel <= 0
}

// MatchesFactory reports whether a recipe with this selector may run in f.
// The level gate applies first; then both the id set and the group set must
// accept the factory.
func (s RecipeSelector) MatchesFactory(f Factory) bool {
	if f.Level < s.MinLevel {
		return false
	}
	idMatch := len(s.FactoryIDs) == 0 || slices.Contains(s.FactoryIDs, f.ID)
	groupMatch := len(s.FactoryGroups) == 0
	for _, g := range f.Groups {
		if slices.Contains(s.FactoryGroups, g) {
			groupMatch = true
			break
		}
	}
	return idMatch && groupMatch
}
