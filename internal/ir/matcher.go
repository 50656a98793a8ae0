package ir

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidMatcher is wrapped by every matcher construction failure.
var ErrInvalidMatcher = errors.New("invalid matcher")

// MatcherKind identifies the shape of a Matcher.
type MatcherKind int

const (
	// KindUnset is the zero value. A Matcher of this kind is "no target".
	KindUnset MatcherKind = iota
	// KindIdentity matches exactly one item id.
	KindIdentity
	// KindAnyOfCategories matches items carrying at least one category.
	KindAnyOfCategories
	// KindAllOfCategories matches items carrying every category.
	KindAllOfCategories
	// KindAny matches every item.
	KindAny
)

// String returns the key prefix used for the kind.
func (k MatcherKind) String() string {
	switch k {
	case KindIdentity:
		return "ID"
	case KindAnyOfCategories:
		return "CAT_ANY"
	case KindAllOfCategories:
		return "CAT_ALL"
	case KindAny:
		return "ANY"
	default:
		return "UNSET"
	}
}

// Specificity ranks, higher is more specific.
const (
	SpecificityIdentity = 1000
	SpecificityAllOf    = 200
	SpecificityAnyOf    = 100
	SpecificityAny      = 0
)

// Matcher is a predicate describing a class of items.
//
// Matchers are values: construct them with Identity, AnyOf, AllOf or Any so
// the payload invariants hold (non-blank id, non-empty sorted category set).
type Matcher struct {
	kind       MatcherKind
	itemID     string
	categories []string
}

// Identity returns a matcher for exactly one item id.
func Identity(id string) (Matcher, error) {
	id = norm.NFC.String(strings.TrimSpace(id))
	if id == "" {
		return Matcher{}, fmt.Errorf("%w: identity id cannot be blank", ErrInvalidMatcher)
	}
	return Matcher{kind: KindIdentity, itemID: id}, nil
}

// AnyOf returns a matcher for items carrying at least one of categories.
func AnyOf(categories ...string) (Matcher, error) {
	keys, err := canonicalCategories(categories)
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{kind: KindAnyOfCategories, categories: keys}, nil
}

// AllOf returns a matcher for items carrying all of categories.
func AllOf(categories ...string) (Matcher, error) {
	keys, err := canonicalCategories(categories)
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{kind: KindAllOfCategories, categories: keys}, nil
}

// Any returns the universal wildcard.
func Any() Matcher {
	return Matcher{kind: KindAny}
}

// MustIdentity is like Identity but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustIdentity(id string) Matcher {
	m, err := Identity(id)
	if err != nil {
		panic(err)
	}
	return m
}

// MustAnyOf is like AnyOf but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustAnyOf(categories ...string) Matcher {
	m, err := AnyOf(categories...)
	if err != nil {
		panic(err)
	}
	return m
}

// MustAllOf is like AllOf but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustAllOf(categories ...string) Matcher {
	m, err := AllOf(categories...)
	if err != nil {
		panic(err)
	}
	return m
}

// canonicalCategories normalises, sorts and de-duplicates category keys.
// Category keys must not contain whitespace, commas or brackets: those are
// the separators of the key encoding.
func canonicalCategories(categories []string) ([]string, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: category set cannot be empty", ErrInvalidMatcher)
	}
	keys := make([]string, 0, len(categories))
	for _, c := range categories {
		c = norm.NFC.String(strings.TrimSpace(c))
		if c == "" {
			return nil, fmt.Errorf("%w: category key cannot be blank", ErrInvalidMatcher)
		}
		if strings.ContainsAny(c, " \t\r\n,[]") {
			return nil, fmt.Errorf("%w: category key %q contains a reserved character", ErrInvalidMatcher, c)
		}
		keys = append(keys, c)
	}
	slices.Sort(keys)
	return slices.Compact(keys), nil
}

// Kind returns the matcher kind.
func (m Matcher) Kind() MatcherKind { return m.kind }

// ItemID returns the item id of an identity matcher, "" otherwise.
func (m Matcher) ItemID() string { return m.itemID }

// Categories returns a copy of the sorted category set.
func (m Matcher) Categories() []string { return slices.Clone(m.categories) }

// IsZero reports whether m was never constructed.
func (m Matcher) IsZero() bool { return m.kind == KindUnset }

// IsAny reports whether m is the universal wildcard.
func (m Matcher) IsAny() bool { return m.kind == KindAny }

// Key returns the canonical, injective string encoding of kind and payload.
//
//	ANY
//	ID:steel_ingot
//	CAT_ANY:[FUEL,ORE]
//	CAT_ALL:[METAL]
func (m Matcher) Key() string {
	switch m.kind {
	case KindAny:
		return "ANY"
	case KindIdentity:
		return "ID:" + m.itemID
	case KindAnyOfCategories, KindAllOfCategories:
		return m.kind.String() + ":[" + strings.Join(m.categories, ",") + "]"
	default:
		return ""
	}
}

// String implements fmt.Stringer.
func (m Matcher) String() string { return m.Key() }

// Label is the node label used in plan trees: the item id for identity
// matchers, the key otherwise.
func (m Matcher) Label() string {
	if m.kind == KindIdentity {
		return m.itemID
	}
	return m.Key()
}

// Equal reports whether two matchers have the same key.
func (m Matcher) Equal(other Matcher) bool { return m.Key() == other.Key() }

// Specificity ranks matchers for selection tie-breaks:
// Identity > AllOf > AnyOf > Any. The solver never uses it.
func (m Matcher) Specificity() int {
	switch m.kind {
	case KindIdentity:
		return SpecificityIdentity
	case KindAllOfCategories:
		return SpecificityAllOf
	case KindAnyOfCategories:
		return SpecificityAnyOf
	default:
		return SpecificityAny
	}
}

// Covers reports whether m, a recipe output, satisfies target.
//
// A wildcard output covers every target. Otherwise coverage is exact key
// equality: an AnyOf{A,B} output does not cover Identity{x} even when x
// carries category A, and category sets are compared by key, never by
// subset. Category targets reach identity-producing recipes only through
// target expansion. Recipe discovery depends on this rule; broadening it
// changes which recipes are found for category-shaped outputs.
func (m Matcher) Covers(target Matcher) bool {
	if m.kind == KindAny {
		return true
	}
	if m.kind == KindUnset || target.kind == KindUnset {
		return false
	}
	return m.Key() == target.Key()
}

// AvailableCovers reports whether target is already satisfied by available.
// An Any entry makes everything available; otherwise keys must match.
func AvailableCovers(available []Matcher, target Matcher) bool {
	key := target.Key()
	for _, a := range available {
		if a.kind == KindAny {
			return true
		}
		if a.kind != KindUnset && a.Key() == key {
			return true
		}
	}
	return false
}

// MostSpecific returns the highest-specificity matcher; ties keep the first.
func MostSpecific(matchers []Matcher) (Matcher, bool) {
	if len(matchers) == 0 {
		return Matcher{}, false
	}
	best := matchers[0]
	for _, m := range matchers[1:] {
		if m.Specificity() > best.Specificity() {
			best = m
		}
	}
	return best, true
}

// MatcherLiteral is the declarative form of a matcher used in catalog files,
// scenario files and JSON output. Exactly one field must be set.
type MatcherLiteral struct {
	ID    string   `json:"id,omitempty" yaml:"id,omitempty"`
	AnyOf []string `json:"any_of,omitempty" yaml:"any_of,omitempty"`
	AllOf []string `json:"all_of,omitempty" yaml:"all_of,omitempty"`
	Any   bool     `json:"any,omitempty" yaml:"any,omitempty"`
}

// Matcher converts the literal, rejecting zero or several set fields.
func (l MatcherLiteral) Matcher() (Matcher, error) {
	set := 0
	if l.ID != "" {
		set++
	}
	if l.AnyOf != nil {
		set++
	}
	if l.AllOf != nil {
		set++
	}
	if l.Any {
		set++
	}
	if set != 1 {
		return Matcher{}, fmt.Errorf("%w: exactly one of id, any_of, all_of, any must be set", ErrInvalidMatcher)
	}
	switch {
	case l.ID != "":
		return Identity(l.ID)
	case l.AnyOf != nil:
		return AnyOf(l.AnyOf...)
	case l.AllOf != nil:
		return AllOf(l.AllOf...)
	default:
		return Any(), nil
	}
}

// Literal returns the declarative form of m.
func (m Matcher) Literal() MatcherLiteral {
	switch m.kind {
	case KindIdentity:
		return MatcherLiteral{ID: m.itemID}
	case KindAnyOfCategories:
		return MatcherLiteral{AnyOf: m.Categories()}
	case KindAllOfCategories:
		return MatcherLiteral{AllOf: m.Categories()}
	case KindAny:
		return MatcherLiteral{Any: true}
	default:
		return MatcherLiteral{}
	}
}

// MarshalJSON encodes m as its literal form.
func (m Matcher) MarshalJSON() ([]byte, error) {
	if m.kind == KindUnset {
		return nil, fmt.Errorf("%w: cannot marshal unset matcher", ErrInvalidMatcher)
	}
	return json.Marshal(m.Literal())
}

// UnmarshalJSON decodes a literal form.
func (m *Matcher) UnmarshalJSON(data []byte) error {
	var lit MatcherLiteral
	if err := json.Unmarshal(data, &lit); err != nil {
		return err
	}
	parsed, err := lit.Matcher()
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MatcherKeys returns the keys of ms in order.
func MatcherKeys(ms []Matcher) []string {
	keys := make([]string, len(ms))
	for i, m := range ms {
		keys[i] = m.Key()
	}
	return keys
}
