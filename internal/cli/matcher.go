package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/forgeplan/internal/ir"
)

// ParseMatcher parses the command-line matcher shorthand:
//
//	steel_ingot           identity (a bare id)
//	id:steel_ingot        identity
//	any_of:FUEL,ORE       items carrying FUEL or ORE
//	all_of:METAL,ALLOY    items carrying METAL and ALLOY
//	any                   every item
//
// Canonical keys (ID:x, CAT_ANY:[a,b], CAT_ALL:[a,b], ANY) are accepted too,
// so a key printed by one command can be pasted into another.
func ParseMatcher(s string) (ir.Matcher, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ir.Matcher{}, fmt.Errorf("%w: empty matcher", ir.ErrInvalidMatcher)
	}
	if strings.EqualFold(s, "any") {
		return ir.Any(), nil
	}

	kind, payload, found := strings.Cut(s, ":")
	if !found {
		return ir.Identity(s)
	}
	switch strings.ToLower(kind) {
	case "id":
		return ir.Identity(payload)
	case "any_of", "cat_any":
		return ir.AnyOf(splitCategories(payload)...)
	case "all_of", "cat_all":
		return ir.AllOf(splitCategories(payload)...)
	default:
		return ir.Matcher{}, fmt.Errorf("%w: unknown matcher kind %q (want id, any_of, all_of or any)", ir.ErrInvalidMatcher, kind)
	}
}

func splitCategories(payload string) []string {
	payload = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(payload), "["), "]")
	if payload == "" {
		return nil
	}
	return strings.Split(payload, ",")
}

// ParseMatchers parses every entry of ss.
func ParseMatchers(ss []string) ([]ir.Matcher, error) {
	out := make([]ir.Matcher, 0, len(ss))
	for _, s := range ss {
		m, err := ParseMatcher(s)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		out = append(out, m)
	}
	return out, nil
}
