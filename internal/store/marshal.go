package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/forgeplan/internal/ir"
)

// marshalStrings converts a string list to canonical JSON TEXT.
// A nil list is stored as [].
func marshalStrings(values []string) (string, error) {
	arr := make(ir.IRArray, len(values))
	for i, v := range values {
		arr[i] = ir.IRString(v)
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

func unmarshalStrings(data string) ([]string, error) {
	values := []string{}
	if data == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return values, nil
}

// marshalMatcher stores a matcher in its literal form.
func marshalMatcher(m ir.Matcher) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal matcher: %w", err)
	}
	return string(data), nil
}

func unmarshalMatcher(data string) (ir.Matcher, error) {
	var m ir.Matcher
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return ir.Matcher{}, fmt.Errorf("unmarshal matcher: %w", err)
	}
	return m, nil
}

func marshalMatchers(ms []ir.Matcher) (string, error) {
	if ms == nil {
		ms = []ir.Matcher{}
	}
	data, err := json.Marshal(ms)
	if err != nil {
		return "", fmt.Errorf("marshal matchers: %w", err)
	}
	return string(data), nil
}

func unmarshalMatchers(data string) ([]ir.Matcher, error) {
	ms := []ir.Matcher{}
	if data == "" {
		return ms, nil
	}
	if err := json.Unmarshal([]byte(data), &ms); err != nil {
		return nil, fmt.Errorf("unmarshal matchers: %w", err)
	}
	return ms, nil
}

// marshalSelector stores a recipe selector as JSON TEXT. Empty fields are
// omitted, so an unconstrained selector is stored as {}.
func marshalSelector(sel ir.RecipeSelector) (string, error) {
	data, err := json.Marshal(sel)
	if err != nil {
		return "", fmt.Errorf("marshal selector: %w", err)
	}
	return string(data), nil
}

func unmarshalSelector(data string) (ir.RecipeSelector, error) {
	var sel ir.RecipeSelector
	if data == "" {
		return sel, nil
	}
	if err := json.Unmarshal([]byte(data), &sel); err != nil {
		return ir.RecipeSelector{}, fmt.Errorf("unmarshal selector: %w", err)
	}
	return sel, nil
}

// marshalPlan returns the canonical JSON tree of p and its digest.
func marshalPlan(p ir.Plan) (tree, digest string, err error) {
	data, err := ir.MarshalCanonical(p.ToIR())
	if err != nil {
		return "", "", fmt.Errorf("marshal plan: %w", err)
	}
	digest, err = ir.PlanDigest(p)
	if err != nil {
		return "", "", fmt.Errorf("digest plan: %w", err)
	}
	return string(data), digest, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
