// Package builtin provides the standard matcher catalog: numeric
// comparisons (including the be_the_square_of pair), deep equality,
// string and sequence content checks, and JSON path matchers.
//
// Builders validate arity and argument types; predicates never error.
// A value a matcher cannot interpret simply fails the match.
package builtin

import (
	"fmt"

	"matcha/internal/matcher"
)

// Source identifies catalog matchers in registry listings.
const Source = "builtin"

// Register installs the builtin catalog into r. It fails when a name is
// already taken or the registry is sealed.
func Register(r *matcher.Registry) error {
	defs := []struct {
		name    string
		builder matcher.Builder
		doc     string
	}{
		{"be_the_square_of", squareOf,
			"passes when n squared equals the actual integer value"},
		{"not_be_the_square_of", notSquareOf,
			"passes when n squared does not equal the actual value"},
		{"equal", equal,
			"passes when the expected value deeply equals the actual value"},
		{"not_equal", notEqual,
			"passes when the expected value does not deeply equal the actual value"},
		{"be_greater_than", beGreaterThan,
			"passes when the actual number is strictly greater than n"},
		{"be_less_than", beLessThan,
			"passes when the actual number is strictly less than n"},
		{"be_between", beBetween,
			"passes when the actual number lies in the inclusive range [lo, hi]"},
		{"contain", contain,
			"passes when a string contains the substring, or a sequence contains the element"},
		{"match_pattern", matchPattern,
			"passes when the string form of the actual value matches the regular expression"},
		{"have_length", haveLength,
			"passes when the actual string, sequence, or map has length n"},
		{"be_empty", beEmpty,
			"passes when the actual value is nil or has length 0"},
		{"have_json_path", haveJSONPath,
			"passes when the JSON path resolves to a value in the actual document"},
		{"match_json_path", matchJSONPath,
			"passes when the value at the JSON path equals the wanted value"},
	}

	for _, d := range defs {
		if err := r.Define(d.name, d.builder, matcher.WithDoc(d.doc), matcher.WithSource(Source)); err != nil {
			return fmt.Errorf("registering builtin %q: %w", d.name, err)
		}
	}
	return nil
}

// wantArgs enforces builder arity.
func wantArgs(name string, expected []interface{}, n int) error {
	if len(expected) != n {
		return fmt.Errorf("%s takes exactly %d argument(s), got %d", name, n, len(expected))
	}
	return nil
}
