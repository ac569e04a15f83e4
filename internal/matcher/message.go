package matcher

import (
	"fmt"
	"strings"
)

// Humanize turns a matcher name into prose by replacing underscores with
// spaces: "be_the_square_of" becomes "be the square of".
func Humanize(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

// FormatArgs renders expected arguments for inclusion in a description,
// comma-joined: [45] -> "45", ["a", 2] -> "a, 2".
func FormatArgs(args []interface{}) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return strings.Join(parts, ", ")
}

// DefaultMessage synthesizes the description used when a definition has
// no custom template and the caller supplies no override:
//
//	expected 2025 to be the square of 45
//
// Zero-argument matchers omit the trailing argument segment.
func DefaultMessage(name string, expected []interface{}, actual interface{}) string {
	if len(expected) == 0 {
		return fmt.Sprintf("expected %v to %s", actual, Humanize(name))
	}
	return fmt.Sprintf("expected %v to %s %s", actual, Humanize(name), FormatArgs(expected))
}
