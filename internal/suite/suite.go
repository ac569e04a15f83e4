// Package suite defines the YAML check-suite format: named collections
// of cases, each binding a matcher to expected arguments, an actual
// value, and an optional override message.
package suite

import "errors"

// ErrInvalidSuite marks definition defects found while mapping a suite
// file: missing names, duplicate cases, unsupported versions.
var ErrInvalidSuite = errors.New("suite: invalid suite definition")

// SupportedVersion is the only suite file format version in use. Files
// that omit the version field are treated as version 1.
const SupportedVersion = 1

// Suite is a named collection of cases loaded from one file.
type Suite struct {
	Name        string
	Description string
	Path        string // source file, set by the loader
	Cases       []Case
}

// Case is a single matcher invocation: matcher name, expected
// arguments, the actual value, and an optional override message that
// replaces the result description regardless of outcome.
type Case struct {
	Name     string
	Matcher  string
	Expected []interface{}
	Actual   interface{}
	Message  string
}
