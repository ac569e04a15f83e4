// Package matcher implements a named-matcher registry and evaluator for
// expectation-style checks. A matcher is a named, parameterized boolean
// predicate: callers register a builder under a unique name during the
// load phase, then invoke it against actual values to produce pass/fail
// results with human-readable descriptions.
//
// Registration is append-only and scoped to the load phase; after Seal
// the registry is read-only and safe for concurrent invocation. A failed
// match is a normal outcome, not an error - only registration and lookup
// misuse are hard errors.
package matcher

import "errors"

// Predicate evaluates an actual value against already-bound expected
// arguments. Predicates must be pure functions of their arguments:
// invoking the same matcher with the same expected and actual values
// must always yield the same result.
type Predicate func(actual interface{}) bool

// Builder binds the expected-value arguments supplied at invocation time
// and returns the predicate to apply to the actual value. Builders reject
// unusable arguments (wrong arity, wrong type) by returning an error.
type Builder func(expected ...interface{}) (Predicate, error)

// MessageFunc produces the description for a Result when no override
// message is supplied at invocation time.
type MessageFunc func(name string, expected []interface{}, actual interface{}) string

// Result is the outcome of one matcher invocation. Created fresh per
// invocation and never mutated; a false Passed is a normal outcome.
type Result struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Registration and lookup errors. Wrapped with context at the call
// sites; classify with errors.Is.
var (
	// ErrDuplicateMatcher is returned by Define when the name is already
	// registered. The caller must choose a different name.
	ErrDuplicateMatcher = errors.New("matcher: duplicate matcher name")

	// ErrUnknownMatcher is returned by Invoke when the name was never
	// defined. This signals a configuration or spelling defect in the
	// caller, not a data-driven failure.
	ErrUnknownMatcher = errors.New("matcher: unknown matcher")

	// ErrEmptyName is returned by Define when the name is empty.
	ErrEmptyName = errors.New("matcher: matcher name cannot be empty")

	// ErrRegistrySealed is returned by Define after Seal has ended the
	// load phase.
	ErrRegistrySealed = errors.New("matcher: registry is sealed")

	// ErrBuildPredicate is returned by Invoke when the builder rejects
	// the expected arguments.
	ErrBuildPredicate = errors.New("matcher: cannot build predicate")
)

// Definition is an immutable registered matcher: a unique name, the
// predicate builder, and optional doc / message template metadata.
type Definition struct {
	name    string
	doc     string
	source  string
	builder Builder
	message MessageFunc
}

// Name returns the unique name the matcher was registered under.
func (d *Definition) Name() string { return d.name }

// Doc returns the matcher's documentation string, if any.
func (d *Definition) Doc() string { return d.doc }

// Source identifies where the matcher came from (e.g. "builtin" or a
// user matcher file). Empty for matchers defined directly in code.
func (d *Definition) Source() string { return d.source }
