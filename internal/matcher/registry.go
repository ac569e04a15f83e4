package matcher

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"matcha/internal/logging"
)

// =============================================================================
// MATCHER REGISTRY - Name -> Definition Mapping
// =============================================================================
// The registry is the explicit mapping from matcher name to predicate
// builder. It is populated during an explicit load phase (builtins, then
// user matchers), sealed, and then only read. Negation is never derived:
// "not_<name>" is an independent definition that must be registered
// explicitly.

// Registry maps matcher names to their definitions.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]*Definition
	sealed atomic.Bool
}

// NewRegistry creates an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[string]*Definition),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry. Tools that need isolation
// (e.g. one registry per watch cycle) construct their own with
// NewRegistry; the default exists for embedders that treat the process
// as a single run.
func Default() *Registry { return defaultRegistry }

// DefineOption configures a definition at registration time.
type DefineOption func(*Definition)

// WithDoc attaches a documentation string to the definition.
func WithDoc(doc string) DefineOption {
	return func(d *Definition) { d.doc = doc }
}

// WithMessage attaches a custom message template, used instead of the
// synthesized default whenever no override message is supplied.
func WithMessage(fn MessageFunc) DefineOption {
	return func(d *Definition) { d.message = fn }
}

// WithSource records where the matcher came from, e.g. "builtin" or the
// user matcher file that declared it.
func WithSource(source string) DefineOption {
	return func(d *Definition) { d.source = source }
}

// Define registers a matcher under a unique, non-empty name. It fails
// with ErrDuplicateMatcher if the name is taken, ErrEmptyName if the
// name is empty, and ErrRegistrySealed after the load phase has ended.
func (r *Registry) Define(name string, builder Builder, opts ...DefineOption) error {
	if name == "" {
		return ErrEmptyName
	}
	if builder == nil {
		return fmt.Errorf("matcher %q: builder cannot be nil", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return fmt.Errorf("%w: cannot define %q after the load phase", ErrRegistrySealed, name)
	}
	if _, exists := r.defs[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateMatcher, name)
	}

	def := &Definition{name: name, builder: builder}
	for _, opt := range opts {
		opt(def)
	}
	r.defs[name] = def

	logging.RegistryDebug("Define: registered matcher %q (source=%s)", name, def.source)
	return nil
}

// MustDefine is Define but panics on error. Intended for load-time
// catalog registration where a failure is a programming defect.
func (r *Registry) MustDefine(name string, builder Builder, opts ...DefineOption) {
	if err := r.Define(name, builder, opts...); err != nil {
		panic(err)
	}
}

// InvokeOption configures a single invocation.
type InvokeOption func(*invokeOptions)

type invokeOptions struct {
	override *string
}

// WithOverrideMessage replaces the result description with msg,
// regardless of pass/fail outcome.
func WithOverrideMessage(msg string) InvokeOption {
	return func(o *invokeOptions) { o.override = &msg }
}

// Invoke looks up name, builds its predicate from the expected
// arguments, applies it to actual, and returns the Result. It fails
// with ErrUnknownMatcher when the name was never defined and with
// ErrBuildPredicate when the builder rejects the expected arguments.
// A false Result.Passed is a normal outcome, never an error.
func (r *Registry) Invoke(name string, expected []interface{}, actual interface{}, opts ...InvokeOption) (Result, error) {
	var io invokeOptions
	for _, opt := range opts {
		opt(&io)
	}

	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownMatcher, name)
	}

	pred, err := def.builder(expected...)
	if err != nil {
		return Result{}, fmt.Errorf("matcher %q: %w: %v", name, ErrBuildPredicate, err)
	}

	res := Result{Passed: pred(actual)}
	switch {
	case io.override != nil:
		res.Message = *io.override
	case def.message != nil:
		res.Message = def.message(name, expected, actual)
	default:
		res.Message = DefaultMessage(name, expected, actual)
	}
	return res, nil
}

// Seal ends the load phase: subsequent Define calls fail with
// ErrRegistrySealed while Invoke remains safe for concurrent use.
// Idempotent; reports whether this call performed the seal.
func (r *Registry) Seal() bool {
	first := !r.sealed.Swap(true)
	if first {
		logging.Registry("Seal: registry sealed with %d matcher(s)", r.Len())
	}
	return first
}

// Sealed reports whether the load phase has ended.
func (r *Registry) Sealed() bool { return r.sealed.Load() }

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	return def, ok
}

// Names returns all registered matcher names, sorted for deterministic
// iteration.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered matchers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
