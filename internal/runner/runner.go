// Package runner evaluates suites against a matcher registry.
// A run has three phases: resolve (every referenced matcher must
// exist), seal (the registry becomes read-only), evaluate (suites in
// parallel, cases within a suite in order). Failed cases are counted,
// never returned as errors; only configuration defects abort a run.
package runner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"matcha/internal/logging"
	"matcha/internal/matcher"
	"matcha/internal/suite"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// CaseResult is the outcome of one evaluated case.
type CaseResult struct {
	Name     string
	Matcher  string
	Passed   bool
	Message  string
	Duration time.Duration
}

// SuiteResult groups the case results of one suite.
type SuiteResult struct {
	Suite    string
	Path     string
	Cases    []CaseResult
	Failures int
	Duration time.Duration
}

// Run is the complete outcome of a runner invocation.
type Run struct {
	ID         string
	StartedAt  time.Time
	Duration   time.Duration
	Suites     []*SuiteResult
	TotalCases int
	Failures   int
}

// Passed reports whether every evaluated case passed.
func (r *Run) Passed() bool { return r.Failures == 0 }

// =============================================================================
// RUNNER
// =============================================================================

const defaultParallelism = 4

// Runner schedules suite evaluation over a registry.
type Runner struct {
	reg         *matcher.Registry
	parallelism int
	failFast    bool
	newID       func() string
}

// Option configures a Runner.
type Option func(*Runner)

// WithParallelism bounds how many suites evaluate concurrently.
// Values below 1 fall back to the default.
func WithParallelism(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// WithFailFast stops scheduling new suites after the first suite that
// reports a failed case. Suites already running finish normally.
func WithFailFast(on bool) Option {
	return func(r *Runner) { r.failFast = on }
}

// WithIDSource overrides the run ID generator. Tests use this for
// deterministic IDs.
func WithIDSource(fn func() string) Option {
	return func(r *Runner) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// New builds a Runner over reg.
func New(reg *matcher.Registry, opts ...Option) *Runner {
	r := &Runner{
		reg:         reg,
		parallelism: defaultParallelism,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run resolves, seals, and evaluates the given suites.
//
// The returned error is nil for any run that completed evaluation,
// including runs with failed cases; callers inspect Run.Failures for
// those. Errors mean the run aborted: an unknown matcher reference, a
// builder that rejected its expected args, or context cancellation.
func (r *Runner) Run(ctx context.Context, suites []*suite.Suite) (*Run, error) {
	if r.reg == nil {
		return nil, fmt.Errorf("runner: nil registry")
	}

	// Resolve phase: every matcher reference must exist before anything
	// is evaluated, so a typo in the last suite cannot waste a run.
	for _, s := range suites {
		for _, c := range s.Cases {
			if _, ok := r.reg.Lookup(c.Matcher); !ok {
				return nil, fmt.Errorf("suite %q, case %q: %w: %q",
					s.Name, c.Name, matcher.ErrUnknownMatcher, c.Matcher)
			}
		}
	}

	// Load phase ends here; evaluation only reads.
	r.reg.Seal()
	logging.Run("Registry sealed with %d matchers for %d suite(s)", r.reg.Len(), len(suites))

	run := &Run{
		ID:        r.newID(),
		StartedAt: time.Now(),
	}
	aud := logging.AuditWithRun(run.ID)
	aud.RunStart(run.ID, len(suites))
	aud.RegistrySealed(r.reg.Len())

	ordered := make([]*SuiteResult, len(suites))
	var stop atomic.Bool

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.parallelism)
	for i, s := range suites {
		i, s := i, s // pre-1.22 loopvar semantics: keep per-iteration copies
		eg.Go(func() error {
			if r.failFast && stop.Load() {
				return nil
			}
			sr, err := r.evalSuite(egCtx, s, aud)
			if err != nil {
				return err
			}
			ordered[i] = sr
			if r.failFast && sr.Failures > 0 {
				stop.Store(true)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		aud.RunAbort(run.ID, err)
		logging.Get(logging.CategoryRun).Error("Run %s aborted: %v", run.ID, err)
		return nil, err
	}

	// Scheduling order is nondeterministic; output order is not.
	for _, sr := range ordered {
		if sr == nil {
			continue // skipped by fail-fast
		}
		run.Suites = append(run.Suites, sr)
		run.TotalCases += len(sr.Cases)
		run.Failures += sr.Failures
	}
	run.Duration = time.Since(run.StartedAt)

	aud.RunComplete(run.ID, run.TotalCases, run.Failures, run.Duration.Milliseconds())
	logging.Run("Run %s complete: %d case(s), %d failure(s) in %s",
		run.ID, run.TotalCases, run.Failures, run.Duration.Round(time.Millisecond))
	return run, nil
}

// evalSuite evaluates one suite's cases in declaration order.
func (r *Runner) evalSuite(ctx context.Context, s *suite.Suite, aud *logging.AuditLogger) (*SuiteResult, error) {
	start := time.Now()
	sr := &SuiteResult{
		Suite: s.Name,
		Path:  s.Path,
		Cases: make([]CaseResult, 0, len(s.Cases)),
	}

	for _, c := range s.Cases {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("suite %q: %w", s.Name, err)
		}

		var opts []matcher.InvokeOption
		if c.Message != "" {
			opts = append(opts, matcher.WithOverrideMessage(c.Message))
		}

		caseStart := time.Now()
		res, err := r.reg.Invoke(c.Matcher, c.Expected, c.Actual, opts...)
		if err != nil {
			return nil, fmt.Errorf("suite %q, case %q: %w", s.Name, c.Name, err)
		}
		dur := time.Since(caseStart)

		sr.Cases = append(sr.Cases, CaseResult{
			Name:     c.Name,
			Matcher:  c.Matcher,
			Passed:   res.Passed,
			Message:  res.Message,
			Duration: dur,
		})
		if !res.Passed {
			sr.Failures++
		}
		aud.CaseEvaluated(s.Name, c.Name, c.Matcher, res.Passed, dur.Milliseconds())
		logging.RunDebug("Case %s/%s (%s): passed=%v", s.Name, c.Name, c.Matcher, res.Passed)
	}

	sr.Duration = time.Since(start)
	aud.SuiteComplete(sr.Suite, sr.Failures, sr.Duration.Milliseconds())
	logging.Suite("Suite %s: %d case(s), %d failure(s) in %s",
		sr.Suite, len(sr.Cases), sr.Failures, sr.Duration.Round(time.Millisecond))
	return sr, nil
}
