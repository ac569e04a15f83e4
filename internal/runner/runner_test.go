package runner

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"matcha/internal/matcher"
	"matcha/internal/matcher/builtin"
	"matcha/internal/suite"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newCatalog(t *testing.T) *matcher.Registry {
	t.Helper()
	reg := matcher.NewRegistry()
	require.NoError(t, builtin.Register(reg))
	return reg
}

func mkSuite(name string, cases ...suite.Case) *suite.Suite {
	return &suite.Suite{
		Name:  name,
		Path:  name + ".yaml",
		Cases: cases,
	}
}

func squareCase(name string, n, actual int) suite.Case {
	return suite.Case{
		Name:     name,
		Matcher:  "be_the_square_of",
		Expected: []interface{}{n},
		Actual:   actual,
	}
}

func TestRunEvaluatesSuites(t *testing.T) {
	r := New(newCatalog(t))
	suites := []*suite.Suite{
		mkSuite("arithmetic",
			squareCase("four is the square of two", 2, 4),
			squareCase("nine is the square of three", 3, 9),
			squareCase("twenty is not the square of four", 4, 20),
		),
		mkSuite("strings",
			suite.Case{Name: "greeting contains name", Matcher: "contain", Expected: []interface{}{"world"}, Actual: "hello world"},
		),
	}

	run, err := r.Run(context.Background(), suites)
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.NotEmpty(t, run.ID)
	assert.False(t, run.StartedAt.IsZero())
	assert.Equal(t, 4, run.TotalCases)
	assert.Equal(t, 1, run.Failures)
	assert.False(t, run.Passed())

	require.Len(t, run.Suites, 2)
	arith := run.Suites[0]
	assert.Equal(t, "arithmetic", arith.Suite)
	assert.Equal(t, "arithmetic.yaml", arith.Path)
	assert.Equal(t, 1, arith.Failures)
	require.Len(t, arith.Cases, 3)
	assert.True(t, arith.Cases[0].Passed)
	assert.True(t, arith.Cases[1].Passed)
	assert.False(t, arith.Cases[2].Passed)
	assert.Equal(t, "expected 20 to be the square of 4", arith.Cases[2].Message)

	strs := run.Suites[1]
	assert.Equal(t, "strings", strs.Suite)
	assert.Zero(t, strs.Failures)
}

func TestRunPreservesInputOrder(t *testing.T) {
	r := New(newCatalog(t), WithParallelism(4))

	var suites []*suite.Suite
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("suite-%d", i)
		suites = append(suites, mkSuite(name,
			squareCase("a", 2, 4),
			squareCase("b", 3, 9),
		))
	}

	run, err := r.Run(context.Background(), suites)
	require.NoError(t, err)
	require.Len(t, run.Suites, 8)
	for i, sr := range run.Suites {
		assert.Equal(t, fmt.Sprintf("suite-%d", i), sr.Suite)
	}
	assert.Equal(t, 16, run.TotalCases)
	assert.Zero(t, run.Failures)
}

func TestRunOverrideMessage(t *testing.T) {
	r := New(newCatalog(t))
	s := mkSuite("overrides", suite.Case{
		Name:     "big square",
		Matcher:  "be_the_square_of",
		Expected: []interface{}{45},
		Actual:   2025,
		Message:  "is big but still the square of 45",
	})

	run, err := r.Run(context.Background(), []*suite.Suite{s})
	require.NoError(t, err)
	require.Len(t, run.Suites, 1)
	require.Len(t, run.Suites[0].Cases, 1)

	got := run.Suites[0].Cases[0]
	assert.True(t, got.Passed)
	assert.Equal(t, "is big but still the square of 45", got.Message)
}

func TestRunUnknownMatcherAborts(t *testing.T) {
	r := New(newCatalog(t))
	suites := []*suite.Suite{
		mkSuite("good", squareCase("a", 2, 4)),
		mkSuite("bad", suite.Case{Name: "typo", Matcher: "be_borked", Actual: 1}),
	}

	run, err := r.Run(context.Background(), suites)
	require.Error(t, err)
	assert.Nil(t, run)
	assert.ErrorIs(t, err, matcher.ErrUnknownMatcher)
	assert.Contains(t, err.Error(), `suite "bad"`)
	assert.Contains(t, err.Error(), `case "typo"`)
	assert.Contains(t, err.Error(), "be_borked")
}

func TestRunBuilderErrorAborts(t *testing.T) {
	r := New(newCatalog(t))
	s := mkSuite("broken", suite.Case{
		Name:     "string arg",
		Matcher:  "be_the_square_of",
		Expected: []interface{}{"forty-five"},
		Actual:   2025,
	})

	run, err := r.Run(context.Background(), []*suite.Suite{s})
	require.Error(t, err)
	assert.Nil(t, run)
	assert.ErrorIs(t, err, matcher.ErrBuildPredicate)
	assert.Contains(t, err.Error(), `case "string arg"`)
}

func TestRunFailedCasesAreNotErrors(t *testing.T) {
	r := New(newCatalog(t))
	s := mkSuite("failing", squareCase("wrong", 4, 20))

	run, err := r.Run(context.Background(), []*suite.Suite{s})
	require.NoError(t, err)
	assert.Equal(t, 1, run.Failures)
	assert.False(t, run.Passed())
}

func TestRunSealsRegistry(t *testing.T) {
	reg := newCatalog(t)
	r := New(reg)

	_, err := r.Run(context.Background(), []*suite.Suite{mkSuite("s", squareCase("a", 2, 4))})
	require.NoError(t, err)

	assert.True(t, reg.Sealed())
	err = reg.Define("late_arrival", func(expected ...interface{}) (matcher.Predicate, error) {
		return func(interface{}) bool { return true }, nil
	})
	assert.ErrorIs(t, err, matcher.ErrRegistrySealed)
}

func TestRunFailFast(t *testing.T) {
	// Parallelism 1 makes scheduling deterministic: the failing first
	// suite must finish before any later suite is admitted.
	r := New(newCatalog(t), WithParallelism(1), WithFailFast(true))
	suites := []*suite.Suite{
		mkSuite("first", squareCase("wrong", 4, 20)),
		mkSuite("second", squareCase("a", 2, 4)),
		mkSuite("third", squareCase("b", 3, 9)),
	}

	run, err := r.Run(context.Background(), suites)
	require.NoError(t, err)
	require.Len(t, run.Suites, 1)
	assert.Equal(t, "first", run.Suites[0].Suite)
	assert.Equal(t, 1, run.TotalCases)
	assert.Equal(t, 1, run.Failures)
}

func TestRunContextCancelled(t *testing.T) {
	r := New(newCatalog(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := r.Run(ctx, []*suite.Suite{mkSuite("s", squareCase("a", 2, 4))})
	require.Error(t, err)
	assert.Nil(t, run)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunNoSuites(t *testing.T) {
	reg := newCatalog(t)
	r := New(reg)

	run, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, run.Suites)
	assert.Zero(t, run.TotalCases)
	assert.True(t, run.Passed())
	assert.True(t, reg.Sealed(), "seal happens even for empty runs")
}

func TestWithIDSource(t *testing.T) {
	r := New(newCatalog(t), WithIDSource(func() string { return "run-fixed" }))

	run, err := r.Run(context.Background(), []*suite.Suite{mkSuite("s", squareCase("a", 2, 4))})
	require.NoError(t, err)
	assert.Equal(t, "run-fixed", run.ID)
}

func TestNilRegistry(t *testing.T) {
	r := New(nil)
	_, err := r.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil registry")
}
