package matcher

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// squareOf builds the worked-example predicate: n*n == actual with
// integer semantics.
func squareOf(expected ...interface{}) (Predicate, error) {
	if len(expected) != 1 {
		return nil, fmt.Errorf("takes exactly 1 argument, got %d", len(expected))
	}
	n, ok := expected[0].(int)
	if !ok {
		return nil, fmt.Errorf("expected an int, got %T", expected[0])
	}
	return func(actual interface{}) bool {
		m, ok := actual.(int)
		return ok && n*n == m
	}, nil
}

func notSquareOf(expected ...interface{}) (Predicate, error) {
	pred, err := squareOf(expected...)
	if err != nil {
		return nil, err
	}
	return func(actual interface{}) bool { return !pred(actual) }, nil
}

func newSquareRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Define("be_the_square_of", squareOf))
	require.NoError(t, r.Define("not_be_the_square_of", notSquareOf))
	return r
}

func TestInvokeSquareOf(t *testing.T) {
	r := newSquareRegistry(t)

	tests := []struct {
		name   string
		n      int
		actual int
		passed bool
	}{
		{"2 squared is 4", 2, 4, true},
		{"3 squared is 9", 3, 9, true},
		{"45 squared is 2025", 45, 2025, true},
		{"5 squared is not 24", 5, 24, false},
		{"4 squared is not 20", 4, 20, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Invoke("be_the_square_of", []interface{}{tt.n}, tt.actual)
			require.NoError(t, err)
			assert.Equal(t, tt.passed, res.Passed)
		})
	}
}

func TestInvokeNotSquareOf(t *testing.T) {
	r := newSquareRegistry(t)

	tests := []struct {
		name   string
		n      int
		actual int
		passed bool
	}{
		{"20 is not 4 squared", 4, 20, true},
		{"49 is not 8 squared", 8, 49, true},
		{"9 is 3 squared", 3, 9, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Invoke("not_be_the_square_of", []interface{}{tt.n}, tt.actual)
			require.NoError(t, err)
			assert.Equal(t, tt.passed, res.Passed)
		})
	}
}

// Negation is explicit registration, never derived: a registry holding
// only the positive matcher knows nothing about "not_<name>".
func TestNoAutomaticNegation(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Define("be_the_square_of", squareOf))

	_, err := r.Invoke("not_be_the_square_of", []interface{}{4}, 20)
	assert.ErrorIs(t, err, ErrUnknownMatcher)
}

func TestOverrideMessage(t *testing.T) {
	r := newSquareRegistry(t)

	t.Run("replaces message on pass", func(t *testing.T) {
		res, err := r.Invoke("be_the_square_of", []interface{}{45}, 2025,
			WithOverrideMessage("is big but still the square of 45"))
		require.NoError(t, err)
		assert.True(t, res.Passed)
		assert.Equal(t, "is big but still the square of 45", res.Message)
	})

	t.Run("replaces message on fail", func(t *testing.T) {
		res, err := r.Invoke("be_the_square_of", []interface{}{45}, 2024,
			WithOverrideMessage("is big but still the square of 45"))
		require.NoError(t, err)
		assert.False(t, res.Passed)
		assert.Equal(t, "is big but still the square of 45", res.Message)
	})
}

func TestDefaultMessageSynthesis(t *testing.T) {
	r := newSquareRegistry(t)

	res, err := r.Invoke("be_the_square_of", []interface{}{45}, 2025)
	require.NoError(t, err)
	assert.Equal(t, "expected 2025 to be the square of 45", res.Message)

	res, err = r.Invoke("not_be_the_square_of", []interface{}{4}, 20)
	require.NoError(t, err)
	assert.Equal(t, "expected 20 to not be the square of 4", res.Message)
}

func TestCustomMessageTemplate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Define("be_the_square_of", squareOf,
		WithMessage(func(name string, expected []interface{}, actual interface{}) string {
			return fmt.Sprintf("%v should square to %v", expected[0], actual)
		})))

	res, err := r.Invoke("be_the_square_of", []interface{}{45}, 2025)
	require.NoError(t, err)
	assert.Equal(t, "45 should square to 2025", res.Message)

	// Override still wins over the custom template
	res, err = r.Invoke("be_the_square_of", []interface{}{45}, 2025,
		WithOverrideMessage("custom"))
	require.NoError(t, err)
	assert.Equal(t, "custom", res.Message)
}

func TestDuplicateDefine(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Define("be_the_square_of", squareOf))

	err := r.Define("be_the_square_of", squareOf)
	assert.ErrorIs(t, err, ErrDuplicateMatcher)
	assert.Contains(t, err.Error(), "be_the_square_of")
	assert.Equal(t, 1, r.Len())
}

func TestUnknownMatcher(t *testing.T) {
	r := NewRegistry()

	_, err := r.Invoke("be_the_cube_of", []interface{}{3}, 27)
	assert.ErrorIs(t, err, ErrUnknownMatcher)
	assert.Contains(t, err.Error(), "be_the_cube_of")
}

func TestDefineValidation(t *testing.T) {
	r := NewRegistry()

	t.Run("empty name", func(t *testing.T) {
		err := r.Define("", squareOf)
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("nil builder", func(t *testing.T) {
		err := r.Define("be_something", nil)
		assert.Error(t, err)
	})
}

func TestBuilderRejectsArgs(t *testing.T) {
	r := newSquareRegistry(t)

	t.Run("wrong arity", func(t *testing.T) {
		_, err := r.Invoke("be_the_square_of", []interface{}{1, 2}, 4)
		assert.ErrorIs(t, err, ErrBuildPredicate)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := r.Invoke("be_the_square_of", []interface{}{"nope"}, 4)
		assert.ErrorIs(t, err, ErrBuildPredicate)
	})
}

func TestSeal(t *testing.T) {
	r := newSquareRegistry(t)

	assert.False(t, r.Sealed())
	assert.True(t, r.Seal(), "first Seal call should perform the seal")
	assert.False(t, r.Seal(), "second Seal call should be a no-op")
	assert.True(t, r.Sealed())

	err := r.Define("be_late", squareOf)
	assert.ErrorIs(t, err, ErrRegistrySealed)

	// Invocation keeps working after the load phase ends
	res, err := r.Invoke("be_the_square_of", []interface{}{3}, 9)
	require.NoError(t, err)
	assert.True(t, res.Passed)
}

func TestNamesSortedAndLen(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Define("contain", squareOf))
	require.NoError(t, r.Define("be_the_square_of", squareOf))
	require.NoError(t, r.Define("be_empty", squareOf))

	assert.Equal(t, []string{"be_empty", "be_the_square_of", "contain"}, r.Names())
	assert.Equal(t, 3, r.Len())
}

func TestLookup(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Define("be_the_square_of", squareOf,
		WithDoc("passes when n*n == actual"),
		WithSource("builtin")))

	def, ok := r.Lookup("be_the_square_of")
	require.True(t, ok)
	assert.Equal(t, "be_the_square_of", def.Name())
	assert.Equal(t, "passes when n*n == actual", def.Doc())
	assert.Equal(t, "builtin", def.Source())

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestMustDefinePanics(t *testing.T) {
	r := NewRegistry()
	r.MustDefine("be_the_square_of", squareOf)

	assert.Panics(t, func() {
		r.MustDefine("be_the_square_of", squareOf)
	})
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, Default(), Default())
}

// Sealed registries serve concurrent invocations; results stay
// deterministic because predicates are pure.
func TestConcurrentInvokeAfterSeal(t *testing.T) {
	r := newSquareRegistry(t)
	r.Seal()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := r.Invoke("be_the_square_of", []interface{}{n}, n*n)
			assert.NoError(t, err)
			assert.True(t, res.Passed)

			res, err = r.Invoke("not_be_the_square_of", []interface{}{n}, n*n+1)
			assert.NoError(t, err)
			assert.True(t, res.Passed)

			_ = r.Names()
			_, _ = r.Lookup("be_the_square_of")
		}(i)
	}
	wg.Wait()
}

// Invoking the same matcher with the same inputs always yields the same
// result; predicates are pure functions of their arguments.
func TestInvokeDeterministic(t *testing.T) {
	r := newSquareRegistry(t)

	first, err := r.Invoke("be_the_square_of", []interface{}{7}, 49)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		res, err := r.Invoke("be_the_square_of", []interface{}{7}, 49)
		require.NoError(t, err)
		assert.Equal(t, first, res)
	}
}
