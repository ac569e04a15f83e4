package builtin

import (
	"fmt"
	"math"

	"matcha/internal/matcher"
)

// squareOf evaluates n*n == actual with integer semantics: exact
// exponentiation and equality, no floating-point tolerance.
func squareOf(expected ...interface{}) (matcher.Predicate, error) {
	n, err := oneInt("be_the_square_of", expected)
	if err != nil {
		return nil, err
	}
	return func(actual interface{}) bool {
		m, ok := asInt64(actual)
		return ok && n*n == m
	}, nil
}

// notSquareOf evaluates n*n != actual. A non-integer actual is never a
// square, so it passes.
func notSquareOf(expected ...interface{}) (matcher.Predicate, error) {
	n, err := oneInt("not_be_the_square_of", expected)
	if err != nil {
		return nil, err
	}
	return func(actual interface{}) bool {
		m, ok := asInt64(actual)
		return !ok || n*n != m
	}, nil
}

func beGreaterThan(expected ...interface{}) (matcher.Predicate, error) {
	want, err := oneNumber("be_greater_than", expected)
	if err != nil {
		return nil, err
	}
	return func(actual interface{}) bool {
		got, ok := asFloat64(actual)
		return ok && got > want
	}, nil
}

func beLessThan(expected ...interface{}) (matcher.Predicate, error) {
	want, err := oneNumber("be_less_than", expected)
	if err != nil {
		return nil, err
	}
	return func(actual interface{}) bool {
		got, ok := asFloat64(actual)
		return ok && got < want
	}, nil
}

func beBetween(expected ...interface{}) (matcher.Predicate, error) {
	if err := wantArgs("be_between", expected, 2); err != nil {
		return nil, err
	}
	lo, ok := asFloat64(expected[0])
	if !ok {
		return nil, fmt.Errorf("be_between wants a numeric lower bound, got %T", expected[0])
	}
	hi, ok := asFloat64(expected[1])
	if !ok {
		return nil, fmt.Errorf("be_between wants a numeric upper bound, got %T", expected[1])
	}
	if lo > hi {
		return nil, fmt.Errorf("be_between bounds are inverted: %v > %v", expected[0], expected[1])
	}
	return func(actual interface{}) bool {
		got, ok := asFloat64(actual)
		return ok && got >= lo && got <= hi
	}, nil
}

func oneInt(name string, expected []interface{}) (int64, error) {
	if err := wantArgs(name, expected, 1); err != nil {
		return 0, err
	}
	n, ok := asInt64(expected[0])
	if !ok {
		return 0, fmt.Errorf("%s wants an integer, got %T", name, expected[0])
	}
	return n, nil
}

func oneNumber(name string, expected []interface{}) (float64, error) {
	if err := wantArgs(name, expected, 1); err != nil {
		return 0, err
	}
	n, ok := asFloat64(expected[0])
	if !ok {
		return 0, fmt.Errorf("%s wants a number, got %T", name, expected[0])
	}
	return n, nil
}

// asInt64 coerces any Go integer kind. Floats are excluded, including
// whole-valued ones: square semantics are exact.
func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

// asFloat64 coerces integer and float kinds for ordering comparisons.
func asFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		if i, ok := asInt64(v); ok {
			return float64(i), true
		}
		return 0, false
	}
}
