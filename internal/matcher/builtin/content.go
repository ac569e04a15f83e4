package builtin

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/google/go-cmp/cmp"

	"matcha/internal/matcher"
)

func equal(expected ...interface{}) (matcher.Predicate, error) {
	if err := wantArgs("equal", expected, 1); err != nil {
		return nil, err
	}
	want := expected[0]
	return func(actual interface{}) bool {
		return cmp.Equal(want, actual)
	}, nil
}

func notEqual(expected ...interface{}) (matcher.Predicate, error) {
	if err := wantArgs("not_equal", expected, 1); err != nil {
		return nil, err
	}
	want := expected[0]
	return func(actual interface{}) bool {
		return !cmp.Equal(want, actual)
	}, nil
}

// contain checks substring containment for strings and element
// membership for slices and arrays.
func contain(expected ...interface{}) (matcher.Predicate, error) {
	if err := wantArgs("contain", expected, 1); err != nil {
		return nil, err
	}
	want := expected[0]
	return func(actual interface{}) bool {
		if s, ok := actual.(string); ok {
			sub, ok := want.(string)
			return ok && strings.Contains(s, sub)
		}
		rv := reflect.ValueOf(actual)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				if cmp.Equal(rv.Index(i).Interface(), want) {
					return true
				}
			}
		}
		return false
	}, nil
}

func matchPattern(expected ...interface{}) (matcher.Predicate, error) {
	if err := wantArgs("match_pattern", expected, 1); err != nil {
		return nil, err
	}
	pattern, ok := expected[0].(string)
	if !ok {
		return nil, fmt.Errorf("match_pattern wants a string pattern, got %T", expected[0])
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("match_pattern: invalid pattern %q: %v", pattern, err)
	}
	return func(actual interface{}) bool {
		return re.MatchString(stringify(actual))
	}, nil
}

func haveLength(expected ...interface{}) (matcher.Predicate, error) {
	want, err := oneInt("have_length", expected)
	if err != nil {
		return nil, err
	}
	if want < 0 {
		return nil, fmt.Errorf("have_length wants a non-negative length, got %d", want)
	}
	return func(actual interface{}) bool {
		n, ok := lenOf(actual)
		return ok && int64(n) == want
	}, nil
}

func beEmpty(expected ...interface{}) (matcher.Predicate, error) {
	if err := wantArgs("be_empty", expected, 0); err != nil {
		return nil, err
	}
	return func(actual interface{}) bool {
		if actual == nil {
			return true
		}
		n, ok := lenOf(actual)
		return ok && n == 0
	}, nil
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// lenOf reports the length of values that have one.
func lenOf(v interface{}) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map, reflect.Chan:
		return rv.Len(), true
	default:
		return 0, false
	}
}
