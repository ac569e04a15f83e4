package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/go-cmp/cmp"

	"matcha/internal/matcher"
)

// haveJSONPath passes when the path resolves to a value in the actual
// document. The actual value may be a decoded structure or JSON text.
func haveJSONPath(expected ...interface{}) (matcher.Predicate, error) {
	path, err := onePath("have_json_path", expected)
	if err != nil {
		return nil, err
	}
	return func(actual interface{}) bool {
		doc, ok := asDocument(actual)
		if !ok {
			return false
		}
		_, err := jsonpath.Get(path, doc)
		return err == nil
	}, nil
}

// matchJSONPath passes when the value at the path equals want.
func matchJSONPath(expected ...interface{}) (matcher.Predicate, error) {
	if err := wantArgs("match_json_path", expected, 2); err != nil {
		return nil, err
	}
	path, ok := expected[0].(string)
	if !ok {
		return nil, fmt.Errorf("match_json_path wants a string path, got %T", expected[0])
	}
	want := expected[1]
	return func(actual interface{}) bool {
		doc, ok := asDocument(actual)
		if !ok {
			return false
		}
		got, err := jsonpath.Get(path, doc)
		return err == nil && looseEqual(got, want)
	}, nil
}

func onePath(name string, expected []interface{}) (string, error) {
	if err := wantArgs(name, expected, 1); err != nil {
		return "", err
	}
	path, ok := expected[0].(string)
	if !ok {
		return "", fmt.Errorf("%s wants a string path, got %T", name, expected[0])
	}
	return path, nil
}

// asDocument normalizes the actual value for path evaluation: JSON text
// is decoded, structured values pass through unchanged.
func asDocument(actual interface{}) (interface{}, bool) {
	switch v := actual.(type) {
	case string:
		var doc interface{}
		if err := json.Unmarshal([]byte(v), &doc); err != nil {
			return nil, false
		}
		return doc, true
	case []byte:
		var doc interface{}
		if err := json.Unmarshal(v, &doc); err != nil {
			return nil, false
		}
		return doc, true
	default:
		return actual, true
	}
}

// looseEqual bridges the numeric type split between YAML expectations
// (int) and JSON documents (float64); everything else compares deeply.
func looseEqual(got, want interface{}) bool {
	if g, ok := asFloat64(got); ok {
		w, ok := asFloat64(want)
		return ok && g == w
	}
	return cmp.Equal(got, want)
}
