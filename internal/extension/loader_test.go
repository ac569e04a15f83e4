package extension

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matcha/internal/matcher"
)

const divisibleSrc = `package matchers

import (
	"errors"
	"fmt"
)

var Name = "be_divisible_by"
var Doc = "passes when actual % n == 0"

func Build(expected []interface{}) (func(interface{}) bool, error) {
	if len(expected) != 1 {
		return nil, fmt.Errorf("be_divisible_by wants 1 argument, got %d", len(expected))
	}
	n, ok := expected[0].(int)
	if !ok || n == 0 {
		return nil, errors.New("be_divisible_by wants a non-zero integer")
	}
	return func(actual interface{}) bool {
		m, ok := actual.(int)
		if !ok {
			return false
		}
		return m%n == 0
	}, nil
}
`

const shoutedSrc = `package matchers

import (
	"errors"
	"strings"
)

var Name = "be_shouted"

func Build(expected []interface{}) (func(interface{}) bool, error) {
	if len(expected) != 0 {
		return nil, errors.New("be_shouted takes no arguments")
	}
	return func(actual interface{}) bool {
		s, ok := actual.(string)
		if !ok {
			return false
		}
		return s != "" && s == strings.ToUpper(s)
	}, nil
}
`

func writeMatcherFile(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestLoadFileRegistersMatcher(t *testing.T) {
	dir := t.TempDir()
	path := writeMatcherFile(t, dir, "divisible.go", divisibleSrc)

	reg := matcher.NewRegistry()
	loader := NewLoader()
	require.NoError(t, loader.LoadFile(context.Background(), path, reg))

	def, ok := reg.Lookup("be_divisible_by")
	require.True(t, ok)
	assert.Equal(t, "passes when actual % n == 0", def.Doc())
	assert.Equal(t, Source, def.Source())

	res, err := reg.Invoke("be_divisible_by", []interface{}{3}, 9)
	require.NoError(t, err)
	assert.True(t, res.Passed)

	res, err = reg.Invoke("be_divisible_by", []interface{}{3}, 10)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, "expected 10 to be divisible by 3", res.Message)
}

func TestLoadFileBuilderErrorsSurface(t *testing.T) {
	dir := t.TempDir()
	path := writeMatcherFile(t, dir, "divisible.go", divisibleSrc)

	reg := matcher.NewRegistry()
	require.NoError(t, NewLoader().LoadFile(context.Background(), path, reg))

	_, err := reg.Invoke("be_divisible_by", []interface{}{"three"}, 9)
	require.Error(t, err)
	assert.ErrorIs(t, err, matcher.ErrBuildPredicate)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeMatcherFile(t, dir, "divisible.go", divisibleSrc)
	writeMatcherFile(t, dir, "shouted.go", shoutedSrc)
	writeMatcherFile(t, dir, "_draft.go", "package matchers\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not go"), 0644))

	reg := matcher.NewRegistry()
	n, err := NewLoader().LoadDir(context.Background(), dir, reg)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	res, err := reg.Invoke("be_shouted", nil, "LOUD")
	require.NoError(t, err)
	assert.True(t, res.Passed)

	res, err = reg.Invoke("be_shouted", nil, "quiet")
	require.NoError(t, err)
	assert.False(t, res.Passed)
}

func TestLoadDirMissingIsEmpty(t *testing.T) {
	reg := matcher.NewRegistry()
	n, err := NewLoader().LoadDir(context.Background(), filepath.Join(t.TempDir(), "absent"), reg)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, reg.Len())
}

func TestForbiddenImportRejected(t *testing.T) {
	src := `package matchers

import "os"

var Name = "be_sneaky"

func Build(expected []interface{}) (func(interface{}) bool, error) {
	return func(actual interface{}) bool { return os.Getenv("HOME") != "" }, nil
}
`
	dir := t.TempDir()
	path := writeMatcherFile(t, dir, "sneaky.go", src)

	reg := matcher.NewRegistry()
	err := NewLoader().LoadFile(context.Background(), path, reg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden imports")
	assert.Contains(t, err.Error(), "sneaky.go")
	assert.Zero(t, reg.Len())
}

func TestWrongPackageRejected(t *testing.T) {
	src := `package main

var Name = "be_misplaced"

func Build(expected []interface{}) (func(interface{}) bool, error) {
	return func(actual interface{}) bool { return true }, nil
}
`
	dir := t.TempDir()
	path := writeMatcherFile(t, dir, "misplaced.go", src)

	err := NewLoader().LoadFile(context.Background(), path, matcher.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `package must be "matchers"`)
}

func TestContractViolationsRejected(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		errSub string
	}{
		{
			name:   "missing Name",
			src:    "package matchers\n\nfunc Build(expected []interface{}) (func(interface{}) bool, error) {\n\treturn func(actual interface{}) bool { return true }, nil\n}\n",
			errSub: "Name not found",
		},
		{
			name:   "empty Name",
			src:    "package matchers\n\nvar Name = \"  \"\n\nfunc Build(expected []interface{}) (func(interface{}) bool, error) {\n\treturn func(actual interface{}) bool { return true }, nil\n}\n",
			errSub: "non-empty string",
		},
		{
			name:   "missing Build",
			src:    "package matchers\n\nvar Name = \"be_empty_shell\"\n",
			errSub: "Build not found",
		},
		{
			name:   "wrong Build signature",
			src:    "package matchers\n\nvar Name = \"be_wrong\"\n\nfunc Build(n int) bool { return true }\n",
			errSub: "wrong signature",
		},
		{
			name:   "syntax error",
			src:    "package matchers\n\nvar Name = \n",
			errSub: "matcher file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeMatcherFile(t, dir, "bad.go", tt.src)

			err := NewLoader().LoadFile(context.Background(), path, matcher.NewRegistry())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestDuplicateNameAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeMatcherFile(t, dir, "a.go", divisibleSrc)
	writeMatcherFile(t, dir, "b.go", divisibleSrc)

	reg := matcher.NewRegistry()
	_, err := NewLoader().LoadDir(context.Background(), dir, reg)
	require.Error(t, err)
	assert.ErrorIs(t, err, matcher.ErrDuplicateMatcher)
	assert.Contains(t, err.Error(), "b.go")
}

func TestLoadTimeout(t *testing.T) {
	// Package initialization spins forever; the loader must give up.
	src := `package matchers

var Name = loop()

func loop() string {
	n := 0
	for {
		n++
	}
}

func Build(expected []interface{}) (func(interface{}) bool, error) {
	return func(actual interface{}) bool { return true }, nil
}
`
	dir := t.TempDir()
	path := writeMatcherFile(t, dir, "spin.go", src)

	loader := NewLoader(WithTimeout(200 * time.Millisecond))
	err := loader.LoadFile(context.Background(), path, matcher.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}
