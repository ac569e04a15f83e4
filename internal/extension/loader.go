// Package extension loads user-defined matchers from .matcha/matchers/
// Go files. Files are interpreted with yaegi rather than compiled, so
// adding a matcher never requires rebuilding matcha; the price is a
// strict contract and a stdlib-only import whitelist.
//
// File contract (one matcher per file, package matchers):
//
//	package matchers
//
//	var Name = "be_divisible_by"
//	var Doc  = "passes when actual % n == 0"    // optional
//
//	func Build(expected []interface{}) (func(interface{}) bool, error) { ... }
package extension

import (
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"matcha/internal/logging"
	"matcha/internal/matcher"
)

// Source marks registry definitions that came from user files.
const Source = "user"

// PackageName is the required package clause of matcher files.
const PackageName = "matchers"

const defaultLoadTimeout = 5 * time.Second

// Loader interprets matcher files and registers them.
type Loader struct {
	// Whitelist of allowed stdlib packages. Everything else, in
	// particular os, os/exec, net, and syscall, is rejected.
	allowedImports map[string]bool
	timeout        time.Duration
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout bounds how long a single file may take to interpret.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// NewLoader creates a matcher file loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		allowedImports: map[string]bool{
			"errors":  true,
			"fmt":     true,
			"math":    true,
			"regexp":  true,
			"sort":    true,
			"strconv": true,
			"strings": true,
			"time":    true,
			"unicode": true,
		},
		timeout: defaultLoadTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadDir loads every .go file under dir into reg, in name order, and
// returns how many matchers were registered. A missing directory is
// not an error; a workspace without user matchers is normal.
func (l *Loader) LoadDir(ctx context.Context, dir string, reg *matcher.Registry) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read matcher directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)

	for _, path := range files {
		if err := l.LoadFile(ctx, path, reg); err != nil {
			return 0, err
		}
	}
	if len(files) > 0 {
		logging.Extension("Loaded %d user matcher(s) from %s", len(files), dir)
	}
	return len(files), nil
}

// LoadFile interprets one matcher file and registers its matcher.
func (l *Loader) LoadFile(ctx context.Context, path string, reg *matcher.Registry) error {
	base := filepath.Base(path)

	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("matcher file %s: %w", base, err)
	}

	if err := l.validate(base, src); err != nil {
		logging.Audit().ExtensionLoaded(base, "", false, err.Error())
		return err
	}

	def, err := l.interpret(ctx, base, src)
	if err != nil {
		logging.Audit().ExtensionLoaded(base, "", false, err.Error())
		return err
	}

	builder := func(expected ...interface{}) (matcher.Predicate, error) {
		pred, err := def.build(expected)
		if err != nil {
			return nil, err
		}
		if pred == nil {
			return nil, fmt.Errorf("Build returned a nil predicate")
		}
		return matcher.Predicate(pred), nil
	}

	opts := []matcher.DefineOption{matcher.WithSource(Source)}
	if def.doc != "" {
		opts = append(opts, matcher.WithDoc(def.doc))
	}
	if err := reg.Define(def.name, builder, opts...); err != nil {
		logging.Audit().ExtensionLoaded(base, def.name, false, err.Error())
		return fmt.Errorf("matcher file %s: %w", base, err)
	}

	logging.ExtensionDebug("Registered user matcher %q from %s", def.name, base)
	logging.Audit().ExtensionLoaded(base, def.name, true, "")
	return nil
}

// validate parses the file (without interpreting it) and checks the
// package clause and import whitelist.
func (l *Loader) validate(base string, src []byte) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, base, src, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("matcher file %s: %w", base, err)
	}

	if file.Name.Name != PackageName {
		return fmt.Errorf("matcher file %s: package must be %q (got %q)", base, PackageName, file.Name.Name)
	}

	var forbidden []string
	for _, imp := range file.Imports {
		pkg, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			pkg = imp.Path.Value
		}
		if !l.allowedImports[pkg] {
			forbidden = append(forbidden, pkg)
		}
	}
	if len(forbidden) > 0 {
		return fmt.Errorf("matcher file %s: forbidden imports %v (allowed: %v)",
			base, forbidden, l.allowedList())
	}
	return nil
}

func (l *Loader) allowedList() []string {
	pkgs := make([]string, 0, len(l.allowedImports))
	for pkg := range l.allowedImports {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)
	return pkgs
}

// loadedDef is what interpretation extracts from a matcher file.
type loadedDef struct {
	name  string
	doc   string
	build func([]interface{}) (func(interface{}) bool, error)
}

// interpret evaluates the file in a fresh interpreter and extracts the
// contract symbols. The interpreter cannot be cancelled once started,
// so the work runs in a goroutine guarded by ctx/select; on timeout
// the goroutine is abandoned.
func (l *Loader) interpret(ctx context.Context, base string, src []byte) (*loadedDef, error) {
	tctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	type outcome struct {
		def *loadedDef
		err error
	}
	resultChan := make(chan outcome, 1)

	go func() {
		def, err := extractSymbols(base, src)
		resultChan <- outcome{def: def, err: err}
	}()

	select {
	case res := <-resultChan:
		return res.def, res.err
	case <-tctx.Done():
		return nil, fmt.Errorf("matcher file %s: interpretation timed out: %w", base, tctx.Err())
	}
}

func extractSymbols(base string, src []byte) (*loadedDef, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("matcher file %s: failed to load stdlib: %w", base, err)
	}

	if _, err := i.Eval(string(src)); err != nil {
		return nil, fmt.Errorf("matcher file %s: evaluation failed: %w", base, err)
	}

	nameVal, err := i.Eval(PackageName + ".Name")
	if err != nil {
		return nil, fmt.Errorf("matcher file %s: Name not found: %w", base, err)
	}
	name, ok := nameVal.Interface().(string)
	if !ok || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("matcher file %s: Name must be a non-empty string", base)
	}

	def := &loadedDef{name: strings.TrimSpace(name)}

	// Doc is optional.
	if docVal, err := i.Eval(PackageName + ".Doc"); err == nil {
		if doc, ok := docVal.Interface().(string); ok {
			def.doc = doc
		}
	}

	buildVal, err := i.Eval(PackageName + ".Build")
	if err != nil {
		return nil, fmt.Errorf("matcher file %s: Build not found: %w", base, err)
	}
	build, ok := buildVal.Interface().(func([]interface{}) (func(interface{}) bool, error))
	if !ok {
		return nil, fmt.Errorf("matcher file %s: Build has the wrong signature (want func([]interface{}) (func(interface{}) bool, error))", base)
	}
	def.build = build

	return def, nil
}
