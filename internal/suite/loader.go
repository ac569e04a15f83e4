package suite

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"matcha/internal/logging"
)

// suiteFile is the YAML DTO; mapAndValidate turns it into the domain
// Suite so validation failures carry file context.
type suiteFile struct {
	Version     int        `yaml:"version"`
	Suite       string     `yaml:"suite"`
	Description string     `yaml:"description"`
	Cases       []caseFile `yaml:"cases"`
}

type caseFile struct {
	Name     string        `yaml:"name"`
	Matcher  string        `yaml:"matcher"`
	Expected []interface{} `yaml:"expected"`
	Actual   interface{}   `yaml:"actual"`
	Message  string        `yaml:"message"`
}

// Load reads one suite file from disk. Unknown YAML fields are
// rejected so typos surface as load errors instead of silently ignored
// configuration.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	var sf suiteFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("failed to parse suite YAML %s: %w", path, err)
	}

	s, err := mapAndValidate(path, sf)
	if err != nil {
		return nil, err
	}

	logging.SuiteDebug("Load: loaded suite %q from %s (%d cases)", s.Name, path, len(s.Cases))
	logging.Audit().SuiteLoaded(path, s.Name, len(s.Cases))
	return s, nil
}

// LoadDir loads every *.yaml / *.yml file in dir, sorted by filename
// for deterministic suite order. A directory with no suite files
// yields an empty slice, not an error.
func LoadDir(dir string) ([]*Suite, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	suites := make([]*Suite, 0, len(files))
	for _, name := range files {
		s, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		suites = append(suites, s)
	}
	return suites, nil
}

// LoadPaths loads a mixed list of suite files and directories.
func LoadPaths(paths []string) ([]*Suite, error) {
	var suites []*Suite
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			loaded, err := LoadDir(path)
			if err != nil {
				return nil, err
			}
			suites = append(suites, loaded...)
			continue
		}
		s, err := Load(path)
		if err != nil {
			return nil, err
		}
		suites = append(suites, s)
	}
	return suites, nil
}

func mapAndValidate(path string, sf suiteFile) (*Suite, error) {
	version := sf.Version
	if version == 0 {
		version = SupportedVersion
	}
	if version != SupportedVersion {
		return nil, fmt.Errorf("%w: %s: unsupported version %d (supported: %d)",
			ErrInvalidSuite, path, sf.Version, SupportedVersion)
	}

	name := strings.TrimSpace(sf.Suite)
	if name == "" {
		return nil, fmt.Errorf("%w: %s: suite name is required", ErrInvalidSuite, path)
	}
	if len(sf.Cases) == 0 {
		return nil, fmt.Errorf("%w: %s: suite %q has no cases", ErrInvalidSuite, path, name)
	}

	seen := make(map[string]struct{}, len(sf.Cases))
	cases := make([]Case, 0, len(sf.Cases))
	for i, cf := range sf.Cases {
		caseName := strings.TrimSpace(cf.Name)
		if caseName == "" {
			return nil, fmt.Errorf("%w: %s: case %d: name is required", ErrInvalidSuite, path, i+1)
		}
		if strings.TrimSpace(cf.Matcher) == "" {
			return nil, fmt.Errorf("%w: %s: case %q: matcher is required", ErrInvalidSuite, path, caseName)
		}
		if _, dup := seen[caseName]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate case name %q", ErrInvalidSuite, path, caseName)
		}
		seen[caseName] = struct{}{}

		cases = append(cases, Case{
			Name:     caseName,
			Matcher:  strings.TrimSpace(cf.Matcher),
			Expected: cf.Expected,
			Actual:   cf.Actual,
			Message:  cf.Message,
		})
	}

	return &Suite{
		Name:        name,
		Description: strings.TrimSpace(sf.Description),
		Path:        path,
		Cases:       cases,
	}, nil
}
