// Package main implements the matcha CLI.
//
// This file provides the validate command: structural suite checks and
// matcher reference resolution without evaluating anything.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"matcha/internal/matcher"
	"matcha/internal/suite"
	"matcha/internal/workspace"
)

// validateCmd checks suites without running them
var validateCmd = &cobra.Command{
	Use:   "validate [paths...]",
	Short: "Validate suites without evaluating them",
	Long: `Loads the named suite files (or every suite under the configured
suites directory) and reports per file whether it is well formed and
every referenced matcher resolves against the registry (builtins plus
user matchers). No predicate is evaluated.

Exit code is 0 when every file validates and 1 otherwise.`,
	RunE: validateSuites,
}

func validateSuites(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, cancel := context.WithTimeout(context.Background(), env.Config.GetLoadTimeout())
	defer cancel()

	reg, _, err := buildRegistry(ctx, env)
	if err != nil {
		return err
	}

	files, err := collectSuiteFiles(env, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no suite files found (looked in %s)", workspace.SuitesDir(env.Workspace, env.Config))
	}

	invalid := 0
	for _, path := range files {
		if problem := checkSuiteFile(path, reg); problem != "" {
			invalid++
			fmt.Printf("✗ %s\n    %s\n", path, problem)
			continue
		}
		fmt.Printf("✓ %s\n", path)
	}

	fmt.Printf("\n%d file(s) checked, %d invalid\n", len(files), invalid)
	if invalid > 0 {
		return fmt.Errorf("validation failed (%d invalid file(s))", invalid)
	}
	return nil
}

// checkSuiteFile returns an empty string when the file is valid, or a
// one-line description of the first problem found.
func checkSuiteFile(path string, reg *matcher.Registry) string {
	s, err := suite.Load(path)
	if err != nil {
		return err.Error()
	}
	for _, c := range s.Cases {
		if _, ok := reg.Lookup(c.Matcher); !ok {
			return fmt.Sprintf("case %q: unknown matcher %q", c.Name, c.Matcher)
		}
	}
	return ""
}

// collectSuiteFiles expands args (files and directories) into a sorted list
// of suite file paths. Without args it lists the configured suites dir.
func collectSuiteFiles(env *cliEnv, args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{workspace.SuitesDir(env.Workspace, env.Config)}
	}

	var files []string
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read suite directory: %w", err)
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			files = append(files, filepath.Join(path, name))
		}
	}
	return files, nil
}
