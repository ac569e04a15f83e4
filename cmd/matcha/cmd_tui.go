// Package main implements the matcha CLI.
//
// This file provides the tui command and the adapters feeding the
// interactive browser.
package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"matcha/cmd/matcha/tui"
	"matcha/internal/history"
	"matcha/internal/report"
	"matcha/internal/runner"
	"matcha/internal/suite"
)

// tuiCmd starts the interactive browser
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive browser",
	Long: `Starts the full-screen browser: run all suites, browse suites,
the matcher catalog, and run history. Running a suite shows the
documentation report in a scrollable view.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return launchTUI()
	},
}

func launchTUI() error {
	// Zap is skipped for the TUI (stderr would corrupt the screen);
	// shared helpers still expect a logger.
	if logger == nil {
		logger = zap.NewNop()
	}

	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	deps := tui.Deps{
		Workspace: env.Workspace,

		LoadSuites: func() ([]*suite.Suite, error) {
			return loadSuites(env, nil)
		},

		ListMatchers: func(ctx context.Context) ([]tui.MatcherEntry, error) {
			loadCtx, cancel := context.WithTimeout(ctx, env.Config.GetLoadTimeout())
			defer cancel()
			reg, _, err := buildRegistry(loadCtx, env)
			if err != nil {
				return nil, err
			}
			entries := make([]tui.MatcherEntry, 0, reg.Len())
			for _, name := range reg.Names() {
				def, ok := reg.Lookup(name)
				if !ok {
					continue
				}
				entries = append(entries, tui.MatcherEntry{
					Name:   def.Name(),
					Doc:    def.Doc(),
					Source: def.Source(),
				})
			}
			return entries, nil
		},

		ListRuns: func(limit int) ([]history.RunSummary, error) {
			store, err := openHistory(env)
			if err != nil {
				return nil, err
			}
			defer store.Close()
			return store.ListRuns(limit)
		},

		RunSuites: func(ctx context.Context, paths []string) (string, int, error) {
			return evaluateAndRender(ctx, env, paths)
		},

		ShowRun: func(id string) (string, int, error) {
			store, err := openHistory(env)
			if err != nil {
				return "", 0, err
			}
			defer store.Close()
			run, err := store.GetRun(id)
			if err != nil {
				return "", 0, err
			}
			rendered, err := renderToString(env, run)
			if err != nil {
				return "", 0, err
			}
			return rendered, run.Failures, nil
		},
	}

	return tui.Run(deps)
}

// evaluateAndRender runs the named suite paths (all suites when empty) and
// returns the documentation report for the viewport.
func evaluateAndRender(ctx context.Context, env *cliEnv, paths []string) (string, int, error) {
	runCtx, cancel := context.WithTimeout(ctx, env.Config.GetRunTimeout())
	defer cancel()

	reg, _, err := buildRegistry(runCtx, env)
	if err != nil {
		return "", 0, err
	}

	var suites []*suite.Suite
	if len(paths) > 0 {
		suites, err = suite.LoadPaths(paths)
	} else {
		suites, err = loadSuites(env, nil)
	}
	if err != nil {
		return "", 0, err
	}
	if len(suites) == 0 {
		return "", 0, fmt.Errorf("no suites found")
	}

	r := runner.New(reg, runner.WithParallelism(env.Config.Runner.Parallelism))
	run, err := r.Run(runCtx, suites)
	if err != nil {
		return "", 0, err
	}

	rendered, err := renderToString(env, run)
	if err != nil {
		return "", 0, err
	}
	recordHistory(env, run)
	return rendered, run.Failures, nil
}

func renderToString(env *cliEnv, run *runner.Run) (string, error) {
	var buf bytes.Buffer
	renderer := report.Renderer{Format: report.FormatDocumentation, NoColor: !env.Config.Report.Color}
	if err := renderer.Render(&buf, run); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}
