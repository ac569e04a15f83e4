// Package main implements the matcha CLI.
//
// This file provides the run command: load suites, build the registry,
// evaluate, render, and record history.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"matcha/internal/history"
	"matcha/internal/report"
	"matcha/internal/runner"
	"matcha/internal/workspace"
)

var (
	runFormat      string
	runParallelism int
	runNoColor     bool
	runFailFast    bool
)

// runCmd evaluates suites and renders the report
var runCmd = &cobra.Command{
	Use:   "run [paths...]",
	Short: "Evaluate assertion suites",
	Long: `Loads the named suite files (or every suite under the configured
suites directory), resolves each case's matcher, seals the registry,
and evaluates the suites concurrently.

The exit code is 0 when every case passed and 1 otherwise. A failed
case is a counted outcome with a message, not an error; hard errors
(unknown matcher, unreadable suite, rejected expected args) abort the
run before or during evaluation.

Examples:
  matcha run                      # everything under suites/
  matcha run suites/numbers.yaml  # one file
  matcha run --format json        # machine-readable report
  matcha run --fail-fast          # stop scheduling after first failed suite`,
	RunE: runSuites,
}

func runSuites(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	format, noColor, err := reportOptions(env, runFormat, runNoColor)
	if err != nil {
		return err
	}

	runTimeout := timeout
	if runTimeout <= 0 {
		runTimeout = env.Config.GetRunTimeout()
	}
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	// Graceful shutdown on interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("Received shutdown signal")
		cancel()
	}()

	reg, userMatchers, err := buildRegistry(ctx, env)
	if err != nil {
		return err
	}
	logger.Debug("Registry ready",
		zap.Int("matchers", reg.Len()),
		zap.Int("user_files", userMatchers))

	suites, err := loadSuites(env, args)
	if err != nil {
		return err
	}
	if len(suites) == 0 {
		return fmt.Errorf("no suites found (looked in %s)", workspace.SuitesDir(env.Workspace, env.Config))
	}
	logger.Info("Evaluating suites",
		zap.Int("suites", len(suites)),
		zap.Int("parallelism", effectiveParallelism(env)),
		zap.Bool("fail_fast", runFailFast))

	r := runner.New(reg,
		runner.WithParallelism(effectiveParallelism(env)),
		runner.WithFailFast(runFailFast))
	run, err := r.Run(ctx, suites)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("run timed out after %s: %w", runTimeout, err)
		}
		return err
	}

	renderer := report.Renderer{Format: format, NoColor: noColor}
	if err := renderer.Render(os.Stdout, run); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	recordHistory(env, run)

	if !run.Passed() {
		return fmt.Errorf("run failed (%d failed case(s))", run.Failures)
	}
	return nil
}

// reportOptions resolves the report format and color choice from flags and
// configuration. The flag wins over the configured value.
func reportOptions(env *cliEnv, rawFormat string, noColorFlag bool) (report.Format, bool, error) {
	raw := rawFormat
	if raw == "" {
		raw = env.Config.Report.Format
	}
	format, err := report.ParseFormat(raw)
	if err != nil {
		return "", false, err
	}
	noColor := noColorFlag || !env.Config.Report.Color
	return format, noColor, nil
}

func effectiveParallelism(env *cliEnv) int {
	if runParallelism > 0 {
		return runParallelism
	}
	return env.Config.Runner.Parallelism
}

// recordHistory stores the run in the history database. History is best
// effort: a failure here is logged and never changes the exit code.
func recordHistory(env *cliEnv, run *runner.Run) {
	if !env.Config.History.Enabled {
		return
	}
	store, err := history.Open(workspace.HistoryPath(env.Workspace, env.Config))
	if err != nil {
		logger.Warn("History unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	if err := store.RecordRun(run); err != nil {
		logger.Warn("Failed to record run", zap.String("run_id", run.ID), zap.Error(err))
		return
	}
	if err := store.Prune(env.Config.History.Keep); err != nil {
		logger.Warn("Failed to prune history", zap.Error(err))
	}
}

func init() {
	runCmd.Flags().StringVar(&runFormat, "format", "", "Report format: documentation or json (default: from config)")
	runCmd.Flags().IntVar(&runParallelism, "parallelism", 0, "Max suites evaluated concurrently (default: from config)")
	runCmd.Flags().BoolVar(&runNoColor, "no-color", false, "Disable colored output")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "Stop scheduling new suites after the first failed suite")
}
