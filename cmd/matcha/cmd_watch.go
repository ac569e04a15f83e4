// Package main implements the matcha CLI.
//
// This file provides the watch command: rerun suites when suite files or
// user matcher files change.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"matcha/internal/report"
	"matcha/internal/runner"
	"matcha/internal/watch"
	"matcha/internal/workspace"
)

var (
	watchFormat  string
	watchNoColor bool
)

// watchCmd reruns suites on file changes
var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Rerun suites when files change",
	Long: `Evaluates the suites once, then watches the suite paths and the
user matcher directory. Saves are debounced; each settled batch of
changes triggers a fresh registry build and a full rerun.

A failing rerun never stops the watcher; press Ctrl-C to stop.`,
	RunE: watchSuites,
}

func watchSuites(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	format, noColor, err := reportOptions(env, watchFormat, watchNoColor)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
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

	watchPaths := args
	if len(watchPaths) == 0 {
		watchPaths = []string{workspace.SuitesDir(env.Workspace, env.Config)}
	}

	rerun(ctx, env, args, format, noColor)

	// onChange runs on the watcher goroutine; hand the rerun to this
	// goroutine so sweeps are never blocked by evaluation.
	triggerCh := make(chan []string, 1)
	w, err := watch.New(watch.Options{
		Paths:      watchPaths,
		MatcherDir: workspace.MatchersDir(env.Workspace, env.Config),
		Debounce:   env.Config.GetDebounce(),
	}, func(changed []string) {
		select {
		case triggerCh <- changed:
		default:
			// A rerun is already pending; later changes fold into the next sweep
		}
	})
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()

	fmt.Printf("\nWatching %s (Ctrl-C to stop)\n", strings.Join(watchPaths, ", "))

	for {
		select {
		case <-ctx.Done():
			stats := w.GetStats()
			fmt.Printf("\nWatch stopped: %d event(s) seen, %d rerun(s) triggered\n",
				stats.EventsSeen, stats.RunsTriggered)
			return nil
		case changed := <-triggerCh:
			fmt.Printf("\nChanged: %s\n", strings.Join(changed, ", "))
			rerun(ctx, env, args, format, noColor)
		}
	}
}

// rerun builds a fresh registry and evaluates the suites once. Errors are
// reported but never stop the watch loop.
func rerun(ctx context.Context, env *cliEnv, args []string, format report.Format, noColor bool) {
	runCtx, cancel := context.WithTimeout(ctx, env.Config.GetRunTimeout())
	defer cancel()

	reg, _, err := buildRegistry(runCtx, env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "matcher load failed: %v\n", err)
		return
	}
	suites, err := loadSuites(env, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "suite load failed: %v\n", err)
		return
	}
	if len(suites) == 0 {
		fmt.Fprintln(os.Stderr, "no suites found")
		return
	}

	r := runner.New(reg, runner.WithParallelism(env.Config.Runner.Parallelism))
	run, err := r.Run(runCtx, suites)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		return
	}

	renderer := report.Renderer{Format: format, NoColor: noColor}
	if err := renderer.Render(os.Stdout, run); err != nil {
		logger.Warn("Failed to render report", zap.Error(err))
		return
	}
	recordHistory(env, run)
}

func init() {
	watchCmd.Flags().StringVar(&watchFormat, "format", "", "Report format: documentation or json (default: from config)")
	watchCmd.Flags().BoolVar(&watchNoColor, "no-color", false, "Disable colored output")
}
