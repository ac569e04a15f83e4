// Package main implements the matcha CLI.
//
// This file provides the history commands: listing recorded runs and
// re-rendering a stored run.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"matcha/internal/history"
	"matcha/internal/report"
	"matcha/internal/workspace"
)

var (
	historyLimit      int
	historyShowFormat string
)

// historyCmd is the parent command for run history operations
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long: `Shows the most recent runs recorded in the workspace history
database, newest first.

Examples:
  matcha history             # last 20 runs
  matcha history --limit 5
  matcha history show <id>   # re-render one run`,
	RunE: listHistory,
}

// historyShowCmd re-renders a stored run
var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Re-render a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  showHistoryRun,
}

func listHistory(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	store, err := openHistory(env)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	fmt.Printf("%-38s %-20s %7s %7s %9s %10s\n", "RUN", "STARTED", "SUITES", "CASES", "FAILURES", "DURATION")
	for _, r := range runs {
		status := "✓"
		if r.Failures > 0 {
			status = "✗"
		}
		fmt.Printf("%s %-36s %-20s %7d %7d %9d %10s\n",
			status, r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Suites, r.Cases, r.Failures, r.Duration.Round(time.Millisecond))
	}
	return nil
}

func showHistoryRun(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	defer env.Close()

	store, err := openHistory(env)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.GetRun(args[0])
	if err != nil {
		return err
	}

	raw := historyShowFormat
	if raw == "" {
		raw = env.Config.Report.Format
	}
	format, err := report.ParseFormat(raw)
	if err != nil {
		return err
	}

	renderer := report.Renderer{Format: format, NoColor: !env.Config.Report.Color}
	return renderer.Render(os.Stdout, run)
}

func openHistory(env *cliEnv) (*history.Store, error) {
	if !env.Config.History.Enabled {
		return nil, fmt.Errorf("history is disabled (set history.enabled: true in %s)", workspace.Dir(env.Workspace))
	}
	store, err := history.Open(workspace.HistoryPath(env.Workspace, env.Config))
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return store, nil
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Max runs to list")
	historyShowCmd.Flags().StringVar(&historyShowFormat, "format", "", "Report format: documentation or json (default: from config)")

	historyCmd.AddCommand(historyShowCmd)
}
