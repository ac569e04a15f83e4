package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

func cmdLoadSuites(deps Deps) tea.Cmd {
	return func() tea.Msg {
		if deps.LoadSuites == nil {
			return suitesLoadedMsg{err: errors.New("LoadSuites is nil")}
		}
		suites, err := deps.LoadSuites()
		return suitesLoadedMsg{suites: suites, err: err}
	}
}

func cmdLoadMatchers(deps Deps) tea.Cmd {
	return func() tea.Msg {
		if deps.ListMatchers == nil {
			return matchersLoadedMsg{err: errors.New("ListMatchers is nil")}
		}
		entries, err := deps.ListMatchers(context.Background())
		return matchersLoadedMsg{entries: entries, err: err}
	}
}

func cmdLoadHistory(deps Deps) tea.Cmd {
	return func() tea.Msg {
		if deps.ListRuns == nil {
			return historyLoadedMsg{err: errors.New("ListRuns is nil")}
		}
		runs, err := deps.ListRuns(historyPageSize)
		return historyLoadedMsg{runs: runs, err: err}
	}
}

// cmdRunSuites evaluates the given suite paths (all suites when paths is
// empty) and carries back the rendered documentation report.
func cmdRunSuites(deps Deps, title string, paths []string) tea.Cmd {
	return func() tea.Msg {
		if deps.RunSuites == nil {
			return runDoneMsg{title: title, err: errors.New("RunSuites is nil")}
		}
		report, failures, err := deps.RunSuites(context.Background(), paths)
		return runDoneMsg{title: title, report: report, failures: failures, err: err}
	}
}

func cmdShowRun(deps Deps, id string) tea.Cmd {
	return func() tea.Msg {
		if deps.ShowRun == nil {
			return runDoneMsg{title: id, err: errors.New("ShowRun is nil")}
		}
		report, failures, err := deps.ShowRun(id)
		return runDoneMsg{title: "run " + id, report: report, failures: failures, err: err}
	}
}
