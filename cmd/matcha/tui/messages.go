package tui

import (
	"matcha/internal/history"
	"matcha/internal/suite"
)

type suitesLoadedMsg struct {
	suites []*suite.Suite
	err    error
}

type matchersLoadedMsg struct {
	entries []MatcherEntry
	err     error
}

type historyLoadedMsg struct {
	runs []history.RunSummary
	err  error
}

type runDoneMsg struct {
	title    string
	report   string
	failures int
	err      error
}
