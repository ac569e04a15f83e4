// Package tui implements the interactive matcha browser: suites, matcher
// catalog, run history, and an in-place report view.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"matcha/cmd/matcha/ui"
	"matcha/internal/history"
	"matcha/internal/suite"
)

const historyPageSize = 20

// MatcherEntry is one row of the matcher catalog.
type MatcherEntry struct {
	Name   string
	Doc    string
	Source string
}

// Deps carries everything the browser needs from the CLI environment.
// The functions run on background goroutines via tea commands.
type Deps struct {
	Workspace string

	LoadSuites   func() ([]*suite.Suite, error)
	ListMatchers func(ctx context.Context) ([]MatcherEntry, error)
	ListRuns     func(limit int) ([]history.RunSummary, error)
	RunSuites    func(ctx context.Context, paths []string) (report string, failures int, err error)
	ShowRun      func(id string) (report string, failures int, err error)
}

type screen int

const (
	screenMenu screen = iota
	screenSuites
	screenMatchers
	screenHistory
	screenReport
)

// ===== LIST ITEMS =====

type menuItem struct {
	title string
	desc  string
}

func (m menuItem) Title() string       { return m.title }
func (m menuItem) Description() string { return m.desc }
func (m menuItem) FilterValue() string { return m.title }

type suiteItem struct {
	s *suite.Suite
}

func (it suiteItem) Title() string { return it.s.Name }
func (it suiteItem) Description() string {
	desc := it.s.Description
	if desc == "" {
		desc = it.s.Path
	}
	return fmt.Sprintf("%s (%d case(s))", desc, len(it.s.Cases))
}
func (it suiteItem) FilterValue() string { return it.s.Name }

type matcherItem struct {
	e MatcherEntry
}

func (it matcherItem) Title() string { return it.e.Name }
func (it matcherItem) Description() string {
	doc := it.e.Doc
	if i := strings.IndexByte(doc, '\n'); i >= 0 {
		doc = doc[:i]
	}
	if doc == "" {
		doc = "no documentation"
	}
	return fmt.Sprintf("[%s] %s", it.e.Source, doc)
}
func (it matcherItem) FilterValue() string { return it.e.Name }

type historyItem struct {
	r history.RunSummary
}

func (it historyItem) Title() string {
	glyph := "✓"
	if it.r.Failures > 0 {
		glyph = "✗"
	}
	return fmt.Sprintf("%s %s", glyph, it.r.ID)
}
func (it historyItem) Description() string {
	return fmt.Sprintf("%s · %d suite(s), %d case(s), %d failure(s)",
		it.r.StartedAt.Local().Format("2006-01-02 15:04:05"),
		it.r.Suites, it.r.Cases, it.r.Failures)
}
func (it historyItem) FilterValue() string { return it.r.ID }

// ===== MODEL =====

type model struct {
	styles ui.Styles
	deps   Deps

	scr      screen
	menu     list.Model
	suites   list.Model
	matchers list.Model
	hist     list.Model

	report      viewport.Model
	reportTitle string
	reportFail  int

	running bool
	err     error

	width  int
	height int
}

// Run starts the interactive browser and blocks until it exits.
func Run(deps Deps) error {
	m := newModel(deps)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel(deps Deps) model {
	items := []list.Item{
		menuItem{"Run all suites", "Evaluate every suite and show the report"},
		menuItem{"Suites", "Browse suites; enter evaluates one"},
		menuItem{"Matchers", "Builtin and user matcher catalog"},
		menuItem{"History", "Recent recorded runs; enter re-renders one"},
		menuItem{"Quit", "Exit matcha"},
	}

	menu := newList("matcha", items)
	suites := newList("Suites", nil)
	matchers := newList("Matchers", nil)
	hist := newList("History", nil)

	return model{
		styles:   ui.DefaultStyles(),
		deps:     deps,
		scr:      screenMenu,
		menu:     menu,
		suites:   suites,
		matchers: matchers,
		hist:     hist,
		report:   viewport.New(80, 20),
	}
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	return l
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		listW, listH := msg.Width-4, msg.Height-10
		m.menu.SetSize(listW, listH)
		m.suites.SetSize(listW, listH)
		m.matchers.SetSize(listW, listH)
		m.hist.SetSize(listW, listH)
		m.report.Width = msg.Width - 4
		m.report.Height = msg.Height - 8
		return m, nil

	case suitesLoadedMsg:
		m.running = false
		m.err = msg.err
		if msg.err == nil {
			items := make([]list.Item, 0, len(msg.suites))
			for _, s := range msg.suites {
				items = append(items, suiteItem{s: s})
			}
			m.suites.SetItems(items)
		}
		return m, nil

	case matchersLoadedMsg:
		m.running = false
		m.err = msg.err
		if msg.err == nil {
			items := make([]list.Item, 0, len(msg.entries))
			for _, e := range msg.entries {
				items = append(items, matcherItem{e: e})
			}
			m.matchers.SetItems(items)
		}
		return m, nil

	case historyLoadedMsg:
		m.running = false
		m.err = msg.err
		if msg.err == nil {
			items := make([]list.Item, 0, len(msg.runs))
			for _, r := range msg.runs {
				items = append(items, historyItem{r: r})
			}
			m.hist.SetItems(items)
		}
		return m, nil

	case runDoneMsg:
		m.running = false
		m.err = msg.err
		if msg.err == nil {
			m.reportTitle = msg.title
			m.reportFail = msg.failures
			m.report.SetContent(msg.report)
			m.report.GotoTop()
			m.scr = screenReport
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if handled, next, cmd := m.handleKey(msg); handled {
			return next, cmd
		}
	}

	return m.delegate(msg)
}

// handleKey processes navigation keys. Unhandled keys fall through to the
// active component so list filtering and viewport scrolling keep working.
func (m model) handleKey(msg tea.KeyMsg) (bool, model, tea.Cmd) {
	// Filtering owns the keyboard while active
	if m.activeList() != nil && m.activeList().FilterState() == list.Filtering {
		return false, m, nil
	}

	switch msg.String() {
	case "q":
		if m.scr == screenMenu {
			return true, m, tea.Quit
		}
		m.scr = screenMenu
		m.err = nil
		return true, m, nil

	case "esc", "b":
		if m.scr != screenMenu {
			m.scr = screenMenu
			m.err = nil
			return true, m, nil
		}

	case "enter":
		return m.handleEnter()
	}

	return false, m, nil
}

func (m model) handleEnter() (bool, model, tea.Cmd) {
	switch m.scr {
	case screenMenu:
		it, ok := m.menu.SelectedItem().(menuItem)
		if !ok {
			return true, m, nil
		}
		switch it.title {
		case "Run all suites":
			m.running = true
			m.err = nil
			return true, m, cmdRunSuites(m.deps, "all suites", nil)
		case "Suites":
			m.scr = screenSuites
			m.running = true
			m.err = nil
			return true, m, cmdLoadSuites(m.deps)
		case "Matchers":
			m.scr = screenMatchers
			m.running = true
			m.err = nil
			return true, m, cmdLoadMatchers(m.deps)
		case "History":
			m.scr = screenHistory
			m.running = true
			m.err = nil
			return true, m, cmdLoadHistory(m.deps)
		case "Quit":
			return true, m, tea.Quit
		}
		return true, m, nil

	case screenSuites:
		it, ok := m.suites.SelectedItem().(suiteItem)
		if !ok {
			return true, m, nil
		}
		m.running = true
		m.err = nil
		return true, m, cmdRunSuites(m.deps, it.s.Name, []string{it.s.Path})

	case screenHistory:
		it, ok := m.hist.SelectedItem().(historyItem)
		if !ok {
			return true, m, nil
		}
		m.running = true
		m.err = nil
		return true, m, cmdShowRun(m.deps, it.r.ID)
	}

	return false, m, nil
}

// delegate routes a message to whichever component owns the active screen.
func (m model) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.scr {
	case screenMenu:
		m.menu, cmd = m.menu.Update(msg)
	case screenSuites:
		m.suites, cmd = m.suites.Update(msg)
	case screenMatchers:
		m.matchers, cmd = m.matchers.Update(msg)
	case screenHistory:
		m.hist, cmd = m.hist.Update(msg)
	case screenReport:
		m.report, cmd = m.report.Update(msg)
	}
	return m, cmd
}

func (m model) activeList() *list.Model {
	switch m.scr {
	case screenMenu:
		return &m.menu
	case screenSuites:
		return &m.suites
	case screenMatchers:
		return &m.matchers
	case screenHistory:
		return &m.hist
	}
	return nil
}

// ===== VIEW =====

func (m model) View() string {
	header := m.styles.Title.Render("matcha") + "\n" +
		m.styles.Muted.Render("workspace: "+m.deps.Workspace)

	var status string
	switch {
	case m.running:
		status = m.styles.Info.Render("Working...")
	case m.err != nil:
		status = m.styles.Fail.Render("Error: " + m.err.Error())
	}

	var body, help string
	switch m.scr {
	case screenMenu:
		body = m.menu.View()
		help = "↑/↓ navigate · enter open · / filter · q quit"
	case screenSuites:
		body = m.suites.View()
		help = "enter run suite · / filter · esc back"
	case screenMatchers:
		body = m.matchers.View()
		help = "/ filter · esc back"
	case screenHistory:
		body = m.hist.View()
		help = "enter show run · / filter · esc back"
	case screenReport:
		badge := m.styles.Pass.Render("PASSED")
		if m.reportFail > 0 {
			badge = m.styles.Fail.Render(fmt.Sprintf("FAILED (%d)", m.reportFail))
		}
		body = m.styles.Bold.Render(m.reportTitle) + " " + badge + "\n\n" + m.report.View()
		help = "↑/↓ scroll · esc back · q menu"
	}

	parts := []string{header}
	if status != "" {
		parts = append(parts, status)
	}
	parts = append(parts, body, m.styles.Footer.Render(help))
	return m.styles.Content.Render(strings.Join(parts, "\n\n"))
}
