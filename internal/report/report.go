// Package report renders a completed run for humans (documentation
// format) or machines (json format).
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"matcha/internal/runner"
)

// Format selects a rendering style.
type Format string

const (
	// FormatDocumentation prints one line per case with pass/fail
	// glyphs, in the order the suites were given.
	FormatDocumentation Format = "documentation"
	// FormatJSON prints the run as a single JSON document.
	FormatJSON Format = "json"
)

// ParseFormat maps user input to a Format. The empty string selects
// the default documentation format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "documentation", "doc":
		return FormatDocumentation, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want documentation or json)", s)
	}
}

// Semantic colors, same values in light and dark terminals.
var (
	passColor  = lipgloss.Color("#8BC34A") // lime green
	failColor  = lipgloss.Color("#e53935") // red
	mutedColor = lipgloss.Color("#6e7b8b")
)

type styles struct {
	heading lipgloss.Style
	pass    lipgloss.Style
	fail    lipgloss.Style
	muted   lipgloss.Style
	summary lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{heading: plain, pass: plain, fail: plain, muted: plain, summary: plain}
	}
	return styles{
		heading: lipgloss.NewStyle().Bold(true),
		pass:    lipgloss.NewStyle().Foreground(passColor),
		fail:    lipgloss.NewStyle().Foreground(failColor).Bold(true),
		muted:   lipgloss.NewStyle().Foreground(mutedColor),
		summary: lipgloss.NewStyle().Bold(true),
	}
}

// Renderer writes a run to an io.Writer in the configured format.
type Renderer struct {
	Format  Format
	NoColor bool
}

// Render writes run to w.
func (r Renderer) Render(w io.Writer, run *runner.Run) error {
	if run == nil {
		return fmt.Errorf("report: nil run")
	}
	switch r.Format {
	case FormatJSON:
		return r.renderJSON(w, run)
	case FormatDocumentation, "":
		return r.renderDocumentation(w, run)
	default:
		return fmt.Errorf("unknown report format %q", r.Format)
	}
}

func (r Renderer) renderDocumentation(w io.Writer, run *runner.Run) error {
	st := newStyles(r.NoColor)

	for i, sr := range run.Suites {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		heading := st.heading.Render(sr.Suite)
		if sr.Path != "" {
			heading += " " + st.muted.Render("("+sr.Path+")")
		}
		if _, err := fmt.Fprintln(w, heading); err != nil {
			return err
		}
		for _, cr := range sr.Cases {
			if cr.Passed {
				if _, err := fmt.Fprintf(w, "  %s %s\n", st.pass.Render("✓"), cr.Name); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(w, "  %s %s\n", st.fail.Render("✗"), cr.Name); err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "      %s\n", st.fail.Render(cr.Message)); err != nil {
				return err
			}
		}
	}

	if len(run.Suites) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Finished in %s\n", formatDuration(run.Duration)); err != nil {
		return err
	}
	summary := fmt.Sprintf("%s, %s",
		pluralize(run.TotalCases, "example"), pluralize(run.Failures, "failure"))
	line := st.summary.Render(summary)
	if run.Failures > 0 {
		line = st.fail.Render(summary)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	return d.Round(time.Millisecond).String()
}
