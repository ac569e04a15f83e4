package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"matcha/internal/runner"
)

// JSON field names are the storage format for run history; changing
// them breaks reading previously recorded runs.

type runJSON struct {
	ID         string      `json:"id"`
	StartedAt  time.Time   `json:"started_at"`
	DurationMs int64       `json:"duration_ms"`
	TotalCases int         `json:"total_cases"`
	Failures   int         `json:"failures"`
	Suites     []suiteJSON `json:"suites"`
}

type suiteJSON struct {
	Suite      string     `json:"suite"`
	Path       string     `json:"path,omitempty"`
	DurationMs int64      `json:"duration_ms"`
	Failures   int        `json:"failures"`
	Cases      []caseJSON `json:"cases"`
}

type caseJSON struct {
	Name       string `json:"name"`
	Matcher    string `json:"matcher"`
	Passed     bool   `json:"passed"`
	Message    string `json:"message"`
	DurationMs int64  `json:"duration_ms"`
}

// MarshalRun encodes run as indented JSON with stable field names.
func MarshalRun(run *runner.Run) ([]byte, error) {
	if run == nil {
		return nil, fmt.Errorf("report: nil run")
	}
	doc := runJSON{
		ID:         run.ID,
		StartedAt:  run.StartedAt.UTC(),
		DurationMs: run.Duration.Milliseconds(),
		TotalCases: run.TotalCases,
		Failures:   run.Failures,
		Suites:     make([]suiteJSON, 0, len(run.Suites)),
	}
	for _, sr := range run.Suites {
		sj := suiteJSON{
			Suite:      sr.Suite,
			Path:       sr.Path,
			DurationMs: sr.Duration.Milliseconds(),
			Failures:   sr.Failures,
			Cases:      make([]caseJSON, 0, len(sr.Cases)),
		}
		for _, cr := range sr.Cases {
			sj.Cases = append(sj.Cases, caseJSON{
				Name:       cr.Name,
				Matcher:    cr.Matcher,
				Passed:     cr.Passed,
				Message:    cr.Message,
				DurationMs: cr.Duration.Milliseconds(),
			})
		}
		doc.Suites = append(doc.Suites, sj)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ParseRun decodes a JSON document produced by MarshalRun. History
// uses it to re-render stored runs.
func ParseRun(data []byte) (*runner.Run, error) {
	var doc runJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing stored run: %w", err)
	}
	run := &runner.Run{
		ID:         doc.ID,
		StartedAt:  doc.StartedAt,
		Duration:   time.Duration(doc.DurationMs) * time.Millisecond,
		TotalCases: doc.TotalCases,
		Failures:   doc.Failures,
	}
	for _, sj := range doc.Suites {
		sr := &runner.SuiteResult{
			Suite:    sj.Suite,
			Path:     sj.Path,
			Duration: time.Duration(sj.DurationMs) * time.Millisecond,
			Failures: sj.Failures,
		}
		for _, cj := range sj.Cases {
			sr.Cases = append(sr.Cases, runner.CaseResult{
				Name:     cj.Name,
				Matcher:  cj.Matcher,
				Passed:   cj.Passed,
				Message:  cj.Message,
				Duration: time.Duration(cj.DurationMs) * time.Millisecond,
			})
		}
		run.Suites = append(run.Suites, sr)
	}
	return run, nil
}

func (r Renderer) renderJSON(w io.Writer, run *runner.Run) error {
	data, err := MarshalRun(run)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
