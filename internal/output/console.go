package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"dockersentinel/internal/engine"
	"dockersentinel/internal/rules"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// ConsoleSink renders audit reports on stdout.
//
// Formats:
//   - json, yaml: aggregate reports; a single report is written as one
//     document, several as a list
//   - ndjson: streams Event values (one JSON object per line)
//   - text: human-readable, severities coloured
type ConsoleSink struct {
	writer  io.Writer
	format  string
	mu      sync.Mutex
	reports []engine.Report

	critical *color.Color
	high     *color.Color
	medium   *color.Color
	pass     *color.Color
	dim      *color.Color
}

func NewConsoleSink(w io.Writer, format string, noColor bool) (*ConsoleSink, error) {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "json"
	}
	switch format {
	case "json", "yaml", "ndjson", "text":
	default:
		return nil, fmt.Errorf("unsupported console format: %s", format)
	}

	s := &ConsoleSink{
		writer:   w,
		format:   format,
		critical: color.New(color.FgRed, color.Bold),
		high:     color.New(color.FgRed),
		medium:   color.New(color.FgYellow),
		pass:     color.New(color.FgGreen),
		dim:      color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{s.critical, s.high, s.medium, s.pass, s.dim} {
			c.DisableColor()
		}
	}
	return s, nil
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json", "yaml":
		r, ok := v.(engine.Report)
		if !ok {
			// Ignore lifecycle events in aggregate mode.
			return nil
		}
		s.reports = append(s.reports, r)
		return nil
	case "ndjson":
		encoder := json.NewEncoder(s.writer)
		switch t := v.(type) {
		case Event:
			if err := encoder.Encode(t); err != nil {
				return err
			}
		case engine.Report:
			if err := encoder.Encode(eventFromReport(t)); err != nil {
				return err
			}
		default:
			return nil
		}
		return flushIfPossible(s.writer)
	case "text":
		r, ok := v.(engine.Report)
		if !ok {
			return nil
		}
		if err := s.writeText(r); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) writeText(r engine.Report) error {
	printf := func(format string, args ...any) error {
		_, err := fmt.Fprintf(s.writer, format, args...)
		return err
	}

	name := r.File
	if name == "" {
		name = "<input>"
	}
	if r.Failed() {
		return printf("%s: %s %s\n", name, s.critical.Sprint("ERROR"), r.Message)
	}

	verdict := s.pass.Sprint("PASSED")
	if !r.Summary.Passed {
		verdict = s.high.Sprint("FAILED")
	}
	if err := printf("%s: %s (%d issues, %d recommendations)\n", name, verdict, r.Summary.TotalIssues, r.Summary.Recommendations); err != nil {
		return err
	}
	for _, f := range r.Issues {
		if err := s.writeFinding(f, ""); err != nil {
			return err
		}
	}
	for _, f := range r.Recommendations {
		if err := s.writeFinding(f, "recommendation "); err != nil {
			return err
		}
	}
	for _, f := range r.Suppressed {
		if err := printf("  %s %s %s\n", s.dim.Sprint("suppressed"), f.Code, s.dim.Sprint(f.Message)); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConsoleSink) writeFinding(f rules.Finding, prefix string) error {
	if _, err := fmt.Fprintf(s.writer, "  %s%-8s %-10s %s\n", prefix, s.severity(f.Severity), f.Code, f.Message); err != nil {
		return err
	}
	if f.Remediation != "" {
		if _, err := fmt.Fprintf(s.writer, "      %s %s\n", s.dim.Sprint("fix:"), f.Remediation); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConsoleSink) severity(sev rules.Severity) string {
	switch sev {
	case rules.SeverityCritical:
		return s.critical.Sprint(sev)
	case rules.SeverityHigh:
		return s.high.Sprint(sev)
	default:
		return s.medium.Sprint(sev)
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		encoder := json.NewEncoder(s.writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(s.aggregate()); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	case "yaml":
		encoder := yaml.NewEncoder(s.writer)
		encoder.SetIndent(2)
		if err := encoder.Encode(s.aggregate()); err != nil {
			return err
		}
		if err := encoder.Close(); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	}
	return nil
}

func (s *ConsoleSink) aggregate() any {
	if len(s.reports) == 1 {
		return s.reports[0]
	}
	if s.reports == nil {
		return []engine.Report{}
	}
	return s.reports
}
