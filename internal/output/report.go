package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dockersentinel/internal/engine"
	"dockersentinel/internal/rules"
)

// ReportSink writes a Markdown audit report on Close.
type ReportSink struct {
	path         string
	file         *os.File
	mu           sync.Mutex
	reports      []engine.Report
	exitCode     int
	haveExitCode bool
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}

	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case engine.Report:
		s.reports = append(s.reports, t)
	case Event:
		if t.Type == EventRunFinished && t.ExitCode != nil {
			s.exitCode = *t.ExitCode
			s.haveExitCode = true
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeErr := func(err error) error {
		_ = s.file.Close()
		return err
	}

	if !s.haveExitCode {
		s.exitCode = engine.ExitCode(s.reports...)
	}

	stats := computeFileStats(s.reports)
	totals := computeTotals(stats)

	var b strings.Builder
	b.WriteString("# Sentinel Audit Report\n\n")

	// --- Summary ---
	b.WriteString("## Summary\n\n")
	b.WriteString("| Files | Passed | Failed | Errors | Critical | High | Medium | Recommendations | Suppressed |\n")
	b.WriteString("| ---: | ---: | ---: | ---: | ---: | ---: | ---: | ---: | ---: |\n")
	b.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d | %d | %d | %d | %d |\n\n",
		len(stats), totals.Passed, totals.Failed, totals.Errors,
		totals.Critical, totals.High, totals.Medium, totals.Recommendations, totals.Suppressed))
	b.WriteString(fmt.Sprintf("**Verdict:** %s (exit code %d)\n\n", verdictText(s.exitCode), s.exitCode))

	// --- Most frequent rules ---
	b.WriteString("## Most Frequent Findings\n\n")
	top := topCodes(s.reports, 5)
	if len(top) == 0 {
		b.WriteString("No findings.\n\n")
	} else {
		b.WriteString("| Code | Severity | Occurrences | Files |\n")
		b.WriteString("| --- | --- | ---: | ---: |\n")
		for _, c := range top {
			b.WriteString(fmt.Sprintf("| %s | %s | %d | %d |\n", c.Code, c.Severity, c.Count, c.Files))
		}
		b.WriteString("\n")
	}

	// --- Riskiest files ---
	b.WriteString("## Riskiest Files\n\n")
	riskiest := riskiestFiles(stats, 5)
	if len(riskiest) == 0 {
		b.WriteString("No risky files found.\n\n")
	} else {
		b.WriteString("| File | CRITICAL | HIGH | MEDIUM | First Fix |\n")
		b.WriteString("| --- | ---: | ---: | ---: | --- |\n")
		for _, fs := range riskiest {
			b.WriteString(fmt.Sprintf("| %s | %d | %d | %d | %s |\n",
				escapeCell(fs.File), fs.Critical, fs.High, fs.Medium, escapeCell(fs.FirstFix())))
		}
		b.WriteString("\n")
	}

	// --- Per-file status ---
	b.WriteString("## Per-file status\n\n")
	if len(stats) == 0 {
		b.WriteString("No files audited.\n\n")
	} else {
		b.WriteString("| File | Kind | Status | Issues | Recommendations |\n")
		b.WriteString("| --- | --- | --- | ---: | ---: |\n")
		for _, fs := range stats {
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %d |\n",
				escapeCell(fs.File), fs.Kind, fs.Status(), fs.Issues, fs.Recommendations))
		}
		b.WriteString("\n")
	}

	// --- Findings ---
	b.WriteString("## Findings\n\n")
	anyFindings := false
	for _, r := range s.reports {
		if r.Failed() || len(r.Issues) == 0 {
			continue
		}
		anyFindings = true
		b.WriteString(fmt.Sprintf("### %s\n\n", r.File))
		writeFindingList(&b, r.Issues)
	}
	if !anyFindings {
		b.WriteString("No issues found.\n\n")
	}

	// --- Recommendations ---
	var recs []rules.Finding
	for _, r := range s.reports {
		recs = append(recs, r.Recommendations...)
	}
	if len(recs) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, r := range s.reports {
			if len(r.Recommendations) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("### %s\n\n", r.File))
			writeFindingList(&b, r.Recommendations)
		}
	}

	// --- Suppressed ---
	if totals.Suppressed > 0 {
		b.WriteString("## Suppressed by allowlist\n\n")
		for _, r := range s.reports {
			for _, f := range r.Suppressed {
				b.WriteString(fmt.Sprintf("- `%s` %s: %s\n", r.File, f.Code, f.Message))
			}
		}
		b.WriteString("\n")
	}

	// --- Errors ---
	if totals.Errors > 0 {
		b.WriteString("## Errors\n\n")
		for _, r := range s.reports {
			if r.Failed() {
				b.WriteString(fmt.Sprintf("- `%s`: %s\n", r.File, r.Message))
			}
		}
		b.WriteString("\n")
	}

	if _, err := s.file.WriteString(b.String()); err != nil {
		return writeErr(err)
	}
	return s.file.Close()
}

func writeFindingList(b *strings.Builder, fs []rules.Finding) {
	for _, f := range fs {
		b.WriteString(fmt.Sprintf("- **%s** `%s` %s\n", f.Severity, f.Code, f.Message))
		if f.Remediation != "" {
			b.WriteString(fmt.Sprintf("  - Fix: %s\n", f.Remediation))
		}
	}
	b.WriteString("\n")
}

func verdictText(exitCode int) string {
	switch exitCode {
	case engine.ExitOK:
		return "no critical issues"
	case engine.ExitCritical:
		return "critical issues found"
	default:
		return "operational error"
	}
}
