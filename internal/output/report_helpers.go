package output

import (
	"sort"
	"strings"

	"dockersentinel/internal/engine"
	"dockersentinel/internal/rules"
)

type fileStats struct {
	File            string
	Kind            rules.Kind
	Error           string
	Issues          int
	Critical        int
	High            int
	Medium          int
	Recommendations int
	Suppressed      int
	findings        []rules.Finding
}

func (fs *fileStats) Status() string {
	switch {
	case fs.Error != "":
		return "ERROR"
	case fs.Issues > 0:
		return "FAIL"
	default:
		return "PASS"
	}
}

// FirstFix is the remediation of the most severe issue.
func (fs *fileStats) FirstFix() string {
	var best *rules.Finding
	for i := range fs.findings {
		f := &fs.findings[i]
		if best == nil || f.Severity.Rank() < best.Severity.Rank() {
			best = f
		}
	}
	if best == nil {
		return ""
	}
	if best.Remediation != "" {
		return best.Remediation
	}
	return best.Message
}

func computeFileStats(reports []engine.Report) []*fileStats {
	out := make([]*fileStats, 0, len(reports))
	for _, r := range reports {
		fs := &fileStats{File: r.File, Kind: r.Kind}
		if r.Failed() {
			fs.Error = r.Message
			out = append(out, fs)
			continue
		}
		fs.findings = r.Issues
		fs.Recommendations = len(r.Recommendations)
		fs.Suppressed = len(r.Suppressed)
		if r.Summary != nil {
			fs.Issues = r.Summary.TotalIssues
			fs.Critical = r.Summary.Critical
			fs.High = r.Summary.High
			fs.Medium = r.Summary.Medium
		}
		out = append(out, fs)
	}
	return out
}

type totals struct {
	Passed, Failed, Errors int
	Critical, High, Medium int
	Recommendations        int
	Suppressed             int
}

func computeTotals(stats []*fileStats) totals {
	var t totals
	for _, fs := range stats {
		switch fs.Status() {
		case "ERROR":
			t.Errors++
		case "FAIL":
			t.Failed++
		default:
			t.Passed++
		}
		t.Critical += fs.Critical
		t.High += fs.High
		t.Medium += fs.Medium
		t.Recommendations += fs.Recommendations
		t.Suppressed += fs.Suppressed
	}
	return t
}

type codeStat struct {
	Code     string
	Severity rules.Severity
	Count    int
	Files    int
}

// topCodes ranks finding codes by severity, then occurrences, then code.
func topCodes(reports []engine.Report, limit int) []codeStat {
	byCode := make(map[string]*codeStat)
	for _, r := range reports {
		seen := make(map[string]bool)
		for _, f := range r.Issues {
			cs, ok := byCode[f.Code]
			if !ok {
				cs = &codeStat{Code: f.Code, Severity: f.Severity}
				byCode[f.Code] = cs
			}
			if f.Severity.Rank() < cs.Severity.Rank() {
				cs.Severity = f.Severity
			}
			cs.Count++
			if !seen[f.Code] {
				seen[f.Code] = true
				cs.Files++
			}
		}
	}

	out := make([]codeStat, 0, len(byCode))
	for _, cs := range byCode {
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() < out[j].Severity.Rank()
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Code < out[j].Code
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// riskiestFiles returns files with issues, worst first.
func riskiestFiles(stats []*fileStats, limit int) []*fileStats {
	var out []*fileStats
	for _, fs := range stats {
		if fs.Issues > 0 {
			out = append(out, fs)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Critical != b.Critical {
			return a.Critical > b.Critical
		}
		if a.High != b.High {
			return a.High > b.High
		}
		if a.Medium != b.Medium {
			return a.Medium > b.Medium
		}
		return a.File < b.File
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
