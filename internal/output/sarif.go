package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dockersentinel/internal/engine"
	"dockersentinel/internal/rules"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string        `json:"id"`
	ShortDescription sarifMessage  `json:"shortDescription"`
	Help             *sarifMessage `json:"help,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"` // error, warning, note
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

// SARIFSink writes every audit issue and recommendation as a SARIF 2.1.0 log
// on Close. Error reports and suppressed findings are left out.
type SARIFSink struct {
	path        string
	file        *os.File
	toolVersion string
	mu          sync.Mutex
	reports     []engine.Report
}

func NewSARIFSink(path, toolVersion string) (*SARIFSink, error) {
	if path == "" {
		return nil, fmt.Errorf("sarif path required")
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create sarif directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create sarif file: %w", err)
	}
	return &SARIFSink{path: path, file: f, toolVersion: toolVersion}, nil
}

func (s *SARIFSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := v.(engine.Report); ok {
		s.reports = append(s.reports, r)
	}
	return nil
}

func (s *SARIFSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoder := json.NewEncoder(s.file)
	encoder.SetIndent("", "  ")
	err := encoder.Encode(buildSARIF(s.reports, s.toolVersion))

	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func buildSARIF(reports []engine.Report, toolVersion string) sarifLog {
	results := []sarifResult{}
	var driverRules []sarifRule
	seen := make(map[string]bool)

	add := func(file string, f rules.Finding) {
		if !seen[f.Code] {
			seen[f.Code] = true
			rule := sarifRule{
				ID:               f.Code,
				ShortDescription: sarifMessage{Text: f.RuleID},
			}
			if f.Remediation != "" {
				rule.Help = &sarifMessage{Text: f.Remediation}
			}
			driverRules = append(driverRules, rule)
		}
		uri := filepath.ToSlash(file)
		if strings.TrimSpace(uri) == "" {
			uri = "UNKNOWN"
		}
		results = append(results, sarifResult{
			RuleID:  f.Code,
			Level:   sevToLevel(f.Severity),
			Message: sarifMessage{Text: strings.TrimSpace(f.Message)},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: uri},
				},
			}},
		})
	}

	for _, r := range reports {
		if r.Failed() {
			continue
		}
		for _, f := range r.Issues {
			add(r.File, f)
		}
		for _, f := range r.Recommendations {
			f.Severity = ""
			add(r.File, f)
		}
	}

	return sarifLog{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    "sentinel",
				Version: toolVersion,
				Rules:   driverRules,
			}},
			Results: results,
		}},
	}
}

// sevToLevel maps severities to SARIF levels; recommendations (no severity)
// become notes.
func sevToLevel(s rules.Severity) string {
	switch s {
	case rules.SeverityCritical, rules.SeverityHigh:
		return "error"
	case rules.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
