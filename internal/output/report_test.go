package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dockersentinel/internal/engine"
	"dockersentinel/internal/rules"
)

func TestMarkdownReportContract(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "out", "sentinel-report.md")

	s, err := NewReportSink(reportPath)
	if err != nil {
		t.Fatalf("NewReportSink failed: %v", err)
	}

	s.Write(RunStarted(3, 20))
	s.Write(testReport("svc/Dockerfile",
		finding("CIS-4.1", rules.SeverityHigh, "runs as root"),
		finding("CIS-4.9", rules.SeverityCritical, "hardcoded secret"),
	))
	s.Write(withRecommendations(testReport("web/Dockerfile"),
		finding("BP-CACHE", rules.SeverityMedium, "clean apt cache")))
	s.Write(errorReport("gone/Dockerfile"))
	s.Write(RunFinished(3, engine.ExitOperational))

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	b, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	out := string(b)

	required := []string{
		"# Sentinel Audit Report",
		"## Summary",
		"exit code 2",
		"## Most Frequent Findings",
		"## Riskiest Files",
		"## Per-file status",
		"## Findings",
		"### svc/Dockerfile",
		"## Recommendations",
		"## Errors",
		"`gone/Dockerfile`",
	}
	for _, h := range required {
		if !strings.Contains(out, h) {
			t.Fatalf("report missing %q:\n%s", h, out)
		}
	}

	// The CRITICAL code ranks ahead of the HIGH one.
	if strings.Index(out, "| CIS-4.9 |") > strings.Index(out, "| CIS-4.1 |") {
		t.Fatalf("expected CIS-4.9 listed before CIS-4.1:\n%s", out)
	}
	// First fix is the most severe issue's remediation.
	if !strings.Contains(out, "| fix CIS-4.9 |") {
		t.Fatalf("expected first fix from the CRITICAL issue:\n%s", out)
	}
}

func TestMarkdownReport_ComputesExitCodeWithoutEvent(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "report.md")
	s, err := NewReportSink(reportPath)
	if err != nil {
		t.Fatal(err)
	}
	s.Write(testReport("Dockerfile", finding("CMD-PRIVILEGED", rules.SeverityCritical, "privileged")))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(reportPath)
	if !strings.Contains(string(b), "critical issues found (exit code 1)") {
		t.Fatalf("unexpected verdict:\n%s", b)
	}
}

func TestSARIFSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel.sarif")
	s, err := NewSARIFSink(path, "1.2.3")
	if err != nil {
		t.Fatalf("NewSARIFSink failed: %v", err)
	}
	s.Write(testReport("Dockerfile",
		finding("CIS-4.9", rules.SeverityCritical, "secret"),
		finding("CIS-4.9", rules.SeverityCritical, "secret again"),
		finding("BP-TAG", rules.SeverityMedium, "latest tag"),
	))
	s.Write(withRecommendations(testReport("compose.yml"), finding("BP-PORTS", rules.SeverityMedium, "ports")))
	s.Write(errorReport("missing"))
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var log sarifLog
	if err := json.Unmarshal(data, &log); err != nil {
		t.Fatalf("invalid SARIF JSON: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("unexpected log header %+v", log)
	}
	run := log.Runs[0]
	if run.Tool.Driver.Name != "sentinel" || run.Tool.Driver.Version != "1.2.3" {
		t.Fatalf("unexpected driver %+v", run.Tool.Driver)
	}
	if len(run.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(run.Results))
	}
	if len(run.Tool.Driver.Rules) != 3 {
		t.Fatalf("expected 3 distinct rules, got %d", len(run.Tool.Driver.Rules))
	}
	wantLevels := []string{"error", "error", "warning", "note"}
	for i, w := range wantLevels {
		if run.Results[i].Level != w {
			t.Fatalf("result %d level = %s, want %s", i, run.Results[i].Level, w)
		}
	}
	if run.Results[3].Locations[0].PhysicalLocation.ArtifactLocation.URI != "compose.yml" {
		t.Fatalf("unexpected location %+v", run.Results[3].Locations)
	}
}

func TestSARIFSink_HelpOnlyWithRemediation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentinel.sarif")
	s, err := NewSARIFSink(path, "dev")
	if err != nil {
		t.Fatal(err)
	}
	bare := finding("CUSTOM-1", rules.SeverityHigh, "custom rule")
	bare.Remediation = ""
	s.Write(testReport("Dockerfile", bare, finding("CIS-4.1", rules.SeverityCritical, "root")))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), `"help": {}`) || strings.Contains(string(data), `"help":{}`) {
		t.Fatalf("empty help message emitted:\n%s", data)
	}
	var log sarifLog
	if err := json.Unmarshal(data, &log); err != nil {
		t.Fatal(err)
	}
	driverRules := log.Runs[0].Tool.Driver.Rules
	if len(driverRules) != 2 || driverRules[0].Help != nil {
		t.Fatalf("rule without remediation must omit help: %+v", driverRules)
	}
	if driverRules[1].Help == nil || driverRules[1].Help.Text != "fix CIS-4.1" {
		t.Fatalf("rule with remediation must carry help: %+v", driverRules[1])
	}
}
