package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dockersentinel/internal/rules"
)

func success(critical int) Report {
	s := Summary{Critical: critical, TotalIssues: critical, Passed: critical == 0}
	return Report{Status: StatusSuccess, Summary: &s}
}

func TestExitCode(t *testing.T) {
	failed := ErrorReport("x", errors.New("boom"))
	tests := []struct {
		name    string
		reports []Report
		want    int
	}{
		{name: "no reports", want: ExitOK},
		{name: "clean", reports: []Report{success(0), success(0)}, want: ExitOK},
		{name: "critical", reports: []Report{success(0), success(2)}, want: ExitCritical},
		{name: "operational beats critical", reports: []Report{success(1), failed}, want: ExitOperational},
		{name: "operational alone", reports: []Report{failed}, want: ExitOperational},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.reports...); got != tt.want {
				t.Fatalf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		path string
		want rules.Kind
	}{
		{path: "Dockerfile", want: rules.KindDockerfile},
		{path: "build/api.Dockerfile", want: rules.KindDockerfile},
		{path: "docker-compose.yml", want: rules.KindCompose},
		{path: "deploy/Compose.override.json", want: rules.KindCompose},
		{path: "stack.yaml", want: rules.KindCompose},
		{path: "stack.yml", want: rules.KindCompose},
		{path: "Containerfile", want: rules.KindDockerfile},
	}
	for _, tt := range tests {
		if got := DetectKind(tt.path); got != tt.want {
			t.Errorf("DetectKind(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestAuditFile(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()

	compose := filepath.Join(dir, "docker-compose.yml")
	if err := os.WriteFile(compose, []byte("services:\n  a:\n    privileged: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	r := e.AuditFile(context.Background(), compose, "")
	if r.Failed() || r.Kind != rules.KindCompose || r.Summary.Critical != 1 {
		t.Fatalf("unexpected report %+v", r)
	}

	forced := e.AuditFile(context.Background(), compose, rules.KindDockerfile)
	if forced.Kind != rules.KindDockerfile {
		t.Fatalf("explicit kind must win over detection, got %s", forced.Kind)
	}
}

func TestAuditFile_ReadErrors(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()

	missing := filepath.Join(dir, "Dockerfile")
	r := e.AuditFile(context.Background(), missing, "")
	if !r.Failed() || r.Summary != nil || len(r.Issues) != 0 {
		t.Fatalf("a missing file must be an error report, got %+v", r)
	}
	if r.Message != "file not found: "+missing {
		t.Fatalf("message = %q", r.Message)
	}

	r = e.AuditFile(context.Background(), dir, "")
	if !r.Failed() || !strings.HasPrefix(r.Message, "read "+dir) {
		t.Fatalf("a directory must be an error report, got %+v", r)
	}
	if ExitCode(r) != ExitOperational {
		t.Fatalf("read errors are operational")
	}
}

func TestReadError_Unwrap(t *testing.T) {
	err := &ReadError{Path: "x", Err: os.ErrNotExist}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadError must unwrap")
	}
}
