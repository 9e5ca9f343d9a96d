package engine

import (
	"reflect"
	"strings"
	"testing"

	"dockersentinel/internal/rules"
	"dockersentinel/internal/rules/checks"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(checks.Default(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func codes(fs []rules.Finding) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Code)
	}
	return out
}

func TestNew_RequiresCatalog(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatalf("expected error for nil catalog")
	}
}

func TestEngine_EvaluateUsesInjectedCatalog(t *testing.T) {
	catalog := rules.MustCatalog(
		rules.Rule{ID: "second", Code: "B", Kind: rules.KindCommand, Severity: rules.SeverityHigh, Matcher: rules.Contains("x"), Message: "b"},
		rules.Rule{ID: "first", Code: "A", Kind: rules.KindCommand, Severity: rules.SeverityMedium, Matcher: rules.Contains("x"), Message: "a"},
		rules.Rule{ID: "advice", Code: "R", Kind: rules.KindCommand, Severity: rules.SeverityMedium, Advisory: true, Matcher: rules.Contains("x"), Message: "r"},
		rules.Rule{ID: "other-kind", Code: "D", Kind: rules.KindDockerfile, Severity: rules.SeverityHigh, Matcher: rules.Contains("x"), Message: "d"},
	)
	e, err := New(catalog)
	if err != nil {
		t.Fatal(err)
	}

	f := e.Evaluate(rules.KindCommand, "x")
	if !reflect.DeepEqual(codes(f.Issues), []string{"B", "A"}) {
		t.Fatalf("issues must follow catalog order, got %v", codes(f.Issues))
	}
	if !reflect.DeepEqual(codes(f.Recommendations), []string{"R"}) {
		t.Fatalf("recommendations = %v", codes(f.Recommendations))
	}
	if e.Catalog() != catalog {
		t.Fatalf("Catalog must return the injected catalog")
	}
}

func TestEngine_EvaluateNeverNil(t *testing.T) {
	f := newTestEngine(t).Evaluate(rules.KindCommand, "ls")
	if f.Issues == nil || f.Recommendations == nil {
		t.Fatalf("empty findings must be non-nil slices")
	}
}

func TestEngine_Gate(t *testing.T) {
	e := newTestEngine(t)

	if d := e.Gate(rules.KindCommand, "docker ps"); !d.Allowed() || d.Reason != "" {
		t.Fatalf("clean command: %+v", d)
	}

	d := e.Gate(rules.KindCommand, "docker run --privileged --network=host x")
	if d.Allowed() {
		t.Fatalf("expected reject")
	}
	lines := strings.Split(d.Reason, "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "CMD-PRIVILEGED") || !strings.Contains(lines[1], "CMD-HOST-NET") {
		t.Fatalf("reason must list issues in evaluation order, got %q", d.Reason)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	text := "FROM node:latest\nADD a /a\nENV API_KEY=x\nRUN apt-get install -y gcc\n"
	first := e.Audit("Dockerfile", rules.KindDockerfile, text)
	for i := 0; i < 3; i++ {
		if again := e.Audit("Dockerfile", rules.KindDockerfile, text); !reflect.DeepEqual(first, again) {
			t.Fatalf("audit is not deterministic:\n%+v\n%+v", first, again)
		}
	}
}

func TestEngine_Monotonic(t *testing.T) {
	e := newTestEngine(t)
	base := "FROM alpine:3.20\nUSER app\nHEALTHCHECK CMD true\n"
	additions := []string{
		"RUN apk add sudo\n",
		"ENV DB_PASSWORD=secret\n",
		"ADD https://example.com/x /x\n",
		"USER root\n",
	}

	before := e.Audit("Dockerfile", rules.KindDockerfile, base).Summary.TotalIssues
	text := base
	for _, add := range additions {
		text += add
		after := e.Audit("Dockerfile", rules.KindDockerfile, text).Summary.TotalIssues
		if after < before {
			t.Fatalf("adding %q reduced issues from %d to %d", add, before, after)
		}
		before = after
	}
}

func TestEngine_AuditReport(t *testing.T) {
	e := newTestEngine(t)
	r := e.Audit("svc/Dockerfile", rules.KindDockerfile, "FROM alpine:3.20\nUSER root\nRUN apt-get install -y gcc\n")

	if r.Status != StatusSuccess || r.File != "svc/Dockerfile" || r.Kind != rules.KindDockerfile {
		t.Fatalf("unexpected report header %+v", r)
	}
	want := Summary{TotalIssues: 3, Critical: 2, Medium: 1, Recommendations: 2, Passed: false}
	if *r.Summary != want {
		t.Fatalf("summary = %+v, want %+v", *r.Summary, want)
	}
	if !r.HasCritical() || r.Failed() {
		t.Fatalf("HasCritical/Failed mismatch")
	}
}

func TestEngine_RecommendationsDoNotFail(t *testing.T) {
	e := newTestEngine(t)
	r := e.Audit("compose.yml", rules.KindCompose, "services:\n  a:\n    ports:\n      - \"80:80\"\n    security_opt: [no-new-privileges:true]\n")
	if !r.Summary.Passed || r.Summary.Recommendations != 1 {
		t.Fatalf("unexpected summary %+v", *r.Summary)
	}
}

func TestEngine_AllowListSuppressesAuditOnly(t *testing.T) {
	allow, err := rules.NewAllowList(map[string][]string{"CIS-4.1": {"legacy/**"}})
	if err != nil {
		t.Fatal(err)
	}
	e := newTestEngine(t, WithAllowList(allow))
	text := "FROM alpine:3.20\nHEALTHCHECK CMD true\n"

	r := e.Audit("legacy/Dockerfile", rules.KindDockerfile, text)
	if !r.Summary.Passed || !reflect.DeepEqual(codes(r.Suppressed), []string{"CIS-4.1"}) {
		t.Fatalf("expected CIS-4.1 suppressed, got issues=%v suppressed=%v", codes(r.Issues), codes(r.Suppressed))
	}

	other := e.Audit("svc/Dockerfile", rules.KindDockerfile, text)
	if other.Summary.Passed || len(other.Suppressed) != 0 {
		t.Fatalf("allowlist must not apply outside its patterns: %+v", other)
	}

	if d := e.Gate(rules.KindDockerfile, text); d.Allowed() {
		t.Fatalf("the gate ignores the allowlist")
	}
}
