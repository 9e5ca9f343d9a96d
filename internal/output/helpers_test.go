package output

import (
	"errors"

	"dockersentinel/internal/engine"
	"dockersentinel/internal/rules"
)

func finding(code string, sev rules.Severity, msg string) rules.Finding {
	return rules.Finding{RuleID: code, Code: code, Severity: sev, Message: msg, Remediation: "fix " + code}
}

func testReport(file string, issues ...rules.Finding) engine.Report {
	if issues == nil {
		issues = []rules.Finding{}
	}
	summary := engine.BuildSummary(issues, nil)
	return engine.Report{
		Status:          engine.StatusSuccess,
		File:            file,
		Kind:            rules.KindDockerfile,
		Issues:          issues,
		Recommendations: []rules.Finding{},
		Summary:         &summary,
	}
}

func withRecommendations(r engine.Report, recs ...rules.Finding) engine.Report {
	r.Recommendations = recs
	summary := engine.BuildSummary(r.Issues, recs)
	r.Summary = &summary
	return r
}

func errorReport(file string) engine.Report {
	return engine.ErrorReport(file, &engine.ReadError{Path: file, Err: errors.New("permission denied")})
}
