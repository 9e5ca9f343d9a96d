package engine

import (
	"encoding/json"
	"strings"

	"dockersentinel/internal/rules"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Summary struct {
	TotalIssues     int  `json:"total_issues" yaml:"total_issues"`
	Critical        int  `json:"critical" yaml:"critical"`
	High            int  `json:"high" yaml:"high"`
	Medium          int  `json:"medium" yaml:"medium"`
	Recommendations int  `json:"recommendations" yaml:"recommendations"`
	Passed          bool `json:"passed" yaml:"passed"`
}

// BuildSummary counts issues by severity. Recommendations never affect Passed.
func BuildSummary(issues, recommendations []rules.Finding) Summary {
	s := Summary{
		TotalIssues:     len(issues),
		Recommendations: len(recommendations),
		Passed:          len(issues) == 0,
	}
	for _, f := range issues {
		switch f.Severity {
		case rules.SeverityCritical:
			s.Critical++
		case rules.SeverityHigh:
			s.High++
		case rules.SeverityMedium:
			s.Medium++
		}
	}
	return s
}

// Report is the audit verdict for one artifact.
type Report struct {
	Status          string          `json:"status" yaml:"status"`
	File            string          `json:"file,omitempty" yaml:"file,omitempty"`
	Kind            rules.Kind      `json:"kind,omitempty" yaml:"kind,omitempty"`
	Message         string          `json:"message,omitempty" yaml:"message,omitempty"`
	Issues          []rules.Finding `json:"issues" yaml:"issues"`
	Recommendations []rules.Finding `json:"recommendations" yaml:"recommendations"`
	Suppressed      []rules.Finding `json:"suppressed,omitempty" yaml:"suppressed,omitempty"`
	Summary         *Summary        `json:"summary,omitempty" yaml:"summary,omitempty"`
}

type errorReport struct {
	Status  string `json:"status" yaml:"status"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// ErrorReport is the operational-error shape: the artifact could not be read.
func ErrorReport(path string, err error) Report {
	return Report{Status: StatusError, File: path, Message: err.Error()}
}

func (r Report) Failed() bool {
	return r.Status != StatusSuccess
}

func (r Report) HasCritical() bool {
	return r.Summary != nil && r.Summary.Critical > 0
}

func (r Report) MarshalJSON() ([]byte, error) {
	if r.Failed() {
		return json.Marshal(errorReport{Status: StatusError, File: r.File, Message: r.Message})
	}
	type plain Report
	return json.Marshal(plain(r))
}

func (r Report) MarshalYAML() (any, error) {
	if r.Failed() {
		return errorReport{Status: StatusError, File: r.File, Message: r.Message}, nil
	}
	type plain Report
	return plain(r), nil
}

type Decision string

const (
	DecisionAllow  Decision = "allow"
	DecisionReject Decision = "reject"
)

// GateDecision is the enforcement verdict. Reason is set only on reject.
type GateDecision struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason,omitempty"`
}

func Allow() GateDecision {
	return GateDecision{Decision: DecisionAllow}
}

func Reject(reason string) GateDecision {
	return GateDecision{Decision: DecisionReject, Reason: reason}
}

func (d GateDecision) Allowed() bool {
	return d.Decision == DecisionAllow
}

// Gate rejects when there is at least one issue; recommendations never block.
func (f Findings) Gate() GateDecision {
	if len(f.Issues) == 0 {
		return Allow()
	}
	msgs := make([]string, 0, len(f.Issues))
	for _, issue := range f.Issues {
		msgs = append(msgs, issue.Message)
	}
	return Reject(strings.Join(msgs, "\n"))
}

// Merge concatenates decisions in order. Any reject wins.
func Merge(decisions ...GateDecision) GateDecision {
	var reasons []string
	rejected := false
	for _, d := range decisions {
		switch d.Decision {
		case DecisionAllow:
		case DecisionReject:
			rejected = true
			if d.Reason != "" {
				reasons = append(reasons, d.Reason)
			}
		default:
			rejected = true
			reasons = append(reasons, "unknown decision "+string(d.Decision))
		}
	}
	if !rejected {
		return Allow()
	}
	return Reject(strings.Join(reasons, "\n"))
}
