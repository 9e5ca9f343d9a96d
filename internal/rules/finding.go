package rules

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
)

// Severities lists every severity in descending criticality.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium}

// Rank orders severities: CRITICAL is 0. Unknown severities rank after MEDIUM.
func (s Severity) Rank() int {
	for i, sev := range Severities {
		if s == sev {
			return i
		}
	}
	return len(Severities)
}

func ParseSeverity(raw string) (Severity, error) {
	s := Severity(strings.ToUpper(strings.TrimSpace(raw)))
	for _, sev := range Severities {
		if s == sev {
			return sev, nil
		}
	}
	return "", fmt.Errorf("unsupported severity %q (must be one of: CRITICAL, HIGH, MEDIUM)", raw)
}

// Kind is the artifact kind a rule applies to.
type Kind string

const (
	KindCommand    Kind = "command"
	KindDockerfile Kind = "dockerfile"
	KindCompose    Kind = "compose"
	// KindFilePath rules match against the target path of a file edit.
	KindFilePath Kind = "file-path"
)

var Kinds = []Kind{KindCommand, KindDockerfile, KindCompose, KindFilePath}

func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	for _, kind := range Kinds {
		if k == kind {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unsupported kind %q (must be one of: command, dockerfile, compose, file-path)", raw)
}

// Finding is one fired rule instance against one artifact.
type Finding struct {
	RuleID      string   `json:"rule_id" yaml:"rule_id"`
	Code        string   `json:"code" yaml:"code"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Message     string   `json:"message" yaml:"message"`
	Remediation string   `json:"remediation,omitempty" yaml:"remediation,omitempty"`
}
