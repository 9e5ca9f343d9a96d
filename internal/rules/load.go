package rules

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleSpec is the YAML form of a Rule.
type RuleSpec struct {
	ID          string    `yaml:"id"`
	Code        string    `yaml:"code"`
	Title       string    `yaml:"title"`
	Kind        string    `yaml:"kind"`
	Severity    string    `yaml:"severity"`
	Advisory    bool      `yaml:"advisory"`
	Match       MatchSpec `yaml:"match"`
	Message     string    `yaml:"message"`
	Remediation string    `yaml:"remediation"`
}

// MatchSpec is the YAML form of a Matcher.
//
// Types:
//   - contains: any of Values is a substring (IgnoreCase supported)
//   - literals: one match per value present
//   - prefix: one match per value the text starts with
//   - pattern: Pattern matches once
//   - each: one match per occurrence of Pattern
//   - absent: Of finds nothing
//   - all: every entry of All matches
type MatchSpec struct {
	Type       string      `yaml:"type"`
	Values     []string    `yaml:"values"`
	Pattern    string      `yaml:"pattern"`
	IgnoreCase bool        `yaml:"ignore_case"`
	Multiline  bool        `yaml:"multiline"`
	Of         *MatchSpec  `yaml:"of"`
	All        []MatchSpec `yaml:"all"`
}

type ruleFile struct {
	Rules []RuleSpec `yaml:"rules"`
}

func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

func ParseRules(data []byte) ([]Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	out := make([]Rule, 0, len(f.Rules))
	for i, spec := range f.Rules {
		r, err := spec.Build()
		if err != nil {
			return nil, fmt.Errorf("rule #%d: %w", i+1, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (s RuleSpec) Build() (Rule, error) {
	kind, err := ParseKind(s.Kind)
	if err != nil {
		return Rule{}, err
	}
	sev, err := ParseSeverity(s.Severity)
	if err != nil {
		return Rule{}, err
	}
	m, err := s.Match.Build()
	if err != nil {
		return Rule{}, fmt.Errorf("%s: %w", s.ID, err)
	}
	code := s.Code
	if code == "" {
		code = s.ID
	}
	r := Rule{
		ID:          s.ID,
		Code:        code,
		Title:       s.Title,
		Kind:        kind,
		Severity:    sev,
		Advisory:    s.Advisory,
		Matcher:     m,
		Message:     s.Message,
		Remediation: s.Remediation,
	}
	return r, r.Validate()
}

func (s MatchSpec) Build() (Matcher, error) {
	var opts []PatternOption
	if s.IgnoreCase {
		opts = append(opts, IgnoreCase())
	}
	if s.Multiline {
		opts = append(opts, Multiline())
	}

	switch strings.ToLower(strings.TrimSpace(s.Type)) {
	case "contains":
		if len(s.Values) == 0 {
			return nil, errors.New("contains matcher requires values")
		}
		if s.IgnoreCase {
			return ContainsFold(s.Values...), nil
		}
		return Contains(s.Values...), nil
	case "literals":
		if len(s.Values) == 0 {
			return nil, errors.New("literals matcher requires values")
		}
		return Literals(s.Values...), nil
	case "prefix":
		if len(s.Values) == 0 {
			return nil, errors.New("prefix matcher requires values")
		}
		return Prefix(s.Values...), nil
	case "pattern":
		return NewPattern(s.Pattern, opts...)
	case "each":
		return NewEach(s.Pattern, opts...)
	case "absent":
		if s.Of == nil {
			return nil, errors.New("absent matcher requires of")
		}
		inner, err := s.Of.Build()
		if err != nil {
			return nil, err
		}
		return Absent(inner), nil
	case "all":
		if len(s.All) == 0 {
			return nil, errors.New("all matcher requires at least one entry")
		}
		parts := make([]Matcher, 0, len(s.All))
		for _, p := range s.All {
			m, err := p.Build()
			if err != nil {
				return nil, err
			}
			parts = append(parts, m)
		}
		return All(parts...), nil
	default:
		return nil, fmt.Errorf("unsupported matcher type %q", s.Type)
	}
}
