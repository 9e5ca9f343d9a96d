package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Rule is a declarative policy rule: a matcher plus the metadata used to turn
// each match into a Finding.
//
// Message and Remediation are templates. {{match}} is replaced with the
// literal text that satisfied the matcher and {{code}} with the rule code.
type Rule struct {
	// ID uniquely identifies the rule inside a catalog.
	ID string
	// Code is the reported policy code. Several rules may share a code.
	Code     string
	Title    string
	Kind     Kind
	Severity Severity
	// Advisory rules produce recommendations and never block.
	Advisory    bool
	Matcher     Matcher
	Message     string
	Remediation string
}

func (r Rule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("rule id must not be empty")
	}
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("rule %s: code must not be empty", r.ID)
	}
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	if _, err := ParseSeverity(string(r.Severity)); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	if r.Matcher == nil {
		return fmt.Errorf("rule %s: matcher must not be nil", r.ID)
	}
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("rule %s: message must not be empty", r.ID)
	}
	return nil
}

// Apply evaluates the rule against text and returns one Finding per match.
func (r Rule) Apply(text string) []Finding {
	matches := r.Matcher.Match(text)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Finding, 0, len(matches))
	for _, m := range matches {
		out = append(out, Finding{
			RuleID:      r.ID,
			Code:        r.Code,
			Severity:    r.Severity,
			Message:     r.render(r.Message, m),
			Remediation: r.render(r.Remediation, m),
		})
	}
	return out
}

func (r Rule) render(tmpl string, m Match) string {
	if tmpl == "" {
		return ""
	}
	return strings.NewReplacer("{{match}}", m.Text, "{{code}}", r.Code).Replace(tmpl)
}

// Info is the serialisable description of a rule.
type Info struct {
	ID          string   `json:"id" yaml:"id"`
	Code        string   `json:"code" yaml:"code"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Advisory    bool     `json:"advisory" yaml:"advisory"`
	Matcher     string   `json:"matcher" yaml:"matcher"`
	Remediation string   `json:"remediation,omitempty" yaml:"remediation,omitempty"`
}

func (r Rule) Info() Info {
	return Info{
		ID:          r.ID,
		Code:        r.Code,
		Title:       r.Title,
		Kind:        r.Kind,
		Severity:    r.Severity,
		Advisory:    r.Advisory,
		Matcher:     r.Matcher.Describe(),
		Remediation: r.Remediation,
	}
}
