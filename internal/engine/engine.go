package engine

import (
	"errors"

	"dockersentinel/internal/rules"
)

// Engine evaluates artifacts against an injected rule catalog. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	catalog *rules.Catalog
	allow   *rules.AllowList
}

type Option func(*Engine)

// WithAllowList suppresses audit issues for files matched by a.
func WithAllowList(a *rules.AllowList) Option {
	return func(e *Engine) { e.allow = a }
}

func New(catalog *rules.Catalog, opts ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("rule catalog is nil")
	}
	e := &Engine{catalog: catalog}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Catalog() *rules.Catalog {
	return e.catalog
}

// Findings is the ordered output of the aggregator for one artifact.
type Findings struct {
	Issues          []rules.Finding
	Recommendations []rules.Finding
}

// Evaluate applies every rule of kind, in catalog order, to text.
func (e *Engine) Evaluate(kind rules.Kind, text string) Findings {
	f := Findings{
		Issues:          []rules.Finding{},
		Recommendations: []rules.Finding{},
	}
	for _, r := range e.catalog.ForKind(kind) {
		found := r.Apply(text)
		if len(found) == 0 {
			continue
		}
		if r.Advisory {
			f.Recommendations = append(f.Recommendations, found...)
		} else {
			f.Issues = append(f.Issues, found...)
		}
	}
	return f
}

// Gate evaluates text and reduces the findings to an allow/reject decision.
func (e *Engine) Gate(kind rules.Kind, text string) GateDecision {
	return e.Evaluate(kind, text).Gate()
}

// Audit evaluates an artifact already read into memory and builds its report.
func (e *Engine) Audit(path string, kind rules.Kind, text string) Report {
	f := e.Evaluate(kind, text)

	var suppressed []rules.Finding
	if !e.allow.Empty() {
		kept := make([]rules.Finding, 0, len(f.Issues))
		for _, issue := range f.Issues {
			if ok, _ := e.allow.IsAllowed(issue, path); ok {
				suppressed = append(suppressed, issue)
				continue
			}
			kept = append(kept, issue)
		}
		f.Issues = kept
	}

	summary := BuildSummary(f.Issues, f.Recommendations)
	return Report{
		Status:          StatusSuccess,
		File:            path,
		Kind:            kind,
		Issues:          f.Issues,
		Recommendations: f.Recommendations,
		Suppressed:      suppressed,
		Summary:         &summary,
	}
}
