package capabilities

import (
	"errors"
	"strings"
)

const imagePlaceholder = "<image>"

// Snippets are the two renderings of a profile. Both drop every capability
// and add back only the profile's own.
type Snippets struct {
	Invocation string `json:"invocation_snippet" yaml:"invocation_snippet"`
	Manifest   string `json:"manifest_snippet" yaml:"manifest_snippet"`
}

func Render(p Profile) Snippets {
	return Snippets{
		Invocation: renderInvocation(p.Capabilities),
		Manifest:   renderManifest(p.Capabilities),
	}
}

func renderInvocation(caps []string) string {
	parts := []string{"docker run --cap-drop ALL"}
	for _, c := range caps {
		parts = append(parts, "--cap-add "+c)
	}
	parts = append(parts, imagePlaceholder)
	return strings.Join(parts, " ")
}

func renderManifest(caps []string) string {
	var b strings.Builder
	b.WriteString("services:\n")
	b.WriteString("  app:\n")
	b.WriteString("    image: " + imagePlaceholder + "\n")
	b.WriteString("    cap_drop:\n")
	b.WriteString("      - ALL\n")
	if len(caps) > 0 {
		b.WriteString("    cap_add:\n")
		for _, c := range caps {
			b.WriteString("      - " + c + "\n")
		}
	}
	b.WriteString("    security_opt:\n")
	b.WriteString("      - no-new-privileges:true")
	return b.String()
}

// Advice is the advisor success response for one app type.
type Advice struct {
	Status       string   `json:"status" yaml:"status"`
	AppType      string   `json:"app_type" yaml:"app_type"`
	Description  string   `json:"description" yaml:"description"`
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
	Notes        string   `json:"notes" yaml:"notes"`
	Invocation   string   `json:"invocation_snippet" yaml:"invocation_snippet"`
	Manifest     string   `json:"manifest_snippet" yaml:"manifest_snippet"`
}

// ErrorResponse is the advisor response for a failed lookup.
type ErrorResponse struct {
	Status         string   `json:"status" yaml:"status"`
	Message        string   `json:"message" yaml:"message"`
	AvailableTypes []string `json:"available_types,omitempty" yaml:"available_types,omitempty"`
}

// Advise looks up appType and renders it.
func (c *Catalog) Advise(appType string) (Advice, error) {
	p, err := c.Lookup(appType)
	if err != nil {
		return Advice{}, err
	}
	s := Render(p)
	return Advice{
		Status:       "success",
		AppType:      p.AppType,
		Description:  p.Description,
		Capabilities: p.Capabilities,
		Notes:        p.Notes,
		Invocation:   s.Invocation,
		Manifest:     s.Manifest,
	}, nil
}

// NewErrorResponse converts a lookup error into its response, keeping the
// list of valid keys of a *NotFoundError.
func NewErrorResponse(err error) ErrorResponse {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return ErrorResponse{
			Status:         "error",
			Message:        "unknown application type: " + nf.AppType,
			AvailableTypes: nf.Available,
		}
	}
	return ErrorResponse{Status: "error", Message: err.Error()}
}

type ListEntry struct {
	Type         string   `json:"type" yaml:"type"`
	Description  string   `json:"description" yaml:"description"`
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
}

type Listing struct {
	Status         string      `json:"status" yaml:"status"`
	Configurations []ListEntry `json:"configurations" yaml:"configurations"`
}

func (c *Catalog) Listing() Listing {
	l := Listing{Status: "success", Configurations: []ListEntry{}}
	for _, p := range c.List() {
		l.Configurations = append(l.Configurations, ListEntry{
			Type:         p.AppType,
			Description:  p.Description,
			Capabilities: p.Capabilities,
		})
	}
	return l
}
