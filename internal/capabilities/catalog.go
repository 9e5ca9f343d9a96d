// Package capabilities recommends minimal Linux capability sets for common
// application categories and renders them as docker run and compose snippets.
package capabilities

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Profile is one catalog entry. An empty Capabilities list is valid and
// means the application needs no elevated capability at all.
type Profile struct {
	AppType      string   `json:"app_type" yaml:"app_type"`
	Description  string   `json:"description" yaml:"description"`
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
	Notes        string   `json:"notes" yaml:"notes"`
}

// Catalog is an ordered, read-only set of profiles keyed by app type.
type Catalog struct {
	profiles []Profile
	byType   map[string]int
}

// NotFoundError is returned for an unknown app type. Available lists every
// valid key once, in catalog order.
type NotFoundError struct {
	AppType   string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unknown application type: %s (available: %s)", e.AppType, strings.Join(e.Available, ", "))
}

func NewCatalog(profiles ...Profile) (*Catalog, error) {
	c := &Catalog{byType: make(map[string]int, len(profiles))}
	for _, p := range profiles {
		key := normalizeKey(p.AppType)
		if key == "" {
			return nil, fmt.Errorf("profile app_type must not be empty")
		}
		if _, exists := c.byType[key]; exists {
			return nil, fmt.Errorf("profile %s already defined", key)
		}
		p.AppType = key
		caps := make([]string, 0, len(p.Capabilities))
		for _, cp := range p.Capabilities {
			cp = strings.ToUpper(strings.TrimSpace(cp))
			if cp == "" {
				continue
			}
			caps = append(caps, strings.TrimPrefix(cp, "CAP_"))
		}
		p.Capabilities = caps
		c.byType[key] = len(c.profiles)
		c.profiles = append(c.profiles, p)
	}
	return c, nil
}

func MustCatalog(profiles ...Profile) *Catalog {
	c, err := NewCatalog(profiles...)
	if err != nil {
		panic(err)
	}
	return c
}

// Default is the built-in catalog.
func Default() *Catalog {
	return MustCatalog(
		Profile{
			AppType:      "web-server",
			Description:  "Web server (nginx, apache, caddy)",
			Capabilities: []string{"NET_BIND_SERVICE"},
			Notes:        "Only required when listening on a port below 1024",
		},
		Profile{
			AppType:      "database",
			Description:  "Database (postgres, mysql, mongodb)",
			Capabilities: []string{"CHOWN", "SETUID", "SETGID"},
			Notes:        "For managing data file ownership",
		},
		Profile{
			AppType:      "network-tool",
			Description:  "Network tool (ping, traceroute)",
			Capabilities: []string{"NET_RAW"},
			Notes:        "For ICMP packets",
		},
		Profile{
			AppType:      "scheduler",
			Description:  "Scheduler (cron, systemd)",
			Capabilities: []string{"SETUID", "SETGID", "SYS_NICE"},
			Notes:        "For switching users and adjusting priorities",
		},
		Profile{
			AppType:      "minimal",
			Description:  "Standard application without special needs",
			Capabilities: []string{},
			Notes:        "Use --cap-drop ALL for maximum security",
		},
		Profile{
			AppType:      "file-processor",
			Description:  "File processing with ownership changes",
			Capabilities: []string{"CHOWN", "FOWNER"},
			Notes:        "For changing file attributes",
		},
	)
}

// Lookup returns the profile for appType (case-insensitive).
func (c *Catalog) Lookup(appType string) (Profile, error) {
	i, ok := c.byType[normalizeKey(appType)]
	if !ok {
		return Profile{}, &NotFoundError{AppType: appType, Available: c.Types()}
	}
	return clone(c.profiles[i]), nil
}

func (c *Catalog) Types() []string {
	out := make([]string, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, p.AppType)
	}
	return out
}

func (c *Catalog) List() []Profile {
	out := make([]Profile, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, clone(p))
	}
	return out
}

type catalogFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// Load reads a YAML catalog that replaces the built-in one.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read capabilities file: %w", err)
	}
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse capabilities file %s: %w", path, err)
	}
	if len(f.Profiles) == 0 {
		return nil, fmt.Errorf("capabilities file %s defines no profiles", path)
	}
	return NewCatalog(f.Profiles...)
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clone(p Profile) Profile {
	caps := make([]string, len(p.Capabilities))
	copy(caps, p.Capabilities)
	p.Capabilities = caps
	return p
}
