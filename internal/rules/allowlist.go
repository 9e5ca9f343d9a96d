package rules

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// AllowList suppresses findings for audited files matching per-rule glob
// patterns. Keys are rule codes, rule IDs, or "*" for every rule, compared
// case-insensitively.
type AllowList struct {
	entries map[string][]allowEntry
}

type allowEntry struct {
	pattern string
	glob    glob.Glob
}

func NewAllowList(spec map[string][]string) (*AllowList, error) {
	a := &AllowList{entries: make(map[string][]allowEntry)}
	for key, patterns := range spec {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return nil, fmt.Errorf("allowlist key must not be empty")
		}
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			g, err := glob.Compile(filepath.ToSlash(p), '/')
			if err != nil {
				return nil, fmt.Errorf("invalid allowlist pattern %q for %s: %w", p, key, err)
			}
			a.entries[key] = append(a.entries[key], allowEntry{pattern: p, glob: g})
		}
	}
	return a, nil
}

func (a *AllowList) Empty() bool {
	return a == nil || len(a.entries) == 0
}

// IsAllowed reports whether f is allowed for the file at path, and the
// pattern that allowed it.
func (a *AllowList) IsAllowed(f Finding, path string) (bool, string) {
	if a.Empty() || path == "" {
		return false, ""
	}
	p := filepath.ToSlash(path)
	for _, key := range []string{f.Code, f.RuleID, "*"} {
		for _, e := range a.entries[strings.ToLower(key)] {
			if e.glob.Match(p) {
				return true, e.pattern
			}
		}
	}
	return false, ""
}
