package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Filter narrows artifacts discovered in directories. Explicit file arguments
// are never filtered, only capped by MaxFiles.
type Filter struct {
	include  []glob.Glob
	exclude  []glob.Glob
	maxFiles int
}

// NewFilter compiles include/exclude glob patterns ("**" crosses
// directories). maxFiles <= 0 means no cap.
func NewFilter(include, exclude []string, maxFiles int) (*Filter, error) {
	f := &Filter{maxFiles: maxFiles}
	var err error
	if f.include, err = compileGlobs(include); err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	if f.exclude, err = compileGlobs(exclude); err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}
	return f, nil
}

// Apply keeps paths matching at least one include pattern (when any are set)
// and no exclude pattern. A nil Filter keeps everything.
func (f *Filter) Apply(paths []string) []string {
	if f == nil || (len(f.include) == 0 && len(f.exclude) == 0) {
		return paths
	}

	var filtered []string
	for _, p := range paths {
		if f.Keep(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Keep reports whether path passes the include and exclude patterns.
func (f *Filter) Keep(path string) bool {
	if f == nil {
		return true
	}
	slash := filepath.ToSlash(path)

	// If Include is set, must match at least one
	if len(f.include) > 0 && !matchesAny(f.include, slash) {
		return false
	}

	// If Exclude is set, must not match any
	return len(f.exclude) == 0 || !matchesAny(f.exclude, slash)
}

// Limit caps paths at MaxFiles, keeping the first ones.
func (f *Filter) Limit(paths []string) []string {
	return capAt(paths, f.max())
}

func (f *Filter) max() int {
	if f == nil {
		return 0
	}
	return f.maxFiles
}

// capAt keeps the first n elements; n <= 0 keeps everything.
func capAt[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	var out []glob.Glob
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(filepath.ToSlash(p), '/')
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// matchesAny also tries the base name so patterns without a separator, such
// as "*.dev.Dockerfile", match at any depth.
func matchesAny(globs []glob.Glob, slashPath string) bool {
	base := slashPath
	if i := strings.LastIndex(slashPath, "/"); i >= 0 {
		base = slashPath[i+1:]
	}
	for _, g := range globs {
		if g.Match(slashPath) || g.Match(base) {
			return true
		}
	}
	return false
}
