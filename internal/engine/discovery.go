package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dockersentinel/internal/rules"
)

// skipDirs are never descended into while discovering artifacts.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	".terraform":   true,
}

// ArtifactKind recognises Dockerfiles and compose manifests by file name
// only. Unlike DetectKind it rejects anything else.
func ArtifactKind(path string) (rules.Kind, bool) {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(base, "compose") && (strings.HasSuffix(base, ".yml") || strings.HasSuffix(base, ".yaml")):
		return rules.KindCompose, true
	case strings.HasPrefix(base, "dockerfile"), strings.HasSuffix(base, ".dockerfile"), strings.HasPrefix(base, "containerfile"):
		return rules.KindDockerfile, true
	default:
		return "", false
	}
}

// Target is one file to audit. Kind is set for files discovered in a
// directory, where the base name already decided it; an empty Kind is
// detected from the whole path by AuditFile.
type Target struct {
	Path string
	Kind rules.Kind
}

// PathTargets wraps explicit paths whose kind is left to detection.
func PathTargets(paths ...string) []Target {
	out := make([]Target, 0, len(paths))
	for _, p := range paths {
		out = append(out, Target{Path: p})
	}
	return out
}

// ResolveTargets expands audit arguments into targets. Directories are
// walked for artifacts recognised by ArtifactKind and narrowed by f; any other
// argument is kept as given so a missing file surfaces as an error report.
// Entries that cannot be read during the walk are kept for the same reason.
// Order follows the arguments, then lexical walk order, without duplicates.
func ResolveTargets(ctx context.Context, args []string, f *Filter) ([]Target, error) {
	var out []Target
	for _, arg := range args {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			out = append(out, Target{Path: arg})
			continue
		}
		found, err := walkArtifacts(ctx, arg)
		if err != nil {
			return nil, err
		}
		for _, t := range found {
			if f.Keep(t.Path) {
				out = append(out, t)
			}
		}
	}
	return capAt(dedupeTargets(out), f.max()), nil
}

func walkArtifacts(ctx context.Context, root string) ([]Target, error) {
	var found []Target
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			if path == root {
				return err
			}
			// Audited later as an error report.
			kind, _ := ArtifactKind(path)
			found = append(found, Target{Path: path, Kind: kind})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if kind, ok := ArtifactKind(path); ok {
			found = append(found, Target{Path: path, Kind: kind})
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipDir) {
		return nil, err
	}
	return found, nil
}

func dedupeTargets(in []Target) []Target {
	if len(in) <= 1 {
		return in
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]Target, 0, len(in))
	for _, t := range in {
		key := filepath.Clean(t.Path)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}
