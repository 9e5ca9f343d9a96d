// Package checks holds the built-in rule tables.
package checks

import "dockersentinel/internal/rules"

// Default is the built-in catalog with the default protected paths.
func Default() *rules.Catalog {
	return rules.MustCatalog(All(DefaultProtectedPaths...)...)
}

// All returns every built-in rule in evaluation order, using protected as the
// prefixes of the protected-file rule.
func All(protected ...string) []rules.Rule {
	var out []rules.Rule
	out = append(out, CommandRules()...)
	out = append(out, DockerfileRules()...)
	out = append(out, ComposeRules()...)
	out = append(out, FilePathRules(protected...)...)
	return out
}
