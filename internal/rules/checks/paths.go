package checks

import "dockersentinel/internal/rules"

// DefaultProtectedPaths are rejected as edit targets whatever the content.
var DefaultProtectedPaths = []string{
	"/etc/passwd",
	"/etc/shadow",
	"/etc/sudoers",
	"/root/.ssh/authorized_keys",
}

// FilePathRules matches edit target paths against the protected prefixes.
func FilePathRules(protected ...string) []rules.Rule {
	return []rules.Rule{
		{
			ID:          "file-protected-path",
			Code:        "FS-PROTECTED",
			Title:       "Protected system file",
			Kind:        rules.KindFilePath,
			Severity:    rules.SeverityCritical,
			Matcher:     rules.Prefix(protected...),
			Message:     "[{{code}}] PROTECTION: modifying system file {{match}} is forbidden.",
			Remediation: "System account and access files are managed outside agent sessions.",
		},
	}
}
