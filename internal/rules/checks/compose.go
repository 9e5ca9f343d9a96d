package checks

import "dockersentinel/internal/rules"

// ComposeRules follow the CIS Docker Benchmark section 5 (container runtime).
func ComposeRules() []rules.Rule {
	return []rules.Rule{
		{
			ID:          "compose-privileged",
			Code:        "CIS-5.4",
			Title:       "Privileged service",
			Kind:        rules.KindCompose,
			Severity:    rules.SeverityCritical,
			Matcher:     rules.Pattern(`privileged:\s*true`, rules.IgnoreCase()),
			Message:     "Privileged mode enabled on one or more services.",
			Remediation: "Remove privileged: true and use cap_add for the specific capabilities required.",
		},
		{
			ID:          "compose-no-new-privileges",
			Code:        "CIS-5.25",
			Title:       "no-new-privileges set",
			Kind:        rules.KindCompose,
			Severity:    rules.SeverityHigh,
			Matcher:     rules.Absent(rules.Contains("no-new-privileges")),
			Message:     "The no-new-privileges option is not set.",
			Remediation: "Add security_opt: [no-new-privileges:true] to every service.",
		},
		{
			ID:          "compose-exposed-ports",
			Code:        "BP-PORTS",
			Title:       "Ports published on every interface",
			Kind:        rules.KindCompose,
			Severity:    rules.SeverityMedium,
			Advisory:    true,
			Matcher:     rules.Pattern(`ports:\s*\n(?:\s+-\s*["']?\d+:\d+["']?\s*\n?)+`),
			Message:     "Published ports detected.",
			Remediation: "Bind only the interfaces you need (e.g. 127.0.0.1:8080:8080).",
		},
		{
			ID:          "compose-sensitive-mount",
			Code:        "SEC-MOUNT",
			Title:       "Sensitive host path mounted",
			Kind:        rules.KindCompose,
			Severity:    rules.SeverityCritical,
			Matcher:     rules.Literals("/var/run/docker.sock", "/etc/shadow", "/etc/passwd"),
			Message:     "Sensitive mount detected: {{match}}",
			Remediation: "Avoid mounting {{match}} unless strictly necessary.",
		},
	}
}
