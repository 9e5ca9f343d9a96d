package checks

import (
	"strings"

	"dockersentinel/internal/rules"
)

// DockerfileRules follow the CIS Docker Benchmark section 4 where a control exists.
func DockerfileRules() []rules.Rule {
	out := []rules.Rule{
		{
			ID:       "dockerfile-non-root-user",
			Code:     "CIS-4.1",
			Title:    "Non-root user defined",
			Kind:     rules.KindDockerfile,
			Severity: rules.SeverityCritical,
			Matcher: rules.Absent(rules.Where(
				rules.Each(`^\s*USER[ \t]+(\S+)`, rules.Multiline()),
				"the user is not root",
				func(user string) bool { return !strings.HasPrefix(user, "root") },
			)),
			Message:     "No non-root user defined. The container will run as root.",
			Remediation: "Add: RUN addgroup -S appgroup && adduser -S appuser -G appgroup\nUSER appuser",
		},
		{
			ID:          "dockerfile-sudo",
			Code:        "SEC-SUDO",
			Title:       "sudo present",
			Kind:        rules.KindDockerfile,
			Severity:    rules.SeverityHigh,
			Matcher:     rules.ContainsFold("sudo"),
			Message:     "'sudo' detected. This violates the principle of least privilege.",
			Remediation: "Remove sudo and set file permissions correctly instead.",
		},
		{
			ID:       "dockerfile-add-instruction",
			Code:     "CIS-4.6",
			Title:    "ADD used instead of COPY",
			Kind:     rules.KindDockerfile,
			Severity: rules.SeverityMedium,
			Matcher: rules.Where(
				rules.Each(`^\s*ADD\s+(.+)$`, rules.Multiline()),
				"the source is not a local tar archive",
				func(args string) bool {
					return !strings.HasSuffix(args, ".tar.gz") && !strings.HasSuffix(args, ".tar")
				},
			),
			Message:     "ADD instruction used: {{match}}",
			Remediation: "Prefer COPY to avoid implicit remote downloads.",
		},
	}

	out = append(out,
		hardcodedSecret("dockerfile-secret-api-key", "API key", `API_KEY|APIKEY`),
		hardcodedSecret("dockerfile-secret-secret", "Secret", `SECRET|SECRET_KEY`),
		hardcodedSecret("dockerfile-secret-password", "Password", `PASSWORD|PASSWD|PWD`),
		hardcodedSecret("dockerfile-secret-token", "Token", `TOKEN|AUTH_TOKEN|ACCESS_TOKEN`),
		hardcodedSecret("dockerfile-secret-private-key", "Private key", `PRIVATE_KEY|SSH_KEY`),
	)

	return append(out,
		rules.Rule{
			ID:       "dockerfile-image-tag",
			Code:     "BP-TAG",
			Title:    "Base image pinned to a version",
			Kind:     rules.KindDockerfile,
			Severity: rules.SeverityHigh,
			// An untagged image is an implicit :latest.
			Matcher:     rules.Pattern(`^\s*FROM\s+(\S+:latest|[^\s:]+\s*$)`, rules.Multiline()),
			Message:     "Base image without a specific tag or with :latest detected: {{match}}",
			Remediation: "Pin a precise version (e.g. alpine:3.19, python:3.12-slim).",
		},
		rules.Rule{
			ID:          "dockerfile-healthcheck",
			Code:        "CIS-4.5",
			Title:       "HEALTHCHECK defined",
			Kind:        rules.KindDockerfile,
			Severity:    rules.SeverityMedium,
			Matcher:     rules.Absent(rules.Pattern(`^\s*HEALTHCHECK\s+`, rules.Multiline())),
			Message:     "No HEALTHCHECK instruction defined.",
			Remediation: "Add: HEALTHCHECK --interval=30s --timeout=3s CMD curl -f http://localhost/ || exit 1",
		},
		rules.Rule{
			ID:          "dockerfile-root-user",
			Code:        "SEC-ROOT",
			Title:       "Explicit root user",
			Kind:        rules.KindDockerfile,
			Severity:    rules.SeverityCritical,
			Matcher:     rules.Pattern(`^\s*USER\s+root\s*$`, rules.Multiline()),
			Message:     "Explicitly running as root detected.",
			Remediation: "Switch to a non-root user once the steps that need root are done.",
		},
		rules.Rule{
			ID:       "dockerfile-build-tools",
			Code:     "BP-BUILD",
			Title:    "Build tools left in the image",
			Kind:     rules.KindDockerfile,
			Severity: rules.SeverityMedium,
			Advisory: true,
			Matcher: rules.All(
				rules.Pattern(`(gcc|make|g\+\+|build-essential)`),
				rules.Absent(rules.ContainsFold("multi-stage")),
				rules.Absent(rules.Pattern(`&&\s*(?:rm|apk\s+del|apt-get\s+remove)`)),
			),
			Message:     "Build tools detected without apparent cleanup ({{match}}).",
			Remediation: "Use a multi-stage build or remove build tools after compiling.",
		},
		rules.Rule{
			ID:       "dockerfile-package-cache",
			Code:     "BP-CACHE",
			Title:    "Package cache not cleaned",
			Kind:     rules.KindDockerfile,
			Severity: rules.SeverityMedium,
			Advisory: true,
			Matcher: rules.All(
				rules.Pattern(`(apt-get\s+install|apk\s+add)`),
				rules.Absent(rules.Pattern(`(?:rm\s+-rf\s+/var/cache|apt-get\s+clean|--no-cache)`)),
			),
			Message:     "Package cache possibly left in the image ({{match}}).",
			Remediation: "Add --no-cache (apk) or && apt-get clean && rm -rf /var/lib/apt/lists/*",
		},
	)
}

// hardcodedSecret fires once per assignment whose name ends in one of names,
// whatever the assigned value.
func hardcodedSecret(id, label, names string) rules.Rule {
	return rules.Rule{
		ID:          id,
		Code:        "CIS-4.9",
		Title:       label + " hardcoded",
		Kind:        rules.KindDockerfile,
		Severity:    rules.SeverityCritical,
		Matcher:     rules.Each(`(\w*(?:`+names+`))\s*=`, rules.IgnoreCase()),
		Message:     label + " potentially hardcoded: {{match}}",
		Remediation: "Use Docker secrets, runtime environment variables, or a secrets manager.",
	}
}
