package checks

import "dockersentinel/internal/rules"

// CommandRules police shell command lines before they run.
func CommandRules() []rules.Rule {
	return []rules.Rule{
		{
			ID:          "command-privileged",
			Code:        "CMD-PRIVILEGED",
			Title:       "Privileged container",
			Kind:        rules.KindCommand,
			Severity:    rules.SeverityCritical,
			Matcher:     rules.Contains("--privileged"),
			Message:     "[{{code}}] DANGER: the '--privileged' flag is strictly forbidden.",
			Remediation: "Use '--cap-add' to grant specific, granular capabilities.",
		},
		{
			ID:          "command-cap-add-all",
			Code:        "CMD-CAP-ALL",
			Title:       "All capabilities added",
			Kind:        rules.KindCommand,
			Severity:    rules.SeverityCritical,
			Matcher:     rules.Pattern(`cap-add\s*(?:=|:)?\s*ALL`, rules.IgnoreCase()),
			Message:     "[{{code}}] EXCESSIVE PRIVILEGE: adding every capability ({{match}}) is forbidden.",
			Remediation: "List only the capabilities the workload needs.",
		},
		{
			ID:          "command-docker-socket",
			Code:        "CMD-DOCKER-SOCK",
			Title:       "Docker socket mount",
			Kind:        rules.KindCommand,
			Severity:    rules.SeverityCritical,
			Matcher:     rules.Pattern(`-v\s+["']?/var/run/docker\.sock`),
			Message:     "[{{code}}] HIGH RISK: mounting the Docker socket grants effective root access to the host.",
			Remediation: "Do not expose /var/run/docker.sock to containers.",
		},
		{
			ID:          "command-host-network",
			Code:        "CMD-HOST-NET",
			Title:       "Host network mode",
			Kind:        rules.KindCommand,
			Severity:    rules.SeverityHigh,
			Matcher:     rules.Contains("--network=host", "--network host"),
			Message:     "[{{code}}] WARNING: '{{match}}' exposes every port of the host.",
			Remediation: "Use a bridge network and publish specific ports.",
		},
		{
			ID:          "command-host-pid",
			Code:        "CMD-HOST-PID",
			Title:       "Host PID namespace",
			Kind:        rules.KindCommand,
			Severity:    rules.SeverityHigh,
			Matcher:     rules.Contains("--pid=host", "--pid host"),
			Message:     "[{{code}}] RISK: '{{match}}' makes every host process visible and eases process injection.",
			Remediation: "Keep the container in its own PID namespace.",
		},
		{
			ID:          "caddy-tls-off",
			Code:        "CADDY-TLS-OFF",
			Title:       "Caddy TLS disabled",
			Kind:        rules.KindCommand,
			Severity:    rules.SeverityHigh,
			Matcher:     rules.Pattern(`tls\s+off`, rules.IgnoreCase()),
			Message:     "[{{code}}] NON-COMPLIANT: disabling TLS in Caddy is forbidden.",
			Remediation: "HTTPS must stay enabled to protect traffic.",
		},
		{
			ID:          "caddy-auto-https-off",
			Code:        "CADDY-AUTO-HTTPS-OFF",
			Title:       "Caddy automatic HTTPS disabled",
			Kind:        rules.KindCommand,
			Severity:    rules.SeverityHigh,
			Matcher:     rules.Pattern(`auto_https\s+off`, rules.IgnoreCase()),
			Message:     "[{{code}}] NON-COMPLIANT: disabling auto_https is forbidden.",
			Remediation: "Let Caddy manage TLS certificates automatically.",
		},
		protectedOperation("command-rm-caddy-config", "FS-RM-CADDY", rules.SeverityCritical, `rm\s+(?:-rf?\s+)?/etc/caddy`, "Caddy configuration files"),
		protectedOperation("command-rm-docker-config", "FS-RM-DOCKER", rules.SeverityCritical, `rm\s+(?:-rf?\s+)?/etc/docker`, "Docker configuration files"),
		protectedOperation("command-overwrite-passwd", "FS-PASSWD", rules.SeverityCritical, `>\s*/etc/passwd`, "the passwd file"),
		protectedOperation("command-overwrite-shadow", "FS-SHADOW", rules.SeverityCritical, `>\s*/etc/shadow`, "the shadow file"),
		protectedOperation("command-chmod-777", "FS-CHMOD-777", rules.SeverityHigh, `chmod\s+777`, "777 permissions (too permissive)"),
		{
			ID:          "command-pipe-to-shell",
			Code:        "CMD-PIPE-SHELL",
			Title:       "Remote script piped to a shell",
			Kind:        rules.KindCommand,
			Severity:    rules.SeverityHigh,
			Matcher:     rules.Pattern(`(?:curl|wget)\s+.*\|\s*(?:bash|sh|sudo)`),
			Message:     "[{{code}}] RISK: direct execution of a remote script detected.",
			Remediation: "Download first, verify, then execute.",
		},
	}
}

func protectedOperation(id, code string, sev rules.Severity, expr, target string) rules.Rule {
	return rules.Rule{
		ID:          id,
		Code:        code,
		Title:       "Dangerous operation on " + target,
		Kind:        rules.KindCommand,
		Severity:    sev,
		Matcher:     rules.Pattern(expr, rules.IgnoreCase()),
		Message:     "[{{code}}] PROTECTION: dangerous operation on " + target + " detected. This action is blocked by the security policy.",
		Remediation: "Perform configuration changes through reviewed tooling instead of ad-hoc shell commands.",
	}
}
