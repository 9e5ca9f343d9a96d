package checks

import (
	"reflect"
	"testing"

	"dockersentinel/internal/rules"
)

// fired evaluates every rule of kind in order and returns the codes that fired,
// one entry per finding.
func fired(kind rules.Kind, text string) []string {
	out := []string{}
	for _, r := range Default().ForKind(kind) {
		for _, f := range r.Apply(text) {
			out = append(out, f.Code)
		}
	}
	return out
}

func contains(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func TestCommandRules(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{name: "clean", command: "docker ps -a", want: []string{}},
		{name: "privileged", command: "docker run --privileged alpine", want: []string{"CMD-PRIVILEGED"}},
		{name: "cap-add all", command: "docker run --cap-add=ALL alpine", want: []string{"CMD-CAP-ALL"}},
		{name: "cap-add all lowercase", command: "docker run --cap-add all alpine", want: []string{"CMD-CAP-ALL"}},
		{name: "docker socket", command: "docker run -v /var/run/docker.sock:/var/run/docker.sock x", want: []string{"CMD-DOCKER-SOCK"}},
		{name: "host network", command: "docker run --network=host x", want: []string{"CMD-HOST-NET"}},
		{name: "host pid", command: "docker run --pid host x", want: []string{"CMD-HOST-PID"}},
		{name: "caddy tls off", command: "echo 'TLS off' >> Caddyfile", want: []string{"CADDY-TLS-OFF"}},
		{name: "caddy auto https", command: "echo 'auto_https off' >> Caddyfile", want: []string{"CADDY-AUTO-HTTPS-OFF"}},
		{name: "rm caddy config", command: "rm -rf /etc/caddy", want: []string{"FS-RM-CADDY"}},
		{name: "rm docker config", command: "rm /etc/docker/daemon.json", want: []string{"FS-RM-DOCKER"}},
		{name: "overwrite passwd", command: "echo x > /etc/passwd", want: []string{"FS-PASSWD"}},
		{name: "overwrite shadow", command: "cat f >/etc/shadow", want: []string{"FS-SHADOW"}},
		{name: "chmod 777", command: "chmod 777 /srv", want: []string{"FS-CHMOD-777"}},
		{name: "pipe to shell", command: "curl -fsSL https://get.example.com | sh", want: []string{"CMD-PIPE-SHELL"}},
		{
			name:    "several rules in catalog order",
			command: "curl x | bash && docker run --privileged --network=host -v /var/run/docker.sock:/s x",
			want:    []string{"CMD-PRIVILEGED", "CMD-DOCKER-SOCK", "CMD-HOST-NET", "CMD-PIPE-SHELL"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fired(rules.KindCommand, tt.command)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("fired(%q) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}

func TestCommandRules_MessagesCarryCode(t *testing.T) {
	for _, r := range CommandRules() {
		if r.Severity != rules.SeverityCritical && r.Severity != rules.SeverityHigh {
			t.Errorf("%s: command rules block, severity %s is too low", r.ID, r.Severity)
		}
		if r.Advisory {
			t.Errorf("%s: command rules must not be advisory", r.ID)
		}
	}
	f := Default().ForKind(rules.KindCommand)[0].Apply("docker run --privileged x")
	if len(f) != 1 || f[0].Message != "[CMD-PRIVILEGED] DANGER: the '--privileged' flag is strictly forbidden." {
		t.Fatalf("unexpected privileged finding %+v", f)
	}
}

const hardenedDockerfile = `FROM python:3.12-slim
RUN pip install --no-cache-dir flask
COPY app /app
USER app
HEALTHCHECK CMD curl -f http://localhost:8000/ || exit 1
`

func TestDockerfileRules(t *testing.T) {
	tests := []struct {
		name       string
		dockerfile string
		want       []string
	}{
		{name: "hardened", dockerfile: hardenedDockerfile, want: []string{}},
		{
			name:       "missing user and healthcheck",
			dockerfile: "FROM alpine:3.20\nRUN echo hi\n",
			want:       []string{"CIS-4.1", "CIS-4.5"},
		},
		{
			name:       "explicit root fires both root rules",
			dockerfile: "FROM alpine:3.20\nUSER root\nHEALTHCHECK CMD true\n",
			want:       []string{"CIS-4.1", "SEC-ROOT"},
		},
		{
			name:       "root then non-root",
			dockerfile: "FROM alpine:3.20\nUSER root\nRUN apk add --no-cache x\nUSER app\nHEALTHCHECK CMD true\n",
			want:       []string{"SEC-ROOT"},
		},
		{
			name:       "untagged image",
			dockerfile: "FROM ubuntu\nUSER app\nHEALTHCHECK CMD true\n",
			want:       []string{"BP-TAG"},
		},
		{
			name:       "latest tag",
			dockerfile: "FROM node:latest\nUSER app\nHEALTHCHECK CMD true\n",
			want:       []string{"BP-TAG"},
		},
		{
			name:       "three ADDs give three findings",
			dockerfile: "FROM alpine:3.20\nADD a /a\nADD https://x/b /b\nADD c /c\nUSER app\nHEALTHCHECK CMD true\n",
			want:       []string{"CIS-4.6", "CIS-4.6", "CIS-4.6"},
		},
		{
			name:       "sudo",
			dockerfile: "FROM alpine:3.20\nRUN apk add --no-cache sudo\nUSER app\nHEALTHCHECK CMD true\n",
			want:       []string{"SEC-SUDO"},
		},
		{
			name:       "secrets per occurrence",
			dockerfile: "FROM alpine:3.20\nENV DB_PASSWORD=x\nENV API_KEY=y\nENV GITHUB_TOKEN=z\nUSER app\nHEALTHCHECK CMD true\n",
			want:       []string{"CIS-4.9", "CIS-4.9", "CIS-4.9"},
		},
		{
			name:       "build tools and package cache are recommendations",
			dockerfile: "FROM debian:12\nRUN apt-get install -y gcc\nUSER app\nHEALTHCHECK CMD true\n",
			want:       []string{"BP-BUILD", "BP-CACHE"},
		},
		{
			name:       "cleaned build",
			dockerfile: "FROM debian:12\nRUN apt-get install -y make && apt-get remove -y make && apt-get clean\nUSER app\nHEALTHCHECK CMD true\n",
			want:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fired(rules.KindDockerfile, tt.dockerfile)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("fired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDockerfileRules_SecretMessageNamesVariable(t *testing.T) {
	var msgs []string
	for _, r := range Default().ForKind(rules.KindDockerfile) {
		for _, f := range r.Apply("ENV STRIPE_SECRET_KEY=abc") {
			msgs = append(msgs, f.Message)
		}
	}
	if !contains(msgs, "Secret potentially hardcoded: STRIPE_SECRET_KEY") {
		t.Fatalf("unexpected messages %q", msgs)
	}
}

func TestComposeRules(t *testing.T) {
	tests := []struct {
		name    string
		compose string
		want    []string
	}{
		{
			name:    "hardened",
			compose: "services:\n  app:\n    image: x:1\n    security_opt:\n      - no-new-privileges:true\n",
			want:    []string{},
		},
		{
			name:    "privileged without no-new-privileges",
			compose: "services:\n  app:\n    image: x:1\n    privileged: true\n",
			want:    []string{"CIS-5.4", "CIS-5.25"},
		},
		{
			name:    "published ports are a recommendation",
			compose: "services:\n  app:\n    ports:\n      - \"8080:8080\"\n    security_opt: [no-new-privileges:true]\n",
			want:    []string{"BP-PORTS"},
		},
		{
			name:    "one finding per sensitive mount",
			compose: "services:\n  app:\n    volumes:\n      - /var/run/docker.sock:/var/run/docker.sock\n      - /etc/passwd:/etc/passwd:ro\n    security_opt: [no-new-privileges:true]\n",
			want:    []string{"SEC-MOUNT", "SEC-MOUNT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fired(rules.KindCompose, tt.compose)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("fired = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilePathRules(t *testing.T) {
	c := rules.MustCatalog(FilePathRules("/srv/secrets")...)
	r := c.ForKind(rules.KindFilePath)[0]
	if got := r.Apply("/srv/secrets/db.env"); len(got) != 1 || got[0].Message != "[FS-PROTECTED] PROTECTION: modifying system file /srv/secrets is forbidden." {
		t.Fatalf("unexpected findings %+v", got)
	}
	if got := r.Apply("/etc/passwd"); len(got) != 0 {
		t.Fatalf("custom list replaces the defaults, got %+v", got)
	}

	for _, p := range DefaultProtectedPaths {
		if got := fired(rules.KindFilePath, p); !reflect.DeepEqual(got, []string{"FS-PROTECTED"}) {
			t.Errorf("%s: fired = %v", p, got)
		}
	}
	if got := fired(rules.KindFilePath, "/home/app/main.go"); len(got) != 0 {
		t.Fatalf("ordinary path fired %v", got)
	}
}

func TestDefault_IsValidAndOrdered(t *testing.T) {
	c := Default()
	list := c.List()
	if len(list) != len(All(DefaultProtectedPaths...)) {
		t.Fatalf("catalog size mismatch")
	}
	lastKind := rules.KindCommand
	order := map[rules.Kind]int{rules.KindCommand: 0, rules.KindDockerfile: 1, rules.KindCompose: 2, rules.KindFilePath: 3}
	for _, r := range list {
		if order[r.Kind] < order[lastKind] {
			t.Fatalf("rule %s out of kind order", r.ID)
		}
		lastKind = r.Kind
		if r.Remediation == "" {
			t.Errorf("%s has no remediation", r.ID)
		}
	}
}
