package engine

import (
	"context"
	"fmt"
	"os"
	"strings"

	"dockersentinel/internal/rules"

	"github.com/rs/zerolog"
)

// Exit code contract for the audit path:
// 0 = every artifact audited, no CRITICAL issue
// 1 = at least one CRITICAL issue
// 2 = operational error (an artifact could not be read)
const (
	ExitOK          = 0
	ExitCritical    = 1
	ExitOperational = 2
)

// ExitCode maps reports to the audit exit code. The worst report wins.
func ExitCode(reports ...Report) int {
	operational, critical := false, false
	for _, r := range reports {
		switch {
		case r.Failed():
			operational = true
		case r.HasCritical():
			critical = true
		}
	}
	if operational {
		return ExitOperational
	}
	if critical {
		return ExitCritical
	}
	return ExitOK
}

// DetectKind infers the artifact kind from its file name: anything mentioning
// "compose" or ending in .yml/.yaml is a compose manifest, otherwise a
// Dockerfile.
func DetectKind(path string) rules.Kind {
	lower := strings.ToLower(path)
	if strings.Contains(lower, "compose") || strings.HasSuffix(path, ".yml") || strings.HasSuffix(path, ".yaml") {
		return rules.KindCompose
	}
	return rules.KindDockerfile
}

// ReadError reports an artifact that could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	if os.IsNotExist(e.Err) {
		return fmt.Sprintf("file not found: %s", e.Path)
	}
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// AuditFile reads path and audits it. kind may be empty to detect it from the
// file name. Read failures become an error report, never an empty pass.
func (e *Engine) AuditFile(ctx context.Context, path string, kind rules.Kind) Report {
	logger := zerolog.Ctx(ctx)
	if kind == "" {
		kind = DetectKind(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		rerr := &ReadError{Path: path, Err: err}
		logger.Error().Err(rerr).Str("file", path).Msg("audit failed")
		return ErrorReport(path, rerr)
	}

	r := e.Audit(path, kind, string(data))
	logger.Debug().
		Str("file", path).
		Str("kind", string(kind)).
		Int("issues", r.Summary.TotalIssues).
		Int("recommendations", r.Summary.Recommendations).
		Msg("audited")
	return r
}
