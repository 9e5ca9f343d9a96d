// Package gate turns tool invocations into allow/reject decisions. It is
// fail-closed: anything it cannot parse is rejected.
package gate

import (
	"context"
	"fmt"
	"io"
	"slices"

	"dockersentinel/internal/engine"
	"dockersentinel/internal/rules"

	"github.com/rs/zerolog"
)

// Policy names the tools the gate polices.
type Policy struct {
	// CommandTools carry a shell command in tool_input.command.
	CommandTools []string
	// FileTools carry tool_input.file_path plus new_string or content.
	FileTools []string
	// AuditWrites audits full-content writes of Dockerfiles and compose
	// files and rejects them on CRITICAL issues.
	AuditWrites bool
}

func DefaultPolicy() Policy {
	return Policy{
		CommandTools: []string{"Bash"},
		FileTools:    []string{"Edit", "Write", "MultiEdit"},
	}
}

type Gate struct {
	engine *engine.Engine
	policy Policy
}

func New(e *engine.Engine, p Policy) *Gate {
	return &Gate{engine: e, policy: p}
}

// DecideReader reads one request from r and decides it.
func (g *Gate) DecideReader(ctx context.Context, r io.Reader) engine.GateDecision {
	data, err := io.ReadAll(r)
	if err != nil {
		return g.reject(ctx, fmt.Errorf("read request: %w", err))
	}
	return g.Decide(ctx, data)
}

// Decide parses and evaluates a raw request. It never returns allow for
// input it cannot parse.
func (g *Gate) Decide(ctx context.Context, data []byte) engine.GateDecision {
	req, err := ParseRequest(data)
	if err != nil {
		return g.reject(ctx, err)
	}
	return g.Evaluate(ctx, req)
}

func (g *Gate) Evaluate(ctx context.Context, req Request) engine.GateDecision {
	logger := zerolog.Ctx(ctx).With().Str("tool", req.ToolName).Logger()

	var d engine.GateDecision
	switch {
	case slices.Contains(g.policy.CommandTools, req.ToolName):
		command, ok, err := req.String("command")
		if err != nil {
			return g.reject(ctx, err)
		}
		if !ok {
			return g.reject(ctx, malformed("missing tool_input.command"))
		}
		d = g.engine.Gate(rules.KindCommand, command)
	case slices.Contains(g.policy.FileTools, req.ToolName):
		var err error
		d, err = g.evaluateFileOp(req)
		if err != nil {
			return g.reject(ctx, err)
		}
	default:
		logger.Debug().Msg("tool not policed")
		return engine.Allow()
	}

	logger.Debug().Str("decision", string(d.Decision)).Msg("gate decision")
	return d
}

func (g *Gate) evaluateFileOp(req Request) (engine.GateDecision, error) {
	path, ok, err := req.String("file_path")
	if err != nil {
		return engine.GateDecision{}, err
	}
	if !ok {
		return engine.GateDecision{}, malformed("missing tool_input.file_path")
	}
	newString, _, err := req.String("new_string")
	if err != nil {
		return engine.GateDecision{}, err
	}
	content, hasContent, err := req.String("content")
	if err != nil {
		return engine.GateDecision{}, err
	}

	decisions := []engine.GateDecision{g.engine.Gate(rules.KindFilePath, path)}

	// Only full content is audited; new_string is a fragment.
	if g.policy.AuditWrites && hasContent && newString == "" {
		if kind, ok := engine.ArtifactKind(path); ok {
			decisions = append(decisions, criticalOnly(g.engine.Evaluate(kind, content)).Gate())
		}
	}
	return engine.Merge(decisions...), nil
}

func (g *Gate) reject(ctx context.Context, err error) engine.GateDecision {
	zerolog.Ctx(ctx).Warn().Err(err).Msg("rejecting request")
	return engine.Reject(err.Error())
}

func criticalOnly(f engine.Findings) engine.Findings {
	var kept []rules.Finding
	for _, issue := range f.Issues {
		if issue.Severity == rules.SeverityCritical {
			kept = append(kept, issue)
		}
	}
	return engine.Findings{Issues: kept}
}
