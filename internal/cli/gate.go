package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"dockersentinel/internal/config"
	"dockersentinel/internal/engine"
	"dockersentinel/internal/flags"

	"github.com/spf13/cobra"
)

// gateSetupErr is a configuration failure seen before the gate ran.
var gateSetupErr error

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Decide allow/reject for one tool invocation read on stdin",
	Long: `Read one JSON tool invocation on stdin and write the decision on stdout.

Input:
	{"tool_name": "Bash", "tool_input": {"command": "..."}}
	{"tool_name": "Write", "tool_input": {"file_path": "...", "content": "..."}}

	The keys "tool" and "input" are accepted as aliases.

Output:
	{"decision": "allow"}
	{"decision": "reject", "reason": "..."}

The gate is fail-closed: empty input, invalid JSON, a missing tool name, a
missing command or file path, or a configuration error all produce a reject.

Exit codes:
	0 = a decision was written (allow or reject)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := runGate(cmd.Context(), cfg, gateSetupErr, cmd.InOrStdin())
		return writeDecision(cmd.OutOrStdout(), d)
	},
}

func runGate(ctx context.Context, c *config.Config, setupErr error, in io.Reader) engine.GateDecision {
	if setupErr != nil {
		return engine.Reject(fmt.Sprintf("gate misconfigured: %v", setupErr))
	}
	e, err := buildEngine(c)
	if err != nil {
		return engine.Reject(fmt.Sprintf("gate misconfigured: %v", err))
	}
	return buildGate(c, e).DecideReader(ctx, in)
}

func writeDecision(w io.Writer, d engine.GateDecision) error {
	return json.NewEncoder(w).Encode(d)
}

func init() {
	rootCmd.AddCommand(gateCmd)
	gateCmd.Flags().Bool(flags.FlagAuditWrites, false, "Audit full Dockerfile/compose writes and reject CRITICAL issues")
}
