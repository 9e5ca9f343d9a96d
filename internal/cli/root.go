package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"dockersentinel/internal/config"
	"dockersentinel/internal/engine"
	"dockersentinel/internal/flags"
	"dockersentinel/internal/logging"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var (
	cfg        = config.New()
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Static security policy checks for container commands, Dockerfiles and compose files",
	Long: `Sentinel checks shell commands, Dockerfiles and compose manifests against a
declarative security policy.

It has two faces:
  - a gate that answers allow/reject for a tool invocation read on stdin
  - an auditor that reports issues and recommendations for files on disk

Sentinel never executes or modifies what it inspects.

Examples:
	# Gate a tool invocation
	echo '{"tool_name":"Bash","tool_input":{"command":"docker run --privileged x"}}' | sentinel gate

	# Audit a Dockerfile and a compose file
	sentinel audit Dockerfile docker-compose.yml

	# Recommend a minimal capability set
	sentinel caps web-server

	# List rules
	sentinel rules list

Configuration:
	Settings are read from --config (default: .sentinel.yaml when present),
	then SENTINEL_* environment variables (e.g. SENTINEL_OUTPUT_FORMAT), then flags.

Output:
	Decisions and reports go to stdout. Diagnostics go to stderr.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := setup(cmd)
		if err != nil && cmd == gateCmd {
			// The gate must still answer; it rejects with this reason.
			gateSetupErr = err
			return nil
		}
		return err
	},
}

func setup(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.New(cmd.ErrOrStderr(), false)
	cmd.SetContext(logger.WithContext(ctx))

	loaded, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	*cfg = *loaded

	logger = logging.New(cmd.ErrOrStderr(), cfg.Runtime.Verbose)
	cmd.SetContext(logger.WithContext(ctx))
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, flags.FlagConfig, "", "Path to a YAML config file (default: "+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().Bool(flags.FlagVerbose, false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().String(flags.FlagRulesFile, "", "YAML file of extra rules appended after the built-ins")
	rootCmd.PersistentFlags().StringSlice(flags.FlagDisable, nil, "Rule IDs to disable (repeatable; comma-separated accepted)")
	rootCmd.PersistentFlags().StringSlice(flags.FlagProtectedPaths, nil, "Protected path prefix for file edits (repeatable; replaces the built-in list)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// exitError carries a process exit code out of a command without printing.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// Execute runs the root command and returns the process exit code. Errors
// that are not an explicit exit code are operational (2).
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return engine.ExitOperational
}
