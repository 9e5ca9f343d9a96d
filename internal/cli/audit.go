package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"dockersentinel/internal/config"
	"dockersentinel/internal/engine"
	"dockersentinel/internal/flags"
	"dockersentinel/internal/output"
	"dockersentinel/internal/rules"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit PATH [PATH...]",
	Short: "Audit Dockerfiles and compose manifests",
	Long: `Audit one or more Dockerfiles or compose manifests and report issues and
recommendations.

The kind of a file named on the command line is detected from its path: a
path mentioning "compose" or ending in .yml/.yaml is a compose manifest,
anything else a Dockerfile. Files found by walking a directory keep the kind
their base name implies. Use --kind to force it for every file.

A directory argument is walked for files named like Dockerfile,
Containerfile, *.dockerfile or *compose*.yml/.yaml (.git, vendor and
node_modules are skipped). --include and --exclude narrow what a walk finds;
files named explicitly are always audited. --max-files caps the run.

Files are audited in parallel (see --concurrency); reports keep the
argument order.

Output:
	--format json (default): one report object, or a list for several files
	--format yaml: same shape as json
	--format text: human-readable, severities coloured
	--format ndjson: lifecycle events (run.started, file.report, run.finished)
	--report FILE.md: additional Markdown report
	--sarif FILE: additional SARIF 2.1.0 log
	--out FILE.json|FILE.ndjson: additional machine-readable copy (json is
	  always a list)

	Issues matched by audit.allow patterns in the config file are listed under
	"suppressed" and do not fail the file.

Exit codes:
	0 = every file audited, no CRITICAL issue
	1 = at least one CRITICAL issue
	2 = operational error (a file could not be read, or bad configuration)

Examples:
	sentinel audit Dockerfile
	sentinel audit --format text services/*/Dockerfile docker-compose.yml
	sentinel audit --kind compose --sarif out/sentinel.sarif stack.yml
	sentinel audit --exclude '**/testdata/**' .`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := runAudit(cmd.Context(), cfg, args, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if code != engine.ExitOK {
			return &exitError{code: code}
		}
		return nil
	},
}

// runAudit audits paths and writes every configured output. It returns the
// audit exit code; a non-nil error is operational.
func runAudit(ctx context.Context, c *config.Config, args []string, stdout io.Writer) (int, error) {
	logger := zerolog.Ctx(ctx)

	e, err := buildEngine(c)
	if err != nil {
		return engine.ExitOperational, err
	}
	filter, err := engine.NewFilter(c.Audit.Include, c.Audit.Exclude, c.Audit.MaxFiles)
	if err != nil {
		return engine.ExitOperational, err
	}
	targets, err := engine.ResolveTargets(ctx, args, filter)
	if err != nil {
		return engine.ExitOperational, fmt.Errorf("resolve targets: %w", err)
	}
	if len(targets) == 0 {
		return engine.ExitOperational, errors.New("no Dockerfile or compose file found")
	}
	logger.Debug().Int("files", len(targets)).Msg("targets resolved")
	var kind rules.Kind
	if c.Audit.Kind != "" {
		if kind, err = rules.ParseKind(c.Audit.Kind); err != nil {
			return engine.ExitOperational, err
		}
	}
	sched, err := engine.NewScheduler(e, c.Runtime.Concurrency)
	if err != nil {
		return engine.ExitOperational, err
	}

	mgr, err := buildOutputs(c, stdout)
	if err != nil {
		return engine.ExitOperational, err
	}

	if err := mgr.Start(len(targets), e.Catalog().Len()); err != nil {
		_ = mgr.Close()
		return engine.ExitOperational, err
	}

	reports, err := sched.Execute(ctx, targets, kind)
	if err != nil {
		_ = mgr.Close()
		return engine.ExitOperational, fmt.Errorf("audit interrupted: %w", err)
	}

	for _, r := range reports {
		if err := mgr.Report(r); err != nil {
			_ = mgr.Close()
			return engine.ExitOperational, err
		}
	}

	code, err := mgr.Finish()
	if err != nil {
		return engine.ExitOperational, err
	}

	logger.Debug().Int("files", len(targets)).Int("exit_code", code).Msg("audit finished")
	return code, nil
}

func buildOutputs(c *config.Config, stdout io.Writer) (*output.Manager, error) {
	console, err := output.NewConsoleSink(stdout, c.Output.Format, c.Output.NoColor)
	if err != nil {
		return nil, err
	}
	sinks := []output.Sink{console}

	if c.Output.Report != "" {
		report, err := output.NewReportSink(c.Output.Report)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, report)
	}
	if c.Output.Out != "" {
		file, err := output.NewFileSink(c.Output.Out, "")
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, file)
	}
	if c.Output.SARIF != "" {
		sarif, err := output.NewSARIFSink(c.Output.SARIF, buildVersion)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sarif)
	}
	return output.NewManager(sinks...)
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().String(flags.FlagKind, "", "Force the artifact kind: dockerfile|compose (default: detect from file name)")
	auditCmd.Flags().String(flags.FlagRules, "", "Comma-separated rule IDs to run (empty = all rules)")

	// Targeting
	auditCmd.Flags().StringSlice(flags.FlagInclude, nil, "Glob of discovered files to keep (repeatable)")
	auditCmd.Flags().StringSlice(flags.FlagExclude, nil, "Glob of discovered files to skip (repeatable)")
	auditCmd.Flags().Int(flags.FlagMaxFiles, 0, "Maximum number of files audited (0 = no limit)")

	// Output
	auditCmd.Flags().String(flags.FlagFormat, "json", "Output format: json|yaml|text|ndjson")
	auditCmd.Flags().String(flags.FlagReport, "", "Write a Markdown report to this path")
	auditCmd.Flags().String(flags.FlagSARIF, "", "Write a SARIF 2.1.0 log to this path")
	auditCmd.Flags().String(flags.FlagOut, "", "Write every report to this .json/.ndjson/.jsonl file")
	auditCmd.Flags().Bool(flags.FlagNoColor, false, "Disable colour in the text format")

	// Runtime
	auditCmd.Flags().Int(flags.FlagConcurrency, 4, "Files audited in parallel")
}
