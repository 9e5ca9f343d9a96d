package cli

import (
	"context"
	"os/signal"
	"syscall"

	"dockersentinel/internal/flags"
	"dockersentinel/internal/server"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the gate, auditor and capability advisor over HTTP",
	Long: `Serve the policy engine over HTTP until interrupted.

Routes:
	POST /v1/gate                    gate request body, decision response (always 200)
	POST /v1/audit                   {"kind", "file", "content"}, audit report
	GET  /v1/rules[?kind=KIND]       rule listing
	GET  /v1/capabilities            capability profile listing
	GET  /v1/capabilities/{appType}  capability recommendation (404 when unknown)
	GET  /healthz                    liveness

Examples:
	sentinel serve --addr 127.0.0.1:8087`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	e, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	caps, err := buildCapabilities(cfg)
	if err != nil {
		return err
	}

	logger := *zerolog.Ctx(ctx)
	api := server.NewWebAPI(logger, server.Config{
		Addr: cfg.Server.Addr,
		Dependencies: server.Dependencies{
			Engine:       e,
			Gate:         buildGate(cfg, e),
			Capabilities: caps,
		},
	})
	return api.Start(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String(flags.FlagAddr, "127.0.0.1:8087", "Listen address")
	serveCmd.Flags().Bool(flags.FlagAuditWrites, false, "Audit full Dockerfile/compose writes and reject CRITICAL issues")
	serveCmd.Flags().String(flags.FlagCapabilitiesFile, "", "YAML catalog replacing the built-in profiles")
}
