package flags

// Package flags defines canonical CLI flag names shared across commands.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Output.Format, flags.FlagFormat, "json", "...")
//	arg := "--" + flags.FlagFormat
const (
	// Global
	FlagConfig  = "config"
	FlagVerbose = "verbose"

	// Rules
	FlagRules     = "rules"
	FlagRulesFile = "rules-file"
	FlagDisable   = "disable"
	FlagKind      = "kind"

	// Targeting
	FlagInclude  = "include"
	FlagExclude  = "exclude"
	FlagMaxFiles = "max-files"

	// Gate
	FlagAuditWrites    = "audit-writes"
	FlagProtectedPaths = "protected-path"

	// Capabilities
	FlagCapabilitiesFile = "capabilities-file"
	FlagList             = "list"

	// Output
	FlagFormat  = "format"
	FlagReport  = "report"
	FlagSARIF   = "sarif"
	FlagOut     = "out"
	FlagNoColor = "no-color"

	// Runtime
	FlagConcurrency = "concurrency"

	// Server
	FlagAddr = "addr"
)
