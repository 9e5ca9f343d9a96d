package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"dockersentinel/internal/flags"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultFile is read from the working directory when no --config is given
// and it exists.
const DefaultFile = ".sentinel.yaml"

// EnvPrefix prefixes environment overrides, e.g. SENTINEL_RUNTIME_CONCURRENCY.
const EnvPrefix = "SENTINEL"

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields, keep these in sync:
	// - CLI flags in internal/cli (see internal/flags)
	// - defaults registered in bindDefaults
	Rules        Rules        `mapstructure:"rules"`
	Gate         Gate         `mapstructure:"gate"`
	Audit        Audit        `mapstructure:"audit"`
	Capabilities Capabilities `mapstructure:"capabilities"`
	Output       Output       `mapstructure:"output"`
	Runtime      Runtime      `mapstructure:"runtime"`
	Server       Server       `mapstructure:"server"`
}

type Rules struct {
	// Selector selects which rules to run (see --rules).
	// Empty means all rules; otherwise a comma-separated list of rule IDs.
	Selector string `mapstructure:"selector"`

	// Disable lists rule IDs that never run, whatever the selector.
	Disable []string `mapstructure:"disable"`

	// File is a YAML file of extra rules appended after the built-ins (see --rules-file).
	File string `mapstructure:"file"`
}

type Gate struct {
	// CommandTools are tool names whose tool_input.command is checked.
	CommandTools []string `mapstructure:"command_tools"`

	// FileTools are tool names whose tool_input.file_path is checked.
	FileTools []string `mapstructure:"file_tools"`

	// ProtectedPaths are path prefixes file tools may not touch.
	// Empty means the built-in list.
	ProtectedPaths []string `mapstructure:"protected_paths"`

	// AuditWrites audits full Dockerfile/compose writes and rejects CRITICAL issues (see --audit-writes).
	AuditWrites bool `mapstructure:"audit_writes"`
}

type Audit struct {
	// Kind forces the artifact kind (see --kind). Allowed values: dockerfile, compose.
	// Empty detects it from each file name.
	Kind string `mapstructure:"kind"`

	// Allow maps a finding code or rule ID ("*" for any) to file glob patterns
	// whose matching issues are suppressed.
	Allow map[string][]string `mapstructure:"allow"`

	// Include keeps only artifacts found in directories that match one of
	// these globs (see --include). Empty means all.
	Include []string `mapstructure:"include"`

	// Exclude drops artifacts found in directories that match any of these
	// globs (see --exclude).
	Exclude []string `mapstructure:"exclude"`

	// MaxFiles caps how many files one audit run covers (see --max-files).
	// 0 means no cap.
	MaxFiles int `mapstructure:"max_files"`
}

type Capabilities struct {
	// File is a YAML catalog replacing the built-in profiles (see --capabilities-file).
	File string `mapstructure:"file"`
}

type Output struct {
	// Format controls the audit report format on stdout (see --format).
	// Allowed values: json, yaml, text, ndjson.
	Format string `mapstructure:"format"`

	// Report writes a Markdown report to this path (see --report).
	Report string `mapstructure:"report"`

	// SARIF writes a SARIF 2.1.0 log to this path (see --sarif).
	SARIF string `mapstructure:"sarif"`

	// Out writes every report as JSON or NDJSON to this path (see --out).
	// The format follows the extension: .json, .ndjson or .jsonl.
	Out string `mapstructure:"out"`

	// NoColor disables colour in the text format (see --no-color).
	NoColor bool `mapstructure:"no_color"`
}

type Runtime struct {
	// Concurrency bounds how many files are audited in parallel (see --concurrency).
	// Must be >= 1.
	Concurrency int `mapstructure:"concurrency"`

	// Verbose enables debug logging on stderr (see --verbose).
	Verbose bool `mapstructure:"verbose"`
}

type Server struct {
	// Addr is the listen address of sentinel serve (see --addr).
	Addr string `mapstructure:"addr"`
}

func New() *Config {
	return &Config{
		Gate: Gate{
			CommandTools: []string{"Bash"},
			FileTools:    []string{"Edit", "Write", "MultiEdit"},
		},
		Audit: Audit{
			Allow: map[string][]string{},
		},
		Output: Output{
			Format: "json",
		},
		Runtime: Runtime{
			Concurrency: 4,
		},
		Server: Server{
			Addr: "127.0.0.1:8087",
		},
	}
}

// flagKeys maps config keys to the CLI flags that override them.
var flagKeys = map[string]string{
	"rules.selector":       flags.FlagRules,
	"rules.disable":        flags.FlagDisable,
	"rules.file":           flags.FlagRulesFile,
	"gate.protected_paths": flags.FlagProtectedPaths,
	"gate.audit_writes":    flags.FlagAuditWrites,
	"audit.kind":           flags.FlagKind,
	"audit.include":        flags.FlagInclude,
	"audit.exclude":        flags.FlagExclude,
	"audit.max_files":      flags.FlagMaxFiles,
	"capabilities.file":    flags.FlagCapabilitiesFile,
	"output.format":        flags.FlagFormat,
	"output.report":        flags.FlagReport,
	"output.sarif":         flags.FlagSARIF,
	"output.out":           flags.FlagOut,
	"output.no_color":      flags.FlagNoColor,
	"runtime.concurrency":  flags.FlagConcurrency,
	"runtime.verbose":      flags.FlagVerbose,
	"server.addr":          flags.FlagAddr,
}

// Load builds a Config from defaults, the YAML file at path, SENTINEL_*
// environment variables and the flags in fs that were set, in increasing
// precedence. An empty path falls back to DefaultFile when it exists. fs may
// be nil.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	cfg := New()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, cfg)
	if fs != nil {
		for key, name := range flagKeys {
			f := fs.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag --%s: %w", name, err)
			}
		}
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// bindDefaults registers every key so AutomaticEnv can see it.
func bindDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("rules.selector", cfg.Rules.Selector)
	v.SetDefault("rules.disable", cfg.Rules.Disable)
	v.SetDefault("rules.file", cfg.Rules.File)
	v.SetDefault("gate.command_tools", cfg.Gate.CommandTools)
	v.SetDefault("gate.file_tools", cfg.Gate.FileTools)
	v.SetDefault("gate.protected_paths", cfg.Gate.ProtectedPaths)
	v.SetDefault("gate.audit_writes", cfg.Gate.AuditWrites)
	v.SetDefault("audit.kind", cfg.Audit.Kind)
	v.SetDefault("audit.include", cfg.Audit.Include)
	v.SetDefault("audit.exclude", cfg.Audit.Exclude)
	v.SetDefault("audit.max_files", cfg.Audit.MaxFiles)
	v.SetDefault("capabilities.file", cfg.Capabilities.File)
	v.SetDefault("output.format", cfg.Output.Format)
	v.SetDefault("output.report", cfg.Output.Report)
	v.SetDefault("output.sarif", cfg.Output.SARIF)
	v.SetDefault("output.out", cfg.Output.Out)
	v.SetDefault("output.no_color", cfg.Output.NoColor)
	v.SetDefault("runtime.concurrency", cfg.Runtime.Concurrency)
	v.SetDefault("runtime.verbose", cfg.Runtime.Verbose)
	v.SetDefault("server.addr", cfg.Server.Addr)
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Rules.Disable = splitCommaList(c.Rules.Disable)
	c.Gate.CommandTools = splitCommaList(c.Gate.CommandTools)
	c.Gate.FileTools = splitCommaList(c.Gate.FileTools)
	c.Gate.ProtectedPaths = splitCommaList(c.Gate.ProtectedPaths)
	c.Audit.Include = splitCommaList(c.Audit.Include)
	c.Audit.Exclude = splitCommaList(c.Audit.Exclude)

	if len(c.Gate.CommandTools) == 0 && len(c.Gate.FileTools) == 0 {
		return errors.New("gate needs at least one command or file tool")
	}
	for _, p := range c.Gate.ProtectedPaths {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("protected path %q must be absolute", p)
		}
	}

	// Output validation
	c.Output.Format = normalizeEnumValue(c.Output.Format)
	if c.Output.Format == "" {
		c.Output.Format = "json"
	}
	switch c.Output.Format {
	case "json", "yaml", "text", "ndjson":
	default:
		return fmt.Errorf("unsupported --format: %s (must be one of: json, yaml, text, ndjson)", c.Output.Format)
	}

	// Audit validation
	c.Audit.Kind = normalizeEnumValue(c.Audit.Kind)
	if c.Audit.Kind != "" && c.Audit.Kind != "dockerfile" && c.Audit.Kind != "compose" {
		return fmt.Errorf("unsupported --kind: %s (must be one of: dockerfile, compose)", c.Audit.Kind)
	}
	for key, patterns := range c.Audit.Allow {
		if strings.TrimSpace(key) == "" {
			return errors.New("audit.allow keys must not be empty")
		}
		if len(patterns) == 0 {
			return fmt.Errorf("audit.allow.%s has no patterns", key)
		}
	}
	if c.Audit.MaxFiles < 0 {
		return errors.New("--max-files must be >= 0")
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}

	c.Server.Addr = strings.TrimSpace(c.Server.Addr)
	if c.Server.Addr == "" {
		return errors.New("--addr must not be empty")
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
