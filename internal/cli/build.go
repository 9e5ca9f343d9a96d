package cli

import (
	"fmt"

	"dockersentinel/internal/capabilities"
	"dockersentinel/internal/config"
	"dockersentinel/internal/engine"
	"dockersentinel/internal/gate"
	"dockersentinel/internal/rules"
	"dockersentinel/internal/rules/checks"
)

// buildCatalog assembles the built-in rules, extra rules from the rules
// file, then applies the selector and the disabled list.
func buildCatalog(c *config.Config) (*rules.Catalog, error) {
	protected := c.Gate.ProtectedPaths
	if len(protected) == 0 {
		protected = checks.DefaultProtectedPaths
	}
	catalog, err := rules.NewCatalog(checks.All(protected...)...)
	if err != nil {
		return nil, fmt.Errorf("built-in rules: %w", err)
	}

	if c.Rules.File != "" {
		extra, err := rules.LoadRules(c.Rules.File)
		if err != nil {
			return nil, err
		}
		if catalog, err = catalog.With(extra...); err != nil {
			return nil, fmt.Errorf("rules file %s: %w", c.Rules.File, err)
		}
	}

	return catalog.Select(c.Rules.Selector, c.Rules.Disable)
}

func buildEngine(c *config.Config) (*engine.Engine, error) {
	catalog, err := buildCatalog(c)
	if err != nil {
		return nil, err
	}
	allow, err := rules.NewAllowList(c.Audit.Allow)
	if err != nil {
		return nil, err
	}
	return engine.New(catalog, engine.WithAllowList(allow))
}

func buildGate(c *config.Config, e *engine.Engine) *gate.Gate {
	return gate.New(e, gate.Policy{
		CommandTools: c.Gate.CommandTools,
		FileTools:    c.Gate.FileTools,
		AuditWrites:  c.Gate.AuditWrites,
	})
}

func buildCapabilities(c *config.Config) (*capabilities.Catalog, error) {
	if c.Capabilities.File == "" {
		return capabilities.Default(), nil
	}
	return capabilities.Load(c.Capabilities.File)
}
