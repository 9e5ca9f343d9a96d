package cli

import (
	"fmt"
	"io"

	"dockersentinel/internal/flags"
	"dockersentinel/internal/rules"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	rulesListQuiet bool
	rulesListKind  string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List and inspect rules",
	Long: `List and inspect Sentinel rules.

This command group shows which rules exist, what each matches, and how it is
reported. Disabled rules (rules.disable / --disable) are not listed, and rules
from --rules-file are.

Examples:
  # List all rules
  sentinel rules list

  # List Dockerfile rules only
  sentinel rules list --kind dockerfile
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available rules",
	Long: `List every rule in evaluation order.

Examples:
  sentinel rules list
  sentinel rules list -q --kind command

Output:
  A vertical list of rules:
    ----------------------------------------
    RULE: {ID} [{CODE}] {SEVERITY}
    ----------------------------------------
    {TITLE}
    Kind:    {KIND}
    Matches: {MATCHER}
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := buildCatalog(cfg)
		if err != nil {
			return err
		}
		rList := catalog.List()
		if rulesListKind != "" {
			kind, err := rules.ParseKind(rulesListKind)
			if err != nil {
				return err
			}
			rList = catalog.ForKind(kind)
		}

		for _, r := range rList {
			if rulesListQuiet {
				fmt.Fprintln(cmd.OutOrStdout(), r.ID)
			} else {
				printRule(cmd.OutOrStdout(), r)
			}
		}
		return nil
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show [rule-id]",
	Short: "Show details of a specific rule",
	Long: `Show details of a specific rule by its ID.

Examples:
  sentinel rules show dockerfile-non-root-user
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := buildCatalog(cfg)
		if err != nil {
			return err
		}
		r, ok := catalog.Get(args[0])
		if !ok {
			return fmt.Errorf("rule not found: %s", args[0])
		}
		printRule(cmd.OutOrStdout(), r)
		return nil
	},
}

func printRule(w io.Writer, r rules.Rule) {
	bold := color.New(color.Bold)
	info := r.Info()
	fmt.Fprintln(w, "----------------------------------------")
	bold.Fprintf(w, "RULE: %s [%s] %s", info.ID, info.Code, info.Severity)
	if info.Advisory {
		fmt.Fprint(w, " (advisory)")
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "----------------------------------------")
	if info.Title != "" {
		fmt.Fprintln(w, info.Title)
	}
	fmt.Fprintf(w, "Kind:    %s\n", info.Kind)
	fmt.Fprintf(w, "Matches: %s\n", info.Matcher)
	if info.Remediation != "" {
		fmt.Fprintf(w, "Fix:     %s\n", info.Remediation)
	}
	fmt.Fprintln(w)
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesListCmd)
	rulesListCmd.Flags().BoolVarP(&rulesListQuiet, "quiet", "q", false, "Only print rule IDs")
	rulesListCmd.Flags().StringVar(&rulesListKind, flags.FlagKind, "", "Only list rules of this kind: command|dockerfile|compose|file-path")
	rulesCmd.AddCommand(rulesShowCmd)
}
