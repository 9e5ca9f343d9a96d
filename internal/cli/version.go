package cli

import (
	"fmt"

	"dockersentinel/internal/capabilities"
	"dockersentinel/internal/rules"
	"dockersentinel/internal/rules/checks"

	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and built-in catalog information",
	Long: `Print the build version, commit and date, and the size of the built-in
rule and capability catalogs compiled into this binary.

Use --short to print the version string only.`,
	Run: func(cmd *cobra.Command, args []string) {
		version, commit, date := BuildInfo()
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sentinel %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)

		c := checks.Default()
		fmt.Fprintf(cmd.OutOrStdout(), "rules:  %d (%d command, %d dockerfile, %d compose, %d file)\n",
			c.Len(),
			len(c.ForKind(rules.KindCommand)),
			len(c.ForKind(rules.KindDockerfile)),
			len(c.ForKind(rules.KindCompose)),
			len(c.ForKind(rules.KindFilePath)))
		fmt.Fprintf(cmd.OutOrStdout(), "capability profiles: %d\n", len(capabilities.Default().Types()))
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print the version string only")
	rootCmd.AddCommand(versionCmd)
}
