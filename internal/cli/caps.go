package cli

import (
	"encoding/json"
	"io"

	"dockersentinel/internal/capabilities"
	"dockersentinel/internal/config"
	"dockersentinel/internal/flags"

	"github.com/spf13/cobra"
)

var capsList bool

var capsCmd = &cobra.Command{
	Use:   "caps [APP_TYPE]",
	Short: "Recommend a minimal Linux capability set for an application type",
	Long: `Recommend the minimal capability set for an application category, with a
docker run invocation and a compose snippet that drop every capability and
add back only those.

Without an argument (or with --list) every known application type is listed.

Output:
	JSON on stdout. An unknown type produces an error object listing every
	valid type.

Exit codes:
	0 = recommendation or listing written
	1 = unknown application type
	2 = the capabilities file could not be loaded

Examples:
	sentinel caps web-server
	sentinel caps --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appType := ""
		if len(args) == 1 && !capsList {
			appType = args[0]
		}
		code, err := runCaps(cfg, appType, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if code != 0 {
			return &exitError{code: code}
		}
		return nil
	},
}

func runCaps(c *config.Config, appType string, w io.Writer) (int, error) {
	catalog, err := buildCapabilities(c)
	if err != nil {
		return 2, err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if appType == "" {
		return 0, enc.Encode(catalog.Listing())
	}
	advice, err := catalog.Advise(appType)
	if err != nil {
		return 1, enc.Encode(capabilities.NewErrorResponse(err))
	}
	return 0, enc.Encode(advice)
}

func init() {
	rootCmd.AddCommand(capsCmd)
	capsCmd.Flags().BoolVar(&capsList, flags.FlagList, false, "List every known application type")
	capsCmd.Flags().String(flags.FlagCapabilitiesFile, "", "YAML catalog replacing the built-in profiles")
}
