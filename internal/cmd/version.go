package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/gridfeed/gridfeed/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print the gridfeed version. --extended adds commit, build date and toolchain; --json prints both as JSON.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		extended, _ := cmd.Flags().GetBool("extended")
		asJSON, _ := cmd.Flags().GetBool("json")
		out := cmd.OutOrStdout()

		if asJSON {
			data, err := json.MarshalIndent(struct {
				Name      string           `json:"name"`
				Build     config.BuildInfo `json:"build"`
				Toolchain config.Toolchain `json:"toolchain"`
			}{config.AppName, config.Build, config.CurrentToolchain()}, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(data))
			return err
		}

		if !extended {
			_, err := fmt.Fprintf(out, "%s %s\n", config.AppName, config.Build.Version)
			return err
		}

		tc := config.CurrentToolchain()
		lines := []string{
			config.AppName + " " + config.Build.Version,
			"",
			"Commit:    " + config.Build.Commit,
			"Built:     " + config.Build.BuildDate,
			"Go:        " + tc.Go + " (" + tc.Platform + ")",
			"Gofulmen:  " + tc.Gofulmen,
			"Crucible:  " + tc.Crucible,
		}
		_, err := fmt.Fprint(out, ascii.DrawBox(strings.Join(lines, "\n"), 0))
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("extended", "e", false, "Include commit, build date and toolchain")
	versionCmd.Flags().Bool("json", false, "Print version information as JSON")
}
