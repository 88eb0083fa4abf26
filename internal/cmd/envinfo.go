package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gridfeed/gridfeed/internal/config"
)

// envSection is one titled block of envinfo output.
type envSection struct {
	Title  string     `json:"title"`
	Fields []envField `json:"fields"`
}

type envField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *envSection) add(key, value string) {
	s.Fields = append(s.Fields, envField{Key: key, Value: value})
}

// collectEnvInfo gathers build, toolchain and, when cfg is set, the resolved
// configuration. Secrets are reported only as "(set)".
func collectEnvInfo(cfg *config.Config) []envSection {
	tc := config.CurrentToolchain()

	app := envSection{Title: "Application"}
	app.add("Name", config.AppName)
	app.add("Version", config.Build.Version)
	app.add("Commit", config.Build.Commit)
	app.add("Built", config.Build.BuildDate)

	rt := envSection{Title: "Runtime"}
	rt.add("Go", tc.Go)
	rt.add("Platform", tc.Platform)
	rt.add("CPUs", strconv.Itoa(runtime.NumCPU()))
	rt.add("Gofulmen", tc.Gofulmen)
	rt.add("Crucible", tc.Crucible)

	sections := []envSection{app, rt}
	if cfg == nil {
		return sections
	}

	provider := envSection{Title: "Provider"}
	provider.add("Base URL", cfg.Provider.BaseURL)
	provider.add("Session type", cfg.Provider.SessionType)
	provider.add("Timeout", cfg.Provider.Timeout.String())
	provider.add("Cache dir", cfg.Provider.CacheDir)
	provider.add("Cache TTL", cfg.Provider.CacheTTL.String()+" (past seasons "+cfg.Provider.PastSeasonCacheTTL.String()+")")
	provider.add("Rate limit", cfg.RateLimit.MinDelay.String()+" - "+cfg.RateLimit.MaxDelay.String())
	provider.add("Workers", strconv.Itoa(cfg.Workers))

	st := envSection{Title: "Store"}
	st.add("Driver", cfg.Store.Driver)
	switch {
	case strings.TrimSpace(cfg.Store.URL) != "":
		st.add("URL", "(set)")
	case cfg.Store.Driver == config.DriverPostgres:
		st.add("Host", fmt.Sprintf("%s:%d/%s", cfg.Store.Host, cfg.Store.Port, cfg.Store.Name))
	default:
		st.add("Path", cfg.Store.Path)
	}
	if cfg.Store.AuthToken != "" || cfg.Store.Password != "" {
		st.add("Credentials", "(set)")
	}

	ops := envSection{Title: "Operations"}
	ops.add("Log level", cfg.Logging.Level)
	ops.add("Error log", cfg.Logging.ErrorLog)
	ops.add("Metrics", fmt.Sprintf("%t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port))
	ops.add("Status API", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	ops.add("Config file", config.DefaultConfigPath())

	return append(sections, provider, st, ops)
}

func renderEnvInfo(w io.Writer, sections []envSection) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(config.AppName + " environment")
	for i, section := range sections {
		if i > 0 {
			t.AppendSeparator()
		}
		for j, field := range section.Fields {
			title := ""
			if j == 0 {
				title = section.Title
			}
			t.AppendRow(table.Row{title, field.Key, field.Value})
		}
	}
	t.Render()
}

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display build, runtime and resolved configuration details. Secrets are masked.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sections := collectEnvInfo(config.GetConfig())

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(sections, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		}
		renderEnvInfo(cmd.OutOrStdout(), sections)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
	envInfoCmd.Flags().Bool("json", false, "Print sections as JSON")
}
