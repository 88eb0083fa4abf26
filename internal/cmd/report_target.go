package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridfeed/gridfeed/internal/output"
)

// reportTarget is the format and destination picked by --output and --out.
type reportTarget struct {
	format output.Format
	path   string
}

func addReportFlags(cmd *cobra.Command, persistent bool) {
	flags := cmd.Flags()
	if persistent {
		flags = cmd.PersistentFlags()
	}
	flags.String("output", string(output.FormatTable), "Output format: "+strings.Join(output.Formats(), ", "))
	flags.String("out", "", "Write the report to a file instead of stdout")
}

func reportTargetFrom(cmd *cobra.Command) (reportTarget, error) {
	value, err := cmd.Flags().GetString("output")
	if err != nil {
		return reportTarget{}, err
	}
	format, err := output.ParseFormat(value)
	if err != nil {
		return reportTarget{}, err
	}
	path, err := cmd.Flags().GetString("out")
	if err != nil {
		return reportTarget{}, err
	}
	return reportTarget{format: format, path: strings.TrimSpace(path)}, nil
}

func (t reportTarget) toStdout() bool {
	return t.path == "" || t.path == "-"
}

// write sends rendered to stdout, or replaces the file at t.path through a
// temp file in the same directory so readers never see a partial report.
func (t reportTarget) write(stdout io.Writer, rendered string) error {
	if t.toStdout() {
		_, err := fmt.Fprintln(stdout, rendered)
		return err
	}

	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(t.path)+".*")
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer os.Remove(tmp.Name()) // nolint:errcheck // gone after a successful rename

	if _, err := fmt.Fprintln(tmp, rendered); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
