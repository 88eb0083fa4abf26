package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridfeed/gridfeed/internal/output"
)

func TestReportTargetFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "probe"}
	addReportFlags(cmd, false)

	target, err := reportTargetFrom(cmd)
	require.NoError(t, err)
	assert.Equal(t, output.FormatTable, target.format)
	assert.True(t, target.toStdout())

	require.NoError(t, cmd.Flags().Set("output", "JSON"))
	require.NoError(t, cmd.Flags().Set("out", " report.json "))
	target, err = reportTargetFrom(cmd)
	require.NoError(t, err)
	assert.Equal(t, output.FormatJSON, target.format)
	assert.Equal(t, "report.json", target.path)

	require.NoError(t, cmd.Flags().Set("output", "yaml"))
	_, err = reportTargetFrom(cmd)
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestReportTargetWritesStdout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, reportTarget{path: "-"}.write(&buf, "hello"))
	assert.Equal(t, "hello\n", buf.String())
}

func TestReportTargetReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "2023.md")
	target := reportTarget{format: output.FormatMarkdown, path: path}

	require.NoError(t, target.write(nil, "first"))
	require.NoError(t, target.write(nil, "second"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
