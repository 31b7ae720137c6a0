package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/importonly/cmd/importonly/commands"
	"github.com/Sumatoshi-tech/importonly/pkg/rules"
)

// project writes a small Python tree plus a config file and returns the
// root and the config path.
func project(t *testing.T) (string, string) {
	t.Helper()

	root := t.TempDir()

	files := map[string]string{
		"pkg/__init__.py": "",
		"pkg/helpers.py":  "def util(): pass\n",
		"app/main.py":     "from pkg.helpers import util, other\n",
		"app/attr.py":     "from pkg import helpers\nhelpers.util()\n",
		"app/clean.py":    "from pkg import helpers\n",
	}

	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	}

	configPath := filepath.Join(root, ".importonly.yaml")
	configBody := fmt.Sprintf("allowed_direct_imports: pkg.helpers.util\nsearch_paths:\n  - %q\n", root)
	require.NoError(t, os.WriteFile(configPath, []byte(configBody), 0o600))

	return root, configPath
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := commands.NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

func TestCheck_JSON(t *testing.T) {
	t.Parallel()

	root, configPath := project(t)

	stdout, stderr, err := execute(t, "check", "--config", configPath, "--format", "json", "-q", root)
	require.ErrorIs(t, err, commands.ErrViolations)
	assert.Empty(t, stderr)

	var doc struct {
		Files       int `json:"files"`
		Diagnostics []struct {
			Path string `json:"path"`
			Rule string `json:"rule"`
		} `json:"diagnostics"`
	}

	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, 5, doc.Files)
	require.Len(t, doc.Diagnostics, 2)
	assert.Equal(t, filepath.Join(root, "app", "attr.py"), doc.Diagnostics[0].Path)
	assert.Equal(t, "import-direct-attributes", doc.Diagnostics[0].Rule)
	assert.Equal(t, "import-only-modules", doc.Diagnostics[1].Rule)
}

func TestCheck_TextAndSummary(t *testing.T) {
	t.Parallel()

	root, configPath := project(t)

	stdout, stderr, err := execute(t, "check", "--config", configPath, "--color", "never",
		filepath.Join(root, "app", "main.py"))
	require.ErrorIs(t, err, commands.ErrViolations)

	assert.Contains(t, stdout, "main.py:1:1: W5521 import-only-modules: "+`Import "other" from "pkg.helpers" is not a module.`)
	assert.Contains(t, stderr, "Checked 1 file")
	assert.Contains(t, stderr, "1 problem found")
}

func TestCheck_FlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	root, configPath := project(t)

	stdout, _, err := execute(t, "check", "--config", configPath, "-q",
		"--disable", "W5521",
		"--allowed-direct-imports", "pkg.other",
		"--exclude", "**/clean.py",
		root)
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestCheck_MetricsTextfile(t *testing.T) {
	t.Parallel()

	root, configPath := project(t)
	metricsPath := filepath.Join(t.TempDir(), "importonly.prom")

	_, _, err := execute(t, "check", "--config", configPath, "-q", "--metrics-textfile", metricsPath, root)
	require.ErrorIs(t, err, commands.ErrViolations)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "importonly_files")
	assert.Contains(t, string(data), `rule="import-only-modules"`)
}

func TestCheck_MalformedRules(t *testing.T) {
	t.Parallel()

	root, configPath := project(t)

	_, _, err := execute(t, "check", "--config", configPath, "--allowed-direct-imports", "a.{b", root)
	require.ErrorIs(t, err, rules.ErrMalformed)
}

func TestCheck_InvalidFormat(t *testing.T) {
	t.Parallel()

	root, configPath := project(t)

	_, _, err := execute(t, "check", "--config", configPath, "--format", "xml", root)
	require.Error(t, err)
	assert.NotErrorIs(t, err, commands.ErrViolations)
}

func TestRules(t *testing.T) {
	t.Parallel()

	_, configPath := project(t)

	stdout, _, err := execute(t, "rules", "--config", configPath, "--allowed-direct-imports", " b.y , a.{z, x}, b.* ")
	require.NoError(t, err)

	assert.Contains(t, stdout, "a.{x,z},b.{*,y}\n")
	assert.Contains(t, stdout, "Module")
	assert.Contains(t, stdout, "x, z")
}

func TestRules_Empty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("workers: 1\n"), 0o600))

	stdout, _, err := execute(t, "rules", "--config", configPath)
	require.NoError(t, err)
	assert.Equal(t, "no modules configured\n", stdout)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "importonly ")
	assert.Contains(t, stdout, "commit:")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		want   int
		output string
	}{
		{"ok", nil, commands.ExitOK, ""},
		{"violations", fmt.Errorf("run: %w", commands.ErrViolations), commands.ExitViolations, ""},
		{"failure", errors.New("boom"), commands.ExitFailure, "Error: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			assert.Equal(t, tt.want, commands.ExitCode(tt.err, &buf))
			assert.Equal(t, tt.output, buf.String())
		})
	}
}
