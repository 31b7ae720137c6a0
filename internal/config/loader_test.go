package config_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/importonly/internal/config"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("", t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, cfg.Source)
	assert.Empty(t, cfg.AllowedDirectImports)
	assert.Equal(t, []string{"."}, cfg.SearchPaths)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, config.FormatText, cfg.Format)
	assert.Equal(t, config.ColorAuto, cfg.Color)
	assert.Equal(t, "info", cfg.Log.Level)

	defaults := config.Default()
	assert.Equal(t, defaults.Workers, cfg.Workers)
	assert.Equal(t, defaults.SearchPaths, cfg.SearchPaths)
}

func TestLoad_YAMLInSearchDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, ".importonly.yaml", `
allowed_direct_imports:
  - pkg.Thing
  - typing.{Any,Optional}
search_paths: [src, lib]
exclude: ["**/migrations/**"]
workers: 2
format: json
log:
  level: debug
`)

	cfg, err := config.Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "pkg.Thing,typing.{Any,Optional}", cfg.RuleConfig())
	assert.Equal(t, []string{"src", "lib"}, cfg.SearchPaths)
	assert.Equal(t, []string{"**/migrations/**"}, cfg.Exclude)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, config.FormatJSON, cfg.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_SingleStringRuleConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".importonly.yml", "allowed_direct_imports: \"a.b, c.{d,e}\"\n")

	cfg, err := config.Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, "a.b, c.{d,e}", cfg.RuleConfig())
}

func TestLoad_Pyproject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "pyproject.toml", `
[project]
name = "demo"

[tool.importonly]
allowed_direct_imports = ["pkg.Thing"]
disable = ["W5522"]
workers = 3

[tool.importonly.telemetry]
sample_ratio = 0.5
`)

	cfg, err := config.Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "pkg.Thing", cfg.RuleConfig())
	assert.Equal(t, []string{"W5522"}, cfg.Disable)
	assert.Equal(t, 3, cfg.Workers)
	assert.InDelta(t, 0.5, cfg.Telemetry.SampleRatio, 1e-9)
}

func TestLoad_PyprojectWithoutTableIsIgnored(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[project]\nname = \"demo\"\n")

	cfg, err := config.Load("", dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Source)
}

func TestLoad_YAMLWinsOverPyproject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "pyproject.toml", "[tool.importonly]\nworkers = 9\n")
	yamlPath := writeFile(t, dir, ".importonly.yaml", "workers: 1\n")

	cfg, err := config.Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, yamlPath, cfg.Source)
	assert.Equal(t, 1, cfg.Workers)
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "custom.yaml", "color: never\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.ColorNever, cfg.Color)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_SchemaViolation(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"unknown key":  "allowed_imports: a.b\n",
		"bad format":   "format: xml\n",
		"bad workers":  "workers: -2\n",
		"nested typo":  "log:\n  lvl: debug\n",
		"wrong type":   "search_paths: src\n",
		"ratio bounds": "telemetry:\n  sample_ratio: 2\n",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeFile(t, dir, ".importonly.yaml", body)

			_, err := config.Load("", dir)
			require.ErrorIs(t, err, config.ErrSchema)
		})
	}
}

func TestLoad_UnknownRuleFailsValidation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".importonly.yaml", "disable: [nope]\n")

	_, err := config.Load("", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("IMPORTONLY_WORKERS", "7")
	t.Setenv("IMPORTONLY_LOG_LEVEL", "warn")
	t.Setenv("IMPORTONLY_ALLOWED_DIRECT_IMPORTS", "x.y,z.{a,b}")

	dir := t.TempDir()
	writeFile(t, dir, ".importonly.yaml", "workers: 2\n")

	cfg, err := config.Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Workers)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "x.y,z.{a,b}", cfg.RuleConfig())
}
