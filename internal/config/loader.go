package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
	"github.com/xeipuuv/gojsonschema"
)

const (
	// configName is the config file name without extension.
	configName = ".importonly"

	pyprojectFile  = "pyproject.toml"
	pyprojectTable = "tool.importonly"

	// envPrefix is the environment variable prefix for importonly settings.
	envPrefix = "IMPORTONLY"

	// envKeySeparator is the nested key separator in environment variable names.
	envKeySeparator = "_"
)

// configExts are tried in order for configName in every search directory.
var configExts = []string{".yaml", ".yml"}

// Defaults applied before any file or environment value.
const (
	DefaultFormat   = FormatText
	DefaultColor    = ColorAuto
	DefaultLogLevel = "info"
)

//go:embed schema.json
var schemaJSON []byte

// ErrSchema indicates the config file does not match the embedded JSON schema.
var ErrSchema = errors.New("config does not match schema")

// Load reads configuration from a file, env vars and defaults. A non-empty
// configPath must exist; a path ending in .toml is read as pyproject.toml.
// Otherwise .importonly.yaml is searched in searchDirs (default: CWD, $HOME)
// and then the [tool.importonly] table of each pyproject.toml. A missing file
// is not an error.
func Load(configPath string, searchDirs ...string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	settings, source, err := readSettings(configPath, searchDirs)
	if err != nil {
		return nil, err
	}

	if settings != nil {
		if err := validateSchema(settings); err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}

		if err := viperCfg.MergeConfigMap(settings); err != nil {
			return nil, fmt.Errorf("merge %s: %w", source, err)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	cfg.Source = source

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or env var is set.
func Default() *Config {
	viperCfg := viper.New()
	applyDefaults(viperCfg)

	var cfg Config

	// Defaults always decode.
	_ = viperCfg.Unmarshal(&cfg)

	return &cfg
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("allowed_direct_imports", []string{})
	viperCfg.SetDefault("search_paths", []string{"."})
	viperCfg.SetDefault("exclude", []string{})
	viperCfg.SetDefault("disable", []string{})
	viperCfg.SetDefault("workers", runtime.NumCPU())
	viperCfg.SetDefault("format", DefaultFormat)
	viperCfg.SetDefault("color", DefaultColor)

	viperCfg.SetDefault("log.level", DefaultLogLevel)
	viperCfg.SetDefault("log.json", false)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.sample_ratio", 0.0)
	viperCfg.SetDefault("telemetry.metrics_textfile", "")
}

// readSettings returns the raw settings of the selected file and its path,
// or nil settings when no file applies.
func readSettings(configPath string, searchDirs []string) (map[string]any, string, error) {
	if configPath != "" {
		if strings.EqualFold(filepath.Ext(configPath), ".toml") {
			settings, err := readPyproject(configPath)
			if err != nil {
				return nil, "", err
			}

			if settings == nil {
				settings = map[string]any{}
			}

			return settings, configPath, nil
		}

		settings, err := readYAML(configPath)

		return settings, configPath, err
	}

	if len(searchDirs) == 0 {
		searchDirs = defaultSearchDirs()
	}

	for _, dir := range searchDirs {
		for _, ext := range configExts {
			path := filepath.Join(dir, configName+ext)
			if !fileExists(path) {
				continue
			}

			settings, err := readYAML(path)

			return settings, path, err
		}
	}

	for _, dir := range searchDirs {
		path := filepath.Join(dir, pyprojectFile)
		if !fileExists(path) {
			continue
		}

		settings, err := readPyproject(path)
		if err != nil {
			return nil, "", err
		}

		if settings != nil {
			return settings, path, nil
		}
	}

	return nil, "", nil
}

func readYAML(path string) (map[string]any, error) {
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("yaml")

	if err := file.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return file.AllSettings(), nil
}

// readPyproject returns the [tool.importonly] table, or nil when absent.
func readPyproject(path string) (map[string]any, error) {
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("toml")

	if err := file.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	table := file.Sub(pyprojectTable)
	if table == nil {
		return nil, nil
	}

	return table.AllSettings(), nil
}

func validateSchema(settings map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(settings),
	)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		msgs = append(msgs, verr.String())
	}

	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}

func defaultSearchDirs() []string {
	dirs := []string{"."}

	home, err := os.UserHomeDir()
	if err == nil {
		dirs = append(dirs, home)
	}

	return dirs
}

func fileExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}
