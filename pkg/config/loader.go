package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// configName is the config file name without extension.
	configName = ".rotalsp"
	// configType is the config file format.
	configType = "yaml"
	// envPrefix is the environment variable prefix for rotalsp settings.
	envPrefix = "ROTALSP"
	// userConfigDir is the directory under os.UserConfigDir searched last.
	userConfigDir = "rotalsp"
)

// LoadConfig merges defaults, the config file and ROTALSP_* variables, in
// increasing precedence. An explicit configPath must exist; otherwise
// .rotalsp.yaml is searched in the working directory, $HOME and the user
// config directory, and a missing file means defaults.
//
// Relative names.sources and catalog.path entries in a config file are
// resolved against the file's directory, since editors start the server
// from arbitrary working directories.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := newViper()

	if configPath != "" {
		_, statErr := os.Stat(configPath)
		if statErr != nil {
			return nil, fmt.Errorf("read config: %w", statErr)
		}

		viperCfg.SetConfigFile(configPath)
	} else {
		for _, dir := range searchDirs() {
			viperCfg.AddConfigPath(dir)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	if used := viperCfg.ConfigFileUsed(); used != "" && readErr == nil {
		cfg.resolvePaths(filepath.Dir(used))
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	var cfg Config

	_ = newViper().Unmarshal(&cfg) //nolint:errcheck // static defaults always decode

	return &cfg
}

func newViper() *viper.Viper {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigName(configName)
	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	return viperCfg
}

func searchDirs() []string {
	dirs := []string{"."}

	home, err := os.UserHomeDir()
	if err == nil {
		dirs = append(dirs, home)
	}

	cfgDir, err := os.UserConfigDir()
	if err == nil {
		dirs = append(dirs, filepath.Join(cfgDir, userConfigDir))
	}

	return dirs
}

// resolvePaths anchors relative file settings at base.
func (c *Config) resolvePaths(base string) {
	for i, src := range c.Names.Sources {
		c.Names.Sources[i] = anchor(base, src)
	}

	if c.Catalog.Path != "" {
		c.Catalog.Path = anchor(base, c.Catalog.Path)
	}
}

func anchor(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(base, path)
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("names.sources", []string{})
	viperCfg.SetDefault("names.watch", DefaultNamesWatch)
	viperCfg.SetDefault("names.similar_distance", DefaultNamesSimilarDistance)
	viperCfg.SetDefault("names.cache_size", DefaultNamesCacheSize)
	viperCfg.SetDefault("names.search_limit", DefaultNamesSearchLimit)

	viperCfg.SetDefault("catalog.path", "")

	viperCfg.SetDefault("validation.max_suggestions", DefaultValidationMaxSuggestions)
	viperCfg.SetDefault("validation.max_known_hint", DefaultValidationMaxKnownHint)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.json", DefaultLoggingJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryOTLPInsecure)
	viperCfg.SetDefault("telemetry.metrics_addr", "")
}
