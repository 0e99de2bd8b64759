// Package config loads fetchrun settings from defaults, an optional YAML
// file, FETCHRUN_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment variables read by Load
	EnvPrefix = "FETCHRUN"

	// DefaultSourceURL is the prometheus-alert-overrider release that is
	// fetched when no source URL is configured
	DefaultSourceURL = "https://github.com/lablabs/prometheus-alert-overrider/releases/download/v0.2.0/prometheus_merger"
)

// Config holds all runtime settings
type Config struct {
	RulesPath    string        `mapstructure:"rules_path"`
	SourceURL    string        `mapstructure:"source_url"`
	SHA256       string        `mapstructure:"sha256"`
	SignatureURL string        `mapstructure:"signature_url"`
	GPGKeyFile   string        `mapstructure:"gpg_key_file"`
	GPGKeysURL   string        `mapstructure:"gpg_keys_url"`
	StagingPath  string        `mapstructure:"staging_path"`
	StagingDir   string        `mapstructure:"staging_dir"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Log          LogConfig     `mapstructure:"log"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadOptions controls where Load looks for settings
type LoadOptions struct {
	ConfigFile string
	Flags      *pflag.FlagSet
}

// flagKeys maps command-line flag names to config keys
var flagKeys = map[string]string{
	"rules-path":    "rules_path",
	"source-url":    "source_url",
	"sha256":        "sha256",
	"signature-url": "signature_url",
	"gpg-key-file":  "gpg_key_file",
	"gpg-keys-url":  "gpg_keys_url",
	"staging-path":  "staging_path",
	"staging-dir":   "staging_dir",
	"timeout":       "timeout",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		SourceURL: DefaultSourceURL,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load resolves the configuration
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("rules_path", defaults.RulesPath)
	v.SetDefault("source_url", defaults.SourceURL)
	v.SetDefault("sha256", defaults.SHA256)
	v.SetDefault("signature_url", defaults.SignatureURL)
	v.SetDefault("gpg_key_file", defaults.GPGKeyFile)
	v.SetDefault("gpg_keys_url", defaults.GPGKeysURL)
	v.SetDefault("staging_path", defaults.StagingPath)
	v.SetDefault("staging_dir", defaults.StagingDir)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			f := opts.Flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative: %v", cfg.Timeout)
	}

	return &cfg, nil
}
