package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	require.Equal(t, DefaultSourceURL, cfg.SourceURL)
	require.Equal(t, "info", cfg.Log.Level)
	require.Empty(t, cfg.StagingPath)
	require.Zero(t, cfg.Timeout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fetchrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rules_path: /etc/prometheus/rules
sha256: abc123
staging_path: /tmp/prom_merge
timeout: 90s
log:
  level: debug
  format: json
`), 0o600))

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)

	require.Equal(t, "/etc/prometheus/rules", cfg.RulesPath)
	require.Equal(t, "abc123", cfg.SHA256)
	require.Equal(t, "/tmp/prom_merge", cfg.StagingPath)
	require.Equal(t, 90*time.Second, cfg.Timeout)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, DefaultSourceURL, cfg.SourceURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(LoadOptions{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fetchrun.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules_path: /from/file\n"), 0o600))

	t.Setenv("FETCHRUN_RULES_PATH", "/from/env")
	t.Setenv("FETCHRUN_LOG_LEVEL", "warn")

	cfg, err := Load(LoadOptions{ConfigFile: path})
	require.NoError(t, err)

	require.Equal(t, "/from/env", cfg.RulesPath)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("FETCHRUN_RULES_PATH", "/from/env")
	t.Setenv("FETCHRUN_SOURCE_URL", "https://mirror.example.com/prometheus_merger")

	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	fs.String("rules-path", "", "")
	fs.String("source-url", "", "")
	fs.Duration("timeout", 0, "")
	require.NoError(t, fs.Parse([]string{"--rules-path", "/from/flag", "--timeout", "2m"}))

	cfg, err := Load(LoadOptions{Flags: fs})
	require.NoError(t, err)

	require.Equal(t, "/from/flag", cfg.RulesPath)
	require.Equal(t, "https://mirror.example.com/prometheus_merger", cfg.SourceURL, "unset flags must not mask env")
	require.Equal(t, 2*time.Minute, cfg.Timeout)
}

func TestLoad_NegativeTimeout(t *testing.T) {
	t.Setenv("FETCHRUN_TIMEOUT", "-1s")

	_, err := Load(LoadOptions{})
	require.Error(t, err)
}
