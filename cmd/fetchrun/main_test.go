package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func decodeResponse(t *testing.T, out string) Response {
	t.Helper()

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout must be a single JSON record: %q", out)
	return resp
}

func TestCLI_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"run", "--help"}, {"merge", "--help"}, {"verify", "--help"}} {
		code, stdout, _ := runCLI(t, args...)
		require.Equal(t, 0, code, "args %v", args)
		require.Contains(t, stdout, "Usage:")
	}
}

func TestCLI_UnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "deploy")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "unknown command")
}

func TestCLI_Run_RequiresRulesPath(t *testing.T) {
	t.Setenv("FETCHRUN_RULES_PATH", "")

	code, stdout, _ := runCLI(t, "run", "--log-level", "error")
	require.Equal(t, 1, code)

	resp := decodeResponse(t, stdout)
	require.True(t, resp.Failed)
	require.False(t, resp.Changed)
	require.Contains(t, resp.Msg, "rules path is required")
}

func TestCLI_Run_RejectsPlainHTTP(t *testing.T) {
	stagingDir := t.TempDir()

	code, stdout, _ := runCLI(t, "run",
		"--log-level", "error",
		"--rules-path", "/etc/prometheus/rules",
		"--source-url", "http://127.0.0.1:1/prometheus_merger",
		"--staging-dir", stagingDir,
	)
	require.Equal(t, 1, code)

	resp := decodeResponse(t, stdout)
	require.True(t, resp.Failed)
	require.Contains(t, resp.Msg, "https")

	entries, err := os.ReadDir(stagingDir)
	require.NoError(t, err)
	require.Empty(t, entries, "ephemeral staging directory must be removed")
}

func TestCLI_Run_InvalidLogLevel(t *testing.T) {
	code, stdout, _ := runCLI(t, "run", "--log-level", "loud", "--rules-path", "x")
	require.Equal(t, 1, code)
	require.True(t, decodeResponse(t, stdout).Failed)
}

func TestCLI_Merge(t *testing.T) {
	dir := t.TempDir()
	rules := map[string]string{
		"node.yml": `groups:
- name: node
  rules:
  - alert: NodeDown
    expr: up{job="node"} == 0
    for: 5m
  - alert: NodeDownLegacy
    expr: up{job="legacy"} == 0
    enabled: false
`,
		"overrides.yml": `groups:
- name: overrides
  rules:
  - alert: NodeDownDev
    expr: up{job="node",env="dev"} == 0
    for: 30m
    override: ["NodeDown"]
`,
	}
	for name, content := range rules {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	code, stdout, _ := runCLI(t, "merge", "--log-level", "error", "--rules-path", dir)
	require.Equal(t, 0, code)

	resp := decodeResponse(t, stdout)
	require.False(t, resp.Failed)
	require.True(t, resp.Changed)
	require.Contains(t, resp.Alerts, `up{job="node",job!="node",env!="dev"} == 0`)
	require.Contains(t, resp.Alerts, "NodeDownDev")
	require.NotContains(t, resp.Alerts, "NodeDownLegacy")
	require.NotContains(t, resp.Alerts, "override:")
}

func TestCLI_Merge_MissingDir(t *testing.T) {
	code, stdout, _ := runCLI(t, "merge", "--log-level", "error", "--rules-path", filepath.Join(t.TempDir(), "missing"))
	require.Equal(t, 1, code)
	require.True(t, decodeResponse(t, stdout).Failed)
}

func TestCLI_Verify_Checksum(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "prometheus_merger")
	content := []byte("#!/bin/sh\necho merged\n")
	require.NoError(t, os.WriteFile(artifact, content, 0o600))

	sum := sha256.Sum256(content)
	digest := hex.EncodeToString(sum[:])
	require.NoError(t, os.WriteFile(artifact+".sha256", []byte(digest+"  prometheus_merger\n"), 0o600))

	t.Run("inline digest", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "verify", artifact, "--sha256", digest)
		require.Equal(t, 0, code)
		require.Contains(t, stdout, "Checksum verified")
	})

	t.Run("checksum file", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "verify", artifact, "--checksum", artifact+".sha256")
		require.Equal(t, 0, code)
		require.Contains(t, stdout, "Verified: 1 checks")
	})

	t.Run("auto-detect", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "verify", artifact, "--all")
		require.Equal(t, 0, code)
		require.Contains(t, stdout, "Checksum verified")
	})

	t.Run("mismatch", func(t *testing.T) {
		code, stdout, stderr := runCLI(t, "verify", artifact, "--sha256", strings.Repeat("0", 64))
		require.Equal(t, 1, code)
		require.Contains(t, stdout, "Checksum verification FAILED")
		require.Contains(t, stderr, "1 verification checks failed")
	})
}

func TestCLI_Verify_Nothing(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "prometheus_merger")
	require.NoError(t, os.WriteFile(artifact, []byte("x"), 0o600))

	code, _, stderr := runCLI(t, "verify", artifact)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "no verification checks performed")
}

func TestCLI_Verify_SignatureWithoutKeys(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "prometheus_merger")
	require.NoError(t, os.WriteFile(artifact, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(artifact+".asc", []byte("sig"), 0o600))

	code, stdout, _ := runCLI(t, "verify", artifact, "--gpg-sig", artifact+".asc")
	require.Equal(t, 1, code)
	require.Contains(t, stdout, "no GPG keys imported")
}
