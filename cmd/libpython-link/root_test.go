package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), err
}

func writeDescription(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "libpython.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCmdRequiredFlags(t *testing.T) {
	_, err := execute(t, "--out-dir", t.TempDir())
	assert.EqualError(t, err, "--description is required")

	_, err = execute(t, "--description", "x.yaml")
	assert.EqualError(t, err, "--out-dir is required")
}

func TestRootCmdEnvFlags(t *testing.T) {
	t.Setenv("LIBPYTHON_OUT_DIR", t.TempDir())

	_, err := execute(t, "-d", "x.yaml", "--format", "toml")
	assert.EqualError(t, err, `unknown directive format "toml"`)
}

func TestRootCmdInvalidVerbosity(t *testing.T) {
	_, err := execute(t, "-v", "chatty")
	assert.Error(t, err)
}

func TestRootCmdAppleWithoutSDK(t *testing.T) {
	desc := writeDescription(t, `
platform:
  host: aarch64-apple-darwin
  target: aarch64-apple-darwin
initFunctions:
  - name: sys
`)
	outDir := filepath.Join(t.TempDir(), "out")

	stdout, err := execute(t, "-d", desc, "-o", outDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Apple SDK info should be defined when targeting Apple platforms")
	assert.Empty(t, stdout)
	assert.NoDirExists(t, outDir)
}

func TestRootCmdPlatformFromEnv(t *testing.T) {
	t.Setenv("HOST", "aarch64-apple-darwin")
	t.Setenv("TARGET", "aarch64-apple-ios")
	desc := writeDescription(t, "initFunctions: [{name: sys}]\n")
	metrics := filepath.Join(t.TempDir(), "libpython.prom")

	_, err := execute(t, "-d", desc, "-o", t.TempDir(), "--metrics-file", metrics)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Apple SDK info should be defined")

	content, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(content), `libpython_builds_total{result="error",target="aarch64-apple-ios"} 1`)
}

func TestRootCmdConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "libpython-link.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: toml\n"), 0o644))

	_, err := execute(t, "--config", cfg, "-d", "x.yaml", "-o", t.TempDir())
	assert.EqualError(t, err, `unknown directive format "toml"`)
}

func TestRootCmdBadDescription(t *testing.T) {
	desc := writeDescription(t, "initFunctions: [{init: PyInit_x}]\n")

	_, err := execute(t, "-d", desc, "-o", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration error")
}
