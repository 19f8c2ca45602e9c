package cmd

import (
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Address string `env:"CMD_TEST_ADDRESS" envDefault:"127.0.0.1:8080"`
	Mode    string `env:"CMD_TEST_MODE" envDefault:"server"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_ADDRESS", "env:9000")
	t.Setenv("CMD_TEST_MODE", "env-mode")
	t.Setenv(EnvFileVariable, "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg := testConfig{}
	require.NoError(t, ParseConfig(&cfg))
	fs.StringVar(&cfg.Address, "address", cfg.Address, "address")
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "mode")

	require.NoError(t, ParseArgs(fs, []string{"-address", "flag:9001"}))
	assert.Equal(t, "flag:9001", cfg.Address)
	assert.Equal(t, "env-mode", cfg.Mode)
}

func TestParseConfigFromArgsReadsEnvAndFlags(t *testing.T) {
	t.Setenv("CMD_TEST_ADDRESS", "configarg:9000")
	t.Setenv("CMD_TEST_MODE", "configarg-mode")
	t.Setenv(EnvFileVariable, "")

	cfg := testConfig{}
	fs := flag.NewFlagSet("configargs", flag.ContinueOnError)
	fs.StringVar(&cfg.Address, "address", "", "address")
	fs.StringVar(&cfg.Mode, "mode", "", "mode")
	require.NoError(t, ParseConfigFromArgs(&cfg, fs, []string{"-address", "flag:9002"}))
	assert.Equal(t, "flag:9002", cfg.Address)
	assert.Equal(t, "configarg-mode", cfg.Mode)
}

func TestParseConfigLoadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.env")
	require.NoError(t, os.WriteFile(path, []byte("CMD_TEST_MODE=from-file\n"), 0o600))
	t.Setenv(EnvFileVariable, path)
	t.Setenv("CMD_TEST_ADDRESS", "env:9003")
	// godotenv never overrides variables that are already set, so clear the
	// one the file provides and restore it afterwards.
	t.Setenv("CMD_TEST_MODE", "")
	require.NoError(t, os.Unsetenv("CMD_TEST_MODE"))

	cfg := testConfig{}
	require.NoError(t, ParseConfig(&cfg))
	assert.Equal(t, "from-file", cfg.Mode)
	assert.Equal(t, "env:9003", cfg.Address)
}

func TestParseConfigRejectsMissingEnvFile(t *testing.T) {
	t.Setenv(EnvFileVariable, filepath.Join(t.TempDir(), "missing.env"))

	cfg := testConfig{}
	err := ParseConfig(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load env file")
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	var cfg *testConfig
	require.Error(t, ParseConfig(cfg))
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	require.Error(t, ParseArgs(nil, []string{}))
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	require.Error(t, RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }))
	require.Error(t, RunWithTelemetry(context.Background(), ServiceStorefront, nil))
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("STOREFRONT_OTEL_ENDPOINT", "")
	want := errors.New("boom")

	err := RunWithTelemetry(context.Background(), ServiceStorefront, func(context.Context) error { return want })
	require.ErrorIs(t, err, want)
}
