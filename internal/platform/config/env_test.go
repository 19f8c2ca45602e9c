package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envTestConfig struct {
	Port    int      `env:"STOREFRONT_TEST_PORT" envDefault:"123"`
	Origins []string `env:"STOREFRONT_TEST_ORIGINS" envSeparator:","`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	require.NoError(t, ParseEnv(&cfg))
	assert.Equal(t, 123, cfg.Port)
	assert.Empty(t, cfg.Origins)
}

func TestParseEnvSlices(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_ORIGINS", "a,b")
	var cfg envTestConfig

	require.NoError(t, ParseEnv(&cfg))
	assert.Equal(t, []string{"a", "b"}, cfg.Origins)
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("STOREFRONT_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestParseEnvFromIgnoresProcessEnvironment(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_PORT", "999")
	var cfg envTestConfig

	require.NoError(t, ParseEnvFrom(&cfg, map[string]string{"STOREFRONT_TEST_ORIGINS": "x"}))
	assert.Equal(t, 123, cfg.Port)
	assert.Equal(t, []string{"x"}, cfg.Origins)
}
