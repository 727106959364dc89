package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Port    int      `env:"SAMPLE_CFG_PORT" envDefault:"8010"`
	Model   string   `env:"SAMPLE_CFG_MODEL" envDefault:"gemini-2.0-flash"`
	Brokers []string `env:"SAMPLE_CFG_BROKERS" envDefault:"localhost:9092" envSeparator:","`
}

type requiredConfig struct {
	APIKey string `env:"SAMPLE_CFG_API_KEY,required"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8010, cfg.Port)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SAMPLE_CFG_PORT", "9090")
	t.Setenv("SAMPLE_CFG_BROKERS", "a:9092,b:9092")

	var cfg sampleConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
}

func TestLoad_Errors(t *testing.T) {
	var req requiredConfig
	err := Load(&req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")

	t.Setenv("SAMPLE_CFG_PORT", "not-a-number")
	var cfg sampleConfig
	require.Error(t, Load(&cfg))
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SAMPLE_CFG_API_KEY=from-file\nSAMPLE_CFG_MODEL=file-model\n"), 0o600))

	t.Setenv("SAMPLE_CFG_MODEL", "env-model")
	t.Cleanup(func() { _ = os.Unsetenv("SAMPLE_CFG_API_KEY") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("SAMPLE_CFG_API_KEY"))
	assert.Equal(t, "env-model", os.Getenv("SAMPLE_CFG_MODEL"))
}
