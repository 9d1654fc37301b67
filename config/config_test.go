package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, defaultHTTPPort, cfg.HTTP.Port)
	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, HashAlgorithmBcrypt, cfg.Auth.HashAlgorithm)
	require.NotNil(t, cfg.Breach)
	require.NotNil(t, cfg.Breach.Enabled)
	assert.True(t, cfg.Breach.IsEnabled())
	assert.Equal(t, defaultBreachBaseURL, cfg.Breach.BaseURL)
	assert.Equal(t, defaultBreachTimeout, cfg.Breach.Timeout)
	assert.Equal(t, BreachFailClosed, cfg.Breach.FailureMode)
	assert.Equal(t, 1, cfg.Breach.MinOccurrences)
	assert.Equal(t, defaultBreachCacheTTL, cfg.Breach.CacheTTL)
	assert.NotNil(t, cfg.Redis)
	assert.NotNil(t, cfg.Policy)
}

func TestApplyDefaults_ClampsBreachTimeout(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want time.Duration
	}{
		{in: 100 * time.Millisecond, want: time.Second},
		{in: 2 * time.Second, want: 2 * time.Second},
		{in: time.Minute, want: 5 * time.Second},
	}

	for _, tt := range tests {
		cfg := &Config{Breach: &BreachConfig{Timeout: tt.in}}
		cfg.ApplyDefaults()
		assert.Equal(t, tt.want, cfg.Breach.Timeout, "timeout %s", tt.in)
	}
}

func TestApplyDefaults_NormalizesBreachURL(t *testing.T) {
	cfg := &Config{Breach: &BreachConfig{BaseURL: "http://localhost:9000/"}}
	cfg.ApplyDefaults()

	assert.Equal(t, "http://localhost:9000", cfg.Breach.BaseURL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Store: StoreConfig{Driver: StoreDriverMemory}}
		cfg.ApplyDefaults()

		return cfg
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }},
		{name: "postgres without section", mutate: func(c *Config) { c.Store.Driver = StoreDriverPostgres }},
		{name: "unknown algorithm", mutate: func(c *Config) { c.Auth.HashAlgorithm = "md5" }},
		{name: "unknown failure mode", mutate: func(c *Config) { c.Breach.FailureMode = "maybe" }},
		{name: "inverted length bounds", mutate: func(c *Config) { c.Policy.MinLength, c.Policy.MaxLength = 20, 10 }},
		{name: "redis without url", mutate: func(c *Config) { c.Redis.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadWithEnv_OverridesFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
store:
  driver: memory
breach:
  enabled: true
  timeout: 3s
  failureMode: closed
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), content, 0o600))
	t.Chdir(dir)
	t.Setenv("BREACH_TIMEOUT", "2s")
	t.Setenv("BREACH_FAILUREMODE", "open")

	cfg, err := LoadWithEnv[Config]("test")
	require.NoError(t, err)
	require.NotNil(t, cfg.Breach)

	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.Breach.Timeout)
	assert.Equal(t, BreachFailOpen, cfg.Breach.FailureMode)
}

func TestLoadWithEnv_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadWithEnv[Config]("absent")
	assert.Error(t, err)
}

func TestApplyDefaults_BreachEnabledUnlessExplicitlyOff(t *testing.T) {
	disabled := false

	tests := []struct {
		name   string
		breach *BreachConfig
		want   bool
	}{
		{name: "section missing", breach: nil, want: true},
		{name: "section present, enabled omitted", breach: &BreachConfig{Timeout: 2 * time.Second}, want: true},
		{name: "explicitly disabled", breach: &BreachConfig{Enabled: &disabled}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Breach: tt.breach}
			cfg.ApplyDefaults()
			assert.Equal(t, tt.want, cfg.Breach.IsEnabled())
		})
	}
}

func TestLoadWithEnv_SingleBreachOverrideKeepsCheckEnabled(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
store:
  driver: memory
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), content, 0o600))
	t.Chdir(dir)
	t.Setenv("BREACH_TIMEOUT", "2s")

	cfg, err := LoadWithEnv[Config]("test")
	require.NoError(t, err)
	cfg.ApplyDefaults()

	require.NotNil(t, cfg.Breach)
	assert.Equal(t, 2*time.Second, cfg.Breach.Timeout)
	assert.True(t, cfg.Breach.IsEnabled())
	assert.Equal(t, BreachFailClosed, cfg.Breach.FailureMode)
}

func TestLoadWithEnv_BreachCanBeDisabledExplicitly(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
store:
  driver: memory
breach:
  timeout: 3s
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.yaml"), content, 0o600))
	t.Chdir(dir)
	t.Setenv("BREACH_ENABLED", "false")

	cfg, err := LoadWithEnv[Config]("test")
	require.NoError(t, err)
	cfg.ApplyDefaults()

	assert.False(t, cfg.Breach.IsEnabled())
}
