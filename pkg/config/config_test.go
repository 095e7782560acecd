package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment does
// not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "INITIAL_MINUTES", "TICK_INTERVAL", "TICK_WORKERS",
		"STATIC_DIR", "ALLOWED_ORIGINS", "NATS_URL", "NATS_SUBJECT",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.InitialTime)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
port: "4000"
initial_time: 3m
tick_interval: 500ms
tick_workers: 8
allowed_origins:
  - http://localhost:5173
nats_url: nats://localhost:4222
`)
	t.Setenv("PORT", "5000")
	t.Setenv("INITIAL_MINUTES", "10")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.InitialTime)
	assert.Equal(t, 500*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, 8, cfg.TickWorkers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, DefaultNATSSubject, cfg.NATSSubject)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "missing file", file: filepath.Join(os.TempDir(), "does-not-exist", "c.yaml")},
		{name: "bad minutes", env: map[string]string{"INITIAL_MINUTES": "five"}},
		{name: "bad interval", env: map[string]string{"TICK_INTERVAL": "soon"}},
		{name: "bad workers", env: map[string]string{"TICK_WORKERS": "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.file)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "port: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{name: "port", modify: func(c *Config) { c.Port = "http" }},
		{name: "port range", modify: func(c *Config) { c.Port = "70000" }},
		{name: "initial time", modify: func(c *Config) { c.InitialTime = 0 }},
		{name: "tick interval", modify: func(c *Config) { c.TickInterval = -time.Second }},
		{name: "workers", modify: func(c *Config) { c.TickWorkers = 0 }},
		{name: "nats subject", modify: func(c *Config) { c.NATSURL, c.NATSSubject = "nats://x", "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
