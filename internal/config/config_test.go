package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "perplexity", cfg.Enrich.Provider)
	assert.Equal(t, 90, cfg.Enrich.CallTimeoutSecs)
	assert.Equal(t, 5, cfg.Enrich.BatchSize)
	assert.Equal(t, "US", cfg.Enrich.PhoneRegion)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
	assert.Equal(t, "https://api.exa.ai", cfg.Exa.BaseURL)
	assert.Equal(t, int64(4096), cfg.Anthropic.MaxTokens)
	assert.Equal(t, 500, cfg.Import.ChunkSize)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
  format: console
server:
  port: 9090
enrich:
  provider: exa
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "exa", cfg.Enrich.Provider)
	// Defaults still apply for unset values
	assert.Equal(t, 500, cfg.Import.ChunkSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CRM_STORE_DRIVER", "postgres")
	t.Setenv("CRM_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvCredentials(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CRM_OPENAI_KEY", "sk-test")
	t.Setenv("CRM_AUTH_JWT_SECRET", "shh")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.OpenAI.Key)
	assert.Equal(t, "shh", cfg.Auth.JWTSecret)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Server.Port = 8080
	cfg.Auth.JWTSecret = "secret"
	cfg.Enrich.BatchSize = 5
	cfg.Enrich.CallTimeoutSecs = 90
	cfg.Import.ChunkSize = 500
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		mutate  func(*Config)
		wantErr string
	}{
		{"serve ok", "serve", func(*Config) {}, ""},
		{"import ok", "import", func(*Config) {}, ""},
		{"bad port", "serve", func(c *Config) { c.Server.Port = 0 }, "server.port must be > 0"},
		{"no secret", "serve", func(c *Config) { c.Auth.JWTSecret = "" }, "auth.jwt_secret is required"},
		{"postgres without url", "import", func(c *Config) { c.Store.Driver = "postgres" }, "store.database_url is required"},
		{"bad driver", "import", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver"},
		{"chunk too large", "import", func(c *Config) { c.Import.ChunkSize = 501 }, "import.chunk_size"},
		{"batch too large", "enrich", func(c *Config) { c.Enrich.BatchSize = 6 }, "enrich.batch_size"},
		{"zero timeout", "enrich", func(c *Config) { c.Enrich.CallTimeoutSecs = 0 }, "call_timeout_secs"},
		{"unknown mode", "bogus", func(*Config) {}, "unknown mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestKeyStatus(t *testing.T) {
	cfg := &Config{}
	cfg.OpenAI.Key = "sk"
	cfg.Exa.Key = "exa"

	assert.Equal(t, map[string]bool{
		"openai":     true,
		"anthropic":  false,
		"perplexity": false,
		"exa":        true,
	}, cfg.KeyStatus())
}

func TestRequireKey(t *testing.T) {
	cfg := &Config{}
	cfg.Anthropic.Key = "sk-ant"

	assert.NoError(t, cfg.RequireKey("anthropic"))

	err := cfg.RequireKey("openai")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai.key is not configured")

	err = cfg.RequireKey("gemini")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
