package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Auth       AuthConfig       `yaml:"auth" mapstructure:"auth"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Enrich     EnrichConfig     `yaml:"enrich" mapstructure:"enrich"`
	OpenAI     OpenAIConfig     `yaml:"openai" mapstructure:"openai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Exa        ExaConfig        `yaml:"exa" mapstructure:"exa"`
	Import     ImportConfig     `yaml:"import" mapstructure:"import"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// AuthConfig holds the shared secret used to verify bearer tokens.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// EnrichConfig configures the enrichment service.
type EnrichConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"`
	CallTimeoutSecs   int     `yaml:"call_timeout_secs" mapstructure:"call_timeout_secs"`
	BatchSize         int     `yaml:"batch_size" mapstructure:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	PhoneRegion       string  `yaml:"phone_region" mapstructure:"phone_region"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// ExaConfig holds Exa API settings.
type ExaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ImportConfig configures the spreadsheet import pipeline.
type ImportConfig struct {
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size"`
}

// Provider names accepted by enrich.provider.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderPerplexity = "perplexity"
	ProviderExa        = "exa"
)

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credentials default to "" so AutomaticEnv can see them on Unmarshal.
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("enrich.provider", ProviderPerplexity)
	v.SetDefault("enrich.call_timeout_secs", 90)
	v.SetDefault("enrich.batch_size", 5)
	v.SetDefault("enrich.requests_per_second", 2.0)
	v.SetDefault("enrich.phone_region", "US")
	v.SetDefault("openai.key", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("perplexity.key", "")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("exa.key", "")
	v.SetDefault("exa.base_url", "https://api.exa.ai")
	v.SetDefault("import.chunk_size", 500)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a given command depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Auth.JWTSecret == "" {
			errs = append(errs, "auth.jwt_secret is required")
		}
	case "import", "enrich", "migrate":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "sqlite":
	default:
		errs = append(errs, "store.driver must be postgres or sqlite")
	}

	if c.Import.ChunkSize < 1 || c.Import.ChunkSize > 500 {
		errs = append(errs, "import.chunk_size must be between 1 and 500")
	}
	if c.Enrich.BatchSize < 1 || c.Enrich.BatchSize > 5 {
		errs = append(errs, "enrich.batch_size must be between 1 and 5")
	}
	if c.Enrich.CallTimeoutSecs <= 0 {
		errs = append(errs, "enrich.call_timeout_secs must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// KeyStatus reports which provider credentials are configured.
func (c *Config) KeyStatus() map[string]bool {
	return map[string]bool{
		ProviderOpenAI:     c.OpenAI.Key != "",
		ProviderAnthropic:  c.Anthropic.Key != "",
		ProviderPerplexity: c.Perplexity.Key != "",
		ProviderExa:        c.Exa.Key != "",
	}
}

// RequireKey returns an error when the named provider has no credential.
func (c *Config) RequireKey(provider string) error {
	configured, ok := c.KeyStatus()[provider]
	if !ok {
		return eris.Errorf("config: unknown provider %q", provider)
	}
	if !configured {
		return eris.Errorf("config: %s.key is not configured", provider)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
