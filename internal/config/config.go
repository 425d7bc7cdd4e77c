package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Values come from environment
// variables, optionally overlaid on a YAML file pointed to by ADVISOR_CONFIG_FILE.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" yaml:"environment" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" yaml:"log_level" default:"info"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" yaml:"listen_addr" default:":8080"`

	// Anthropic
	AnthropicAPIKey string        `envconfig:"ANTHROPIC_API_KEY" yaml:"anthropic_api_key"`
	Model           string        `envconfig:"MODEL" yaml:"model" default:"claude-sonnet-4-5"`
	MaxTokens       int           `envconfig:"MAX_TOKENS" yaml:"max_tokens" default:"4096"`
	LLMTimeout      time.Duration `envconfig:"LLM_TIMEOUT" yaml:"llm_timeout" default:"120s"`

	// Retry behavior for LLM calls
	RetryMaxAttempts int           `envconfig:"RETRY_MAX_ATTEMPTS" yaml:"retry_max_attempts" default:"3"`
	RetryBaseDelay   time.Duration `envconfig:"RETRY_BASE_DELAY" yaml:"retry_base_delay" default:"500ms"`

	// Storage
	DBPath string `envconfig:"DB_PATH" yaml:"db_path" default:"advisor.db"`

	// HTTP API
	AuthMode    string `envconfig:"AUTH_MODE" yaml:"auth_mode" default:"none"` // "api-key" or "none"
	APIKey      string `envconfig:"API_KEY" yaml:"api_key"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" yaml:"cors_origins"`
}

// AuthEnabled returns true when the HTTP API requires a bearer key.
func (c *Config) AuthEnabled() bool {
	return strings.EqualFold(c.AuthMode, "api-key")
}

// CORSOriginList returns the parsed list of allowed origins.
// Returns nil if not configured.
func (c *Config) CORSOriginList() []string {
	if c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, o := range parts {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate checks cross-field constraints that envconfig cannot express.
func (c *Config) Validate() error {
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if c.AuthEnabled() && c.APIKey == "" {
		return fmt.Errorf("API_KEY is required when AUTH_MODE=api-key")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	return nil
}

// Load reads configuration from environment variables with the ADVISOR prefix.
// If ADVISOR_CONFIG_FILE is set, the YAML file supplies values for keys not set
// in the environment. Precedence: environment, then file, then defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("ADVISOR", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	path := os.Getenv("ADVISOR_CONFIG_FILE")
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	overlay(&cfg, &file)
	return &cfg, nil
}

// overlay copies file values into cfg for every key the environment left unset.
func overlay(cfg, file *Config) {
	setString(&cfg.Environment, file.Environment, "ADVISOR_ENVIRONMENT")
	setString(&cfg.LogLevel, file.LogLevel, "ADVISOR_LOG_LEVEL")
	setString(&cfg.ListenAddr, file.ListenAddr, "ADVISOR_LISTEN_ADDR")
	setString(&cfg.AnthropicAPIKey, file.AnthropicAPIKey, "ADVISOR_ANTHROPIC_API_KEY")
	setString(&cfg.Model, file.Model, "ADVISOR_MODEL")
	setInt(&cfg.MaxTokens, file.MaxTokens, "ADVISOR_MAX_TOKENS")
	setDuration(&cfg.LLMTimeout, file.LLMTimeout, "ADVISOR_LLM_TIMEOUT")
	setInt(&cfg.RetryMaxAttempts, file.RetryMaxAttempts, "ADVISOR_RETRY_MAX_ATTEMPTS")
	setDuration(&cfg.RetryBaseDelay, file.RetryBaseDelay, "ADVISOR_RETRY_BASE_DELAY")
	setString(&cfg.DBPath, file.DBPath, "ADVISOR_DB_PATH")
	setString(&cfg.AuthMode, file.AuthMode, "ADVISOR_AUTH_MODE")
	setString(&cfg.APIKey, file.APIKey, "ADVISOR_API_KEY")
	setString(&cfg.CORSOrigins, file.CORSOrigins, "ADVISOR_CORS_ORIGINS")
}

func setString(dst *string, v, env string) {
	if v == "" {
		return
	}
	if _, ok := os.LookupEnv(env); ok {
		return
	}
	*dst = v
}

func setInt(dst *int, v int, env string) {
	if v == 0 {
		return
	}
	if _, ok := os.LookupEnv(env); ok {
		return
	}
	*dst = v
}

func setDuration(dst *time.Duration, v time.Duration, env string) {
	if v == 0 {
		return
	}
	if _, ok := os.LookupEnv(env); ok {
		return
	}
	*dst = v
}
