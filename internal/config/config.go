// Package config holds the relay's process-wide configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	pkgconfig "github.com/lewisedginton/tile_relay/pkg/config"
	"github.com/lewisedginton/tile_relay/pkg/logger"
)

// AppConfig holds all application configuration. It is loaded once at startup and
// treated as read-only afterwards.
type AppConfig struct {
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"tile-relay"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	Port              int           `env:"PORT" yaml:"port" default:"3000"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" yaml:"read_header_timeout" default:"10s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" yaml:"shutdown_timeout" default:"10s"`

	Logging    LoggingConfig    `yaml:"logging"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Groq       GroqConfig       `yaml:"groq"`
	Security   SecurityConfig   `yaml:"security"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// Load reads configuration from an optional YAML file and the environment.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := pkgconfig.GetConfig(cfg, path, false); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *AppConfig) Validate() error {
	var result error

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("log_level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		result = multierror.Append(result, fmt.Errorf("log_format must be either 'json' or 'text', got %q", c.Logging.Format))
	}

	if c.Port < 1 || c.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}

	if c.ShutdownTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("shutdown_timeout must be greater than 0"))
	}

	for name, timeout := range map[string]time.Duration{
		"openai_timeout":    c.OpenAI.Timeout,
		"anthropic_timeout": c.Anthropic.Timeout,
		"groq_timeout":      c.Groq.Timeout,
	} {
		if timeout < 0 {
			result = multierror.Append(result, fmt.Errorf("%s cannot be negative", name))
		}
	}

	if c.Anthropic.MaxTokens <= 0 {
		result = multierror.Append(result, fmt.Errorf("anthropic_max_tokens must be greater than 0"))
	}

	if err := c.Security.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Monitoring.Validate(c.Port); err != nil {
		result = multierror.Append(result, err)
	}

	return result
}

// GetLogLevel returns the parsed logger level
func (c *AppConfig) GetLogLevel() logger.Level {
	return logger.ParseLevel(c.Logging.Level)
}

// LogConfig logs the current configuration (without sensitive data)
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("environment", c.Environment),
		logger.IntField("port", c.Port),
		logger.StringField("log_level", c.Logging.Level),
		logger.StringField("log_format", c.Logging.Format),
		logger.StringField("openai_model", c.OpenAI.Model),
		logger.BoolField("openai_key_configured", c.OpenAI.APIKey != ""),
		logger.StringField("anthropic_model", c.Anthropic.Model),
		logger.BoolField("anthropic_key_configured", c.Anthropic.APIKey != ""),
		logger.StringField("groq_model", c.Groq.Model),
		logger.BoolField("groq_key_configured", c.Groq.APIKey != ""),
		logger.StringField("cors_allowed_origins", strings.Join(c.Security.CORSAllowedOrigins, ",")),
		logger.BoolField("metrics_enabled", c.Monitoring.MetricsEnabled),
		logger.IntField("grpc_health_port", c.Monitoring.GRPCHealthPort),
	)
}
