package config

import "time"

// OpenAIConfig holds OpenAI-specific configuration.
// The key's env name matches the one the relay has always read.
type OpenAIConfig struct {
	APIKey     string        `env:"OPEN_AI" yaml:"api_key"`
	Model      string        `env:"OPENAI_MODEL" yaml:"model" default:"gpt-4"`
	APIBaseURL string        `env:"OPENAI_API_URL" yaml:"api_base_url" default:"https://api.openai.com/v1/"`
	Timeout    time.Duration `env:"OPENAI_TIMEOUT" yaml:"timeout"`
}

// AnthropicConfig holds Anthropic-specific configuration
type AnthropicConfig struct {
	APIKey     string        `env:"ANTHROPIC" yaml:"api_key"`
	Model      string        `env:"ANTHROPIC_MODEL" yaml:"model" default:"claude-3-5-sonnet-20241022"`
	APIBaseURL string        `env:"ANTHROPIC_API_URL" yaml:"api_base_url" default:"https://api.anthropic.com/"`
	MaxTokens  int64         `env:"ANTHROPIC_MAX_TOKENS" yaml:"max_tokens" default:"1024"`
	Timeout    time.Duration `env:"ANTHROPIC_TIMEOUT" yaml:"timeout"`
}

// GroqConfig holds Groq configuration. Groq speaks the OpenAI chat completions protocol.
type GroqConfig struct {
	APIKey     string        `env:"GROQ" yaml:"api_key"`
	Model      string        `env:"GROQ_MODEL" yaml:"model" default:"llama-3.2-90b-vision-preview"`
	APIBaseURL string        `env:"GROQ_API_URL" yaml:"api_base_url" default:"https://api.groq.com/openai/v1/"`
	Timeout    time.Duration `env:"GROQ_TIMEOUT" yaml:"timeout"`
}
