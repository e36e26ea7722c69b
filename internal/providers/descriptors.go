package providers

import (
	"net/http"

	"github.com/lewisedginton/tile_relay/internal/config"
)

// Provider identifiers. They double as route names.
const (
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
	NameGroq      = "groq"
)

// OpenAIDescriptor describes OpenAI chat completions.
func OpenAIDescriptor(c config.OpenAIConfig) Descriptor {
	return Descriptor{
		Name:    NameOpenAI,
		Label:   "OpenAI",
		BaseURL: c.APIBaseURL,
		Model:   c.Model,
		APIKey:  c.APIKey,
		Timeout: c.Timeout,
	}
}

// AnthropicDescriptor describes the Anthropic Messages API.
func AnthropicDescriptor(c config.AnthropicConfig) Descriptor {
	return Descriptor{
		Name:      NameAnthropic,
		Label:     "Anthropic",
		BaseURL:   c.APIBaseURL,
		Model:     c.Model,
		APIKey:    c.APIKey,
		MaxTokens: c.MaxTokens,
		Timeout:   c.Timeout,
	}
}

// GroqDescriptor describes Groq's OpenAI-compatible endpoint.
func GroqDescriptor(c config.GroqConfig) Descriptor {
	return Descriptor{
		Name:    NameGroq,
		Label:   "Groq",
		BaseURL: c.APIBaseURL,
		Model:   c.Model,
		APIKey:  c.APIKey,
		Timeout: c.Timeout,
	}
}

// FromConfig builds the three adapters in route order. client may be nil.
func FromConfig(cfg *config.AppConfig, client *http.Client) []Completer {
	openaiDesc := OpenAIDescriptor(cfg.OpenAI)
	anthropicDesc := AnthropicDescriptor(cfg.Anthropic)
	groqDesc := GroqDescriptor(cfg.Groq)
	openaiDesc.HTTPClient = client
	anthropicDesc.HTTPClient = client
	groqDesc.HTTPClient = client

	return []Completer{
		NewChatCompletions(openaiDesc),
		NewMessages(anthropicDesc),
		NewChatCompletions(groqDesc),
	}
}
