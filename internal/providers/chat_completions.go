package providers

import (
	"context"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var _ Completer = (*ChatCompletions)(nil)

// ChatCompletions talks to any OpenAI-compatible chat completions endpoint.
// The relay uses it for both OpenAI and Groq.
type ChatCompletions struct {
	desc   Descriptor
	client openai.Client
}

// NewChatCompletions creates an adapter for the endpoint described by d.
func NewChatCompletions(d Descriptor) *ChatCompletions {
	opts := []option.RequestOption{
		option.WithAPIKey(d.APIKey),
		option.WithMaxRetries(0),
	}
	if d.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(d.BaseURL))
	}
	if d.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(d.HTTPClient))
	}

	return &ChatCompletions{
		desc:   d,
		client: openai.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (c *ChatCompletions) Name() string {
	return c.desc.Name
}

// Complete sends prompt as the sole user message and returns choices[0].message.content.
func (c *ChatCompletions) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := c.desc.withDeadline(ctx)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: c.desc.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	}
	if c.desc.MaxTokens > 0 {
		params.MaxTokens = openai.Int(c.desc.MaxTokens)
	}

	capture := &errorCapture{}
	completion, err := c.client.Chat.Completions.New(ctx, params,
		option.WithMiddleware(func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
			res, err := next(req)
			if err == nil {
				capture.observe(res)
			}
			return res, err
		}),
	)
	if err != nil {
		return "", capture.toError(c.desc, err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return completion.Choices[0].Message.Content, nil
}
