package providers

import (
	"context"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultMessagesMaxTokens is used when the descriptor leaves MaxTokens unset; the
// Messages API requires a cap.
const DefaultMessagesMaxTokens = 1024

var _ Completer = (*Messages)(nil)

// Messages talks to the Anthropic Messages API.
type Messages struct {
	desc   Descriptor
	client anthropic.Client
}

// NewMessages creates an adapter for the endpoint described by d.
func NewMessages(d Descriptor) *Messages {
	if d.MaxTokens <= 0 {
		d.MaxTokens = DefaultMessagesMaxTokens
	}

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

	return &Messages{
		desc:   d,
		client: anthropic.NewClient(opts...),
	}
}

// Name returns the provider identifier.
func (m *Messages) Name() string {
	return m.desc.Name
}

// Complete sends prompt as the sole user message and returns the first text block.
func (m *Messages) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := m.desc.withDeadline(ctx)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.desc.Model),
		MaxTokens: m.desc.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	capture := &errorCapture{}
	resp, err := m.client.Messages.New(ctx, params,
		option.WithMiddleware(func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
			res, err := next(req)
			if err == nil {
				capture.observe(res)
			}
			return res, err
		}),
	)
	if err != nil {
		return "", capture.toError(m.desc, err)
	}

	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", ErrEmptyResponse
}
