// Package providers adapts the relay's single prompt to each upstream LLM API.
package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// Completer sends one prompt to an LLM provider and returns the generated text.
type Completer interface {
	// Name is the short provider identifier used for routes, logs and metrics.
	Name() string
	// Complete performs exactly one outbound call.
	Complete(ctx context.Context, prompt string) (string, error)
}

// Descriptor is everything that differs between providers sharing a wire protocol.
type Descriptor struct {
	Name      string
	Label     string // human name, used in the generic error message
	BaseURL   string
	Model     string
	APIKey    string
	MaxTokens int64         // 0 omits the cap where the protocol allows it
	Timeout   time.Duration // 0 means no deadline beyond the caller's context

	HTTPClient *http.Client // nil uses the SDK default
}

// ErrEmptyResponse is returned when the provider's envelope has no text where the
// adapter expects it.
var ErrEmptyResponse = errors.New("provider response contained no text")

// ProviderError is a non-success HTTP status returned by a provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

// Error returns the provider's own message so it can be relayed to callers as-is.
func (e *ProviderError) Error() string {
	return e.Message
}

// genericMessage is used when the provider's error body carries no message.
func (d Descriptor) genericMessage() string {
	return d.Label + " API error"
}

func (d Descriptor) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.Timeout > 0 {
		return context.WithTimeout(ctx, d.Timeout)
	}
	return context.WithCancel(ctx)
}

// errorCapture keeps the body of a non-2xx response seen by an SDK middleware. The
// SDKs wrap error bodies in their own types; holding on to the raw bytes lets every
// adapter extract the message the same way.
type errorCapture struct {
	mu     sync.Mutex
	status int
	body   []byte
}

func (c *errorCapture) observe(res *http.Response) {
	if res == nil || (res.StatusCode >= 200 && res.StatusCode < 300) {
		return
	}

	body, err := io.ReadAll(res.Body)
	_ = res.Body.Close()
	res.Body = io.NopCloser(bytes.NewReader(body))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = res.StatusCode
	if err == nil {
		c.body = body
	}
}

// toError converts an SDK call error into the relay's error types.
func (c *errorCapture) toError(d Descriptor, err error) error {
	c.mu.Lock()
	status, body := c.status, c.body
	c.mu.Unlock()

	if status == 0 {
		return fmt.Errorf("%s request failed: %w", d.Name, err)
	}

	msg := providerMessage(body)
	if msg == "" {
		msg = d.genericMessage()
	}
	return &ProviderError{Provider: d.Name, StatusCode: status, Message: msg}
}

// providerMessage pulls a human-readable message out of a provider error body.
// All three providers use {"error": {"message": "..."}}.
func providerMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	for _, path := range []string{"error.message", "message", "error"} {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}
