package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lewisedginton/tile_relay/internal/providers"
	"github.com/lewisedginton/tile_relay/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstream fakes one provider API, answering every request with a canned status
// and body after an optional delay.
type upstream struct {
	srv   *httptest.Server
	calls atomic.Int32
}

func newUpstream(t *testing.T, status int, body string, delay time.Duration) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func chatEnvelope(text string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "m",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": text},
		}},
	})
	return string(b)
}

func messagesEnvelope(text string) string {
	b, _ := json.Marshal(map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"model":       "m",
		"stop_reason": "end_turn",
		"content":     []any{map[string]any{"type": "text", "text": text}},
		"usage":       map[string]any{"input_tokens": 1, "output_tokens": 1},
	})
	return string(b)
}

func router(openaiURL, anthropicURL, groqURL string) http.Handler {
	completers := []providers.Completer{
		providers.NewChatCompletions(providers.Descriptor{
			Name: providers.NameOpenAI, Label: "OpenAI", BaseURL: openaiURL + "/v1/", Model: "gpt-4", APIKey: "k",
		}),
		providers.NewMessages(providers.Descriptor{
			Name: providers.NameAnthropic, Label: "Anthropic", BaseURL: anthropicURL + "/", Model: "claude", APIKey: "k", MaxTokens: 1024,
		}),
		providers.NewChatCompletions(providers.Descriptor{
			Name: providers.NameGroq, Label: "Groq", BaseURL: groqURL + "/openai/v1/", Model: "llama", APIKey: "k",
		}),
	}
	r := chi.NewRouter()
	Mount(r, completers, logger.Nop())
	return r
}

func TestEndpoints_ConcurrentRequestsStayMatched(t *testing.T) {
	grids := map[string]string{
		"openai":    `{"tiles":[[0,0],[0,0]]}`,
		"anthropic": `{"tiles":[[9,9],[9,9]]}`,
		"groq":      `{"tiles":[[2,3],[4,5]]}`,
	}
	openai := newUpstream(t, http.StatusOK, chatEnvelope(grids["openai"]), 150*time.Millisecond)
	anthropic := newUpstream(t, http.StatusOK, messagesEnvelope(grids["anthropic"]), 50*time.Millisecond)
	groq := newUpstream(t, http.StatusOK, chatEnvelope(grids["groq"]), 100*time.Millisecond)
	h := router(openai.srv.URL, anthropic.srv.URL, groq.srv.URL)

	var wg sync.WaitGroup
	results := make(map[string]*httptest.ResponseRecorder, len(grids))
	var mu sync.Mutex
	for name := range grids {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			rec := post(h, "/"+name, `{"setting":"`+name+` island"}`)
			mu.Lock()
			results[name] = rec
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	for name, grid := range grids {
		rec := results[name]
		require.NotNil(t, rec, name)
		assert.Equal(t, http.StatusOK, rec.Code, name)
		assert.Equal(t, grid, rec.Body.String(), name)
	}
	assert.Equal(t, int32(1), openai.calls.Load())
	assert.Equal(t, int32(1), anthropic.calls.Load())
	assert.Equal(t, int32(1), groq.calls.Load())
}

func TestEndpoints_ProviderErrorMessage(t *testing.T) {
	body := `{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`
	openai := newUpstream(t, http.StatusUnauthorized, body, 0)
	anthropic := newUpstream(t, http.StatusUnauthorized, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, 0)
	groq := newUpstream(t, http.StatusUnauthorized, body, 0)
	h := router(openai.srv.URL, anthropic.srv.URL, groq.srv.URL)

	tests := map[string]string{
		"/openai":    "Invalid API Key",
		"/anthropic": "invalid x-api-key",
		"/groq":      "Invalid API Key",
	}
	for path, want := range tests {
		rec := post(h, path, `{"setting":"cave"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.Equal(t, want, decodeError(t, rec), path)
	}
}

func TestEndpoints_MalformedModelText(t *testing.T) {
	openai := newUpstream(t, http.StatusOK, chatEnvelope("not json"), 0)
	anthropic := newUpstream(t, http.StatusOK, messagesEnvelope("not json"), 0)
	groq := newUpstream(t, http.StatusOK, chatEnvelope("not json"), 0)
	h := router(openai.srv.URL, anthropic.srv.URL, groq.srv.URL)

	for _, path := range []string{"/openai", "/anthropic", "/groq"} {
		rec := post(h, path, `{"setting":"volcano"}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
		assert.True(t, strings.Contains(decodeError(t, rec), "malformed JSON"), path)
	}
}

func TestEndpoints_ValidationMakesNoOutboundCall(t *testing.T) {
	openai := newUpstream(t, http.StatusOK, chatEnvelope(`{}`), 0)
	anthropic := newUpstream(t, http.StatusOK, messagesEnvelope(`{}`), 0)
	groq := newUpstream(t, http.StatusOK, chatEnvelope(`{}`), 0)
	h := router(openai.srv.URL, anthropic.srv.URL, groq.srv.URL)

	for _, path := range []string{"/openai", "/anthropic", "/groq"} {
		rec := post(h, path, `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	assert.Zero(t, openai.calls.Load()+anthropic.calls.Load()+groq.calls.Load())
}
