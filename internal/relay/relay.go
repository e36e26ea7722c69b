// Package relay implements the HTTP endpoints that turn a setting into a tile grid
// by way of one LLM provider.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lewisedginton/tile_relay/internal/middleware"
	"github.com/lewisedginton/tile_relay/internal/prompt"
	"github.com/lewisedginton/tile_relay/internal/providers"
	"github.com/lewisedginton/tile_relay/pkg/logger"
	"github.com/lewisedginton/tile_relay/pkg/metrics"
)

// MessageSettingRequired is the error returned when a request has no setting.
const MessageSettingRequired = "Setting is required"

// Request is the body accepted by every relay endpoint.
type Request struct {
	Setting string `json:"setting"`
}

// ErrorResponse is the body of every failed relay request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MalformedOutputError means the provider answered but its text was not JSON.
type MalformedOutputError struct {
	Provider string
	Err      error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("%s returned malformed JSON: %v", e.Provider, e.Err)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

// Handler serves one provider's endpoint. It holds no per-request state and is
// safe for concurrent use.
type Handler struct {
	completer providers.Completer
	ceiling   int
	log       logger.Logger
	metrics   *metrics.Metrics
}

// Option configures a Handler.
type Option func(*Handler)

// WithCeiling overrides the highest tile value requested from the model.
func WithCeiling(ceiling int) Option {
	return func(h *Handler) {
		h.ceiling = ceiling
	}
}

// WithMetrics records relay outcomes and provider latency on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// NewHandler creates a handler relaying to c.
func NewHandler(c providers.Completer, log logger.Logger, opts ...Option) *Handler {
	h := &Handler{
		completer: c,
		ceiling:   prompt.DefaultCeiling,
		log:       log.WithFields(logger.ProviderField(c.Name())),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mount registers POST /<name> for every completer on r.
func Mount(r chi.Router, completers []providers.Completer, log logger.Logger, opts ...Option) {
	for _, c := range completers {
		r.Method(http.MethodPost, "/"+c.Name(), NewHandler(c, log, opts...))
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLoggerFromContext(r.Context(), h.log)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !settingMissing(err) {
		// Broken JSON and bodies cut off by the size cap never reach validation.
		h.metrics.RecordRelay(h.completer.Name(), metrics.OutcomeInvalidRequest)
		log.Error("Failed to decode relay request", logger.ErrorField(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := io.WriteString(w, middleware.DefaultResponseMessage); err != nil {
			log.Debug("Failed to write relay response", logger.ErrorField(err))
		}
		return
	}
	if req.Setting == "" {
		h.metrics.RecordRelay(h.completer.Name(), metrics.OutcomeInvalidRequest)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: MessageSettingRequired}, log)
		return
	}

	grid, err := h.Relay(r.Context(), req.Setting)
	if err != nil {
		h.metrics.RecordRelay(h.completer.Name(), outcome(err))
		log.Error("Relay request failed", logger.ErrorField(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()}, log)
		return
	}

	h.metrics.RecordRelay(h.completer.Name(), metrics.OutcomeOK)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(grid); err != nil {
		log.Debug("Failed to write relay response", logger.ErrorField(err))
	}
}

// Relay builds the prompt for setting, sends it to the provider and returns the
// model's JSON in compact form. The JSON is not checked against the grid shape.
func (h *Handler) Relay(ctx context.Context, setting string) (json.RawMessage, error) {
	start := time.Now()
	text, err := h.completer.Complete(ctx, prompt.Build(setting, h.ceiling))
	h.metrics.ObserveProvider(h.completer.Name(), time.Since(start))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(text)); err != nil {
		return nil, &MalformedOutputError{Provider: h.completer.Name(), Err: err}
	}
	return buf.Bytes(), nil
}

// settingMissing reports whether a decode error leaves the request without a
// usable setting: an empty body, or a setting that is not a string.
func settingMissing(err error) bool {
	var typeErr *json.UnmarshalTypeError
	return errors.Is(err, io.EOF) || errors.As(err, &typeErr)
}

func outcome(err error) string {
	var malformed *MalformedOutputError
	switch {
	case errors.As(err, &malformed), errors.Is(err, providers.ErrEmptyResponse):
		return metrics.OutcomeMalformedOutput
	default:
		return metrics.OutcomeProviderError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, log logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug("Failed to write relay response", logger.ErrorField(err))
	}
}
