package httpmiddleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/lewisedginton/tile_relay/pkg/logger"
)

// CorrelationIDHeader carries the per-request correlation id.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID middleware assigns every request a fresh correlation id.
// Client-provided ids are ignored. The id is set on the request header, echoed on
// the response and stored in the request context for loggers downstream.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := uuid.New().String()

			r.Header.Set(CorrelationIDHeader, correlationID)
			w.Header().Set(CorrelationIDHeader, correlationID)

			ctx := logger.WithCorrelationIDContext(r.Context(), correlationID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
