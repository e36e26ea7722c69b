package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/lewisedginton/tile_relay/pkg/logger"
)

// HTTPLogger provides HTTP request/response logging middleware
type HTTPLogger struct {
	logger logger.Logger
}

// NewHTTPLogger creates a new HTTP logger middleware
func NewHTTPLogger(log logger.Logger) *HTTPLogger {
	return &HTTPLogger{
		logger: log,
	}
}

// Middleware logs one line when a request arrives (debug) and one when its
// response has been written (info), both tagged with the correlation id.
func (h *HTTPLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestLogger := logger.GetLoggerFromContext(r.Context(), h.logger).WithFields(
			logger.ClientIPField(r.RemoteAddr),
			logger.HTTPMethodField(r.Method),
			logger.HTTPPathField(r.URL.Path),
		)
		requestLogger.Debug("HTTP request received")

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		requestLogger.Info("HTTP response sent",
			logger.HTTPStatusField(status),
			logger.IntField("response_bytes", ww.BytesWritten()),
			logger.DurationField("duration", time.Since(start)),
		)
	})
}
