// Package middleware provides the relay's catch-all error handling.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/lewisedginton/tile_relay/pkg/logger"
)

// DefaultResponseMessage is returned to the caller for any unhandled failure.
const DefaultResponseMessage = `{"error":"Something broke!"}`

// RecoveryConfig holds configuration for the recovery middleware
type RecoveryConfig struct {
	Logger              logger.Logger
	EnableStackTrace    bool   // Whether to log full stack traces
	ResponseMessage     string // Body returned to clients
	ResponseContentType string // Content type for error responses
}

// DefaultRecoveryConfig returns a sensible default configuration
func DefaultRecoveryConfig(log logger.Logger) RecoveryConfig {
	return RecoveryConfig{
		Logger:              log,
		EnableStackTrace:    true,
		ResponseMessage:     DefaultResponseMessage,
		ResponseContentType: "application/json",
	}
}

// Recovery returns a middleware that turns a panic anywhere below it into a
// logged error and a 500 response.
func Recovery(config RecoveryConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// net/http uses this sentinel to abort a response silently.
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				handlePanic(w, r, rec, config)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func handlePanic(w http.ResponseWriter, r *http.Request, rec any, config RecoveryConfig) {
	var stackTrace string
	if config.EnableStackTrace {
		stackTrace = string(debug.Stack())
	}

	logPanic(r, rec, stackTrace, config.Logger)

	w.Header().Set("Content-Type", config.ResponseContentType)
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusInternalServerError)

	if config.ResponseMessage != "" {
		_, _ = w.Write([]byte(config.ResponseMessage))
	}
}

func logPanic(r *http.Request, rec any, stackTrace string, log logger.Logger) {
	if log == nil {
		fmt.Printf("PANIC: %v\nRequest: %s %s\nStack:\n%s\n", rec, r.Method, r.URL.Path, stackTrace)
		return
	}

	fields := []logger.LogField{
		logger.StringField("panic_error", fmt.Sprintf("%v", rec)),
		logger.HTTPMethodField(r.Method),
		logger.HTTPPathField(r.URL.Path),
		logger.ClientIPField(r.RemoteAddr),
		logger.StringField("user_agent", r.UserAgent()),
	}
	if stackTrace != "" {
		fields = append(fields, logger.StringField("stack_trace", stackTrace))
	}
	if r.ContentLength > 0 {
		fields = append(fields, logger.Int64Field("content_length", r.ContentLength))
	}

	logger.GetLoggerFromContext(r.Context(), log).Error("HTTP request panic recovered", fields...)
}
