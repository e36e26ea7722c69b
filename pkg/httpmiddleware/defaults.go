package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lewisedginton/tile_relay/pkg/logger"
	"github.com/unrolled/secure"
)

// DefaultMaxRequestSize matches the body limit browser clients of the relay
// were built against (100kb).
const DefaultMaxRequestSize int64 = 100 * 1024

// Config holds configuration for HTTP middleware application.
// Use DefaultConfig() for sensible defaults, then customize as needed.
type Config struct {
	Logger         logger.Logger                   // Required for logging middleware
	CORS           *CORSConfig                     // CORS configuration
	Security       *secure.Options                 // Security headers configuration
	Recoverer      func(http.Handler) http.Handler // Panic handler; chi's Recoverer when nil
	Metrics        func(http.Handler) http.Handler // Optional metrics middleware
	MaxRequestSize int64                           // Body cap in bytes; <= 0 disables

	EnableCorrelationID bool // Add correlation ID to requests
	EnableLogging       bool // Log HTTP requests (requires Logger)
	EnableRecovery      bool // Recover from panics
	EnableCORS          bool // Enable CORS headers
	EnableSecurity      bool // Add security headers
	EnableCompression   bool // Compress responses
	EnableHeartbeat     bool // Add /ping endpoint
	EnableRealIP        bool // Extract real client IP
}

// DefaultConfig returns a production-ready middleware configuration.
// Logging is disabled by default - set Logger and EnableLogging=true to enable.
func DefaultConfig() Config {
	corsConfig := DefaultCORSConfig()
	securityOptions := DefaultSecurityOptions()
	return Config{
		CORS:           &corsConfig,
		Security:       &securityOptions,
		MaxRequestSize: DefaultMaxRequestSize,

		EnableCorrelationID: true,
		EnableLogging:       false,
		EnableRecovery:      true,
		EnableCORS:          true,
		EnableSecurity:      true,
		EnableCompression:   true,
		EnableHeartbeat:     true,
		EnableRealIP:        true,
	}
}

// ApplyToRouter applies the configured middleware to a Chi router in the recommended order.
// Middleware is applied in execution order (first applied = outermost layer).
//
// Execution order:
//
//   - CorrelationID - Adds request correlation tracking
//   - RealIP - Extracts real client IP
//   - Metrics - Counts responses by status
//   - Logging - Logs HTTP requests
//   - Recovery - Recovers from panics
//   - Security - Adds security headers
//   - CORS - Handles cross-origin requests
//   - MaxBytes - Caps request bodies
//   - Compression - Compresses responses
//   - Heartbeat - Adds /ping endpoint
func ApplyToRouter(router chi.Router, config Config) {
	if config.EnableCorrelationID {
		router.Use(CorrelationID())
	}

	if config.EnableRealIP {
		router.Use(middleware.RealIP)
	}

	if config.Metrics != nil {
		router.Use(config.Metrics)
	}

	if config.EnableLogging && config.Logger != nil {
		router.Use(NewHTTPLogger(config.Logger).Middleware)
	}

	if config.EnableRecovery {
		if config.Recoverer != nil {
			router.Use(config.Recoverer)
		} else {
			router.Use(middleware.Recoverer)
		}
	}

	if config.EnableSecurity {
		router.Use(Security(config.Security))
	}

	if config.EnableCORS && config.CORS != nil {
		router.Use(CORS(*config.CORS))
	}

	if config.MaxRequestSize > 0 {
		router.Use(MaxBytes(config.MaxRequestSize))
	}

	if config.EnableCompression {
		router.Use(middleware.Compress(5))
	}

	if config.EnableHeartbeat {
		router.Use(middleware.Heartbeat("/ping"))
	}
}
