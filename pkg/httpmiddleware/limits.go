package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// MaxBytes caps the readable size of every request body. Reads past the limit
// fail with *http.MaxBytesError. A limit <= 0 disables the cap.
func MaxBytes(limit int64) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RequestSize(limit)
}
