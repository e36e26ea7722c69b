// Package health provides the liveness surfaces of the relay: a JSON HTTP
// endpoint and an optional gRPC health service.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/lewisedginton/tile_relay/pkg/logger"
)

// StatusOK is the only status the liveness endpoint reports.
const StatusOK = "OK"

// Response is the JSON body of the HTTP liveness endpoint.
type Response struct {
	Status string `json:"status"`
}

// Handler returns an HTTP handler that always answers 200 {"status":"OK"}.
// It performs no upstream checks, so it stays green when no provider
// credentials are configured.
func Handler(l logger.Logger) http.HandlerFunc {
	body, _ := json.Marshal(Response{Status: StatusOK})
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			l.Debug("Failed to write health response", logger.ErrorField(err))
		}
	}
}
