package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/privata-labs/privata/app"
)

// HealthCheck returns a simple health check handler
func HealthCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// ReadinessCheck verifies the analysis store is reachable
func ReadinessCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		response := map[string]interface{}{
			"status": "ready",
			"checks": map[string]string{},
		}

		if deps.Store == nil {
			response["status"] = "not_ready"
			response["checks"].(map[string]string)["store"] = "not_initialized"
		} else if _, err := deps.Store.List(ctx); err != nil {
			response["status"] = "not_ready"
			response["checks"].(map[string]string)["store"] = "unhealthy"
		} else {
			response["checks"].(map[string]string)["store"] = "healthy"
		}

		w.Header().Set("Content-Type", "application/json")
		if response["status"] == "ready" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(response)
	}
}
