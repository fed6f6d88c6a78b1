package handlers

import (
	"net/http"

	"github.com/genrelay/genrelay/app"
	"github.com/genrelay/genrelay/utils"
)

// HealthCheck returns a simple liveness handler
func HealthCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}

// ReadinessCheck reports whether the gateway can serve traffic. The gateway
// holds no external connections of its own, so readiness reduces to having a
// worker pool and, ideally, at least one credential.
func ReadinessCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"workers":     "configured",
			"credentials": "configured",
		}
		status := "ready"

		if len(deps.Selector.Pool()) == 0 {
			checks["workers"] = "none_configured"
			status = "not_ready"
		}
		if deps.CredentialRotator.Size() == 0 {
			// Degraded but still serving: every call will abort with a
			// configuration error until keys are provided.
			checks["credentials"] = "none_configured"
		}

		code := http.StatusOK
		if status != "ready" {
			code = http.StatusServiceUnavailable
		}
		_ = utils.WriteJSON(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
		})
	}
}
