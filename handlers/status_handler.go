package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/genrelay/genrelay/app"
	"github.com/genrelay/genrelay/utils"
	"go.uber.org/zap"
)

// StatusHandler handles GET /api/v1/status. It serves a read-only snapshot
// of the backend selector; calling it never advances the cursor or alters
// the unhealthy set.
func StatusHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := deps.Router.Status()

		if err := utils.WriteOK(w, status); err != nil {
			deps.Logger.Error("failed to write status response",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Error(err))
		}
	}
}
