package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/genrelay/genrelay/app"
	"github.com/genrelay/genrelay/models"
	"github.com/genrelay/genrelay/utils"
	"go.uber.org/zap"
)

// GenerateRequest is the inbound payload for the generation endpoint.
type GenerateRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// GenerateHandler handles POST /api/v1/generate. The request body is decoded
// exactly once; the resulting struct is the snapshot every retry attempt and
// the fallback path operate on.
func GenerateHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := middleware.GetReqID(ctx)

		var genReq GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&genReq); err != nil {
			deps.Logger.Warn("failed to parse request body",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteBadRequest(w, "Invalid request body", nil)
			return
		}

		if err := utils.ValidateStruct(&genReq); err != nil {
			deps.Logger.Warn("request validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			HandleValidationError(w, err, deps.Logger)
			return
		}

		snapshot := models.GenerationPayload{Prompt: genReq.Prompt}

		result, err := deps.Router.Route(ctx, models.OperationGenerate, snapshot)
		if err != nil {
			deps.Logger.Warn("generation routing failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			HandleServiceError(w, err, deps.Logger)
			return
		}

		deps.Logger.Info("generation served",
			zap.String("request_id", requestID),
			zap.String("backend", result.Backend),
			zap.Bool("degraded", result.Degraded),
			zap.Int64("duration_ms", result.DurationMs))

		if err := utils.WriteOK(w, result); err != nil {
			deps.Logger.Error("failed to write response",
				zap.String("request_id", requestID),
				zap.Error(err))
		}
	}
}
