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

// CompareRequest is the inbound payload for the comparison endpoint.
type CompareRequest struct {
	PromptA string `json:"prompt_a" validate:"required"`
	PromptB string `json:"prompt_b" validate:"required"`
}

// CompareHandler handles POST /api/v1/compare. Comparison has no local
// fallback: when every backend attempt fails the client receives an explicit
// failure, never a degraded substitute.
func CompareHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := middleware.GetReqID(ctx)

		var cmpReq CompareRequest
		if err := json.NewDecoder(r.Body).Decode(&cmpReq); err != nil {
			deps.Logger.Warn("failed to parse request body",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteBadRequest(w, "Invalid request body", nil)
			return
		}

		if err := utils.ValidateStruct(&cmpReq); err != nil {
			deps.Logger.Warn("request validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			HandleValidationError(w, err, deps.Logger)
			return
		}

		snapshot := models.GenerationPayload{
			PromptA: cmpReq.PromptA,
			PromptB: cmpReq.PromptB,
		}

		result, err := deps.Router.Route(ctx, models.OperationCompare, snapshot)
		if err != nil {
			deps.Logger.Warn("comparison routing failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			HandleServiceError(w, err, deps.Logger)
			return
		}

		deps.Logger.Info("comparison served",
			zap.String("request_id", requestID),
			zap.String("backend", result.Backend),
			zap.Int64("duration_ms", result.DurationMs))

		if err := utils.WriteOK(w, result); err != nil {
			deps.Logger.Error("failed to write response",
				zap.String("request_id", requestID),
				zap.Error(err))
		}
	}
}
