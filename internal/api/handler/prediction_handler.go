package handler

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/ricirt/motor-health-api/internal/api/middleware"
	"github.com/ricirt/motor-health-api/internal/domain"
)

// Predictor is the service the prediction handler depends on.
type Predictor interface {
	Predict(ctx context.Context, body io.Reader) ([]string, error)
}

// PredictionHandler serves the prediction endpoint.
type PredictionHandler struct {
	svc    Predictor
	logger *zap.Logger
}

func NewPredictionHandler(svc Predictor, logger *zap.Logger) *PredictionHandler {
	return &PredictionHandler{svc: svc, logger: logger}
}

// Predict handles POST /predict
//
// @Summary  Classify motor health from sensor readings
// @Tags     predictions
// @Accept   json
// @Produce  json
// @Param    body  body      domain.PredictionRequest   true  "Rows of [Voltage, Temperature, DeltaWaterLevel, MotorStatus]"
// @Success  200   {object}  domain.PredictionResponse
// @Failure  400   {object}  domain.ErrorResponse
// @Failure  500   {object}  domain.ErrorResponse
// @Router   /predict [post]
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	labels, err := h.svc.Predict(r.Context(), r.Body)
	if err != nil {
		h.logger.Debug("predict request failed",
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, domain.PredictionResponse{Predictions: labels})
}
