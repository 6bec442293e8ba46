package handler

import "net/http"

// HomeMessage is the fixed liveness message served at GET /.
const HomeMessage = "Motor Health Prediction API is running."

// HealthHandler serves the liveness probe endpoint.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

// Home handles GET /
//
// @Summary  Liveness probe
// @Tags     system
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   / [get]
func (h *HealthHandler) Home(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": HomeMessage})
}
