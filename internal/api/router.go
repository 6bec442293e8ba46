package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ricirt/motor-health-api/internal/api/handler"
	apimw "github.com/ricirt/motor-health-api/internal/api/middleware"
)

// NewRouter wires the chi router, attaches all middleware, and registers
// every public route. It is the single source of truth for the HTTP surface.
func NewRouter(
	svc handler.Predictor,
	maxBodyBytes int64,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- global middleware (applied to every route) ---
	r.Use(chimw.Recoverer)                 // recover panics, return 500
	r.Use(chimw.RealIP)                    // trust X-Forwarded-For / X-Real-IP
	r.Use(chimw.RequestSize(maxBodyBytes)) // oversized bodies fail to decode
	r.Use(apimw.CorrelationID)             // X-Correlation-ID inject / echo
	r.Use(apimw.RequestLogger(logger))

	// --- handler instances ---
	hh := handler.NewHealthHandler()
	ph := handler.NewPredictionHandler(svc, logger)

	// --- routes ---
	r.Get("/", hh.Home)
	r.Post("/predict", ph.Predict)

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}

// NewAdminRouter serves the Prometheus scrape endpoint. It runs on its own
// listener so /metrics never shows up on the public API.
func NewAdminRouter(reg prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return r
}
