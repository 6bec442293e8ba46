package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ricirt/motor-health-api/internal/api"
	"github.com/ricirt/motor-health-api/internal/config"
	"github.com/ricirt/motor-health-api/internal/logging"
	"github.com/ricirt/motor-health-api/internal/metrics"
	"github.com/ricirt/motor-health-api/internal/model"
	"github.com/ricirt/motor-health-api/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	appLogger, closeLog, err := logging.New(cfg)
	if err != nil {
		logger.Fatal("failed to build logger", zap.Error(err))
	}
	logger = appLogger
	defer closeLog()    //nolint:errcheck
	defer logger.Sync() //nolint:errcheck

	// ---- metrics ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// ---- model artifacts ----
	// Loaded once; a failure here means the process never serves.
	clf, enc, err := model.Load(model.LoadOptions{
		ModelType:   cfg.ModelType,
		ModelPath:   cfg.ModelPath,
		EncoderPath: cfg.EncoderPath,
		ONNX: model.ONNXOptions{
			LibraryPath: cfg.ONNXLibraryPath,
			InputName:   cfg.ONNXInputName,
			OutputName:  cfg.ONNXOutputName,
		},
		CacheSize:  cfg.PredictionCacheSize,
		OnCacheHit: m.CacheHook(),
	})
	if err != nil {
		logger.Fatal("failed to load model artifacts", zap.Error(err))
	}
	// Runs after the classifier is closed.
	defer func() {
		if err := model.ReleaseONNXRuntime(); err != nil {
			logger.Error("onnxruntime release error", zap.Error(err))
		}
	}()
	defer func() {
		if closer, ok := clf.(model.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Error("model close error", zap.Error(err))
			}
		}
	}()

	logger.Info("model and label encoder loaded",
		zap.String("model_type", cfg.ModelType),
		zap.String("model_path", cfg.ModelPath),
		zap.String("encoder_path", cfg.EncoderPath),
		zap.Strings("classes", enc.Classes),
		zap.Int("cache_size", cfg.PredictionCacheSize),
	)

	// ---- core dependencies ----
	onSuccess, onFailure := m.ServiceHooks()
	svc := service.NewPredictionService(clf, enc, logger, service.Hooks{
		OnSuccess: onSuccess,
		OnFailure: onFailure,
	})

	// ---- HTTP servers ----
	router := api.NewRouter(svc, cfg.MaxBodyBytes, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	var adminSrv *http.Server
	if cfg.MetricsAddr != "" {
		adminSrv = &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      api.NewAdminRouter(reg),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}
		go func() {
			logger.Info("metrics server starting", zap.String("addr", adminSrv.Addr))
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal("metrics server error", zap.Error(err))
			}
		}()
	}

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new requests; in-flight predictions finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Drop the scrape endpoint last so the final request counts are visible.
	if adminSrv != nil {
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}

	logger.Info("server stopped cleanly")
}
