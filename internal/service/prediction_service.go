package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ricirt/motor-health-api/internal/domain"
	"github.com/ricirt/motor-health-api/internal/model"
)

// Failure outcomes reported through Hooks.OnFailure.
const (
	OutcomeClientError  = "client_error"
	OutcomePredictError = "prediction_error"
)

// Hooks carries the metric callbacks injected by main. Both are optional.
type Hooks struct {
	OnSuccess func(labels []string, latency time.Duration)
	OnFailure func(outcome string)
}

// PredictionService owns the request pipeline: decode, validate, classify,
// decode labels. The classifier and decoder are shared read-only by every
// call; the service itself keeps no per-request state.
type PredictionService struct {
	clf    model.Classifier
	dec    model.LabelDecoder
	logger *zap.Logger
	hooks  Hooks

	// Throttles failure logging so a client hammering the endpoint with bad
	// data cannot flood the log.
	failureLog *rate.Sometimes
}

func NewPredictionService(
	clf model.Classifier,
	dec model.LabelDecoder,
	logger *zap.Logger,
	hooks Hooks,
) *PredictionService {
	if hooks.OnSuccess == nil {
		hooks.OnSuccess = func([]string, time.Duration) {}
	}
	if hooks.OnFailure == nil {
		hooks.OnFailure = func(string) {}
	}
	return &PredictionService{
		clf:        clf,
		dec:        dec,
		logger:     logger,
		hooks:      hooks,
		failureLog: &rate.Sometimes{First: 10, Interval: 10 * time.Second},
	}
}

// Predict reads a PredictionRequest from body and returns one label per
// sensor row, in row order.
//
// Errors are either domain.ErrMissingSensorData / domain.ErrInvalidShape
// (the client must fix the input) or a *domain.PredictionError describing
// what went wrong after validation. Nothing is returned on failure; a
// request never gets a partial result.
func (s *PredictionService) Predict(ctx context.Context, body io.Reader) ([]string, error) {
	req, err := domain.DecodePredictionRequest(body)
	if err != nil {
		return nil, s.fail(err)
	}

	rows, err := req.Rows()
	if err != nil {
		return nil, s.fail(err)
	}

	start := time.Now()

	indices, err := s.classify(ctx, rows)
	if err != nil {
		return nil, s.fail(domain.NewPredictionError(err))
	}
	if len(indices) != len(rows) {
		return nil, s.fail(domain.NewPredictionError(
			fmt.Errorf("model returned %d predictions for %d rows", len(indices), len(rows))))
	}

	labels, err := s.decode(indices)
	if err != nil {
		return nil, s.fail(domain.NewPredictionError(err))
	}
	if len(labels) != len(indices) {
		return nil, s.fail(domain.NewPredictionError(
			fmt.Errorf("label decoder returned %d labels for %d predictions", len(labels), len(indices))))
	}

	s.hooks.OnSuccess(labels, time.Since(start))
	return labels, nil
}

// classify and decode turn a panic in the external model code into an
// ordinary error so it is reported like any other prediction failure.
func (s *PredictionService) classify(ctx context.Context, rows []domain.SensorRow) (indices []int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panicked: %v", r)
		}
	}()
	return s.clf.Predict(ctx, rows)
}

func (s *PredictionService) decode(indices []int) (labels []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("label decoder panicked: %v", r)
		}
	}()
	return s.dec.Decode(indices)
}

func (s *PredictionService) fail(err error) error {
	if errors.Is(err, domain.ErrMissingSensorData) || errors.Is(err, domain.ErrInvalidShape) {
		s.hooks.OnFailure(OutcomeClientError)
		s.logger.Debug("rejected prediction request", zap.Error(err))
		return err
	}

	s.hooks.OnFailure(OutcomePredictError)
	s.failureLog.Do(func() {
		s.logger.Warn("prediction failed", zap.Error(err))
	})
	return err
}
