package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ricirt/motor-health-api/internal/domain"
	"github.com/ricirt/motor-health-api/internal/service"
)

// stubClassifier returns a fixed result, or derives the class from the
// motor status column when result is nil.
type stubClassifier struct {
	result []int
	err    error
	panic  any
	calls  int
}

func (s *stubClassifier) Predict(_ context.Context, rows []domain.SensorRow) ([]int, error) {
	s.calls++
	if s.panic != nil {
		panic(s.panic)
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		return s.result, nil
	}
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = int(r[3])
	}
	return out, nil
}

type stubDecoder struct {
	classes []string
	err     error
	short   bool
}

func (s *stubDecoder) Decode(indices []int) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = s.classes[idx]
	}
	if s.short {
		return out[:len(out)-1], nil
	}
	return out, nil
}

type recordedHooks struct {
	successes [][]string
	failures  []string
}

func (r *recordedHooks) hooks() service.Hooks {
	return service.Hooks{
		OnSuccess: func(labels []string, _ time.Duration) { r.successes = append(r.successes, labels) },
		OnFailure: func(outcome string) { r.failures = append(r.failures, outcome) },
	}
}

func newService(clf *stubClassifier, dec *stubDecoder) (*service.PredictionService, *recordedHooks) {
	rec := &recordedHooks{}
	return service.NewPredictionService(clf, dec, zap.NewNop(), rec.hooks()), rec
}

func TestPredictionService_Predict(t *testing.T) {
	svc, rec := newService(&stubClassifier{result: []int{0}}, &stubDecoder{classes: []string{"Healthy"}})

	labels, err := svc.Predict(context.Background(), strings.NewReader(`{"sensor_data": [[220.5, 65.0, 0.2, 1]]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != 1 || labels[0] != "Healthy" {
		t.Fatalf("expected [Healthy], got %v", labels)
	}
	if len(rec.successes) != 1 || len(rec.failures) != 0 {
		t.Fatalf("expected one success hook, got successes=%d failures=%v", len(rec.successes), rec.failures)
	}
}

func TestPredictionService_Predict_PreservesOrder(t *testing.T) {
	svc, _ := newService(&stubClassifier{}, &stubDecoder{classes: []string{"Healthy", "Faulty", "Leak"}})

	body := `{"sensor_data": [[1, 1, 1, 2], [1, 1, 1, 0], [1, 1, 1, 1], [1, 1, 1, 2]]}`
	labels, err := svc.Predict(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Leak", "Healthy", "Faulty", "Leak"}
	if len(labels) != len(want) {
		t.Fatalf("expected %d labels, got %d", len(want), len(labels))
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Fatalf("row %d: expected %q, got %q", i, want[i], labels[i])
		}
	}
}

func TestPredictionService_Predict_ClientErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"missing key", `{"data": []}`, domain.ErrMissingSensorData},
		{"invalid json", `{`, domain.ErrMissingSensorData},
		{"wrong width", `{"sensor_data": [[1, 2, 3]]}`, domain.ErrInvalidShape},
		{"zero rows", `{"sensor_data": []}`, domain.ErrInvalidShape},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clf := &stubClassifier{}
			svc, rec := newService(clf, &stubDecoder{classes: []string{"Healthy"}})

			_, err := svc.Predict(context.Background(), strings.NewReader(tc.body))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if clf.calls != 0 {
				t.Fatal("classifier must not run on invalid input")
			}
			if len(rec.failures) != 1 || rec.failures[0] != service.OutcomeClientError {
				t.Fatalf("expected one client_error outcome, got %v", rec.failures)
			}
		})
	}
}

func TestPredictionService_Predict_Failures(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		clf      *stubClassifier
		dec      *stubDecoder
		contains string
	}{
		{
			name:     "non-numeric cell",
			body:     `{"sensor_data": [[1, 2, "hot", 4]]}`,
			clf:      &stubClassifier{},
			dec:      &stubDecoder{classes: []string{"Healthy"}},
			contains: `could not convert string to float: "hot"`,
		},
		{
			name:     "classifier error",
			body:     `{"sensor_data": [[1, 2, 3, 0]]}`,
			clf:      &stubClassifier{err: errors.New("inference failed: bad tensor")},
			dec:      &stubDecoder{classes: []string{"Healthy"}},
			contains: "inference failed: bad tensor",
		},
		{
			name:     "classifier panic",
			body:     `{"sensor_data": [[1, 2, 3, 0]]}`,
			clf:      &stubClassifier{panic: "index out of range"},
			dec:      &stubDecoder{classes: []string{"Healthy"}},
			contains: "model panicked: index out of range",
		},
		{
			name:     "length mismatch",
			body:     `{"sensor_data": [[1, 2, 3, 0], [1, 2, 3, 0]]}`,
			clf:      &stubClassifier{result: []int{0}},
			dec:      &stubDecoder{classes: []string{"Healthy"}},
			contains: "model returned 1 predictions for 2 rows",
		},
		{
			name:     "decoder error",
			body:     `{"sensor_data": [[1, 2, 3, 0]]}`,
			clf:      &stubClassifier{},
			dec:      &stubDecoder{err: errors.New("y contains previously unseen labels: [0]")},
			contains: "previously unseen labels",
		},
		{
			name:     "decoder panic",
			body:     `{"sensor_data": [[1, 2, 3, 5]]}`,
			clf:      &stubClassifier{},
			dec:      &stubDecoder{classes: []string{"Healthy"}},
			contains: "label decoder panicked",
		},
		{
			name:     "decoder drops a label",
			body:     `{"sensor_data": [[1, 2, 3, 0], [1, 2, 3, 0]]}`,
			clf:      &stubClassifier{},
			dec:      &stubDecoder{classes: []string{"Healthy"}, short: true},
			contains: "label decoder returned 1 labels for 2 predictions",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, rec := newService(tc.clf, tc.dec)

			labels, err := svc.Predict(context.Background(), strings.NewReader(tc.body))
			if labels != nil {
				t.Fatalf("expected no partial result, got %v", labels)
			}

			var pe *domain.PredictionError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *PredictionError, got %T (%v)", err, err)
			}
			if !strings.Contains(err.Error(), tc.contains) {
				t.Fatalf("expected error to contain %q, got %q", tc.contains, err.Error())
			}
			if len(rec.failures) != 1 || rec.failures[0] != service.OutcomePredictError {
				t.Fatalf("expected one prediction_error outcome, got %v", rec.failures)
			}
		})
	}
}

func TestPredictionService_FailureLogIsThrottled(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	svc := service.NewPredictionService(
		&stubClassifier{err: errors.New("boom")},
		&stubDecoder{classes: []string{"Healthy"}},
		zap.New(core),
		service.Hooks{},
	)

	for i := 0; i < 50; i++ {
		_, _ = svc.Predict(context.Background(), strings.NewReader(`{"sensor_data": [[1, 2, 3, 0]]}`))
	}

	warned := logs.FilterMessage("prediction failed").Len()
	if warned == 0 || warned >= 50 {
		t.Fatalf("expected throttled warnings (0 < n < 50), got %d", warned)
	}
}

func TestPredictionService_Deterministic(t *testing.T) {
	svc, _ := newService(&stubClassifier{}, &stubDecoder{classes: []string{"Healthy", "Faulty"}})
	body := `{"sensor_data": [[220, 60, 0.1, 1], [221, 61, 0.2, 0]]}`

	first, err := svc.Predict(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Predict(context.Background(), strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("row %d: %q vs %q", i, first[i], second[i])
		}
	}
}
