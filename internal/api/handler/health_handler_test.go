package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ricirt/motor-health-api/internal/api/handler"
)

func TestHealthHandler_Home(t *testing.T) {
	h := handler.NewHealthHandler()
	w := httptest.NewRecorder()
	h.Home(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"message":"Motor Health Prediction API is running."}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestFallbacks(t *testing.T) {
	w := httptest.NewRecorder()
	handler.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), `"error"`) {
		t.Fatalf("unexpected 404 response: %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	handler.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/", nil))
	if w.Code != http.StatusMethodNotAllowed || !strings.Contains(w.Body.String(), `"error"`) {
		t.Fatalf("unexpected 405 response: %d %s", w.Code, w.Body.String())
	}
}
