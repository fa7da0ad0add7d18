package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"bikebuyers/ml"
	"bikebuyers/monitoring"
)

func TestHealthHandler(t *testing.T) {
	handler := NewHandler(DefaultServerConfig(), newTestApp(t, &fakePredictor{}))

	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	expected := `{"schema_version":"bike-buyers/v1","status":"ok"}`
	if strings.TrimSpace(rr.Body.String()) != expected {
		t.Errorf("handler returned unexpected body: got %v want %v", rr.Body.String(), expected)
	}
}

func TestModelHandler(t *testing.T) {
	handler := NewHandler(DefaultServerConfig(), newTestApp(t, &fakePredictor{}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/model", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var payload struct {
		ModelType string       `json:"model_type"`
		Features  []ml.Feature `json:"features"`
		Classes   []int        `json:"classes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload.ModelType != ml.TypeDecisionTree || len(payload.Features) != 11 || len(payload.Classes) != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, &fakePredictor{result: ml.PredictionResult{Prediction: 1, Probability: 0.7}})
	app.Observers = monitoring.Observers{app.Metrics}
	handler := NewHandler(DefaultServerConfig(), app)

	postPredict(handler, scenarioBody)
	postPredict(handler, `{}`)
	app.Drain()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body := rr.Body.String()
	if !strings.Contains(body, `bikebuyers_predictions_total{prediction="1"} 1`) {
		t.Error("expected prediction counter")
	}
	if !strings.Contains(body, "bikebuyers_validation_failures_total 1") {
		t.Error("expected validation failure counter")
	}
}

type fakeHistory struct{ limit int }

func (f *fakeHistory) RecentPredictions(_ context.Context, limit int) ([]monitoring.PredictionEvent, error) {
	f.limit = limit
	return []monitoring.PredictionEvent{{ID: "e1", Timestamp: time.Now()}}, nil
}

func TestHistoryHandler(t *testing.T) {
	history := &fakeHistory{}
	app := newTestApp(t, &fakePredictor{})
	app.History = history
	handler := NewHandler(DefaultServerConfig(), app)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/predictions?limit=5", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if history.limit != 5 {
		t.Fatalf("expected limit 5, got %d", history.limit)
	}
	if !strings.Contains(rr.Body.String(), `"id":"e1"`) {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestOptionalRoutesAbsent(t *testing.T) {
	app := newTestApp(t, &fakePredictor{})
	app.Metrics = nil
	handler := NewHandler(DefaultServerConfig(), app)

	for _, path := range []string{"/metrics", "/predictions", "/ws/predictions"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", path, nil))
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rr.Code)
		}
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("model exploded")
	})
	handler := Chain(RecoveryMiddleware(zap.NewNop()), LoggerMiddleware(zap.NewNop()))(panicky)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/predict", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "model exploded") {
		t.Fatal("panic value must not leak")
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := NewHandler(ServerConfig{AllowedOrigins: []string{"https://ui.example.com"}}, newTestApp(t, &fakePredictor{}))

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://ui.example.com")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://ui.example.com" {
		t.Fatalf("unexpected allow origin %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unexpected CORS header for disallowed origin")
	}
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	handler := LoggerMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if seen != "abc-123" || rr.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("expected request id to propagate, got %q", seen)
	}
}
