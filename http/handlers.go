package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bikebuyers/ml"
	"bikebuyers/monitoring"
)

// Predictor 预测接口
type Predictor interface {
	Predict(ctx context.Context, record ml.CustomerRecord) (ml.PredictionResult, error)
}

// HistoryStore 预测记录查询
type HistoryStore interface {
	RecentPredictions(ctx context.Context, limit int) ([]monitoring.PredictionEvent, error)
}

// App 启动时构建的只读应用状态, 由处理器共享
type App struct {
	Predictor Predictor
	Model     ml.Model
	Observers monitoring.Observers
	Metrics   *monitoring.Metrics // 可选
	Feed      http.Handler        // 可选, WebSocket推送
	History   HistoryStore        // 可选
	Logger    *zap.Logger

	observing sync.WaitGroup
}

// Drain 等待进行中的观察者通知完成, 关闭存储前调用
func (a *App) Drain() {
	a.observing.Wait()
}

func RegisterHandlers(mux *http.ServeMux, app *App) {
	mux.HandleFunc("POST /predict", app.handlePredict)
	mux.HandleFunc("GET /health", app.handleHealth)
	mux.HandleFunc("GET /model", app.handleModel)
	if app.Metrics != nil {
		mux.Handle("GET /metrics", app.Metrics.Handler())
	}
	if app.Feed != nil {
		mux.Handle("GET /ws/predictions", app.Feed)
	}
	if app.History != nil {
		mux.HandleFunc("GET /predictions", app.handleHistory)
	}
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"schema_version": a.Model.Schema().Version,
	})
}

func (a *App) handleModel(w http.ResponseWriter, r *http.Request) {
	schema := a.Model.Schema()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"model_type":     a.Model.Type(),
		"schema_version": schema.Version,
		"features":       schema.Features,
		"classes":        a.Model.Classes(),
	})
}

func (a *App) handlePredict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := GetStartTime(ctx)
	if start.IsZero() {
		start = time.Now()
	}

	record, err := DecodeCustomerRecord(r.Body)
	if err != nil {
		var verr *RequestValidationError
		if errors.As(err, &verr) {
			a.Metrics.RecordValidationFailure()
			respondJSON(w, http.StatusUnprocessableEntity, verr)
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.Predictor.Predict(ctx, record)
	if err != nil {
		a.Metrics.RecordInferenceFailure()
		a.Logger.Error("prediction failed", zap.String("request_id", GetRequestID(ctx)), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "inference failed")
		return
	}

	respondJSON(w, http.StatusOK, result)

	id := GetRequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	a.notify(context.WithoutCancel(ctx), monitoring.PredictionEvent{
		ID:        id,
		Record:    record,
		Result:    result,
		LatencyMs: float64(time.Since(start).Microseconds()) / 1000,
		Timestamp: start,
	})
}

// notify 异步通知观察者, 不占用请求的超时预算
func (a *App) notify(ctx context.Context, event monitoring.PredictionEvent) {
	if len(a.Observers) == 0 {
		return
	}
	a.observing.Add(1)
	go func() {
		defer a.observing.Done()
		a.Observers.Notify(ctx, a.Logger, event)
	}()
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}
	events, err := a.History.RecentPredictions(r.Context(), limit)
	if err != nil {
		a.Logger.Error("query predictions failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"predictions": events})
}

// respondJSON 统一JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
