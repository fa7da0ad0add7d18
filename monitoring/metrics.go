package monitoring

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 推理服务的Prometheus指标
type Metrics struct {
	registry           *prometheus.Registry
	predictions        *prometheus.CounterVec
	validationFailures prometheus.Counter
	inferenceFailures  prometheus.Counter
	latency            prometheus.Histogram
	probability        prometheus.Histogram
}

// NewMetrics 创建独立注册表上的指标
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bikebuyers_predictions_total",
			Help: "Successful predictions by predicted class.",
		}, []string{"prediction"}),
		validationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikebuyers_validation_failures_total",
			Help: "Predict requests rejected by request validation.",
		}),
		inferenceFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bikebuyers_inference_failures_total",
			Help: "Predict requests that failed inside the model.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bikebuyers_prediction_latency_seconds",
			Help:    "Time spent validating and scoring a record.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		probability: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bikebuyers_prediction_probability",
			Help:    "Distribution of the class-1 probability.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
		}),
	}
	m.registry.MustRegister(
		m.predictions,
		m.validationFailures,
		m.inferenceFailures,
		m.latency,
		m.probability,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Name() string { return "metrics" }

// ObservePrediction 记录一次成功预测
func (m *Metrics) ObservePrediction(_ context.Context, event PredictionEvent) error {
	m.predictions.WithLabelValues(strconv.Itoa(event.Result.Prediction)).Inc()
	m.latency.Observe(event.LatencyMs / 1000)
	m.probability.Observe(event.Result.Probability)
	return nil
}

// RecordValidationFailure 记录请求校验失败
func (m *Metrics) RecordValidationFailure() {
	if m == nil {
		return
	}
	m.validationFailures.Inc()
}

// RecordInferenceFailure 记录推理失败
func (m *Metrics) RecordInferenceFailure() {
	if m == nil {
		return
	}
	m.inferenceFailures.Inc()
}

// Handler 返回/metrics处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
