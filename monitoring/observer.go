// Package monitoring 提供预测事件的观察者: 指标, 实时推送
package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bikebuyers/ml"
)

// PredictionEvent 一次成功预测的记录
type PredictionEvent struct {
	ID        string              `json:"id"`
	Record    ml.CustomerRecord   `json:"record"`
	Result    ml.PredictionResult `json:"result"`
	LatencyMs float64             `json:"latency_ms"`
	Timestamp time.Time           `json:"timestamp"`
}

// Observer 预测事件观察者
type Observer interface {
	ObservePrediction(ctx context.Context, event PredictionEvent) error
}

// Observers 依次通知所有观察者, 失败只记录日志
type Observers []Observer

// Notify 通知所有观察者
func (o Observers) Notify(ctx context.Context, log *zap.Logger, event PredictionEvent) {
	for _, observer := range o {
		if err := observer.ObservePrediction(ctx, event); err != nil {
			log.Warn("prediction observer failed",
				zap.String("event_id", event.ID),
				zap.String("observer", observerName(observer)),
				zap.Error(err))
		}
	}
}

func observerName(o Observer) string {
	if named, ok := o.(interface{ Name() string }); ok {
		return named.Name()
	}
	return "unknown"
}
