package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikebuyers/ml"
	"bikebuyers/monitoring"
)

type recordingWriter struct {
	messages []kafka.Message
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerPublishesEvent(t *testing.T) {
	writer := &recordingWriter{}
	producer := &Producer{writer: writer}

	event := monitoring.PredictionEvent{
		ID:        "5f0c",
		Record:    ml.CustomerRecord{Gender: "Female", RegionName: "Pacific"},
		Result:    ml.PredictionResult{Prediction: 0, Probability: 0.12},
		Timestamp: time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, producer.ObservePrediction(context.Background(), event))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, "5f0c", string(msg.Key))
	assert.Equal(t, event.Timestamp, msg.Time)

	var decoded monitoring.PredictionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "Pacific", decoded.Record.RegionName)
	assert.Equal(t, 0.12, decoded.Result.Probability)

	require.NoError(t, producer.Close())
	assert.True(t, writer.closed)
}

func TestNewProducerConfiguresWriter(t *testing.T) {
	producer := NewProducer([]string{"localhost:9092"}, "bike-buyer-predictions")
	writer, ok := producer.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "bike-buyer-predictions", writer.Topic)
	assert.True(t, writer.Async)
}
