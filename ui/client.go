package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"bikebuyers/ml"
)

// Record 表单组装出的请求体, 键为特征名
type Record map[string]interface{}

// TransientNetworkError 超时或无法连接, 用户可稍后重试
type TransientNetworkError struct {
	timeout bool
	Err     error
}

func (e *TransientNetworkError) Error() string {
	if e.timeout {
		return fmt.Sprintf("prediction request timed out: %v", e.Err)
	}
	return fmt.Sprintf("prediction server unreachable: %v", e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// Timeout 区分超时与连接失败
func (e *TransientNetworkError) Timeout() bool { return e.timeout }

// APIError 服务返回非2xx
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("prediction api returned %d", e.StatusCode)
}

// PredictClient 调用推理服务, 每次提交只发一次请求, 不重试
type PredictClient struct {
	url    string
	client *http.Client
}

func NewPredictClient(url string, timeout time.Duration) *PredictClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PredictClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Predict 提交一条记录并返回预测结果
func (c *PredictClient) Predict(ctx context.Context, record Record) (ml.PredictionResult, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return ml.PredictionResult{}, fmt.Errorf("encode record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return ml.PredictionResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return ml.PredictionResult{}, &TransientNetworkError{timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return ml.PredictionResult{}, &APIError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var payload struct {
		Prediction  *int     `json:"prediction"`
		Probability *float64 `json:"probability"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ml.PredictionResult{}, fmt.Errorf("decode prediction response: %w", err)
	}
	if payload.Prediction == nil || payload.Probability == nil {
		return ml.PredictionResult{}, errors.New("decode prediction response: missing prediction or probability")
	}
	result := ml.PredictionResult{Prediction: *payload.Prediction, Probability: *payload.Probability}
	if result.Prediction != 0 && result.Prediction != 1 {
		return ml.PredictionResult{}, fmt.Errorf("decode prediction response: prediction %d not in {0,1}", result.Prediction)
	}
	if math.IsNaN(result.Probability) || result.Probability < 0 || result.Probability > 1 {
		return ml.PredictionResult{}, fmt.Errorf("decode prediction response: probability %v outside [0,1]", result.Probability)
	}
	return result, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
