package ui

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"bikebuyers/ml"
)

func TestConfidenceDisplaysDecidedClass(t *testing.T) {
	for _, p := range []float64{0, 0.2, 0.5, 0.81, 1} {
		assert.InDelta(t, p, Confidence(ml.PredictionResult{Prediction: 1, Probability: p}), 1e-12)
		assert.InDelta(t, 1-p, Confidence(ml.PredictionResult{Prediction: 0, Probability: p}), 1e-12)
	}
}

func TestConfidenceTier(t *testing.T) {
	cases := []struct {
		confidence float64
		want       string
	}{
		{0.99, "strong"},
		{0.76, "strong"},
		{0.75, "moderate"},
		{0.56, "moderate"},
		{0.55, "borderline"},
		{0.3, "borderline"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ConfidenceTier(tc.confidence), "confidence %v", tc.confidence)
	}
}

func TestNewResultView(t *testing.T) {
	view := NewResultView(ml.PredictionResult{Prediction: 0, Probability: 0.39})
	assert.Equal(t, Banner{Kind: BannerWarning, Message: "Unlikely to buy a bike"}, view.Banner)
	assert.Equal(t, "61.0%", view.ConfidenceText())
	assert.Equal(t, 61, view.Percent)
	assert.Equal(t, "moderate", view.Tier)

	// a confident "no" is strong even though the class-1 probability is low
	view = NewResultView(ml.PredictionResult{Prediction: 0, Probability: 0.1})
	assert.Equal(t, "strong", view.Tier)

	view = NewResultView(ml.PredictionResult{Prediction: 1, Probability: 0.8})
	assert.Equal(t, Banner{Kind: BannerSuccess, Message: "Likely to buy a bike"}, view.Banner)
	assert.Equal(t, "80.0%", view.ConfidenceText())
}

func TestErrorBanner(t *testing.T) {
	cause := errors.New("dial tcp")
	cases := []struct {
		err  error
		want string
	}{
		{&TransientNetworkError{timeout: true, Err: cause}, "API waking up. Try again in 10 seconds."},
		{&TransientNetworkError{Err: cause}, "Cannot reach prediction server."},
		{fmt.Errorf("wrapped: %w", &APIError{StatusCode: 503}), "API error (503)"},
		{errors.New("decode prediction response: EOF"), "Unexpected response from prediction server."},
	}
	for _, tc := range cases {
		banner := ErrorBanner(tc.err)
		assert.Equal(t, BannerError, banner.Kind)
		assert.Equal(t, tc.want, banner.Message)
	}
}
