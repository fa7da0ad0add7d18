package ml

import (
	"context"
	"errors"
	"math"
	"testing"
)

type countingModel struct {
	Model
	classifyCalls int
	label         int
	dist          []float64
	err           error
}

func (m *countingModel) Classify(row Row) (int, error) {
	m.classifyCalls++
	return m.label, m.err
}

func (m *countingModel) Score(row Row) ([]float64, error) {
	return m.dist, m.err
}

func (m *countingModel) Schema() FeatureSchema { return BikeBuyerSchema }

func TestPredictorPredict(t *testing.T) {
	model, err := NewDecisionTree(BikeBuyerSchema, []int{0, 1}, testCategories, testTreeNodes())
	if err != nil {
		t.Fatal(err)
	}
	predictor, err := NewPredictor(model, 0)
	if err != nil {
		t.Fatal(err)
	}

	first, err := predictor.Predict(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Prediction != 1 || first.Probability != 0.8 {
		t.Fatalf("unexpected result %+v", first)
	}
	second, err := predictor.Predict(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestPredictorTrustsModelDecision(t *testing.T) {
	model := &countingModel{label: 1, dist: []float64{0.6, 0.4}}
	predictor, err := NewPredictor(model, 0)
	if err != nil {
		t.Fatal(err)
	}
	result, err := predictor.Predict(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Prediction != 1 || result.Probability != 0.4 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestPredictorCache(t *testing.T) {
	model := &countingModel{label: 0, dist: []float64{0.9, 0.1}}
	predictor, err := NewPredictor(model, 8)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if _, err := predictor.Predict(context.Background(), sampleRecord()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if model.classifyCalls != 1 {
		t.Fatalf("expected 1 model call, got %d", model.classifyCalls)
	}

	other := sampleRecord()
	other.Age = 36
	if _, err := predictor.Predict(context.Background(), other); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.classifyCalls != 2 {
		t.Fatalf("expected 2 model calls, got %d", model.classifyCalls)
	}
}

func TestPredictorInferenceErrors(t *testing.T) {
	cases := map[string]*countingModel{
		"model error":  {err: errors.New("boom")},
		"bad label":    {label: 3, dist: []float64{0.5, 0.5}},
		"wrong width":  {label: 1, dist: []float64{1}},
		"out of range": {label: 1, dist: []float64{-0.2, 1.2}},
		"not a number": {label: 1, dist: []float64{0, math.NaN()}},
	}
	for name, model := range cases {
		t.Run(name, func(t *testing.T) {
			predictor, err := NewPredictor(model, 4)
			if err != nil {
				t.Fatal(err)
			}
			_, err = predictor.Predict(context.Background(), sampleRecord())
			var inferenceErr *InferenceError
			if !errors.As(err, &inferenceErr) {
				t.Fatalf("expected InferenceError, got %v", err)
			}
		})
	}
}

func TestPredictorCancelledContext(t *testing.T) {
	model := &countingModel{label: 1, dist: []float64{0, 1}}
	predictor, err := NewPredictor(model, 0)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := predictor.Predict(ctx, sampleRecord()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if model.classifyCalls != 0 {
		t.Fatal("model must not be called")
	}
}
