package ml

import (
	"context"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Predictor turns a CustomerRecord into a PredictionResult using a loaded
// model. It holds no mutable state apart from the optional result cache.
type Predictor struct {
	model  Model
	schema FeatureSchema
	cache  *lru.Cache[string, PredictionResult]
}

// NewPredictor wraps model. cacheSize > 0 memoises results per row; the
// model is deterministic so cached and fresh results are identical.
func NewPredictor(model Model, cacheSize int) (*Predictor, error) {
	p := &Predictor{
		model:  model,
		schema: model.Schema(),
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, PredictionResult](cacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}
	return p, nil
}

// Predict classifies and scores record. Failures from the model, or output
// outside the binary contract, are *InferenceError.
func (p *Predictor) Predict(ctx context.Context, record CustomerRecord) (PredictionResult, error) {
	if err := ctx.Err(); err != nil {
		return PredictionResult{}, err
	}
	row, err := NewRow(p.schema, record)
	if err != nil {
		return PredictionResult{}, &InferenceError{Err: err}
	}

	var key string
	if p.cache != nil {
		key = row.Key()
		if result, ok := p.cache.Get(key); ok {
			return result, nil
		}
	}

	result, err := p.predict(row)
	if err != nil {
		return PredictionResult{}, &InferenceError{Err: err}
	}
	if p.cache != nil {
		p.cache.Add(key, result)
	}
	return result, nil
}

func (p *Predictor) predict(row Row) (PredictionResult, error) {
	label, err := p.model.Classify(row)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("classify: %w", err)
	}
	if label != 0 && label != 1 {
		return PredictionResult{}, fmt.Errorf("classify returned label %d", label)
	}
	dist, err := p.model.Score(row)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("score: %w", err)
	}
	if len(dist) != 2 {
		return PredictionResult{}, fmt.Errorf("score returned %d probabilities, want 2", len(dist))
	}
	// classes are [0, 1], so index 1 is "buys a bike"
	probability := dist[1]
	if math.IsNaN(probability) || probability < 0 || probability > 1 {
		return PredictionResult{}, fmt.Errorf("probability %v outside [0,1]", probability)
	}
	return PredictionResult{Prediction: label, Probability: probability}, nil
}
