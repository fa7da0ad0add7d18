package ml

import (
	"math"
	"path/filepath"
	"testing"
)

func testLogisticParams() *logisticParams {
	categorical := make(map[string]map[string]float64)
	for name := range testCategories {
		categorical[name] = map[string]float64{}
	}
	categorical["commute_distance"]["10+ Miles"] = -1.5
	categorical["home_owner"]["Yes"] = 0.25
	return &logisticParams{
		Intercept: -0.25,
		Numeric: map[string]NumericWeight{
			"age":      {Weight: 0, Mean: 45, Scale: 10},
			"children": {Weight: 0},
			"income":   {Weight: 0.5, Mean: 60000, Scale: 20000},
			"cars":     {Weight: -1, Mean: 1, Scale: 1},
		},
		Categorical: categorical,
	}
}

func loadLogistic(t *testing.T) Model {
	t.Helper()
	path := writeArtifact(t, artifact{
		ModelType:     TypeLogisticRegression,
		FeatureSchema: BikeBuyerSchema,
		Classes:       []int{0, 1},
		Logistic:      testLogisticParams(),
	})
	model, err := LoadModel(TypeLogisticRegression, path, BikeBuyerSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return model
}

func TestLogisticRegressionScore(t *testing.T) {
	model := loadLogistic(t)

	// z = -0.25 + 0.25 (home owner) + 0 (income at mean) + 0 (cars at mean) = 0
	dist, err := model.Score(mustRow(t, sampleRecord()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(dist[1]-0.5) > 1e-9 || math.Abs(dist[0]+dist[1]-1) > 1e-9 {
		t.Fatalf("unexpected distribution %v", dist)
	}
	label, err := model.Classify(mustRow(t, sampleRecord()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1 at threshold, got %d", label)
	}

	record := sampleRecord()
	record.CommuteDistance = "10+ Miles"
	label, err = model.Classify(mustRow(t, record))
	if err != nil || label != 0 {
		t.Fatalf("expected label 0, got %d (%v)", label, err)
	}

	// unseen categories contribute nothing
	record = sampleRecord()
	record.HomeOwner = "Maybe"
	dist, err = model.Score(mustRow(t, record))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 1 / (1 + math.Exp(0.25)); math.Abs(dist[1]-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, dist[1])
	}
}

func TestLogisticRegressionMissingWeights(t *testing.T) {
	params := testLogisticParams()
	delete(params.Numeric, "cars")
	path := writeArtifact(t, artifact{
		ModelType:     TypeLogisticRegression,
		FeatureSchema: BikeBuyerSchema,
		Classes:       []int{0, 1},
		Logistic:      params,
	})
	if _, err := LoadModel(TypeLogisticRegression, path, BikeBuyerSchema); err == nil {
		t.Fatal("expected error for missing weight")
	}
}

func TestLogisticRegressionSaveLoad(t *testing.T) {
	model := loadLogistic(t).(*LogisticRegression)
	path := filepath.Join(t.TempDir(), "lr.json")
	if err := model.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := LoadModel("", path, BikeBuyerSchema)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Type() != TypeLogisticRegression {
		t.Fatalf("unexpected type %s", loaded.Type())
	}
}
