package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// LogisticRegression scores class 1 as sigmoid(intercept + w·x). Numeric
// columns are standardised, categorical columns are one-hot with unseen
// values contributing nothing.
type LogisticRegression struct {
	schema  FeatureSchema
	classes []int
	params  logisticParams
}

type NumericWeight struct {
	Weight float64 `json:"weight"`
	Mean   float64 `json:"mean"`
	Scale  float64 `json:"scale"`
}

type logisticParams struct {
	Intercept   float64                       `json:"intercept"`
	Threshold   float64                       `json:"threshold"`
	Numeric     map[string]NumericWeight      `json:"numeric"`
	Categorical map[string]map[string]float64 `json:"categorical"`
}

func (lr *LogisticRegression) Type() string          { return TypeLogisticRegression }
func (lr *LogisticRegression) Schema() FeatureSchema { return lr.schema }
func (lr *LogisticRegression) Classes() []int        { return append([]int(nil), lr.classes...) }

func (lr *LogisticRegression) Classify(row Row) (int, error) {
	p, err := lr.positive(row)
	if err != nil {
		return 0, err
	}
	if p >= lr.params.Threshold {
		return lr.classes[1], nil
	}
	return lr.classes[0], nil
}

func (lr *LogisticRegression) Score(row Row) ([]float64, error) {
	p, err := lr.positive(row)
	if err != nil {
		return nil, err
	}
	return []float64{1 - p, p}, nil
}

func (lr *LogisticRegression) positive(row Row) (float64, error) {
	if row.Len() != len(lr.schema.Features) {
		return 0, errors.New("row width does not match schema")
	}
	z := lr.params.Intercept
	for i, f := range lr.schema.Features {
		switch f.Kind {
		case KindCategorical:
			value, err := row.Category(i)
			if err != nil {
				return 0, err
			}
			z += lr.params.Categorical[f.Name][value]
		default:
			value, err := row.Number(i)
			if err != nil {
				return 0, err
			}
			w := lr.params.Numeric[f.Name]
			z += w.Weight * Standardize(value, w.Mean, w.Scale)
		}
	}
	return 1 / (1 + math.Exp(-z)), nil
}

func (lr *LogisticRegression) Save(path string) error {
	if len(lr.classes) == 0 {
		return errors.New("model not loaded")
	}
	params := lr.params
	payload, err := json.MarshalIndent(artifact{
		ModelType:     TypeLogisticRegression,
		FeatureSchema: lr.schema,
		Classes:       lr.classes,
		Logistic:      &params,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (lr *LogisticRegression) Load(path string) error {
	a, err := readArtifact(path)
	if err != nil {
		return err
	}
	return lr.init(a)
}

func (lr *LogisticRegression) init(a artifact) error {
	if a.Logistic == nil {
		return errors.New("artifact has no logistic parameters")
	}
	if len(a.Classes) != 2 {
		return fmt.Errorf("logistic regression needs 2 classes, got %d", len(a.Classes))
	}
	params := *a.Logistic
	if params.Threshold == 0 {
		params.Threshold = 0.5
	}
	if params.Threshold < 0 || params.Threshold > 1 {
		return fmt.Errorf("threshold %v outside [0,1]", params.Threshold)
	}
	for _, f := range a.FeatureSchema.Features {
		switch f.Kind {
		case KindCategorical:
			if _, ok := params.Categorical[f.Name]; !ok {
				return fmt.Errorf("missing categorical weights for %s", f.Name)
			}
		default:
			if _, ok := params.Numeric[f.Name]; !ok {
				return fmt.Errorf("missing numeric weight for %s", f.Name)
			}
		}
	}

	lr.schema = a.FeatureSchema
	lr.classes = append([]int(nil), a.Classes...)
	lr.params = params
	return nil
}
