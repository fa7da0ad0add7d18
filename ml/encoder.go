package ml

import (
	"errors"
	"fmt"
)

// OrdinalEncoder turns a Row into a dense vector. Categorical cells become
// their position in the trained category list, or -1 when the value was not
// seen at training time. Numeric cells pass through.
type OrdinalEncoder struct {
	schema     FeatureSchema
	categories map[string]map[string]int
}

func NewOrdinalEncoder(schema FeatureSchema, categories map[string][]string) (*OrdinalEncoder, error) {
	enc := &OrdinalEncoder{
		schema:     schema,
		categories: make(map[string]map[string]int),
	}
	for _, f := range schema.Features {
		if f.Kind != KindCategorical {
			continue
		}
		values, ok := categories[f.Name]
		if !ok || len(values) == 0 {
			return nil, fmt.Errorf("missing categories for %s", f.Name)
		}
		codes := make(map[string]int, len(values))
		for i, v := range values {
			if _, dup := codes[v]; dup {
				return nil, fmt.Errorf("duplicate category %q for %s", v, f.Name)
			}
			codes[v] = i
		}
		enc.categories[f.Name] = codes
	}
	return enc, nil
}

func (e *OrdinalEncoder) Encode(row Row) ([]float64, error) {
	if row.Len() != len(e.schema.Features) {
		return nil, errors.New("row width does not match schema")
	}
	vector := make([]float64, row.Len())
	for i, f := range e.schema.Features {
		switch f.Kind {
		case KindCategorical:
			value, err := row.Category(i)
			if err != nil {
				return nil, err
			}
			code, ok := e.categories[f.Name][value]
			if !ok {
				code = -1
			}
			vector[i] = float64(code)
		default:
			value, err := row.Number(i)
			if err != nil {
				return nil, err
			}
			vector[i] = value
		}
	}
	return vector, nil
}

// Standardize rescales value by the training mean and scale. A zero scale
// leaves the centred value unscaled.
func Standardize(value, mean, scale float64) float64 {
	if scale == 0 {
		return value - mean
	}
	return (value - mean) / scale
}
