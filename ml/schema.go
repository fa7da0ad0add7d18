package ml

import (
	"fmt"
	"strings"
)

// FeatureKind is the semantic type of a model input column.
type FeatureKind string

const (
	KindCategorical FeatureKind = "categorical"
	KindInteger     FeatureKind = "integer"
)

type Feature struct {
	Name string      `json:"name"`
	Kind FeatureKind `json:"kind"`
}

// FeatureSchema describes the column layout a model was trained on.
// Column order is significant.
type FeatureSchema struct {
	Version  string    `json:"version"`
	Features []Feature `json:"features"`
}

// BikeBuyerSchema is the layout the inference service accepts and every
// loaded artifact must declare.
var BikeBuyerSchema = FeatureSchema{
	Version: "bike-buyers/v1",
	Features: []Feature{
		{Name: "gender", Kind: KindCategorical},
		{Name: "age", Kind: KindInteger},
		{Name: "marital_status", Kind: KindCategorical},
		{Name: "children", Kind: KindInteger},
		{Name: "income", Kind: KindInteger},
		{Name: "education_level", Kind: KindCategorical},
		{Name: "occupation_name", Kind: KindCategorical},
		{Name: "region_name", Kind: KindCategorical},
		{Name: "commute_distance", Kind: KindCategorical},
		{Name: "home_owner", Kind: KindCategorical},
		{Name: "cars", Kind: KindInteger},
	},
}

func (s FeatureSchema) Names() []string {
	names := make([]string, len(s.Features))
	for i, f := range s.Features {
		names[i] = f.Name
	}
	return names
}

// Index returns the column position of name, or -1.
func (s FeatureSchema) Index(name string) int {
	for i, f := range s.Features {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Compatible reports why other cannot be served under s, or nil if the two
// schemas agree on version, column names, order and kinds.
func (s FeatureSchema) Compatible(other FeatureSchema) error {
	if s.Version != other.Version {
		return fmt.Errorf("schema version mismatch: want %q, artifact has %q", s.Version, other.Version)
	}
	if len(s.Features) != len(other.Features) {
		return fmt.Errorf("feature count mismatch: want %d, artifact has %d", len(s.Features), len(other.Features))
	}
	var diffs []string
	for i, want := range s.Features {
		got := other.Features[i]
		if want.Name != got.Name {
			diffs = append(diffs, fmt.Sprintf("column %d: want %q, got %q", i, want.Name, got.Name))
			continue
		}
		if want.Kind != got.Kind {
			diffs = append(diffs, fmt.Sprintf("column %q: want kind %s, got %s", want.Name, want.Kind, got.Kind))
		}
	}
	if len(diffs) > 0 {
		return fmt.Errorf("feature layout mismatch: %s", strings.Join(diffs, "; "))
	}
	return nil
}
