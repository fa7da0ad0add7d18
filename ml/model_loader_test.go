package ml

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeArtifact(t *testing.T, a artifact) string {
	t.Helper()
	payload, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func treeArtifact() artifact {
	return artifact{
		ModelType:     TypeDecisionTree,
		FeatureSchema: BikeBuyerSchema,
		Classes:       []int{0, 1},
		Categories:    testCategories,
		Tree:          &treeParams{Nodes: testTreeNodes()},
	}
}

func TestLoadModelShippedArtifact(t *testing.T) {
	model, err := LoadModel(TypeDecisionTree, filepath.Join("..", "models", "bike_buyers_tree.json"), BikeBuyerSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	row := mustRow(t, sampleRecord())
	label, err := model.Classify(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
}

func TestLoadModelAcceptsDeclaredType(t *testing.T) {
	path := writeArtifact(t, treeArtifact())
	model, err := LoadModel("", path, BikeBuyerSchema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Type() != TypeDecisionTree {
		t.Fatalf("expected %s, got %s", TypeDecisionTree, model.Type())
	}
}

func TestLoadModelFailures(t *testing.T) {
	reordered := treeArtifact()
	reordered.FeatureSchema = FeatureSchema{
		Version:  BikeBuyerSchema.Version,
		Features: append([]Feature{BikeBuyerSchema.Features[1], BikeBuyerSchema.Features[0]}, BikeBuyerSchema.Features[2:]...),
	}
	versioned := treeArtifact()
	versioned.FeatureSchema.Version = "bike-buyers/v0"
	classes := treeArtifact()
	classes.Classes = []int{1, 0}
	badLeaf := treeArtifact()
	badLeaf.Tree.Nodes[1] = leaf(1, -0.5, 1.5)

	cases := []struct {
		name      string
		modelType string
		path      string
		want      string
	}{
		{"missing file", TypeDecisionTree, filepath.Join(t.TempDir(), "nope.json"), "no such file"},
		{"reordered columns", TypeDecisionTree, writeArtifact(t, reordered), "feature layout mismatch"},
		{"schema version", TypeDecisionTree, writeArtifact(t, versioned), "schema version mismatch"},
		{"class order", TypeDecisionTree, writeArtifact(t, classes), "classes must be"},
		{"leaf distribution", TypeDecisionTree, writeArtifact(t, badLeaf), "outside [0,1]"},
		{"type mismatch", TypeLogisticRegression, writeArtifact(t, treeArtifact()), "configured for"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadModel(tc.modelType, tc.path, BikeBuyerSchema)
			var loadErr *ModelLoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected ModelLoadError, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
		})
	}
}

func TestLoadModelCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadModel(TypeDecisionTree, path, BikeBuyerSchema); err == nil {
		t.Fatal("expected error for corrupt artifact")
	}
}
