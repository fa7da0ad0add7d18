package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var binaryClasses = []int{0, 1}

// LoadModel reads the artifact at path and checks it against schema. An
// empty modelType accepts whatever type the artifact declares. All failures
// are *ModelLoadError.
func LoadModel(modelType, path string, schema FeatureSchema) (Model, error) {
	model, err := loadModel(modelType, path, schema)
	if err != nil {
		return nil, &ModelLoadError{Path: path, Err: err}
	}
	return model, nil
}

func loadModel(modelType, path string, schema FeatureSchema) (Model, error) {
	a, err := readArtifact(path)
	if err != nil {
		return nil, err
	}
	if modelType == "" {
		modelType = a.ModelType
	}
	if a.ModelType != modelType {
		return nil, fmt.Errorf("artifact is %q, configured for %q", a.ModelType, modelType)
	}
	if err := schema.Compatible(a.FeatureSchema); err != nil {
		return nil, err
	}
	if !sameClasses(a.Classes, binaryClasses) {
		return nil, fmt.Errorf("classes must be %v, artifact has %v", binaryClasses, a.Classes)
	}

	switch modelType {
	case TypeDecisionTree:
		model := &DecisionTree{}
		if err := model.init(a); err != nil {
			return nil, err
		}
		return model, nil
	case TypeLogisticRegression:
		model := &LogisticRegression{}
		if err := model.init(a); err != nil {
			return nil, err
		}
		return model, nil
	default:
		return nil, errors.New("unsupported model type")
	}
}

func readArtifact(path string) (artifact, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return artifact{}, err
	}
	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return artifact{}, fmt.Errorf("decode artifact: %w", err)
	}
	return a, nil
}

func sameClasses(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
