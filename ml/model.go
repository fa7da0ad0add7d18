package ml

// Model is a loaded, read-only binary classifier. Implementations must be
// safe for concurrent use once loaded.
type Model interface {
	// Classify returns the model's hard decision for row.
	Classify(row Row) (int, error)
	// Score returns a probability for each entry of Classes.
	Score(row Row) ([]float64, error)
	Classes() []int
	Schema() FeatureSchema
	Type() string
}

const (
	TypeDecisionTree       = "decision_tree"
	TypeLogisticRegression = "logistic_regression"
)

// artifact is the on-disk envelope shared by every model type.
type artifact struct {
	ModelType     string              `json:"model_type"`
	FeatureSchema FeatureSchema       `json:"feature_schema"`
	Classes       []int               `json:"classes"`
	Categories    map[string][]string `json:"categories,omitempty"`
	Tree          *treeParams         `json:"tree,omitempty"`
	Logistic      *logisticParams     `json:"logistic,omitempty"`
}
