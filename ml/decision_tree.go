package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// DecisionTree is a binary tree stored as a flat node array. Node 0 is the
// root; categorical features are compared on their ordinal code.
type DecisionTree struct {
	schema  FeatureSchema
	classes []int
	cats    map[string][]string
	encoder *OrdinalEncoder
	nodes   []TreeNode
}

type TreeNode struct {
	FeatureIdx   int       `json:"feature_idx"`
	Threshold    float64   `json:"threshold"`
	LeftChild    int       `json:"left_child"`
	RightChild   int       `json:"right_child"`
	ClassLabel   int       `json:"class_label"`
	IsLeaf       bool      `json:"is_leaf"`
	Distribution []float64 `json:"distribution,omitempty"`
}

type treeParams struct {
	Nodes []TreeNode `json:"nodes"`
}

// NewDecisionTree builds a tree from already-trained nodes.
func NewDecisionTree(schema FeatureSchema, classes []int, categories map[string][]string, nodes []TreeNode) (*DecisionTree, error) {
	dt := &DecisionTree{}
	if err := dt.init(artifact{
		ModelType:     TypeDecisionTree,
		FeatureSchema: schema,
		Classes:       classes,
		Categories:    categories,
		Tree:          &treeParams{Nodes: nodes},
	}); err != nil {
		return nil, err
	}
	return dt, nil
}

func (dt *DecisionTree) Type() string          { return TypeDecisionTree }
func (dt *DecisionTree) Schema() FeatureSchema { return dt.schema }
func (dt *DecisionTree) Classes() []int        { return append([]int(nil), dt.classes...) }

func (dt *DecisionTree) Classify(row Row) (int, error) {
	leaf, err := dt.leaf(row)
	if err != nil {
		return 0, err
	}
	return leaf.ClassLabel, nil
}

func (dt *DecisionTree) Score(row Row) ([]float64, error) {
	leaf, err := dt.leaf(row)
	if err != nil {
		return nil, err
	}
	if len(leaf.Distribution) > 0 {
		return append([]float64(nil), leaf.Distribution...), nil
	}
	// Leaves without a stored distribution are pure.
	dist := make([]float64, len(dt.classes))
	for i, c := range dt.classes {
		if c == leaf.ClassLabel {
			dist[i] = 1
		}
	}
	return dist, nil
}

func (dt *DecisionTree) leaf(row Row) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, errors.New("model not loaded")
	}
	features, err := dt.encoder.Encode(row)
	if err != nil {
		return TreeNode{}, err
	}
	idx := 0
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	return TreeNode{}, errors.New("invalid tree state")
}

func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return errors.New("model not loaded")
	}
	payload, err := json.MarshalIndent(artifact{
		ModelType:     TypeDecisionTree,
		FeatureSchema: dt.schema,
		Classes:       dt.classes,
		Categories:    dt.cats,
		Tree:          &treeParams{Nodes: dt.nodes},
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

func (dt *DecisionTree) Load(path string) error {
	a, err := readArtifact(path)
	if err != nil {
		return err
	}
	return dt.init(a)
}

func (dt *DecisionTree) init(a artifact) error {
	if a.Tree == nil || len(a.Tree.Nodes) == 0 {
		return errors.New("artifact has no tree nodes")
	}
	if len(a.Classes) == 0 {
		return errors.New("artifact has no classes")
	}
	encoder, err := NewOrdinalEncoder(a.FeatureSchema, a.Categories)
	if err != nil {
		return err
	}
	width := len(a.FeatureSchema.Features)
	known := make(map[int]bool, len(a.Classes))
	for _, c := range a.Classes {
		known[c] = true
	}
	nodes := a.Tree.Nodes
	for i, node := range nodes {
		if node.IsLeaf {
			if !known[node.ClassLabel] {
				return fmt.Errorf("node %d: unknown class label %d", i, node.ClassLabel)
			}
			if len(node.Distribution) > 0 {
				if len(node.Distribution) != len(a.Classes) {
					return fmt.Errorf("node %d: distribution has %d entries, want %d", i, len(node.Distribution), len(a.Classes))
				}
				if err := checkDistribution(node.Distribution); err != nil {
					return fmt.Errorf("node %d: %w", i, err)
				}
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= width {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.FeatureIdx)
		}
		if node.LeftChild <= i || node.LeftChild >= len(nodes) || node.RightChild <= i || node.RightChild >= len(nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}

	dt.schema = a.FeatureSchema
	dt.classes = append([]int(nil), a.Classes...)
	dt.cats = a.Categories
	dt.encoder = encoder
	dt.nodes = nodes
	return nil
}

// distributionTolerance 叶子概率和与1的允许误差
const distributionTolerance = 1e-6

func checkDistribution(dist []float64) error {
	var sum float64
	for _, p := range dist {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("distribution entry %v outside [0,1]", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > distributionTolerance {
		return fmt.Errorf("distribution sums to %v, want 1", sum)
	}
	return nil
}
