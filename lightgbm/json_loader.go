package lightgbm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// JSONModel represents the top-level structure of a LightGBM JSON model
type JSONModel struct {
	Name                string                 `json:"name"`
	Version             string                 `json:"version"`
	NumClass            int                    `json:"num_class"`
	NumTreePerIteration int                    `json:"num_tree_per_iteration"`
	LabelIndex          int                    `json:"label_index"`
	MaxFeatureIdx       *int                   `json:"max_feature_idx"`
	Objective           string                 `json:"objective"`
	AverageOutput       bool                   `json:"average_output"`
	FeatureNames        []string               `json:"feature_names"`
	FeatureInfos        map[string]FeatureInfo `json:"feature_infos"`
	TreeInfo            []JSONTreeInfo         `json:"tree_info"`
}

// FeatureInfo contains min/max values and categorical values for a feature
type FeatureInfo struct {
	MinValue float64   `json:"min_value"`
	MaxValue float64   `json:"max_value"`
	Values   []float64 `json:"values"`
}

// JSONTreeInfo represents information about a single tree
type JSONTreeInfo struct {
	TreeIndex     int          `json:"tree_index"`
	NumLeaves     int          `json:"num_leaves"`
	NumCat        int          `json:"num_cat"`
	Shrinkage     float64      `json:"shrinkage"`
	TreeStructure JSONTreeNode `json:"tree_structure"`
}

// JSONTreeNode represents a node in the tree (can be internal or leaf).
// Index fields are pointers because 0 is a valid index.
type JSONTreeNode struct {
	// Internal node fields
	SplitIndex   *int          `json:"split_index"`
	SplitFeature int           `json:"split_feature"`
	SplitGain    float64       `json:"split_gain"`
	Threshold    interface{}   `json:"threshold"` // float64, or "1||3" for categorical
	DecisionType string        `json:"decision_type"`
	DefaultLeft  bool          `json:"default_left"`
	MissingType  string        `json:"missing_type"`
	LeftChild    *JSONTreeNode `json:"left_child"`
	RightChild   *JSONTreeNode `json:"right_child"`

	// Leaf node fields
	LeafIndex *int    `json:"leaf_index"`
	LeafValue float64 `json:"leaf_value"`
	LeafCount int     `json:"leaf_count"`
}

func (n *JSONTreeNode) isLeaf() bool {
	return n.LeftChild == nil && n.RightChild == nil
}

// LoadJSONFromFile loads a model from a dump_model JSON file.
func LoadJSONFromFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewModelLoadError(path, err)
	}
	model, err := LoadFromJSON(data)
	if err != nil {
		return nil, errors.NewModelLoadError(path, err)
	}
	return model, nil
}

// LoadFromJSON loads a model from dump_model JSON bytes.
func LoadFromJSON(data []byte) (*Model, error) {
	var jm JSONModel
	if err := json.Unmarshal(data, &jm); err != nil {
		return nil, errors.NewModelFormatError("json", "", err.Error())
	}
	if jm.MaxFeatureIdx == nil {
		return nil, errors.NewModelFormatError("json", "max_feature_idx", "key not found")
	}

	model := &Model{
		Version:             jm.Version,
		NumClass:            jm.NumClass,
		NumTreePerIteration: jm.NumTreePerIteration,
		MaxFeatureIdx:       *jm.MaxFeatureIdx,
		Objective:           ParseObjective(jm.Objective),
		AverageOutput:       jm.AverageOutput,
		Names:               jm.FeatureNames,
	}
	if model.NumClass == 0 {
		model.NumClass = 1
	}
	if model.NumTreePerIteration == 0 {
		model.NumTreePerIteration = model.NumClass
	}
	for _, name := range jm.FeatureNames {
		if info, ok := jm.FeatureInfos[name]; ok {
			model.FeatureInfos = append(model.FeatureInfos, info.String())
		}
	}

	model.Trees = make([]Tree, 0, len(jm.TreeInfo))
	for i := range jm.TreeInfo {
		tree, err := convertJSONTree(&jm.TreeInfo[i])
		if err != nil {
			return nil, errors.NewModelFormatError(fmt.Sprintf("Tree=%d", i), "tree_structure", err.Error())
		}
		model.Trees = append(model.Trees, tree)
	}

	if err := model.validate(); err != nil {
		return nil, err
	}
	return model, nil
}

// String renders the info in the text format's notation.
func (fi FeatureInfo) String() string {
	if len(fi.Values) > 0 {
		parts := make([]string, len(fi.Values))
		for i, v := range fi.Values {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		return strings.Join(parts, ":")
	}
	return fmt.Sprintf("[%g:%g]", fi.MinValue, fi.MaxValue)
}

// convertJSONTree converts the nested JSON structure into the array layout.
func convertJSONTree(info *JSONTreeInfo) (Tree, error) {
	numLeaves := info.NumLeaves
	if numLeaves < 1 {
		numLeaves = 1
	}
	numNodes := numLeaves - 1
	t := Tree{
		NumLeaves:    numLeaves,
		NumCat:       info.NumCat,
		Shrinkage:    info.Shrinkage,
		SplitFeature: make([]int, numNodes),
		SplitGain:    make([]float64, numNodes),
		Threshold:    make([]float64, numNodes),
		DecisionType: make([]uint8, numNodes),
		LeftChild:    make([]int, numNodes),
		RightChild:   make([]int, numNodes),
		LeafValue:    make([]float64, numLeaves),
		LeafCount:    make([]int, numLeaves),
	}
	if numNodes == 0 {
		t.SplitFeature, t.SplitGain, t.Threshold = nil, nil, nil
		t.DecisionType, t.LeftChild, t.RightChild = nil, nil, nil
	}

	seenNodes := make([]bool, numNodes)
	seenLeaves := make([]bool, numLeaves)

	var visit func(n *JSONTreeNode) (int, error)
	visit = func(n *JSONTreeNode) (int, error) {
		if n.isLeaf() {
			idx := 0
			if n.LeafIndex != nil {
				idx = *n.LeafIndex
			}
			if idx < 0 || idx >= numLeaves || seenLeaves[idx] {
				return 0, fmt.Errorf("invalid or repeated leaf_index %d", idx)
			}
			seenLeaves[idx] = true
			t.LeafValue[idx] = n.LeafValue
			t.LeafCount[idx] = n.LeafCount
			return ^idx, nil
		}
		if n.LeftChild == nil || n.RightChild == nil {
			return 0, fmt.Errorf("internal node has a single child")
		}
		if n.SplitIndex == nil {
			return 0, fmt.Errorf("internal node without split_index")
		}
		idx := *n.SplitIndex
		if idx < 0 || idx >= numNodes || seenNodes[idx] {
			return 0, fmt.Errorf("invalid or repeated split_index %d", idx)
		}
		seenNodes[idx] = true

		t.SplitFeature[idx] = n.SplitFeature
		t.SplitGain[idx] = n.SplitGain
		dt, err := decisionTypeOf(n)
		if err != nil {
			return 0, err
		}
		t.DecisionType[idx] = dt
		if dt&categoricalMask != 0 {
			cats, err := parseCategories(n.Threshold)
			if err != nil {
				return 0, err
			}
			if t.CatBoundaries == nil {
				t.CatBoundaries = []int{0}
			}
			t.Threshold[idx] = float64(len(t.CatBoundaries) - 1)
			t.CatThreshold = append(t.CatThreshold, toBitset(cats)...)
			t.CatBoundaries = append(t.CatBoundaries, len(t.CatThreshold))
		} else {
			thr, ok := n.Threshold.(float64)
			if !ok {
				return 0, fmt.Errorf("numerical split %d has non numeric threshold %v", idx, n.Threshold)
			}
			t.Threshold[idx] = thr
		}

		if t.LeftChild[idx], err = visit(n.LeftChild); err != nil {
			return 0, err
		}
		if t.RightChild[idx], err = visit(n.RightChild); err != nil {
			return 0, err
		}
		return idx, nil
	}

	if _, err := visit(&info.TreeStructure); err != nil {
		return t, err
	}
	for i, ok := range seenLeaves {
		if !ok {
			return t, fmt.Errorf("leaf %d is unreachable", i)
		}
	}
	if len(t.CatBoundaries) > 0 {
		t.NumCat = len(t.CatBoundaries) - 1
	}
	return t, nil
}

func decisionTypeOf(n *JSONTreeNode) (uint8, error) {
	var dt uint8
	switch n.DecisionType {
	case "<=", "":
	case "==":
		dt |= categoricalMask
	default:
		return 0, fmt.Errorf("unsupported decision_type %q", n.DecisionType)
	}
	if n.DefaultLeft {
		dt |= defaultLeftMask
	}
	switch n.MissingType {
	case "None", "":
	case "Zero":
		dt |= uint8(MissingZero) << 2
	case "NaN":
		dt |= uint8(MissingNaN) << 2
	default:
		return 0, fmt.Errorf("unsupported missing_type %q", n.MissingType)
	}
	return dt, nil
}

// parseCategories parses a categorical threshold such as "1||3||7".
func parseCategories(v interface{}) ([]int, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case float64:
		return []int{int(x)}, nil
	default:
		return nil, fmt.Errorf("invalid categorical threshold %v", v)
	}
	var cats []int
	for _, part := range strings.Split(s, "||") {
		c, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || c < 0 {
			return nil, fmt.Errorf("invalid category %q", part)
		}
		cats = append(cats, c)
	}
	return cats, nil
}

func toBitset(cats []int) []uint32 {
	maxCat := 0
	for _, c := range cats {
		if c > maxCat {
			maxCat = c
		}
	}
	bits := make([]uint32, maxCat/32+1)
	for _, c := range cats {
		bits[c/32] |= 1 << (uint(c) % 32)
	}
	return bits
}

// LoadAuto loads a model from path, choosing the JSON loader when the first
// non-space byte is '{' and the text loader otherwise.
func LoadAuto(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewModelLoadError(path, err)
	}
	var model *Model
	if trimmed := bytes.TrimLeft(data, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '{' {
		model, err = LoadFromJSON(data)
	} else {
		model, err = LoadFromReader(bytes.NewReader(data))
	}
	if err != nil {
		return nil, errors.NewModelLoadError(path, err)
	}
	return model, nil
}
