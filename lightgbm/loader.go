package lightgbm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// maxLineBytes bounds a single line of the text format. feature_names and
// feature_infos of wide datasets can exceed bufio.Scanner's 64KB default.
const maxLineBytes = 64 << 20

// LoadFromFile loads a model in LightGBM text format from path.
// Any failure is returned as a ModelLoadError carrying the path.
func LoadFromFile(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewModelLoadError(path, err)
	}
	defer file.Close()

	model, err := LoadFromReader(file)
	if err != nil {
		return nil, errors.NewModelLoadError(path, err)
	}
	return model, nil
}

// LoadFromString loads a model from the string returned by model_to_string.
func LoadFromString(s string) (*Model, error) {
	return LoadFromReader(strings.NewReader(s))
}

// LoadFromReader loads a model in LightGBM text format.
func LoadFromReader(r io.Reader) (*Model, error) {
	header := newTreeParams("header")
	var blocks []treeParams
	parameters := make(map[string]string)

	section := "header"
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case section == "header" && line == "tree":
		case strings.HasPrefix(line, "Tree="):
			idx, err := strconv.Atoi(strings.TrimPrefix(line, "Tree="))
			if err != nil || idx != len(blocks) {
				return nil, errors.NewModelFormatError(line, "", fmt.Sprintf("expected Tree=%d", len(blocks)))
			}
			blocks = append(blocks, newTreeParams(line))
			section = "tree"
		case line == "end of trees":
			section = "trailer"
		case line == "parameters:":
			section = "parameters"
		case line == "end of parameters", line == "feature_importances:":
			section = "trailer"
		case section == "parameters":
			// [learning_rate: 0.05]
			k, v, ok := strings.Cut(strings.Trim(line, "[]"), ":")
			if ok {
				parameters[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		case section == "header":
			header.set(line)
		case section == "tree":
			blocks[len(blocks)-1].set(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewModelFormatError(section, "", err.Error())
	}
	if len(header.kv) == 0 && len(blocks) == 0 {
		return nil, errors.NewModelFormatError("header", "", "empty model")
	}

	model, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	if sizes, ok := header.kv["tree_sizes"]; ok && sizes != "" {
		if n := len(strings.Fields(sizes)); n != len(blocks) {
			return nil, errors.NewModelFormatError("header", "tree_sizes",
				fmt.Sprintf("declares %d trees, found %d", n, len(blocks)))
		}
	}

	model.Trees = make([]Tree, 0, len(blocks))
	for _, block := range blocks {
		tree, err := parseTree(block)
		if err != nil {
			return nil, err
		}
		model.Trees = append(model.Trees, tree)
	}
	if len(parameters) > 0 {
		model.Parameters = parameters
	}

	if err := model.validate(); err != nil {
		return nil, err
	}
	return model, nil
}

func parseHeader(p treeParams) (*Model, error) {
	model := &Model{
		Version:       p.kv["version"],
		Objective:     ParseObjective(p.kv["objective"]),
		AverageOutput: p.has("average_output"),
	}

	var err error
	if model.MaxFeatureIdx, err = p.toInt("max_feature_idx"); err != nil {
		return nil, err
	}
	if model.NumClass, err = p.toIntDefault("num_class", 1); err != nil {
		return nil, err
	}
	if model.NumTreePerIteration, err = p.toIntDefault("num_tree_per_iteration", model.NumClass); err != nil {
		return nil, err
	}
	if model.NumClass < 1 || model.NumTreePerIteration < 1 {
		return nil, errors.NewModelFormatError("header", "num_class", "must be >= 1")
	}
	model.Names = strings.Fields(p.kv["feature_names"])
	model.FeatureInfos = strings.Fields(p.kv["feature_infos"])
	return model, nil
}

func parseTree(p treeParams) (Tree, error) {
	t := Tree{Shrinkage: 1}

	var err error
	if t.NumLeaves, err = p.toInt("num_leaves"); err != nil {
		return t, err
	}
	if t.NumCat, err = p.toIntDefault("num_cat", 0); err != nil {
		return t, err
	}
	if v, ok := p.kv["is_linear"]; ok && v != "0" {
		return t, errors.NewModelFormatError(p.section, "is_linear", "linear trees are not supported")
	}
	if t.LeafValue, err = p.toFloat64Slice("leaf_value"); err != nil {
		return t, err
	}
	if _, ok := p.kv["shrinkage"]; ok {
		if t.Shrinkage, err = p.toFloat64("shrinkage"); err != nil {
			return t, err
		}
	}
	if _, ok := p.kv["leaf_count"]; ok {
		if t.LeafCount, err = p.toIntSlice("leaf_count"); err != nil {
			return t, err
		}
	}

	// Special case - constant value tree (single leaf)
	if t.NumLeaves <= 1 {
		return t, nil
	}

	if t.SplitFeature, err = p.toIntSlice("split_feature"); err != nil {
		return t, err
	}
	if _, ok := p.kv["split_gain"]; ok {
		if t.SplitGain, err = p.toFloat64Slice("split_gain"); err != nil {
			return t, err
		}
	}
	if t.Threshold, err = p.toFloat64Slice("threshold"); err != nil {
		return t, err
	}
	if t.DecisionType, err = p.toUint8Slice("decision_type"); err != nil {
		return t, err
	}
	if t.LeftChild, err = p.toIntSlice("left_child"); err != nil {
		return t, err
	}
	if t.RightChild, err = p.toIntSlice("right_child"); err != nil {
		return t, err
	}
	if t.NumCat > 0 {
		if t.CatBoundaries, err = p.toIntSlice("cat_boundaries"); err != nil {
			return t, err
		}
		if t.CatThreshold, err = p.toUint32Slice("cat_threshold"); err != nil {
			return t, err
		}
	}
	return t, nil
}

// Helper types and functions
type treeParams struct {
	section string
	kv      map[string]string
}

func newTreeParams(section string) treeParams {
	return treeParams{section: section, kv: make(map[string]string)}
}

// set records a "key=value" line. Bare keys such as average_output are flags.
func (p treeParams) set(line string) {
	key, value, _ := strings.Cut(line, "=")
	p.kv[strings.TrimSpace(key)] = strings.TrimSpace(value)
}

func (p treeParams) has(key string) bool {
	_, ok := p.kv[key]
	return ok
}

func (p treeParams) lookup(key string) (string, error) {
	v, ok := p.kv[key]
	if !ok {
		return "", errors.NewModelFormatError(p.section, key, "key not found")
	}
	return v, nil
}

func (p treeParams) invalid(key, value string, err error) error {
	return errors.NewModelFormatError(p.section, key, fmt.Sprintf("invalid value %q: %v", value, err))
}

func (p treeParams) toInt(key string) (int, error) {
	v, err := p.lookup(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, p.invalid(key, v, err)
	}
	return n, nil
}

func (p treeParams) toIntDefault(key string, def int) (int, error) {
	if !p.has(key) {
		return def, nil
	}
	return p.toInt(key)
}

func (p treeParams) toFloat64(key string) (float64, error) {
	v, err := p.lookup(key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, p.invalid(key, v, err)
	}
	return f, nil
}

func (p treeParams) toFloat64Slice(key string) ([]float64, error) {
	v, err := p.lookup(key)
	if err != nil {
		return nil, err
	}
	parts := strings.Fields(v)
	result := make([]float64, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, p.invalid(key, part, err)
		}
		result = append(result, val)
	}
	return result, nil
}

func (p treeParams) toIntSlice(key string) ([]int, error) {
	v, err := p.lookup(key)
	if err != nil {
		return nil, err
	}
	parts := strings.Fields(v)
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseInt(part, 10, 32)
		if err != nil {
			return nil, p.invalid(key, part, err)
		}
		result = append(result, int(val))
	}
	return result, nil
}

func (p treeParams) toUint32Slice(key string) ([]uint32, error) {
	v, err := p.lookup(key)
	if err != nil {
		return nil, err
	}
	parts := strings.Fields(v)
	result := make([]uint32, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, p.invalid(key, part, err)
		}
		result = append(result, uint32(val))
	}
	return result, nil
}

func (p treeParams) toUint8Slice(key string) ([]uint8, error) {
	v, err := p.lookup(key)
	if err != nil {
		return nil, err
	}
	parts := strings.Fields(v)
	result := make([]uint8, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseUint(part, 10, 8)
		if err != nil {
			return nil, p.invalid(key, part, err)
		}
		result = append(result, uint8(val))
	}
	return result, nil
}
