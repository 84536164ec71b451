package regressor

import (
	"strconv"
	"time"

	"github.com/YuminosukeSato/houseprice/lightgbm"
	"github.com/YuminosukeSato/houseprice/metrics"
)

// Result is the outcome of one prediction request. Values is aligned
// row for row with the uploaded table.
type Result struct {
	Values       []float64           `json:"predictions"`
	IDColumn     string              `json:"id_column,omitempty"`
	Labels       []string            `json:"ids,omitempty"`
	TargetColumn string              `json:"target_column,omitempty"`
	Target       []float64           `json:"-"`
	Summary      metrics.Summary     `json:"summary"`
	Evaluation   *metrics.Evaluation `json:"evaluation,omitempty"`
	Model        ModelInfo           `json:"model"`
	Duration     time.Duration       `json:"-"`
}

// NumRows returns the number of predictions.
func (r *Result) NumRows() int {
	return len(r.Values)
}

// Label returns the row label for row i: the ID column value when one was
// uploaded, otherwise the 0-based row index.
func (r *Result) Label(i int) string {
	if i < len(r.Labels) {
		return r.Labels[i]
	}
	return strconv.Itoa(i)
}

// ModelInfo is display metadata about the loaded model.
type ModelInfo struct {
	Path          string              `json:"path"`
	Version       string              `json:"version"`
	Objective     string              `json:"objective"`
	NumFeatures   int                 `json:"num_features"`
	NumTrees      int                 `json:"num_trees"`
	NumIterations int                 `json:"num_iterations"`
	FeatureNames  []string            `json:"feature_names"`
	NamedFeatures bool                `json:"named_features"`
	Importance    []FeatureImportance `json:"importance,omitempty"`
}

// FeatureImportance is the split count and total gain of one feature.
type FeatureImportance struct {
	Name  string  `json:"name"`
	Split float64 `json:"split"`
	Gain  float64 `json:"gain"`
}

func describe(path string, model *lightgbm.Model) *ModelInfo {
	info := &ModelInfo{
		Path:          path,
		Version:       model.Version,
		Objective:     model.Objective.String(),
		NumFeatures:   model.NumFeatures(),
		NumTrees:      len(model.Trees),
		NumIterations: model.NumIterations(),
		FeatureNames:  model.FeatureNames(),
		NamedFeatures: model.HasFeatureNames(),
	}

	split, err := model.FeatureImportance("split")
	if err != nil {
		return info
	}
	gain, err := model.FeatureImportance("gain")
	if err != nil {
		return info
	}
	for j := range split {
		name := strconv.Itoa(j)
		if j < len(info.FeatureNames) {
			name = info.FeatureNames[j]
		}
		info.Importance = append(info.Importance, FeatureImportance{Name: name, Split: split[j], Gain: gain[j]})
	}
	return info
}
