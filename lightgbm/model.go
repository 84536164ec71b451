package lightgbm

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/houseprice/core/model"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

var (
	_ model.FeatureSchema = (*Model)(nil)
	_ model.Describer     = (*Model)(nil)
)

// ObjectiveType represents the objective function type
type ObjectiveType string

const (
	// Regression objectives
	RegressionL2       ObjectiveType = "regression"
	RegressionL1       ObjectiveType = "regression_l1"
	RegressionHuber    ObjectiveType = "huber"
	RegressionFair     ObjectiveType = "fair"
	RegressionPoisson  ObjectiveType = "poisson"
	RegressionQuantile ObjectiveType = "quantile"
	RegressionMAPE     ObjectiveType = "mape"
	RegressionGamma    ObjectiveType = "gamma"
	RegressionTweedie  ObjectiveType = "tweedie"

	// Binary classification objectives
	BinaryLogistic     ObjectiveType = "binary"
	BinaryCrossEntropy ObjectiveType = "cross_entropy"

	// Multiclass classification objectives
	MulticlassSoftmax ObjectiveType = "multiclass"
	MulticlassOVA     ObjectiveType = "multiclassova"

	// Ranking objectives
	LambdaRank ObjectiveType = "lambdarank"
	RankXENDCG ObjectiveType = "rank_xendcg"
)

// Objective is the parsed "objective=" line of a model, e.g.
// "binary sigmoid:1" or "tweedie tweedie_variance_power:1.5".
type Objective struct {
	Type   ObjectiveType
	Params map[string]string
}

// ParseObjective parses an objective string as written by LightGBM.
func ParseObjective(s string) Objective {
	fields := strings.Fields(s)
	obj := Objective{Type: RegressionL2, Params: map[string]string{}}
	if len(fields) == 0 {
		return obj
	}
	switch fields[0] {
	case "regression_l2", "l2", "mean_squared_error", "mse", "l2_root", "rmse":
		obj.Type = RegressionL2
	case "l1", "mean_absolute_error", "mae":
		obj.Type = RegressionL1
	case "mean_absolute_percentage_error":
		obj.Type = RegressionMAPE
	case "xentropy":
		obj.Type = BinaryCrossEntropy
	case "softmax":
		obj.Type = MulticlassSoftmax
	case "ova", "ovr", "multiclass_ova":
		obj.Type = MulticlassOVA
	default:
		obj.Type = ObjectiveType(fields[0])
	}
	for _, f := range fields[1:] {
		if k, v, ok := strings.Cut(f, ":"); ok {
			obj.Params[k] = v
		}
	}
	return obj
}

// IsRegression reports whether the objective produces a single real valued target.
func (o Objective) IsRegression() bool {
	switch o.Type {
	case RegressionL2, RegressionL1, RegressionHuber, RegressionFair, RegressionPoisson,
		RegressionQuantile, RegressionMAPE, RegressionGamma, RegressionTweedie:
		return true
	}
	return false
}

// String returns the objective in LightGBM notation.
func (o Objective) String() string {
	if len(o.Params) == 0 {
		return string(o.Type)
	}
	keys := make([]string, 0, len(o.Params))
	for k := range o.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(string(o.Type))
	for _, k := range keys {
		fmt.Fprintf(&b, " %s:%s", k, o.Params[k])
	}
	return b.String()
}

func (o Objective) sigmoid() float64 {
	if v, ok := o.Params["sigmoid"]; ok {
		if s, err := strconv.ParseFloat(v, 64); err == nil && s > 0 {
			return s
		}
	}
	return 1.0
}

// Model represents a complete LightGBM model ensemble.
// A Model is immutable after loading and safe for concurrent use.
type Model struct {
	Version             string
	NumClass            int
	NumTreePerIteration int
	MaxFeatureIdx       int
	Objective           Objective
	AverageOutput       bool
	Names               []string // feature names, len == MaxFeatureIdx+1
	FeatureInfos        []string
	Trees               []Tree
	Parameters          map[string]string // training parameters, when present
}

// NumFeatures returns the number of input features.
func (m *Model) NumFeatures() int {
	return m.MaxFeatureIdx + 1
}

// FeatureNames returns the feature names in model order.
func (m *Model) FeatureNames() []string {
	out := make([]string, len(m.Names))
	copy(out, m.Names)
	return out
}

var autoNamePattern = regexp.MustCompile(`^Column_\d+$`)

// HasFeatureNames reports whether the model was trained with real column names.
// LightGBM names features Column_0, Column_1, ... when it was given a bare matrix.
func (m *Model) HasFeatureNames() bool {
	if len(m.Names) == 0 {
		return false
	}
	for _, n := range m.Names {
		if !autoNamePattern.MatchString(n) {
			return true
		}
	}
	return false
}

// NumOutputs returns the number of values produced per sample.
func (m *Model) NumOutputs() int {
	if m.NumTreePerIteration < 1 {
		return 1
	}
	return m.NumTreePerIteration
}

// NumIterations returns the number of boosting rounds.
func (m *Model) NumIterations() int {
	return len(m.Trees) / m.NumOutputs()
}

// Describe returns display metadata about the model.
func (m *Model) Describe() map[string]string {
	return map[string]string{
		"version":    m.Version,
		"objective":  m.Objective.String(),
		"features":   strconv.Itoa(m.NumFeatures()),
		"trees":      strconv.Itoa(len(m.Trees)),
		"iterations": strconv.Itoa(m.NumIterations()),
	}
}

// PredictRaw returns the raw scores (sum of leaf values per output group) for
// one sample using the first numIteration rounds (all when <= 0).
func (m *Model) PredictRaw(fvals []float64, numIteration int) []float64 {
	k := m.NumOutputs()
	nTrees := len(m.Trees)
	if numIteration > 0 && numIteration*k < nTrees {
		nTrees = numIteration * k
	}
	out := make([]float64, k)
	for i := 0; i < nTrees; i++ {
		out[i%k] += m.Trees[i].Predict(fvals)
	}
	if m.AverageOutput && nTrees >= k {
		iters := float64(nTrees / k)
		for j := range out {
			out[j] /= iters
		}
	}
	return out
}

// PredictSingle returns the transformed prediction for one sample.
func (m *Model) PredictSingle(fvals []float64, numIteration int) []float64 {
	return m.transform(m.PredictRaw(fvals, numIteration))
}

// transform converts raw scores into the objective's output space.
func (m *Model) transform(raw []float64) []float64 {
	switch m.Objective.Type {
	case RegressionPoisson, RegressionGamma, RegressionTweedie:
		for i := range raw {
			raw[i] = math.Exp(raw[i])
		}
	case BinaryLogistic:
		s := m.Objective.sigmoid()
		for i := range raw {
			raw[i] = sigmoid(s * raw[i])
		}
	case BinaryCrossEntropy, MulticlassOVA:
		for i := range raw {
			raw[i] = sigmoid(raw[i])
		}
	case MulticlassSoftmax:
		raw = softmax(raw)
	}
	return raw
}

// FeatureImportance returns per feature importance. "split" counts how many
// times each feature is used, "gain" sums the split gains.
func (m *Model) FeatureImportance(importanceType string) ([]float64, error) {
	importance := make([]float64, m.NumFeatures())
	for ti := range m.Trees {
		t := &m.Trees[ti]
		for n := 0; n < t.numNodes(); n++ {
			switch importanceType {
			case "split":
				importance[t.SplitFeature[n]]++
			case "gain":
				if n < len(t.SplitGain) {
					importance[t.SplitFeature[n]] += t.SplitGain[n]
				}
			default:
				return nil, errors.NewValueError("lightgbm.FeatureImportance",
					fmt.Sprintf("unknown importance type %q (want \"split\" or \"gain\")", importanceType))
			}
		}
	}
	return importance, nil
}

// validate checks the structural consistency of every tree against the header.
func (m *Model) validate() error {
	if m.MaxFeatureIdx < 0 {
		return errors.NewModelFormatError("header", "max_feature_idx", "must be >= 0")
	}
	if len(m.Names) != 0 && len(m.Names) != m.NumFeatures() {
		return errors.NewModelFormatError("header", "feature_names",
			fmt.Sprintf("expected %d names, got %d", m.NumFeatures(), len(m.Names)))
	}
	if len(m.Trees) == 0 {
		return errors.NewModelFormatError("header", "tree_sizes", "model has no trees")
	}
	if len(m.Trees)%m.NumOutputs() != 0 {
		return errors.NewModelFormatError("header", "num_tree_per_iteration",
			fmt.Sprintf("%d trees is not a multiple of %d", len(m.Trees), m.NumOutputs()))
	}
	for i := range m.Trees {
		if err := m.Trees[i].validate(m.NumFeatures()); err != nil {
			return errors.NewModelFormatError(fmt.Sprintf("Tree=%d", i), "", err.Error())
		}
	}
	return nil
}

// Helper functions

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func softmax(x []float64) []float64 {
	maxVal := math.Inf(-1)
	for _, v := range x {
		if v > maxVal {
			maxVal = v
		}
	}
	sum := 0.0
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = errors.StabilizeExp(v - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
