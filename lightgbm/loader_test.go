package lightgbm

import (
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

func TestLoadFromFile(t *testing.T) {
	model, err := LoadFromFile("testdata/house_model.txt")
	require.NoError(t, err)

	assert.Equal(t, "v4", model.Version)
	assert.Equal(t, 1, model.NumClass)
	assert.Equal(t, 1, model.NumTreePerIteration)
	assert.Equal(t, 6, model.NumFeatures())
	assert.Equal(t, RegressionL2, model.Objective.Type)
	assert.True(t, model.Objective.IsRegression())
	assert.False(t, model.AverageOutput)
	assert.Equal(t,
		[]string{"OverallQual", "GrLivArea", "GarageCars", "TotalBsmtSF", "YearBuilt", "FullBath"},
		model.FeatureNames())
	assert.True(t, model.HasFeatureNames())
	assert.Len(t, model.FeatureInfos, 6)
	assert.Equal(t, "0.1", model.Parameters["learning_rate"])

	require.Len(t, model.Trees, 3)
	assert.Equal(t, 3, model.NumIterations())

	tree := model.Trees[0]
	assert.Equal(t, 4, tree.NumLeaves)
	assert.Equal(t, []int{0, 1, 1}, tree.SplitFeature)
	assert.Equal(t, []int{1, -1, -3}, tree.LeftChild)
	assert.Equal(t, []int{2, -2, -4}, tree.RightChild)
	assert.Equal(t, []float64{120000, 150000, 210000, 290000}, tree.LeafValue)
	assert.Equal(t, []uint8{2, 10}, model.Trees[1].DecisionType)
	assert.InDelta(t, 0.1, model.Trees[2].Shrinkage, 1e-12)
}

func TestLoadFromString(t *testing.T) {
	data, err := os.ReadFile("testdata/house_model.txt")
	require.NoError(t, err)

	fromString, err := LoadFromString(string(data))
	require.NoError(t, err)
	fromFile, err := LoadFromFile("testdata/house_model.txt")
	require.NoError(t, err)

	assert.Equal(t, fromFile, fromString)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile("testdata/does_not_exist.txt")
	require.Error(t, err)

	var loadErr *errors.ModelLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "testdata/does_not_exist.txt", loadErr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadFromFileCorrupt(t *testing.T) {
	_, err := LoadFromFile("testdata/corrupt_model.txt")
	require.Error(t, err)

	var loadErr *errors.ModelLoadError
	assert.True(t, errors.As(err, &loadErr))
	var formatErr *errors.ModelFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, "max_feature_idx", formatErr.Key)
}

func TestLoadFromReaderMalformed(t *testing.T) {
	const header = "tree\nversion=v4\nnum_class=1\nmax_feature_idx=0\nobjective=regression\nfeature_names=x\n\n"

	tests := []struct {
		name    string
		input   string
		section string
		key     string
	}{
		{
			name:    "empty input",
			input:   "",
			section: "header",
		},
		{
			name:    "no trees",
			input:   header + "end of trees\n",
			section: "header",
			key:     "tree_sizes",
		},
		{
			name:    "non numeric threshold",
			input:   header + "Tree=0\nnum_leaves=2\nsplit_feature=0\nthreshold=abc\ndecision_type=0\nleft_child=-1\nright_child=-2\nleaf_value=1 2\n\nend of trees\n",
			section: "Tree=0",
			key:     "threshold",
		},
		{
			name:    "missing leaf_value",
			input:   header + "Tree=0\nnum_leaves=1\n\nend of trees\n",
			section: "Tree=0",
			key:     "leaf_value",
		},
		{
			name:    "leaf count mismatch",
			input:   header + "Tree=0\nnum_leaves=2\nsplit_feature=0\nthreshold=1\ndecision_type=0\nleft_child=-1\nright_child=-2\nleaf_value=1\n\nend of trees\n",
			section: "Tree=0",
		},
		{
			name:    "feature out of range",
			input:   header + "Tree=0\nnum_leaves=2\nsplit_feature=3\nthreshold=1\ndecision_type=0\nleft_child=-1\nright_child=-2\nleaf_value=1 2\n\nend of trees\n",
			section: "Tree=0",
		},
		{
			name:    "child cycle",
			input:   header + "Tree=0\nnum_leaves=3\nsplit_feature=0 0\nthreshold=1 2\ndecision_type=0 0\nleft_child=1 0\nright_child=-1 -2\nleaf_value=1 2 3\n\nend of trees\n",
			section: "Tree=0",
		},
		{
			name:    "out of order tree",
			input:   header + "Tree=1\nnum_leaves=1\nleaf_value=1\n\nend of trees\n",
			section: "Tree=1",
		},
		{
			name:    "tree_sizes mismatch",
			input:   strings.Replace(header, "feature_names=x\n", "feature_names=x\ntree_sizes=10 10\n", 1) + "Tree=0\nnum_leaves=1\nleaf_value=1\n\nend of trees\n",
			section: "header",
			key:     "tree_sizes",
		},
		{
			name:    "linear tree",
			input:   header + "Tree=0\nnum_leaves=1\nleaf_value=1\nis_linear=1\n\nend of trees\n",
			section: "Tree=0",
			key:     "is_linear",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromReader(strings.NewReader(tt.input))
			require.Error(t, err)

			var formatErr *errors.ModelFormatError
			require.True(t, errors.As(err, &formatErr), "got %v", err)
			assert.Equal(t, tt.section, formatErr.Section)
			if tt.key != "" {
				assert.Equal(t, tt.key, formatErr.Key)
			}
		})
	}
}

func TestLoadFromReaderSingleLeafAndAverage(t *testing.T) {
	model, err := LoadFromFile("testdata/poisson_model.txt")
	require.NoError(t, err)

	assert.True(t, model.AverageOutput)
	assert.Equal(t, RegressionPoisson, model.Objective.Type)
	assert.False(t, model.HasFeatureNames())
	require.Len(t, model.Trees, 2)
	assert.Equal(t, 1, model.Trees[1].NumLeaves)

	// (1 + 3) / 2 iterations, then exp
	assert.InDelta(t, math.Exp(2), model.PredictSingle([]float64{3}, 0)[0], 1e-9)
	assert.InDelta(t, math.Exp(2.5), model.PredictSingle([]float64{7}, 0)[0], 1e-9)
	assert.InDelta(t, 2.5, model.PredictRaw([]float64{7}, 0)[0], 1e-12)
}

func TestLoadAuto(t *testing.T) {
	text, err := LoadAuto("testdata/house_model.txt")
	require.NoError(t, err)
	js, err := LoadAuto("testdata/house_model.json")
	require.NoError(t, err)

	assert.Equal(t, text.FeatureNames(), js.FeatureNames())
	assert.Len(t, js.Trees, len(text.Trees))

	_, err = LoadAuto("testdata/nope.json")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseObjective(t *testing.T) {
	tests := []struct {
		in         string
		want       ObjectiveType
		regression bool
	}{
		{"regression", RegressionL2, true},
		{"", RegressionL2, true},
		{"huber alpha:0.9", RegressionHuber, true},
		{"tweedie tweedie_variance_power:1.5", RegressionTweedie, true},
		{"mae", RegressionL1, true},
		{"binary sigmoid:1", BinaryLogistic, false},
		{"multiclass num_class:3", MulticlassSoftmax, false},
		{"lambdarank", LambdaRank, false},
	}
	for _, tt := range tests {
		obj := ParseObjective(tt.in)
		assert.Equal(t, tt.want, obj.Type, tt.in)
		assert.Equal(t, tt.regression, obj.IsRegression(), tt.in)
	}

	obj := ParseObjective("binary sigmoid:2")
	assert.Equal(t, "2", obj.Params["sigmoid"])
	assert.Equal(t, "binary sigmoid:2", obj.String())
}
