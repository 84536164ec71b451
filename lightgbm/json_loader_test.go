package lightgbm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// TestLoadJSONMatchesText checks that both formats produce the same trees.
func TestLoadJSONMatchesText(t *testing.T) {
	text, err := LoadFromFile("testdata/house_model.txt")
	require.NoError(t, err)
	js, err := LoadJSONFromFile("testdata/house_model.json")
	require.NoError(t, err)

	assert.Equal(t, text.NumFeatures(), js.NumFeatures())
	assert.Equal(t, text.Objective.Type, js.Objective.Type)
	assert.Equal(t, []string{"[1:10]", "[334:5642]", "[0:4]", "[0:6110]", "[1872:2010]", "[0:3]"}, js.FeatureInfos)
	require.Len(t, js.Trees, len(text.Trees))

	for i := range text.Trees {
		tt, jt := text.Trees[i], js.Trees[i]
		assert.Equal(t, tt.NumLeaves, jt.NumLeaves, "tree %d", i)
		assert.Equal(t, tt.SplitFeature, jt.SplitFeature, "tree %d", i)
		assert.Equal(t, tt.DecisionType, jt.DecisionType, "tree %d", i)
		assert.Equal(t, tt.LeftChild, jt.LeftChild, "tree %d", i)
		assert.Equal(t, tt.RightChild, jt.RightChild, "tree %d", i)
		assert.Equal(t, tt.LeafValue, jt.LeafValue, "tree %d", i)
		assert.InDeltaSlice(t, tt.Threshold, jt.Threshold, 1e-9, "tree %d", i)
	}
}

func TestLoadJSONCategorical(t *testing.T) {
	model, err := LoadJSONFromFile("testdata/categorical_model.json")
	require.NoError(t, err)

	tree := model.Trees[0]
	assert.Equal(t, 1, tree.NumCat)
	assert.Equal(t, []int{0, 1}, tree.CatBoundaries)
	assert.Equal(t, []uint32{10}, tree.CatThreshold)
	assert.Equal(t, uint8(categoricalMask), tree.DecisionType[0])
}

func TestLoadFromJSONErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		key  string
	}{
		{"not json", `{"version":`, ""},
		{"missing max_feature_idx", `{"version":"v4","tree_info":[]}`, "max_feature_idx"},
		{"no trees", `{"max_feature_idx":0,"tree_info":[]}`, "tree_sizes"},
		{
			"bad leaf index",
			`{"max_feature_idx":0,"tree_info":[{"num_leaves":2,"tree_structure":{"split_index":0,"split_feature":0,"threshold":1,"decision_type":"<=","left_child":{"leaf_index":0,"leaf_value":1},"right_child":{"leaf_index":5,"leaf_value":2}}}]}`,
			"tree_structure",
		},
		{
			"bad missing type",
			`{"max_feature_idx":0,"tree_info":[{"num_leaves":2,"tree_structure":{"split_index":0,"split_feature":0,"threshold":1,"decision_type":"<=","missing_type":"Sometimes","left_child":{"leaf_index":0,"leaf_value":1},"right_child":{"leaf_index":1,"leaf_value":2}}}]}`,
			"tree_structure",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromJSON([]byte(tt.data))
			require.Error(t, err)
			var formatErr *errors.ModelFormatError
			require.True(t, errors.As(err, &formatErr), "got %v", err)
			assert.Equal(t, tt.key, formatErr.Key)
		})
	}
}

func TestLoadFromJSONSingleLeaf(t *testing.T) {
	model, err := LoadFromJSON([]byte(`{"max_feature_idx":1,"objective":"regression","tree_info":[{"num_leaves":1,"shrinkage":1,"tree_structure":{"leaf_value":42}}]}`))
	require.NoError(t, err)

	preds, err := NewPredictor(model).PredictRow([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, 42.0, preds[0])
}
