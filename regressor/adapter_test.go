package regressor

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/lightgbm"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

const (
	houseModel       = "../lightgbm/testdata/house_model.txt"
	houseModelJSON   = "../lightgbm/testdata/house_model.json"
	unnamedModel     = "../lightgbm/testdata/poisson_model.txt"
	binaryModel      = "../lightgbm/testdata/binary_model.txt"
	houseHeader      = "OverallQual,GrLivArea,GarageCars,TotalBsmtSF,YearBuilt,FullBath\n"
	houseRowsCSV     = "5,1200,1,800,1960,1\n7,1800,2,1100,2003,2\n9,2500,3,1600,2008,3\n"
	expectedFirstRow = 109000.0
)

func readTable(t *testing.T, s string) *dataset.Table {
	t.Helper()
	table, err := dataset.ReadCSV(strings.NewReader(s))
	require.NoError(t, err)
	return table
}

func newTestAdapter(t *testing.T, path string, opts ...Option) (*Adapter, *log.TestLogger) {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelDebug)
	opts = append([]Option{WithLogger(logger)}, opts...)
	return NewAdapter(path, opts...), logger
}

func TestPredictOneValuePerRow(t *testing.T) {
	for _, path := range []string{houseModel, houseModelJSON} {
		a, logger := newTestAdapter(t, path)

		res, err := a.Predict(context.Background(), readTable(t, houseHeader+houseRowsCSV))
		require.NoError(t, err, path)

		require.Equal(t, 3, res.NumRows())
		assert.InDelta(t, expectedFirstRow, res.Values[0], 1e-6)
		assert.InDelta(t, 229000.0, res.Values[1], 1e-6)
		assert.InDelta(t, 309000.0, res.Values[2], 1e-6)
		assert.Equal(t, "0", res.Label(0))

		assert.Equal(t, 3, res.Summary.Count)
		assert.InDelta(t, 229000.0, res.Summary.Median, 1e-6)
		assert.Equal(t, path, res.Model.Path)
		assert.Equal(t, 6, res.Model.NumFeatures)
		assert.True(t, res.Model.NamedFeatures)
		require.Len(t, res.Model.Importance, 6)
		assert.Equal(t, "GrLivArea", res.Model.Importance[1].Name)
		assert.Equal(t, 2.0, res.Model.Importance[1].Split)
		assert.Nil(t, res.Evaluation)

		assert.True(t, logger.ContainsMessage("prediction completed"))
		assert.True(t, logger.ContainsField(log.SamplesKey, 3.0))
	}
}

func TestPredictReordersColumnsByName(t *testing.T) {
	a, _ := newTestAdapter(t, houseModel)

	shuffled := "FullBath,YearBuilt,TotalBsmtSF,GarageCars,GrLivArea,OverallQual\n1,1960,800,1,1200,5\n"
	res, err := a.Predict(context.Background(), readTable(t, shuffled))
	require.NoError(t, err)
	assert.InDelta(t, expectedFirstRow, res.Values[0], 1e-6)
}

func TestPredictIsDeterministic(t *testing.T) {
	a, _ := newTestAdapter(t, houseModel)
	table := readTable(t, houseHeader+houseRowsCSV+"8,1600,2,1200,,2\n")

	first, err := a.Predict(context.Background(), table)
	require.NoError(t, err)
	second, err := a.Predict(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, first.Values, second.Values)
	assert.InDelta(t, 219000.0, first.Values[3], 1e-6)
}

func TestPredictSchemaMismatch(t *testing.T) {
	a, logger := newTestAdapter(t, houseModel)

	tests := []struct {
		name    string
		csv     string
		missing []string
		extra   []string
	}{
		{
			name:    "missing column",
			csv:     "OverallQual,GrLivArea,GarageCars,TotalBsmtSF,YearBuilt\n5,1200,1,800,1960\n",
			missing: []string{"FullBath"},
		},
		{
			name:  "extra column",
			csv:   "OverallQual,GrLivArea,GarageCars,TotalBsmtSF,YearBuilt,FullBath,PoolArea\n5,1200,1,800,1960,1,0\n",
			extra: []string{"PoolArea"},
		},
		{
			name:    "renamed column",
			csv:     "OverallQual,LivingArea,GarageCars,TotalBsmtSF,YearBuilt,FullBath\n5,1200,1,800,1960,1\n",
			missing: []string{"GrLivArea"},
			extra:   []string{"LivingArea"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := a.Predict(context.Background(), readTable(t, tt.csv))
			require.Error(t, err)
			assert.Nil(t, res)

			var schemaErr *errors.SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, tt.missing, schemaErr.Missing)
			assert.Equal(t, tt.extra, schemaErr.Extra)
		})
	}
	assert.True(t, logger.ContainsField(log.ErrorCodeKey, log.ErrorSchemaMismatch))
}

func TestPredictIDAndTargetColumns(t *testing.T) {
	a, _ := newTestAdapter(t, houseModel, WithIDColumn("Id"), WithTargetColumn("SalePrice"))

	csv := "Id,SalePrice," + houseHeader + "1461,100000,5,1200,1,800,1960,1\n1462,,7,1800,2,1100,2003,2\n"
	res, err := a.Predict(context.Background(), readTable(t, csv))
	require.NoError(t, err)

	assert.Equal(t, []string{"1461", "1462"}, res.Labels)
	assert.Equal(t, "1461", res.Label(0))
	assert.Equal(t, "Id", res.IDColumn)
	assert.Equal(t, "SalePrice", res.TargetColumn)
	require.NotNil(t, res.Evaluation)
	assert.Equal(t, 1, res.Evaluation.Count)
	assert.InDelta(t, 9000.0, res.Evaluation.MAE, 1e-6)

	// ID列が設定されていてもアップロードに無ければ必須ではない
	res, err = a.Predict(context.Background(), readTable(t, houseHeader+houseRowsCSV))
	require.NoError(t, err)
	assert.Nil(t, res.Labels)
}

// idFeatureModel は "Id" を入力特徴量として学習したモデル (x で分岐)
const idFeatureModel = `tree
version=v4
num_class=1
num_tree_per_iteration=1
label_index=0
max_feature_idx=1
objective=regression
feature_names=Id x
feature_infos=[1:2] [0:1]
tree_sizes=100

Tree=0
num_leaves=2
num_cat=0
split_feature=1
threshold=0.5
decision_type=0
left_child=-1
right_child=-2
leaf_value=10 20
shrinkage=1

end of trees
`

func TestPredictKeepsIDColumnUsedByModel(t *testing.T) {
	a, _ := newTestAdapter(t, "id_model.txt",
		WithIDColumn("Id"), WithTargetColumn("x"),
		WithLoader(func(string) (*lightgbm.Model, error) {
			return lightgbm.LoadFromString(idFeatureModel)
		}))

	res, err := a.Predict(context.Background(), readTable(t, "Id,x\n1,0\n2,1\n"))
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 20}, res.Values)
	assert.Empty(t, res.IDColumn)
	assert.Nil(t, res.Labels)
	assert.Empty(t, res.TargetColumn)
	assert.Nil(t, res.Evaluation)
	assert.Equal(t, "0", res.Label(0))
}

func TestPredictUnnamedModelChecksCount(t *testing.T) {
	a, _ := newTestAdapter(t, unnamedModel)

	res, err := a.Predict(context.Background(), readTable(t, "anything\n3\n7\n"))
	require.NoError(t, err)
	assert.Len(t, res.Values, 2)
	assert.False(t, res.Model.NamedFeatures)

	_, err = a.Predict(context.Background(), readTable(t, "a,b\n1,2\n"))
	var schemaErr *errors.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Contains(t, schemaErr.Reason, "expects 1 unnamed columns, got 2")
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		a, _ := newTestAdapter(t, "../lightgbm/testdata/missing.txt")
		_, err := a.Predict(context.Background(), readTable(t, houseHeader+houseRowsCSV))

		var loadErr *errors.ModelLoadError
		require.True(t, errors.As(err, &loadErr))
		assert.True(t, errors.Is(err, os.ErrNotExist))
	})

	t.Run("corrupt file", func(t *testing.T) {
		a, _ := newTestAdapter(t, "../lightgbm/testdata/corrupt_model.txt")
		_, err := a.Load(context.Background())

		var formatErr *errors.ModelFormatError
		assert.True(t, errors.As(err, &formatErr))
	})

	t.Run("classification model rejected", func(t *testing.T) {
		a, logger := newTestAdapter(t, binaryModel)
		_, err := a.Load(context.Background())

		assert.True(t, errors.Is(err, errors.ErrUnsupportedModel))
		assert.True(t, logger.ContainsField(log.ErrorCodeKey, log.ErrorUnsupportedModel))
	})

	t.Run("loader error is wrapped", func(t *testing.T) {
		a, _ := newTestAdapter(t, "model.bin", WithLoader(func(string) (*lightgbm.Model, error) {
			return nil, errors.New("boom")
		}))
		_, err := a.Load(context.Background())

		var loadErr *errors.ModelLoadError
		require.True(t, errors.As(err, &loadErr))
		assert.Equal(t, "model.bin", loadErr.Path)
	})

	t.Run("canceled context", func(t *testing.T) {
		a, _ := newTestAdapter(t, houseModel)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := a.Load(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestModelIsReloadedEveryCall(t *testing.T) {
	calls := 0
	a, _ := newTestAdapter(t, houseModel, WithLoader(func(path string) (*lightgbm.Model, error) {
		calls++
		return lightgbm.LoadFromFile(path)
	}))

	table := readTable(t, houseHeader+houseRowsCSV)
	_, err := a.Predict(context.Background(), table)
	require.NoError(t, err)
	_, err = a.Predict(context.Background(), table)
	require.NoError(t, err)
	_, err = a.Info(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
}

func TestPredictRecoversFromPanic(t *testing.T) {
	a, _ := newTestAdapter(t, houseModel, WithLoader(func(string) (*lightgbm.Model, error) {
		panic("corrupted state")
	}))

	_, err := a.Predict(context.Background(), readTable(t, houseHeader+houseRowsCSV))
	var panicErr *errors.PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "regressor.Predict", panicErr.Operation)
}

func TestPredictEmptyTable(t *testing.T) {
	a, _ := newTestAdapter(t, houseModel)
	_, err := a.Predict(context.Background(), nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}
