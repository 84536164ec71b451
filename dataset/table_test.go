package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

func mustRead(t *testing.T, s string) *Table {
	t.Helper()
	table, err := ReadCSV(strings.NewReader(s))
	require.NoError(t, err)
	return table
}

func TestFeaturesReordersColumns(t *testing.T) {
	table := mustRead(t, "b,a,c\n2,1,3\n20,10,30\n")

	X, err := table.Features([]string{"a", "b", "c"})
	require.NoError(t, err)

	rows, cols := X.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)
	assert.Equal(t, []float64{1, 2, 3}, X.RawRowView(0))
	assert.Equal(t, []float64{10, 20, 30}, X.RawRowView(1))
}

func TestFeaturesSchemaMismatch(t *testing.T) {
	table := mustRead(t, "a,b,extra\n1,2,3\n")

	_, err := table.Features([]string{"a", "b", "c"})
	require.Error(t, err)

	var schemaErr *errors.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"c"}, schemaErr.Missing)
	assert.Equal(t, []string{"extra"}, schemaErr.Extra)
	assert.NotEmpty(t, errors.Hints(err))
}

func TestWithout(t *testing.T) {
	table := mustRead(t, "Id,a,b\n1461,1,NA\n1462,3,4\n")

	rest, labels, err := table.Without("Id")
	require.NoError(t, err)

	assert.Equal(t, []string{"1461", "1462"}, labels)
	assert.Equal(t, []string{"a", "b"}, rest.Columns())
	assert.Equal(t, [][]string{{"1", "NA"}, {"3", "4"}}, rest.Raw())
	assert.False(t, rest.Has("Id"))

	b, err := rest.Column("b")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(b[0]))
	assert.Equal(t, 4.0, b[1])

	// 元のテーブルは変更されない
	assert.Equal(t, 3, table.NumCols())

	_, _, err = table.Without("missing")
	var schemaErr *errors.SchemaError
	assert.True(t, errors.As(err, &schemaErr))

	single := mustRead(t, "Id\n1\n")
	_, _, err = single.Without("Id")
	var valueErr *errors.ValueError
	assert.True(t, errors.As(err, &valueErr))
}

func TestColumnUnknown(t *testing.T) {
	table := mustRead(t, "a\n1\n")
	_, err := table.Column("z")
	var schemaErr *errors.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"z"}, schemaErr.Missing)
}
