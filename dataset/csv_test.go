package dataset

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

func TestReadCSVFile(t *testing.T) {
	table, err := ReadCSVFile("testdata/houses.csv")
	require.NoError(t, err)

	assert.Equal(t, 5, table.NumRows())
	assert.Equal(t, 6, table.NumCols())
	assert.Equal(t, []string{"OverallQual", "GrLivArea", "GarageCars", "TotalBsmtSF", "YearBuilt", "FullBath"}, table.Columns())

	years, err := table.Column("YearBuilt")
	require.NoError(t, err)
	assert.Equal(t, 1960.0, years[0])
	assert.True(t, math.IsNaN(years[4]), "empty cell must be NaN")

	assert.Equal(t, "", table.Raw()[4][4])
	assert.Equal(t, "2500", table.Raw()[2][1])
}

func TestReadCSVDelimiterDetection(t *testing.T) {
	table, err := ReadCSVFile("testdata/semicolon.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "OverallQual", "GrLivArea"}, table.Columns())

	qual, err := table.Column("OverallQual")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(qual[1]))

	tsv, err := ReadCSV(strings.NewReader("a\tb\n1\t2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tsv.Columns())

	// 引用符内の区切り文字は数えない
	assert.Equal(t, ',', detectDelimiter([]byte("\"a;b;c\",d\n")))

	forced, err := ReadCSV(strings.NewReader("a;b,c\n1,3\n"), WithDelimiter(','))
	require.NoError(t, err)
	assert.Equal(t, []string{"a;b", "c"}, forced.Columns())
}

func TestReadCSVMissingTokens(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("x\n\"\"\nNA\nNaN\nnan\nnull\nNone\n 3.5 \n"))
	require.NoError(t, err)

	col, err := table.Column("x")
	require.NoError(t, err)
	require.Len(t, col, 7)
	for i := 0; i < 6; i++ {
		assert.True(t, math.IsNaN(col[i]), "row %d", i+1)
	}
	assert.Equal(t, 3.5, col[6])
}

func TestReadCSVBOM(t *testing.T) {
	table, err := ReadCSV(strings.NewReader("\xef\xbb\xbfa,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Columns())
}

func TestReadCSVTextColumns(t *testing.T) {
	csv := "Id,x\nA-1,0\n7,1\nB-2,2\n"

	_, err := ReadCSV(strings.NewReader(csv))
	var parseErr *errors.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "Id", parseErr.Column)

	table, err := ReadCSV(strings.NewReader(csv), WithTextColumns("Id"))
	require.NoError(t, err)
	assert.Equal(t, []string{"A-1", "0"}, table.Raw()[0])

	// テキストを含む列は数値として取り出せない
	_, err = table.Column("Id")
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 1, parseErr.Row)
	assert.Equal(t, "A-1", parseErr.Value)
	_, err = table.Features([]string{"Id", "x"})
	require.True(t, errors.As(err, &parseErr))

	rest, labels, err := table.Without("Id")
	require.NoError(t, err)
	assert.Equal(t, []string{"A-1", "7", "B-2"}, labels)
	X, err := rest.Features([]string{"x"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, X.At(2, 0))

	// 数値だけなら通常の列として扱う
	numeric, err := ReadCSV(strings.NewReader("Id,x\n1,0\n"), WithTextColumns("Id", ""))
	require.NoError(t, err)
	ids, err := numeric.Column("Id")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, ids)
}

func TestReadCSVErrors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("  \n"))
		assert.True(t, errors.Is(err, errors.ErrEmptyData))
	})

	t.Run("header only", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a,b\n"))
		assert.True(t, errors.Is(err, errors.ErrEmptyData))
	})

	t.Run("non numeric cell", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a,b\n1,2\n3,abc\n"))
		var parseErr *errors.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, 2, parseErr.Row)
		assert.Equal(t, "b", parseErr.Column)
		assert.Equal(t, "abc", parseErr.Value)
	})

	t.Run("ragged row", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a,b\n1,2\n3\n"))
		var parseErr *errors.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, 2, parseErr.Row)
		assert.Contains(t, parseErr.Reason, "expected 2 fields, got 1")
	})

	t.Run("bare quote", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a,b\n1,2\"x\n"))
		var parseErr *errors.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, 1, parseErr.Row)
	})

	t.Run("duplicate header", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a,b,a\n1,2,3\n"))
		var schemaErr *errors.SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Equal(t, []string{"a"}, schemaErr.Duplicate)
	})

	t.Run("blank header", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a,,c\n1,2,3\n"))
		var schemaErr *errors.SchemaError
		require.True(t, errors.As(err, &schemaErr))
		assert.Contains(t, schemaErr.Reason, "column 2")
	})

	t.Run("too many rows", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a\n1\n2\n3\n"), WithMaxRows(2))
		var valueErr *errors.ValueError
		assert.True(t, errors.As(err, &valueErr))
	})
}
