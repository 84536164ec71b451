package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// Table is an immutable set of named numeric columns.
type Table struct {
	columns []string
	index   map[string]int
	data    *mat.Dense
	raw     [][]string
	// text は数値でないセルを含む列と、その最初のセルのエラー
	text map[string]error
}

func newTable(columns []string, data *mat.Dense, raw [][]string) *Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &Table{columns: columns, index: index, data: data, raw: raw}
}

// NumRows returns the number of data rows (excluding the header).
func (t *Table) NumRows() int {
	return len(t.raw)
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.columns)
}

// Columns returns the header names in file order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Raw returns the cell text of every row, as uploaded.
func (t *Table) Raw() [][]string {
	return t.raw
}

// Matrix returns all columns in file order.
func (t *Table) Matrix() mat.Matrix {
	return t.data
}

// Column returns the parsed values of one column.
func (t *Table) Column(name string) ([]float64, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, errors.NewSchemaError([]string{name}, nil)
	}
	if err := t.text[name]; err != nil {
		return nil, err
	}
	return mat.Col(nil, j, t.data), nil
}

// Features returns the columns named by names, in that order, as a
// NumRows x len(names) matrix. The table must contain exactly these columns:
// any missing or unexpected column is reported in a SchemaError.
func (t *Table) Features(names []string) (*mat.Dense, error) {
	want := make(map[string]bool, len(names))
	var missing, extra []string
	for _, n := range names {
		want[n] = true
		if _, ok := t.index[n]; !ok {
			missing = append(missing, n)
		}
	}
	for _, c := range t.columns {
		if !want[c] {
			extra = append(extra, c)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		return nil, errors.NewSchemaError(missing, extra)
	}
	for _, n := range names {
		if err := t.text[n]; err != nil {
			return nil, err
		}
	}

	out := mat.NewDense(t.NumRows(), len(names), nil)
	for j, n := range names {
		out.SetCol(j, mat.Col(nil, t.index[n], t.data))
	}
	return out, nil
}

// Without returns a copy of the table without the named column, plus that
// column's raw cell text. It is used to split off an identifier column.
func (t *Table) Without(name string) (*Table, []string, error) {
	drop, ok := t.index[name]
	if !ok {
		return nil, nil, errors.NewSchemaError([]string{name}, nil)
	}
	if t.NumCols() == 1 {
		return nil, nil, errors.NewValueError("dataset.Without", "cannot drop the only column "+name)
	}

	columns := make([]string, 0, t.NumCols()-1)
	for j, c := range t.columns {
		if j != drop {
			columns = append(columns, c)
		}
	}

	labels := make([]string, t.NumRows())
	raw := make([][]string, t.NumRows())
	data := mat.NewDense(t.NumRows(), len(columns), nil)
	for i, row := range t.raw {
		labels[i] = row[drop]
		r := make([]string, 0, len(columns))
		k := 0
		for j, cell := range row {
			if j == drop {
				continue
			}
			r = append(r, cell)
			data.Set(i, k, t.data.At(i, j))
			k++
		}
		raw[i] = r
	}
	rest := newTable(columns, data, raw)
	for c, err := range t.text {
		if c != name {
			if rest.text == nil {
				rest.text = make(map[string]error)
			}
			rest.text[c] = err
		}
	}
	return rest, labels, nil
}
