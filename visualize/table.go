package visualize

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/regressor"
)

// pricePrinter groups digits with ',' which FormatPrice turns into spaces.
var pricePrinter = message.NewPrinter(language.English)

// PredictionColumn is the header of the predicted price column, matching the
// Kaggle House Prices submission format.
const PredictionColumn = "SalePrice"

// Table is a display table with at most a limited number of rows.
type Table struct {
	Header    []string
	Rows      [][]string
	Total     int  // rows before truncation
	Truncated bool // Rows holds fewer than Total
}

// NewTable builds a display table keeping the first limit rows.
// limit <= 0 keeps every row.
func NewTable(header []string, rows [][]string, limit int) *Table {
	t := &Table{Header: header, Rows: rows, Total: len(rows)}
	if limit > 0 && len(rows) > limit {
		t.Rows = rows[:limit]
		t.Truncated = true
	}
	return t
}

// Hidden returns the number of rows not shown.
func (t *Table) Hidden() int {
	return t.Total - len(t.Rows)
}

// DatasetTable shows the uploaded cells as they were sent, prefixed by the
// 0-based row index.
func DatasetTable(t *dataset.Table, limit int) *Table {
	header := append([]string{""}, t.Columns()...)
	raw := t.Raw()
	n := len(raw)
	if limit > 0 && n > limit {
		n = limit
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = append([]string{strconv.Itoa(i)}, raw[i]...)
	}
	out := NewTable(header, rows, 0)
	out.Total = len(raw)
	out.Truncated = n < len(raw)
	return out
}

// PredictionTable shows one predicted price per row, labelled by the ID
// column when the upload had one.
func PredictionTable(res *regressor.Result, limit int) *Table {
	header := []string{res.IDColumn, PredictionColumn}
	n := res.NumRows()
	if limit > 0 && n > limit {
		n = limit
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = []string{res.Label(i), FormatPrice(res.Values[i])}
	}
	out := NewTable(header, rows, 0)
	out.Total = res.NumRows()
	out.Truncated = n < res.NumRows()
	return out
}

// PredictionsCSV renders every prediction as CSV with full precision.
func PredictionsCSV(res *regressor.Result) ([]byte, error) {
	idHeader := res.IDColumn
	if idHeader == "" {
		idHeader = "Row"
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{idHeader, PredictionColumn}); err != nil {
		return nil, errors.Wrap(err, "visualize.PredictionsCSV")
	}
	for i, v := range res.Values {
		if err := w.Write([]string{res.Label(i), strconv.FormatFloat(v, 'f', -1, 64)}); err != nil {
			return nil, errors.Wrap(err, "visualize.PredictionsCSV")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Wrap(err, "visualize.PredictionsCSV")
	}
	return buf.Bytes(), nil
}

// FormatPrice formats a price with two decimals and thousands separated by
// an ASCII space, e.g. 181 234.50.
func FormatPrice(v float64) string {
	s := pricePrinter.Sprint(number.Decimal(v, number.Scale(2)))
	return strings.ReplaceAll(s, ",", " ")
}
