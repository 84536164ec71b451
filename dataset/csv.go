package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// missingTokens are read as NaN.
var missingTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"None": true,
}

type options struct {
	delimiter rune
	maxRows   int
	text      map[string]bool
}

// Option configures ReadCSV.
type Option func(*options)

// WithDelimiter fixes the field delimiter instead of detecting it.
func WithDelimiter(d rune) Option {
	return func(o *options) { o.delimiter = d }
}

// WithMaxRows rejects inputs with more than n data rows. n <= 0 means no limit.
func WithMaxRows(n int) Option {
	return func(o *options) { o.maxRows = n }
}

// WithTextColumns lets the named columns hold non-numeric cells, such as an
// identifier like "A-1". Their raw text is kept; Column and Features reject
// such a column once it actually contains text.
func WithTextColumns(names ...string) Option {
	return func(o *options) {
		if o.text == nil {
			o.text = make(map[string]bool, len(names))
		}
		for _, n := range names {
			if n != "" {
				o.text[n] = true
			}
		}
	}
}

// ReadCSVFile opens path and reads it with ReadCSV.
func ReadCSVFile(path string, opts ...Option) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ReadCSV(f, opts...)
}

// ReadCSV parses a CSV document with a header row into a Table.
//
// Row numbers in the returned ParseError are 1-based data rows; the header is row 0.
func ReadCSV(r io.Reader, opts ...Option) (*Table, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "csv has no header")
	}
	if o.delimiter == 0 {
		o.delimiter = detectDelimiter(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = o.delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, csvError(err)
	}
	columns, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	var raw [][]string
	var values []float64
	var text map[string]error
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		if o.maxRows > 0 && row > o.maxRows {
			return nil, errors.NewValueError("dataset.ReadCSV",
				fmt.Sprintf("too many rows: at most %d are accepted", o.maxRows))
		}
		if len(record) != len(columns) {
			return nil, errors.NewParseError(row, "", "",
				fmt.Sprintf("expected %d fields, got %d", len(columns), len(record)))
		}

		cells := make([]string, len(record))
		for j, cell := range record {
			cell = strings.TrimSpace(cell)
			cells[j] = cell
			v, err := parseCell(cell)
			if err != nil {
				if !o.text[columns[j]] {
					return nil, errors.NewParseError(row, columns[j], cell, "not a number")
				}
				if text == nil {
					text = make(map[string]error)
				}
				if _, seen := text[columns[j]]; !seen {
					text[columns[j]] = errors.NewParseError(row, columns[j], cell, "not a number")
				}
				v = math.NaN()
			}
			values = append(values, v)
		}
		raw = append(raw, cells)
	}

	if len(raw) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "csv has no data rows")
	}
	t := newTable(columns, mat.NewDense(len(raw), len(columns), values), raw)
	t.text = text
	return t, nil
}

func parseHeader(header []string) ([]string, error) {
	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	var dup []string
	for j, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			return nil, errors.WithStack(&errors.SchemaError{
				Reason: fmt.Sprintf("column %d has an empty name", j+1),
			})
		}
		if seen[name] {
			dup = append(dup, name)
		}
		seen[name] = true
		columns[j] = name
	}
	if len(dup) > 0 {
		return nil, errors.NewDuplicateColumnsError(dup)
	}
	return columns, nil
}

func parseCell(cell string) (float64, error) {
	if missingTokens[cell] {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

// csvError converts encoding/csv syntax errors into ParseError.
func csvError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return errors.NewParseError(pe.Line-1, "", "", pe.Err.Error())
	}
	return errors.Wrap(err, "read csv")
}

// detectDelimiter picks the most frequent of ',', ';' and tab on the header
// line, ignoring quoted text. Comma wins ties.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	counts := map[rune]int{}
	inQuotes := false
	for _, c := range string(line) {
		switch {
		case c == '"':
			inQuotes = !inQuotes
		case !inQuotes && (c == ',' || c == ';' || c == '\t'):
			counts[c]++
		}
	}
	best := ','
	for _, c := range []rune{';', '\t'} {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
