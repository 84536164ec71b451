package visualize

import (
	"bytes"
	"encoding/base64"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/houseprice/metrics"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// MaxBins caps the automatic and explicit bin count.
const MaxBins = 100

type histogramConfig struct {
	bins   int
	width  vg.Length
	height vg.Length
	title  string
	xLabel string
	yLabel string
	fill   color.Color
}

// HistogramOption configures Histogram.
type HistogramOption func(*histogramConfig)

// WithBins sets an explicit bin count. n <= 0 selects AutoBins.
func WithBins(n int) HistogramOption {
	return func(c *histogramConfig) { c.bins = n }
}

// WithSize sets the image size.
func WithSize(width, height vg.Length) HistogramOption {
	return func(c *histogramConfig) { c.width, c.height = width, height }
}

// WithTitle sets the plot title.
func WithTitle(title string) HistogramOption {
	return func(c *histogramConfig) { c.title = title }
}

// WithLabels sets the axis labels.
func WithLabels(x, y string) HistogramOption {
	return func(c *histogramConfig) { c.xLabel, c.yLabel = x, y }
}

// Histogram renders the distribution of values as a PNG image.
func Histogram(values []float64, opts ...HistogramOption) ([]byte, error) {
	if len(values) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "visualize.Histogram")
	}
	if err := errors.CheckFinite("visualize.Histogram", values); err != nil {
		return nil, err
	}

	cfg := histogramConfig{
		width:  6 * vg.Inch,
		height: 4 * vg.Inch,
		title:  "Гистограмма распределения предсказаний",
		xLabel: "Прогноз цены",
		yLabel: "Количество домов",
		fill:   color.RGBA{R: 76, G: 114, B: 176, A: 255},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	bins := cfg.bins
	if bins <= 0 {
		bins = AutoBins(values)
	}
	if bins > MaxBins {
		bins = MaxBins
	}

	p := plot.New()
	p.Title.Text = cfg.title
	p.X.Label.Text = cfg.xLabel
	p.Y.Label.Text = cfg.yLabel
	p.Add(plotter.NewGrid())

	h, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil, errors.Wrap(err, "visualize.Histogram")
	}
	h.FillColor = cfg.fill
	h.LineStyle.Color = color.White
	p.Add(h)

	w, err := p.WriterTo(cfg.width, cfg.height, "png")
	if err != nil {
		return nil, errors.Wrap(err, "visualize.Histogram")
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "visualize.Histogram")
	}
	return buf.Bytes(), nil
}

// AutoBins chooses a bin count as the larger of Sturges' rule and the
// Freedman–Diaconis rule, clamped to [1, MaxBins].
func AutoBins(values []float64) int {
	n := len(values)
	if n < 2 {
		return 1
	}
	sturges := int(math.Ceil(math.Log2(float64(n)))) + 1

	bins := sturges
	if s, err := metrics.Summarize(values); err == nil && s.IQR() > 0 {
		width := 2 * s.IQR() / math.Cbrt(float64(n))
		if fd := int(math.Ceil(s.Range() / width)); fd > bins {
			bins = fd
		}
	}
	if bins < 1 {
		bins = 1
	}
	if bins > MaxBins {
		bins = MaxBins
	}
	return bins
}

// DataURI encodes a PNG as a data: URI for an <img> tag.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
