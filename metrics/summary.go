// Package metrics は予測結果の要約統計量と、正解がある場合の回帰評価指標を提供する
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// Summary は予測値の分布の要約
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	Median float64 `json:"median"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

// Summarize computes descriptive statistics of values. Std is the sample
// standard deviation (0 for a single value). Quantiles use the empirical CDF.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, errors.NewValueError("metrics.Summarize", "empty vector")
	}
	if err := errors.CheckFinite("metrics.Summarize", values); err != nil {
		return Summary{}, err
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{
		Count:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		P25:    stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P75:    stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	} else {
		s.Mean = sorted[0]
	}
	if math.IsNaN(s.Std) {
		s.Std = 0
	}
	return s, nil
}

// Range は最大値と最小値の差を返す
func (s Summary) Range() float64 {
	return s.Max - s.Min
}

// IQR は四分位範囲を返す
func (s Summary) IQR() float64 {
	return s.P75 - s.P25
}
