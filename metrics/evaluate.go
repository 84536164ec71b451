package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

// Evaluation はアップロードに正解価格の列が含まれていた場合の精度指標
type Evaluation struct {
	Count int      `json:"count"` // 正解が欠損していない行数
	RMSE  float64  `json:"rmse"`
	MAE   float64  `json:"mae"`
	MAPE  *float64 `json:"mape,omitempty"` // 正解が全て0なら nil
	R2    *float64 `json:"r2,omitempty"`   // 2行未満または分散0なら nil
}

// Evaluate compares predictions against known prices. Rows whose true value
// is NaN are skipped.
func Evaluate(yTrue, yPred []float64) (*Evaluation, error) {
	if len(yTrue) != len(yPred) {
		return nil, errors.NewDimensionError("metrics.Evaluate", len(yTrue), len(yPred), 0)
	}

	var t, p []float64
	for i, y := range yTrue {
		if math.IsNaN(y) {
			continue
		}
		t = append(t, y)
		p = append(p, yPred[i])
	}
	if len(t) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "metrics.Evaluate: no rows with a known target")
	}

	yt := mat.NewVecDense(len(t), t)
	yp := mat.NewVecDense(len(p), p)

	ev := &Evaluation{Count: len(t)}
	var err error
	if ev.RMSE, err = RMSE(yt, yp); err != nil {
		return nil, err
	}
	if ev.MAE, err = MAE(yt, yp); err != nil {
		return nil, err
	}
	if v, err := MAPE(yt, yp); err == nil {
		ev.MAPE = &v
	}
	if v, err := R2Score(yt, yp); err == nil {
		ev.R2 = &v
	}
	return ev, nil
}
