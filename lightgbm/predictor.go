package lightgbm

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/houseprice/core/model"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
)

var _ model.Predictor = (*Predictor)(nil)

// Predictor evaluates a Model over a feature matrix. Rows are processed
// sequentially in order, so results are bit-for-bit reproducible.
type Predictor struct {
	model        *Model
	rawScore     bool
	numIteration int
}

// PredictorOption configures a Predictor.
type PredictorOption func(*Predictor)

// WithRawScore disables the objective transform (exp, sigmoid, softmax).
func WithRawScore() PredictorOption {
	return func(p *Predictor) { p.rawScore = true }
}

// WithNumIteration limits prediction to the first n boosting rounds.
// n <= 0 uses every round.
func WithNumIteration(n int) PredictorOption {
	return func(p *Predictor) { p.numIteration = n }
}

// NewPredictor creates a new predictor with the given model
func NewPredictor(model *Model, opts ...PredictorOption) *Predictor {
	p := &Predictor{model: model}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Model returns the model evaluated by the predictor.
func (p *Predictor) Model() *Model {
	return p.model
}

// Predict returns a rows x NumOutputs matrix of predictions.
func (p *Predictor) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "lightgbm.Predict")
	}
	if cols != p.model.NumFeatures() {
		return nil, errors.NewDimensionError("lightgbm.Predict", p.model.NumFeatures(), cols, 1)
	}

	predictions := mat.NewDense(rows, p.model.NumOutputs(), nil)
	features := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(features, i, X)
		predictions.SetRow(i, p.predictRow(features))
	}
	return predictions, nil
}

// PredictRow predicts a single sample.
func (p *Predictor) PredictRow(features []float64) ([]float64, error) {
	if len(features) != p.model.NumFeatures() {
		return nil, errors.NewDimensionError("lightgbm.PredictRow", p.model.NumFeatures(), len(features), 1)
	}
	return p.predictRow(features), nil
}

func (p *Predictor) predictRow(features []float64) []float64 {
	if p.rawScore {
		return p.model.PredictRaw(features, p.numIteration)
	}
	return p.model.PredictSingle(features, p.numIteration)
}
