// Package regressor adapts a LightGBM model artifact on disk to the
// prediction flow: it reloads the model for every request, aligns the
// uploaded columns with the model's features and returns one price per row.
package regressor

import (
	"context"
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/houseprice/dataset"
	"github.com/YuminosukeSato/houseprice/lightgbm"
	"github.com/YuminosukeSato/houseprice/metrics"
	"github.com/YuminosukeSato/houseprice/pkg/errors"
	"github.com/YuminosukeSato/houseprice/pkg/log"
)

// Loader reads a model artifact from path.
type Loader func(path string) (*lightgbm.Model, error)

// Adapter loads the model from a fixed path and runs inference.
// It keeps no model between calls.
type Adapter struct {
	path         string
	idColumn     string
	targetColumn string
	loader       Loader
	logger       log.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithIDColumn names a column that identifies rows (e.g. "Id"). When the
// upload contains it, it is split off as row labels instead of being fed to
// the model.
func WithIDColumn(name string) Option {
	return func(a *Adapter) { a.idColumn = name }
}

// WithTargetColumn names a column holding known prices (e.g. "SalePrice").
// When present it is split off and used to evaluate the predictions.
func WithTargetColumn(name string) Option {
	return func(a *Adapter) { a.targetColumn = name }
}

// WithLoader replaces the artifact loader. The default sniffs text or JSON.
func WithLoader(l Loader) Option {
	return func(a *Adapter) { a.loader = l }
}

// NewAdapter creates an adapter for the model stored at path.
func NewAdapter(path string, opts ...Option) *Adapter {
	a := &Adapter{
		path:   path,
		loader: lightgbm.LoadAuto,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.GetLoggerWithName("regressor")
	}
	a.logger = a.logger.With(log.ModelPathKey, path)
	return a
}

// Path returns the model artifact path.
func (a *Adapter) Path() string {
	return a.path
}

// Load reads the model artifact. It is called on every prediction.
func (a *Adapter) Load(ctx context.Context) (*lightgbm.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	model, err := a.loader(a.path)
	if err != nil {
		var loadErr *errors.ModelLoadError
		if !errors.As(err, &loadErr) {
			err = errors.NewModelLoadError(a.path, err)
		}
		a.logger.Error("model load failed", err,
			log.OperationKey, log.OperationLoad,
			log.ErrorCodeKey, log.ErrorModelLoad)
		return nil, err
	}

	if !model.Objective.IsRegression() || model.NumOutputs() != 1 {
		err := errors.NewModelLoadError(a.path,
			errors.Wrapf(errors.ErrUnsupportedModel, "objective %q with %d outputs is not a regression model",
				model.Objective.String(), model.NumOutputs()))
		a.logger.Error("model rejected", err,
			log.OperationKey, log.OperationLoad,
			log.ErrorCodeKey, log.ErrorUnsupportedModel)
		return nil, err
	}

	a.logger.Debug("model loaded",
		log.OperationKey, log.OperationLoad,
		log.ModelObjectiveKey, model.Objective.String(),
		log.ModelTreesKey, len(model.Trees),
		log.DurationMsKey, time.Since(start).Milliseconds())
	return model, nil
}

// Info loads the model and returns its display metadata.
func (a *Adapter) Info(ctx context.Context) (*ModelInfo, error) {
	model, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}
	return describe(a.path, model), nil
}

// Predict loads the model and predicts one price per table row.
func (a *Adapter) Predict(ctx context.Context, table *dataset.Table) (result *Result, err error) {
	defer errors.Recover(&err, "regressor.Predict")

	if table == nil || table.NumRows() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "regressor.Predict")
	}
	start := time.Now()

	model, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}

	result = &Result{}
	if table, err = a.splitColumns(model, table, result); err != nil {
		return nil, err
	}

	X, err := resolveFeatures(model, table)
	if err != nil {
		a.logger.Warn("feature schema mismatch",
			log.OperationKey, log.OperationPredict,
			log.ErrorCodeKey, log.ErrorSchemaMismatch,
			log.ErrorKey, err.Error())
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	preds, err := lightgbm.NewPredictor(model).Predict(X)
	if err != nil {
		return nil, err
	}
	result.Values = mat.Col(nil, 0, preds)
	if len(result.Values) != table.NumRows() {
		return nil, errors.NewDimensionError("regressor.Predict", table.NumRows(), len(result.Values), 0)
	}
	if err := errors.CheckFinite("regressor.Predict", result.Values); err != nil {
		return nil, err
	}

	if result.Summary, err = metrics.Summarize(result.Values); err != nil {
		return nil, err
	}
	if result.Target != nil {
		if result.Evaluation, err = metrics.Evaluate(result.Target, result.Values); err != nil {
			a.logger.Warn("evaluation skipped", log.ErrorKey, err.Error())
			result.Evaluation = nil
		}
	}
	result.Model = *describe(a.path, model)
	result.Duration = time.Since(start)

	a.logger.Info("prediction completed",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, table.NumRows(),
		log.FeaturesKey, model.NumFeatures(),
		log.PredsMeanKey, result.Summary.Mean,
		log.DurationMsKey, result.Duration.Milliseconds())
	return result, nil
}

// splitColumns removes the ID and target columns, recording them on result.
// A column the model itself was trained on stays an input feature.
func (a *Adapter) splitColumns(model *lightgbm.Model, table *dataset.Table, result *Result) (*dataset.Table, error) {
	features := model.FeatureNames()
	split := func(name string) bool {
		return name != "" && table.Has(name) && !slices.Contains(features, name)
	}
	if split(a.idColumn) {
		rest, labels, err := table.Without(a.idColumn)
		if err != nil {
			return nil, err
		}
		table = rest
		result.IDColumn = a.idColumn
		result.Labels = labels
	}
	if split(a.targetColumn) {
		target, err := table.Column(a.targetColumn)
		if err != nil {
			return nil, err
		}
		rest, _, err := table.Without(a.targetColumn)
		if err != nil {
			return nil, err
		}
		table = rest
		result.TargetColumn = a.targetColumn
		result.Target = target
	}
	return table, nil
}

// resolveFeatures aligns the table with the model's input columns. Models
// trained with real feature names are matched by name and reordered; models
// with auto-generated names (Column_0, ...) only require the column count.
func resolveFeatures(model *lightgbm.Model, table *dataset.Table) (*mat.Dense, error) {
	if model.HasFeatureNames() {
		return table.Features(model.FeatureNames())
	}
	if table.NumCols() != model.NumFeatures() {
		return nil, errors.WithStack(&errors.SchemaError{
			Reason: fmt.Sprintf("model expects %d unnamed columns, got %d", model.NumFeatures(), table.NumCols()),
		})
	}
	return mat.DenseCopyOf(table.Matrix()), nil
}
