// Package model defines the small set of interfaces shared between the model
// artifact, the adapter and the presentation layer.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Predictor is the interface for anything that maps a feature matrix to
// predictions. Each row of X is one sample; the result has one row per sample.
type Predictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// FeatureSchema describes the input columns a model expects, in order.
type FeatureSchema interface {
	// FeatureNames returns the feature names in model order.
	FeatureNames() []string

	// NumFeatures returns the number of input features.
	NumFeatures() int
}

// Describer is implemented by models that can report display metadata.
type Describer interface {
	// Describe returns human readable key/value metadata about the model.
	Describe() map[string]string
}
