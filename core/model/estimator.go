// Package model defines the classifier capabilities the labelclean pipeline
// consumes. Any implementation satisfying these interfaces is substitutable;
// the pipeline never inspects model internals.
package model

import "gonum.org/v1/gonum/mat"

// Fitter is a model that can be trained.
type Fitter interface {
	// Fit trains the model on features X and labels y (a column vector).
	Fit(X, y mat.Matrix) error
}

// Predictor is a model that predicts labels for input rows.
type Predictor interface {
	// Predict returns a column vector of predicted class labels.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Classifier is the full capability the cross-validation loop requires:
// training, class-probability prediction, and the fitted class set.
type Classifier interface {
	Fitter
	Predictor

	// PredictProba returns an (n x k) matrix of class probabilities, columns
	// ordered by Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique classes seen during fitting, ascending.
	Classes() []int
}

// Transformer reshapes feature matrices, learning its parameters from data.
// Feature scalers implement this.
type Transformer interface {
	// Fit learns the transformation parameters from X.
	Fit(X mat.Matrix) error

	// Transform applies the learned transformation to X.
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform fits on X and returns the transformed X.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ValidatingFitter is an optional capability for models that take a held-out
// validation set during training. When the caller supplies a validation
// dataset and the classifier implements this, FitWithValidation is used
// instead of Fit.
type ValidatingFitter interface {
	FitWithValidation(X, y, Xval, yval mat.Matrix) error
}

// Factory produces fresh, untrained classifier instances. The cross-validation
// loop calls New once per fold; instances must share no mutable state, which
// is what keeps holdout predictions leakage-free.
type Factory interface {
	New() Classifier
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func() Classifier

// New calls f.
func (f FactoryFunc) New() Classifier { return f() }
