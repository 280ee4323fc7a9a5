package preprocessing

import (
	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/core/model"
)

// scaledClassifier standardizes features before delegating to the wrapped
// classifier. The scaler is fitted on the training data only, so wrapping a
// factory keeps cross-validation holdouts untouched by training statistics.
type scaledClassifier struct {
	scaler *StandardScaler
	inner  model.Classifier
}

// ScaledFactory wraps a classifier factory so every produced instance trains
// and predicts on standardized features.
func ScaledFactory(inner model.Factory, opts ...ScalerOption) model.Factory {
	return model.FactoryFunc(func() model.Classifier {
		return &scaledClassifier{
			scaler: NewStandardScaler(opts...),
			inner:  inner.New(),
		}
	})
}

func (c *scaledClassifier) Fit(X, y mat.Matrix) error {
	scaled, err := c.scaler.FitTransform(X)
	if err != nil {
		return err
	}
	return c.inner.Fit(scaled, y)
}

func (c *scaledClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	scaled, err := c.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return c.inner.Predict(scaled)
}

func (c *scaledClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scaled, err := c.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return c.inner.PredictProba(scaled)
}

func (c *scaledClassifier) Classes() []int { return c.inner.Classes() }
