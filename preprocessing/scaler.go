// Package preprocessing provides feature transformations applied before
// classifier training. Scaling the features often helps the gradient-descent
// classifiers the pipeline defaults to.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/core/model"
	"github.com/strataml/labelclean/core/parallel"
	"github.com/strataml/labelclean/pkg/errors"
)

// parallelThreshold is the row count below which transforms run sequentially.
const parallelThreshold = 1000

// StandardScaler centers each feature to zero mean and scales it to unit
// variance. It implements model.Transformer.
type StandardScaler struct {
	state *model.StateManager

	// Mean and Scale hold the per-feature statistics learned by Fit. A
	// feature with zero variance gets Scale 1 so it passes through centered.
	Mean  []float64
	Scale []float64

	withMean bool
	withStd  bool
}

// ScalerOption configures a StandardScaler.
type ScalerOption func(*StandardScaler)

// WithoutMean skips centering; only the scale is applied.
func WithoutMean() ScalerOption {
	return func(s *StandardScaler) { s.withMean = false }
}

// WithoutStd skips scaling; only the mean is removed.
func WithoutStd() ScalerOption {
	return func(s *StandardScaler) { s.withStd = false }
}

// NewStandardScaler creates an unfitted StandardScaler.
func NewStandardScaler(opts ...ScalerOption) *StandardScaler {
	s := &StandardScaler{
		state:    model.NewStateManager(),
		withMean: true,
		withStd:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fit learns per-feature mean and standard deviation from X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	rows, cols := X.Dims()
	if rows == 0 {
		return errors.ErrEmptyData
	}

	s.Mean = make([]float64, cols)
	s.Scale = make([]float64, cols)

	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += X.At(i, j)
		}
		s.Mean[j] = sum / float64(rows)

		variance := 0.0
		for i := 0; i < rows; i++ {
			d := X.At(i, j) - s.Mean[j]
			variance += d * d
		}
		variance /= float64(rows)

		s.Scale[j] = math.Sqrt(variance)
		if s.Scale[j] == 0 {
			s.Scale[j] = 1
		}
	}

	s.state.SetDimensions(rows, cols)
	s.state.SetFitted()
	return nil
}

// Transform returns a copy of X standardized with the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	rows, cols := X.Dims()
	if cols != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.Transform", len(s.Mean), cols, 1)
	}

	out := mat.NewDense(rows, cols, nil)
	parallel.ParallelizeWithThreshold(rows, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < cols; j++ {
				v := X.At(i, j)
				if s.withMean {
					v -= s.Mean[j]
				}
				if s.withStd {
					v /= s.Scale[j]
				}
				out.Set(i, j, v)
			}
		}
	})
	return out, nil
}

// FitTransform fits the scaler on X and returns the transformed X.
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized values back to the original space.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	rows, cols := X.Dims()
	if cols != len(s.Mean) {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", len(s.Mean), cols, 1)
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := X.At(i, j)
			if s.withStd {
				v *= s.Scale[j]
			}
			if s.withMean {
				v += s.Mean[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}
