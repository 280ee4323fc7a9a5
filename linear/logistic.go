// Package linear provides the default classifier for the labelclean pipeline:
// a logistic regression trained by gradient descent, binary or one-vs-rest.
package linear

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/core/model"
	"github.com/strataml/labelclean/pkg/errors"
)

// LogisticRegression implements model.Classifier.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	c            float64 // Inverse L2 regularization strength
	fitIntercept bool
	maxIter      int
	tol          float64
	randomState  int64

	// Fitted parameters
	coef_      [][]float64 // (1 x d) for binary, (k x d) for one-vs-rest
	intercept_ []float64
	classes_   []int
	nFeatures_ int

	rand *rand.Rand
}

// Option is a functional option for LogisticRegression.
type Option func(*LogisticRegression)

// WithC sets the inverse regularization strength.
func WithC(c float64) Option {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithFitIntercept sets whether to fit an intercept term.
func WithFitIntercept(fit bool) Option {
	return func(lr *LogisticRegression) { lr.fitIntercept = fit }
}

// WithMaxIter sets the maximum number of gradient-descent iterations.
func WithMaxIter(maxIter int) Option {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

// WithTol sets the gradient-norm stopping tolerance.
func WithTol(tol float64) Option {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithRandomState seeds weight initialization for reproducible fits.
func WithRandomState(seed int64) Option {
	return func(lr *LogisticRegression) { lr.randomState = seed }
}

// NewLogisticRegression creates an untrained LogisticRegression.
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		c:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
		randomState:  -1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	if lr.randomState >= 0 {
		lr.rand = rand.New(rand.NewSource(lr.randomState))
	} else {
		lr.rand = rand.New(rand.NewSource(rand.Int63()))
	}
	return lr
}

// NewFactory returns a factory producing fresh, untrained classifiers sharing
// these options. Each New call yields an independent instance, which is the
// capability the cross-validation loop requires.
func NewFactory(opts ...Option) model.Factory {
	return model.FactoryFunc(func() model.Classifier {
		return NewLogisticRegression(opts...)
	})
}

// Fit trains the model on features X and labels y (an n x 1 matrix).
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return errors.ErrEmptyData
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}

	lr.extractClasses(y)
	lr.nFeatures_ = nFeatures
	lr.initializeWeights(nFeatures)

	if len(lr.classes_) == 2 {
		yBinary := lr.binaryTargets(y, lr.classes_[1])
		lr.fitWeights(X, yBinary, 0)
	} else {
		for classIdx, class := range lr.classes_ {
			yBinary := lr.binaryTargets(y, class)
			lr.fitWeights(X, yBinary, classIdx)
		}
	}

	lr.state.SetDimensions(nSamples, nFeatures)
	lr.state.SetFitted()
	return nil
}

// extractClasses records the sorted unique class labels in y.
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	classMap := make(map[int]bool)
	for i := 0; i < rows; i++ {
		classMap[int(y.At(i, 0))] = true
	}
	lr.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		lr.classes_ = append(lr.classes_, class)
	}
	sort.Ints(lr.classes_)
}

func (lr *LogisticRegression) initializeWeights(nFeatures int) {
	nSets := 1
	if len(lr.classes_) > 2 {
		nSets = len(lr.classes_)
	}
	lr.coef_ = make([][]float64, nSets)
	lr.intercept_ = make([]float64, nSets)
	for i := range lr.coef_ {
		lr.coef_[i] = make([]float64, nFeatures)
		for j := range lr.coef_[i] {
			lr.coef_[i][j] = lr.rand.NormFloat64() * 0.01
		}
	}
}

// binaryTargets returns 1.0 where y equals positive, else 0.0.
func (lr *LogisticRegression) binaryTargets(y mat.Matrix, positive int) []float64 {
	rows, _ := y.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		if int(y.At(i, 0)) == positive {
			out[i] = 1.0
		}
	}
	return out
}

// fitWeights runs gradient descent for one weight set.
func (lr *LogisticRegression) fitWeights(X mat.Matrix, yBinary []float64, weightIdx int) {
	nSamples, nFeatures := X.Dims()
	weights := lr.coef_[weightIdx]
	intercept := &lr.intercept_[weightIdx]

	baseLearningRate := 1.0

	for iter := 0; iter < lr.maxIter; iter++ {
		gradWeights := make([]float64, nFeatures)
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := *intercept
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sigmoid(z) - yBinary[i]
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		for j := range gradWeights {
			gradWeights[j] /= float64(nSamples)
		}
		gradIntercept /= float64(nSamples)

		// L2 regularization gradient.
		lambda := 1.0 / lr.c
		for j := range weights {
			gradWeights[j] += lambda * weights[j] / float64(nSamples)
		}

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		for j := range weights {
			weights[j] -= learningRate * gradWeights[j]
		}
		if lr.fitIntercept {
			*intercept -= learningRate * gradIntercept
		}

		maxGrad := math.Abs(gradIntercept)
		for _, g := range gradWeights {
			if math.Abs(g) > maxGrad {
				maxGrad = math.Abs(g)
			}
		}
		if maxGrad < lr.tol {
			break
		}
	}
}

// Predict returns an (n x 1) matrix of predicted class labels.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	nSamples, nClasses := probas.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		bestVal := probas.At(i, 0)
		for j := 1; j < nClasses; j++ {
			if v := probas.At(i, j); v > bestVal {
				bestVal = v
				best = j
			}
		}
		predictions.Set(i, 0, float64(lr.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns an (n x k) matrix of class probabilities, columns
// ordered by Classes().
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures_ {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures_, nFeatures, 1)
	}

	nClasses := len(lr.classes_)
	probas := mat.NewDense(nSamples, nClasses, nil)

	if nClasses == 2 {
		for i := 0; i < nSamples; i++ {
			z := lr.intercept_[0]
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * lr.coef_[0][j]
			}
			p := sigmoid(z)
			probas.Set(i, 0, 1.0-p)
			probas.Set(i, 1, p)
		}
		return probas, nil
	}

	// One-vs-rest scores, normalized with softmax.
	for i := 0; i < nSamples; i++ {
		scores := make([]float64, nClasses)
		maxScore := math.Inf(-1)
		for classIdx := 0; classIdx < nClasses; classIdx++ {
			score := lr.intercept_[classIdx]
			for j := 0; j < nFeatures; j++ {
				score += X.At(i, j) * lr.coef_[classIdx][j]
			}
			scores[classIdx] = score
			if score > maxScore {
				maxScore = score
			}
		}
		sum := 0.0
		for classIdx := range scores {
			scores[classIdx] = math.Exp(scores[classIdx] - maxScore)
			sum += scores[classIdx]
		}
		for classIdx := range scores {
			probas.Set(i, classIdx, scores[classIdx]/sum)
		}
	}
	return probas, nil
}

// Classes returns the unique classes seen during fitting, ascending.
func (lr *LogisticRegression) Classes() []int {
	out := make([]int, len(lr.classes_))
	copy(out, lr.classes_)
	return out
}

// Score returns the mean accuracy on the given test data and labels.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
