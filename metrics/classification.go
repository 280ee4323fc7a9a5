// Package metrics provides evaluation metrics for classification results.
package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/pkg/errors"
)

// AccuracyScore computes the fraction of predictions matching the true labels.
func AccuracyScore(yTrue, yPred []int) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.ErrEmptyData
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("AccuracyScore", n, len(yPred), 0)
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyScoreMatrix computes accuracy from (n x 1) label matrices, for
// callers working directly with classifier outputs.
func AccuracyScoreMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 {
		return 0, errors.ErrEmptyData
	}
	if cTrue != 1 || cPred != 1 {
		return 0, errors.NewDimensionError("AccuracyScoreMatrix", 1, cTrue, 1)
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("AccuracyScoreMatrix", rTrue, rPred, 0)
	}

	correct := 0
	for i := 0; i < rTrue; i++ {
		if int(yTrue.At(i, 0)) == int(yPred.At(i, 0)) {
			correct++
		}
	}
	return float64(correct) / float64(rTrue), nil
}

// ConfusionCounts tallies, for each (true, predicted) class pair, how many
// samples fell into it. Classes are the contiguous range 0..k-1.
func ConfusionCounts(yTrue, yPred []int, numClasses int) ([][]int, error) {
	if len(yTrue) != len(yPred) {
		return nil, errors.NewDimensionError("ConfusionCounts", len(yTrue), len(yPred), 0)
	}

	counts := make([][]int, numClasses)
	for i := range counts {
		counts[i] = make([]int, numClasses)
	}
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= numClasses || p < 0 || p >= numClasses {
			return nil, errors.NewConfigurationError("labels",
				"class label out of range", map[string]int{"true": t, "pred": p})
		}
		counts[t][p]++
	}
	return counts, nil
}
