package clean

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/core/model"
	"github.com/strataml/labelclean/dataset"
	"github.com/strataml/labelclean/metrics"
	"github.com/strataml/labelclean/pkg/errors"
)

// CVConfig configures out-of-fold probability estimation.
type CVConfig struct {
	// Folds is the cross-validation fold count. Must be at least 2.
	Folds int

	// Shuffle enables a random permutation within each class before
	// splitting, seeded by Seed.
	Shuffle bool
	Seed    uint64

	// Concurrency bounds how many folds train at once. Folds write disjoint
	// probability rows, so values above 1 are safe; 0 or 1 means sequential.
	Concurrency int

	// Validation is an optional held-out dataset forwarded to classifiers
	// that implement model.ValidatingFitter. Issues are never computed for it.
	Validation dataset.Dataset

	// Logger receives per-fold progress and the held-out accuracy summary.
	Logger zerolog.Logger
}

// EstimateOutOfFoldProbs computes an out-of-sample predicted probability for
// every example in the dataset using stratified cross-validation. The result
// is an (n x k) matrix, k being the number of distinct labels; row i was
// produced by a classifier instance that never trained on sample i.
func EstimateOutOfFoldProbs(ds dataset.Dataset, labels []int, factory model.Factory, cfg CVConfig) (*mat.Dense, error) {
	n := len(labels)
	if n == 0 {
		return nil, errors.ErrEmptyData
	}
	if ds.Len() != n {
		return nil, errors.NewDimensionError("EstimateOutOfFoldProbs", ds.Len(), n, 0)
	}

	numClasses, err := CountClasses(labels)
	if err != nil {
		return nil, err
	}

	splitter := NewStratifiedKFold(cfg.Folds, cfg.Shuffle, cfg.Seed)
	folds, err := splitter.Split(labels)
	if err != nil {
		return nil, err
	}

	cfg.Logger.Info().
		Int("folds", cfg.Folds).
		Int("samples", n).
		Int("classes", numClasses).
		Msg("computing out-of-sample predicted probabilities with cross-validation")

	probs := mat.NewDense(n, numClasses, nil)
	filled := make([]bool, n)

	var mu sync.Mutex
	var g errgroup.Group
	limit := cfg.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for f := range folds {
		fold := folds[f]
		foldNum := f + 1
		g.Go(func() error {
			cfg.Logger.Info().
				Int("fold", foldNum).
				Int("of", len(folds)).
				Int("train", len(fold.Train)).
				Int("holdout", len(fold.Holdout)).
				Msg("training fold")

			rows, err := runFold(ds, labels, factory, fold, cfg.Validation)
			if err != nil {
				return errors.Wrapf(err, "fold %d", foldNum)
			}

			r, c := rows.Dims()
			if r != len(fold.Holdout) || c != numClasses {
				return errors.NewDimensionError("fold probabilities", len(fold.Holdout), r, 0)
			}

			mu.Lock()
			defer mu.Unlock()
			for i, idx := range fold.Holdout {
				if filled[idx] {
					return errors.NewConsistencyError("EstimateOutOfFoldProbs",
						"probability row written twice; holdout folds overlap")
				}
				for j := 0; j < numClasses; j++ {
					probs.Set(idx, j, rows.At(i, j))
				}
				filled[idx] = true
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, ok := range filled {
		if !ok {
			return nil, errors.NewConsistencyError("EstimateOutOfFoldProbs",
				fmt.Sprintf("probability row %d left unpopulated; holdout folds do not cover it", i))
		}
	}

	if acc, err := heldOutAccuracy(labels, probs); err == nil {
		cfg.Logger.Info().
			Float64("accuracy", acc).
			Msg("cross-validated estimate of accuracy on held-out data")
	}

	return probs, nil
}

// runFold trains one fresh classifier on the fold's train subset and returns
// its probability predictions for the holdout subset. A fresh instance per
// fold is what guarantees no holdout sample influenced its own prediction.
func runFold(ds dataset.Dataset, labels []int, factory model.Factory, fold Fold, valid dataset.Dataset) (m mat.Matrix, err error) {
	defer errors.Recover(&err, "runFold")

	trainView, err := dataset.Subset(ds, fold.Train)
	if err != nil {
		return nil, err
	}
	holdoutView, err := dataset.Subset(ds, fold.Holdout)
	if err != nil {
		return nil, err
	}

	clf := factory.New()
	if err := fitClassifier(clf, trainView, valid); err != nil {
		return nil, errors.Wrap(err, "fit")
	}

	rows, err := clf.PredictProba(holdoutView.Features())
	if err != nil {
		return nil, errors.Wrap(err, "predict probabilities")
	}
	return rows, nil
}

// fitClassifier dispatches to FitWithValidation when both a validation set
// and the capability are present.
func fitClassifier(clf model.Classifier, train dataset.Dataset, valid dataset.Dataset) error {
	X := train.Features()
	y := dataset.LabelColumn(train.Labels())

	if valid != nil {
		if vf, ok := clf.(model.ValidatingFitter); ok {
			return vf.FitWithValidation(X, y, valid.Features(), dataset.LabelColumn(valid.Labels()))
		}
	}
	return clf.Fit(X, y)
}

// CountClasses returns the number of distinct labels. Labels must be the
// contiguous range 0..k-1 so that label values and probability-matrix columns
// coincide.
func CountClasses(labels []int) (int, error) {
	seen := make(map[int]bool, len(labels))
	maxLabel := 0
	for _, label := range labels {
		if label < 0 {
			return 0, errors.NewConfigurationError("labels",
				"class labels must be non-negative", label)
		}
		seen[label] = true
		if label > maxLabel {
			maxLabel = label
		}
	}
	if len(seen) != maxLabel+1 {
		return 0, errors.NewConfigurationError("labels",
			"class labels must form the contiguous range 0..k-1", maxLabel)
	}
	return len(seen), nil
}

// heldOutAccuracy scores the argmax of out-of-fold probabilities against the
// recorded labels. Diagnostic only.
func heldOutAccuracy(labels []int, probs mat.Matrix) (float64, error) {
	predicted := ArgmaxRows(probs)
	return metrics.AccuracyScore(labels, predicted)
}

// ArgmaxRows reduces each probability row to its highest-probability class
// index.
func ArgmaxRows(probs mat.Matrix) []int {
	n, k := probs.Dims()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		best := 0
		bestVal := probs.At(i, 0)
		for j := 1; j < k; j++ {
			if v := probs.At(i, j); v > bestVal {
				bestVal = v
				best = j
			}
		}
		out[i] = best
	}
	return out
}
