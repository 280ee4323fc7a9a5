package clean

import (
	"github.com/rs/zerolog"

	"github.com/strataml/labelclean/core/model"
	"github.com/strataml/labelclean/dataset"
	"github.com/strataml/labelclean/pkg/errors"
)

// RetrainOnClean prunes the flagged samples, fits one fresh classifier on the
// remainder, and predicts a label for every sample in the original dataset,
// flagged ones included. The returned vector always has ds.Len() entries.
func RetrainOnClean(ds dataset.Dataset, issueMask []bool, factory model.Factory, valid dataset.Dataset, logger zerolog.Logger) (predicted []int, err error) {
	defer errors.Recover(&err, "RetrainOnClean")

	n := ds.Len()
	if len(issueMask) != n {
		return nil, errors.NewDimensionError("RetrainOnClean", n, len(issueMask), 0)
	}

	keep := make([]bool, n)
	flagged := 0
	for i, bad := range issueMask {
		keep[i] = !bad
		if bad {
			flagged++
		}
	}

	logger.Info().Int("flagged", flagged).Msg("pruning examples with label issues")

	cleanView, err := dataset.SubsetMask(ds, keep)
	if err != nil {
		return nil, err
	}
	if cleanView.Len() == 0 {
		return nil, errors.NewInsufficientDataError("RetrainOnClean", n, 0)
	}

	logger.Info().Int("remaining", cleanView.Len()).Msg("fitting final model on the clean data")

	clf := factory.New()
	if err := fitClassifier(clf, cleanView, valid); err != nil {
		return nil, errors.Wrap(err, "fit on clean subset")
	}

	// Predict over the entire original dataset, not just the clean subset.
	probs, err := clf.PredictProba(ds.Features())
	if err != nil {
		return nil, errors.Wrap(err, "predict probabilities")
	}

	rows, _ := probs.Dims()
	if rows != n {
		return nil, errors.NewDimensionError("retrain predictions", n, rows, 0)
	}

	predicted = ArgmaxRows(probs)

	// Map probability columns back to class values when the classifier
	// reports them; with contiguous 0..k-1 labels this is the identity.
	if classes := clf.Classes(); len(classes) > 0 {
		_, cols := probs.Dims()
		if len(classes) == cols {
			for i, idx := range predicted {
				predicted[i] = classes[idx]
			}
		}
	}

	return predicted, nil
}
