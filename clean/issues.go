package clean

import (
	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/pkg/errors"
)

// IssueFinder is the external issue-finding capability: given labels and
// out-of-fold probabilities (row-aligned), it returns a boolean mask where
// true marks a sample judged mislabeled.
type IssueFinder interface {
	FindIssues(labels []int, probs mat.Matrix) ([]bool, error)
}

// IssueFinderFunc adapts a function to the IssueFinder interface.
type IssueFinderFunc func(labels []int, probs mat.Matrix) ([]bool, error)

// FindIssues calls f.
func (f IssueFinderFunc) FindIssues(labels []int, probs mat.Matrix) ([]bool, error) {
	return f(labels, probs)
}

// QualityScorer is the external quality-scoring capability: given labels and
// out-of-fold probabilities, it returns one score per sample, lower meaning
// the label is less likely to be correct.
type QualityScorer interface {
	ScoreQuality(labels []int, probs mat.Matrix) ([]float64, error)
}

// QualityScorerFunc adapts a function to the QualityScorer interface.
type QualityScorerFunc func(labels []int, probs mat.Matrix) ([]float64, error)

// ScoreQuality calls f.
func (f QualityScorerFunc) ScoreQuality(labels []int, probs mat.Matrix) ([]float64, error) {
	return f(labels, probs)
}

// BuildIssueReport runs the finder and scorer over the same immutable
// (labels, probabilities) pair and normalizes their outputs into an aligned
// (mask, scores) pair of length n. No statistical computation happens here;
// this layer only guarantees both algorithms see identical inputs and that
// their outputs line up with the dataset.
func BuildIssueReport(labels []int, probs mat.Matrix, finder IssueFinder, scorer QualityScorer) (mask []bool, scores []float64, err error) {
	n := len(labels)
	rows, _ := probs.Dims()
	if rows != n {
		return nil, nil, errors.NewDimensionError("BuildIssueReport", n, rows, 0)
	}

	err = errors.SafeExecute("find label issues", func() error {
		var ferr error
		mask, ferr = finder.FindIssues(labels, probs)
		return ferr
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "issue finder")
	}
	if len(mask) != n {
		return nil, nil, errors.NewDimensionError("issue mask", n, len(mask), 0)
	}

	err = errors.SafeExecute("score label quality", func() error {
		var serr error
		scores, serr = scorer.ScoreQuality(labels, probs)
		return serr
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "quality scorer")
	}
	if len(scores) != n {
		return nil, nil, errors.NewDimensionError("quality scores", n, len(scores), 0)
	}

	return mask, scores, nil
}
