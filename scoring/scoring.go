// Package scoring ships default implementations of the issue-finding and
// quality-scoring capabilities consumed by the clean package. Both operate on
// a label vector and a row-aligned out-of-fold probability matrix; both are
// swappable for any other implementation of the same contract.
package scoring

import (
	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/pkg/errors"
)

// Method selects the quality-score formulation.
type Method string

const (
	// SelfConfidenceMethod scores a sample by the predicted probability of
	// its recorded label.
	SelfConfidenceMethod Method = "self_confidence"

	// NormalizedMarginMethod scores by the gap between the recorded label's
	// probability and the strongest competing class, rescaled to [0, 1].
	NormalizedMarginMethod Method = "normalized_margin"
)

// Scorer computes per-sample label quality scores; lower scores mark labels
// less likely to be correct.
type Scorer struct {
	method Method
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithMethod selects the scoring formulation. Default is self-confidence.
func WithMethod(m Method) ScorerOption {
	return func(s *Scorer) { s.method = m }
}

// NewScorer creates a quality scorer.
func NewScorer(opts ...ScorerOption) *Scorer {
	s := &Scorer{method: SelfConfidenceMethod}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreQuality returns one score per sample, aligned with labels.
func (s *Scorer) ScoreQuality(labels []int, probs mat.Matrix) ([]float64, error) {
	if err := checkAligned(labels, probs); err != nil {
		return nil, err
	}

	n, k := probs.Dims()
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		given := probs.At(i, labels[i])
		switch s.method {
		case NormalizedMarginMethod:
			competitor := 0.0
			for j := 0; j < k; j++ {
				if j != labels[i] && probs.At(i, j) > competitor {
					competitor = probs.At(i, j)
				}
			}
			scores[i] = (given - competitor + 1) / 2
		default:
			scores[i] = given
		}
	}
	return scores, nil
}

// Finder flags probable label errors using per-class confident thresholds: a
// class's threshold is the mean self-confidence of the samples labeled with
// it, and a sample is flagged when its own self-confidence falls below the
// threshold while the model prefers a different class.
type Finder struct {
	// requireDisagreement additionally demands that the model's argmax class
	// differ from the recorded label. Enabled by default; disabling it flags
	// every below-threshold sample.
	requireDisagreement bool
}

// FinderOption configures a Finder.
type FinderOption func(*Finder)

// WithoutDisagreement flags below-threshold samples even when the model's
// preferred class matches the recorded label.
func WithoutDisagreement() FinderOption {
	return func(f *Finder) { f.requireDisagreement = false }
}

// NewFinder creates an issue finder.
func NewFinder(opts ...FinderOption) *Finder {
	f := &Finder{requireDisagreement: true}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FindIssues returns a boolean mask aligned with labels; true marks a sample
// judged mislabeled.
func (f *Finder) FindIssues(labels []int, probs mat.Matrix) ([]bool, error) {
	if err := checkAligned(labels, probs); err != nil {
		return nil, err
	}

	n, k := probs.Dims()

	thresholds := make([]float64, k)
	counts := make([]int, k)
	for i := 0; i < n; i++ {
		thresholds[labels[i]] += probs.At(i, labels[i])
		counts[labels[i]]++
	}
	for j := 0; j < k; j++ {
		if counts[j] > 0 {
			thresholds[j] /= float64(counts[j])
		}
	}

	mask := make([]bool, n)
	for i := 0; i < n; i++ {
		given := labels[i]
		selfConfidence := probs.At(i, given)
		if selfConfidence >= thresholds[given] {
			continue
		}
		if !f.requireDisagreement {
			mask[i] = true
			continue
		}
		argmax := 0
		best := probs.At(i, 0)
		for j := 1; j < k; j++ {
			if v := probs.At(i, j); v > best {
				best = v
				argmax = j
			}
		}
		mask[i] = argmax != given
	}
	return mask, nil
}

func checkAligned(labels []int, probs mat.Matrix) error {
	n, k := probs.Dims()
	if n == 0 {
		return errors.ErrEmptyData
	}
	if len(labels) != n {
		return errors.NewDimensionError("scoring", n, len(labels), 0)
	}
	for i, label := range labels {
		if label < 0 || label >= k {
			return errors.NewConfigurationError("labels",
				"label does not index a probability column",
				map[string]int{"sample": i, "label": label, "classes": k})
		}
	}
	return nil
}
