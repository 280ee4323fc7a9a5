// Package clean finds probable label errors in a labeled dataset and produces
// a cleaned, retrained view of it. Out-of-sample class probabilities are
// estimated with stratified cross-validation, an issue mask and quality scores
// are derived from them, a fresh model is retrained on the surviving samples,
// and the results can be written back into a versioned dataset transactionally.
package clean

import (
	"math/rand/v2"
	"sort"

	"github.com/strataml/labelclean/pkg/errors"
)

// Fold is one train/holdout pair. Holdout sets across folds are pairwise
// disjoint and cover every sample exactly once.
type Fold struct {
	Train   []int
	Holdout []int
}

// StratifiedKFold splits sample indices into k label-stratified folds: each
// holdout set preserves the original class proportions as closely as integer
// division allows.
type StratifiedKFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewStratifiedKFold creates a stratified k-fold splitter.
func NewStratifiedKFold(nSplits int, shuffle bool, seed uint64) *StratifiedKFold {
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// Split partitions the indices 0..len(labels)-1 into NSplits folds. It fails
// when NSplits < 2 or when any class has fewer than NSplits members, since
// stratification is impossible in either case.
func (s *StratifiedKFold) Split(labels []int) ([]Fold, error) {
	n := len(labels)
	if s.NSplits < 2 {
		return nil, errors.NewConfigurationError("folds",
			"cross-validation requires at least 2 folds", s.NSplits)
	}
	if n == 0 {
		return nil, errors.ErrEmptyData
	}

	classIndices := make(map[int][]int)
	for i, label := range labels {
		classIndices[label] = append(classIndices[label], i)
	}
	for label, indices := range classIndices {
		if len(indices) < s.NSplits {
			return nil, errors.NewConfigurationError("folds",
				"rarest class has fewer members than the requested fold count",
				map[string]int{"class": label, "count": len(indices), "folds": s.NSplits})
		}
	}

	// Iterate classes in a fixed order so unshuffled splits are deterministic.
	classes := make([]int, 0, len(classIndices))
	for label := range classIndices {
		classes = append(classes, label)
	}
	sort.Ints(classes)

	if s.Shuffle {
		r := rand.New(rand.NewPCG(s.Seed, s.Seed))
		for _, label := range classes {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]Fold, s.NSplits)

	// Deal each class's indices across the folds' holdout sets.
	for _, label := range classes {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / s.NSplits
		remainder := nClass % s.NSplits

		cursor := 0
		for f := 0; f < s.NSplits; f++ {
			take := foldSize
			if f < remainder {
				take++
			}
			folds[f].Holdout = append(folds[f].Holdout, indices[cursor:cursor+take]...)
			cursor += take
		}
	}

	// Train sets are the complement of each holdout set.
	for f := range folds {
		inHoldout := make(map[int]bool, len(folds[f].Holdout))
		for _, idx := range folds[f].Holdout {
			inHoldout[idx] = true
		}
		folds[f].Train = make([]int, 0, n-len(folds[f].Holdout))
		for i := 0; i < n; i++ {
			if !inHoldout[i] {
				folds[f].Train = append(folds[f].Train, i)
			}
		}
	}

	return folds, nil
}
