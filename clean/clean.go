package clean

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/strataml/labelclean/core/model"
	"github.com/strataml/labelclean/dataset"
	"github.com/strataml/labelclean/pkg/errors"
	"github.com/strataml/labelclean/pkg/log"
	"github.com/strataml/labelclean/scoring"
)

// DefaultFolds is the cross-validation fold count used when none is given.
const DefaultFolds = 5

// Options holds the resolved configuration of a detection run.
type Options struct {
	folds         int
	shuffle       bool
	seed          uint64
	concurrency   int
	validation    dataset.Dataset
	createTensors bool
	overwrite     bool
	branch        string
	group         string
	finder        IssueFinder
	scorer        QualityScorer
	logger        zerolog.Logger
	verbose       bool
}

// Option configures DetectAndClean.
type Option func(*Options)

// WithFolds sets the cross-validation fold count.
func WithFolds(k int) Option {
	return func(o *Options) { o.folds = k }
}

// WithShuffle enables within-class shuffling before fold splitting, using the
// given seed. There is no deterministic default; callers wanting reproducible
// folds must pass a seed explicitly.
func WithShuffle(seed uint64) Option {
	return func(o *Options) { o.shuffle = true; o.seed = seed }
}

// WithConcurrency bounds how many folds train at once.
func WithConcurrency(n int) Option {
	return func(o *Options) { o.concurrency = n }
}

// WithValidation supplies a held-out validation dataset, forwarded to
// classifiers implementing model.ValidatingFitter. Label issues are never
// computed for it.
func WithValidation(ds dataset.Dataset) Option {
	return func(o *Options) { o.validation = ds }
}

// WithCreateTensors persists the results into the dataset after detection.
// The dataset must implement dataset.Versioned and be writable.
func WithCreateTensors() Option {
	return func(o *Options) { o.createTensors = true }
}

// WithOverwrite allows replacing existing result tensors. Only meaningful
// together with WithCreateTensors.
func WithOverwrite() Option {
	return func(o *Options) { o.overwrite = true }
}

// WithBranch writes results on the named branch, creating it if absent, and
// restores the previously active branch afterwards.
func WithBranch(name string) Option {
	return func(o *Options) { o.branch = name }
}

// WithResultGroup overrides the tensor group name results are written under.
func WithResultGroup(name string) Option {
	return func(o *Options) { o.group = name }
}

// WithFinder replaces the default issue-finding algorithm.
func WithFinder(f IssueFinder) Option {
	return func(o *Options) { o.finder = f }
}

// WithScorer replaces the default quality-scoring algorithm.
func WithScorer(s QualityScorer) Option {
	return func(o *Options) { o.scorer = s }
}

// WithVerbose toggles progress output. Defaults to on.
func WithVerbose(v bool) Option {
	return func(o *Options) { o.verbose = v }
}

// WithLogger routes progress output to the given logger instead of stderr.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) { o.logger = logger; o.verbose = true }
}

func resolveOptions(opts []Option) *Options {
	o := &Options{
		folds:   DefaultFolds,
		group:   ResultGroup,
		verbose: true,
		logger:  log.New(os.Stderr, zerolog.InfoLevel),
	}
	for _, opt := range opts {
		opt(o)
	}
	if !o.verbose {
		o.logger = log.Nop()
	}
	if o.finder == nil {
		o.finder = scoring.NewFinder()
	}
	if o.scorer == nil {
		o.scorer = scoring.NewScorer()
	}
	return o
}

// DetectAndClean runs the full pipeline: out-of-fold probability estimation,
// issue detection and quality scoring, and retraining on the clean subset.
// With WithCreateTensors the results are also persisted into the dataset.
//
// The returned report carries one mask entry, one quality score and one
// predicted label per sample, aligned with dataset order.
func DetectAndClean(ds dataset.Dataset, factory model.Factory, opts ...Option) (*Report, error) {
	o := resolveOptions(opts)

	if factory == nil {
		return nil, errors.NewConfigurationError("classifierFactory",
			"a classifier factory is required", nil)
	}

	// Catch the most common user error before any training happens.
	if o.createTensors {
		v, ok := ds.(dataset.Versioned)
		if !ok {
			return nil, errors.NewConfigurationError("createTensors",
				"dataset does not support tensor persistence", dataset.DisplayName(ds))
		}
		if v.ReadOnly() {
			return nil, errors.NewWritePermissionError(dataset.DisplayName(ds), "create tensors")
		}
	}

	// The label vector is derived once here and treated as immutable for the
	// rest of the run.
	labels := make([]int, ds.Len())
	copy(labels, ds.Labels())

	probs, err := EstimateOutOfFoldProbs(ds, labels, factory, CVConfig{
		Folds:       o.folds,
		Shuffle:     o.shuffle,
		Seed:        o.seed,
		Concurrency: o.concurrency,
		Validation:  o.validation,
		Logger:      o.logger,
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info().Msg("using predicted probabilities to identify label issues")

	mask, scores, err := BuildIssueReport(labels, probs, o.finder, o.scorer)
	if err != nil {
		return nil, err
	}

	rep := &Report{IssueMask: mask, QualityScores: scores}
	o.logger.Info().Int("issues", rep.NumIssues()).Msg("identified examples with label issues")

	rep.PredictedLabels, err = RetrainOnClean(ds, mask, factory, o.validation, o.logger)
	if err != nil {
		return nil, err
	}

	if o.createTensors {
		v := ds.(dataset.Versioned)
		if err := WriteReport(v, rep, WriteOptions{
			Branch:    o.branch,
			Overwrite: o.overwrite,
			Group:     o.group,
			Logger:    o.logger,
		}); err != nil {
			return nil, err
		}
	}

	return rep, nil
}

// CleanView returns a lazy view of the dataset restricted to samples not
// flagged as label issues. With a nil mask, the persisted issue tensor is
// used; when none exists either, a NoIssueDataError is returned.
func CleanView(ds dataset.Dataset, issueMask []bool) (*dataset.SubsetView, error) {
	if issueMask == nil {
		v, ok := ds.(dataset.Versioned)
		if !ok {
			return nil, errors.NewNoIssueDataError(dataset.DisplayName(ds), ResultGroup)
		}
		group, ok := v.TensorGroup(ResultGroup)
		if !ok {
			return nil, errors.NewNoIssueDataError(dataset.DisplayName(ds), ResultGroup)
		}
		tensor, ok := group[TensorIsLabelIssue]
		if !ok || tensor.Dtype != dataset.DtypeBool {
			return nil, errors.NewNoIssueDataError(dataset.DisplayName(ds), ResultGroup)
		}
		issueMask = tensor.Bools
	}

	if len(issueMask) != ds.Len() {
		return nil, errors.NewDimensionError("CleanView", ds.Len(), len(issueMask), 0)
	}

	keep := make([]bool, len(issueMask))
	for i, bad := range issueMask {
		keep[i] = !bad
	}
	return dataset.SubsetMask(ds, keep)
}
