package clean

import (
	"github.com/rs/zerolog"

	"github.com/strataml/labelclean/dataset"
	"github.com/strataml/labelclean/pkg/errors"
)

// Tensor layout for persisted results.
const (
	// ResultGroup is the tensor group detection results are written under.
	ResultGroup = "label_issues"

	TensorIsLabelIssue    = "is_label_issue"
	TensorQualityScores   = "label_quality_scores"
	TensorPredictedLabels = "predicted_labels"
)

// Report is the outcome of a detection run: one mask entry, one quality score
// and (when retraining ran) one predicted label per sample, all aligned with
// dataset order.
type Report struct {
	IssueMask       []bool
	QualityScores   []float64
	PredictedLabels []int
}

// NumIssues returns how many samples the mask flags.
func (r *Report) NumIssues() int {
	n := 0
	for _, bad := range r.IssueMask {
		if bad {
			n++
		}
	}
	return n
}

// WriteOptions configures WriteReport.
type WriteOptions struct {
	// Branch is the branch to write on. Empty means the currently active
	// branch. A missing branch is created before switching.
	Branch string

	// Overwrite allows replacing an existing result group.
	Overwrite bool

	// Group overrides the tensor group name. Defaults to ResultGroup.
	Group string

	Logger zerolog.Logger
}

// WriteReport persists a detection report into the dataset as a tensor group,
// optionally on a named branch. The branch that was active when the call began
// is restored on every exit path, write failure included; if that restoration
// itself fails, a BranchRestoreError carrying both failures is returned.
//
// Callers must not run concurrent write transactions against the same
// dataset; the one serialization point is the dataset's own write lock.
func WriteReport(ds dataset.Versioned, rep *Report, opts WriteOptions) (err error) {
	group := opts.Group
	if group == "" {
		group = ResultGroup
	}

	name := "dataset"
	if named, ok := ds.(dataset.Named); ok {
		name = named.Name()
	}

	// Fail fast, before any state transition.
	if ds.ReadOnly() {
		return errors.NewWritePermissionError(name, "write label issues")
	}
	if len(rep.QualityScores) != len(rep.IssueMask) {
		return errors.NewDimensionError("WriteReport", len(rep.IssueMask), len(rep.QualityScores), 0)
	}
	if rep.PredictedLabels != nil && len(rep.PredictedLabels) != len(rep.IssueMask) {
		return errors.NewDimensionError("WriteReport", len(rep.IssueMask), len(rep.PredictedLabels), 0)
	}

	original := ds.CurrentBranch()
	if opts.Branch != "" && opts.Branch != original {
		if cerr := ds.Checkout(opts.Branch, true); cerr != nil {
			return errors.Wrapf(cerr, "checkout %q", opts.Branch)
		}
		opts.Logger.Info().
			Str("branch", opts.Branch).
			Str("restore_to", original).
			Msg("switched dataset branch for result write")

		defer func() {
			if rerr := ds.Checkout(original, false); rerr != nil {
				err = errors.NewBranchRestoreError(original, rerr, err)
			}
		}()
	}

	if ds.HasTensorGroup(group) && !opts.Overwrite {
		return errors.NewTensorExistsError(group, ds.CurrentBranch())
	}

	contents := map[string]dataset.Tensor{
		TensorIsLabelIssue:  dataset.BoolTensor(rep.IssueMask),
		TensorQualityScores: dataset.FloatTensor(rep.QualityScores),
	}
	if rep.PredictedLabels != nil {
		ints := make([]int64, len(rep.PredictedLabels))
		for i, v := range rep.PredictedLabels {
			ints[i] = int64(v)
		}
		contents[TensorPredictedLabels] = dataset.IntTensor(ints)
	}

	if werr := ds.CreateTensorGroup(group, contents, opts.Overwrite); werr != nil {
		return werr
	}

	opts.Logger.Info().
		Str("group", group).
		Str("branch", ds.CurrentBranch()).
		Int("issues", rep.NumIssues()).
		Msg("wrote label issue tensors")
	return nil
}
