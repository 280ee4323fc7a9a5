package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/dataset"
	pkgerrors "github.com/strataml/labelclean/pkg/errors"
	"github.com/strataml/labelclean/pkg/log"
)

func newWritableDataset(t *testing.T, n int, opts ...dataset.InMemoryOption) *dataset.InMemory {
	t.Helper()
	features := mat.NewDense(n, 1, nil)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		features.Set(i, 0, float64(i))
		labels[i] = i % 2
	}
	ds, err := dataset.NewInMemory("fixture", features, labels, opts...)
	require.NoError(t, err)
	return ds
}

func sampleReport(n int) *Report {
	rep := &Report{
		IssueMask:       make([]bool, n),
		QualityScores:   make([]float64, n),
		PredictedLabels: make([]int, n),
	}
	for i := 0; i < n; i++ {
		rep.IssueMask[i] = i%3 == 0
		rep.QualityScores[i] = float64(i) / float64(n)
		rep.PredictedLabels[i] = i % 2
	}
	return rep
}

// checkoutFailer wraps a Versioned dataset and fails the checkout back to a
// designated branch, simulating a store whose restore step breaks.
type checkoutFailer struct {
	*dataset.InMemory
	failOn string
	err    error
}

func (c *checkoutFailer) Checkout(name string, create bool) error {
	if name == c.failOn {
		return c.err
	}
	return c.InMemory.Checkout(name, create)
}

func TestWriteReport(t *testing.T) {
	t.Run("persists all three tensors", func(t *testing.T) {
		ds := newWritableDataset(t, 9)
		rep := sampleReport(9)

		err := WriteReport(ds, rep, WriteOptions{Logger: log.Nop()})
		require.NoError(t, err)

		group, ok := ds.TensorGroup(ResultGroup)
		require.True(t, ok)
		require.Len(t, group, 3)

		assert.Equal(t, rep.IssueMask, group[TensorIsLabelIssue].Bools)
		assert.Equal(t, rep.QualityScores, group[TensorQualityScores].Floats)
		require.Len(t, group[TensorPredictedLabels].Ints, 9)
		for i, want := range rep.PredictedLabels {
			assert.Equal(t, int64(want), group[TensorPredictedLabels].Ints[i])
		}
	})

	t.Run("omits predicted labels when retraining did not run", func(t *testing.T) {
		ds := newWritableDataset(t, 6)
		rep := sampleReport(6)
		rep.PredictedLabels = nil

		require.NoError(t, WriteReport(ds, rep, WriteOptions{Logger: log.Nop()}))

		group, ok := ds.TensorGroup(ResultGroup)
		require.True(t, ok)
		assert.Len(t, group, 2)
		_, hasPred := group[TensorPredictedLabels]
		assert.False(t, hasPred)
	})

	t.Run("read-only dataset fails before any state change", func(t *testing.T) {
		ds := newWritableDataset(t, 6, dataset.WithReadOnly())
		rep := sampleReport(6)

		err := WriteReport(ds, rep, WriteOptions{Branch: "results", Logger: log.Nop()})
		require.Error(t, err)

		var permErr *pkgerrors.WritePermissionError
		require.True(t, pkgerrors.As(err, &permErr))
		assert.Equal(t, "fixture", permErr.Dataset)

		// The branch precheck rejected the call, so no branch was created and
		// the active branch never moved.
		assert.Equal(t, dataset.DefaultBranch, ds.CurrentBranch())
		assert.NotContains(t, ds.Branches(), "results")
	})

	t.Run("existing group without overwrite is rejected", func(t *testing.T) {
		ds := newWritableDataset(t, 6)
		rep := sampleReport(6)

		require.NoError(t, WriteReport(ds, rep, WriteOptions{Logger: log.Nop()}))

		err := WriteReport(ds, rep, WriteOptions{Logger: log.Nop()})
		require.Error(t, err)
		var existsErr *pkgerrors.TensorExistsError
		require.True(t, pkgerrors.As(err, &existsErr))
		assert.Equal(t, ResultGroup, existsErr.Group)
	})

	t.Run("overwrite replaces tensors with the second call's data", func(t *testing.T) {
		ds := newWritableDataset(t, 6)

		first := sampleReport(6)
		require.NoError(t, WriteReport(ds, first, WriteOptions{Logger: log.Nop()}))

		second := sampleReport(6)
		for i := range second.IssueMask {
			second.IssueMask[i] = !first.IssueMask[i]
			second.QualityScores[i] = 1 - first.QualityScores[i]
		}
		require.NoError(t, WriteReport(ds, second, WriteOptions{Overwrite: true, Logger: log.Nop()}))

		group, ok := ds.TensorGroup(ResultGroup)
		require.True(t, ok)
		assert.Equal(t, second.IssueMask, group[TensorIsLabelIssue].Bools)
		assert.Equal(t, second.QualityScores, group[TensorQualityScores].Floats)
	})

	t.Run("writes on a named branch and restores the original", func(t *testing.T) {
		ds := newWritableDataset(t, 6)
		rep := sampleReport(6)

		err := WriteReport(ds, rep, WriteOptions{Branch: "results", Logger: log.Nop()})
		require.NoError(t, err)

		assert.Equal(t, dataset.DefaultBranch, ds.CurrentBranch())
		assert.False(t, ds.HasTensorGroup(ResultGroup), "main must not carry the results")

		require.NoError(t, ds.Checkout("results", false))
		assert.True(t, ds.HasTensorGroup(ResultGroup))
	})

	t.Run("restores the original branch after a write failure", func(t *testing.T) {
		ds := newWritableDataset(t, 6)
		rep := sampleReport(6)

		require.NoError(t, WriteReport(ds, rep, WriteOptions{Branch: "results", Logger: log.Nop()}))

		// Second write on the same branch without overwrite fails, but the
		// active branch must come back to where the caller started.
		err := WriteReport(ds, rep, WriteOptions{Branch: "results", Logger: log.Nop()})
		require.Error(t, err)
		var existsErr *pkgerrors.TensorExistsError
		assert.True(t, pkgerrors.As(err, &existsErr))
		assert.Equal(t, dataset.DefaultBranch, ds.CurrentBranch())
	})

	t.Run("failed restoration surfaces both errors", func(t *testing.T) {
		inner := newWritableDataset(t, 6)
		rep := sampleReport(6)
		require.NoError(t, WriteReport(inner, rep, WriteOptions{Branch: "results", Logger: log.Nop()}))

		restoreCause := pkgerrors.New("manifest gone")
		ds := &checkoutFailer{InMemory: inner, failOn: dataset.DefaultBranch, err: restoreCause}

		err := WriteReport(ds, rep, WriteOptions{Branch: "results", Logger: log.Nop()})
		require.Error(t, err)

		var restoreErr *pkgerrors.BranchRestoreError
		require.True(t, pkgerrors.As(err, &restoreErr))
		assert.Equal(t, dataset.DefaultBranch, restoreErr.Branch)
		assert.ErrorIs(t, restoreErr.Cause, restoreCause)

		var existsErr *pkgerrors.TensorExistsError
		assert.True(t, pkgerrors.As(restoreErr.WriteErr, &existsErr))
	})

	t.Run("score vector length must match the mask", func(t *testing.T) {
		ds := newWritableDataset(t, 6)
		rep := sampleReport(6)
		rep.QualityScores = rep.QualityScores[:4]

		err := WriteReport(ds, rep, WriteOptions{Logger: log.Nop()})
		require.Error(t, err)
		var dimErr *pkgerrors.DimensionError
		assert.True(t, pkgerrors.As(err, &dimErr))
	})
}
