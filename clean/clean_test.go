package clean

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/core/model"
	"github.com/strataml/labelclean/dataset"
	"github.com/strataml/labelclean/linear"
	pkgerrors "github.com/strataml/labelclean/pkg/errors"
)

// flippedFixture builds an index dataset whose observed labels disagree with
// the truth at the given positions.
func flippedFixture(t *testing.T, n int, flips ...int) (*dataset.InMemory, []int, []int) {
	t.Helper()
	truth := make([]int, n)
	observed := make([]int, n)
	for i := 0; i < n; i++ {
		truth[i] = i % 2
		observed[i] = truth[i]
	}
	for _, i := range flips {
		observed[i] = 1 - observed[i]
	}
	return newIndexDataset(t, observed), truth, observed
}

func TestDetectAndClean(t *testing.T) {
	t.Run("flags exactly the corrupted labels", func(t *testing.T) {
		ds, truth, _ := flippedFixture(t, 20, 4, 11)
		factory := oracleFactory(truth, 2, nil)

		rep, err := DetectAndClean(ds, factory, WithVerbose(false))
		require.NoError(t, err)

		require.Len(t, rep.IssueMask, 20)
		require.Len(t, rep.QualityScores, 20)
		require.Len(t, rep.PredictedLabels, 20)

		for i, bad := range rep.IssueMask {
			assert.Equal(t, i == 4 || i == 11, bad, "sample %d", i)
		}
		assert.Equal(t, 2, rep.NumIssues())

		// Flipped samples score far below every clean sample.
		for i, score := range rep.QualityScores {
			if i == 4 || i == 11 {
				assert.Less(t, score, 0.5, "sample %d", i)
			} else {
				assert.Greater(t, score, 0.5, "sample %d", i)
			}
		}

		// Retraining on the clean subset recovers the original labels.
		assert.Equal(t, truth, rep.PredictedLabels)
	})

	t.Run("recovers injected noise with a real classifier", func(t *testing.T) {
		// Two well separated blobs on the x axis, a few labels flipped.
		const perClass = 30
		n := 2 * perClass
		features := mat.NewDense(n, 2, nil)
		labels := make([]int, n)
		for i := 0; i < perClass; i++ {
			off := 0.4 * float64(i%5)
			features.Set(i, 0, -3+off)
			features.Set(i, 1, float64(i%3)-1)
			labels[i] = 0
			features.Set(perClass+i, 0, 3-off)
			features.Set(perClass+i, 1, float64(i%3)-1)
			labels[perClass+i] = 1
		}
		flips := []int{2, 17, 33, 48}
		for _, i := range flips {
			labels[i] = 1 - labels[i]
		}

		ds, err := dataset.NewInMemory("blobs", features, labels)
		require.NoError(t, err)

		factory := linear.NewFactory(linear.WithMaxIter(300))
		rep, err := DetectAndClean(ds, factory, WithShuffle(7), WithVerbose(false))
		require.NoError(t, err)

		for _, i := range flips {
			assert.True(t, rep.IssueMask[i], "flipped sample %d must be flagged", i)
			assert.Equal(t, 1-labels[i], rep.PredictedLabels[i],
				"retrained model must recover the original label of sample %d", i)
		}
		assert.Equal(t, len(flips), rep.NumIssues(), "clean samples must not be flagged")
	})

	t.Run("nil factory is a configuration error", func(t *testing.T) {
		ds, _, _ := flippedFixture(t, 10)
		_, err := DetectAndClean(ds, nil, WithVerbose(false))
		require.Error(t, err)
		var cfgErr *pkgerrors.ConfigurationError
		assert.True(t, pkgerrors.As(err, &cfgErr))
	})

	t.Run("read-only persistence fails before any training", func(t *testing.T) {
		features := mat.NewDense(10, 1, nil)
		labels := make([]int, 10)
		for i := range labels {
			features.Set(i, 0, float64(i))
			labels[i] = i % 2
		}
		ds, err := dataset.NewInMemory("frozen", features, labels, dataset.WithReadOnly())
		require.NoError(t, err)

		var calls atomic.Int32
		factory := model.FactoryFunc(func() model.Classifier {
			calls.Add(1)
			return linear.NewLogisticRegression()
		})

		_, err = DetectAndClean(ds, factory, WithCreateTensors(), WithVerbose(false))
		require.Error(t, err)
		var permErr *pkgerrors.WritePermissionError
		assert.True(t, pkgerrors.As(err, &permErr))
		assert.Zero(t, calls.Load(), "no classifier may be built for a doomed run")
	})

	t.Run("persists tensors and honors overwrite", func(t *testing.T) {
		ds, truth, _ := flippedFixture(t, 20, 4, 11)
		factory := oracleFactory(truth, 2, nil)

		rep, err := DetectAndClean(ds, factory, WithCreateTensors(), WithVerbose(false))
		require.NoError(t, err)

		group, ok := ds.TensorGroup(ResultGroup)
		require.True(t, ok)
		assert.Equal(t, rep.IssueMask, group[TensorIsLabelIssue].Bools)
		assert.Equal(t, rep.QualityScores, group[TensorQualityScores].Floats)

		// A second run without overwrite refuses to clobber the results.
		_, err = DetectAndClean(ds, factory, WithCreateTensors(), WithVerbose(false))
		require.Error(t, err)
		var existsErr *pkgerrors.TensorExistsError
		assert.True(t, pkgerrors.As(err, &existsErr))

		_, err = DetectAndClean(ds, factory, WithCreateTensors(), WithOverwrite(), WithVerbose(false))
		assert.NoError(t, err)
	})
}

func TestCleanView(t *testing.T) {
	t.Run("explicit mask", func(t *testing.T) {
		ds, _, observed := flippedFixture(t, 12, 3)
		mask := make([]bool, 12)
		mask[3] = true

		view, err := CleanView(ds, mask)
		require.NoError(t, err)
		assert.Equal(t, 11, view.Len())
		assert.NotContains(t, view.Indices(), 3)
		assert.Equal(t, observed[4], view.Labels()[3], "rows after the hole shift up by one")
	})

	t.Run("nil mask reads the persisted tensor", func(t *testing.T) {
		ds, truth, _ := flippedFixture(t, 20, 4, 11)
		_, err := DetectAndClean(ds, oracleFactory(truth, 2, nil),
			WithCreateTensors(), WithVerbose(false))
		require.NoError(t, err)

		view, err := CleanView(ds, nil)
		require.NoError(t, err)
		assert.Equal(t, 18, view.Len())
		assert.NotContains(t, view.Indices(), 4)
		assert.NotContains(t, view.Indices(), 11)
	})

	t.Run("nil mask without persisted results", func(t *testing.T) {
		ds, _, _ := flippedFixture(t, 10)
		_, err := CleanView(ds, nil)
		require.Error(t, err)
		var noData *pkgerrors.NoIssueDataError
		assert.True(t, pkgerrors.As(err, &noData))
	})

	t.Run("mask length must match the dataset", func(t *testing.T) {
		ds, _, _ := flippedFixture(t, 10)
		_, err := CleanView(ds, make([]bool, 7))
		require.Error(t, err)
		var dimErr *pkgerrors.DimensionError
		assert.True(t, pkgerrors.As(err, &dimErr))
	})
}
