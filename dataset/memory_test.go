package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/strataml/labelclean/pkg/errors"
)

func TestInMemoryBranches(t *testing.T) {
	t.Run("Starts on the default branch", func(t *testing.T) {
		ds := testDataset(t, 4)
		assert.Equal(t, DefaultBranch, ds.CurrentBranch())
	})

	t.Run("Checkout missing branch without create fails", func(t *testing.T) {
		ds := testDataset(t, 4)
		err := ds.Checkout("experiments", false)
		assert.True(t, pkgerrors.Is(err, ErrBranchNotFound))
		assert.Equal(t, DefaultBranch, ds.CurrentBranch())
	})

	t.Run("Create forks the current branch's groups", func(t *testing.T) {
		ds := testDataset(t, 4)
		require.NoError(t, ds.CreateTensorGroup("g", map[string]Tensor{
			"m": BoolTensor([]bool{true, false, true, false}),
		}, false))

		require.NoError(t, ds.Checkout("experiments", true))
		assert.Equal(t, "experiments", ds.CurrentBranch())
		assert.True(t, ds.HasTensorGroup("g"))

		// Writes on the fork do not leak back.
		require.NoError(t, ds.CreateTensorGroup("extra", map[string]Tensor{
			"m": BoolTensor(make([]bool, 4)),
		}, false))
		require.NoError(t, ds.Checkout(DefaultBranch, false))
		assert.False(t, ds.HasTensorGroup("extra"))
	})
}

func TestInMemoryTensorGroups(t *testing.T) {
	t.Run("Round trip", func(t *testing.T) {
		ds := testDataset(t, 3)
		in := map[string]Tensor{
			"mask":   BoolTensor([]bool{true, false, true}),
			"scores": FloatTensor([]float64{0.1, 0.9, 0.2}),
		}
		require.NoError(t, ds.CreateTensorGroup("results", in, false))

		out, ok := ds.TensorGroup("results")
		require.True(t, ok)
		assert.Equal(t, in["mask"].Bools, out["mask"].Bools)
		assert.Equal(t, in["scores"].Floats, out["scores"].Floats)
	})

	t.Run("Existing group needs overwrite", func(t *testing.T) {
		ds := testDataset(t, 3)
		contents := map[string]Tensor{"mask": BoolTensor(make([]bool, 3))}
		require.NoError(t, ds.CreateTensorGroup("results", contents, false))

		err := ds.CreateTensorGroup("results", contents, false)
		var existsErr *pkgerrors.TensorExistsError
		assert.True(t, pkgerrors.As(err, &existsErr))

		assert.NoError(t, ds.CreateTensorGroup("results", contents, true))
	})

	t.Run("Tensor length must match sample count", func(t *testing.T) {
		ds := testDataset(t, 3)
		err := ds.CreateTensorGroup("results", map[string]Tensor{
			"mask": BoolTensor(make([]bool, 5)),
		}, false)
		assert.Error(t, err)
	})

	t.Run("Read-only dataset rejects writes", func(t *testing.T) {
		ds := testDataset(t, 3)
		ro, err := NewInMemory("ro", ds.Features(), ds.Labels(), WithReadOnly())
		require.NoError(t, err)

		werr := ro.CreateTensorGroup("results", map[string]Tensor{
			"mask": BoolTensor(make([]bool, 3)),
		}, false)
		var permErr *pkgerrors.WritePermissionError
		assert.True(t, pkgerrors.As(werr, &permErr))
	})
}
