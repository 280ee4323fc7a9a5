package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testDataset(t *testing.T, n int) *InMemory {
	t.Helper()
	features := mat.NewDense(n, 2, nil)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		features.Set(i, 0, float64(i))
		features.Set(i, 1, float64(i)*10)
		labels[i] = i % 2
	}
	ds, err := NewInMemory("test", features, labels)
	require.NoError(t, err)
	return ds
}

func TestSubsetView(t *testing.T) {
	t.Run("Preserves relative order", func(t *testing.T) {
		ds := testDataset(t, 10)
		view, err := Subset(ds, []int{7, 2, 5})
		require.NoError(t, err)

		assert.Equal(t, 3, view.Len())
		assert.Equal(t, []int{1, 0, 1}, view.Labels())

		X := view.Features()
		rows, cols := X.Dims()
		assert.Equal(t, 3, rows)
		assert.Equal(t, 2, cols)
		assert.Equal(t, 7.0, X.At(0, 0))
		assert.Equal(t, 2.0, X.At(1, 0))
		assert.Equal(t, 50.0, X.At(2, 1))
	})

	t.Run("Mask selects true positions", func(t *testing.T) {
		ds := testDataset(t, 5)
		view, err := SubsetMask(ds, []bool{true, false, true, false, true})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2, 4}, view.Indices())
	})

	t.Run("Mask length must match dataset", func(t *testing.T) {
		ds := testDataset(t, 5)
		_, err := SubsetMask(ds, []bool{true, false})
		assert.Error(t, err)
	})

	t.Run("Out of range index fails", func(t *testing.T) {
		ds := testDataset(t, 5)
		_, err := Subset(ds, []int{0, 5})
		assert.Error(t, err)
	})

	t.Run("Does not mutate the base dataset", func(t *testing.T) {
		ds := testDataset(t, 6)
		before := mat.DenseCopyOf(ds.Features())

		view, err := SubsetMask(ds, []bool{true, true, false, false, true, true})
		require.NoError(t, err)
		_ = view.Features()
		_ = view.Labels()

		assert.True(t, mat.Equal(before, ds.Features()))
		assert.Equal(t, []int{0, 1, 0, 1, 0, 1}, ds.Labels())
	})

	t.Run("Independent views do not interfere", func(t *testing.T) {
		ds := testDataset(t, 8)
		a, err := Subset(ds, []int{0, 1, 2})
		require.NoError(t, err)
		b, err := Subset(ds, []int{5, 6, 7})
		require.NoError(t, err)

		assert.Equal(t, 0.0, a.Features().At(0, 0))
		assert.Equal(t, 5.0, b.Features().At(0, 0))
		assert.Equal(t, []int{0, 1, 2}, a.Indices())
	})

	t.Run("Caller's index slice is not aliased", func(t *testing.T) {
		ds := testDataset(t, 5)
		indices := []int{1, 3}
		view, err := Subset(ds, indices)
		require.NoError(t, err)

		indices[0] = 4
		assert.Equal(t, []int{1, 3}, view.Indices())
	})
}
