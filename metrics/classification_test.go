package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	pkgerrors "github.com/strataml/labelclean/pkg/errors"
)

func TestAccuracyScore(t *testing.T) {
	tests := []struct {
		name  string
		yTrue []int
		yPred []int
		want  float64
	}{
		{"perfect", []int{0, 1, 2, 1}, []int{0, 1, 2, 1}, 1.0},
		{"half", []int{0, 1, 0, 1}, []int{0, 0, 1, 1}, 0.5},
		{"none", []int{0, 0}, []int{1, 1}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AccuracyScore(tt.yTrue, tt.yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	t.Run("empty", func(t *testing.T) {
		_, err := AccuracyScore(nil, nil)
		assert.ErrorIs(t, err, pkgerrors.ErrEmptyData)
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := AccuracyScore([]int{0, 1}, []int{0})
		require.Error(t, err)
		var dimErr *pkgerrors.DimensionError
		assert.True(t, pkgerrors.As(err, &dimErr))
	})
}

func TestAccuracyScoreMatrix(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{0, 1, 2, 1})
	yPred := mat.NewDense(4, 1, []float64{0, 1, 1, 1})

	got, err := AccuracyScoreMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-12)

	t.Run("column labels only", func(t *testing.T) {
		_, err := AccuracyScoreMatrix(mat.NewDense(2, 2, nil), yPred)
		require.Error(t, err)
		var dimErr *pkgerrors.DimensionError
		assert.True(t, pkgerrors.As(err, &dimErr))
	})
}

func TestConfusionCounts(t *testing.T) {
	counts, err := ConfusionCounts(
		[]int{0, 0, 1, 1, 2, 2},
		[]int{0, 1, 1, 1, 2, 0},
		3,
	)
	require.NoError(t, err)
	assert.Equal(t, [][]int{
		{1, 1, 0},
		{0, 2, 0},
		{1, 0, 1},
	}, counts)

	t.Run("label out of range", func(t *testing.T) {
		_, err := ConfusionCounts([]int{0, 3}, []int{0, 1}, 2)
		require.Error(t, err)
		var cfgErr *pkgerrors.ConfigurationError
		assert.True(t, pkgerrors.As(err, &cfgErr))
	})
}
