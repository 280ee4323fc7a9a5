package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/pkg/errors"
)

// SubsetView is a read-only, order-preserving restriction of a Dataset to a
// chosen set of positions. It stores only the index mapping; feature payloads
// are never copied. Independent views over the same dataset do not interfere.
type SubsetView struct {
	base    Dataset
	indices []int
}

// Subset builds a view of ds restricted to the given positions, preserving
// their order. Positions may repeat.
func Subset(ds Dataset, indices []int) (*SubsetView, error) {
	n := ds.Len()
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, errors.NewConfigurationError("indices",
				"position out of range", idx)
		}
	}
	owned := make([]int, len(indices))
	copy(owned, indices)
	return &SubsetView{base: ds, indices: owned}, nil
}

// SubsetMask builds a view of ds restricted to the positions where mask is
// true. The mask must have exactly one entry per sample.
func SubsetMask(ds Dataset, mask []bool) (*SubsetView, error) {
	if len(mask) != ds.Len() {
		return nil, errors.NewDimensionError("SubsetMask", ds.Len(), len(mask), 0)
	}
	indices := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			indices = append(indices, i)
		}
	}
	return &SubsetView{base: ds, indices: indices}, nil
}

// Len returns the number of selected samples.
func (v *SubsetView) Len() int { return len(v.indices) }

// Features returns a lazy row-remapped matrix over the base dataset.
func (v *SubsetView) Features() mat.Matrix {
	return rowSlice{m: v.base.Features(), rows: v.indices}
}

// Labels returns the labels of the selected samples, in view order.
func (v *SubsetView) Labels() []int {
	base := v.base.Labels()
	out := make([]int, len(v.indices))
	for i, idx := range v.indices {
		out[i] = base[idx]
	}
	return out
}

// Indices returns a copy of the positions this view selects from the base
// dataset, in view order.
func (v *SubsetView) Indices() []int {
	out := make([]int, len(v.indices))
	copy(out, v.indices)
	return out
}

// Name implements Named when the base dataset carries a name.
func (v *SubsetView) Name() string {
	return DisplayName(v.base) + "[subset]"
}

// rowSlice remaps matrix rows through an index list without copying.
type rowSlice struct {
	m    mat.Matrix
	rows []int
}

func (r rowSlice) Dims() (int, int) {
	_, c := r.m.Dims()
	return len(r.rows), c
}

func (r rowSlice) At(i, j int) float64 { return r.m.At(r.rows[i], j) }

func (r rowSlice) T() mat.Matrix { return mat.Transpose{Matrix: r} }
