// Package dataset defines the narrow storage contract the labelclean pipeline
// consumes: ordered, indexable access to labeled samples, plus an optional
// versioning surface (branches and tensor groups) for persisting results.
package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/pkg/errors"
)

// Dataset is an ordered, indexable collection of N labeled samples. Indexing
// through a SubsetView returns a non-mutating view preserving order.
type Dataset interface {
	// Len returns the number of samples.
	Len() int

	// Features returns an (n x d) matrix view over sample features. The
	// returned matrix must stay valid for the lifetime of the dataset.
	Features() mat.Matrix

	// Labels returns one integer class label per sample, aligned with row
	// order.
	Labels() []int
}

// Named is an optional interface for datasets that carry a display name, used
// in diagnostics and error messages.
type Named interface {
	Name() string
}

// Versioned is the storage and versioning surface of a dataset. The pipeline
// only ever reads by index and appends tensor groups; everything else about
// the storage engine is opaque.
type Versioned interface {
	// ReadOnly reports whether writes are permitted.
	ReadOnly() bool

	// CurrentBranch returns the name of the active branch.
	CurrentBranch() string

	// Checkout switches to the named branch. With create set, a missing
	// branch is created as a fork of the current one before switching.
	Checkout(name string, create bool) error

	// HasTensorGroup reports whether the named tensor group exists on the
	// active branch.
	HasTensorGroup(name string) bool

	// CreateTensorGroup persists a group of tensors on the active branch.
	// An existing group is replaced only when overwrite is set.
	CreateTensorGroup(name string, contents map[string]Tensor, overwrite bool) error

	// TensorGroup returns the named group from the active branch.
	TensorGroup(name string) (map[string]Tensor, bool)
}

// ErrBranchNotFound is returned by Checkout when the branch does not exist and
// create was not requested.
var ErrBranchNotFound = errors.New("branch not found")

// Dtype identifies the element type of a Tensor.
type Dtype string

const (
	DtypeBool    Dtype = "bool"
	DtypeFloat64 Dtype = "float64"
	DtypeInt64   Dtype = "int64"
)

// Tensor is a typed column persisted alongside a dataset, one element per
// sample. Exactly one of the value slices is populated, per Dtype.
type Tensor struct {
	Dtype  Dtype     `json:"dtype"`
	Bools  []bool    `json:"bools,omitempty"`
	Floats []float64 `json:"floats,omitempty"`
	Ints   []int64   `json:"ints,omitempty"`
}

// BoolTensor wraps a boolean column.
func BoolTensor(v []bool) Tensor { return Tensor{Dtype: DtypeBool, Bools: v} }

// FloatTensor wraps a float64 column.
func FloatTensor(v []float64) Tensor { return Tensor{Dtype: DtypeFloat64, Floats: v} }

// IntTensor wraps an int64 column.
func IntTensor(v []int64) Tensor { return Tensor{Dtype: DtypeInt64, Ints: v} }

// Len returns the number of elements in the tensor.
func (t Tensor) Len() int {
	switch t.Dtype {
	case DtypeBool:
		return len(t.Bools)
	case DtypeFloat64:
		return len(t.Floats)
	case DtypeInt64:
		return len(t.Ints)
	}
	return 0
}

// LabelColumn exposes integer labels as an (n x 1) gonum matrix without
// copying, for handing to Classifier.Fit.
func LabelColumn(labels []int) mat.Matrix {
	return labelColumn(labels)
}

type labelColumn []int

func (c labelColumn) Dims() (int, int)    { return len(c), 1 }
func (c labelColumn) At(i, _ int) float64 { return float64(c[i]) }
func (c labelColumn) T() mat.Matrix       { return mat.Transpose{Matrix: c} }

// DisplayName returns the dataset name when it carries one.
func DisplayName(ds Dataset) string {
	if n, ok := ds.(Named); ok {
		return n.Name()
	}
	return "dataset"
}
