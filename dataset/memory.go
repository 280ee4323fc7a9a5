package dataset

import (
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/pkg/errors"
)

// DefaultBranch is the branch an in-memory dataset starts on.
const DefaultBranch = "main"

// InMemory is a Dataset with full branch and tensor-group support, backed by
// plain slices. It is the reference Versioned implementation and the one the
// tests run the pipeline against.
type InMemory struct {
	mu       sync.Mutex
	name     string
	features *mat.Dense
	labels   []int
	readOnly bool

	branch   string
	branches map[string]map[string]map[string]Tensor // branch -> group -> tensor name
}

// InMemoryOption configures an InMemory dataset.
type InMemoryOption func(*InMemory)

// WithReadOnly opens the dataset read-only. Tensor writes and checkouts fail.
func WithReadOnly() InMemoryOption {
	return func(ds *InMemory) { ds.readOnly = true }
}

// NewInMemory builds an in-memory dataset from a feature matrix and a label
// per row.
func NewInMemory(name string, features mat.Matrix, labels []int, opts ...InMemoryOption) (*InMemory, error) {
	rows, cols := features.Dims()
	if rows == 0 {
		return nil, errors.ErrEmptyData
	}
	if len(labels) != rows {
		return nil, errors.NewDimensionError("NewInMemory", rows, len(labels), 0)
	}

	dense := mat.NewDense(rows, cols, nil)
	dense.Copy(features)

	owned := make([]int, rows)
	copy(owned, labels)

	ds := &InMemory{
		name:     name,
		features: dense,
		labels:   owned,
		branch:   DefaultBranch,
		branches: map[string]map[string]map[string]Tensor{
			DefaultBranch: {},
		},
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds, nil
}

// Name returns the dataset's display name.
func (ds *InMemory) Name() string { return ds.name }

// Len returns the number of samples.
func (ds *InMemory) Len() int { return len(ds.labels) }

// Features returns the (n x d) feature matrix.
func (ds *InMemory) Features() mat.Matrix { return ds.features }

// Labels returns the per-sample class labels.
func (ds *InMemory) Labels() []int { return ds.labels }

// ReadOnly reports whether writes are permitted.
func (ds *InMemory) ReadOnly() bool { return ds.readOnly }

// CurrentBranch returns the active branch name.
func (ds *InMemory) CurrentBranch() string {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.branch
}

// Checkout switches to the named branch, creating it as a fork of the current
// branch when create is set.
func (ds *InMemory) Checkout(name string, create bool) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if _, ok := ds.branches[name]; !ok {
		if !create {
			return errors.Wrapf(ErrBranchNotFound, "checkout %q", name)
		}
		if ds.readOnly {
			return errors.NewWritePermissionError(ds.name, "checkout --create")
		}
		fork := make(map[string]map[string]Tensor, len(ds.branches[ds.branch]))
		for group, tensors := range ds.branches[ds.branch] {
			cloned := make(map[string]Tensor, len(tensors))
			for tname, t := range tensors {
				cloned[tname] = t
			}
			fork[group] = cloned
		}
		ds.branches[name] = fork
	}
	ds.branch = name
	return nil
}

// Branches returns the names of all branches.
func (ds *InMemory) Branches() []string {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	out := make([]string, 0, len(ds.branches))
	for name := range ds.branches {
		out = append(out, name)
	}
	return out
}

// HasTensorGroup reports whether the group exists on the active branch.
func (ds *InMemory) HasTensorGroup(name string) bool {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	_, ok := ds.branches[ds.branch][name]
	return ok
}

// CreateTensorGroup persists a tensor group on the active branch. Each tensor
// must have one element per sample.
func (ds *InMemory) CreateTensorGroup(name string, contents map[string]Tensor, overwrite bool) error {
	if ds.readOnly {
		return errors.NewWritePermissionError(ds.name, "create tensor group")
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if _, ok := ds.branches[ds.branch][name]; ok && !overwrite {
		return errors.NewTensorExistsError(name, ds.branch)
	}
	for tname, t := range contents {
		if t.Len() != len(ds.labels) {
			return errors.NewDimensionError("tensor "+tname, len(ds.labels), t.Len(), 0)
		}
	}

	stored := make(map[string]Tensor, len(contents))
	for tname, t := range contents {
		stored[tname] = t
	}
	ds.branches[ds.branch][name] = stored
	return nil
}

// TensorGroup returns the named group from the active branch.
func (ds *InMemory) TensorGroup(name string) (map[string]Tensor, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	group, ok := ds.branches[ds.branch][name]
	if !ok {
		return nil, false
	}
	out := make(map[string]Tensor, len(group))
	for tname, t := range group {
		out[tname] = t
	}
	return out, true
}
