// Package lake is a file-backed, branchable tensor store implementing the
// dataset contract. Each branch is a JSON manifest pointing at immutable,
// zstd-compressed chunks; a HEAD file names the active branch and every
// manifest or HEAD update is an atomic rename. A file lock makes the store
// the single write serialization point for its dataset.
package lake

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/dataset"
	"github.com/strataml/labelclean/pkg/errors"
)

// DefaultBranch is the branch a new store starts on.
const DefaultBranch = "main"

// Store is an on-disk versioned dataset.
type Store struct {
	mu       sync.Mutex
	dir      string
	readOnly bool
	lock     *flock.Flock

	branch string
	man    *manifest

	features *mat.Dense
	labels   []int
}

// ErrLocked is returned when another process holds the store's write lock.
var ErrLocked = errors.New("dataset is locked by another writer")

// featurePayload is the serialized form of the base feature matrix.
type featurePayload struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// Create initializes a new store at dir from a feature matrix and one label
// per row, and leaves it open writable on the default branch.
func Create(dir, name string, features mat.Matrix, labels []int) (*Store, error) {
	rows, cols := features.Dims()
	if rows == 0 {
		return nil, errors.ErrEmptyData
	}
	if len(labels) != rows {
		return nil, errors.NewDimensionError("lake.Create", rows, len(labels), 0)
	}
	if _, err := os.Stat(filepath.Join(dir, headFileName)); err == nil {
		return nil, errors.Newf("lake: %s already contains a dataset", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dense := mat.NewDense(rows, cols, nil)
	dense.Copy(features)

	payload := featurePayload{Rows: rows, Cols: cols, Data: dense.RawMatrix().Data}
	featChunk, err := writeChunk(dir, payload)
	if err != nil {
		return nil, err
	}
	labelChunk, err := writeChunk(dir, labels)
	if err != nil {
		return nil, err
	}

	man := &manifest{
		CommitID: newCommitID(),
		Name:     name,
		Samples:  rows,
		Columns:  cols,
		Features: chunkRef{Chunk: featChunk},
		Labels:   chunkRef{Chunk: labelChunk},
		Groups:   map[string]map[string]chunkRef{},
	}
	if err := saveManifest(dir, DefaultBranch, man); err != nil {
		return nil, err
	}
	if err := writeHead(dir, DefaultBranch); err != nil {
		return nil, err
	}

	return open(dir, false)
}

// OpenOption configures Open.
type OpenOption func(*openConfig)

type openConfig struct {
	readOnly bool
}

// WithReadOnly opens the store without acquiring the write lock; writes and
// branch creation fail.
func WithReadOnly() OpenOption {
	return func(c *openConfig) { c.readOnly = true }
}

// Open loads the store at dir on the branch HEAD names. Writable opens take
// the store's file lock; a second writer gets ErrLocked.
func Open(dir string, opts ...OpenOption) (*Store, error) {
	var cfg openConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return open(dir, cfg.readOnly)
}

func open(dir string, readOnly bool) (*Store, error) {
	branch, err := readHead(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset at %s", dir)
	}
	branch = strings.TrimSpace(branch)

	s := &Store{dir: dir, readOnly: readOnly, branch: branch}

	if !readOnly {
		s.lock = flock.New(filepath.Join(dir, lockFileName))
		locked, err := s.lock.TryLock()
		if err != nil {
			return nil, err
		}
		if !locked {
			return nil, errors.WithStack(ErrLocked)
		}
	}

	if err := s.loadBranch(branch); err != nil {
		if s.lock != nil {
			s.lock.Unlock()
		}
		return nil, err
	}
	return s, nil
}

// loadBranch reads the branch manifest and materializes features and labels.
func (s *Store) loadBranch(branch string) error {
	man, err := loadManifest(s.dir, branch)
	if err != nil {
		return err
	}

	var payload featurePayload
	if err := readChunk(s.dir, man.Features.Chunk, &payload); err != nil {
		return errors.Wrap(err, "load features")
	}
	if payload.Rows*payload.Cols != len(payload.Data) {
		return errors.NewConsistencyError("lake.loadBranch", "feature chunk shape does not match payload")
	}

	var labels []int
	if err := readChunk(s.dir, man.Labels.Chunk, &labels); err != nil {
		return errors.Wrap(err, "load labels")
	}
	if len(labels) != payload.Rows {
		return errors.NewConsistencyError("lake.loadBranch", "label chunk length does not match sample count")
	}

	s.man = man
	s.branch = branch
	s.features = mat.NewDense(payload.Rows, payload.Cols, payload.Data)
	s.labels = labels
	return nil
}

// Close releases the write lock, if held.
func (s *Store) Close() error {
	if s.lock != nil {
		return s.lock.Unlock()
	}
	return nil
}

// Name returns the dataset's display name.
func (s *Store) Name() string { return s.man.Name }

// Len returns the number of samples.
func (s *Store) Len() int { return len(s.labels) }

// Features returns the (n x d) feature matrix.
func (s *Store) Features() mat.Matrix { return s.features }

// Labels returns the per-sample class labels.
func (s *Store) Labels() []int { return s.labels }

// ReadOnly reports whether writes are permitted.
func (s *Store) ReadOnly() bool { return s.readOnly }

// CurrentBranch returns the active branch name.
func (s *Store) CurrentBranch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.branch
}

// Branches lists all branch names, sorted.
func (s *Store) Branches() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, branchesDir))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".json"); ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Checkout switches to the named branch. With create set, a missing branch is
// forked from the current commit before switching. HEAD moves only after the
// branch loads, so a failed checkout leaves the store untouched.
func (s *Store) Checkout(name string, create bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == s.branch {
		return nil
	}

	if _, err := os.Stat(branchPath(s.dir, name)); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		if !create {
			return errors.Wrapf(dataset.ErrBranchNotFound, "checkout %q", name)
		}
		if s.readOnly {
			return errors.NewWritePermissionError(s.man.Name, "checkout --create")
		}

		fork := *s.man
		fork.CommitID = newCommitID()
		fork.Parent = s.man.CommitID
		fork.Groups = make(map[string]map[string]chunkRef, len(s.man.Groups))
		for group, tensors := range s.man.Groups {
			cloned := make(map[string]chunkRef, len(tensors))
			for tname, ref := range tensors {
				cloned[tname] = ref
			}
			fork.Groups[group] = cloned
		}
		if err := saveManifest(s.dir, name, &fork); err != nil {
			return err
		}
	}

	if err := s.loadBranch(name); err != nil {
		return err
	}
	if !s.readOnly {
		if err := writeHead(s.dir, name); err != nil {
			return err
		}
	}
	return nil
}

// HasTensorGroup reports whether the group exists on the active branch.
func (s *Store) HasTensorGroup(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.man.Groups[name]
	return ok
}

// CreateTensorGroup persists a tensor group on the active branch as a new
// commit. Each tensor must have one element per sample.
func (s *Store) CreateTensorGroup(name string, contents map[string]Tensor, overwrite bool) error {
	if s.readOnly {
		return errors.NewWritePermissionError(s.man.Name, "create tensor group")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.man.Groups[name]; ok && !overwrite {
		return errors.NewTensorExistsError(name, s.branch)
	}
	for tname, t := range contents {
		if t.Len() != len(s.labels) {
			return errors.NewDimensionError("tensor "+tname, len(s.labels), t.Len(), 0)
		}
	}

	refs := make(map[string]chunkRef, len(contents))
	for tname, t := range contents {
		id, err := writeChunk(s.dir, t)
		if err != nil {
			return errors.Wrapf(err, "write tensor %q", tname)
		}
		refs[tname] = chunkRef{Chunk: id}
	}

	next := *s.man
	next.CommitID = newCommitID()
	next.Parent = s.man.CommitID
	next.Groups = make(map[string]map[string]chunkRef, len(s.man.Groups)+1)
	for group, tensors := range s.man.Groups {
		next.Groups[group] = tensors
	}
	next.Groups[name] = refs

	if err := saveManifest(s.dir, s.branch, &next); err != nil {
		return err
	}
	s.man = &next
	return nil
}

// TensorGroup loads the named group from the active branch.
func (s *Store) TensorGroup(name string) (map[string]Tensor, bool) {
	s.mu.Lock()
	refs, ok := s.man.Groups[name]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}

	out := make(map[string]Tensor, len(refs))
	for tname, ref := range refs {
		var t Tensor
		if err := readChunk(s.dir, ref.Chunk, &t); err != nil {
			return nil, false
		}
		out[tname] = t
	}
	return out, true
}

// Tensor aliases the dataset tensor type so lake callers need only one import.
type Tensor = dataset.Tensor
