package clean

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/strataml/labelclean/core/model"
	"github.com/strataml/labelclean/dataset"
	"github.com/strataml/labelclean/pkg/log"
)

// newIndexDataset builds a dataset whose single feature column holds the
// sample's own position, so stub classifiers can tell exactly which samples
// they were trained on.
func newIndexDataset(t *testing.T, labels []int) *dataset.InMemory {
	t.Helper()
	features := mat.NewDense(len(labels), 1, nil)
	for i := range labels {
		features.Set(i, 0, float64(i))
	}
	ds, err := dataset.NewInMemory("index", features, labels)
	require.NoError(t, err)
	return ds
}

// leakRecorder aggregates bookkeeping across all classifier instances a
// factory produced during a run.
type leakRecorder struct {
	mu         sync.Mutex
	instances  int
	violations []int // samples predicted by an instance that trained on them
}

func (r *leakRecorder) addInstance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances++
}

func (r *leakRecorder) addViolation(idx int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations = append(r.violations, idx)
}

// oracleClassifier predicts a near-one-hot distribution of the truth labels
// it was constructed with, and records which samples each instance saw during
// fitting.
type oracleClassifier struct {
	truth      []int
	numClasses int
	trained    map[int]bool
	rec        *leakRecorder
}

func (c *oracleClassifier) Fit(X, _ mat.Matrix) error {
	rows, _ := X.Dims()
	for i := 0; i < rows; i++ {
		c.trained[int(X.At(i, 0))] = true
	}
	return nil
}

func (c *oracleClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probs, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i, label := range ArgmaxRows(probs) {
		out.Set(i, 0, float64(label))
	}
	return out, nil
}

func (c *oracleClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	rows, _ := X.Dims()
	probs := mat.NewDense(rows, c.numClasses, nil)
	low := 0.1 / float64(c.numClasses-1)
	for i := 0; i < rows; i++ {
		idx := int(X.At(i, 0))
		if c.trained[idx] && c.rec != nil {
			c.rec.addViolation(idx)
		}
		for j := 0; j < c.numClasses; j++ {
			if j == c.truth[idx] {
				probs.Set(i, j, 0.9)
			} else {
				probs.Set(i, j, low)
			}
		}
	}
	return probs, nil
}

func (c *oracleClassifier) Classes() []int {
	out := make([]int, c.numClasses)
	for i := range out {
		out[i] = i
	}
	return out
}

// oracleFactory produces fresh oracleClassifier instances sharing one
// recorder.
func oracleFactory(truth []int, numClasses int, rec *leakRecorder) model.Factory {
	return model.FactoryFunc(func() model.Classifier {
		if rec != nil {
			rec.addInstance()
		}
		return &oracleClassifier{
			truth:      truth,
			numClasses: numClasses,
			trained:    make(map[int]bool),
			rec:        rec,
		}
	})
}

func quietCV(folds int) CVConfig {
	return CVConfig{Folds: folds, Logger: log.Nop()}
}
