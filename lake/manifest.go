package lake

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/strataml/labelclean/pkg/errors"
)

const (
	manifestVersion = 1

	headFileName = "HEAD"
	lockFileName = "LOCK"
	branchesDir  = "branches"
	chunksDir    = "chunks"
)

// chunkRef points a tensor at its on-disk chunk.
type chunkRef struct {
	Chunk string `json:"chunk"`
}

// manifest describes one branch of a store at a specific commit.
type manifest struct {
	Version  int    `json:"version"`
	CommitID string `json:"commit_id"`
	Parent   string `json:"parent,omitempty"`
	Name     string `json:"name"`
	Samples  int    `json:"samples"`
	Columns  int    `json:"columns"`

	Features chunkRef `json:"features"`
	Labels   chunkRef `json:"labels"`

	// Groups maps tensor-group name to tensor name to chunk.
	Groups map[string]map[string]chunkRef `json:"groups"`
}

func newCommitID() string { return uuid.NewString() }

func branchPath(dir, branch string) string {
	return filepath.Join(dir, branchesDir, branch+".json")
}

// loadManifest reads and validates a branch manifest.
func loadManifest(dir, branch string) (*manifest, error) {
	data, err := os.ReadFile(branchPath(dir, branch))
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "decode manifest for branch %q", branch)
	}
	if m.Version != manifestVersion {
		return nil, errors.Newf("unsupported manifest version: %d (expected %d)", m.Version, manifestVersion)
	}
	if m.Groups == nil {
		m.Groups = map[string]map[string]chunkRef{}
	}
	return &m, nil
}

// saveManifest atomically writes a branch manifest: temp file in the same
// directory, then rename.
func saveManifest(dir, branch string, m *manifest) error {
	m.Version = manifestVersion

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	path := branchPath(dir, branch)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return atomicWrite(path, data)
}

// readHead returns the branch name HEAD points at.
func readHead(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, headFileName))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeHead atomically repoints HEAD. HEAD always names a branch whose
// manifest file exists, since manifests are saved before HEAD moves.
func writeHead(dir, branch string) error {
	return atomicWrite(filepath.Join(dir, headFileName), []byte(branch))
}

func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
