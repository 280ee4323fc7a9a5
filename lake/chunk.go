package lake

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/strataml/labelclean/pkg/errors"
)

// Chunks are immutable: a write always creates a new chunk under a fresh
// UUID, and manifests switch refs atomically. Stale chunks from overwritten
// groups are left behind; nothing references them.

var (
	chunkEncoder, _ = zstd.NewWriter(nil)
	chunkDecoder, _ = zstd.NewReader(nil)
)

// writeChunk persists v as a zstd-compressed JSON chunk and returns its id.
func writeChunk(dir string, v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	compressed := chunkEncoder.EncodeAll(raw, nil)

	id := uuid.NewString()
	path := filepath.Join(dir, chunksDir, id+".zst")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := atomicWrite(path, compressed); err != nil {
		return "", err
	}
	return id, nil
}

// readChunk loads the chunk with the given id into v.
func readChunk(dir, id string, v interface{}) error {
	compressed, err := os.ReadFile(filepath.Join(dir, chunksDir, id+".zst"))
	if err != nil {
		return err
	}
	raw, err := chunkDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return errors.Wrapf(err, "decompress chunk %s", id)
	}
	return json.Unmarshal(raw, v)
}
