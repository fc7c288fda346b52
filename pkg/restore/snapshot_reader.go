package restore

import (
	"context"
	"os"
	"strings"
)

// NullSnapshotReader always misses, causing Restore to fall back to the
// configured initial_kwh. Mirrors the teacher's NullMetrics "always-present,
// no-op" implementation of a narrow interface.
type NullSnapshotReader struct{}

// LastEnergyState always reports no prior state.
func (NullSnapshotReader) LastEnergyState(ctx context.Context) (string, bool) {
	return "", false
}

// FileSnapshotReader reads the last persisted Energy reading from a flat
// file, for standalone/dev operation outside a host runtime that provides
// its own entity-state store.
type FileSnapshotReader struct {
	Path string
}

// NewFileSnapshotReader returns a reader backed by the given file path.
func NewFileSnapshotReader(path string) *FileSnapshotReader {
	return &FileSnapshotReader{Path: path}
}

// LastEnergyState returns the trimmed file contents, or a miss if the file
// is absent or empty.
func (r *FileSnapshotReader) LastEnergyState(ctx context.Context) (string, bool) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", false
	}
	return value, true
}
