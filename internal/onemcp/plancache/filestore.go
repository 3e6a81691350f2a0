package plancache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"onemcp/internal/onemcp/model"
)

// FileStore persists the plan cache as a single JSON document, written
// atomically via a temp file + rename in the target directory so a crash
// mid-write never leaves a truncated cache file behind.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Read loads the cache document, returning an empty document (not an error)
// when the file doesn't exist yet — a fresh deployment has no plan cache.
func (f *FileStore) Read() (model.CacheDocument, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return model.CacheDocument{Version: 1}, nil
	}
	if err != nil {
		return model.CacheDocument{}, fmt.Errorf("plancache: read %s: %w", f.path, err)
	}
	var doc model.CacheDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.CacheDocument{}, fmt.Errorf("plancache: decode %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileStore) Write(doc model.CacheDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("plancache: encode cache document: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, ".plancache-*.tmp")
	if err != nil {
		return fmt.Errorf("plancache: create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("plancache: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("plancache: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("plancache: rename into place: %w", err)
	}
	return nil
}
