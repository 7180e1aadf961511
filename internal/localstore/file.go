package localstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

var _ Store = (*FileStore)(nil)

// FileStore persists values as files under a single directory, one file per
// key. Writes go through a temp file plus rename so a crash mid-write never
// leaves a truncated value behind.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed and returns a store over it.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create store dir %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Get returns the stored value for key, or ErrNotFound.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read %s", key)
	}
	return raw, nil
}

// Set writes the value for key atomically.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "write %s", key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "close %s", key)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "rename %s", key)
	}
	return nil
}

// Delete removes the value for key. Deleting an absent key is a no-op.
func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "delete %s", key)
	}
	return nil
}

func (s *FileStore) path(key string) string {
	// Keys are dotted identifiers; keep them filesystem-safe.
	name := strings.ReplaceAll(key, string(filepath.Separator), "_")
	return filepath.Join(s.dir, name+".json")
}
