// Package filestore persists state blobs as one JSON file per key.
package filestore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/storage"
)

const defaultDir = ".formbuilder"

// Store writes <dir>/<key>.json.
type Store struct {
	dir string
}

var _ storage.Persister = (*Store)(nil)

// New returns a file store rooted at dir. An empty dir falls back to
// ".formbuilder" in the working directory.
func New(dir string) *Store {
	if strings.TrimSpace(dir) == "" {
		dir = defaultDir
	}
	return &Store{dir: dir}
}

// Dir returns the directory blobs are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file the blob for key lives in.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

// Load reads the blob stored under key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.Path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, &storage.OpError{Op: "filestore.read", Key: key, Path: path, Err: err}
	}
	return data, nil
}

// Save writes data under key through a temporary file and a rename.
func (s *Store) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &storage.OpError{Op: "filestore.mkdir", Key: key, Path: s.dir, Err: err}
	}

	path := s.Path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return &storage.OpError{Op: "filestore.write", Key: key, Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &storage.OpError{Op: "filestore.rename", Key: key, Path: path, Err: err}
	}
	return nil
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return storage.DefaultKey
	}
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return storage.DefaultKey
	}
	return out
}
