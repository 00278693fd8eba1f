package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FileStore is a core.ArtifactStore writing files below a root directory.
// The empty namespace maps to the root itself.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Root returns the root directory.
func (f *FileStore) Root() string { return f.root }

func (f *FileStore) path(namespace, name string) string {
	return filepath.Join(f.root, namespace, name)
}

// Save writes data atomically and returns the file path.
func (f *FileStore) Save(namespace, name string, data []byte) (string, error) {
	if err := checkName(namespace, name); err != nil {
		return "", err
	}

	dir := filepath.Join(f.root, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close artifact: %w", err)
	}

	target := f.path(namespace, name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("commit artifact: %w", err)
	}
	return target, nil
}

// Get reads an artifact or returns ErrNotFound.
func (f *FileStore) Get(namespace, name string) ([]byte, error) {
	if err := checkName(namespace, name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(namespace, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// List returns the sorted names of regular files in the namespace.
func (f *FileStore) List(namespace string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, namespace))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && e.Name()[0] != '.' {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes an artifact or returns ErrNotFound.
func (f *FileStore) Delete(namespace, name string) error {
	if err := checkName(namespace, name); err != nil {
		return err
	}
	err := os.Remove(f.path(namespace, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
