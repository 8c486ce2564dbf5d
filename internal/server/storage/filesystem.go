package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectStore defines the interface for image storage backends.
// This allows swapping the filesystem for S3-compatible object storage later.
type ObjectStore interface {
	Save(key string, data io.Reader) (int64, error)
	Path(key string) (string, error)
	Delete(key string) error
	EnsureDir() error
}

// NewKey generates a unique object key with the given file extension.
func NewKey(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return uuid.NewString() + ext
}

// FileSystemStore stores image objects on the local filesystem.
type FileSystemStore struct {
	basePath string
}

// NewFileSystemStore creates a new filesystem storage backend.
func NewFileSystemStore(basePath string) *FileSystemStore {
	return &FileSystemStore{basePath: basePath}
}

// EnsureDir creates the storage directory if it doesn't exist.
func (fs *FileSystemStore) EnsureDir() error {
	if err := os.MkdirAll(fs.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", fs.basePath, err)
	}
	return nil
}

// Save writes data from a reader to the file named by key.
// Returns the number of bytes written.
func (fs *FileSystemStore) Save(key string, data io.Reader) (int64, error) {
	filePath, err := fs.filePath(key)
	if err != nil {
		return 0, err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	n, err := io.Copy(file, data)
	if err != nil {
		// Clean up partial file on error
		os.Remove(filePath)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return n, nil
}

// Path returns the absolute path to a stored object.
// Returns an error if the object does not exist.
func (fs *FileSystemStore) Path(key string) (string, error) {
	filePath, err := fs.filePath(key)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("object not found for key %s", key)
		}
		return "", fmt.Errorf("failed to stat object: %w", err)
	}

	return filePath, nil
}

// Delete removes a stored object. Deleting a missing object is not an error.
func (fs *FileSystemStore) Delete(key string) error {
	filePath, err := fs.filePath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object %s: %w", filePath, err)
	}
	return nil
}

// filePath resolves a key under the base path, refusing keys that would
// escape it.
func (fs *FileSystemStore) filePath(key string) (string, error) {
	if key == "" || key != filepath.Base(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(fs.basePath, key), nil
}
