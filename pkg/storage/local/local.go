// Package local implements the storage.Backend capability against a real
// filesystem. Directory operations map directly to native semantics; no
// prefix emulation is needed.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/modelstage/modelstage/pkg/storage"
)

// LocalBackend serves storage paths from the local filesystem. Paths carry
// the filesystem path in their Key and no bucket.
type LocalBackend struct{}

// New creates a local filesystem backend.
func New() *LocalBackend {
	return &LocalBackend{}
}

// Exists reports whether a file or directory exists at path.
func (b *LocalBackend) Exists(ctx context.Context, path storage.Path) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(path.Key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path.Key, storage.ErrInvalidAccess)
	}
	return true, nil
}

// IsDirectory reports whether path names an existing directory.
func (b *LocalBackend) IsDirectory(ctx context.Context, path storage.Path) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(path.Key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path.Key, storage.ErrInvalidAccess)
	}
	return info.IsDir(), nil
}

// ListPrefix lists the immediate children of the directory at path.
func (b *LocalBackend) ListPrefix(ctx context.Context, path storage.Path) (*storage.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path.Key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("directory %s: %w", path.Key, storage.ErrFileNotFound)
		}
		return nil, fmt.Errorf("read directory %s: %w", path.Key, storage.ErrInvalidAccess)
	}

	listing := storage.NewListing()
	for _, entry := range entries {
		if entry.IsDir() {
			listing.AddSubdirectory(entry.Name())
		} else {
			listing.AddFile(entry.Name())
		}
	}
	return listing, nil
}

// ReadAll returns the full contents of the file at path.
func (b *LocalBackend) ReadAll(ctx context.Context, path storage.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path.Key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file %s: %w", path.Key, storage.ErrFileNotFound)
		}
		return nil, fmt.Errorf("read file %s: %w", path.Key, storage.ErrFileInvalid)
	}
	return data, nil
}
