// Package memory implements an in-memory storage.Backend over a flat
// key space, emulating pseudo-directories exactly like a remote object
// store. It backs unit tests for the directory emulation, version
// resolution, and fetch logic without touching the network.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/modelstage/modelstage/pkg/storage"
)

// MemoryBackend stores objects as bucket -> key -> bytes.
//
// Listing semantics deliberately mirror an object store rather than a
// filesystem: directories only exist as shared key prefixes, and a
// directory marker object (a key ending in the separator) is permitted.
//
// Thread safety: all operations are guarded by a read-write mutex.
type MemoryBackend struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte

	// listErr, when set, makes every ListPrefix call fail. Used by tests
	// to exercise the ErrInvalidAccess propagation path.
	listErr error
}

// New creates an empty in-memory backend.
func New() *MemoryBackend {
	return &MemoryBackend{buckets: make(map[string]map[string][]byte)}
}

// Put stores an object, creating the bucket on first use.
func (b *MemoryBackend) Put(bucket, key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	objects, ok := b.buckets[bucket]
	if !ok {
		objects = make(map[string][]byte)
		b.buckets[bucket] = objects
	}
	objects[key] = append([]byte(nil), data...)
}

// Delete removes an object if present.
func (b *MemoryBackend) Delete(bucket, key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if objects, ok := b.buckets[bucket]; ok {
		delete(objects, key)
	}
}

// FailListings makes every subsequent ListPrefix call return err.
func (b *MemoryBackend) FailListings(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listErr = err
}

// Exists reports whether an exact object or a pseudo-directory exists at
// path, trying the object lookup first like the remote backends do.
func (b *MemoryBackend) Exists(ctx context.Context, path storage.Path) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	b.mu.RLock()
	_, found := b.buckets[path.Bucket][path.Key]
	b.mu.RUnlock()
	if found {
		return true, nil
	}

	return b.IsDirectory(ctx, path)
}

// IsDirectory reports whether any key starts with the path's directory
// prefix. The bucket root is always a directory.
func (b *MemoryBackend) IsDirectory(ctx context.Context, path storage.Path) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if path.Key == "" {
		return true, nil
	}

	prefix := path.DirPrefix()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for key := range b.buckets[path.Bucket] {
		if strings.HasPrefix(key, prefix) {
			return true, nil
		}
	}
	return false, nil
}

// ListPrefix classifies all keys under the path's prefix into a listing.
func (b *MemoryBackend) ListPrefix(ctx context.Context, path storage.Path) (*storage.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.listErr != nil {
		return nil, fmt.Errorf("list prefix %s: %w", path, storage.ErrInvalidAccess)
	}

	prefix := path.DirPrefix()
	var keys []string
	for key := range b.buckets[path.Bucket] {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return storage.BuildListing(prefix, keys), nil
}

// ReadAll returns a copy of the object's bytes.
func (b *MemoryBackend) ReadAll(ctx context.Context, path storage.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	data, found := b.buckets[path.Bucket][path.Key]
	b.mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("object %s: %w", path, storage.ErrFileNotFound)
	}
	return append([]byte(nil), data...), nil
}
