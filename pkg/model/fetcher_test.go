package model

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelstage/modelstage/pkg/storage"
	"github.com/modelstage/modelstage/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var acceptedExtensions = []string{".bin", ".xml", ".onnx"}

func newTestFetcher(backend storage.Backend) *Fetcher {
	return NewFetcher(backend, FetcherConfig{AcceptedExtensions: acceptedExtensions})
}

func remotePath(key string) storage.Path {
	return storage.Path{Scheme: storage.SchemeS3, Bucket: "models", Key: key}
}

func TestFetchTree(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	backend.Put("models", "resnet/1/model.bin", []byte("weights"))
	backend.Put("models", "resnet/1/model.xml", []byte("<net/>"))
	backend.Put("models", "resnet/1/README", []byte("not a model file"))
	backend.Put("models", "resnet/1/assets/labels.bin", []byte("labels"))

	local := t.TempDir()
	require.NoError(t, newTestFetcher(backend).FetchTree(ctx, remotePath("resnet/1"), local))

	// Accepted files are byte-identical copies.
	data, err := os.ReadFile(filepath.Join(local, "model.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), data)

	data, err = os.ReadFile(filepath.Join(local, "assets", "labels.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("labels"), data)

	// Filtered files are not staged.
	_, err = os.Stat(filepath.Join(local, "README"))
	assert.True(t, os.IsNotExist(err), "filtered file must not be staged")
}

func TestFetchTree_EmptySubdirectoryIsCreated(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	// "assets" contains only a filtered file: the local directory still
	// gets created, it just stays empty.
	backend.Put("models", "resnet/1/model.bin", []byte("weights"))
	backend.Put("models", "resnet/1/assets/notes.txt", []byte("doc"))

	local := t.TempDir()
	require.NoError(t, newTestFetcher(backend).FetchTree(ctx, remotePath("resnet/1"), local))

	info, err := os.Stat(filepath.Join(local, "assets"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(filepath.Join(local, "assets"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchTree_NotADirectory(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	backend.Put("models", "resnet/1/model.bin", []byte("weights"))

	fetcher := newTestFetcher(backend)

	err := fetcher.FetchTree(ctx, remotePath("resnet/1/model.bin"), t.TempDir())
	assert.ErrorIs(t, err, storage.ErrFileNotFound, "a leaf object has no directory semantics")

	err = fetcher.FetchTree(ctx, remotePath("missing"), t.TempDir())
	assert.ErrorIs(t, err, storage.ErrFileNotFound)
}

func TestFetchTree_Idempotent(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	backend.Put("models", "resnet/1/model.bin", []byte("weights"))
	backend.Put("models", "resnet/1/sub/part.bin", []byte("part"))

	local := t.TempDir()
	fetcher := newTestFetcher(backend)
	require.NoError(t, fetcher.FetchTree(ctx, remotePath("resnet/1"), local))
	require.NoError(t, fetcher.FetchTree(ctx, remotePath("resnet/1"), local))

	data, err := os.ReadFile(filepath.Join(local, "model.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), data, "re-download overwrites identically")
}

func TestFetchTree_MaxDepth(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	backend.Put("models", "resnet/1/a/b/c/model.bin", []byte("deep"))

	fetcher := NewFetcher(backend, FetcherConfig{
		AcceptedExtensions: acceptedExtensions,
		MaxDepth:           2,
	})

	err := fetcher.FetchTree(ctx, remotePath("resnet/1"), t.TempDir())
	assert.ErrorIs(t, err, ErrMaxDepthExceeded)
}

func TestFetchTree_ConcurrentDownloads(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	files := []string{"a.bin", "b.bin", "c.bin", "d.bin", "e.bin", "f.bin"}
	for _, name := range files {
		backend.Put("models", "resnet/1/"+name, []byte(name))
	}

	local := t.TempDir()
	fetcher := NewFetcher(backend, FetcherConfig{
		AcceptedExtensions: acceptedExtensions,
		Concurrency:        3,
	})
	require.NoError(t, fetcher.FetchTree(ctx, remotePath("resnet/1"), local))

	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(local, name))
		require.NoError(t, err)
		assert.Equal(t, []byte(name), data)
	}
}

func TestFetchVersions(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	backend.Put("models", "resnet/1/model.bin", []byte("v1"))
	backend.Put("models", "resnet/2/model.bin", []byte("v2"))

	localRoot := filepath.Join(t.TempDir(), "resnet")
	err := newTestFetcher(backend).FetchVersions(ctx, remotePath("resnet"), localRoot, []Version{1, 2})
	require.NoError(t, err)

	for _, v := range []string{"1", "2"} {
		data, err := os.ReadFile(filepath.Join(localRoot, v, "model.bin"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v"+v), data)
	}
}

func TestFetchVersions_IndependentFailures(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	backend.Put("models", "resnet/1/model.bin", []byte("v1"))
	// Version 2 does not exist remotely.
	backend.Put("models", "resnet/3/model.bin", []byte("v3"))

	localRoot := filepath.Join(t.TempDir(), "resnet")
	err := newTestFetcher(backend).FetchVersions(ctx, remotePath("resnet"), localRoot, []Version{1, 2, 3})
	require.Error(t, err)

	// The aggregate identifies exactly the failed version.
	var versionsErr *FetchVersionsError
	require.True(t, errors.As(err, &versionsErr))
	assert.Equal(t, []Version{2}, versionsErr.FailedVersions())
	assert.ErrorIs(t, err, storage.ErrFileNotFound)

	// Versions 1 and 3 are fully materialized despite version 2 failing.
	for _, v := range []string{"1", "3"} {
		data, readErr := os.ReadFile(filepath.Join(localRoot, v, "model.bin"))
		require.NoError(t, readErr)
		assert.Equal(t, []byte("v"+v), data)
	}

	// The failed version's staging directory is discarded, not left
	// half-written.
	_, statErr := os.Stat(filepath.Join(localRoot, "2"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchVersions_StagingRootFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	backend.Put("models", "resnet/1/model.bin", []byte("v1"))

	// A file where the staging root should go makes MkdirAll fail.
	parent := t.TempDir()
	blocked := filepath.Join(parent, "root")
	require.NoError(t, os.WriteFile(blocked, []byte("in the way"), 0644))

	err := newTestFetcher(backend).FetchVersions(ctx, remotePath("resnet"), blocked, []Version{1})
	require.Error(t, err)

	var versionsErr *FetchVersionsError
	assert.False(t, errors.As(err, &versionsErr), "staging root failure aborts before any version is attempted")
}

func TestFetchTree_Cancellation(t *testing.T) {
	backend := memory.New()
	backend.Put("models", "resnet/1/model.bin", []byte("v1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestFetcher(backend).FetchTree(ctx, remotePath("resnet/1"), t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
