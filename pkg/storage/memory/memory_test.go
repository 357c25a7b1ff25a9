package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/modelstage/modelstage/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func path(bucket, key string) storage.Path {
	return storage.Path{Scheme: storage.SchemeS3, Bucket: bucket, Key: key}
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	backend := New()
	backend.Put("models", "resnet/1/model.bin", []byte("weights"))

	exact, err := backend.Exists(ctx, path("models", "resnet/1/model.bin"))
	require.NoError(t, err)
	assert.True(t, exact, "exact object should exist")

	// No object at "resnet", but keys share the prefix: the directory
	// fallback makes it exist.
	dir, err := backend.Exists(ctx, path("models", "resnet"))
	require.NoError(t, err)
	assert.True(t, dir, "pseudo-directory should exist")

	missing, err := backend.Exists(ctx, path("models", "vgg"))
	require.NoError(t, err)
	assert.False(t, missing)
}

func TestIsDirectory(t *testing.T) {
	ctx := context.Background()
	backend := New()
	backend.Put("models", "resnet/1/model.bin", []byte("weights"))

	tests := []struct {
		name string
		path storage.Path
		want bool
	}{
		{"bucket root is always a directory", path("models", ""), true},
		{"prefix with objects below", path("models", "resnet"), true},
		{"nested prefix", path("models", "resnet/1"), true},
		{"leaf object is not a directory", path("models", "resnet/1/model.bin"), false},
		{"missing prefix", path("models", "nothing"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := backend.IsDirectory(ctx, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListPrefix(t *testing.T) {
	ctx := context.Background()
	backend := New()
	backend.Put("models", "resnet/", nil) // directory marker
	backend.Put("models", "resnet/model.bin", []byte("a"))
	backend.Put("models", "resnet/1/weights.bin", []byte("b"))
	backend.Put("models", "resnet/2/weights.bin", []byte("c"))

	listing, err := backend.ListPrefix(ctx, path("models", "resnet"))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"1", "2"}, listing.SubdirectoryNames())
	assert.Equal(t, []string{"model.bin"}, listing.FileNames())
}

func TestListPrefix_Failure(t *testing.T) {
	ctx := context.Background()
	backend := New()
	backend.Put("models", "resnet/model.bin", []byte("a"))
	backend.FailListings(errors.New("boom"))

	_, err := backend.ListPrefix(ctx, path("models", "resnet"))
	assert.ErrorIs(t, err, storage.ErrInvalidAccess)
}

func TestReadAll(t *testing.T) {
	ctx := context.Background()
	backend := New()
	backend.Put("models", "resnet/1/model.bin", []byte("weights"))

	data, err := backend.ReadAll(ctx, path("models", "resnet/1/model.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), data)

	// Returned slice is a copy; mutating it must not corrupt the store.
	data[0] = 'X'
	again, err := backend.ReadAll(ctx, path("models", "resnet/1/model.bin"))
	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), again)

	_, err = backend.ReadAll(ctx, path("models", "missing"))
	assert.ErrorIs(t, err, storage.ErrFileNotFound)
}

func TestContextCancellation(t *testing.T) {
	backend := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := backend.Exists(ctx, path("models", "x"))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = backend.ListPrefix(ctx, path("models", "x"))
	assert.ErrorIs(t, err, context.Canceled)
}
