// Package s3 implements the storage.Backend capability against Amazon S3
// or any S3-compatible object store (MinIO, Localstack, Cubbit DS3, etc.).
//
// S3 has no real directories. Directory semantics are emulated with the
// trailing-separator prefix convention implemented by storage.BuildListing:
// a "directory" exists iff at least one object key starts with its prefix.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/modelstage/modelstage/internal/logger"
	"github.com/modelstage/modelstage/pkg/storage"
)

// S3Backend implements storage.Backend using an aws-sdk-go-v2 S3 client.
//
// The client (and with it the credential source) is fixed at construction
// time and read-only for the backend's lifetime; there is no runtime
// credential rotation. The backend is stateless apart from the client and
// safe for concurrent use.
type S3Backend struct {
	client *s3.Client
}

// New creates an S3 backend from a configured client.
func New(client *s3.Client) *S3Backend {
	return &S3Backend{client: client}
}

// Exists reports whether an object or pseudo-directory exists at path.
//
// It tries an exact object lookup (HeadObject) first and falls back to the
// directory check, because S3 has no single existence predicate covering
// both cases.
func (b *S3Backend) Exists(ctx context.Context, path storage.Path) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(path.Bucket),
		Key:    aws.String(path.Key),
	})
	if err == nil {
		return true, nil
	}
	if !isNotFound(err) {
		return false, fmt.Errorf("head object %s: %w", path, storage.ErrInvalidAccess)
	}

	return b.IsDirectory(ctx, path)
}

// IsDirectory reports whether path names a pseudo-directory: at least one
// object key starts with the path's key plus the separator. The bucket
// root (empty key) is always a directory.
func (b *S3Backend) IsDirectory(ctx context.Context, path storage.Path) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if path.Key == "" {
		return true, nil
	}

	out, err := b.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(path.Bucket),
		Prefix:  aws.String(path.DirPrefix()),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("list prefix %s: %w", path, storage.ErrInvalidAccess)
	}

	return len(out.Contents) > 0, nil
}

// ListPrefix lists the immediate children of the pseudo-directory at path.
//
// All object keys under the prefix are collected through the paginator and
// classified by storage.BuildListing: first segments of deeper keys become
// subdirectory names, remaining keys become file names, and the directory
// marker object (key equal to the prefix) is skipped.
func (b *S3Backend) ListPrefix(ctx context.Context, path storage.Path) (*storage.Listing, error) {
	prefix := path.DirPrefix()

	var keys []string
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(path.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logger.Warn("S3: listing %s failed: %v", path, err)
			return nil, fmt.Errorf("list prefix %s: %w", path, storage.ErrInvalidAccess)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			keys = append(keys, *obj.Key)
		}
	}

	listing := storage.BuildListing(prefix, keys)
	logger.Debug("S3: listed %s: %d entries", path, listing.Len())
	return listing, nil
}

// ReadAll downloads the object at path in full.
//
// A missing object fails with ErrFileNotFound; a stream that cannot be
// opened or drained fails with ErrFileInvalid.
func (b *S3Backend) ReadAll(ctx context.Context, path storage.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(path.Bucket),
		Key:    aws.String(path.Key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("object %s: %w", path, storage.ErrFileNotFound)
		}
		return nil, fmt.Errorf("get object %s: %w", path, storage.ErrFileInvalid)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", path, storage.ErrFileInvalid)
	}

	logger.Debug("S3: downloaded %s (%d bytes)", path, len(data))
	return data, nil
}

// isNotFound matches the two shapes the SDK uses for a missing object:
// *types.NoSuchKey from GetObject and *types.NotFound from HeadObject.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
