package storage

import "errors"

// Standard storage backend errors.
//
// These errors provide a consistent way to indicate common failure conditions
// across all backend implementations. Callers should check for them with
// errors.Is and must never see a backend-specific error type cross the
// package boundary unwrapped.
//
// Implementations wrap these errors with additional context:
//
//	if !found {
//	    return nil, fmt.Errorf("object %s: %w", path, storage.ErrFileNotFound)
//	}
var (
	// ErrBucketNotFound indicates a parsed storage URI carried an empty or
	// missing bucket component. Returned by ParsePath only; a well-formed
	// Path can never trigger it later.
	ErrBucketNotFound = errors.New("bucket not found in path")

	// ErrFileNotFound indicates the requested object does not exist, or a
	// path expected to be a directory has no objects under it.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileInvalid indicates the object exists but its contents could not
	// be read (stream open failure, truncated read, local permission error).
	ErrFileInvalid = errors.New("file invalid")

	// ErrInvalidAccess indicates the backend rejected a listing or read at
	// the transport level: permissions, throttling, or a transient fault
	// surfaced by the object store. Retrying may succeed.
	ErrInvalidAccess = errors.New("invalid access")

	// ErrUnsupportedScheme indicates a storage URI whose scheme no
	// configured backend can serve.
	ErrUnsupportedScheme = errors.New("unsupported storage scheme")
)
