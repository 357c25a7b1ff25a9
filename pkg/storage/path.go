package storage

import (
	"fmt"
	"strings"
)

// Separator is the key separator used to emulate directories in flat
// object stores. It is always "/" regardless of the host OS.
const Separator = "/"

// Schemes understood by ParsePath. The scheme of a model root URI selects
// the backend variant at construction time.
const (
	SchemeS3   = "s3"
	SchemeFile = "file"
)

// Path is the semantic (bucket, key) pair derived from a storage URI.
//
// For remote object stores the bucket is the container name and the key is
// the object key relative to the bucket root; an empty key denotes the
// bucket root. For local paths the bucket is empty and the key is the
// filesystem path. A Path is immutable once parsed: Join returns a new
// value instead of mutating the receiver.
type Path struct {
	// Scheme identifies the backend variant this path belongs to.
	Scheme string

	// Bucket is the container name. Non-empty for remote schemes.
	Bucket string

	// Key is the object key (or local filesystem path). May be empty,
	// denoting the bucket root. Never starts with the separator for
	// remote schemes.
	Key string
}

// ParsePath parses a storage URI into a Path.
//
// Accepted forms:
//
//	s3://bucket/some/key  -> {s3, "bucket", "some/key"}
//	s3://bucket           -> {s3, "bucket", ""}
//	file:///srv/models    -> {file, "", "/srv/models"}
//	/srv/models           -> {file, "", "/srv/models"}
//
// A remote URI with an empty bucket ("s3://") fails with ErrBucketNotFound.
// ParsePath is pure: it performs no I/O and never panics on malformed input.
func ParsePath(uri string) (Path, error) {
	switch {
	case strings.HasPrefix(uri, SchemeS3+"://"):
		return parseRemote(SchemeS3, strings.TrimPrefix(uri, SchemeS3+"://"))
	case strings.HasPrefix(uri, SchemeFile+"://"):
		return Path{Scheme: SchemeFile, Key: strings.TrimPrefix(uri, SchemeFile+"://")}, nil
	case strings.Contains(uri, "://"):
		scheme, _, _ := strings.Cut(uri, "://")
		return Path{}, fmt.Errorf("%q: %w", scheme, ErrUnsupportedScheme)
	default:
		// Bare paths are local.
		return Path{Scheme: SchemeFile, Key: uri}, nil
	}
}

// parseRemote splits the remainder of a remote URI (everything after the
// scheme prefix) at the first separator. Text before the separator is the
// bucket, text after it is the key. No separator means the whole remainder
// is the bucket and the key is empty.
func parseRemote(scheme, rest string) (Path, error) {
	bucket, key, _ := strings.Cut(rest, Separator)
	if bucket == "" {
		return Path{}, fmt.Errorf("%s://%s: %w", scheme, rest, ErrBucketNotFound)
	}
	return Path{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

// Join returns a new Path with elem appended as one more key segment.
func (p Path) Join(elem string) Path {
	joined := p
	if joined.Key == "" {
		joined.Key = elem
	} else {
		joined.Key = strings.TrimSuffix(joined.Key, Separator) + Separator + elem
	}
	return joined
}

// IsLocal reports whether the path refers to the local filesystem.
func (p Path) IsLocal() bool {
	return p.Scheme == SchemeFile || p.Scheme == ""
}

// String reconstructs the URI form of the path for log messages.
func (p Path) String() string {
	if p.IsLocal() {
		return p.Key
	}
	if p.Key == "" {
		return p.Scheme + "://" + p.Bucket
	}
	return p.Scheme + "://" + p.Bucket + Separator + p.Key
}

// DirPrefix returns the listing prefix for the path's key: the key with a
// trailing separator appended, or the empty prefix for the bucket root.
// Object stores have no real directories, so every directory operation is
// expressed as a scan over this prefix.
func (p Path) DirPrefix() string {
	if p.Key == "" {
		return ""
	}
	return strings.TrimSuffix(p.Key, Separator) + Separator
}
