package storage

import (
	"context"
	"sort"
	"strings"
)

// Backend is the four-operation capability every storage variant provides.
//
// A Backend presents a flat object store (or a real filesystem) as a
// hierarchical tree. All operations accept a context and block on network
// I/O; implementations must honor cancellation at every call boundary.
//
// Implementations must be safe for concurrent use: the fetcher may issue
// sibling downloads from multiple goroutines against a single Backend.
type Backend interface {
	// Exists reports whether an exact object exists at path, or a
	// pseudo-directory with that prefix exists. Object stores have no
	// unified existence predicate, so implementations try the object
	// lookup first and fall back to the directory check.
	Exists(ctx context.Context, path Path) (bool, error)

	// IsDirectory reports whether at least one object exists whose key
	// starts with path's key plus the separator. The bucket root (empty
	// key) is always a directory.
	IsDirectory(ctx context.Context, path Path) (bool, error)

	// ListPrefix returns the immediate children of the pseudo-directory at
	// path, split into subdirectory and file name sets. Fails with
	// ErrInvalidAccess when the underlying listing reports an error.
	ListPrefix(ctx context.Context, path Path) (*Listing, error)

	// ReadAll returns the full contents of the object at path. Fails with
	// ErrFileNotFound if the object does not exist and ErrFileInvalid if
	// the read stream cannot be opened or drained.
	ReadAll(ctx context.Context, path Path) ([]byte, error)
}

// Listing holds the immediate children of a pseudo-directory as two
// disjoint name sets. Names are relative to the queried path and carry no
// ordering guarantee; use SubdirectoryNames/FileNames for a deterministic
// (lexical) order.
type Listing struct {
	subdirectories map[string]struct{}
	files          map[string]struct{}
}

// NewListing returns an empty listing.
func NewListing() *Listing {
	return &Listing{
		subdirectories: make(map[string]struct{}),
		files:          make(map[string]struct{}),
	}
}

// AddSubdirectory records name as a subdirectory. If the name was
// previously classified as a file it is reclassified: an object key can
// share its name with a directory prefix, and the directory wins so the
// two sets stay disjoint.
func (l *Listing) AddSubdirectory(name string) {
	l.subdirectories[name] = struct{}{}
	delete(l.files, name)
}

// AddFile records name as a file unless it is already a subdirectory.
func (l *Listing) AddFile(name string) {
	if _, ok := l.subdirectories[name]; ok {
		return
	}
	l.files[name] = struct{}{}
}

// HasSubdirectory reports whether name is in the subdirectory set.
func (l *Listing) HasSubdirectory(name string) bool {
	_, ok := l.subdirectories[name]
	return ok
}

// HasFile reports whether name is in the file set.
func (l *Listing) HasFile(name string) bool {
	_, ok := l.files[name]
	return ok
}

// SubdirectoryNames returns the subdirectory set sorted lexically.
func (l *Listing) SubdirectoryNames() []string {
	return sortedNames(l.subdirectories)
}

// FileNames returns the file set sorted lexically.
func (l *Listing) FileNames() []string {
	return sortedNames(l.files)
}

// Len returns the total number of entries in the listing.
func (l *Listing) Len() int {
	return len(l.subdirectories) + len(l.files)
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildListing classifies flat object keys into a directory listing.
//
// prefix is the queried directory's key prefix (empty string for the bucket
// root, otherwise ending with the separator). For every key under the
// prefix the prefix is stripped; if a further separator remains, the first
// segment becomes a subdirectory name, otherwise the remainder is a file
// name. A key exactly equal to the prefix is the directory marker object
// and is skipped, so a listing never contains the queried directory itself.
//
// Remote backends share this emulation; the local backend uses native
// directory semantics instead.
func BuildListing(prefix string, keys []string) *Listing {
	listing := NewListing()
	for _, key := range keys {
		if key == prefix || !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if name, _, found := strings.Cut(rest, Separator); found {
			if name != "" {
				listing.AddSubdirectory(name)
			}
		} else if rest != "" {
			listing.AddFile(rest)
		}
	}
	return listing
}
