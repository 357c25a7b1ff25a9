// Package model resolves model versions on top of a storage backend and
// materializes version trees into a local staging area.
//
// A model repository is laid out as
//
//	<root>/<version>/<model files...>
//
// where every integer-named top-level subdirectory of the model root is a
// version. Non-numeric names (metadata folders, sidecar directories) are
// not versions and are skipped during resolution.
package model

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/modelstage/modelstage/internal/logger"
	"github.com/modelstage/modelstage/pkg/storage"
)

// Version is a non-negative integer model version identifier, derived from
// interpreting a pseudo-directory name as an integer.
type Version int64

func (v Version) String() string {
	return strconv.FormatInt(int64(v), 10)
}

// ParseVersion interprets a directory name as a version. Names that do not
// parse as a non-negative base-10 integer are not versions.
func ParseVersion(name string) (Version, bool) {
	n, err := strconv.ParseInt(name, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return Version(n), true
}

// ListVersions enumerates the versions available under a model root.
//
// The root's subdirectories are listed through the backend and each name is
// parsed as an integer. Names that fail to parse are skipped with a debug
// log; this is a deliberate, named filter so auxiliary folders never turn
// into versions. Two names resolving to the same number (leading zeros)
// fail with ErrDuplicateVersion instead of silently merging.
//
// Versions are computed fresh on every call and never cached, so storage
// mutations are observed on the next lookup. The result is sorted
// ascending.
func ListVersions(ctx context.Context, backend storage.Backend, root storage.Path) ([]Version, error) {
	listing, err := backend.ListPrefix(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("list model root %s: %w", root, err)
	}

	seen := make(map[Version]string)
	var versions []Version
	for _, name := range listing.SubdirectoryNames() {
		version, ok := ParseVersion(name)
		if !ok {
			logger.Debug("Version resolver: skipping non-numeric directory %q under %s", name, root)
			continue
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("%w: directories %q and %q under %s both resolve to version %d",
				ErrDuplicateVersion, prev, name, root, version)
		}
		seen[version] = name
		versions = append(versions, version)
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	logger.Debug("Version resolver: %s has %d version(s)", root, len(versions))
	return versions, nil
}
