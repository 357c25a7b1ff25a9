package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/modelstage/modelstage/internal/logger"
	"github.com/modelstage/modelstage/internal/throttle"
	"github.com/modelstage/modelstage/pkg/storage"
)

// DefaultMaxDepth caps tree recursion. Object-store keys are flat strings
// so a genuine cycle is impossible, but a misconfigured repository with
// pathologically deep prefixes should fail instead of grinding.
const DefaultMaxDepth = 32

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// AcceptedExtensions is the allow-list of file-name suffixes that get
	// staged. Files not matching any suffix are skipped, so sidecar
	// artifacts in a model directory never reach the inference engine.
	// An empty list accepts every file.
	AcceptedExtensions []string

	// MaxDepth caps recursion depth. Defaults to DefaultMaxDepth.
	MaxDepth int

	// Concurrency bounds parallel sibling file downloads within one
	// directory. Values <= 1 keep the fetch fully sequential. Subdirectory
	// recursion is always depth-first and sequential; only leaf downloads
	// fan out.
	Concurrency int

	// Metrics receives fetch observations. Nil disables metrics.
	Metrics FetchMetrics

	// Throttle bounds the rate of listing and download requests against
	// the backend. Nil means unlimited.
	Throttle *throttle.Throttle
}

// Fetcher recursively materializes remote directory trees into local
// directories through a storage backend.
//
// Failure policy is two-tier and must stay that way:
//   - within a single tree the first error aborts the whole tree
//     (fail-fast, no best-effort partial completion);
//   - across requested versions each failure is recorded and the next
//     version is still attempted (best-effort-continue).
type Fetcher struct {
	backend storage.Backend
	cfg     FetcherConfig
}

// NewFetcher creates a fetcher over the given backend.
func NewFetcher(backend storage.Backend, cfg FetcherConfig) *Fetcher {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.Throttle == nil {
		cfg.Throttle = throttle.New(0, 0)
	}
	return &Fetcher{backend: backend, cfg: cfg}
}

// FetchVersions materializes the requested versions of a model under
// localRoot, one directory per version number, mirroring the remote
// structure for accepted files only.
//
// The local root is created first; if that fails the whole call aborts,
// since nothing can be staged without it. Each version is then fetched
// independently: a failed version's partial staging directory is discarded
// and the failure recorded, but the remaining versions are still attempted.
// If any version failed the aggregate *FetchVersionsError is returned.
func (f *Fetcher) FetchVersions(ctx context.Context, remoteRoot storage.Path, localRoot string, versions []Version) error {
	if err := os.MkdirAll(localRoot, 0755); err != nil {
		return fmt.Errorf("failed to create staging root %s: %w", localRoot, err)
	}

	var failures []*VersionError
	for _, version := range versions {
		remoteDir := remoteRoot.Join(version.String())
		localDir := filepath.Join(localRoot, version.String())

		start := time.Now()
		err := f.fetchVersion(ctx, remoteDir, localDir)
		f.cfg.Metrics.TreeFetched(time.Since(start), err == nil)

		if err != nil {
			logger.Error("Fetch: version %s of %s failed: %v", version, remoteRoot, err)
			failures = append(failures, &VersionError{Version: version, Err: err})
			continue
		}
		logger.Info("Fetch: staged version %s of %s at %s", version, remoteRoot, localDir)
	}

	if len(failures) > 0 {
		return &FetchVersionsError{Failures: failures}
	}
	return nil
}

// fetchVersion stages a single version tree, discarding the local
// directory again if the tree fetch fails. No partial tree is ever left
// behind for a failed version.
func (f *Fetcher) fetchVersion(ctx context.Context, remoteDir storage.Path, localDir string) error {
	if err := os.MkdirAll(localDir, 0755); err != nil {
		return fmt.Errorf("failed to create version directory %s: %w", localDir, err)
	}

	if err := f.FetchTree(ctx, remoteDir, localDir); err != nil {
		if rmErr := os.RemoveAll(localDir); rmErr != nil {
			logger.Warn("Fetch: failed to discard partial staging directory %s: %v", localDir, rmErr)
		}
		return err
	}
	return nil
}

// FetchTree recursively downloads the remote directory tree at remoteDir
// into localDir.
//
// The remote path must be an existing pseudo-directory; fetching a single
// file with directory semantics fails with ErrFileNotFound. Listing results
// are re-checked with IsDirectory before use, guarding against a key that
// shares a prefix with a directory being misclassified. Local directories
// are created idempotently. The first error at any level aborts the whole
// tree.
func (f *Fetcher) FetchTree(ctx context.Context, remoteDir storage.Path, localDir string) error {
	return f.fetchTree(ctx, remoteDir, localDir, 0)
}

func (f *Fetcher) fetchTree(ctx context.Context, remoteDir storage.Path, localDir string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth >= f.cfg.MaxDepth {
		return fmt.Errorf("%s at depth %d: %w", remoteDir, depth, ErrMaxDepthExceeded)
	}

	isDir, err := f.backend.IsDirectory(ctx, remoteDir)
	if err != nil {
		return fmt.Errorf("check directory %s: %w", remoteDir, err)
	}
	if !isDir {
		return fmt.Errorf("not a directory: %s: %w", remoteDir, storage.ErrFileNotFound)
	}

	if err := f.cfg.Throttle.Wait(ctx); err != nil {
		return err
	}
	listing, err := f.backend.ListPrefix(ctx, remoteDir)
	if err != nil {
		return err
	}

	subdirs, files, err := f.classify(ctx, remoteDir, listing)
	if err != nil {
		return err
	}

	// Depth-first over subdirectories, fail fast.
	for _, name := range subdirs {
		childLocal := filepath.Join(localDir, name)
		if err := os.MkdirAll(childLocal, 0755); err != nil {
			return fmt.Errorf("failed to create local directory %s: %w", childLocal, err)
		}
		if err := f.fetchTree(ctx, remoteDir.Join(name), childLocal, depth+1); err != nil {
			return err
		}
	}

	return f.downloadFiles(ctx, remoteDir, localDir, files)
}

// classify re-checks every listed name with IsDirectory. A flat listing can
// misclassify a leaf object that shares a prefix with a directory, so the
// subdirectory set keeps only names that really are directories and the
// file set only names that are not.
func (f *Fetcher) classify(ctx context.Context, remoteDir storage.Path, listing *storage.Listing) (subdirs, files []string, err error) {
	for _, name := range listing.SubdirectoryNames() {
		isDir, err := f.backend.IsDirectory(ctx, remoteDir.Join(name))
		if err != nil {
			return nil, nil, fmt.Errorf("check directory %s: %w", remoteDir.Join(name), err)
		}
		if isDir {
			subdirs = append(subdirs, name)
		}
	}
	for _, name := range listing.FileNames() {
		isDir, err := f.backend.IsDirectory(ctx, remoteDir.Join(name))
		if err != nil {
			return nil, nil, fmt.Errorf("check directory %s: %w", remoteDir.Join(name), err)
		}
		if !isDir {
			files = append(files, name)
		}
	}
	return subdirs, files, nil
}

// downloadFiles stages every accepted file of one directory. With
// Concurrency > 1 sibling downloads run in a bounded worker pool; the first
// error is captured atomically and cancels the in-flight siblings, keeping
// the tree-level fail-fast policy intact under concurrency.
func (f *Fetcher) downloadFiles(ctx context.Context, remoteDir storage.Path, localDir string, files []string) error {
	accepted := files[:0:0]
	for _, name := range files {
		if !f.accepts(name) {
			logger.Debug("Fetch: skipping %s (extension not accepted)", remoteDir.Join(name))
			f.cfg.Metrics.FileSkipped()
			continue
		}
		accepted = append(accepted, name)
	}

	if f.cfg.Concurrency <= 1 {
		for _, name := range accepted {
			if err := f.downloadFile(ctx, remoteDir.Join(name), filepath.Join(localDir, name)); err != nil {
				return err
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	sem := make(chan struct{}, f.cfg.Concurrency)

	for _, name := range accepted {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			if err := f.downloadFile(ctx, remoteDir.Join(name), filepath.Join(localDir, name)); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
			}
		}(name)
	}
	wg.Wait()

	return firstErr
}

// downloadFile copies one remote object byte-for-byte to a local file,
// overwriting any previous copy so repeated fetches stay idempotent.
func (f *Fetcher) downloadFile(ctx context.Context, remote storage.Path, localPath string) error {
	if err := f.cfg.Throttle.Wait(ctx); err != nil {
		return err
	}
	data, err := f.backend.ReadAll(ctx, remote)
	if err != nil {
		return err
	}
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", localPath, err)
	}
	f.cfg.Metrics.FileDownloaded(len(data))
	logger.Debug("Fetch: %s -> %s (%d bytes)", remote, localPath, len(data))
	return nil
}

// accepts applies the extension allow-list to a file name.
func (f *Fetcher) accepts(name string) bool {
	if name == "" {
		return false
	}
	if len(f.cfg.AcceptedExtensions) == 0 {
		return true
	}
	for _, ext := range f.cfg.AcceptedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
