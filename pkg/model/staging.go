package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Staging owns a local directory tree used as the inference engine's load
// source. A staging area belongs exclusively to the fetch operation that
// created it until ownership transfers to the inference-load step; a tree
// that failed to populate fully is discarded, never handed over partially.
type Staging struct {
	root string
}

// NewStaging creates (or reuses) the staging root directory.
func NewStaging(root string) (*Staging, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve staging root %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging root %s: %w", abs, err)
	}
	return &Staging{root: abs}, nil
}

// Root returns the absolute staging root path.
func (s *Staging) Root() string {
	return s.root
}

// ModelDir returns the staging directory for one model.
func (s *Staging) ModelDir(name string) string {
	return filepath.Join(s.root, name)
}

// VersionDir returns the staging directory for one version of a model.
func (s *Staging) VersionDir(name string, version Version) string {
	return filepath.Join(s.root, name, version.String())
}

// Discard removes a path inside the staging root recursively. Removal is
// recursive on purpose: rolling back a failed fetch must not leave a
// residual partial subtree behind. Paths outside the staging root are
// refused.
func (s *Staging) Discard(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return fmt.Errorf("refusing to remove %s: outside staging root %s", abs, s.root)
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("failed to remove %s: %w", abs, err)
	}
	return nil
}
