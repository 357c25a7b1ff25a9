package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateVersion indicates two subdirectory names resolved to the
	// same numeric version (e.g. "01" and "1"). This is a repository
	// configuration error; versions are never silently merged.
	ErrDuplicateVersion = errors.New("duplicate model version")

	// ErrMaxDepthExceeded indicates a tree fetch recursed past the
	// configured depth cap. Object-store keys are flat strings so a real
	// cycle cannot occur, but the cap guards against misconfiguration.
	ErrMaxDepthExceeded = errors.New("max recursion depth exceeded")
)

// VersionError records the failure of a single version's tree fetch.
type VersionError struct {
	Version Version
	Err     error
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("version %d: %v", e.Version, e.Err)
}

func (e *VersionError) Unwrap() error {
	return e.Err
}

// FetchVersionsError aggregates the failures of a multi-version fetch.
//
// Version-level failures are independent: a failed version never prevents
// the remaining versions from being attempted, so the aggregate carries the
// full fan-out of failures rather than only the last one.
type FetchVersionsError struct {
	Failures []*VersionError
}

func (e *FetchVersionsError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("failed to fetch %d version(s): %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes each version failure to errors.Is/errors.As.
func (e *FetchVersionsError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// FailedVersions returns the versions that could not be fetched.
func (e *FetchVersionsError) FailedVersions() []Version {
	versions := make([]Version, len(e.Failures))
	for i, f := range e.Failures {
		versions[i] = f.Version
	}
	return versions
}
