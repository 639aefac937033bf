// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"fmt"

	"github.com/strata-foundation/strata/lib/pkgref"
)

// UnsupportedVersionError reports a manifest written by a newer (or
// corrupted) engine. No operation touches a manifest it cannot
// faithfully rewrite.
type UnsupportedVersionError struct {
	Path    string
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("manifest %s has unsupported version %d (expected %d)",
		e.Path, e.Version, manifestVersion)
}

// InvalidPatternError reports a matcher token that is neither a
// position nor a store path and does not compile as a pattern.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid element pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// UnsupportedInstallableError reports an install argument that cannot
// be turned into a package reference plus attribute path.
type UnsupportedInstallableError struct {
	Installable string
	Err         error
}

func (e *UnsupportedInstallableError) Error() string {
	return fmt.Sprintf("cannot install %q: %v", e.Installable, e.Err)
}

func (e *UnsupportedInstallableError) Unwrap() error { return e.Err }

// ResolutionError reports a package reference the resolver could not
// turn into a buildable derivation.
type ResolutionError struct {
	Ref      pkgref.Ref
	AttrPath string
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.AttrPath == "" {
		return fmt.Sprintf("resolving %s: %v", e.Ref, e.Err)
	}
	return fmt.Sprintf("resolving %s#%s: %v", e.Ref, e.AttrPath, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
