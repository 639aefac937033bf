// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package pkgref parses and validates package references: the locators
// users hand to install operations and the pinned locators recorded in
// profile manifests.
//
// A reference has one of four schemes:
//
//	corelibs                         indirect (registry alias)
//	git:https://example.com/pkgs.git git remote
//	path:/home/user/pkgs             local directory
//	tarball:https://example.com/p.tar.gz
//
// Indirect references are bare identifiers resolved through the alias
// registry. Git and tarball references carry a location URL. Path
// references name a local directory and are canonicalized on parse.
//
// References accept query-style pins: "ref" names a branch or tag,
// "rev" pins an exact revision (a git commit hash, or a content digest
// for tarballs and indirect refs). A reference with a rev pin is
// immutable: re-resolving it can never produce anything newer, so
// upgrade operations skip it.
//
// Ref is an immutable value type. Construct one with Parse; the zero
// value is invalid and reports IsZero.
package pkgref

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Scheme identifies how a reference's location is interpreted.
type Scheme string

const (
	SchemeIndirect Scheme = "indirect"
	SchemeGit      Scheme = "git"
	SchemePath     Scheme = "path"
	SchemeTarball  Scheme = "tarball"
)

// Ref is a validated package reference. The zero value is invalid.
type Ref struct {
	scheme   Scheme
	location string // alias, URL, or cleaned filesystem path
	refName  string // branch or tag, "" when unpinned
	rev      string // revision pin (lowercase hex), "" when unpinned
}

// Parse parses a package reference in canonical or shorthand form.
// Shorthands: a bare identifier is an indirect reference, and a token
// starting with "/", "./", or "../" is a path reference. Fragments
// ("#attr.path") are not part of a reference; use ParseInstallable for
// tokens that may carry one.
func Parse(s string) (Ref, error) {
	if s == "" {
		return Ref{}, fmt.Errorf("invalid package ref: empty string")
	}
	if strings.Contains(s, "#") {
		return Ref{}, fmt.Errorf("invalid package ref %q: unexpected fragment", s)
	}

	base, rawQuery, _ := strings.Cut(s, "?")
	refName, rev, err := parseQuery(rawQuery)
	if err != nil {
		return Ref{}, fmt.Errorf("invalid package ref %q: %w", s, err)
	}

	scheme, location, err := splitScheme(base)
	if err != nil {
		return Ref{}, fmt.Errorf("invalid package ref %q: %w", s, err)
	}

	r := Ref{scheme: scheme, location: location, refName: refName, rev: rev}
	if err := r.validate(); err != nil {
		return Ref{}, fmt.Errorf("invalid package ref %q: %w", s, err)
	}
	return r, nil
}

// ParseInstallable parses a token of the form "ref" or "ref#attr.path"
// into a reference and an attribute path. An absent fragment yields an
// empty attribute path, which resolvers treat as "the default package".
func ParseInstallable(s string) (Ref, string, error) {
	refText, attrPath, _ := strings.Cut(s, "#")
	r, err := Parse(refText)
	if err != nil {
		return Ref{}, "", err
	}
	return r, attrPath, nil
}

// splitScheme classifies the pre-query portion of a reference.
func splitScheme(base string) (Scheme, string, error) {
	if schemeText, rest, found := strings.Cut(base, ":"); found {
		switch Scheme(schemeText) {
		case SchemeIndirect, SchemeGit, SchemePath, SchemeTarball:
			return Scheme(schemeText), rest, nil
		}
		return "", "", fmt.Errorf("unsupported scheme %q", schemeText)
	}
	if strings.HasPrefix(base, "/") || strings.HasPrefix(base, "./") || strings.HasPrefix(base, "../") || base == "." || base == ".." {
		return SchemePath, base, nil
	}
	if isAlias(base) {
		return SchemeIndirect, base, nil
	}
	return "", "", fmt.Errorf("%q is neither a scheme-prefixed ref, a path, nor a registry alias", base)
}

func parseQuery(rawQuery string) (refName, rev string, err error) {
	if rawQuery == "" {
		return "", "", nil
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", "", fmt.Errorf("malformed query: %w", err)
	}
	for key, vals := range values {
		if len(vals) != 1 {
			return "", "", fmt.Errorf("query parameter %q given %d times", key, len(vals))
		}
		switch key {
		case "ref":
			refName = vals[0]
		case "rev":
			rev = vals[0]
		default:
			return "", "", fmt.Errorf("unknown query parameter %q", key)
		}
	}
	return refName, rev, nil
}

func (r *Ref) validate() error {
	switch r.scheme {
	case SchemeIndirect:
		if !isAlias(r.location) {
			return fmt.Errorf("alias %q must match [A-Za-z][A-Za-z0-9_-]*", r.location)
		}
	case SchemeGit, SchemeTarball:
		if !strings.Contains(r.location, "://") {
			return fmt.Errorf("%s location %q is not a URL", r.scheme, r.location)
		}
		if r.scheme == SchemeTarball && r.refName != "" {
			return fmt.Errorf("tarball refs do not take a ref parameter")
		}
	case SchemePath:
		if r.location == "" {
			return fmt.Errorf("empty path")
		}
		if r.refName != "" || r.rev != "" {
			return fmt.Errorf("path refs do not take ref or rev parameters")
		}
		r.location = filepath.Clean(r.location)
	default:
		return fmt.Errorf("unsupported scheme %q", r.scheme)
	}
	if r.refName != "" {
		if err := checkRefName(r.refName); err != nil {
			return err
		}
	}
	if r.rev != "" {
		if err := checkRev(r.rev); err != nil {
			return err
		}
	}
	return nil
}

// Scheme returns the reference's scheme.
func (r Ref) Scheme() Scheme { return r.scheme }

// Location returns the alias, URL, or filesystem path.
func (r Ref) Location() string { return r.location }

// RefName returns the branch or tag pin, or "" when unpinned.
func (r Ref) RefName() string { return r.refName }

// Rev returns the revision pin, or "" when unpinned.
func (r Ref) Rev() string { return r.rev }

// IsZero reports whether this is an uninitialized zero-value Ref.
func (r Ref) IsZero() bool { return r.scheme == "" }

// WithPins returns a copy of r with the ref and rev pins replaced by
// any non-empty arguments. Registry expansion uses this to let pins on
// an indirect reference override those of the alias target.
func (r Ref) WithPins(refName, rev string) (Ref, error) {
	out := r
	if refName != "" {
		out.refName = refName
	}
	if rev != "" {
		out.rev = rev
	}
	if err := out.validate(); err != nil {
		return Ref{}, fmt.Errorf("invalid package ref %q: %w", out.String(), err)
	}
	return out, nil
}

// Immutable reports whether the reference is pinned to an exact
// revision. Immutable references resolve to the same artifact forever,
// so there is nothing for an upgrade to re-resolve. Path references
// are never immutable: the directory behind them can change.
func (r Ref) Immutable() bool {
	return r.rev != ""
}

// String returns the canonical textual form. Indirect references print
// as a bare alias; all other schemes carry their prefix. Pins are
// appended in fixed ref-then-rev order so equal references always
// print identically.
func (r Ref) String() string {
	var b strings.Builder
	switch r.scheme {
	case SchemeIndirect:
		b.WriteString(r.location)
	default:
		b.WriteString(string(r.scheme))
		b.WriteString(":")
		b.WriteString(r.location)
	}
	sep := byte('?')
	if r.refName != "" {
		b.WriteByte(sep)
		b.WriteString("ref=")
		b.WriteString(url.QueryEscape(r.refName))
		sep = '&'
	}
	if r.rev != "" {
		b.WriteByte(sep)
		b.WriteString("rev=")
		b.WriteString(r.rev)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler using the canonical
// string form. A zero value marshals as the empty string.
func (r Ref) MarshalText() ([]byte, error) {
	if r.IsZero() {
		return nil, nil
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input
// produces a zero value, mirroring MarshalText.
func (r *Ref) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*r = Ref{}
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func isAlias(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '_' || c == '-'):
		default:
			return false
		}
	}
	return true
}

func checkRefName(name string) error {
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9':
		case c == '.' || c == '_' || c == '/' || c == '-' || c == '+':
		default:
			return fmt.Errorf("ref name %q contains invalid character %q", name, c)
		}
	}
	return nil
}

func checkRev(rev string) error {
	if len(rev) < 12 || len(rev) > 64 {
		return fmt.Errorf("rev %q must be 12 to 64 hex characters", rev)
	}
	for i := 0; i < len(rev); i++ {
		c := rev[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("rev %q is not lowercase hexadecimal", rev)
		}
	}
	return nil
}
