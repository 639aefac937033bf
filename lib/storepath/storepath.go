// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package storepath defines the syntax of Strata store paths and
// provides parsing and validation for them. A store path names one
// immutable, content-addressed filesystem object:
//
//	/strata/store/5f9a0c3d8e2b714626a9c05b1d4f8e73-hello-2.12
//	\___________/ \______________________________/ \________/
//	  store dir            hash part (32 hex)         name
//
// The hash part is derived by the store from the object's content
// (lib/store); this package is purely syntactic and performs no I/O.
package storepath

import (
	"fmt"
	"strings"
)

// DefaultStoreDir is the conventional location of the Strata store.
// Deployments may relocate it via configuration; all paths within one
// store share its store directory prefix.
const DefaultStoreDir = "/strata/store"

// HashPartLen is the length of the hash part in characters: 16 bytes
// of the path-domain digest, hex encoded.
const HashPartLen = 32

// MaxNameLen bounds the name part. Longer names would push store
// paths past common filesystem component limits once the hash part
// and separator are added.
const MaxNameLen = 211

// Path is a validated store path string, including the store
// directory prefix. The zero value is invalid; obtain a Path from
// [Dir.Parse] or [Dir.Join].
type Path string

// String returns the path unchanged, satisfying fmt.Stringer.
func (p Path) String() string { return string(p) }

// Base returns the final path component: "<hashpart>-<name>".
func (p Path) Base() string {
	s := string(p)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// HashPart returns the 32-character hex hash part of the path.
func (p Path) HashPart() string {
	return p.Base()[:HashPartLen]
}

// Name returns the human-readable name part of the path (everything
// after the hash part and its separator).
func (p Path) Name() string {
	return p.Base()[HashPartLen+1:]
}

// Dir is a store directory. It validates and constructs paths that
// live directly under it.
type Dir string

// Parse validates s as a store path under d and returns it as a Path.
func (d Dir) Parse(s string) (Path, error) {
	prefix := string(d) + "/"
	if !strings.HasPrefix(s, prefix) {
		return "", fmt.Errorf("path %q is not in the store directory %s", s, d)
	}
	base := s[len(prefix):]
	if strings.ContainsRune(base, '/') {
		return "", fmt.Errorf("path %q names a file inside a store object, not a store object", s)
	}
	if err := checkBase(base); err != nil {
		return "", fmt.Errorf("path %q: %w", s, err)
	}
	return Path(s), nil
}

// IsStorePath reports whether s is a syntactically valid store path
// under d. This is the path-syntax check the profile matcher uses to
// classify tokens; it implies nothing about the path being registered.
func (d Dir) IsStorePath(s string) bool {
	_, err := d.Parse(s)
	return err == nil
}

// Join constructs a Path from a hash part and a name, validating both.
func (d Dir) Join(hashPart, name string) (Path, error) {
	base := hashPart + "-" + name
	if err := checkBase(base); err != nil {
		return "", err
	}
	return Path(string(d) + "/" + base), nil
}

// ContainsPath reports whether s points at or into an object in d,
// and returns the object's store path. Unlike [Dir.Parse], this
// accepts paths that descend into an object:
//
//	/strata/store/<hash>-tool/bin/tool → /strata/store/<hash>-tool
func (d Dir) ContainsPath(s string) (Path, bool) {
	prefix := string(d) + "/"
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	rest := s[len(prefix):]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	p, err := d.Parse(prefix + rest)
	if err != nil {
		return "", false
	}
	return p, true
}

// checkBase validates the "<hashpart>-<name>" component.
func checkBase(base string) error {
	if len(base) < HashPartLen+2 {
		return fmt.Errorf("store path component %q is too short", base)
	}
	if base[HashPartLen] != '-' {
		return fmt.Errorf("store path component %q lacks the hash/name separator", base)
	}
	hashPart := base[:HashPartLen]
	for i := 0; i < len(hashPart); i++ {
		if !isHexLower(hashPart[i]) {
			return fmt.Errorf("hash part %q contains non-hex character %q", hashPart, hashPart[i])
		}
	}
	return CheckName(base[HashPartLen+1:])
}

// CheckName validates a store object name: 1 to MaxNameLen characters
// from [A-Za-z0-9+._?=-], not starting with a period. The charset is
// deliberately narrow so names never need shell quoting and never
// collide with the hash/name separator parsing above.
func CheckName(name string) error {
	if name == "" {
		return fmt.Errorf("store object name is empty")
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("store object name %q is longer than %d characters", name, MaxNameLen)
	}
	if name[0] == '.' {
		return fmt.Errorf("store object name %q starts with a period", name)
	}
	for i := 0; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return fmt.Errorf("store object name %q contains invalid character %q", name, name[i])
		}
	}
	return nil
}

func isHexLower(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

func isNameChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '+' || c == '-' || c == '.' || c == '_' || c == '?' || c == '=':
		return true
	}
	return false
}
