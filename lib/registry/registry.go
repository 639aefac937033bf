// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry maps indirect package references (bare aliases like
// "corelibs") to concrete git, path, or tarball references.
//
// The registry is authored on disk as a JSONC file (JSON extended with
// comments and trailing commas):
//
//	{
//	  "version": 1,
//	  "aliases": {
//	    // Stable release line.
//	    "corelibs": "git:https://example.com/corelibs.git?ref=stable",
//	  }
//	}
//
// Alias targets must be concrete: an alias pointing at another alias
// is rejected at parse time, so expansion is always a single step.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/tidwall/jsonc"

	"github.com/strata-foundation/strata/lib/pkgref"
)

// currentVersion is the registry file schema version this package
// reads and writes.
const currentVersion = 1

// Registry holds the parsed alias table. A nil or empty Registry
// expands concrete references unchanged and fails on every alias.
type Registry struct {
	aliases map[string]pkgref.Ref
}

// Entry is one alias table row, used for listing.
type Entry struct {
	Alias  string `json:"alias"`
	Target string `json:"target"`
}

type registryFile struct {
	Version int               `json:"version"`
	Aliases map[string]string `json:"aliases"`
}

// Empty returns a registry with no aliases.
func Empty() *Registry {
	return &Registry{aliases: map[string]pkgref.Ref{}}
}

// Parse parses JSONC registry bytes.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}
	if file.Version != currentVersion {
		return nil, fmt.Errorf("parsing registry: unsupported version %d (supported: %d)", file.Version, currentVersion)
	}

	reg := Empty()
	for alias, target := range file.Aliases {
		ref, err := pkgref.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("registry alias %q: %w", alias, err)
		}
		if ref.Scheme() == pkgref.SchemeIndirect {
			return nil, fmt.Errorf("registry alias %q: target %q is itself an alias", alias, target)
		}
		reg.aliases[alias] = ref
	}
	return reg, nil
}

// ReadFile reads and parses a registry file. A missing file yields an
// empty registry rather than an error: a host with no registry simply
// cannot resolve aliases.
func ReadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Empty(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Expand resolves an indirect reference through the alias table.
// Concrete references pass through unchanged. Pins on the indirect
// reference override pins on the alias target, so
// "corelibs?rev=<hash>" pins whatever "corelibs" maps to.
func (r *Registry) Expand(ref pkgref.Ref) (pkgref.Ref, error) {
	if ref.Scheme() != pkgref.SchemeIndirect {
		return ref, nil
	}
	target, ok := r.lookup(ref.Location())
	if !ok {
		return pkgref.Ref{}, fmt.Errorf("alias %q not found in registry", ref.Location())
	}
	expanded, err := target.WithPins(ref.RefName(), ref.Rev())
	if err != nil {
		return pkgref.Ref{}, fmt.Errorf("expanding alias %q: %w", ref.Location(), err)
	}
	return expanded, nil
}

func (r *Registry) lookup(alias string) (pkgref.Ref, bool) {
	if r == nil {
		return pkgref.Ref{}, false
	}
	target, ok := r.aliases[alias]
	return target, ok
}

// Entries returns the alias table sorted by alias name.
func (r *Registry) Entries() []Entry {
	if r == nil {
		return nil
	}
	entries := make([]Entry, 0, len(r.aliases))
	for alias, target := range r.aliases {
		entries = append(entries, Entry{Alias: alias, Target: target.String()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Alias < entries[j].Alias })
	return entries
}
