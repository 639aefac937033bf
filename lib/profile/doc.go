// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package profile implements the profile manifest engine: mutable,
// versioned views over immutable store objects.
//
// A profile is a JSON manifest (an ordered list of elements, each a
// set of store paths plus optional provenance) and the merged symlink
// tree the manifest deterministically produces. The tree is a regular
// content-addressed store object with the serialized manifest inside
// it as manifest.json, so every profile state is self-describing and
// immutable once registered.
//
// Mutation happens by generation: Install, Remove, and Upgrade load
// the current manifest, transform a copy, build the new tree, and
// atomically switch the profile's current link to a fresh numbered
// generation. A failure anywhere leaves the previous generation
// untouched; there is no partially-updated state to repair.
//
// Elements are selected for removal and upgrade by matchers: a token
// is a manifest position, a store path, or a case-insensitive
// pattern over attribute paths, classified once at parse time.
//
// The package deliberately keeps three collaborators behind narrow
// interfaces: resolution (Resolver), building and registration
// (store.Store), and tree merging (lib/buildenv). Everything here is
// a pure function of manifest content plus those collaborators'
// answers, which is what makes identical manifests reproduce
// identical trees and identities.
package profile
