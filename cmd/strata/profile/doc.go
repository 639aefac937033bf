// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package profile implements the "strata profile" command group for
// managing package profiles. The commands wrap the manifest engine in
// lib/profile/, providing CLI flag parsing, engine wiring, and output
// formatting.
//
// Mutation commands (install, remove, upgrade) commit a new profile
// generation on success. Query commands (info, history) read the
// current generation without touching it.
package profile
