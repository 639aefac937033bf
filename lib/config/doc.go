// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the strata.yaml configuration file.
//
// A run uses exactly one file: the path given to [LoadFile] (the
// --config flag) or named by STRATA_CONFIG (via [Load]). Nothing is
// discovered under ~/.config and individual settings never come from
// the environment, so the file alone answers what a deployment does.
// Without any file, commands run on [Default], which keeps all state
// under the user's cache directory.
//
// Files are parsed over the defaults, then the override section
// matching [Config].Environment is merged on top. A production file
// with no explicit section gets the shared /strata system layout.
// After merging, ${VAR} and ${VAR:-fallback} references in path
// fields are expanded; ${STRATA_ROOT} refers to the configured root,
// which lets the profile and registry paths track it.
//
// The package sits below everything else in the module and imports no
// other strata packages.
package config
