// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Strata is the unified CLI for managing profiles over a
// content-addressed artifact store. It provides subcommands for
// profile mutation and inspection (profile install, remove, upgrade,
// info, history), store object operations (store info, verify,
// export, import), and registry inspection (registry list).
package main
