// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the framework behind the strata command tree.
//
// A [Command] names one subcommand: its summary and usage text, a
// [pflag.FlagSet] factory, nested subcommands, and the Run function
// that does the work. cmd/strata/commands assembles the tree;
// [Command.Execute] walks it for each invocation, parsing flags,
// printing help, and cancelling Run's context on SIGINT or SIGTERM.
// Typos in a subcommand or flag name produce a "did you mean"
// suggestion when something registered is within a small edit
// distance of the input.
//
// The rest of the package is plumbing every subcommand shares:
//
//   - [ConfigFlag] / [ConfigFlag.LoadConfig]: the --config flag and the
//     flag > STRATA_CONFIG > defaults resolution order.
//   - [OpenEngine] / [Engine]: wiring from a loaded configuration to the
//     store, registry, evaluator, and profile manager.
//   - [FlagsFromParams] / [BindFlags]: pflag binding from struct tags.
//   - [JSONOutput]: the embeddable --json flag and EmitJSON helper.
//   - [ToolError] and its constructors: categorized command errors.
//   - [ExitError]: handled non-zero exits without redundant messages.
package cli
