// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger builds the logger handed to command Run functions.
// Output goes to stderr: human-readable text when stderr is a
// terminal, JSON lines when piped or redirected so scripts and CI can
// parse it. Setting STRATA_LOG=debug lowers the level for
// troubleshooting; anything else logs at info.
//
// Commands scope it with their own context:
//
//	logger := cli.NewCommandLogger().With(
//	    "command", "profile/install",
//	    "profile", profileName,
//	)
func NewCommandLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("STRATA_LOG") == "debug" {
		level = slog.LevelDebug
	}
	options := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.New(slog.NewTextHandler(os.Stderr, options))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, options))
}
