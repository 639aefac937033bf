// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete strata CLI command tree. The
// tree is assembled here, in one place, so help output, suggestion
// lookup, and tests all see the same set of commands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/strata-foundation/strata/cmd/strata/cli"
	profilecmd "github.com/strata-foundation/strata/cmd/strata/profile"
	registrycmd "github.com/strata-foundation/strata/cmd/strata/registry"
	storecmd "github.com/strata-foundation/strata/cmd/strata/store"
	"github.com/strata-foundation/strata/lib/version"
)

// Root builds and returns the complete strata CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "strata",
		Description: `Strata: profiles over a content-addressed store.

Install, remove, and upgrade packages in versioned profiles. Every
profile state is an immutable store object; mutations commit new
generations and never rewrite history.`,
		Subcommands: []*cli.Command{
			profilecmd.Command(),
			storecmd.Command(),
			registrycmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("strata %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Install a package into the default profile",
				Command:     "strata profile install corelibs#hello",
			},
			{
				Description: "See what a profile contains",
				Command:     "strata profile info",
			},
			{
				Description: "Upgrade everything that tracks a mutable reference",
				Command:     "strata profile upgrade '.*'",
			},
			{
				Description: "Check a store object against its recorded hash",
				Command:     "strata store verify /strata/store/abc123...-hello",
			},
			{
				Description: "Ship a closure to another machine",
				Command:     "strata store export /strata/store/abc123...-hello -o hello.stream",
			},
			{
				Description: "List the configured registry aliases",
				Command:     "strata registry list",
			},
		},
	}
}
