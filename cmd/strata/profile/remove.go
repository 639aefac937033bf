// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/strata-foundation/strata/cmd/strata/cli"
)

type removeParams struct {
	cli.ConfigFlag
	Profile string `flag:"profile,p" desc:"profile to modify (configured default when empty)"`
}

func removeCommand() *cli.Command {
	var params removeParams

	return &cli.Command{
		Name:    "remove",
		Summary: "Remove packages from a profile",
		Description: `Remove every package selected by the given matchers.

A matcher is a manifest position (as printed by "profile info"), a
store path, or a case-insensitive regular expression matched against
the full attribute path. A single removal pass evaluates all matchers
together; surviving packages keep their relative order and are
renumbered from zero.

Matchers that select nothing remove nothing: the command reports
"removed 0 packages" and the profile stays on its current generation.`,
		Usage: "strata profile remove <matcher>... [flags]",
		Examples: []cli.Example{
			{
				Description: "Remove by attribute path",
				Command:     "strata profile remove hello",
			},
			{
				Description: "Remove by manifest position",
				Command:     "strata profile remove 2",
			},
			{
				Description: "Remove everything matching a pattern",
				Command:     "strata profile remove '.*vim.*'",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("remove", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("at least one matcher is required")
			}
			engine, prof, err := openProfile(&params.ConfigFlag, params.Profile, logger)
			if err != nil {
				return err
			}
			removed, kept, err := engine.Manager.Remove(ctx, prof, args)
			if err != nil {
				return classify(err)
			}
			fmt.Printf("removed %d packages, kept %d packages\n", removed, kept)
			return nil
		},
	}
}
