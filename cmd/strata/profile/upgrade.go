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

type upgradeParams struct {
	cli.ConfigFlag
	Profile string `flag:"profile,p" desc:"profile to modify (configured default when empty)"`
}

func upgradeCommand() *cli.Command {
	var params upgradeParams

	return &cli.Command{
		Name:    "upgrade",
		Summary: "Upgrade packages tracking mutable references",
		Description: `Re-resolve matching packages and rebuild those that changed.

Only packages installed from a mutable reference can upgrade: packages
without provenance (raw store paths) and packages whose original
reference is pinned to an exact revision are skipped. Matching
packages are re-resolved through the registry; those that resolve to
the same pinned revision as before are left untouched. Changed
packages are replaced in place, keeping their manifest position, and
all builds run as a single batch.

When nothing changes the profile stays on its current generation.`,
		Usage: "strata profile upgrade <matcher>... [flags]",
		Examples: []cli.Example{
			{
				Description: "Upgrade one package",
				Command:     "strata profile upgrade hello",
			},
			{
				Description: "Upgrade everything upgradeable",
				Command:     "strata profile upgrade '.*'",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("upgrade", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("at least one matcher is required")
			}
			engine, prof, err := openProfile(&params.ConfigFlag, params.Profile, logger)
			if err != nil {
				return err
			}
			upgraded, err := engine.Manager.Upgrade(ctx, prof, args)
			if err != nil {
				return classify(err)
			}
			for _, u := range upgraded {
				fmt.Printf("upgrading '%s' from '%s' to '%s'\n", u.AttrPath, u.From.String(), u.To.String())
			}
			return nil
		},
	}
}
