// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"context"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/strata-foundation/strata/cmd/strata/cli"
)

type installParams struct {
	cli.ConfigFlag
	Profile string `flag:"profile,p" desc:"profile to modify (configured default when empty)"`
}

func installCommand() *cli.Command {
	var params installParams

	return &cli.Command{
		Name:    "install",
		Summary: "Install packages into a profile",
		Description: `Resolve, build, and install one or more packages.

Each installable is either a package reference with an attribute path
("corelibs#hello", "git:https://example.org/pkgs?ref=main#ripgrep") or
a raw store path. References are expanded through the alias registry,
resolved to a pinned revision, built, and recorded with provenance so
that upgrade can re-resolve them later. Raw store paths must name
registered store objects; they carry no provenance and never upgrade.

All requested packages are appended in argument order and the profile
advances one generation.`,
		Usage: "strata profile install <installable>... [flags]",
		Examples: []cli.Example{
			{
				Description: "Install from a registry alias",
				Command:     "strata profile install corelibs#hello",
			},
			{
				Description: "Install several packages in one generation",
				Command:     "strata profile install corelibs#ripgrep corelibs#fd corelibs#jq",
			},
			{
				Description: "Install a raw store path into a named profile",
				Command:     "strata profile install --profile tools /strata/store/abc123...-hello",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("install", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("at least one installable is required")
			}
			engine, prof, err := openProfile(&params.ConfigFlag, params.Profile, logger)
			if err != nil {
				return err
			}
			return classify(engine.Manager.Install(ctx, prof, args))
		},
	}
}
