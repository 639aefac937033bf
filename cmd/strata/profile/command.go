// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"errors"
	"log/slog"

	"github.com/strata-foundation/strata/cmd/strata/cli"
	"github.com/strata-foundation/strata/lib/buildenv"
	libprofile "github.com/strata-foundation/strata/lib/profile"
	"github.com/strata-foundation/strata/lib/store"
)

// Command returns the "profile" parent command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "profile",
		Summary: "Manage package profiles",
		Description: `Install, remove, upgrade, and inspect packages in a profile.

A profile is an ordered manifest of installed packages plus a merged
symlink tree built from every active package. Each mutation writes a
new store object and flips the profile's current link to a freshly
numbered generation; earlier generations stay intact on disk.

Packages are named by package reference with an attribute path
("corelibs#hello") or by raw store path. The remove and upgrade
commands select existing packages by matcher: a manifest position, a
store path, or a case-insensitive regular expression matched against
attribute paths.`,
		Subcommands: []*cli.Command{
			installCommand(),
			removeCommand(),
			upgradeCommand(),
			infoCommand(),
			historyCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Install a package into the default profile",
				Command:     "strata profile install corelibs#hello",
			},
			{
				Description: "Remove every package whose attribute path mentions vim",
				Command:     "strata profile remove '.*vim.*'",
			},
			{
				Description: "Upgrade everything that tracks a mutable reference",
				Command:     "strata profile upgrade '.*'",
			},
		},
	}
}

// openProfile loads configuration, wires the engine, and opens the
// requested profile (the configured default when name is empty).
func openProfile(flag *cli.ConfigFlag, name string, logger *slog.Logger) (*cli.Engine, *libprofile.Profile, error) {
	cfg, err := flag.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	engine, err := cli.OpenEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	prof, err := engine.Profile(name)
	if err != nil {
		return nil, nil, cli.Validation("invalid profile: %v", err)
	}
	return engine, prof, nil
}

// classify maps engine failures onto tool-error categories, so
// wrappers driving strata programmatically can tell bad input from
// collisions and flaky resolution without parsing message text. The
// original error chain is preserved for errors.As.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var (
		collision   *buildenv.CollisionError
		resolution  *libprofile.ResolutionError
		buildFailed *store.BuildError
		pattern     *libprofile.InvalidPatternError
		installable *libprofile.UnsupportedInstallableError
	)
	switch {
	case errors.As(err, &collision):
		return cli.Conflict("%w", err)
	case errors.As(err, &resolution):
		// Resolution reaches the network for git and tarball refs.
		return cli.Transient("%w", err)
	case errors.As(err, &buildFailed):
		return cli.Internal("%w", err)
	case errors.As(err, &pattern), errors.As(err, &installable):
		return cli.Validation("%w", err)
	default:
		return err
	}
}
