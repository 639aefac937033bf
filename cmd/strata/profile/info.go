// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/strata-foundation/strata/cmd/strata/cli"
	libprofile "github.com/strata-foundation/strata/lib/profile"
)

type infoParams struct {
	cli.ConfigFlag
	cli.JSONOutput
	Profile string `flag:"profile,p" desc:"profile to inspect (configured default when empty)"`
}

// infoEntry is a single element in the JSON output.
type infoEntry struct {
	Position    int      `json:"position"`
	OriginalRef string   `json:"originalRef,omitempty"`
	ResolvedRef string   `json:"resolvedRef,omitempty"`
	AttrPath    string   `json:"attrPath,omitempty"`
	Active      bool     `json:"active"`
	StorePaths  []string `json:"storePaths"`
}

func infoCommand() *cli.Command {
	var params infoParams

	return &cli.Command{
		Name:    "info",
		Summary: "List the packages in a profile",
		Description: `List every package in the profile's current generation.

Each line shows the manifest position, the original reference and
attribute path as installed, the pinned reference it resolved to, and
the store paths the package contributes. Packages installed by raw
store path show "-" in the reference columns. The printed positions
are the ones remove and upgrade matchers select by.`,
		Usage: "strata profile info [flags]",
		Examples: []cli.Example{
			{
				Description: "List the default profile",
				Command:     "strata profile info",
			},
			{
				Description: "List a named profile as JSON",
				Command:     "strata profile info --profile tools --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("info", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			_, prof, err := openProfile(&params.ConfigFlag, params.Profile, logger)
			if err != nil {
				return err
			}
			manifest, err := prof.Manifest()
			if err != nil {
				return err
			}

			entries := make([]infoEntry, len(manifest.Elements))
			for i, element := range manifest.Elements {
				entry := infoEntry{
					Position:   i,
					Active:     element.Active,
					StorePaths: element.StorePaths,
				}
				if element.Source != nil {
					entry.OriginalRef = element.Source.OriginalRef.String()
					entry.ResolvedRef = element.Source.ResolvedRef.String()
					entry.AttrPath = element.Source.AttrPath
				}
				entries[i] = entry
			}

			if done, err := params.EmitJSON(entries); done {
				return err
			}

			for i, element := range manifest.Elements {
				fmt.Println(libprofile.InfoLine(i, element))
			}
			return nil
		},
	}
}
