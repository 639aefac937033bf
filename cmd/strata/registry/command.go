// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry implements the "strata registry" command group for
// inspecting the package reference alias registry.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/strata-foundation/strata/cmd/strata/cli"
	"github.com/strata-foundation/strata/lib/registry"
)

// Command returns the top-level "registry" command with all
// subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "registry",
		Summary: "Inspect the package reference registry",
		Description: `Inspect the alias registry used during install and upgrade.

The registry maps bare aliases like "corelibs" to the concrete
references they expand to. It is authored as a JSONC file at the
configured registry path; a missing file is an empty registry.`,
		Subcommands: []*cli.Command{
			listCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "List the configured aliases",
				Command:     "strata registry list",
			},
		},
	}
}

type listParams struct {
	cli.ConfigFlag
	cli.JSONOutput
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List registry aliases",
		Description: `List every alias in the registry with its target reference.

Aliases are printed sorted by name. Install arguments using a listed
alias expand to the shown target before resolution; pins on the alias
("corelibs?rev=...") carry over onto the target.`,
		Usage: "strata registry list [flags]",
		Examples: []cli.Example{
			{
				Description: "List aliases",
				Command:     "strata registry list",
			},
			{
				Description: "List aliases as JSON",
				Command:     "strata registry list --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			cfg, err := params.LoadConfig()
			if err != nil {
				return err
			}
			reg, err := registry.ReadFile(cfg.Registry.Path)
			if err != nil {
				return err
			}
			entries := reg.Entries()

			if done, err := params.EmitJSON(entries); done {
				return err
			}

			if len(entries) == 0 {
				fmt.Printf("no aliases configured in %s\n", cfg.Registry.Path)
				return nil
			}
			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(writer, "ALIAS\tTARGET")
			for _, entry := range entries {
				fmt.Fprintf(writer, "%s\t%s\n", entry.Alias, entry.Target)
			}
			return writer.Flush()
		},
	}
}
