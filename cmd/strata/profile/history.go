// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/strata-foundation/strata/cmd/strata/cli"
)

type historyParams struct {
	cli.ConfigFlag
	cli.JSONOutput
	Profile string `flag:"profile,p" desc:"profile to inspect (configured default when empty)"`
}

// historyEntry is a single generation in the JSON output.
type historyEntry struct {
	Generation int       `json:"generation"`
	Path       string    `json:"path"`
	Created    time.Time `json:"created"`
	Current    bool      `json:"current"`
}

func historyCommand() *cli.Command {
	var params historyParams

	return &cli.Command{
		Name:    "history",
		Summary: "List a profile's generations",
		Description: `List every generation the profile has committed, oldest first.

Each mutation that changes the manifest commits a new numbered
generation; this command shows the number, creation time, store path,
and which generation the profile's current link points at. Earlier
generations are never deleted by profile operations.`,
		Usage: "strata profile history [flags]",
		Examples: []cli.Example{
			{
				Description: "Show the default profile's generations",
				Command:     "strata profile history",
			},
			{
				Description: "Show a named profile's generations as JSON",
				Command:     "strata profile history --profile tools --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("history", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			_, prof, err := openProfile(&params.ConfigFlag, params.Profile, logger)
			if err != nil {
				return err
			}
			generations, err := prof.Generations()
			if err != nil {
				return err
			}

			entries := make([]historyEntry, len(generations))
			for i, generation := range generations {
				entries[i] = historyEntry{
					Generation: generation.Number,
					Path:       generation.Path,
					Created:    generation.Created,
					Current:    generation.Current,
				}
			}

			if done, err := params.EmitJSON(entries); done {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintf(os.Stdout, "No generations found for profile %s\n", prof.Name())
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "GENERATION\tCREATED\tCURRENT\tPATH")
			for _, entry := range entries {
				current := ""
				if entry.Current {
					current = "*"
				}
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\n",
					entry.Generation,
					entry.Created.Format("2006-01-02 15:04:05"),
					current,
					entry.Path,
				)
			}
			return writer.Flush()
		},
	}
}
