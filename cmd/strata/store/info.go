// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/strata-foundation/strata/cmd/strata/cli"
)

type infoParams struct {
	cli.ConfigFlag
	cli.JSONOutput
}

// infoEntry is one store object in the JSON output.
type infoEntry struct {
	Path        string    `json:"path"`
	ContentHash string    `json:"contentHash"`
	Size        int64     `json:"size"`
	References  []string  `json:"references"`
	Registered  time.Time `json:"registered"`
}

func infoCommand() *cli.Command {
	var params infoParams

	return &cli.Command{
		Name:    "info",
		Summary: "Show store object metadata",
		Description: `Show the recorded metadata of one or more store objects.

For each path this prints the archive content hash, the serialized
size, the reference closure recorded at registration, and the
registration time. Metadata is read from the store database; nothing
is rehashed (use "store verify" for that).`,
		Usage: "strata store info <path>... [flags]",
		Examples: []cli.Example{
			{
				Description: "Show one object",
				Command:     "strata store info /strata/store/abc123...-hello",
			},
			{
				Description: "Show several objects as JSON",
				Command:     "strata store info --json /strata/store/abc...-a /strata/store/def...-b",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("info", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("at least one store path is required")
			}
			st, err := openStore(&params.ConfigFlag, logger)
			if err != nil {
				return err
			}
			paths, err := parsePaths(st, args)
			if err != nil {
				return err
			}

			entries := make([]infoEntry, 0, len(paths))
			for _, path := range paths {
				info, err := st.Info(path)
				if err != nil {
					return cli.NotFound("%v", err)
				}
				references := info.References
				if references == nil {
					references = []string{}
				}
				entries = append(entries, infoEntry{
					Path:        info.Path,
					ContentHash: hex.EncodeToString(info.ContentHash),
					Size:        info.Size,
					References:  references,
					Registered:  info.Registered,
				})
			}

			if done, err := params.EmitJSON(entries); done {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for i, entry := range entries {
				if i > 0 {
					fmt.Fprintln(writer)
				}
				fmt.Fprintf(writer, "Path:\t%s\n", entry.Path)
				fmt.Fprintf(writer, "Content hash:\t%s\n", entry.ContentHash)
				fmt.Fprintf(writer, "Size:\t%s (%d bytes)\n", formatSize(entry.Size), entry.Size)
				fmt.Fprintf(writer, "References:\t%d\n", len(entry.References))
				for _, reference := range entry.References {
					fmt.Fprintf(writer, "\t%s\n", reference)
				}
				fmt.Fprintf(writer, "Registered:\t%s\n", entry.Registered.Format("2006-01-02 15:04:05 UTC"))
			}
			return writer.Flush()
		},
	}
}
