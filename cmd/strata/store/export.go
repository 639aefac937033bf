// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/strata-foundation/strata/cmd/strata/cli"
	"github.com/strata-foundation/strata/lib/store"
)

type exportParams struct {
	cli.ConfigFlag
	Output      string `flag:"output,o" desc:"file to write the export stream to"`
	Compression string `flag:"compression" default:"zstd" desc:"per-object compression: zstd, lz4, or none"`
	SealKeyFile string `flag:"seal-key" desc:"seal the stream with this key file (64 hex characters)"`
}

func exportCommand() *cli.Command {
	var params exportParams

	return &cli.Command{
		Name:    "export",
		Summary: "Export store closures to a stream file",
		Description: `Write the given paths and their full reference closures to a file.

The stream contains every object the requested paths depend on, in
dependency order, each compressed individually. With --seal-key the
payloads are additionally encrypted; the matching key is then required
to import the stream. Exporting is read-only.`,
		Usage: "strata store export <path>... -o FILE [flags]",
		Examples: []cli.Example{
			{
				Description: "Export one closure",
				Command:     "strata store export /strata/store/abc123...-hello -o hello.stream",
			},
			{
				Description: "Export without compression for already-compressed payloads",
				Command:     "strata store export /strata/store/abc123...-media -o media.stream --compression none",
			},
			{
				Description: "Export sealed",
				Command:     "strata store export /strata/store/abc123...-hello -o hello.stream --seal-key ./seal.key",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("export", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 0 {
				return cli.Validation("at least one store path is required")
			}
			if params.Output == "" {
				return cli.Validation("--output is required")
			}
			compression, err := store.ParseCompressionTag(params.Compression)
			if err != nil {
				return cli.Validation("%v", err)
			}
			opts := store.ExportOptions{Compression: compression}
			if params.SealKeyFile != "" {
				key, err := store.ReadSealKey(params.SealKeyFile)
				if err != nil {
					return cli.Validation("%v", err)
				}
				opts.SealKey = key
			}

			st, err := openStore(&params.ConfigFlag, logger)
			if err != nil {
				return err
			}
			paths, err := parsePaths(st, args)
			if err != nil {
				return err
			}

			file, err := os.Create(params.Output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", params.Output, err)
			}
			if err := st.Export(ctx, file, paths, opts); err != nil {
				file.Close()
				os.Remove(params.Output)
				return err
			}
			if err := file.Close(); err != nil {
				os.Remove(params.Output)
				return fmt.Errorf("writing %s: %w", params.Output, err)
			}

			info, err := os.Stat(params.Output)
			if err != nil {
				return fmt.Errorf("inspecting %s: %w", params.Output, err)
			}
			fmt.Printf("exported %d paths to %s (%s)\n", len(paths), params.Output, formatSize(info.Size()))
			return nil
		},
	}
}
