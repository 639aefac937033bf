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

type importParams struct {
	cli.ConfigFlag
	Input       string `flag:"input,i" desc:"export stream file to read"`
	SealKeyFile string `flag:"seal-key" desc:"key file the stream was sealed with (64 hex characters)"`
}

func importCommand() *cli.Command {
	var params importParams

	return &cli.Command{
		Name:    "import",
		Summary: "Import store objects from a stream file",
		Description: `Register every object from an export stream into the local store.

Objects are validated against the content hashes carried in the
stream and registered in dependency order; objects the store already
holds are skipped. Importing a sealed stream requires the seal key it
was exported with.`,
		Usage: "strata store import -i FILE [flags]",
		Examples: []cli.Example{
			{
				Description: "Import a stream",
				Command:     "strata store import -i hello.stream",
			},
			{
				Description: "Import a sealed stream",
				Command:     "strata store import -i hello.stream --seal-key ./seal.key",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("import", &params)
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("unexpected argument: %s", args[0])
			}
			if params.Input == "" {
				return cli.Validation("--input is required")
			}
			var opts store.ImportOptions
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

			file, err := os.Open(params.Input)
			if err != nil {
				return fmt.Errorf("opening %s: %w", params.Input, err)
			}
			defer file.Close()

			imported, err := st.Import(ctx, file, opts)
			if err != nil {
				return err
			}
			for _, path := range imported {
				fmt.Println(path)
			}
			fmt.Printf("imported %d paths\n", len(imported))
			return nil
		},
	}
}
