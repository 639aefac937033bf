// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/strata-foundation/strata/cmd/strata/cli"
)

type verifyParams struct {
	cli.ConfigFlag
}

func verifyCommand() *cli.Command {
	var params verifyParams

	return &cli.Command{
		Name:    "verify",
		Summary: "Verify store objects against recorded hashes",
		Description: `Re-archive each object and compare it with its metadata record.

Every path gets one output line: "ok" when the re-archived content
hash and size match the record, otherwise the mismatch. The command
checks all paths even after a failure and exits non-zero if any path
failed.`,
		Usage: "strata store verify <path>... [flags]",
		Examples: []cli.Example{
			{
				Description: "Verify one object",
				Command:     "strata store verify /strata/store/abc123...-hello",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("verify", &params)
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

			failed := 0
			for _, path := range paths {
				// Verify errors name the failing path themselves.
				if err := st.Verify(path); err != nil {
					fmt.Println(err)
					failed++
					continue
				}
				fmt.Printf("%s: ok\n", path)
			}
			if failed > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
