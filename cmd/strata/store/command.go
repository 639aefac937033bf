// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package store implements the "strata store" command group for
// inspecting and transferring store objects: metadata display,
// integrity verification, and closure export/import streams.
package store

import (
	"fmt"
	"log/slog"

	"github.com/strata-foundation/strata/cmd/strata/cli"
	"github.com/strata-foundation/strata/lib/store"
	"github.com/strata-foundation/strata/lib/storepath"
)

// Command returns the top-level "store" command with all subcommands.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "store",
		Summary: "Inspect and transfer store objects",
		Description: `Operate on the content-addressed store directly.

Store objects are immutable filesystem trees named by a hash of their
content, identity tag, and reference closure. These commands read
object metadata, re-verify content against recorded hashes, and move
whole closures between stores as export streams.`,
		Subcommands: []*cli.Command{
			infoCommand(),
			verifyCommand(),
			exportCommand(),
			importCommand(),
		},
		Examples: []cli.Example{
			{
				Description: "Show an object's metadata",
				Command:     "strata store info /strata/store/abc123...-hello",
			},
			{
				Description: "Verify every path a profile references",
				Command:     "strata store verify $(strata profile info | cut -d' ' -f4-)",
			},
			{
				Description: "Export a closure with zstd compression",
				Command:     "strata store export /strata/store/abc123...-hello -o hello.stream",
			},
			{
				Description: "Import a sealed stream",
				Command:     "strata store import -i hello.stream --seal-key ~/.config/strata/seal.key",
			},
		},
	}
}

// openStore loads configuration and opens the local store without a
// builder: store commands never realize derivations.
func openStore(flag *cli.ConfigFlag, logger *slog.Logger) (*store.LocalStore, error) {
	cfg, err := flag.LoadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Paths.Root, store.Options{Logger: logger})
}

// parsePaths validates each argument as a store path in st's store
// directory.
func parsePaths(st *store.LocalStore, args []string) ([]storepath.Path, error) {
	paths := make([]storepath.Path, 0, len(args))
	for _, arg := range args {
		path, err := st.Dir().Parse(arg)
		if err != nil {
			return nil, cli.Validation("%v", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func formatSize(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
