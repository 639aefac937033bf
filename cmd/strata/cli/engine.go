// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/strata-foundation/strata/lib/config"
	"github.com/strata-foundation/strata/lib/evaluator"
	"github.com/strata-foundation/strata/lib/profile"
	"github.com/strata-foundation/strata/lib/registry"
	"github.com/strata-foundation/strata/lib/store"
)

// ConfigFlag is an embeddable params struct providing the --config
// flag shared by every command that touches the store or a profile.
type ConfigFlag struct {
	ConfigFile string `flag:"config" desc:"path to strata.yaml (overrides STRATA_CONFIG)"`
}

// LoadConfig resolves configuration in precedence order: the --config
// flag, the STRATA_CONFIG environment variable, then built-in
// development defaults. Unlike daemon-style deployments, the CLI works
// without any configuration file: the defaults place everything under
// the user's cache directory.
func (f *ConfigFlag) LoadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case f.ConfigFile != "":
		cfg, err = config.LoadFile(f.ConfigFile)
	case os.Getenv("STRATA_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Engine bundles the wired collaborators every mutating command needs:
// the local store (with the external builder attached), the alias
// registry, the evaluator client, and the profile manager.
type Engine struct {
	Config    *config.Config
	Store     *store.LocalStore
	Registry  *registry.Registry
	Evaluator *evaluator.Client
	Manager   *profile.Manager
}

// OpenEngine wires the full engine from configuration: registry file,
// evaluator client (which serves as both the reference resolver and
// the store's builder), local store, and profile manager. Opening the
// store creates its directory layout under Paths.Root if missing.
func OpenEngine(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	reg, err := registry.ReadFile(cfg.Registry.Path)
	if err != nil {
		return nil, err
	}

	client := evaluator.New(evaluator.Options{
		ResolveCommand: cfg.Evaluator.ResolveCommand,
		BuildCommand:   cfg.Evaluator.BuildCommand,
		Registry:       reg,
		Logger:         logger,
	})

	st, err := store.Open(cfg.Paths.Root, store.Options{
		Builder: client,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		Config:    cfg,
		Store:     st,
		Registry:  reg,
		Evaluator: client,
		Manager: profile.NewManager(st, profile.ManagerOptions{
			Resolver: client,
			Logger:   logger,
		}),
	}, nil
}

// Profile opens the named profile, or the configured default profile
// when name is empty.
func (e *Engine) Profile(name string) (*profile.Profile, error) {
	if name == "" {
		name = e.Config.Paths.DefaultProfile
	}
	return profile.OpenProfile(e.Config.Paths.Profiles, name)
}
