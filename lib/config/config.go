// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment selects which override section of the config file is
// applied on top of the base values.
type Environment string

const (
	// Development is the default: per-user paths, no overrides.
	Development Environment = "development"
	// Staging selects the staging override section.
	Staging Environment = "staging"
	// Production selects the production override section and, when the
	// file has none, the shared system layout under /strata.
	Production Environment = "production"
)

// Config is the master configuration for Strata.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Registry configures package reference alias resolution.
	Registry RegistryConfig `yaml:"registry"`

	// Evaluator configures the external resolve and build commands.
	Evaluator EvaluatorConfig `yaml:"evaluator"`

	// Export configures store export streams.
	Export ExportConfig `yaml:"export"`

	// Per-environment override sections. After parsing, the section
	// matching Environment is merged over the base values.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides holds the subset of fields an environment section may
// override. Nil sub-sections and zero-valued fields leave the base
// value in place.
type ConfigOverrides struct {
	Paths     *PathsConfig     `yaml:"paths,omitempty"`
	Registry  *RegistryConfig  `yaml:"registry,omitempty"`
	Evaluator *EvaluatorConfig `yaml:"evaluator,omitempty"`
	Export    *ExportConfig    `yaml:"export,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for Strata data. The store lives at
	// <root>/store, object metadata at <root>/db, and scratch space
	// at <root>/tmp.
	Root string `yaml:"root"`

	// Profiles is the directory holding profile symlinks and their
	// numbered generation links.
	Profiles string `yaml:"profiles"`

	// DefaultProfile is the profile name used when none is specified.
	// Default: default
	DefaultProfile string `yaml:"default_profile"`
}

// RegistryConfig configures package reference alias resolution.
type RegistryConfig struct {
	// Path is the registry file mapping aliases to full references.
	// A missing file means an empty registry, not an error.
	Path string `yaml:"path"`
}

// EvaluatorConfig configures the external resolve and build commands.
// Each command is an argv list; an empty list selects the built-in
// default (strata-eval and strata-build, found on PATH or in the
// toolchain libexec directory).
type EvaluatorConfig struct {
	// ResolveCommand pins package references to exact revisions.
	ResolveCommand []string `yaml:"resolve_command,omitempty"`

	// BuildCommand realizes derivation outputs into the store.
	BuildCommand []string `yaml:"build_command,omitempty"`
}

// ExportConfig configures store export streams.
type ExportConfig struct {
	// Compression selects the per-object compression for exports.
	// Values: "none", "lz4", "zstd".
	// Default: zstd
	Compression string `yaml:"compression"`

	// SealKeyFile is the path to a seal key (64 hex characters).
	// When set, exports are sealed and imports expect sealed streams.
	// Default: unset (plaintext streams)
	SealKeyFile string `yaml:"seal_key_file"`
}

// Default returns the built-in development configuration: everything
// under the user's cache directory. The CLI runs on these defaults
// when no config file is given, and LoadFile parses files over them so
// omitted fields keep working values.
func Default() *Config {
	root := filepath.Join(cacheHome(), "strata")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root:           root,
			Profiles:       filepath.Join(root, "profiles"),
			DefaultProfile: "default",
		},
		Registry: RegistryConfig{
			Path: filepath.Join(root, "registry.jsonc"),
		},
		Export: ExportConfig{
			Compression: "zstd",
		},
	}
}

func cacheHome() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache")
}

// Load reads the config file named by the STRATA_CONFIG environment
// variable. Individual settings are never taken from the environment;
// the file is the single source of truth, so a deployment can be
// audited by reading one path. Callers that want to run without any
// file use Default directly.
func Load() (*Config, error) {
	path := os.Getenv("STRATA_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("STRATA_CONFIG environment variable not set; " +
			"set it to the path of your strata.yaml config file, or use --config flag")
	}

	return LoadFile(path)
}

// LoadFile reads and parses one config file, merges the override
// section selected by its environment, and expands ${VAR} references
// in path fields.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyOverrides(cfg.overridesFor(cfg.Environment))
	cfg.expandPaths()

	return cfg, nil
}

// overridesFor returns the override section for env. Production with
// no explicit section gets the shared system layout, so a bare
// "environment: production" file is a complete deployment config.
func (c *Config) overridesFor(env Environment) *ConfigOverrides {
	switch env {
	case Development:
		return c.Development
	case Staging:
		return c.Staging
	case Production:
		if c.Production != nil {
			return c.Production
		}
		return systemLayout()
	}
	return nil
}

func systemLayout() *ConfigOverrides {
	return &ConfigOverrides{
		Paths: &PathsConfig{
			Root:     "/strata",
			Profiles: "/strata/profiles",
		},
		Registry: &RegistryConfig{
			Path: "/strata/etc/registry.jsonc",
		},
	}
}

func (c *Config) applyOverrides(o *ConfigOverrides) {
	if o == nil {
		return
	}
	if p := o.Paths; p != nil {
		override(&c.Paths.Root, p.Root)
		override(&c.Paths.Profiles, p.Profiles)
		override(&c.Paths.DefaultProfile, p.DefaultProfile)
	}
	if r := o.Registry; r != nil {
		override(&c.Registry.Path, r.Path)
	}
	if e := o.Evaluator; e != nil {
		overrideArgv(&c.Evaluator.ResolveCommand, e.ResolveCommand)
		overrideArgv(&c.Evaluator.BuildCommand, e.BuildCommand)
	}
	if x := o.Export; x != nil {
		override(&c.Export.Compression, x.Compression)
		override(&c.Export.SealKeyFile, x.SealKeyFile)
	}
}

func override(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func overrideArgv(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

// expandPaths expands ${VAR} references in every path field. Root goes
// first: the other paths may point into it through ${STRATA_ROOT}, and
// they must see its expanded form.
func (c *Config) expandPaths() {
	vars := map[string]string{
		"STRATA_ROOT": c.Paths.Root,
		"HOME":        os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["STRATA_ROOT"] = c.Paths.Root

	for _, p := range []*string{
		&c.Paths.Profiles,
		&c.Registry.Path,
		&c.Export.SealKeyFile,
	} {
		*p = expandVars(*p, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// expandVars substitutes ${VAR} and ${VAR:-default} in s. Entries in
// vars shadow the process environment, which keeps path expansion
// deterministic for the variables the config itself defines.
func expandVars(s string, vars map[string]string) string {
	matches := varPattern.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		name := s[m[2]:m[3]]
		fallback := ""
		if m[4] >= 0 {
			fallback = s[m[4]:m[5]]
		}
		b.WriteString(lookupVar(name, fallback, vars))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

func lookupVar(name, fallback string, vars map[string]string) string {
	if v := vars[name]; v != "" {
		return v
	}
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// Validate reports every configuration problem at once via errors.Join.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch c.Environment {
	case Development, Staging, Production:
	default:
		fail("invalid environment: %s", c.Environment)
	}

	if c.Paths.Root == "" {
		fail("paths.root is required")
	}
	if c.Paths.Profiles == "" {
		fail("paths.profiles is required")
	}
	if c.Paths.DefaultProfile == "" {
		fail("paths.default_profile is required")
	} else if strings.Contains(c.Paths.DefaultProfile, "/") {
		fail("paths.default_profile must not contain '/'")
	}

	compressionValues := []string{"none", "lz4", "zstd"}
	if !slices.Contains(compressionValues, c.Export.Compression) {
		fail("export.compression must be one of: %v", compressionValues)
	}

	if len(c.Evaluator.ResolveCommand) > 0 && c.Evaluator.ResolveCommand[0] == "" {
		fail("evaluator.resolve_command must start with the binary name")
	}
	if len(c.Evaluator.BuildCommand) > 0 && c.Evaluator.BuildCommand[0] == "" {
		fail("evaluator.build_command must start with the binary name")
	}

	return errors.Join(errs...)
}

// EnsurePaths creates the configured directories that must exist
// before any command can run.
func (c *Config) EnsurePaths() error {
	for _, dir := range []string{c.Paths.Root, c.Paths.Profiles} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
