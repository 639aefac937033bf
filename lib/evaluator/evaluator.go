// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package evaluator invokes the external resolver and builder
// commands that turn package references into store objects.
//
// Strata does not evaluate package expressions itself. Resolution
// (select an attribute out of a package set, pin the reference, name
// the derivation and its outputs) and realization (build derivation
// outputs into the store) are delegated to two configurable commands:
//
//   - strata-eval: resolve one reference to a derivation
//   - strata-build: realize a batch of derivation outputs
//
// Both commands read a JSON request on standard input and write any
// response as JSON on standard output. Diagnostics go to standard
// error, which is captured and included in error messages. Binaries
// are resolved from PATH first, then from the standard toolchain
// directory /usr/local/libexec/strata.
package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/strata-foundation/strata/lib/pkgref"
	"github.com/strata-foundation/strata/lib/profile"
	"github.com/strata-foundation/strata/lib/registry"
	"github.com/strata-foundation/strata/lib/store"
)

// toolchainBinDir is where the strata toolchain installs the
// evaluator and builder. The directory is outside PATH by default, so
// it is checked explicitly after the PATH lookup fails.
const toolchainBinDir = "/usr/local/libexec/strata"

// FindBinary resolves an external command by name (e.g.,
// "strata-eval"), checking PATH first and then the standard toolchain
// directory. Names containing a path separator bypass the PATH lookup
// and are tried directly. Returns the absolute path to the binary.
func FindBinary(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	toolchainPath := filepath.Join(toolchainBinDir, name)
	if _, err := os.Stat(toolchainPath); err == nil {
		return toolchainPath, nil
	}

	return "", fmt.Errorf("%s not found on PATH or at %s — install the strata toolchain first",
		name, toolchainPath)
}

// Client runs the resolver and builder commands. It implements
// profile.Resolver and store.Builder; one Client is shared by every
// operation of a CLI invocation.
type Client struct {
	resolveArgv []string
	buildArgv   []string
	registry    *registry.Registry
	logger      *slog.Logger
}

// Options configures New. Zero values select the defaults.
type Options struct {
	// ResolveCommand is the argument vector for resolution requests.
	// Defaults to {"strata-eval"}.
	ResolveCommand []string

	// BuildCommand is the argument vector for build requests.
	// Defaults to {"strata-build"}.
	BuildCommand []string

	// Registry expands indirect references before resolution.
	// Defaults to the empty registry, which passes concrete
	// references through and rejects every alias.
	Registry *registry.Registry

	// Logger receives one event per external invocation. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// New returns a Client invoking the configured commands.
func New(opts Options) *Client {
	c := &Client{
		resolveArgv: opts.ResolveCommand,
		buildArgv:   opts.BuildCommand,
		registry:    opts.Registry,
		logger:      opts.Logger,
	}
	if len(c.resolveArgv) == 0 {
		c.resolveArgv = []string{"strata-eval"}
	}
	if len(c.buildArgv) == 0 {
		c.buildArgv = []string{"strata-build"}
	}
	if c.registry == nil {
		c.registry = registry.Empty()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// resolveRequest is the JSON document written to the resolver's
// standard input.
type resolveRequest struct {
	Ref      string `json:"ref"`
	AttrPath string `json:"attrPath,omitempty"`
}

// resolveResponse is the resolver's answer on standard output.
// Outputs maps output names to the store paths the derivation
// produces for them; the paths need not be valid yet (building
// happens later, in a batch).
type resolveResponse struct {
	AttrPath    string            `json:"attrPath"`
	ResolvedRef string            `json:"resolvedRef"`
	Derivation  string            `json:"derivation"`
	Outputs     map[string]string `json:"outputs"`
}

// Resolve expands ref through the registry, invokes the resolver
// command, and returns the pinned reference together with the
// derivation that provides the selected package. The caller keeps the
// original ref as provenance; only the expanded form is sent to the
// resolver.
func (c *Client) Resolve(ctx context.Context, ref pkgref.Ref, attrPath string) (*profile.ResolvedPackage, error) {
	expanded, err := c.registry.Expand(ref)
	if err != nil {
		return nil, err
	}

	request := resolveRequest{Ref: expanded.String(), AttrPath: attrPath}
	var response resolveResponse
	if err := c.run(ctx, c.resolveArgv, request, &response); err != nil {
		return nil, err
	}

	resolved, err := pkgref.Parse(response.ResolvedRef)
	if err != nil {
		return nil, fmt.Errorf("resolver returned unparseable reference %q for %s: %w",
			response.ResolvedRef, expanded, err)
	}
	if response.Derivation == "" {
		return nil, fmt.Errorf("resolver returned no derivation for %s", expanded)
	}
	if len(response.Outputs) == 0 {
		return nil, fmt.Errorf("resolver returned no outputs for %s", expanded)
	}
	if response.AttrPath == "" {
		response.AttrPath = attrPath
	}

	c.logger.Debug("resolved package reference",
		"ref", expanded.String(),
		"resolved", resolved.String(),
		"attr_path", response.AttrPath)

	return &profile.ResolvedPackage{
		AttrPath:   response.AttrPath,
		Ref:        resolved,
		Derivation: response.Derivation,
		Outputs:    response.Outputs,
	}, nil
}

// buildBatchRequest is the JSON document written to the builder's
// standard input.
type buildBatchRequest struct {
	Requests []store.BuildRequest `json:"requests"`
}

// Build invokes the builder command with the whole batch. The
// builder's exit status is the contract: zero means every requested
// output is now a valid store path.
func (c *Client) Build(ctx context.Context, requests []store.BuildRequest) error {
	if len(requests) == 0 {
		return nil
	}

	c.logger.Info("building derivation outputs", "count", len(requests))
	return c.run(ctx, c.buildArgv, buildBatchRequest{Requests: requests}, nil)
}

// run resolves argv[0], executes the command with the request encoded
// as JSON on standard input, and decodes standard output into
// response when response is non-nil. Stderr is captured separately
// and included in error messages.
func (c *Client) run(ctx context.Context, argv []string, request, response any) error {
	binaryPath, err := FindBinary(argv[0])
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", argv[0], err)
	}

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, binaryPath, argv[1:]...)
	command.Stdin = bytes.NewReader(encoded)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return formatError(argv, &stderr, err)
	}
	if response == nil {
		return nil
	}
	if err := json.Unmarshal(stdout.Bytes(), response); err != nil {
		return fmt.Errorf("%s: invalid response: %w", commandString(argv), err)
	}
	return nil
}

// formatError produces an error for a failed external command,
// preferring stderr output (which carries the actual diagnostic) over
// the generic exec error.
func formatError(argv []string, stderr *bytes.Buffer, err error) error {
	stderrText := strings.TrimSpace(stderr.String())
	if stderrText != "" {
		return fmt.Errorf("%s: %s", commandString(argv), stderrText)
	}
	return fmt.Errorf("%s: %w", commandString(argv), err)
}

func commandString(argv []string) string {
	return strings.Join(argv, " ")
}
