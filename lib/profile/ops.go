// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/strata-foundation/strata/lib/pkgref"
	"github.com/strata-foundation/strata/lib/store"
)

// outputName is the derivation output recorded in the profile.
const outputName = "out"

// ResolvedPackage is the resolver's answer for one package
// reference: the attribute path it selected, the pinned reference,
// and the derivation realizing the package with its named outputs.
// The output paths need not be valid yet; they become valid when the
// derivation is built.
type ResolvedPackage struct {
	AttrPath   string
	Ref        pkgref.Ref
	Derivation string
	Outputs    map[string]string
}

// Resolver pins a package reference and names the derivation that
// builds it. Implementations receive the reference as the user gave
// it (possibly an alias) and are responsible for registry expansion.
type Resolver interface {
	Resolve(ctx context.Context, ref pkgref.Ref, attrPath string) (*ResolvedPackage, error)
}

// Manager applies profile operations. Each mutating operation loads
// the current manifest, transforms a copy, realizes missing packages
// in one batch, builds the merged tree, and commits it as a new
// generation. A failure at any step leaves the profile exactly as it
// was.
type Manager struct {
	store    store.Store
	resolver Resolver
	logger   *slog.Logger
}

// ManagerOptions configures NewManager.
type ManagerOptions struct {
	// Resolver pins references during install and upgrade. Read-only
	// operations and raw store path installs work without one.
	Resolver Resolver

	// Logger receives operation events. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewManager returns a Manager operating on the given store.
func NewManager(st store.Store, opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: st, resolver: opts.Resolver, logger: logger}
}

// Install resolves each installable and appends one element per
// package to the manifest. An installable is either a store path
// (installed as-is, without provenance) or a package reference with
// an optional "#attrpath" fragment. All missing outputs are built in
// one batch before anything is committed; no state changes unless
// every resolution and build succeeds.
func (m *Manager) Install(ctx context.Context, prof *Profile, installables []string) error {
	manifest, err := prof.Manifest()
	if err != nil {
		return err
	}
	next := manifest.Clone()

	var builds []store.BuildRequest
	for _, installable := range installables {
		if path, err := m.store.Dir().Parse(installable); err == nil {
			if !m.store.IsValidPath(path) {
				return fmt.Errorf("store path %s is not valid", path)
			}
			next.Elements = append(next.Elements, Element{
				StorePaths: []string{string(path)},
				Active:     true,
			})
			m.logger.Debug("installing store path", "path", path)
			continue
		}

		ref, attrPath, err := pkgref.ParseInstallable(installable)
		if err != nil {
			return &UnsupportedInstallableError{Installable: installable, Err: err}
		}
		if m.resolver == nil {
			return errors.New("profile manager has no resolver configured")
		}
		resolved, err := m.resolver.Resolve(ctx, ref, attrPath)
		if err != nil {
			return &ResolutionError{Ref: ref, AttrPath: attrPath, Err: err}
		}
		outPath, ok := resolved.Outputs[outputName]
		if !ok {
			return &ResolutionError{Ref: ref, AttrPath: attrPath,
				Err: fmt.Errorf("derivation %s has no %q output", resolved.Derivation, outputName)}
		}

		next.Elements = append(next.Elements, Element{
			StorePaths: []string{outPath},
			Active:     true,
			Source: &Source{
				OriginalRef: ref,
				ResolvedRef: resolved.Ref,
				AttrPath:    resolved.AttrPath,
			},
		})
		builds = append(builds, store.BuildRequest{Derivation: resolved.Derivation, Output: outputName})
		m.logger.Debug("installing package",
			"ref", ref.String(),
			"resolved", resolved.Ref.String(),
			"attr_path", resolved.AttrPath)
	}

	if err := m.store.BuildBatch(ctx, dedupeRequests(builds)); err != nil {
		return err
	}
	return m.commit(ctx, prof, next)
}

// Remove drops every element selected by the matcher tokens and
// commits the result, reporting how many elements were removed and
// kept. Matching nothing is a no-op, not an error: the profile stays
// on its current generation.
func (m *Manager) Remove(ctx context.Context, prof *Profile, tokens []string) (removed, kept int, err error) {
	manifest, err := prof.Manifest()
	if err != nil {
		return 0, 0, err
	}
	matchers, err := ParseMatchers(m.store.Dir(), tokens)
	if err != nil {
		return 0, 0, err
	}

	next := &Manifest{Elements: make([]Element, 0, len(manifest.Elements))}
	for position, element := range manifest.Elements {
		if MatchesAny(matchers, position, element) {
			m.logger.Debug("removing element", "position", position)
			removed++
			continue
		}
		next.Elements = append(next.Elements, element.clone())
	}
	kept = len(next.Elements)

	if removed == 0 {
		return 0, kept, nil
	}
	if err := m.commit(ctx, prof, next); err != nil {
		return 0, 0, err
	}
	return removed, kept, nil
}

// Upgraded describes one element Upgrade replaced.
type Upgraded struct {
	Position int
	AttrPath string
	From     pkgref.Ref
	To       pkgref.Ref
}

// Upgrade re-resolves every matching element with mutable provenance
// and replaces, in place, those that resolve to something new.
// Skipped entirely: elements without provenance, elements whose
// original reference is already pinned, elements the matchers do not
// select, and elements whose re-resolution is unchanged. All builds
// run as one batch after the scan; upgrading nothing is a no-op.
func (m *Manager) Upgrade(ctx context.Context, prof *Profile, tokens []string) ([]Upgraded, error) {
	manifest, err := prof.Manifest()
	if err != nil {
		return nil, err
	}
	matchers, err := ParseMatchers(m.store.Dir(), tokens)
	if err != nil {
		return nil, err
	}

	next := manifest.Clone()
	var builds []store.BuildRequest
	var upgraded []Upgraded
	for position := range next.Elements {
		element := &next.Elements[position]
		if element.Source == nil || element.Source.OriginalRef.Immutable() {
			continue
		}
		if !MatchesAny(matchers, position, *element) {
			continue
		}
		if m.resolver == nil {
			return nil, errors.New("profile manager has no resolver configured")
		}

		resolved, err := m.resolver.Resolve(ctx, element.Source.OriginalRef, element.Source.AttrPath)
		if err != nil {
			return nil, &ResolutionError{
				Ref:      element.Source.OriginalRef,
				AttrPath: element.Source.AttrPath,
				Err:      err,
			}
		}
		if resolved.Ref.String() == element.Source.ResolvedRef.String() {
			m.logger.Debug("element already current",
				"position", position,
				"attr_path", element.Source.AttrPath)
			continue
		}
		outPath, ok := resolved.Outputs[outputName]
		if !ok {
			return nil, &ResolutionError{
				Ref:      element.Source.OriginalRef,
				AttrPath: element.Source.AttrPath,
				Err:      fmt.Errorf("derivation %s has no %q output", resolved.Derivation, outputName),
			}
		}

		upgraded = append(upgraded, Upgraded{
			Position: position,
			AttrPath: element.Source.AttrPath,
			From:     element.Source.ResolvedRef,
			To:       resolved.Ref,
		})
		element.StorePaths = []string{outPath}
		element.Source = &Source{
			OriginalRef: element.Source.OriginalRef,
			ResolvedRef: resolved.Ref,
			AttrPath:    resolved.AttrPath,
		}
		builds = append(builds, store.BuildRequest{Derivation: resolved.Derivation, Output: outputName})
	}

	if len(upgraded) == 0 {
		return nil, nil
	}
	if err := m.store.BuildBatch(ctx, dedupeRequests(builds)); err != nil {
		return nil, err
	}
	if err := m.commit(ctx, prof, next); err != nil {
		return nil, err
	}
	return upgraded, nil
}

// InfoLine formats one element the way the info command prints it:
// position, original reference, resolved reference, store paths.
// References carry their attribute path after "#"; elements without
// provenance print "-" placeholders.
func InfoLine(position int, element Element) string {
	original, resolved := "-", "-"
	if element.Source != nil {
		original = element.Source.OriginalRef.String() + "#" + element.Source.AttrPath
		resolved = element.Source.ResolvedRef.String() + "#" + element.Source.AttrPath
	}
	return fmt.Sprintf("%d %s %s %s", position, original, resolved, strings.Join(element.StorePaths, " "))
}

// commit builds the tree for the new manifest and switches the
// profile to it as a fresh generation. A manifest whose tree is
// identical to the current generation's reuses that generation.
func (m *Manager) commit(ctx context.Context, prof *Profile, manifest *Manifest) error {
	treePath, err := m.buildTree(ctx, manifest)
	if err != nil {
		return err
	}
	generation, switched, err := prof.switchTo(treePath)
	if err != nil {
		return err
	}
	if !switched {
		m.logger.Debug("profile unchanged",
			"profile", prof.Name(),
			"generation", generation)
		return nil
	}
	m.logger.Info("switched profile",
		"profile", prof.Name(),
		"generation", generation,
		"path", treePath)
	return nil
}

// dedupeRequests drops duplicate derivation outputs, keeping
// first-seen order.
func dedupeRequests(requests []store.BuildRequest) []store.BuildRequest {
	seen := make(map[string]bool, len(requests))
	out := make([]store.BuildRequest, 0, len(requests))
	for _, request := range requests {
		key := request.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, request)
	}
	return out
}
