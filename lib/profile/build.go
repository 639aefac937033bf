// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/strata-foundation/strata/lib/buildenv"
	"github.com/strata-foundation/strata/lib/storepath"
)

const (
	// treePriority is the fixed merge priority every element gets.
	// With all inputs at one priority, collisions between elements
	// are always reported instead of silently resolved.
	treePriority = 5

	// treeTag is the identity tag profile trees register under.
	treeTag = "profile"

	// treeName is the name part of every profile tree's store path.
	// Fixed, so the identity is a function of the manifest alone.
	treeName = "profile"
)

// buildTree materializes the manifest's merged tree in a staging
// directory and registers it as a content-addressed store object:
// active elements' store paths in manifest order, all at one
// priority, with the serialized manifest alongside as manifest.json.
// Identical manifests produce identical trees and identities.
func (m *Manager) buildTree(ctx context.Context, manifest *Manifest) (storepath.Path, error) {
	stagingDir, err := os.MkdirTemp("", "strata-profile-")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	var inputs []buildenv.Input
	for _, element := range manifest.Elements {
		if !element.Active {
			continue
		}
		for _, path := range element.StorePaths {
			inputs = append(inputs, buildenv.Input{Path: path, Priority: treePriority})
		}
	}
	if err := buildenv.Build(stagingDir, inputs); err != nil {
		return "", err
	}

	data, err := manifest.Serialize()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(stagingDir, ManifestFileName), data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", ManifestFileName, err)
	}

	references, err := m.references(manifest)
	if err != nil {
		return "", err
	}
	return m.store.AddTree(ctx, stagingDir, treeName, treeTag, references)
}

// references collects the union of every element's store paths,
// active or not. Inactive elements stay in the dependency closure so
// reactivating them never needs a fetch.
func (m *Manager) references(manifest *Manifest) ([]storepath.Path, error) {
	seen := make(map[string]bool)
	var references []storepath.Path
	for _, element := range manifest.Elements {
		for _, raw := range element.StorePaths {
			if seen[raw] {
				continue
			}
			seen[raw] = true
			path, err := m.store.Dir().Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("manifest references %q: %w", raw, err)
			}
			references = append(references, path)
		}
	}
	return references, nil
}
