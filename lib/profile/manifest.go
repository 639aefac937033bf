// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/strata-foundation/strata/lib/pkgref"
)

// manifestVersion is the manifest schema version this engine reads
// and writes. Any other version aborts before a single element is
// looked at.
const manifestVersion = 1

// ManifestFileName is the name the serialized manifest travels under
// inside each profile tree.
const ManifestFileName = "manifest.json"

// Source records an element's provenance: the reference the user gave
// at install time, the pinned reference it resolved to, and the
// attribute path selecting the package within the referenced set.
// Elements installed by raw store path have no Source.
type Source struct {
	OriginalRef pkgref.Ref
	ResolvedRef pkgref.Ref
	AttrPath    string
}

// Element is one installed unit: the store paths it contributes, an
// active flag, and optional provenance. Inactive elements keep their
// place in the manifest and its dependency closure but contribute
// nothing to the merged tree.
type Element struct {
	StorePaths []string
	Active     bool
	Source     *Source
}

// clone returns a copy sharing nothing with e.
func (e Element) clone() Element {
	e.StorePaths = slices.Clone(e.StorePaths)
	if e.Source != nil {
		source := *e.Source
		e.Source = &source
	}
	return e
}

// Manifest is an ordered list of elements. Order is significant: it
// defines positional matching, listing order, and the merge order of
// the built tree, and survives every operation except removal and
// append.
type Manifest struct {
	Elements []Element
}

// Clone returns a deep copy. Operations transform a clone and leave
// the loaded manifest untouched until the new tree is committed.
func (m *Manifest) Clone() *Manifest {
	out := &Manifest{Elements: make([]Element, len(m.Elements))}
	for i, element := range m.Elements {
		out.Elements[i] = element.clone()
	}
	return out
}

// manifestJSON is the on-disk form. The key names are part of the v1
// format: uri is the resolved reference, originalUri the one the user
// gave.
type manifestJSON struct {
	Version  int           `json:"version"`
	Elements []elementJSON `json:"elements"`
}

type elementJSON struct {
	StorePaths  []string `json:"storePaths"`
	Active      bool     `json:"active"`
	OriginalURI string   `json:"originalUri,omitempty"`
	URI         string   `json:"uri,omitempty"`
	AttrPath    string   `json:"attrPath,omitempty"`
}

// ParseManifest decodes manifest bytes. The path is used in error
// messages only; use ReadManifest to load a file.
func ParseManifest(data []byte, path string) (*Manifest, error) {
	var wire manifestJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if wire.Version != manifestVersion {
		return nil, &UnsupportedVersionError{Path: path, Version: wire.Version}
	}

	manifest := &Manifest{Elements: make([]Element, 0, len(wire.Elements))}
	for i, wireElement := range wire.Elements {
		if len(wireElement.StorePaths) == 0 {
			return nil, fmt.Errorf("manifest %s: element %d has no store paths", path, i)
		}
		element := Element{
			StorePaths: normalizeStorePaths(wireElement.StorePaths),
			Active:     wireElement.Active,
		}
		switch {
		case wireElement.OriginalURI == "" && wireElement.URI == "" && wireElement.AttrPath == "":
			// No provenance: installed by raw store path.
		case wireElement.OriginalURI != "" && wireElement.URI != "":
			original, err := pkgref.Parse(wireElement.OriginalURI)
			if err != nil {
				return nil, fmt.Errorf("manifest %s: element %d: invalid originalUri: %w", path, i, err)
			}
			resolved, err := pkgref.Parse(wireElement.URI)
			if err != nil {
				return nil, fmt.Errorf("manifest %s: element %d: invalid uri: %w", path, i, err)
			}
			element.Source = &Source{
				OriginalRef: original,
				ResolvedRef: resolved,
				AttrPath:    wireElement.AttrPath,
			}
		default:
			return nil, fmt.Errorf("manifest %s: element %d has partial provenance (originalUri, uri, and attrPath travel together)",
				path, i)
		}
		manifest.Elements = append(manifest.Elements, element)
	}
	return manifest, nil
}

// ReadManifest loads the manifest at path. A missing file is an empty
// manifest: profiles start empty and the file appears with the first
// generation.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data, path)
}

// Serialize encodes the manifest deterministically: fixed key order,
// sorted store paths, compact encoding. Parsing the result yields an
// equal manifest, and equal manifests always serialize to identical
// bytes.
func (m *Manifest) Serialize() ([]byte, error) {
	wire := manifestJSON{
		Version:  manifestVersion,
		Elements: make([]elementJSON, 0, len(m.Elements)),
	}
	for _, element := range m.Elements {
		wireElement := elementJSON{
			StorePaths: normalizeStorePaths(element.StorePaths),
			Active:     element.Active,
		}
		if element.Source != nil {
			wireElement.OriginalURI = element.Source.OriginalRef.String()
			wireElement.URI = element.Source.ResolvedRef.String()
			wireElement.AttrPath = element.Source.AttrPath
		}
		wire.Elements = append(wire.Elements, wireElement)
	}
	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// normalizeStorePaths returns a sorted copy with duplicates removed,
// so store path sets compare and serialize deterministically.
func normalizeStorePaths(paths []string) []string {
	out := slices.Clone(paths)
	slices.Sort(out)
	return slices.Compact(out)
}
