// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/strata-foundation/strata/lib/pkgref"
)

func mustRef(t *testing.T, raw string) pkgref.Ref {
	t.Helper()
	ref, err := pkgref.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return ref
}

const sampleManifest = `{
	"version": 1,
	"elements": [
		{
			"storePaths": ["/strata/store/5f9a0c3d8e2b714626a9c05b1d4f8e73-hello"],
			"active": true,
			"originalUri": "git:https://example.org/pkgs?ref=main",
			"uri": "git:https://example.org/pkgs?ref=main&rev=0123456789abcdef",
			"attrPath": "hello"
		},
		{
			"storePaths": ["/strata/store/1f0e9d8c7b6a5f4e3d2c1b0a99887766-tool"],
			"active": false
		}
	]
}`

func TestParseManifest(t *testing.T) {
	manifest, err := ParseManifest([]byte(sampleManifest), "manifest.json")
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if len(manifest.Elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(manifest.Elements))
	}

	first := manifest.Elements[0]
	if !first.Active {
		t.Error("first element should be active")
	}
	if first.Source == nil {
		t.Fatal("first element should have provenance")
	}
	if got := first.Source.OriginalRef.String(); got != "git:https://example.org/pkgs?ref=main" {
		t.Errorf("OriginalRef = %q", got)
	}
	if !first.Source.ResolvedRef.Immutable() {
		t.Error("resolved reference should be pinned")
	}
	if first.Source.AttrPath != "hello" {
		t.Errorf("AttrPath = %q", first.Source.AttrPath)
	}

	second := manifest.Elements[1]
	if second.Active {
		t.Error("second element should be inactive")
	}
	if second.Source != nil {
		t.Error("second element should have no provenance")
	}
}

func TestParseManifestRejectsVersion(t *testing.T) {
	for _, raw := range []string{
		`{"version": 2, "elements": []}`,
		`{"elements": []}`,
	} {
		_, err := ParseManifest([]byte(raw), "/profiles/default/manifest.json")
		var versionErr *UnsupportedVersionError
		if !errors.As(err, &versionErr) {
			t.Fatalf("ParseManifest(%s) error = %v, want UnsupportedVersionError", raw, err)
		}
		if versionErr.Path != "/profiles/default/manifest.json" {
			t.Errorf("Path = %q", versionErr.Path)
		}
		if !strings.Contains(err.Error(), "/profiles/default/manifest.json") {
			t.Errorf("error %q does not name the manifest path", err)
		}
		if !strings.Contains(err.Error(), fmt.Sprint(versionErr.Version)) {
			t.Errorf("error %q does not name the version", err)
		}
	}
}

func TestParseManifestRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "not json",
			raw:  "not a manifest",
		},
		{
			name: "element without store paths",
			raw:  `{"version":1,"elements":[{"storePaths":[],"active":true}]}`,
		},
		{
			name: "partial provenance original only",
			raw:  `{"version":1,"elements":[{"storePaths":["/s/a-b"],"active":true,"originalUri":"git:https://example.org/p?ref=main"}]}`,
		},
		{
			name: "partial provenance attr only",
			raw:  `{"version":1,"elements":[{"storePaths":["/s/a-b"],"active":true,"attrPath":"hello"}]}`,
		},
		{
			name: "invalid original reference",
			raw:  `{"version":1,"elements":[{"storePaths":["/s/a-b"],"active":true,"originalUri":"git:not-a-url","uri":"git:https://example.org/p?ref=main&rev=0123456789abcdef","attrPath":"x"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(tt.raw), "manifest.json"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestReadManifestMissing(t *testing.T) {
	manifest, err := ReadManifest(filepath.Join(t.TempDir(), "manifest.json"))
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if len(manifest.Elements) != 0 {
		t.Errorf("missing manifest should be empty, got %d elements", len(manifest.Elements))
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	manifest := &Manifest{Elements: []Element{
		{
			StorePaths: []string{"/strata/store/5f9a0c3d8e2b714626a9c05b1d4f8e73-hello"},
			Active:     true,
			Source: &Source{
				OriginalRef: mustRef(t, "git:https://example.org/pkgs?ref=main"),
				ResolvedRef: mustRef(t, "git:https://example.org/pkgs?ref=main&rev=0123456789abcdef"),
				AttrPath:    "hello",
			},
		},
		{
			StorePaths: []string{
				"/strata/store/1f0e9d8c7b6a5f4e3d2c1b0a99887766-tool",
				"/strata/store/2e1d0c9b8a7f6e5d4c3b2a1909887766-tool-doc",
			},
			Active: false,
		},
	}}

	data, err := manifest.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	reparsed, err := ParseManifest(data, "manifest.json")
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if !reflect.DeepEqual(manifest, reparsed) {
		t.Errorf("round trip changed manifest:\n  before %+v\n  after  %+v", manifest, reparsed)
	}

	again, err := reparsed.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if string(data) != string(again) {
		t.Errorf("serialization is not deterministic:\n  first  %s\n  second %s", data, again)
	}
}

// TestSerializeProvenanceWithoutAttrPath covers the lenient corner of
// the all-or-nothing provenance rule: both references present, empty
// attribute path.
func TestSerializeProvenanceWithoutAttrPath(t *testing.T) {
	manifest := &Manifest{Elements: []Element{{
		StorePaths: []string{"/strata/store/5f9a0c3d8e2b714626a9c05b1d4f8e73-hello"},
		Active:     true,
		Source: &Source{
			OriginalRef: mustRef(t, "git:https://example.org/pkgs?ref=main"),
			ResolvedRef: mustRef(t, "git:https://example.org/pkgs?ref=main&rev=0123456789abcdef"),
		},
	}}}

	data, err := manifest.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	reparsed, err := ParseManifest(data, "manifest.json")
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if reparsed.Elements[0].Source == nil {
		t.Fatal("provenance lost in round trip")
	}
	if got := reparsed.Elements[0].Source.AttrPath; got != "" {
		t.Errorf("AttrPath = %q, want empty", got)
	}
}

func TestSerializeNormalizesStorePaths(t *testing.T) {
	manifest := &Manifest{Elements: []Element{{
		StorePaths: []string{"/s/b-pkg", "/s/a-pkg", "/s/b-pkg"},
		Active:     true,
	}}}

	data, err := manifest.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	reparsed, err := ParseManifest(data, "manifest.json")
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	want := []string{"/s/a-pkg", "/s/b-pkg"}
	if !reflect.DeepEqual(reparsed.Elements[0].StorePaths, want) {
		t.Errorf("StorePaths = %v, want %v", reparsed.Elements[0].StorePaths, want)
	}
}

func TestSerializeEmptyManifest(t *testing.T) {
	data, err := (&Manifest{}).Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if got := string(data); got != `{"version":1,"elements":[]}`+"\n" {
		t.Errorf("empty manifest = %q", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	original := &Manifest{Elements: []Element{{
		StorePaths: []string{"/s/a-pkg"},
		Active:     true,
		Source: &Source{
			OriginalRef: mustRef(t, "git:https://example.org/p?ref=main"),
			ResolvedRef: mustRef(t, "git:https://example.org/p?ref=main&rev=0123456789abcdef"),
			AttrPath:    "pkg",
		},
	}}}

	clone := original.Clone()
	clone.Elements[0].StorePaths[0] = "/s/b-other"
	clone.Elements[0].Source.AttrPath = "other"
	clone.Elements[0].Active = false

	if original.Elements[0].StorePaths[0] != "/s/a-pkg" {
		t.Error("clone shares store path slice with original")
	}
	if original.Elements[0].Source.AttrPath != "pkg" {
		t.Error("clone shares provenance with original")
	}
	if !original.Elements[0].Active {
		t.Error("clone shares element state with original")
	}
}

func TestManifestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		elementCount := rapid.IntRange(0, 6).Draw(rt, "elements")
		manifest := &Manifest{Elements: make([]Element, 0, elementCount)}
		for i := 0; i < elementCount; i++ {
			pathCount := rapid.IntRange(1, 3).Draw(rt, fmt.Sprintf("pathCount%d", i))
			paths := make([]string, 0, pathCount)
			for j := 0; j < pathCount; j++ {
				hash := rapid.StringMatching(`[0-9a-f]{32}`).Draw(rt, fmt.Sprintf("hash%d_%d", i, j))
				name := rapid.StringMatching(`[a-z][a-z0-9-]{0,8}`).Draw(rt, fmt.Sprintf("name%d_%d", i, j))
				paths = append(paths, "/strata/store/"+hash+"-"+name)
			}
			element := Element{
				StorePaths: normalizeStorePaths(paths),
				Active:     rapid.Bool().Draw(rt, fmt.Sprintf("active%d", i)),
			}
			if rapid.Bool().Draw(rt, fmt.Sprintf("provenance%d", i)) {
				branch := rapid.StringMatching(`[a-z][a-z0-9.-]{0,8}`).Draw(rt, fmt.Sprintf("branch%d", i))
				rev := rapid.StringMatching(`[0-9a-f]{12,40}`).Draw(rt, fmt.Sprintf("rev%d", i))
				attr := rapid.StringMatching(`[a-z][a-zA-Z0-9.]{0,12}`).Draw(rt, fmt.Sprintf("attr%d", i))
				original, err := pkgref.Parse("git:https://example.org/pkgs?ref=" + branch)
				if err != nil {
					rt.Fatalf("building original ref: %v", err)
				}
				resolved, err := pkgref.Parse("git:https://example.org/pkgs?ref=" + branch + "&rev=" + rev)
				if err != nil {
					rt.Fatalf("building resolved ref: %v", err)
				}
				element.Source = &Source{OriginalRef: original, ResolvedRef: resolved, AttrPath: attr}
			}
			manifest.Elements = append(manifest.Elements, element)
		}

		data, err := manifest.Serialize()
		if err != nil {
			rt.Fatalf("Serialize: %v", err)
		}
		reparsed, err := ParseManifest(data, "manifest.json")
		if err != nil {
			rt.Fatalf("ParseManifest: %v", err)
		}
		if !reflect.DeepEqual(manifest, reparsed) {
			rt.Fatalf("round trip changed manifest:\n  before %+v\n  after  %+v", manifest, reparsed)
		}
	})
}

// TestReadManifestFile exercises the full file path: serialize, write,
// read back.
func TestReadManifestFile(t *testing.T) {
	manifest := &Manifest{Elements: []Element{{
		StorePaths: []string{"/strata/store/5f9a0c3d8e2b714626a9c05b1d4f8e73-hello"},
		Active:     true,
	}}}
	data, err := manifest.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	loaded, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if !reflect.DeepEqual(manifest, loaded) {
		t.Errorf("loaded manifest differs:\n  before %+v\n  after  %+v", manifest, loaded)
	}
}
