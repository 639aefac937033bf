// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package storepath

import (
	"strings"
	"testing"
)

const testDir = Dir("/strata/store")

const validHash = "5f9a0c3d8e2b714626a9c05b1d4f8e73"

func TestParseValid(t *testing.T) {
	s := "/strata/store/" + validHash + "-hello-2.12"
	p, err := testDir.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	if p.HashPart() != validHash {
		t.Errorf("HashPart() = %q, want %q", p.HashPart(), validHash)
	}
	if p.Name() != "hello-2.12" {
		t.Errorf("Name() = %q, want %q", p.Name(), "hello-2.12")
	}
	if p.Base() != validHash+"-hello-2.12" {
		t.Errorf("Base() = %q", p.Base())
	}
}

func TestParseRejects(t *testing.T) {
	cases := []struct {
		name string
		path string
	}{
		{"outside store", "/tmp/" + validHash + "-hello"},
		{"file inside object", "/strata/store/" + validHash + "-hello/bin/hello"},
		{"short hash", "/strata/store/abc123-hello"},
		{"uppercase hash", "/strata/store/" + strings.ToUpper(validHash) + "-hello"},
		{"non-hex hash", "/strata/store/" + strings.Replace(validHash, "a", "z", 1) + "-hello"},
		{"missing separator", "/strata/store/" + validHash + "hello"},
		{"empty name", "/strata/store/" + validHash + "-"},
		{"name with space", "/strata/store/" + validHash + "-hello world"},
		{"name with slash suffix", "/strata/store/" + validHash + "-hello/"},
		{"leading period name", "/strata/store/" + validHash + "-.hidden"},
		{"store dir itself", "/strata/store"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := testDir.Parse(tc.path); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tc.path)
			}
			if testDir.IsStorePath(tc.path) {
				t.Errorf("IsStorePath(%q) = true, want false", tc.path)
			}
		})
	}
}

func TestIsStorePath(t *testing.T) {
	if !testDir.IsStorePath("/strata/store/" + validHash + "-gcc-13.2.0") {
		t.Error("valid store path not recognized")
	}
}

func TestJoin(t *testing.T) {
	p, err := testDir.Join(validHash, "profile")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	want := "/strata/store/" + validHash + "-profile"
	if string(p) != want {
		t.Errorf("Join = %q, want %q", p, want)
	}

	if _, err := testDir.Join("nothex", "profile"); err == nil {
		t.Error("Join accepted an invalid hash part")
	}
	if _, err := testDir.Join(validHash, "bad name"); err == nil {
		t.Error("Join accepted an invalid name")
	}
}

func TestContainsPath(t *testing.T) {
	object := "/strata/store/" + validHash + "-tool"

	p, ok := testDir.ContainsPath(object + "/bin/tool")
	if !ok {
		t.Fatal("ContainsPath rejected a file inside a store object")
	}
	if string(p) != object {
		t.Errorf("ContainsPath = %q, want %q", p, object)
	}

	p, ok = testDir.ContainsPath(object)
	if !ok || string(p) != object {
		t.Errorf("ContainsPath(%q) = %q, %v", object, p, ok)
	}

	if _, ok := testDir.ContainsPath("/etc/passwd"); ok {
		t.Error("ContainsPath accepted a path outside the store")
	}
}

func TestCheckNameCharset(t *testing.T) {
	valid := []string{"a", "hello-2.12", "libstdc++", "rust_1.75", "data?x=1", "A1"}
	for _, name := range valid {
		if err := CheckName(name); err != nil {
			t.Errorf("CheckName(%q): %v", name, err)
		}
	}

	invalid := []string{"", ".hidden", "has space", "tab\tname", "slash/name", strings.Repeat("x", MaxNameLen+1)}
	for _, name := range invalid {
		if err := CheckName(name); err == nil {
			t.Errorf("CheckName(%q) succeeded, want error", name)
		}
	}
}
