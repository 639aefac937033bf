// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"errors"
	"strings"
	"testing"

	"github.com/strata-foundation/strata/lib/storepath"
)

const testStoreDir = storepath.Dir("/strata/store")

const helloPath = "/strata/store/5f9a0c3d8e2b714626a9c05b1d4f8e73-hello"

func helloElement() Element {
	return Element{
		StorePaths: []string{helloPath},
		Active:     true,
		Source: &Source{
			AttrPath: "hello",
		},
	}
}

func TestParseMatcherClassification(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"0", "position"},
		{"12", "position"},
		{"+3", "position"},
		{helloPath, "path"},
		{"hello", "pattern"},
		{"-1", "pattern"},
		{"hel.*", "pattern"},
		{"/nix/store/abcdef-hello", "pattern"}, // foreign store prefix
		{"/strata/store/nothex-hello", "pattern"},
	}

	for _, tt := range tests {
		matcher, err := ParseMatcher(testStoreDir, tt.token)
		if err != nil {
			t.Fatalf("ParseMatcher(%q): %v", tt.token, err)
		}
		var got string
		switch matcher.(type) {
		case byPosition:
			got = "position"
		case byStorePath:
			got = "path"
		case byAttrPattern:
			got = "pattern"
		}
		if got != tt.want {
			t.Errorf("ParseMatcher(%q) classified as %s, want %s", tt.token, got, tt.want)
		}
		if matcher.String() != tt.token && tt.want != "position" {
			t.Errorf("String() = %q, want original token %q", matcher.String(), tt.token)
		}
	}
}

func TestParseMatcherInvalidPattern(t *testing.T) {
	_, err := ParseMatcher(testStoreDir, "([")
	var patternErr *InvalidPatternError
	if !errors.As(err, &patternErr) {
		t.Fatalf("error = %v, want InvalidPatternError", err)
	}
	if patternErr.Pattern != "([" {
		t.Errorf("Pattern = %q", patternErr.Pattern)
	}
	if !strings.Contains(err.Error(), "([") {
		t.Errorf("error %q does not include the pattern", err)
	}
}

func TestPositionMatcher(t *testing.T) {
	matcher, err := ParseMatcher(testStoreDir, "1")
	if err != nil {
		t.Fatal(err)
	}
	if matcher.matches(0, helloElement()) {
		t.Error("position 1 matched element at position 0")
	}
	if !matcher.matches(1, helloElement()) {
		t.Error("position 1 did not match element at position 1")
	}
}

func TestStorePathMatcher(t *testing.T) {
	matcher, err := ParseMatcher(testStoreDir, helloPath)
	if err != nil {
		t.Fatal(err)
	}
	if !matcher.matches(0, helloElement()) {
		t.Error("store path matcher did not match element containing the path")
	}

	other := Element{StorePaths: []string{"/strata/store/1f0e9d8c7b6a5f4e3d2c1b0a99887766-tool"}, Active: true}
	if matcher.matches(0, other) {
		t.Error("store path matcher matched element without the path")
	}
}

func TestPatternMatcher(t *testing.T) {
	tests := []struct {
		token    string
		attrPath string
		want     bool
	}{
		{"hello", "hello", true},
		{"HELLO", "hello", true}, // case-insensitive
		{"hello", "HeLLo", true},
		{"hell", "hello", false}, // whole-string match only
		{"ello", "hello", false},
		{"hel.*", "hello", true},
		{".*", "anything.at.all", true},
		{"tools\\.hello", "tools.hello", true},
		{"tools.hello", "toolsxhello", true}, // unescaped dot is a wildcard
	}

	for _, tt := range tests {
		matcher, err := ParseMatcher(testStoreDir, tt.token)
		if err != nil {
			t.Fatalf("ParseMatcher(%q): %v", tt.token, err)
		}
		element := helloElement()
		element.Source.AttrPath = tt.attrPath
		if got := matcher.matches(0, element); got != tt.want {
			t.Errorf("pattern %q against %q = %v, want %v", tt.token, tt.attrPath, got, tt.want)
		}
	}
}

// TestPatternNeverMatchesWithoutProvenance pins down the rule that
// patterns select by attribute path only: an element installed by raw
// store path has none, so even the match-all pattern passes it by.
func TestPatternNeverMatchesWithoutProvenance(t *testing.T) {
	matcher, err := ParseMatcher(testStoreDir, ".*")
	if err != nil {
		t.Fatal(err)
	}
	element := Element{StorePaths: []string{helloPath}, Active: true}
	if matcher.matches(0, element) {
		t.Error("pattern matched an element without provenance")
	}
}

func TestMatchesAnyUnion(t *testing.T) {
	matchers, err := ParseMatchers(testStoreDir, []string{"3", "hello"})
	if err != nil {
		t.Fatal(err)
	}

	// Position 0 with attrPath "hello": selected by the pattern.
	if !MatchesAny(matchers, 0, helloElement()) {
		t.Error("union missed pattern match")
	}
	// Position 3 without provenance: selected by the position.
	bare := Element{StorePaths: []string{helloPath}, Active: true}
	if !MatchesAny(matchers, 3, bare) {
		t.Error("union missed position match")
	}
	// Position 1 with a different attrPath: selected by neither.
	other := helloElement()
	other.Source.AttrPath = "world"
	if MatchesAny(matchers, 1, other) {
		t.Error("union matched an unselected element")
	}
}

func TestMatchesAnyEmptySelectsNothing(t *testing.T) {
	if MatchesAny(nil, 0, helloElement()) {
		t.Error("empty matcher list selected an element")
	}
}
