// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"abc", "abd", 1},
		{"abc", "ab", 1},
		{"ab", "abc", 1},
		{"abc", "bac", 2},
		{"kitten", "sitting", 3},
		{"install", "instal", 1},
		{"profile", "profle", 1},
		{"upgrade", "upgrdae", 2},
		{"remove", "remvoe", 2},
	}

	for _, test := range tests {
		got := editDistance(test.a, test.b)
		if got != test.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
		// Distance is symmetric by definition.
		if reverse := editDistance(test.b, test.a); reverse != got {
			t.Errorf("editDistance(%q, %q) = %d, reversed = %d", test.a, test.b, got, reverse)
		}
	}
}

func TestClosestCommand(t *testing.T) {
	commands := []*Command{
		{Name: "install"},
		{Name: "remove"},
		{Name: "upgrade"},
		{Name: "info"},
		{Name: "history"},
	}

	tests := []struct {
		input string
		want  string
	}{
		{"instal", "install"},
		{"remvoe", "remove"},
		{"upgrad", "upgrade"},
		{"nfo", "info"},
		{"histroy", "history"},
		{"zzzzzzzzz", ""}, // nothing within range
		{"m", ""},         // everything too far away
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			if got := closestCommand(test.input, commands); got != test.want {
				t.Errorf("closestCommand(%q) = %q, want %q", test.input, got, test.want)
			}
		})
	}
}

func TestClosestFlag(t *testing.T) {
	makeFlagSet := func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flagSet.String("profile", "", "")
		flagSet.String("output", "", "")
		flagSet.String("compression", "", "")
		flagSet.String("seal-key", "", "")
		flagSet.Bool("json", false, "")
		return flagSet
	}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"typo with double dash", []string{"--profle"}, "--profile"},
		{"typo with single dash", []string{"-profle"}, "--profile"},
		{"missing hyphen", []string{"--sealkey"}, "--seal-key"},
		{"compression typo", []string{"--compresion"}, "--compression"},
		{"nothing close", []string{"--zzzzzzzzz"}, ""},
		{"no flags at all", []string{"positional"}, ""},
		{"typo with value attached", []string{"--profle=tools"}, "--profile"},
		{"known flags skipped", []string{"--json", "--outpt"}, "--output"},
		{"bare terminator ignored", []string{"--"}, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := closestFlag(test.args, makeFlagSet()); got != test.want {
				t.Errorf("closestFlag(%v) = %q, want %q", test.args, got, test.want)
			}
		})
	}
}
