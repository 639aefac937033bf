// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// maxSuggestDistance is the largest edit distance still offered as a
// "did you mean" suggestion. Three edits covers the usual typos
// (dropped letter, doubled letter, transposition) without suggesting
// unrelated names.
const maxSuggestDistance = 3

// closestName returns the candidate nearest to input by edit
// distance, or "" when none is within maxSuggestDistance.
func closestName(input string, candidates []string) string {
	best := ""
	bestDistance := maxSuggestDistance + 1
	for _, candidate := range candidates {
		if distance := editDistance(input, candidate); distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}
	return best
}

// closestCommand suggests a subcommand name for an unknown input.
func closestCommand(unknown string, commands []*Command) string {
	names := make([]string, len(commands))
	for i, command := range commands {
		names[i] = command.Name
	}
	return closestName(unknown, names)
}

// closestFlag scans args for the first flag flagSet does not define
// and suggests the nearest defined one, with its proper prefix
// ("-x" for shorthands, "--name" otherwise). Returns "" when every
// flag is known or nothing is close.
func closestFlag(args []string, flagSet *pflag.FlagSet) string {
	defined := make(map[string]bool)
	var names []string
	flagSet.VisitAll(func(f *pflag.Flag) {
		defined[f.Name] = true
		names = append(names, f.Name)
	})

	for _, arg := range args {
		name, ok := bareFlagName(arg)
		if !ok || defined[name] {
			continue
		}
		match := closestName(name, names)
		switch {
		case match == "":
			return ""
		case len(match) == 1:
			return "-" + match
		default:
			return "--" + match
		}
	}
	return ""
}

// bareFlagName extracts the flag name from a command-line argument:
// "--output=x" yields "output". Arguments that are not flags (or are
// just dashes, like the "--" terminator) report ok false.
func bareFlagName(arg string) (name string, ok bool) {
	if !strings.HasPrefix(arg, "-") {
		return "", false
	}
	name = strings.TrimLeft(arg, "-")
	name, _, _ = strings.Cut(name, "=")
	return name, name != ""
}

// editDistance is the Levenshtein distance between a and b: the
// minimum number of single-character insertions, deletions, and
// substitutions turning one into the other. One row of the dynamic
// program is kept, with the diagonal carried in a scalar.
func editDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}

	for i := 1; i <= len(a); i++ {
		diagonal := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			substitution := diagonal
			if a[i-1] != b[j-1] {
				substitution++
			}
			diagonal = row[j]
			row[j] = min(substitution, row[j]+1, row[j-1]+1)
		}
	}
	return row[len(b)]
}
