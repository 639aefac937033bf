// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"regexp"
	"slices"
	"strconv"

	"github.com/strata-foundation/strata/lib/storepath"
)

// Matcher selects manifest elements for remove and upgrade. A token
// is classified once, in this order:
//
//   - a non-negative integer selects the element at that position
//   - a syntactically valid store path selects elements whose store
//     path set contains it exactly
//   - anything else is a case-insensitive pattern accepted only when
//     it matches an element's whole attribute path; elements without
//     provenance have no attribute path and never match
//
// The variant set is closed: matches is unexported, so no new
// matcher kinds can appear outside this package.
type Matcher interface {
	matches(position int, element Element) bool

	// String returns the token the matcher was built from.
	String() string
}

// ParseMatcher classifies one token. dir supplies the store-path
// syntax check for the middle variant; classification never consults
// the store's contents.
func ParseMatcher(dir storepath.Dir, token string) (Matcher, error) {
	if position, err := strconv.Atoi(token); err == nil && position >= 0 {
		return byPosition{position: position}, nil
	}
	if path, err := dir.Parse(token); err == nil {
		return byStorePath{path: path}, nil
	}
	pattern, err := regexp.Compile(`(?i)\A(?:` + token + `)\z`)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: token, Err: err}
	}
	return byAttrPattern{token: token, pattern: pattern}, nil
}

// ParseMatchers classifies every token, failing on the first invalid
// one. An empty token list yields an empty matcher list.
func ParseMatchers(dir storepath.Dir, tokens []string) ([]Matcher, error) {
	matchers := make([]Matcher, 0, len(tokens))
	for _, token := range tokens {
		matcher, err := ParseMatcher(dir, token)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, matcher)
	}
	return matchers, nil
}

// MatchesAny reports whether any matcher selects the element at the
// given position. An empty matcher list selects nothing, never
// everything.
func MatchesAny(matchers []Matcher, position int, element Element) bool {
	for _, matcher := range matchers {
		if matcher.matches(position, element) {
			return true
		}
	}
	return false
}

type byPosition struct {
	position int
}

func (m byPosition) matches(position int, _ Element) bool {
	return position == m.position
}

func (m byPosition) String() string { return strconv.Itoa(m.position) }

type byStorePath struct {
	path storepath.Path
}

func (m byStorePath) matches(_ int, element Element) bool {
	return slices.Contains(element.StorePaths, string(m.path))
}

func (m byStorePath) String() string { return string(m.path) }

type byAttrPattern struct {
	token   string
	pattern *regexp.Regexp
}

func (m byAttrPattern) matches(_ int, element Element) bool {
	return element.Source != nil && m.pattern.MatchString(element.Source.AttrPath)
}

func (m byAttrPattern) String() string { return m.token }
