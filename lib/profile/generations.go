// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/strata-foundation/strata/lib/storepath"
)

// Profile is an explicit handle on one named profile: a directory of
// numbered generation links plus a current link switched atomically.
//
//	<dir>/<name>          → <name>-<N>-link        (relative)
//	<dir>/<name>-<N>-link → /strata/store/<hash>-profile
//
// Every operation receives the Profile it acts on; nothing about the
// handle is ambient.
type Profile struct {
	dir  string
	name string
}

// linkSuffix terminates every generation link name.
const linkSuffix = "-link"

// OpenProfile returns a handle on the named profile under dir,
// creating dir if needed. The profile itself has no generation until
// the first operation commits one.
func OpenProfile(dir, name string) (*Profile, error) {
	if name == "" {
		return nil, errors.New("profile name is empty")
	}
	if strings.ContainsRune(name, '/') {
		return nil, fmt.Errorf("profile name %q contains a path separator", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating profile directory: %w", err)
	}
	return &Profile{dir: dir, name: name}, nil
}

// Name returns the profile's name.
func (p *Profile) Name() string { return p.name }

// CurrentLink returns the path of the current-generation symlink.
func (p *Profile) CurrentLink() string { return filepath.Join(p.dir, p.name) }

func (p *Profile) generationLink(number int) string {
	return filepath.Join(p.dir, fmt.Sprintf("%s-%d%s", p.name, number, linkSuffix))
}

// parseGenerationLink extracts the generation number from a link name
// like "<name>-12-link".
func (p *Profile) parseGenerationLink(base string) (int, bool) {
	rest, ok := strings.CutPrefix(base, p.name+"-")
	if !ok {
		return 0, false
	}
	digits, ok := strings.CutSuffix(rest, linkSuffix)
	if !ok {
		return 0, false
	}
	number, err := strconv.Atoi(digits)
	if err != nil || number < 1 {
		return 0, false
	}
	return number, true
}

// CurrentGeneration returns the number the current link points at, or
// 0 when the profile has no generation yet.
func (p *Profile) CurrentGeneration() (int, error) {
	target, err := os.Readlink(p.CurrentLink())
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading profile link: %w", err)
	}
	number, ok := p.parseGenerationLink(filepath.Base(target))
	if !ok {
		return 0, fmt.Errorf("profile link %s points at %q, not a generation link", p.CurrentLink(), target)
	}
	return number, nil
}

// TreePath returns the store path of the current generation's tree,
// or "" when the profile has no generation yet.
func (p *Profile) TreePath() (string, error) {
	resolved, err := filepath.EvalSymlinks(p.CurrentLink())
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolving profile link: %w", err)
	}
	return resolved, nil
}

// Manifest loads the current generation's manifest. A profile without
// generations has an empty manifest.
func (p *Profile) Manifest() (*Manifest, error) {
	treePath, err := p.TreePath()
	if err != nil {
		return nil, err
	}
	if treePath == "" {
		return &Manifest{}, nil
	}
	return ReadManifest(filepath.Join(treePath, ManifestFileName))
}

// Generation is one committed profile state.
type Generation struct {
	Number  int
	Path    string
	Created time.Time
	Current bool
}

// Generations lists the profile's generations in ascending order.
func (p *Profile) Generations() ([]Generation, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("reading profile directory: %w", err)
	}
	current, err := p.CurrentGeneration()
	if err != nil {
		return nil, err
	}

	var generations []Generation
	for _, entry := range entries {
		number, ok := p.parseGenerationLink(entry.Name())
		if !ok {
			continue
		}
		linkPath := filepath.Join(p.dir, entry.Name())
		target, err := os.Readlink(linkPath)
		if err != nil {
			return nil, fmt.Errorf("reading generation link %s: %w", linkPath, err)
		}
		info, err := os.Lstat(linkPath)
		if err != nil {
			return nil, fmt.Errorf("inspecting generation link %s: %w", linkPath, err)
		}
		generations = append(generations, Generation{
			Number:  number,
			Path:    target,
			Created: info.ModTime(),
			Current: number == current,
		})
	}
	slices.SortFunc(generations, func(a, b Generation) int {
		return a.Number - b.Number
	})
	return generations, nil
}

// switchTo makes treePath the profile's newest generation and points
// the current link at it. When the current generation already holds
// that tree, no new generation is created. Returns the generation
// number and whether a switch happened.
func (p *Profile) switchTo(treePath storepath.Path) (int, bool, error) {
	generations, err := p.Generations()
	if err != nil {
		return 0, false, err
	}
	for _, generation := range generations {
		if generation.Current && generation.Path == string(treePath) {
			return generation.Number, false, nil
		}
	}

	next := 1
	if n := len(generations); n > 0 {
		next = generations[n-1].Number + 1
	}
	link := p.generationLink(next)
	if err := os.Symlink(string(treePath), link); err != nil {
		return 0, false, fmt.Errorf("creating generation link: %w", err)
	}
	if err := atomicSymlink(filepath.Base(link), p.CurrentLink()); err != nil {
		os.Remove(link)
		return 0, false, err
	}
	return next, true, nil
}

// atomicSymlink creates or replaces a symlink atomically by creating
// a temporary link and renaming it over the target.
func atomicSymlink(source, target string) error {
	tempPath := target + ".new"
	os.Remove(tempPath) // leftover from a previous interrupted switch
	if err := os.Symlink(source, tempPath); err != nil {
		return fmt.Errorf("creating symlink %s -> %s: %w", tempPath, source, err)
	}
	if err := os.Rename(tempPath, target); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming %s -> %s: %w", tempPath, target, err)
	}
	return nil
}
