// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildenv merges a priority-ordered list of store objects
// into a single symlink farm: a directory tree whose leaves are
// symlinks into the source objects.
//
// Whole directories are linked with a single symlink until a second
// input provides the same directory, at which point the link is split
// into a real directory and both sides are merged into it. Conflicts
// on a leaf are resolved by priority: the input with the lower
// priority number wins. Two inputs at equal priority may only provide
// the same leaf if their symlinks resolve to the same source path
// (the same object listed twice); otherwise the merge fails with a
// *CollisionError.
//
// Given identical inputs in identical order, the produced tree is
// byte-for-byte identical, which the profile engine relies on for
// content addressing.
package buildenv

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// Input is one store object to merge, with its conflict priority.
// Lower numbers win.
type Input struct {
	Path     string
	Priority int
}

// CollisionError reports two equal-priority inputs providing different
// content at the same location in the merged tree.
type CollisionError struct {
	Entry    string // path relative to the merge root
	First    string // source path already linked
	Second   string // conflicting source path
	Priority int
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("collision at %q: %q conflicts with %q (both priority %d)",
		e.Entry, e.Second, e.First, e.Priority)
}

// Build merges inputs into destDir, creating it if needed. Inputs are
// processed in ascending priority; inputs with equal priority keep
// their given relative order.
func Build(destDir string, inputs []Input) error {
	ordered := make([]Input, len(inputs))
	copy(ordered, inputs)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("creating merge root: %w", err)
	}
	b := &builder{priorities: map[string]int{}}
	for _, input := range ordered {
		if err := b.mergeDir(input.Path, destDir, "", input.Priority); err != nil {
			return err
		}
	}
	return nil
}

// builder tracks, per merged entry, the priority of the input that
// placed it. Splitting a directory link re-links its entries at the
// priority recorded for the directory.
type builder struct {
	priorities map[string]int
}

func (b *builder) mergeDir(srcDir, destDir, relDir string, priority int) error {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", srcDir, err)
	}
	for _, entry := range entries {
		srcPath := filepath.Join(srcDir, entry.Name())
		dstPath := filepath.Join(destDir, entry.Name())
		rel := path.Join(relDir, entry.Name())

		srcInfo, err := os.Stat(srcPath)
		if err != nil {
			return fmt.Errorf("stat %s: %w", srcPath, err)
		}
		if srcInfo.IsDir() {
			err = b.mergeSubdir(srcPath, dstPath, rel, priority)
		} else {
			err = b.mergeLeaf(srcPath, dstPath, rel, priority)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) mergeSubdir(srcPath, dstPath, rel string, priority int) error {
	dstInfo, err := os.Lstat(dstPath)
	if os.IsNotExist(err) {
		b.priorities[rel] = priority
		return symlink(srcPath, dstPath)
	}
	if err != nil {
		return fmt.Errorf("lstat %s: %w", dstPath, err)
	}

	if dstInfo.Mode()&os.ModeSymlink != 0 {
		oldTarget, err := os.Readlink(dstPath)
		if err != nil {
			return fmt.Errorf("readlink %s: %w", dstPath, err)
		}
		if oldTarget == srcPath {
			// Same directory from the same object, listed twice.
			return nil
		}
		targetInfo, err := os.Stat(dstPath)
		if err != nil {
			return fmt.Errorf("stat %s: %w", dstPath, err)
		}
		if !targetInfo.IsDir() {
			return b.typeCollision(rel, oldTarget, srcPath, priority)
		}
		// Split the whole-directory link: replace it with a real
		// directory, re-link the old target's entries at the
		// priority the directory was placed with, then merge the
		// new source on top.
		oldPriority := b.priorities[rel]
		if err := os.Remove(dstPath); err != nil {
			return fmt.Errorf("splitting directory link %s: %w", dstPath, err)
		}
		if err := os.Mkdir(dstPath, 0o755); err != nil {
			return fmt.Errorf("splitting directory link %s: %w", dstPath, err)
		}
		if err := b.mergeDir(oldTarget, dstPath, rel, oldPriority); err != nil {
			return err
		}
		return b.mergeDir(srcPath, dstPath, rel, priority)
	}

	if dstInfo.IsDir() {
		return b.mergeDir(srcPath, dstPath, rel, priority)
	}
	return b.typeCollision(rel, dstPath, srcPath, priority)
}

func (b *builder) mergeLeaf(srcPath, dstPath, rel string, priority int) error {
	dstInfo, err := os.Lstat(dstPath)
	if os.IsNotExist(err) {
		b.priorities[rel] = priority
		return symlink(srcPath, dstPath)
	}
	if err != nil {
		return fmt.Errorf("lstat %s: %w", dstPath, err)
	}

	if dstInfo.Mode()&os.ModeSymlink == 0 {
		// A real directory (or split directory) already occupies
		// this name; a file cannot merge with it.
		return b.typeCollision(rel, dstPath, srcPath, priority)
	}
	oldTarget, err := os.Readlink(dstPath)
	if err != nil {
		return fmt.Errorf("readlink %s: %w", dstPath, err)
	}
	if oldTarget == srcPath {
		return nil
	}
	if b.priorities[rel] < priority {
		// An earlier, lower-priority input already placed this
		// leaf; it wins.
		return nil
	}
	return &CollisionError{Entry: rel, First: oldTarget, Second: srcPath, Priority: priority}
}

// typeCollision reports a directory/non-directory clash. These are
// structural and fail regardless of priority.
func (b *builder) typeCollision(rel, first, second string, priority int) error {
	return fmt.Errorf("collision at %q: %q and %q disagree about being a directory (priority %d)",
		rel, first, second, priority)
}

func symlink(target, linkPath string) error {
	if err := os.Symlink(target, linkPath); err != nil {
		return fmt.Errorf("linking %s: %w", linkPath, err)
	}
	return nil
}
