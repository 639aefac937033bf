// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive serializes filesystem trees into a canonical byte
// stream and materializes them back. The encoding is the substrate
// for content addressing: two trees with identical content produce
// identical archives, regardless of the order the filesystem happens
// to enumerate entries in, and regardless of timestamps, ownership,
// or permission bits beyond the executable flag.
//
// The format ("strata-archive-1") captures exactly three node kinds:
//
//   - regular files: contents plus an executable flag
//   - symlinks: the literal target string
//   - directories: entries sorted by name, each a (name, node) pair
//
// All strings are framed as a little-endian uint64 length followed by
// the bytes, zero-padded to an 8-byte boundary. Everything else
// (mtimes, uid/gid, extended attributes, hard-link identity) is
// deliberately unrepresentable.
package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Magic is the version-bearing header string of the archive format.
// Changing the format in any way requires a new magic value: archive
// bytes feed content hashes, so two format versions must never
// produce the same stream for different trees.
const Magic = "strata-archive-1"

// Tokens of the archive grammar. These are protocol constants.
const (
	tokOpen       = "("
	tokClose      = ")"
	tokType       = "type"
	tokRegular    = "regular"
	tokExecutable = "executable"
	tokContents   = "contents"
	tokSymlink    = "symlink"
	tokTarget     = "target"
	tokDirectory  = "directory"
	tokEntry      = "entry"
	tokName       = "name"
	tokNode       = "node"
)

// Dump serializes the filesystem tree rooted at fsPath into w using
// the canonical encoding. fsPath may be a regular file, a symlink, or
// a directory. Sockets, devices, and other special files cause an
// error naming the offending path.
func Dump(w io.Writer, fsPath string) error {
	w2 := &writer{w: w}
	w2.string(Magic)
	if err := dumpNode(w2, fsPath); err != nil {
		return err
	}
	return w2.err
}

// DumpBytes is a convenience wrapper that returns the archive as a
// byte slice. Profile trees are small symlink farms; callers
// streaming large trees should use [Dump] with their own writer.
func DumpBytes(fsPath string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Dump(&buf, fsPath); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func dumpNode(w *writer, fsPath string) error {
	info, err := os.Lstat(fsPath)
	if err != nil {
		return fmt.Errorf("archiving %s: %w", fsPath, err)
	}

	w.string(tokOpen)

	switch {
	case info.Mode().IsRegular():
		w.string(tokType)
		w.string(tokRegular)
		if info.Mode()&0o111 != 0 {
			w.string(tokExecutable)
			w.string("")
		}
		contents, err := os.ReadFile(fsPath)
		if err != nil {
			return fmt.Errorf("archiving %s: %w", fsPath, err)
		}
		w.string(tokContents)
		w.bytes(contents)

	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(fsPath)
		if err != nil {
			return fmt.Errorf("archiving %s: %w", fsPath, err)
		}
		w.string(tokType)
		w.string(tokSymlink)
		w.string(tokTarget)
		w.string(target)

	case info.IsDir():
		w.string(tokType)
		w.string(tokDirectory)
		// os.ReadDir returns entries sorted by filename; the encoding
		// depends on that ordering guarantee.
		entries, err := os.ReadDir(fsPath)
		if err != nil {
			return fmt.Errorf("archiving %s: %w", fsPath, err)
		}
		for _, entry := range entries {
			w.string(tokEntry)
			w.string(tokOpen)
			w.string(tokName)
			w.string(entry.Name())
			w.string(tokNode)
			if err := dumpNode(w, filepath.Join(fsPath, entry.Name())); err != nil {
				return err
			}
			w.string(tokClose)
		}

	default:
		return fmt.Errorf("archiving %s: unsupported file type %v", fsPath, info.Mode().Type())
	}

	w.string(tokClose)
	return w.err
}

// writer frames strings into the output, retaining the first error.
type writer struct {
	w   io.Writer
	err error
}

var zeroPad [8]byte

func (w *writer) string(s string) {
	w.bytes([]byte(s))
}

func (w *writer) bytes(b []byte) {
	if w.err != nil {
		return
	}
	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(len(b)))
	if _, err := w.w.Write(length[:]); err != nil {
		w.err = err
		return
	}
	if _, err := w.w.Write(b); err != nil {
		w.err = err
		return
	}
	if pad := len(b) % 8; pad != 0 {
		if _, err := w.w.Write(zeroPad[:8-pad]); err != nil {
			w.err = err
		}
	}
}

