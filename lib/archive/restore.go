// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxStringLen bounds a single framed string (and therefore a single
// file's contents) during restore. Guards against corrupt or hostile
// length prefixes allocating unbounded memory.
const MaxStringLen = 1 << 32

// Restore materializes an archive stream from r at destPath, which
// must not exist. Regular files are created mode 0444 (0555 when the
// executable flag is set) and directories 0755: store objects are
// immutable, so everything lands read-only.
func Restore(r io.Reader, destPath string) error {
	rd := &reader{r: r}
	magic, err := rd.string()
	if err != nil {
		return fmt.Errorf("reading archive magic: %w", err)
	}
	if magic != Magic {
		return fmt.Errorf("bad archive magic %q, want %q", magic, Magic)
	}
	return restoreNode(rd, destPath)
}

func restoreNode(rd *reader, destPath string) error {
	if err := rd.expect(tokOpen); err != nil {
		return err
	}
	if err := rd.expect(tokType); err != nil {
		return err
	}
	kind, err := rd.string()
	if err != nil {
		return err
	}

	switch kind {
	case tokRegular:
		return restoreRegular(rd, destPath)
	case tokSymlink:
		return restoreSymlink(rd, destPath)
	case tokDirectory:
		return restoreDirectory(rd, destPath)
	default:
		return fmt.Errorf("archive: unknown node type %q", kind)
	}
}

func restoreRegular(rd *reader, destPath string) error {
	executable := false

	tok, err := rd.string()
	if err != nil {
		return err
	}
	if tok == tokExecutable {
		executable = true
		// The executable marker carries an empty string value.
		if empty, err := rd.string(); err != nil {
			return err
		} else if empty != "" {
			return fmt.Errorf("archive: executable marker carries unexpected value %q", empty)
		}
		tok, err = rd.string()
		if err != nil {
			return err
		}
	}
	if tok != tokContents {
		return fmt.Errorf("archive: expected %q, got %q", tokContents, tok)
	}

	contents, err := rd.bytes()
	if err != nil {
		return err
	}

	mode := os.FileMode(0o444)
	if executable {
		mode = 0o555
	}
	if err := os.WriteFile(destPath, contents, mode); err != nil {
		return fmt.Errorf("restoring %s: %w", destPath, err)
	}
	// WriteFile's mode is filtered by the umask; fix up explicitly.
	if err := os.Chmod(destPath, mode); err != nil {
		return fmt.Errorf("restoring %s: %w", destPath, err)
	}
	return rd.expect(tokClose)
}

func restoreSymlink(rd *reader, destPath string) error {
	if err := rd.expect(tokTarget); err != nil {
		return err
	}
	target, err := rd.string()
	if err != nil {
		return err
	}
	if err := os.Symlink(target, destPath); err != nil {
		return fmt.Errorf("restoring %s: %w", destPath, err)
	}
	return rd.expect(tokClose)
}

func restoreDirectory(rd *reader, destPath string) error {
	if err := os.Mkdir(destPath, 0o755); err != nil {
		return fmt.Errorf("restoring %s: %w", destPath, err)
	}

	previousName := ""
	for {
		tok, err := rd.string()
		if err != nil {
			return err
		}
		if tok == tokClose {
			return nil
		}
		if tok != tokEntry {
			return fmt.Errorf("archive: expected %q or %q, got %q", tokEntry, tokClose, tok)
		}
		if err := rd.expect(tokOpen); err != nil {
			return err
		}
		if err := rd.expect(tokName); err != nil {
			return err
		}
		name, err := rd.string()
		if err != nil {
			return err
		}
		if err := checkEntryName(name); err != nil {
			return err
		}
		// Canonical archives list entries in strictly increasing name
		// order; accepting anything else would let two different
		// streams restore to the same tree.
		if name <= previousName {
			return fmt.Errorf("archive: directory entry %q out of order after %q", name, previousName)
		}
		previousName = name
		if err := rd.expect(tokNode); err != nil {
			return err
		}
		if err := restoreNode(rd, filepath.Join(destPath, name)); err != nil {
			return err
		}
		if err := rd.expect(tokClose); err != nil {
			return err
		}
	}
}

// checkEntryName rejects directory entry names that would escape the
// restore root or collide with path syntax.
func checkEntryName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("archive: invalid directory entry name %q", name)
	}
	if strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("archive: invalid directory entry name %q", name)
	}
	return nil
}

// reader decodes framed strings from the input stream.
type reader struct {
	r io.Reader
}

func (rd *reader) bytes() ([]byte, error) {
	var length [8]byte
	if _, err := io.ReadFull(rd.r, length[:]); err != nil {
		return nil, fmt.Errorf("archive: reading string length: %w", err)
	}
	n := binary.LittleEndian.Uint64(length[:])
	if n > MaxStringLen {
		return nil, fmt.Errorf("archive: string length %d exceeds limit", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(rd.r, data); err != nil {
		return nil, fmt.Errorf("archive: reading string body: %w", err)
	}
	if pad := n % 8; pad != 0 {
		var padding [8]byte
		if _, err := io.ReadFull(rd.r, padding[:8-pad]); err != nil {
			return nil, fmt.Errorf("archive: reading string padding: %w", err)
		}
		for _, b := range padding[:8-pad] {
			if b != 0 {
				return nil, fmt.Errorf("archive: nonzero padding byte")
			}
		}
	}
	return data, nil
}

func (rd *reader) string() (string, error) {
	b, err := rd.bytes()
	return string(b), err
}

func (rd *reader) expect(want string) error {
	got, err := rd.string()
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("archive: expected %q, got %q", want, got)
	}
	return nil
}
