// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// buildTestTree creates a small tree exercising every node kind.
func buildTestTree(t *testing.T, root string) {
	t.Helper()

	mustMkdir(t, filepath.Join(root, "bin"))
	mustMkdir(t, filepath.Join(root, "share", "doc"))
	mustMkdir(t, filepath.Join(root, "empty"))

	mustWrite(t, filepath.Join(root, "bin", "tool"), "#!/bin/sh\necho tool\n", 0o755)
	mustWrite(t, filepath.Join(root, "share", "doc", "README"), "docs\n", 0o644)
	mustWrite(t, filepath.Join(root, "data.bin"), "\x00\x01\x02\x03", 0o644)

	if err := os.Symlink("bin/tool", filepath.Join(root, "tool-link")); err != nil {
		t.Fatal(err)
	}
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatal(err)
	}
}

func mustWrite(t *testing.T, path, contents string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), mode); err != nil {
		t.Fatal(err)
	}
}

func TestRoundTrip(t *testing.T) {
	source := t.TempDir()
	buildTestTree(t, source)

	encoded, err := DumpBytes(source)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}

	restored := filepath.Join(t.TempDir(), "restored")
	if err := Restore(bytes.NewReader(encoded), restored); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	reencoded, err := DumpBytes(restored)
	if err != nil {
		t.Fatalf("Dump of restored tree: %v", err)
	}
	if !bytes.Equal(encoded, reencoded) {
		t.Error("restored tree encodes differently from the original")
	}

	// Spot-check materialization details.
	info, err := os.Lstat(filepath.Join(restored, "bin", "tool"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode()&0o111 == 0 {
		t.Error("executable flag lost through round trip")
	}
	target, err := os.Readlink(filepath.Join(restored, "tool-link"))
	if err != nil {
		t.Fatal(err)
	}
	if target != "bin/tool" {
		t.Errorf("symlink target = %q, want %q", target, "bin/tool")
	}
	if _, err := os.Stat(filepath.Join(restored, "empty")); err != nil {
		t.Errorf("empty directory not restored: %v", err)
	}
}

func TestDumpIgnoresMetadata(t *testing.T) {
	// Two trees with identical content but different permissions
	// (beyond the exec bit) and timestamps must encode identically.
	first := t.TempDir()
	second := t.TempDir()
	buildTestTree(t, first)
	buildTestTree(t, second)

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(second, "data.bin"), past, past); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(filepath.Join(second, "data.bin"), 0o600); err != nil {
		t.Fatal(err)
	}

	a, err := DumpBytes(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := DumpBytes(second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("timestamps or non-exec permission bits leaked into the encoding")
	}
}

func TestDumpSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "single")
	mustWrite(t, path, "lone file\n", 0o644)

	encoded, err := DumpBytes(path)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	restored := filepath.Join(t.TempDir(), "out")
	if err := Restore(bytes.NewReader(encoded), restored); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, err := os.ReadFile(restored)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "lone file\n" {
		t.Errorf("restored contents = %q", got)
	}
}

func TestRestoreRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	w := &writer{w: &buf}
	w.string("other-archive-9")

	err := Restore(&buf, filepath.Join(t.TempDir(), "out"))
	if err == nil {
		t.Fatal("Restore accepted a stream with the wrong magic")
	}
}

// encodeRaw builds an archive stream by hand so tests can produce
// byte sequences Dump would never emit.
func encodeRaw(tokens ...string) []byte {
	var buf bytes.Buffer
	w := &writer{w: &buf}
	for _, tok := range tokens {
		w.string(tok)
	}
	return buf.Bytes()
}

func TestRestoreRejectsEscapingEntryName(t *testing.T) {
	for _, name := range []string{"..", ".", "", "a/b"} {
		stream := encodeRaw(
			Magic,
			tokOpen, tokType, tokDirectory,
			tokEntry, tokOpen, tokName, name, tokNode,
			tokOpen, tokType, tokRegular, tokContents, "x", tokClose,
			tokClose,
			tokClose,
		)
		err := Restore(bytes.NewReader(stream), filepath.Join(t.TempDir(), "out"))
		if err == nil {
			t.Errorf("Restore accepted directory entry name %q", name)
		}
	}
}

func TestRestoreRejectsUnsortedEntries(t *testing.T) {
	file := []string{tokOpen, tokType, tokRegular, tokContents, "x", tokClose}

	var tokens []string
	tokens = append(tokens, Magic, tokOpen, tokType, tokDirectory)
	tokens = append(tokens, tokEntry, tokOpen, tokName, "zebra", tokNode)
	tokens = append(tokens, file...)
	tokens = append(tokens, tokClose)
	tokens = append(tokens, tokEntry, tokOpen, tokName, "aardvark", tokNode)
	tokens = append(tokens, file...)
	tokens = append(tokens, tokClose)
	tokens = append(tokens, tokClose)

	err := Restore(bytes.NewReader(encodeRaw(tokens...)), filepath.Join(t.TempDir(), "out"))
	if err == nil {
		t.Fatal("Restore accepted out-of-order directory entries")
	}
}

func TestDumpMissingPath(t *testing.T) {
	if _, err := DumpBytes(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("Dump succeeded on a missing path")
	}
}

// TestRoundTripProperty checks dump/restore/dump stability over
// randomly generated trees.
func TestRoundTripProperty(t *testing.T) {
	entryName := rapid.StringMatching(`[a-z][a-z0-9._-]{0,11}`)

	rapid.Check(t, func(rt *rapid.T) {
		root := t.TempDir()
		var build func(dir string, depth int)
		build = func(dir string, depth int) {
			names := rapid.SliceOfNDistinct(entryName, 0, 5, rapid.ID[string]).Draw(rt, "names")
			for _, name := range names {
				path := filepath.Join(dir, name)
				switch rapid.IntRange(0, 3).Draw(rt, "kind") {
				case 0: // regular
					contents := rapid.SliceOfN(rapid.Byte(), 0, 64).Draw(rt, "contents")
					if err := os.WriteFile(path, contents, 0o644); err != nil {
						rt.Fatal(err)
					}
				case 1: // executable
					if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
						rt.Fatal(err)
					}
				case 2: // symlink
					target := rapid.StringMatching(`[a-z/.]{1,16}`).Draw(rt, "target")
					if err := os.Symlink(target, path); err != nil {
						rt.Fatal(err)
					}
				case 3: // subdirectory
					if err := os.Mkdir(path, 0o755); err != nil {
						rt.Fatal(err)
					}
					if depth < 3 {
						build(path, depth+1)
					}
				}
			}
		}
		build(root, 0)

		encoded, err := DumpBytes(root)
		if err != nil {
			rt.Fatalf("Dump: %v", err)
		}
		restored := filepath.Join(t.TempDir(), "restored")
		if err := Restore(bytes.NewReader(encoded), restored); err != nil {
			rt.Fatalf("Restore: %v", err)
		}
		reencoded, err := DumpBytes(restored)
		if err != nil {
			rt.Fatalf("Dump of restored tree: %v", err)
		}
		if !bytes.Equal(encoded, reencoded) {
			rt.Error("round trip changed the canonical encoding")
		}
	})
}
