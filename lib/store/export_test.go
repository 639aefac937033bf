// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/strata-foundation/strata/lib/storepath"
)

// exportFixture registers a dependency and a dependent object and
// returns the store plus both paths.
func exportFixture(t *testing.T) (*LocalStore, storepath.Path, storepath.Path) {
	t.Helper()
	s := testStore(t, Options{})
	ctx := context.Background()

	dep, err := s.AddTree(ctx, makeTree(t, map[string]string{"lib/libdep.so": "dependency bytes\n"}), "libdep", "artifact", nil)
	if err != nil {
		t.Fatal(err)
	}
	app, err := s.AddTree(ctx, makeTree(t, map[string]string{"bin/app": "application bytes\n"}), "app", "artifact", []storepath.Path{dep})
	if err != nil {
		t.Fatal(err)
	}
	return s, dep, app
}

// wipeObjects removes every object and metadata record so a
// subsequent import starts from nothing.
func wipeObjects(t *testing.T, s *LocalStore) {
	t.Helper()
	for _, dir := range []string{string(s.Dir()), filepath.Join(s.root, dbDir)} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s, dep, app := exportFixture(t)
	ctx := context.Background()

	var stream bytes.Buffer
	// Exporting only the dependent must pull in its closure.
	if err := s.Export(ctx, &stream, []storepath.Path{app}, ExportOptions{Compression: CompressionZstd}); err != nil {
		t.Fatal(err)
	}

	wipeObjects(t, s)
	if s.IsValidPath(app) {
		t.Fatal("wipe did not take")
	}

	imported, err := s.Import(ctx, bytes.NewReader(stream.Bytes()), ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	// Dependency order: libdep before app.
	if len(imported) != 2 || imported[0] != dep || imported[1] != app {
		t.Fatalf("imported %v, want [%s %s]", imported, dep, app)
	}
	for _, path := range []storepath.Path{dep, app} {
		if err := s.Verify(path); err != nil {
			t.Errorf("Verify(%s) after import: %v", path, err)
		}
	}
}

func TestImportSkipsPresentObjects(t *testing.T) {
	s, _, app := exportFixture(t)
	ctx := context.Background()

	var stream bytes.Buffer
	if err := s.Export(ctx, &stream, []storepath.Path{app}, ExportOptions{}); err != nil {
		t.Fatal(err)
	}
	imported, err := s.Import(ctx, &stream, ImportOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(imported) != 0 {
		t.Errorf("import into an intact store registered %v, want nothing", imported)
	}
}

func TestExportCompressionFallsBack(t *testing.T) {
	s := testStore(t, Options{})
	ctx := context.Background()

	// Random bytes do not compress; the stream must mark the
	// payload CompressionNone and still round-trip.
	noise := make([]byte, 4096)
	if _, err := io.ReadFull(rand.Reader, noise); err != nil {
		t.Fatal(err)
	}
	root := filepath.Join(t.TempDir(), "tree")
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "noise.bin"), noise, 0o644); err != nil {
		t.Fatal(err)
	}
	path, err := s.AddTree(ctx, root, "noise", "artifact", nil)
	if err != nil {
		t.Fatal(err)
	}

	var stream bytes.Buffer
	if err := s.Export(ctx, &stream, []storepath.Path{path}, ExportOptions{Compression: CompressionLZ4}); err != nil {
		t.Fatal(err)
	}
	wipeObjects(t, s)
	if _, err := s.Import(ctx, &stream, ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Verify(path); err != nil {
		t.Errorf("Verify after incompressible round trip: %v", err)
	}
}

func TestSealedExport(t *testing.T) {
	s, _, app := exportFixture(t)
	ctx := context.Background()

	key := make([]byte, SealKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		t.Fatal(err)
	}

	var stream bytes.Buffer
	if err := s.Export(ctx, &stream, []storepath.Path{app}, ExportOptions{Compression: CompressionZstd, SealKey: key}); err != nil {
		t.Fatal(err)
	}

	wipeObjects(t, s)

	// No key: refused before any object is read.
	if _, err := s.Import(ctx, bytes.NewReader(stream.Bytes()), ImportOptions{}); err == nil {
		t.Fatal("sealed stream imported without a key")
	}

	// Wrong key: AEAD authentication failure.
	wrongKey := make([]byte, SealKeySize)
	if _, err := s.Import(ctx, bytes.NewReader(stream.Bytes()), ImportOptions{SealKey: wrongKey}); err == nil {
		t.Fatal("sealed stream imported with the wrong key")
	}

	imported, err := s.Import(ctx, bytes.NewReader(stream.Bytes()), ImportOptions{SealKey: key})
	if err != nil {
		t.Fatal(err)
	}
	if len(imported) != 2 {
		t.Fatalf("imported %d objects, want 2", len(imported))
	}
	if err := s.Verify(app); err != nil {
		t.Errorf("Verify after sealed round trip: %v", err)
	}
}

func TestImportRejectsForeignStream(t *testing.T) {
	s, _, app := exportFixture(t)
	ctx := context.Background()

	var stream bytes.Buffer
	if err := s.Export(ctx, &stream, []storepath.Path{app}, ExportOptions{}); err != nil {
		t.Fatal(err)
	}

	// A store with a different root owns different paths; the stream
	// must be rejected rather than silently re-homed.
	other := testStore(t, Options{})
	if _, err := other.Import(ctx, &stream, ImportOptions{}); err == nil {
		t.Error("import accepted objects belonging to a different store")
	}
}

func TestExportInvalidPath(t *testing.T) {
	s := testStore(t, Options{})
	ghost := storepath.Path(string(s.Dir()) + "/5f9a0c3d8e2b714626a9c05b1d4f8e73-ghost")

	var stream bytes.Buffer
	if err := s.Export(context.Background(), &stream, []storepath.Path{ghost}, ExportOptions{}); err == nil {
		t.Error("Export of an unregistered path succeeded")
	}
}

func TestReadSealKey(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "seal.key")
	if err := os.WriteFile(keyPath, []byte("5f9a0c3d8e2b714626a9c05b1d4f8e735f9a0c3d8e2b714626a9c05b1d4f8e73\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	key, err := ReadSealKey(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(key) != SealKeySize {
		t.Errorf("key is %d bytes, want %d", len(key), SealKeySize)
	}

	short := filepath.Join(dir, "short.key")
	if err := os.WriteFile(short, []byte("abcd"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSealKey(short); err == nil {
		t.Error("ReadSealKey accepted a short key")
	}
}
