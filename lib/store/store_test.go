// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/strata-foundation/strata/lib/storepath"
)

func testStore(t *testing.T, opts Options) *LocalStore {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s, err := Open(t.TempDir(), opts)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// makeTree writes a small tree and returns its root.
func makeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "tree")
	for rel, contents := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestAddTreeAndInfo(t *testing.T) {
	s := testStore(t, Options{})
	ctx := context.Background()
	tree := makeTree(t, map[string]string{"bin/hello": "#!/bin/sh\necho hello\n"})

	path, err := s.AddTree(ctx, tree, "hello-2.12", "artifact", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !s.IsValidPath(path) {
		t.Fatalf("%s not valid after AddTree", path)
	}
	if path.Name() != "hello-2.12" {
		t.Errorf("path name = %q, want hello-2.12", path.Name())
	}
	if _, err := s.Dir().Parse(string(path)); err != nil {
		t.Errorf("AddTree produced a path outside its own store: %v", err)
	}

	info, err := s.Info(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size <= 0 {
		t.Errorf("recorded size = %d, want > 0", info.Size)
	}
	if len(info.ContentHash) != 32 {
		t.Errorf("content hash is %d bytes, want 32", len(info.ContentHash))
	}

	// The materialized object carries canonical permissions.
	fileInfo, err := os.Stat(filepath.Join(string(path), "bin", "hello"))
	if err != nil {
		t.Fatal(err)
	}
	if fileInfo.Mode().Perm() != 0o444 {
		t.Errorf("materialized file mode = %v, want 0444", fileInfo.Mode().Perm())
	}
}

func TestAddTreeIdempotent(t *testing.T) {
	s := testStore(t, Options{})
	ctx := context.Background()
	tree := makeTree(t, map[string]string{"data": "payload\n"})

	first, err := s.AddTree(ctx, tree, "pkg", "artifact", nil)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.AddTree(ctx, tree, "pkg", "artifact", nil)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("re-registering identical content moved the path: %s -> %s", first, second)
	}
}

func TestIdentityDependsOnEveryInput(t *testing.T) {
	s := testStore(t, Options{})
	ctx := context.Background()
	tree := makeTree(t, map[string]string{"data": "payload\n"})

	base, err := s.AddTree(ctx, tree, "pkg", "artifact", nil)
	if err != nil {
		t.Fatal(err)
	}
	otherName, err := s.AddTree(ctx, tree, "pkg-renamed", "artifact", nil)
	if err != nil {
		t.Fatal(err)
	}
	if otherName == base {
		t.Error("different name should produce a different identity")
	}
	otherTag, err := s.AddTree(ctx, tree, "pkg", "profile", nil)
	if err != nil {
		t.Fatal(err)
	}
	if otherTag == base {
		t.Error("different tag should produce a different identity")
	}
	withRef, err := s.AddTree(ctx, tree, "pkg", "artifact", []storepath.Path{base})
	if err != nil {
		t.Fatal(err)
	}
	if withRef == base {
		t.Error("different reference set should produce a different identity")
	}
}

func TestAddTreeRejectsInvalidReference(t *testing.T) {
	s := testStore(t, Options{})
	tree := makeTree(t, map[string]string{"data": "x"})
	bogus := storepath.Path(string(s.Dir()) + "/5f9a0c3d8e2b714626a9c05b1d4f8e73-ghost")

	if _, err := s.AddTree(context.Background(), tree, "pkg", "artifact", []storepath.Path{bogus}); err == nil {
		t.Error("AddTree accepted an unregistered reference")
	}
}

func TestMakePathReferenceOrderIndependent(t *testing.T) {
	dir := storepath.Dir("/strata/store")
	hash := HashArchive([]byte("content"))
	a := storepath.Path("/strata/store/aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa-a")
	b := storepath.Path("/strata/store/bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb-b")

	forward, err := MakePath(dir, "profile", hash, "profile", []storepath.Path{a, b})
	if err != nil {
		t.Fatal(err)
	}
	backward, err := MakePath(dir, "profile", hash, "profile", []storepath.Path{b, a, b})
	if err != nil {
		t.Fatal(err)
	}
	if forward != backward {
		t.Errorf("reference order leaked into identity: %s != %s", forward, backward)
	}
}

func TestVerify(t *testing.T) {
	s := testStore(t, Options{})
	ctx := context.Background()
	tree := makeTree(t, map[string]string{"data": "payload\n"})

	path, err := s.AddTree(ctx, tree, "pkg", "artifact", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Verify(path); err != nil {
		t.Fatalf("Verify of intact object: %v", err)
	}

	// Corrupt the object and expect Verify to notice.
	victim := filepath.Join(string(path), "data")
	if err := os.Chmod(victim, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(victim, []byte("tampered\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Verify(path); err == nil {
		t.Error("Verify accepted a tampered object")
	}
}

// recordingBuilder records build requests and optionally fails.
type recordingBuilder struct {
	requests [][]BuildRequest
	err      error
}

func (b *recordingBuilder) Build(ctx context.Context, requests []BuildRequest) error {
	b.requests = append(b.requests, requests)
	return b.err
}

func TestBuildBatch(t *testing.T) {
	builder := &recordingBuilder{}
	s := testStore(t, Options{Builder: builder})
	ctx := context.Background()

	if err := s.BuildBatch(ctx, nil); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}
	if len(builder.requests) != 0 {
		t.Fatal("empty batch reached the builder")
	}

	batch := []BuildRequest{{Derivation: "drv-a", Output: "out"}}
	if err := s.BuildBatch(ctx, batch); err != nil {
		t.Fatal(err)
	}
	if len(builder.requests) != 1 || builder.requests[0][0].String() != "drv-a!out" {
		t.Errorf("builder saw %v", builder.requests)
	}
}

func TestBuildBatchFailure(t *testing.T) {
	builder := &recordingBuilder{err: errors.New("compiler exploded")}
	s := testStore(t, Options{Builder: builder})

	err := s.BuildBatch(context.Background(), []BuildRequest{{Derivation: "drv-a", Output: "out"}})
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("got %v, want *BuildError", err)
	}
	if len(buildErr.Requests) != 1 {
		t.Errorf("BuildError lists %d requests, want 1", len(buildErr.Requests))
	}
}

func TestBuildBatchWithoutBuilder(t *testing.T) {
	s := testStore(t, Options{})
	err := s.BuildBatch(context.Background(), []BuildRequest{{Derivation: "drv-a", Output: "out"}})
	var buildErr *BuildError
	if !errors.As(err, &buildErr) {
		t.Fatalf("got %v, want *BuildError", err)
	}
}
