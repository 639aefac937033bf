// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package store implements the content-addressed artifact store:
// immutable filesystem trees named by a hash of their content,
// identity tag, and reference closure.
//
// A local store lives under a root directory:
//
//	<root>/store/   the objects, one directory or file per store path
//	<root>/db/      one CBOR metadata record per object
//	<root>/tmp/     staging for atomic registration
//
// Objects are registered by materializing the canonical archive
// encoding of a tree, so a registered object is always byte-identical
// to what its content hash covers. Registration is atomic (temp plus
// rename) and idempotent: registering the same content under the same
// identity is a no-op.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/strata-foundation/strata/lib/archive"
	"github.com/strata-foundation/strata/lib/codec"
	"github.com/strata-foundation/strata/lib/storepath"
)

// Directory names within the store root.
const (
	objectsDir = "store"
	dbDir      = "db"
	tmpDir     = "tmp"
)

// infoRecordVersion is the schema version of on-disk metadata records.
const infoRecordVersion = 1

// BuildRequest names one derivation output to realize. The canonical
// string form "derivation!output" is used for deduplication and in
// build error messages.
type BuildRequest struct {
	Derivation string `json:"derivation"`
	Output     string `json:"output"`
}

func (r BuildRequest) String() string {
	return r.Derivation + "!" + r.Output
}

// Builder realizes derivation outputs into the store. The build is
// blocking and all-or-nothing: on success every requested output is a
// valid store path, on failure none are guaranteed.
type Builder interface {
	Build(ctx context.Context, requests []BuildRequest) error
}

// BuildError reports a failed build batch.
type BuildError struct {
	Requests []BuildRequest
	Err      error
}

func (e *BuildError) Error() string {
	names := make([]string, len(e.Requests))
	for i, request := range e.Requests {
		names[i] = request.String()
	}
	return fmt.Sprintf("building %s: %v", strings.Join(names, ", "), e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// ObjectInfo is the metadata record kept for every registered object.
type ObjectInfo struct {
	Version     int       `cbor:"version"`
	Path        string    `cbor:"path"`
	ContentHash []byte    `cbor:"contentHash"`
	Size        int64     `cbor:"size"`
	References  []string  `cbor:"references,omitempty"`
	Registered  time.Time `cbor:"registered"`
}

// Store is the interface the profile engine builds against. It covers
// path syntax, validity, batched builds, and atomic registration of
// content-addressed trees.
type Store interface {
	// Dir returns the store directory all paths live under.
	Dir() storepath.Dir

	// IsValidPath reports whether the path names a registered object.
	IsValidPath(path storepath.Path) bool

	// BuildBatch realizes the requested derivation outputs. It
	// returns a *BuildError on failure.
	BuildBatch(ctx context.Context, requests []BuildRequest) error

	// AddTree registers the filesystem tree at sourcePath as an
	// immutable object. The store path is derived from the tree's
	// content, the tag, the name, and the reference closure. Returns
	// the object's path; registering identical content under an
	// identical identity returns the existing path.
	AddTree(ctx context.Context, sourcePath, name, tag string, references []storepath.Path) (storepath.Path, error)
}

// LocalStore is a Store on the local filesystem.
type LocalStore struct {
	root    string
	dir     storepath.Dir
	builder Builder
	logger  *slog.Logger
}

// Options configures Open.
type Options struct {
	// Builder realizes build requests. A store opened without one
	// rejects BuildBatch calls; read-only commands do not need it.
	Builder Builder

	// Logger receives registration and build events. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Open opens (creating if needed) a local store rooted at the given
// directory. Objects live under <root>/store, which is also the store
// directory recorded in their paths.
func Open(root string, opts Options) (*LocalStore, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving store root: %w", err)
	}
	for _, dir := range []string{
		absRoot,
		filepath.Join(absRoot, objectsDir),
		filepath.Join(absRoot, dbDir),
		filepath.Join(absRoot, tmpDir),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalStore{
		root:    absRoot,
		dir:     storepath.Dir(filepath.Join(absRoot, objectsDir)),
		builder: opts.Builder,
		logger:  logger,
	}, nil
}

// Dir returns the store directory all object paths live under.
func (s *LocalStore) Dir() storepath.Dir { return s.dir }

// objectPath returns the filesystem location of a store path. For a
// local store the two coincide.
func (s *LocalStore) objectPath(path storepath.Path) string { return string(path) }

func (s *LocalStore) infoPath(path storepath.Path) string {
	return filepath.Join(s.root, dbDir, path.Base()+".cbor")
}

// IsValidPath reports whether path names a registered object: both
// the metadata record and the object itself must exist.
func (s *LocalStore) IsValidPath(path storepath.Path) bool {
	if _, err := os.Stat(s.infoPath(path)); err != nil {
		return false
	}
	_, err := os.Lstat(s.objectPath(path))
	return err == nil
}

// Info reads the metadata record for a registered object.
func (s *LocalStore) Info(path storepath.Path) (*ObjectInfo, error) {
	data, err := os.ReadFile(s.infoPath(path))
	if err != nil {
		return nil, fmt.Errorf("reading metadata for %s: %w", path, err)
	}
	var info ObjectInfo
	if err := codec.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decoding metadata for %s: %w", path, err)
	}
	if info.Version != infoRecordVersion {
		return nil, fmt.Errorf("metadata for %s: unsupported record version %d", path, info.Version)
	}
	return &info, nil
}

// BuildBatch realizes the requested derivation outputs through the
// configured builder. An empty batch is a no-op.
func (s *LocalStore) BuildBatch(ctx context.Context, requests []BuildRequest) error {
	if len(requests) == 0 {
		return nil
	}
	if s.builder == nil {
		return &BuildError{Requests: requests, Err: errors.New("store has no builder configured")}
	}
	s.logger.Info("building", "requests", len(requests))
	if err := s.builder.Build(ctx, requests); err != nil {
		var buildErr *BuildError
		if errors.As(err, &buildErr) {
			return err
		}
		return &BuildError{Requests: requests, Err: err}
	}
	return nil
}

// AddTree registers the tree at sourcePath as an immutable object.
func (s *LocalStore) AddTree(ctx context.Context, sourcePath, name, tag string, references []storepath.Path) (storepath.Path, error) {
	for _, ref := range references {
		if !s.IsValidPath(ref) {
			return "", fmt.Errorf("reference %s is not a valid store path", ref)
		}
	}
	// Encode once; the same bytes are hashed and then materialized,
	// so the registered object is exactly what the hash covers.
	// Streaming will come if profile trees ever outgrow memory.
	encoded, err := archive.DumpBytes(sourcePath)
	if err != nil {
		return "", fmt.Errorf("archiving %s: %w", sourcePath, err)
	}
	contentHash := HashArchive(encoded)

	path, err := MakePath(s.dir, tag, contentHash, name, references)
	if err != nil {
		return "", err
	}
	if s.IsValidPath(path) {
		// Identical identity means identical content by
		// construction.
		return path, nil
	}
	if err := s.register(ctx, path, encoded, contentHash, references); err != nil {
		return "", err
	}
	s.logger.Info("registered store object",
		"path", string(path),
		"size", len(encoded),
		"references", len(references))
	return path, nil
}

// register materializes an archive encoding as a store object and
// writes its metadata record. The object appears atomically: it is
// restored into tmp/ and renamed into place, metadata last.
func (s *LocalStore) register(ctx context.Context, path storepath.Path, encoded []byte, contentHash Hash, references []storepath.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stagingDir, err := os.MkdirTemp(filepath.Join(s.root, tmpDir), "register-*")
	if err != nil {
		return fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	staged := filepath.Join(stagingDir, "object")
	if err := archive.Restore(bytes.NewReader(encoded), staged); err != nil {
		return fmt.Errorf("materializing %s: %w", path, err)
	}

	finalPath := s.objectPath(path)
	if err := os.Rename(staged, finalPath); err != nil {
		// A concurrent registration of the same identity may have
		// won the rename; the object it placed is identical.
		if s.IsValidPath(path) {
			return nil
		}
		if _, statErr := os.Lstat(finalPath); statErr == nil {
			return s.writeInfo(path, encoded, contentHash, references)
		}
		return fmt.Errorf("installing %s: %w", path, err)
	}
	return s.writeInfo(path, encoded, contentHash, references)
}

// writeInfo writes the object's metadata record via atomic rename.
func (s *LocalStore) writeInfo(path storepath.Path, encoded []byte, contentHash Hash, references []storepath.Path) error {
	info := ObjectInfo{
		Version:     infoRecordVersion,
		Path:        string(path),
		ContentHash: contentHash[:],
		Size:        int64(len(encoded)),
		References:  sortedReferenceStrings(references),
		Registered:  time.Now().UTC(),
	}
	data, err := codec.Marshal(info)
	if err != nil {
		return fmt.Errorf("encoding metadata for %s: %w", path, err)
	}

	tmpFile, err := os.CreateTemp(filepath.Join(s.root, tmpDir), "info-*.cbor")
	if err != nil {
		return fmt.Errorf("creating temp metadata file: %w", err)
	}
	tmpPath := tmpFile.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing metadata for %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing metadata for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, s.infoPath(path)); err != nil {
		return fmt.Errorf("installing metadata for %s: %w", path, err)
	}
	success = true
	return nil
}

// Verify re-archives a registered object and checks it against the
// recorded content hash and size.
func (s *LocalStore) Verify(path storepath.Path) error {
	info, err := s.Info(path)
	if err != nil {
		return err
	}
	hasher := NewArchiveHasher()
	if err := archive.Dump(hasher, s.objectPath(path)); err != nil {
		return fmt.Errorf("archiving %s: %w", path, err)
	}
	hash, size := hasher.Sum()
	if size != info.Size {
		return fmt.Errorf("%s: size is %d bytes, metadata records %d", path, size, info.Size)
	}
	if !bytes.Equal(hash[:], info.ContentHash) {
		return fmt.Errorf("%s: content hash %s does not match recorded %x", path, FormatHash(hash), info.ContentHash)
	}
	return nil
}

// References returns the recorded reference closure of an object,
// sorted.
func (s *LocalStore) References(path storepath.Path) ([]storepath.Path, error) {
	info, err := s.Info(path)
	if err != nil {
		return nil, err
	}
	refs := make([]storepath.Path, len(info.References))
	for i, ref := range info.References {
		refs[i] = storepath.Path(ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
	return refs, nil
}
