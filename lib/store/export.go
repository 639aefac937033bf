// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/strata-foundation/strata/lib/archive"
	"github.com/strata-foundation/strata/lib/codec"
	"github.com/strata-foundation/strata/lib/storepath"
)

// exportStreamVersion is the export stream schema version.
const exportStreamVersion = 1

// exportHeader opens every export stream.
type exportHeader struct {
	Version     int    `cbor:"version"`
	ObjectCount int    `cbor:"objectCount"`
	Sealed      bool   `cbor:"sealed"`
	KeySalt     []byte `cbor:"keySalt,omitempty"`
}

// exportObject carries one store object. Objects appear in dependency
// order: every reference of an object precedes it in the stream.
type exportObject struct {
	Path        string         `cbor:"path"`
	References  []string       `cbor:"references,omitempty"`
	ContentHash []byte         `cbor:"contentHash"`
	Size        int64          `cbor:"size"`
	Compression CompressionTag `cbor:"compression"`
	Payload     []byte         `cbor:"payload"`
}

// ExportOptions configures Export.
type ExportOptions struct {
	// Compression is applied per object, falling back to none for
	// incompressible payloads.
	Compression CompressionTag

	// SealKey, when non-nil, seals every payload with
	// XChaCha20-Poly1305 under a per-stream key derived from it.
	// Must be SealKeySize bytes.
	SealKey []byte
}

// ImportOptions configures Import.
type ImportOptions struct {
	// SealKey must match the key the stream was exported with.
	SealKey []byte
}

// Export writes the requested paths and their full reference closures
// to w as a single stream. Dependencies precede dependents, so Import
// can register objects in stream order.
func (s *LocalStore) Export(ctx context.Context, w io.Writer, paths []storepath.Path, opts ExportOptions) error {
	closure, err := s.closure(paths)
	if err != nil {
		return err
	}

	header := exportHeader{
		Version:     exportStreamVersion,
		ObjectCount: len(closure),
		Sealed:      opts.SealKey != nil,
	}
	var streamKey []byte
	if opts.SealKey != nil {
		salt, err := newStreamSalt()
		if err != nil {
			return err
		}
		header.KeySalt = salt
		streamKey, err = deriveStreamKey(opts.SealKey, salt)
		if err != nil {
			return err
		}
	}

	encoder := codec.NewEncoder(w)
	if err := encoder.Encode(header); err != nil {
		return fmt.Errorf("writing export header: %w", err)
	}

	for _, path := range closure {
		if err := ctx.Err(); err != nil {
			return err
		}
		object, err := s.exportOne(path, opts.Compression, streamKey)
		if err != nil {
			return err
		}
		if err := encoder.Encode(object); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

func (s *LocalStore) exportOne(path storepath.Path, compression CompressionTag, streamKey []byte) (*exportObject, error) {
	info, err := s.Info(path)
	if err != nil {
		return nil, err
	}
	encoded, err := archive.DumpBytes(s.objectPath(path))
	if err != nil {
		return nil, fmt.Errorf("archiving %s: %w", path, err)
	}

	payload, actualTag, err := compressWithFallback(encoded, compression)
	if err != nil {
		return nil, fmt.Errorf("compressing %s: %w", path, err)
	}
	var contentHash Hash
	copy(contentHash[:], info.ContentHash)
	if streamKey != nil {
		payload, err = sealBlob(payload, streamKey, contentHash)
		if err != nil {
			return nil, fmt.Errorf("sealing %s: %w", path, err)
		}
	}

	return &exportObject{
		Path:        string(path),
		References:  info.References,
		ContentHash: info.ContentHash,
		Size:        int64(len(encoded)),
		Compression: actualTag,
		Payload:     payload,
	}, nil
}

// Import reads an export stream and registers every object it does
// not already hold. Each object's payload is verified against its
// recorded content hash before registration, and its references must
// be valid by the time it appears (dependency order). Returns the
// paths actually registered, in stream order.
func (s *LocalStore) Import(ctx context.Context, r io.Reader, opts ImportOptions) ([]storepath.Path, error) {
	decoder := codec.NewDecoder(r)

	var header exportHeader
	if err := decoder.Decode(&header); err != nil {
		return nil, fmt.Errorf("reading export header: %w", err)
	}
	if header.Version != exportStreamVersion {
		return nil, fmt.Errorf("unsupported export stream version %d (supported: %d)", header.Version, exportStreamVersion)
	}
	var streamKey []byte
	if header.Sealed {
		if opts.SealKey == nil {
			return nil, errors.New("stream is sealed and no seal key was provided")
		}
		var err error
		streamKey, err = deriveStreamKey(opts.SealKey, header.KeySalt)
		if err != nil {
			return nil, err
		}
	}

	var imported []storepath.Path
	for i := 0; i < header.ObjectCount; i++ {
		if err := ctx.Err(); err != nil {
			return imported, err
		}
		var object exportObject
		if err := decoder.Decode(&object); err != nil {
			return imported, fmt.Errorf("reading object %d of %d: %w", i+1, header.ObjectCount, err)
		}
		added, err := s.importOne(ctx, &object, streamKey)
		if err != nil {
			return imported, err
		}
		if added != "" {
			imported = append(imported, added)
		}
	}
	return imported, nil
}

// importOne validates and registers a single stream object. Returns
// the empty path when the object was already present.
func (s *LocalStore) importOne(ctx context.Context, object *exportObject, streamKey []byte) (storepath.Path, error) {
	path, err := s.dir.Parse(object.Path)
	if err != nil {
		return "", fmt.Errorf("imported object does not belong to this store: %w", err)
	}
	if len(object.ContentHash) != len(Hash{}) {
		return "", fmt.Errorf("imported object %s: malformed content hash", path)
	}
	var contentHash Hash
	copy(contentHash[:], object.ContentHash)

	payload := object.Payload
	if streamKey != nil {
		payload, err = openBlob(payload, streamKey, contentHash)
		if err != nil {
			return "", fmt.Errorf("unsealing %s: %w", path, err)
		}
	}
	encoded, err := Decompress(payload, object.Compression, int(object.Size))
	if err != nil {
		return "", fmt.Errorf("decompressing %s: %w", path, err)
	}

	// The stream names the object's identity; the payload must hash
	// to the identity's recorded content or the stream is corrupt.
	if HashArchive(encoded) != contentHash {
		return "", fmt.Errorf("imported object %s: payload does not match its content hash", path)
	}

	references := make([]storepath.Path, len(object.References))
	for i, ref := range object.References {
		parsed, err := s.dir.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("imported object %s: reference: %w", path, err)
		}
		if !s.IsValidPath(parsed) {
			return "", fmt.Errorf("imported object %s: reference %s is not valid (stream out of dependency order?)", path, parsed)
		}
		references[i] = parsed
	}

	if s.IsValidPath(path) {
		return "", nil
	}
	if err := s.register(ctx, path, encoded, contentHash, references); err != nil {
		return "", err
	}
	s.logger.Info("imported store object", "path", string(path), "size", object.Size)
	return path, nil
}

// closure expands paths to their full reference closure in dependency
// order: every object's references appear before the object itself.
func (s *LocalStore) closure(paths []storepath.Path) ([]storepath.Path, error) {
	var ordered []storepath.Path
	visited := make(map[storepath.Path]struct{})

	var visit func(path storepath.Path) error
	visit = func(path storepath.Path) error {
		if _, done := visited[path]; done {
			return nil
		}
		visited[path] = struct{}{}
		if !s.IsValidPath(path) {
			return fmt.Errorf("path %s is not valid", path)
		}
		references, err := s.References(path)
		if err != nil {
			return err
		}
		for _, ref := range references {
			if ref == path {
				continue
			}
			if err := visit(ref); err != nil {
				return err
			}
		}
		ordered = append(ordered, path)
		return nil
	}

	for _, path := range paths {
		if err := visit(path); err != nil {
			return nil, err
		}
	}
	return ordered, nil
}
