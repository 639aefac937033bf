// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/strata-foundation/strata/lib/codec"
	"github.com/strata-foundation/strata/lib/storepath"
)

// Hash is a 32-byte BLAKE3 digest. Content hashes and identity
// digests are this size.
type Hash [32]byte

// domainKey keys BLAKE3 so that each hashing context gets its own
// digest space. An archive hash can never equal an identity hash of
// the same bytes.
type domainKey [32]byte

// The two hashing domains. Fixed forever: every existing store object
// was addressed under these keys.
var (
	archiveDomainKey  = asciiKey("strata.store.archive")
	identityDomainKey = asciiKey("strata.store.identity")
)

// asciiKey pads a domain name to a full key. Plain ASCII keeps the
// keys legible in a debugger; BLAKE3 treats the key bytes as opaque
// either way.
func asciiKey(domain string) domainKey {
	var key domainKey
	if len(domain) > len(key) {
		panic("store: domain name exceeds key size: " + domain)
	}
	copy(key[:], domain)
	return key
}

// HashArchive computes the archive-domain BLAKE3 keyed hash of a
// canonical archive encoding. This is the content hash recorded for
// every store object.
func HashArchive(data []byte) Hash {
	return keyedHash(archiveDomainKey, data)
}

// ArchiveHasher is an io.Writer that accumulates an archive stream
// and produces its content hash and size. Stream an archive.Dump into
// it to hash a tree without buffering the encoding.
type ArchiveHasher struct {
	hasher *blake3.Hasher
	size   int64
}

// NewArchiveHasher returns a hasher keyed for the archive domain.
func NewArchiveHasher() *ArchiveHasher {
	return &ArchiveHasher{hasher: mustKeyedHasher(archiveDomainKey)}
}

// Write implements io.Writer.
func (h *ArchiveHasher) Write(p []byte) (int, error) {
	n, err := h.hasher.Write(p)
	h.size += int64(n)
	return n, err
}

// Sum returns the content hash and byte count of everything written.
func (h *ArchiveHasher) Sum() (Hash, int64) {
	var hash Hash
	copy(hash[:], h.hasher.Sum(nil))
	return hash, h.size
}

// identityPreimage is the deterministic CBOR encoding hashed to derive
// a store path. Every field participates in the identity: the same
// content registered under a different tag, name, or reference set is
// a different store object.
type identityPreimage struct {
	Tag         string   `cbor:"tag"`
	ContentHash []byte   `cbor:"contentHash"`
	StoreDir    string   `cbor:"storeDir"`
	Name        string   `cbor:"name"`
	References  []string `cbor:"references"`
}

// MakePath derives the content-addressed store path for an object
// from its tag, archive content hash, name, and reference closure.
// References are sorted and deduplicated first, so the identity does
// not depend on the order callers discovered them in.
func MakePath(dir storepath.Dir, tag string, contentHash Hash, name string, references []storepath.Path) (storepath.Path, error) {
	if err := storepath.CheckName(name); err != nil {
		return "", err
	}
	preimage := identityPreimage{
		Tag:         tag,
		ContentHash: contentHash[:],
		StoreDir:    string(dir),
		Name:        name,
		References:  sortedReferenceStrings(references),
	}
	encoded, err := codec.Marshal(preimage)
	if err != nil {
		return "", fmt.Errorf("encoding identity preimage: %w", err)
	}
	digest := keyedHash(identityDomainKey, encoded)
	// The hash part is 32 hex characters: the first 16 bytes of the
	// identity digest.
	return dir.Join(hex.EncodeToString(digest[:storepath.HashPartLen/2]), name)
}

// sortedReferenceStrings returns the references as a sorted,
// deduplicated string slice.
func sortedReferenceStrings(references []storepath.Path) []string {
	out := make([]string, 0, len(references))
	seen := make(map[storepath.Path]struct{}, len(references))
	for _, ref := range references {
		if _, dup := seen[ref]; dup {
			continue
		}
		seen[ref] = struct{}{}
		out = append(out, string(ref))
	}
	sort.Strings(out)
	return out
}

// FormatHash renders a hash the way metadata, logs, and the CLI show
// it: 64 lowercase hex characters.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// ParseHash reverses [FormatHash].
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	if len(hexString) != hex.EncodedLen(len(hash)) {
		return hash, fmt.Errorf("hash is %d hex characters, want %d",
			len(hexString), hex.EncodedLen(len(hash)))
	}
	if _, err := hex.Decode(hash[:], []byte(hexString)); err != nil {
		return hash, fmt.Errorf("parsing hash: %w", err)
	}
	return hash, nil
}

// keyedHash hashes data in one shot under the given domain key.
func keyedHash(key domainKey, data []byte) Hash {
	hasher := mustKeyedHasher(key)
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}

// mustKeyedHasher panics only if the key size is wrong, which
// domainKey rules out at the type level.
func mustKeyedHasher(key domainKey) *blake3.Hasher {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("store: BLAKE3 keyed hasher: " + err.Error())
	}
	return hasher
}
