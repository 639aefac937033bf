// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// SealKeySize is the size in bytes of export seal keys.
const SealKeySize = 32

// sealedBlobVersion is the first byte of every sealed payload. It is
// fed into the AEAD as additional authenticated data, so rewriting it
// in a stored stream breaks authentication instead of silently
// changing how the payload is parsed.
const sealedBlobVersion byte = 0x01

// sealedBlobOverhead is how much larger a sealed payload is than its
// plaintext: the version byte, the XChaCha20 nonce, and the Poly1305
// authentication tag.
const sealedBlobOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// hkdfInfoExport is the info parameter to HKDF-SHA256 when deriving a
// per-stream seal key. Changing it invalidates every sealed export.
var hkdfInfoExport = []byte("strata.store.export.v1")

// ReadSealKey reads a seal key file: 64 hex characters, surrounding
// whitespace ignored.
func ReadSealKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seal key: %w", err)
	}
	decoded, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("seal key %s: %w", path, err)
	}
	if len(decoded) != SealKeySize {
		return nil, fmt.Errorf("seal key %s: %d bytes, want %d", path, len(decoded), SealKeySize)
	}
	return decoded, nil
}

// deriveStreamKey stretches the master seal key and a stream's salt
// into the actual encryption key via HKDF-SHA256. The salt travels in
// the stream header, so the importing side derives the same key.
func deriveStreamKey(masterKey, salt []byte) ([]byte, error) {
	if len(masterKey) != SealKeySize {
		return nil, fmt.Errorf("seal key must be %d bytes, got %d", SealKeySize, len(masterKey))
	}
	derived := make([]byte, SealKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, salt, hkdfInfoExport), derived); err != nil {
		return nil, fmt.Errorf("deriving stream key: %w", err)
	}
	return derived, nil
}

// newStreamSalt draws the random HKDF salt for one sealed export.
// A fresh salt per stream gives every export its own derived key even
// when the operator reuses one master key for years.
func newStreamSalt() ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("drawing stream salt: %w", err)
	}
	return salt, nil
}

// streamAEAD constructs the XChaCha20-Poly1305 cipher for a derived
// per-stream key.
func streamAEAD(streamKey []byte) (cipher.AEAD, error) {
	aead, err := chacha20poly1305.NewX(streamKey)
	if err != nil {
		return nil, fmt.Errorf("stream cipher: %w", err)
	}
	return aead, nil
}

// sealBlob encrypts a payload under the per-stream key. A sealed
// payload carries the version byte, then a fresh 24-byte nonce, then
// the ciphertext with its Poly1305 tag. The AAD covers the version
// byte and the object's content hash, so a sealed payload cannot be
// moved to a different object in the stream without detection.
func sealBlob(plaintext, streamKey []byte, contentHash Hash) ([]byte, error) {
	aead, err := streamAEAD(streamKey)
	if err != nil {
		return nil, err
	}

	// Build the header in place; Seal appends after it. The capacity
	// covers the full sealed payload, so no reallocation happens and
	// the nonce bytes stay where they were written.
	blob := make([]byte, 1+chacha20poly1305.NonceSizeX, sealedBlobOverhead+len(plaintext))
	blob[0] = sealedBlobVersion
	nonce := blob[1:]
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("drawing nonce: %w", err)
	}
	return aead.Seal(blob, nonce, plaintext, sealAAD(sealedBlobVersion, contentHash)), nil
}

// openBlob decrypts a sealed payload produced by sealBlob. It fails
// if the blob is truncated, the version byte is unknown, or AEAD
// authentication fails (wrong key, tampered ciphertext, or a payload
// moved to a different object).
func openBlob(sealed, streamKey []byte, contentHash Hash) ([]byte, error) {
	if len(sealed) < sealedBlobOverhead {
		return nil, fmt.Errorf("sealed payload truncated: %d bytes, need at least %d", len(sealed), sealedBlobOverhead)
	}
	if v := sealed[0]; v != sealedBlobVersion {
		return nil, fmt.Errorf("unknown sealed payload version 0x%02x (this build writes 0x%02x)", v, sealedBlobVersion)
	}

	aead, err := streamAEAD(streamKey)
	if err != nil {
		return nil, err
	}

	nonce := sealed[1 : 1+chacha20poly1305.NonceSizeX]
	plaintext, err := aead.Open(nil, nonce, sealed[1+chacha20poly1305.NonceSizeX:], sealAAD(sealed[0], contentHash))
	if err != nil {
		return nil, fmt.Errorf("opening sealed payload (wrong key or modified stream): %w", err)
	}
	return plaintext, nil
}

// sealAAD is the additional authenticated data for a sealed payload:
// the format version followed by the object's content hash.
func sealAAD(version byte, contentHash Hash) []byte {
	return append([]byte{version}, contentHash[:]...)
}
