// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag names the per-object compression inside an export
// stream, one byte per object record. The values are part of the
// stream format; reassigning them would make old exports unreadable.
type CompressionTag uint8

const (
	// CompressionNone carries the payload verbatim. Also what the
	// fallback picks when compression would not shrink the data.
	CompressionNone CompressionTag = 0

	// CompressionLZ4 is block LZ4: cheap to decode, modest ratio.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd is zstd at its default level, and the export
	// default. Archive payloads mix text and binaries and zstd does
	// well on both.
	CompressionZstd CompressionTag = 2
)

// compressionCodec bundles both directions of one algorithm. inflate
// receives the recorded plaintext size because LZ4 block decoding needs
// a pre-sized buffer.
type compressionCodec struct {
	name    string
	deflate func(data []byte) ([]byte, error)
	inflate func(compressed []byte, size int) ([]byte, error)
}

var codecs = map[CompressionTag]compressionCodec{
	CompressionNone: {
		name:    "none",
		deflate: func(data []byte) ([]byte, error) { return data, nil },
		inflate: func(compressed []byte, _ int) ([]byte, error) { return compressed, nil },
	},
	CompressionLZ4:  {name: "lz4", deflate: lz4Deflate, inflate: lz4Inflate},
	CompressionZstd: {name: "zstd", deflate: zstdDeflate, inflate: zstdInflate},
}

func (tag CompressionTag) String() string {
	if c, ok := codecs[tag]; ok {
		return c.name
	}
	return fmt.Sprintf("unknown(%d)", tag)
}

// ParseCompressionTag maps a --compression flag value to its tag.
func ParseCompressionTag(name string) (CompressionTag, error) {
	for tag, c := range codecs {
		if c.name == name {
			return tag, nil
		}
	}
	return 0, fmt.Errorf("unknown compression tag: %q", name)
}

// Compress runs data through the algorithm tag names. CompressionNone
// hands the input back without copying. A payload that would not
// shrink comes back as an error satisfying [IsIncompressible].
func Compress(data []byte, tag CompressionTag) ([]byte, error) {
	c, ok := codecs[tag]
	if !ok {
		return nil, fmt.Errorf("no codec for compression tag %d", tag)
	}
	out, err := c.deflate(data)
	if err != nil {
		return nil, fmt.Errorf("%s compress: %w", c.name, err)
	}
	return out, nil
}

// Decompress reverses Compress. uncompressedSize is the plaintext
// length recorded next to the payload; output of any other length is
// an error, the CompressionNone case included.
func Decompress(compressed []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	c, ok := codecs[tag]
	if !ok {
		return nil, fmt.Errorf("no codec for compression tag %d", tag)
	}
	data, err := c.inflate(compressed, uncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("%s decompress: %w", c.name, err)
	}
	if len(data) != uncompressedSize {
		return nil, fmt.Errorf("%s decompress: got %d bytes, expected %d",
			c.name, len(data), uncompressedSize)
	}
	return data, nil
}

// compressWithFallback compresses data with tag, downgrading to
// CompressionNone when the payload does not shrink. The returned tag
// is the one that actually applied.
func compressWithFallback(data []byte, tag CompressionTag) ([]byte, CompressionTag, error) {
	compressed, err := Compress(data, tag)
	switch {
	case err == nil:
		return compressed, tag, nil
	case IsIncompressible(err):
		return data, CompressionNone, nil
	default:
		return nil, 0, err
	}
}

func lz4Deflate(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, err
	}
	// n == 0 is the library's own incompressible signal; n >= input
	// means compressing was pointless even when it "worked".
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func lz4Inflate(compressed []byte, size int) ([]byte, error) {
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(compressed, dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}

// One encoder and one decoder for the whole process: construction is
// the expensive part, and both are safe for concurrent use.
var (
	zstdEnc = mustZstdEncoder()
	zstdDec = mustZstdDecoder()
)

func mustZstdEncoder() *zstd.Encoder {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder: " + err.Error())
	}
	return enc
}

func mustZstdDecoder() *zstd.Decoder {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder: " + err.Error())
	}
	return dec
}

func zstdDeflate(data []byte) ([]byte, error) {
	out := zstdEnc.EncodeAll(data, nil)
	if len(out) >= len(data) {
		return nil, errIncompressible
	}
	return out, nil
}

func zstdInflate(compressed []byte, size int) ([]byte, error) {
	return zstdDec.DecodeAll(compressed, make([]byte, 0, size))
}

// errIncompressible reports that compressed output would be at least
// as large as the input.
var errIncompressible = errors.New("data is incompressible")

// IsIncompressible reports whether err came from a payload that did
// not shrink under compression. Callers fall back to CompressionNone.
func IsIncompressible(err error) bool {
	return errors.Is(err, errIncompressible)
}
