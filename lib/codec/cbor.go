// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

// mustEncMode builds the one encoder configuration the whole module
// shares: Core Deterministic Encoding (RFC 8949 §4.2), so equal
// values always encode to equal bytes, with TextMarshaler types
// (pkgref.Ref) written as text strings instead of the empty maps
// reflection would produce for their unexported fields.
func mustEncMode() cbor.EncMode {
	options := cbor.CoreDetEncOptions()
	options.TextMarshaler = cbor.TextMarshalerTextString
	mode, err := options.EncMode()
	if err != nil {
		panic("codec: encoder configuration rejected: " + err.Error())
	}
	return mode
}

// mustDecMode builds the matching decoder. DefaultMapType makes
// any-typed targets decode as map[string]any (no strata record uses
// non-string keys, and map[any]any does not round-trip through
// encoding/json); TextUnmarshaler mirrors the encoder side.
func mustDecMode() cbor.DecMode {
	mode, err := cbor.DecOptions{
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: decoder configuration rejected: " + err.Error())
	}
	return mode
}

// Marshal encodes v with the shared deterministic configuration.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into v. Unknown fields are ignored, so old
// binaries read records written by newer ones.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder and Decoder alias the underlying stream types so callers
// depend on lib/codec alone.
type (
	Encoder = cbor.Encoder
	Decoder = cbor.Decoder
)

// NewEncoder returns a stream encoder writing deterministic CBOR to w.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a stream decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}
