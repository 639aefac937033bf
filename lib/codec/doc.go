// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single place strata configures CBOR.
//
// The module draws a hard line between its two serialization formats.
// JSON is for anything a person or foreign tool reads: the
// manifest.json inside profile trees, registry files, CLI --json
// output. CBOR is for records only strata itself reads back: the
// per-object metadata in the store database and the frames of export
// streams.
//
// Everything CBOR goes through the modes defined here. Encoding is
// Core Deterministic Encoding (RFC 8949 §4.2), which sorts map keys
// and forbids indefinite lengths, so a record's bytes are a pure
// function of its value. The store relies on that: metadata rewritten
// with the same content is byte-identical, and export streams are
// reproducible.
//
// [Marshal] and [Unmarshal] cover whole records; [NewEncoder] and
// [NewDecoder] cover streams of them.
//
// Tagging convention: a type that also appears in JSON carries `json`
// tags only (fxamacker/cbor falls back to them), while CBOR-only
// types carry `cbor` tags to mark that they never cross into JSON.
// No field carries both.
package codec
