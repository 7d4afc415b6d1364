// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

// Package mpack implements the MessagePack binary serialization
// format: a compact, self-describing encoding for scalars, strings,
// byte blobs, arrays, maps and application-defined extension types.
//
// Construct an Encoder or Decoder once and reuse it; both are
// synchronous, perform no I/O and keep no state across calls beyond
// the encoder's reusable scratch buffer. Extension types plug in
// through the Codec interface and a Registry, which can be shared
// between the two sides.
//
// The stream subpackage layers sequential io.Reader/io.Writer access
// and luigi Source/Sink adapters on top of this package.
package mpack // import "github.com/ssbc/mpack"

// Marshal encodes v with a default Encoder: 64-bit floats, map keys in
// range order, no extension codecs.
func Marshal(v interface{}) ([]byte, error) {
	enc, err := NewEncoder()
	if err != nil {
		return nil, err
	}
	return enc.Encode(v)
}

// Unmarshal decodes exactly one value from data with a default
// Decoder: string map keys, signed integers where they fit, trailing
// bytes rejected.
func Unmarshal(data []byte) (interface{}, error) {
	dec, err := NewDecoder()
	if err != nil {
		return nil, err
	}
	return dec.Decode(data)
}
