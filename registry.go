// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

package mpack // import "github.com/ssbc/mpack"

import "github.com/pkg/errors"

// Codec maps between an application value and the payload of a
// MessagePack extension type. Encode may return a nil payload (with a
// nil error) to decline a value it nominally supports, in which case
// the registry keeps walking.
type Codec interface {
	// Type is the extension type tag this codec claims, 0..ExtTypeMax.
	Type() byte

	// Supports reports whether the codec wants a shot at v.
	Supports(v interface{}) bool

	// Encode produces the extension payload for v. The encoder is
	// passed in so payloads can themselves be MessagePack-encoded.
	Encode(enc *Encoder, v interface{}) ([]byte, error)

	// Decode reconstructs a value from an extension payload. The
	// payload is a fresh copy owned by the codec.
	Decode(payload []byte) (interface{}, error)
}

// Registry is an ordered collection of codecs. Resolution walks from
// the most recently registered codec to the oldest, so adding a more
// specific codec later overrides an earlier, broader one without any
// explicit priority bookkeeping.
//
// A Registry may be shared between an Encoder and a Decoder, but is
// not safe for registration concurrent with use.
type Registry struct {
	codecs []Codec
}

// NewRegistry returns a registry holding the given codecs, in
// registration order.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{}
	r.Register(codecs...)
	return r
}

// Register appends codecs. Later registrations win ties on both the
// encode walk and type-tag lookup. Registering two codecs with the
// same type tag is a caller bug; lookups will only ever see the
// newest one.
func (r *Registry) Register(codecs ...Codec) {
	r.codecs = append(r.codecs, codecs...)
}

// encode walks the registry, newest first, and returns the type tag
// and payload of the first codec that supports v and produces a
// non-nil payload. ok is false when no codec claimed the value.
func (r *Registry) encode(enc *Encoder, v interface{}) (typ byte, payload []byte, ok bool, err error) {
	for i := len(r.codecs) - 1; i >= 0; i-- {
		c := r.codecs[i]
		if !c.Supports(v) {
			continue
		}
		payload, err := c.Encode(enc, v)
		if err != nil {
			return 0, nil, false, errors.Wrapf(err, "mpack: codec for ext type %d failed to encode", c.Type())
		}
		if payload == nil {
			continue
		}
		return c.Type(), payload, true, nil
	}
	return 0, nil, false, nil
}

// byType returns the newest codec claiming the given type tag, or nil.
func (r *Registry) byType(typ byte) Codec {
	for i := len(r.codecs) - 1; i >= 0; i-- {
		if r.codecs[i].Type() == typ {
			return r.codecs[i]
		}
	}
	return nil
}
