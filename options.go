// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

package mpack // import "github.com/ssbc/mpack"

import (
	"sort"

	"github.com/pkg/errors"
)

// EncodingOption configures an Encoder at construction time.
type EncodingOption func(*Encoder) error

// DecodingOption configures a Decoder at construction time.
type DecodingOption func(*Decoder) error

// Float32 makes the encoder emit floats as IEEE-754 single precision.
func Float32() EncodingOption {
	return func(e *Encoder) error {
		e.float32 = true
		return nil
	}
}

// Float64 makes the encoder emit floats as IEEE-754 double precision.
// This is the default.
func Float64() EncodingOption {
	return func(e *Encoder) error {
		e.float32 = false
		return nil
	}
}

// UTF8Keys routes map keys through the general string encoder instead
// of the ASCII fast path. The fast path already falls back to the
// general encoder for non-ASCII keys on its own; this option just
// forces the fallback unconditionally.
func UTF8Keys() EncodingOption {
	return func(e *Encoder) error {
		e.utf8Keys = true
		return nil
	}
}

// KeyOrder installs a hook that reorders map keys in place before they
// are encoded. Without it, keys are emitted in Go's map range order.
func KeyOrder(fn func(keys []string)) EncodingOption {
	return func(e *Encoder) error {
		e.keyOrder = fn
		return nil
	}
}

// SortedKeys emits map keys in lexicographic order, which makes the
// encoding of a given map deterministic.
func SortedKeys() EncodingOption {
	return KeyOrder(sort.Strings)
}

// DetectArray installs a hook consulted before the reflection
// fallback. Returning ok lets an opaque container type be encoded as
// the returned element sequence.
func DetectArray(fn func(v interface{}) ([]interface{}, bool)) EncodingOption {
	return func(e *Encoder) error {
		e.detectArray = fn
		return nil
	}
}

// SmallStringSize sets the length below which a string is appended to
// the output directly instead of being staged through the scratch
// buffer's coarse growth path.
func SmallStringSize(n int) EncodingOption {
	return func(e *Encoder) error {
		if n < 0 {
			return errors.New("small-string threshold must not be negative")
		}
		e.smallString = n
		return nil
	}
}

// SmallBinarySize sets the length below which a byte payload is
// appended byte by byte rather than bulk-copied.
func SmallBinarySize(n int) EncodingOption {
	return func(e *Encoder) error {
		if n < 0 {
			return errors.New("small-binary threshold must not be negative")
		}
		e.smallBin = n
		return nil
	}
}

// ScratchSize sets the minimum allocation chunk of the encoder's
// scratch buffer. It changes allocation behaviour only, never output.
func ScratchSize(n int) EncodingOption {
	return func(e *Encoder) error {
		if n <= 0 {
			return errors.New("scratch size must be positive")
		}
		e.arena.min = n
		return nil
	}
}

// OnUnsupported installs a handler invoked instead of failing when a
// value has no encodable representation. The handler returns a
// replacement value to encode in its place; if the replacement is
// itself unencodable, encoding fails with EncodingError.
func OnUnsupported(fn func(v interface{}) (interface{}, error)) EncodingOption {
	return func(e *Encoder) error {
		e.onUnsupported = fn
		return nil
	}
}

// MaxEncodeDepth bounds container nesting during encode, guarding the
// call stack against cyclic or degenerately deep values. The default
// is 4096.
func MaxEncodeDepth(n int) EncodingOption {
	return func(e *Encoder) error {
		if n <= 0 {
			return errors.New("depth limit must be positive")
		}
		e.maxDepth = n
		return nil
	}
}

// Codecs registers extension codecs with the encoder's registry.
func Codecs(codecs ...Codec) EncodingOption {
	return func(e *Encoder) error {
		if e.reg == nil {
			e.reg = NewRegistry()
		}
		e.reg.Register(codecs...)
		return nil
	}
}

// WithRegistry attaches an existing registry to the encoder, typically
// to share one registry between an Encoder and a Decoder.
func WithRegistry(r *Registry) EncodingOption {
	return func(e *Encoder) error {
		e.reg = r
		return nil
	}
}

// DecodeCodecs registers extension codecs with the decoder's registry.
func DecodeCodecs(codecs ...Codec) DecodingOption {
	return func(d *Decoder) error {
		if d.reg == nil {
			d.reg = NewRegistry()
		}
		d.reg.Register(codecs...)
		return nil
	}
}

// DecodeWithRegistry attaches an existing registry to the decoder.
func DecodeWithRegistry(r *Registry) DecodingOption {
	return func(d *Decoder) error {
		d.reg = r
		return nil
	}
}

// UntypedMapKeys decodes every map as map[interface{}]interface{}
// regardless of key types. The default is map[string]interface{},
// switching to untyped form only when a non-string key shows up.
func UntypedMapKeys() DecodingOption {
	return func(d *Decoder) error {
		d.untypedKeys = true
		return nil
	}
}

// KeepUnsigned surfaces every uint-family wire value as uint64. By
// default unsigned values fit into int64 where possible and only
// values above MaxInt64 come back as uint64.
func KeepUnsigned() DecodingOption {
	return func(d *Decoder) error {
		d.keepUnsigned = true
		return nil
	}
}

// IgnoreTrailing makes Decode accept and discard bytes left over after
// one complete value. By default leftovers fail with FormatError.
func IgnoreTrailing() DecodingOption {
	return func(d *Decoder) error {
		d.ignoreTrailing = true
		return nil
	}
}

// MaxDepth bounds container nesting during decode, guarding the call
// stack against adversarial input. The default is 4096.
func MaxDepth(n int) DecodingOption {
	return func(d *Decoder) error {
		if n <= 0 {
			return errors.New("depth limit must be positive")
		}
		d.maxDepth = n
		return nil
	}
}
