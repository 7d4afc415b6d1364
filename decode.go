// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

package mpack // import "github.com/ssbc/mpack"

import (
	"math"

	"github.com/pkg/errors"
)

const defaultMaxDepth = 4096

// Decoder turns MessagePack bytes back into values. Scalars come back
// as nil, bool, int64, uint64 (only above MaxInt64, unless
// KeepUnsigned is set), float64, string and []byte; containers as
// []interface{} and map[string]interface{} (map[interface{}]interface{}
// once a non-string key shows up, or always with UntypedMapKeys); and
// extension data as the codec's value or a raw Ext.
//
// A Decoder holds no per-call state and may be reused freely.
type Decoder struct {
	reg *Registry

	untypedKeys    bool
	keepUnsigned   bool
	ignoreTrailing bool
	maxDepth       int
}

// NewDecoder returns a decoder configured by the given options.
func NewDecoder(opts ...DecodingOption) (*Decoder, error) {
	d := &Decoder{maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, errors.Wrap(err, "mpack: bad decoder option")
		}
	}
	return d, nil
}

// Decode decodes exactly one value from data. Bytes left over after
// the value fail with FormatError unless IgnoreTrailing was set.
func (d *Decoder) Decode(data []byte) (interface{}, error) {
	r := reader{data: data}
	v, err := d.readValue(&r, 0)
	if err != nil {
		return nil, err
	}
	if rest := len(data) - r.pos; rest > 0 && !d.ignoreTrailing {
		return nil, FormatError{Code: data[r.pos], Offset: r.pos, Trailing: rest}
	}
	return v, nil
}

// DecodeNext decodes one value and returns the unconsumed remainder,
// for callers working through a buffer holding several values back to
// back.
func (d *Decoder) DecodeNext(data []byte) (interface{}, []byte, error) {
	r := reader{data: data}
	v, err := d.readValue(&r, 0)
	if err != nil {
		return nil, data, err
	}
	return v, data[r.pos:], nil
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, TruncatedError{Need: 1, Have: 0}
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// readN returns the next n bytes without copying; callers that retain
// the bytes past the call must copy them out.
func (r *reader) readN(n int) ([]byte, error) {
	if rem := len(r.data) - r.pos; rem < n {
		return nil, TruncatedError{Need: n, Have: rem}
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) remaining() int {
	return len(r.data) - r.pos
}

func (d *Decoder) readValue(r *reader, depth int) (interface{}, error) {
	if depth > d.maxDepth {
		return nil, ErrMaxDepth
	}
	c, err := r.readByte()
	if err != nil {
		return nil, err
	}
	fi := formats[c]

	switch fi.fam {
	case famFixint:
		// int8 covers both fixint ranges: 0x00..0x7f stays positive,
		// 0xe0..0xff sign-extends to -32..-1.
		return int64(int8(c)), nil

	case famNil:
		return nil, nil

	case famBool:
		return c == tagTrue, nil

	case famFloat:
		b, err := r.readN(fi.size)
		if err != nil {
			return nil, err
		}
		if fi.size == 4 {
			return float64(math.Float32frombits(beUint32(b))), nil
		}
		return math.Float64frombits(beUint64(b)), nil

	case famUint:
		b, err := r.readN(fi.size)
		if err != nil {
			return nil, err
		}
		u := beUint(b)
		if d.keepUnsigned || u > math.MaxInt64 {
			return u, nil
		}
		return int64(u), nil

	case famInt:
		b, err := r.readN(fi.size)
		if err != nil {
			return nil, err
		}
		switch fi.size {
		case 1:
			return int64(int8(b[0])), nil
		case 2:
			return int64(int16(beUint16(b))), nil
		case 4:
			return int64(int32(beUint32(b))), nil
		}
		return int64(beUint64(b)), nil

	case famStr:
		n, err := d.readLength(r, c, fi)
		if err != nil {
			return nil, err
		}
		b, err := r.readN(n)
		if err != nil {
			return nil, err
		}
		return string(b), nil

	case famBin:
		n, err := d.readLength(r, c, fi)
		if err != nil {
			return nil, err
		}
		b, err := r.readN(n)
		if err != nil {
			return nil, err
		}
		out := make([]byte, n)
		copy(out, b)
		return out, nil

	case famArray:
		n, err := d.readLength(r, c, fi)
		if err != nil {
			return nil, err
		}
		return d.readArray(r, n, depth)

	case famMap:
		n, err := d.readLength(r, c, fi)
		if err != nil {
			return nil, err
		}
		return d.readMap(r, n, depth)

	case famFixext:
		return d.readExt(r, fi.size)

	case famExt:
		n, err := d.readLength(r, c, fi)
		if err != nil {
			return nil, err
		}
		return d.readExt(r, n)
	}

	return nil, FormatError{Code: c, Offset: r.pos - 1}
}

// readLength extracts the element count or byte length for the sized
// families: embedded in the lead byte for the fix forms, else a
// big-endian prefix of fi.size bytes. A length beyond the remaining
// input is truncation; strings and binaries need that many bytes,
// arrays and maps at least one byte per element. Comparing as uint64
// also keeps a 32-bit prefix from wrapping int on 32-bit platforms.
func (d *Decoder) readLength(r *reader, c byte, fi formatInfo) (int, error) {
	if fi.size == 0 {
		switch fi.fam {
		case famStr:
			return int(c & 0x1f), nil
		default: // fixarray, fixmap
			return int(c & 0x0f), nil
		}
	}
	b, err := r.readN(fi.size)
	if err != nil {
		return 0, err
	}
	u := beUint(b)
	if rem := r.remaining(); u > uint64(rem) {
		need := int(^uint(0) >> 1)
		if u <= uint64(need) {
			need = int(u)
		}
		return 0, TruncatedError{Need: need, Have: rem}
	}
	return int(u), nil
}

func (d *Decoder) readArray(r *reader, n, depth int) (interface{}, error) {
	// Every element takes at least one byte, so a count beyond the
	// remaining input is truncation, caught before allocating for it.
	if rem := r.remaining(); n > rem {
		return nil, TruncatedError{Need: n, Have: rem}
	}
	xs := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		v, err := d.readValue(r, depth+1)
		if err != nil {
			return nil, errors.Wrapf(err, "array element %d", i)
		}
		xs = append(xs, v)
	}
	return xs, nil
}

func (d *Decoder) readMap(r *reader, n, depth int) (interface{}, error) {
	if rem := r.remaining(); 2*n > rem {
		return nil, TruncatedError{Need: 2 * n, Have: rem}
	}
	if d.untypedKeys {
		return d.readUntypedMap(r, n, depth, nil)
	}

	m := make(map[string]interface{}, n)
	for i := 0; i < n; i++ {
		kv, err := d.readValue(r, depth+1)
		if err != nil {
			return nil, errors.Wrapf(err, "map key %d", i)
		}
		ks, ok := kv.(string)
		if !ok {
			// Non-string key: restart collection into an untyped map,
			// carrying over what is already decoded.
			carry := make(map[interface{}]interface{}, n)
			for k, v := range m {
				carry[k] = v
			}
			v, err := d.readValue(r, depth+1)
			if err != nil {
				return nil, errors.Wrapf(err, "map value %d", i)
			}
			if err := setMapKey(carry, kv, v); err != nil {
				return nil, err
			}
			return d.readUntypedMap(r, n-i-1, depth, carry)
		}
		v, err := d.readValue(r, depth+1)
		if err != nil {
			return nil, errors.Wrapf(err, "map value for key %q", ks)
		}
		m[ks] = v
	}
	return m, nil
}

// readUntypedMap decodes n further key/value pairs into m (created
// here when nil).
func (d *Decoder) readUntypedMap(r *reader, n, depth int, m map[interface{}]interface{}) (interface{}, error) {
	if m == nil {
		m = make(map[interface{}]interface{}, n)
	}
	for i := 0; i < n; i++ {
		k, err := d.readValue(r, depth+1)
		if err != nil {
			return nil, errors.Wrapf(err, "map key %d", i)
		}
		v, err := d.readValue(r, depth+1)
		if err != nil {
			return nil, errors.Wrapf(err, "map value %d", i)
		}
		if err := setMapKey(m, k, v); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// setMapKey guards against wire keys Go cannot hash. Binary keys are
// usable as strings; container and ext keys are rejected.
func setMapKey(m map[interface{}]interface{}, k, v interface{}) error {
	switch key := k.(type) {
	case []byte:
		m[string(key)] = v
	case []interface{}, map[string]interface{}, map[interface{}]interface{}, Ext:
		return errors.Errorf("mpack: unhashable map key of type %T", k)
	default:
		m[k] = v
	}
	return nil
}

func (d *Decoder) readExt(r *reader, n int) (interface{}, error) {
	typ, err := r.readByte()
	if err != nil {
		return nil, err
	}
	b, err := r.readN(n)
	if err != nil {
		return nil, err
	}
	payload := make([]byte, n)
	copy(payload, b)

	if d.reg != nil {
		if c := d.reg.byType(typ); c != nil {
			v, err := c.Decode(payload)
			if err != nil {
				return nil, errors.Wrapf(err, "mpack: codec for ext type %d failed to decode", typ)
			}
			return v, nil
		}
	}
	// No codec claims the tag: hand the data back raw rather than
	// dropping it.
	return Ext{Type: typ, Data: payload}, nil
}

func beUint16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func beUint64(b []byte) uint64 {
	return uint64(b[0])<<56 | uint64(b[1])<<48 | uint64(b[2])<<40 | uint64(b[3])<<32 |
		uint64(b[4])<<24 | uint64(b[5])<<16 | uint64(b[6])<<8 | uint64(b[7])
}

// beUint reads a 1, 2, 4 or 8 byte big-endian unsigned value.
func beUint(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(beUint16(b))
	case 4:
		return uint64(beUint32(b))
	}
	return beUint64(b)
}
