// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

package mpack // import "github.com/ssbc/mpack"

import (
	"math"
	"reflect"

	"github.com/pkg/errors"
)

const (
	defaultSmallString = 32
	defaultSmallBin    = 7

	defaultEncodeDepth = 4096
)

// Encoder turns values into MessagePack bytes. An Encoder is cheap to
// create, holds a reusable scratch buffer that only ever grows, and
// must not be used from two goroutines at once.
type Encoder struct {
	arena scratch
	reg   *Registry
	busy  bool

	float32       bool
	utf8Keys      bool
	keyOrder      func([]string)
	detectArray   func(interface{}) ([]interface{}, bool)
	smallString   int
	smallBin      int
	maxDepth      int
	onUnsupported func(interface{}) (interface{}, error)
}

// NewEncoder returns an encoder configured by the given options.
func NewEncoder(opts ...EncodingOption) (*Encoder, error) {
	e := &Encoder{
		arena:       scratch{min: defaultScratchSize},
		smallString: defaultSmallString,
		smallBin:    defaultSmallBin,
		maxDepth:    defaultEncodeDepth,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, errors.Wrap(err, "mpack: bad encoder option")
		}
	}
	return e, nil
}

// Encode returns the MessagePack encoding of v. The returned slice is
// a fresh copy; it never aliases the encoder's scratch buffer, so it
// stays valid across later Encode calls.
func (e *Encoder) Encode(v interface{}) ([]byte, error) {
	if e.busy {
		// Reentrant call from a codec mid-encode. The arena is in
		// use, build the nested value in a throwaway buffer.
		return e.encodeValue(nil, v, 0)
	}
	e.busy = true
	buf, err := e.encodeValue(e.arena.take(), v, 0)
	e.arena.keep(buf)
	e.busy = false
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

func (e *Encoder) encodeValue(dst []byte, v interface{}, depth int) ([]byte, error) {
	if depth > e.maxDepth {
		return dst, ErrMaxDepth
	}
	switch x := v.(type) {
	case nil:
		return append(dst, tagNil), nil
	case string:
		return e.appendString(dst, x), nil
	case bool:
		if x {
			return append(dst, tagTrue), nil
		}
		return append(dst, tagFalse), nil
	case int:
		return e.appendInt(dst, int64(x)), nil
	case int8:
		return e.appendInt(dst, int64(x)), nil
	case int16:
		return e.appendInt(dst, int64(x)), nil
	case int32:
		return e.appendInt(dst, int64(x)), nil
	case int64:
		return e.appendInt(dst, x), nil
	case uint:
		return e.appendUint(dst, uint64(x)), nil
	case uint8:
		return e.appendUint(dst, uint64(x)), nil
	case uint16:
		return e.appendUint(dst, uint64(x)), nil
	case uint32:
		return e.appendUint(dst, uint64(x)), nil
	case uint64:
		return e.appendUint(dst, x), nil
	case uintptr:
		return e.appendUint(dst, uint64(x)), nil
	case float32:
		return e.appendFloat(dst, float64(x)), nil
	case float64:
		return e.appendFloat(dst, x), nil
	case []byte:
		return e.appendBin(dst, x), nil
	case []interface{}:
		return e.appendArray(dst, x, depth)
	case Ext:
		return e.appendExt(dst, x.Type, x.Data)
	case *Ext:
		if x == nil {
			return append(dst, tagNil), nil
		}
		return e.appendExt(dst, x.Type, x.Data)
	case map[string]interface{}:
		return e.appendStringMap(dst, x, depth)
	case map[interface{}]interface{}:
		return e.appendUntypedMap(dst, x, depth)
	}
	return e.encodeFallback(dst, v, depth)
}

// encodeFallback handles everything the concrete type switch missed:
// registered codecs first, then the array-detection hook, then
// reflection over named types, maps and structs.
func (e *Encoder) encodeFallback(dst []byte, v interface{}, depth int) ([]byte, error) {
	if e.reg != nil {
		typ, payload, ok, err := e.reg.encode(e, v)
		if err != nil {
			return dst, err
		}
		if ok {
			return e.appendExt(dst, typ, payload)
		}
	}
	if e.detectArray != nil {
		if xs, ok := e.detectArray(v); ok {
			return e.appendArray(dst, xs, depth)
		}
	}
	return e.encodeReflect(dst, v, depth)
}

func (e *Encoder) encodeReflect(dst []byte, v interface{}, depth int) ([]byte, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return append(dst, tagNil), nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return append(dst, tagTrue), nil
		}
		return append(dst, tagFalse), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.appendInt(dst, rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return e.appendUint(dst, rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return e.appendFloat(dst, rv.Float()), nil
	case reflect.String:
		return e.appendString(dst, rv.String()), nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.Kind() == reflect.Array {
				b := make([]byte, rv.Len())
				reflect.Copy(reflect.ValueOf(b), rv)
				return e.appendBin(dst, b), nil
			}
			return e.appendBin(dst, rv.Bytes()), nil
		}
		dst = appendArrayTag(dst, rv.Len())
		var err error
		for i := 0; i < rv.Len(); i++ {
			dst, err = e.encodeValue(dst, rv.Index(i).Interface(), depth+1)
			if err != nil {
				return dst, errors.Wrapf(err, "array element %d", i)
			}
		}
		return dst, nil
	case reflect.Map:
		return e.appendReflectMap(dst, rv, depth)
	case reflect.Struct:
		return e.appendStruct(dst, rv, depth)
	}
	return e.unsupported(dst, v, depth)
}

func (e *Encoder) unsupported(dst []byte, v interface{}, depth int) ([]byte, error) {
	if e.onUnsupported == nil {
		return dst, EncodingError{Value: v, Kind: kindOf(v)}
	}
	repl, err := e.onUnsupported(v)
	if err != nil {
		return dst, err
	}
	// The handler only gets one shot; an unencodable replacement
	// fails instead of invoking the handler again.
	fn := e.onUnsupported
	e.onUnsupported = nil
	dst, err = e.encodeValue(dst, repl, depth)
	e.onUnsupported = fn
	return dst, err
}

// appendFloat routes exactly integral values through the integer
// encoder, so a number without a fractional component always lands on
// the narrowest integer form; fractional, infinite and NaN values use
// the configured float precision.
func (e *Encoder) appendFloat(dst []byte, f float64) []byte {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		switch {
		case f >= -9223372036854775808 && f < 9223372036854775808:
			if f < 0 {
				return e.appendInt(dst, int64(f))
			}
			return e.appendUint(dst, uint64(f))
		case f >= 9223372036854775808 && f < 18446744073709551616:
			return e.appendUint(dst, uint64(f))
		}
	}
	if e.float32 {
		dst = append(dst, tagFloat32)
		return appendUint32(dst, math.Float32bits(float32(f)))
	}
	dst = append(dst, tagFloat64)
	return appendUint64(dst, math.Float64bits(f))
}

func (e *Encoder) appendInt(dst []byte, i int64) []byte {
	if i >= 0 {
		return e.appendUint(dst, uint64(i))
	}
	switch {
	case i >= -32:
		return append(dst, byte(i))
	case i >= math.MinInt8:
		return append(dst, tagInt8, byte(i))
	case i >= math.MinInt16:
		return appendUint16(append(dst, tagInt16), uint16(i))
	case i >= math.MinInt32:
		return appendUint32(append(dst, tagInt32), uint32(i))
	}
	return appendUint64(append(dst, tagInt64), uint64(i))
}

func (e *Encoder) appendUint(dst []byte, u uint64) []byte {
	switch {
	case u <= 0x7f:
		return append(dst, byte(u))
	case u <= math.MaxUint8:
		return append(dst, tagUint8, byte(u))
	case u <= math.MaxUint16:
		return appendUint16(append(dst, tagUint16), uint16(u))
	case u <= math.MaxUint32:
		return appendUint32(append(dst, tagUint32), uint32(u))
	}
	return appendUint64(append(dst, tagUint64), u)
}

func (e *Encoder) appendString(dst []byte, s string) []byte {
	n := len(s)
	dst = appendStrTag(dst, n)
	if n == 0 {
		return dst
	}
	if n >= e.smallString {
		// Large payload: pre-grow in coarse chunks instead of letting
		// append double its way there.
		dst = e.arena.grow(dst, n)
	}
	return append(dst, s...)
}

func (e *Encoder) appendBin(dst []byte, b []byte) []byte {
	n := len(b)
	switch {
	case n < 1<<8:
		dst = append(dst, tagBin8, byte(n))
	case n < 1<<16:
		dst = appendUint16(append(dst, tagBin16), uint16(n))
	default:
		dst = appendUint32(append(dst, tagBin32), uint32(n))
	}
	if n < e.smallBin {
		for i := 0; i < n; i++ {
			dst = append(dst, b[i])
		}
		return dst
	}
	dst = e.arena.grow(dst, n)
	return append(dst, b...)
}

func (e *Encoder) appendArray(dst []byte, xs []interface{}, depth int) ([]byte, error) {
	dst = appendArrayTag(dst, len(xs))
	var err error
	for i, x := range xs {
		dst, err = e.encodeValue(dst, x, depth+1)
		if err != nil {
			return dst, errors.Wrapf(err, "array element %d", i)
		}
	}
	return dst, nil
}

func (e *Encoder) appendStringMap(dst []byte, m map[string]interface{}, depth int) ([]byte, error) {
	dst = appendMapTag(dst, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	if e.keyOrder != nil {
		e.keyOrder(keys)
	}
	var err error
	for _, k := range keys {
		dst = e.appendKey(dst, k)
		dst, err = e.encodeValue(dst, m[k], depth+1)
		if err != nil {
			return dst, errors.Wrapf(err, "map key %q", k)
		}
	}
	return dst, nil
}

func (e *Encoder) appendUntypedMap(dst []byte, m map[interface{}]interface{}, depth int) ([]byte, error) {
	dst = appendMapTag(dst, len(m))
	var err error
	for k, v := range m {
		dst, err = e.encodeValue(dst, k, depth+1)
		if err != nil {
			return dst, errors.Wrap(err, "map key")
		}
		dst, err = e.encodeValue(dst, v, depth+1)
		if err != nil {
			return dst, errors.Wrapf(err, "map value for key %v", k)
		}
	}
	return dst, nil
}

func (e *Encoder) appendReflectMap(dst []byte, rv reflect.Value, depth int) ([]byte, error) {
	dst = appendMapTag(dst, rv.Len())
	var err error
	if rv.Type().Key().Kind() == reflect.String {
		keys := rv.MapKeys()
		names := make([]string, len(keys))
		byName := make(map[string]reflect.Value, len(keys))
		for i, k := range keys {
			names[i] = k.String()
			byName[names[i]] = k
		}
		if e.keyOrder != nil {
			e.keyOrder(names)
		}
		for _, name := range names {
			dst = e.appendKey(dst, name)
			dst, err = e.encodeValue(dst, rv.MapIndex(byName[name]).Interface(), depth+1)
			if err != nil {
				return dst, errors.Wrapf(err, "map key %q", name)
			}
		}
		return dst, nil
	}
	for _, k := range rv.MapKeys() {
		dst, err = e.encodeValue(dst, k.Interface(), depth+1)
		if err != nil {
			return dst, errors.Wrap(err, "map key")
		}
		dst, err = e.encodeValue(dst, rv.MapIndex(k).Interface(), depth+1)
		if err != nil {
			return dst, errors.Wrapf(err, "map value for key %v", k.Interface())
		}
	}
	return dst, nil
}

// appendStruct encodes exported fields as a map in declaration order.
// A field tag `mpack:"name"` renames the key, `mpack:"-"` skips the
// field.
func (e *Encoder) appendStruct(dst []byte, rv reflect.Value, depth int) ([]byte, error) {
	rt := rv.Type()
	names := make([]string, 0, rt.NumField())
	vals := make([]interface{}, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("mpack"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		names = append(names, name)
		vals = append(vals, rv.Field(i).Interface())
	}

	dst = appendMapTag(dst, len(names))
	var err error
	for i, name := range names {
		dst = e.appendKey(dst, name)
		dst, err = e.encodeValue(dst, vals[i], depth+1)
		if err != nil {
			return dst, errors.Wrapf(err, "field %s", name)
		}
	}
	return dst, nil
}

func (e *Encoder) appendExt(dst []byte, typ byte, payload []byte) ([]byte, error) {
	if typ > ExtTypeMax {
		return dst, EncodingError{Value: Ext{Type: typ, Data: payload}, Kind: KindExt}
	}
	n := len(payload)
	switch n {
	case 1:
		dst = append(dst, tagFixext1)
	case 2:
		dst = append(dst, tagFixext2)
	case 4:
		dst = append(dst, tagFixext4)
	case 8:
		dst = append(dst, tagFixext8)
	case 16:
		dst = append(dst, tagFixext16)
	default:
		switch {
		case n < 1<<8:
			dst = append(dst, tagExt8, byte(n))
		case n < 1<<16:
			dst = appendUint16(append(dst, tagExt16), uint16(n))
		default:
			dst = appendUint32(append(dst, tagExt32), uint32(n))
		}
	}
	dst = append(dst, typ)
	if n >= e.smallBin {
		dst = e.arena.grow(dst, n)
	}
	return append(dst, payload...), nil
}

// appendKey is the object-key fast path: short all-ASCII keys skip the
// general string encoder.
func (e *Encoder) appendKey(dst []byte, k string) []byte {
	if !e.utf8Keys && len(k) < 32 && isASCII(k) {
		dst = append(dst, tagFixstrMin|byte(len(k)))
		return append(dst, k...)
	}
	return e.appendString(dst, k)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func appendStrTag(dst []byte, n int) []byte {
	switch {
	case n < 32:
		return append(dst, tagFixstrMin|byte(n))
	case n < 1<<8:
		return append(dst, tagStr8, byte(n))
	case n < 1<<16:
		return appendUint16(append(dst, tagStr16), uint16(n))
	default:
		return appendUint32(append(dst, tagStr32), uint32(n))
	}
}

func appendArrayTag(dst []byte, n int) []byte {
	switch {
	case n < 16:
		return append(dst, tagFixarrayMin|byte(n))
	case n < 1<<16:
		return appendUint16(append(dst, tagArray16), uint16(n))
	default:
		return appendUint32(append(dst, tagArray32), uint32(n))
	}
}

func appendMapTag(dst []byte, n int) []byte {
	switch {
	case n < 16:
		return append(dst, tagFixmapMin|byte(n))
	case n < 1<<16:
		return appendUint16(append(dst, tagMap16), uint16(n))
	default:
		return appendUint32(append(dst, tagMap32), uint32(n))
	}
}

func appendUint16(dst []byte, v uint16) []byte {
	return append(dst, byte(v>>8), byte(v))
}

func appendUint32(dst []byte, v uint32) []byte {
	return append(dst, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

func appendUint64(dst []byte, v uint64) []byte {
	return append(dst,
		byte(v>>56), byte(v>>48), byte(v>>40), byte(v>>32),
		byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
