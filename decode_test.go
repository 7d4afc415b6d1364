// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

package mpack

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDecodeAllFormats(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want interface{}
	}{
		{"positive fixint", []byte{0x2a}, int64(42)},
		{"negative fixint", []byte{0xff}, int64(-1)},
		{"nil", []byte{0xc0}, nil},
		{"false", []byte{0xc2}, false},
		{"true", []byte{0xc3}, true},
		{"uint8", []byte{0xcc, 0x80}, int64(128)},
		{"uint16", []byte{0xcd, 0x01, 0x00}, int64(256)},
		{"uint32", []byte{0xce, 0x00, 0x01, 0x00, 0x00}, int64(65536)},
		{"uint64 small", []byte{0xcf, 0, 0, 0, 0, 0, 0, 0, 0x2a}, int64(42)},
		{"uint64 large", []byte{0xcf, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, uint64(math.MaxUint64)},
		{"int8", []byte{0xd0, 0xdf}, int64(-33)},
		{"int16", []byte{0xd1, 0x80, 0x00}, int64(-32768)},
		{"int32", []byte{0xd2, 0xff, 0xff, 0x7f, 0xff}, int64(-32769)},
		{"int64", []byte{0xd3, 0x80, 0, 0, 0, 0, 0, 0, 0}, int64(math.MinInt64)},
		{"float32", []byte{0xca, 0x3f, 0xc0, 0, 0}, float64(1.5)},
		{"float64", []byte{0xcb, 0x3f, 0xf8, 0, 0, 0, 0, 0, 0}, float64(1.5)},
		{"fixstr", []byte{0xa5, 'h', 'e', 'l', 'l', 'o'}, "hello"},
		{"str8", append([]byte{0xd9, 5}, "hello"...), "hello"},
		{"str16", append([]byte{0xda, 0, 5}, "hello"...), "hello"},
		{"str32", append([]byte{0xdb, 0, 0, 0, 5}, "hello"...), "hello"},
		{"bin8", []byte{0xc4, 3, 1, 2, 3}, []byte{1, 2, 3}},
		{"bin16", []byte{0xc5, 0, 3, 1, 2, 3}, []byte{1, 2, 3}},
		{"bin32", []byte{0xc6, 0, 0, 0, 3, 1, 2, 3}, []byte{1, 2, 3}},
		{"fixarray", []byte{0x92, 0x01, 0x02}, []interface{}{int64(1), int64(2)}},
		{"array16", []byte{0xdc, 0, 1, 0x2a}, []interface{}{int64(42)}},
		{"array32", []byte{0xdd, 0, 0, 0, 1, 0x2a}, []interface{}{int64(42)}},
		{"fixmap", []byte{0x81, 0xa1, 'a', 0x01}, map[string]interface{}{"a": int64(1)}},
		{"map16", []byte{0xde, 0, 1, 0xa1, 'k', 0xc3}, map[string]interface{}{"k": true}},
		{"map32", []byte{0xdf, 0, 0, 0, 1, 0xa1, 'k', 0xc2}, map[string]interface{}{"k": false}},
		{"fixext1", []byte{0xd4, 0x2a, 0x2a}, Ext{Type: 42, Data: []byte{0x2a}}},
		{"fixext2", []byte{0xd5, 0x01, 1, 2}, Ext{Type: 1, Data: []byte{1, 2}}},
		{"fixext16", append([]byte{0xd8, 0x07}, make([]byte, 16)...), Ext{Type: 7, Data: make([]byte, 16)}},
		{"ext8", []byte{0xc7, 2, 9, 1, 2}, Ext{Type: 9, Data: []byte{1, 2}}},
		{"ext16", []byte{0xc8, 0, 2, 9, 1, 2}, Ext{Type: 9, Data: []byte{1, 2}}},
		{"ext32", []byte{0xc9, 0, 0, 0, 2, 9, 1, 2}, Ext{Type: 9, Data: []byte{1, 2}}},
		{"empty str", []byte{0xa0}, ""},
		{"empty array", []byte{0x90}, []interface{}{}},
		{"empty map", []byte{0x80}, map[string]interface{}{}},
		{"empty bin", []byte{0xc4, 0}, []byte{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			v, err := Unmarshal(tc.data)
			r.NoError(err)
			r.Equal(tc.want, v)
		})
	}
}

func TestDecodeTruncated(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty input", nil},
		{"str8 short payload", append([]byte{0xd9, 10}, "hello"...)},
		{"str8 no length", []byte{0xd9}},
		{"uint16 half", []byte{0xcd, 0x01}},
		{"float64 half", []byte{0xcb, 0, 0, 0}},
		{"bin8 short", []byte{0xc4, 5, 1}},
		{"array element missing", []byte{0x92, 0x01}},
		{"array count beyond input", []byte{0xdc, 0xff, 0xff}},
		{"map value missing", []byte{0x81, 0xa1, 'a'}},
		{"map count beyond input", []byte{0xde, 0xff, 0xff, 0xc0}},
		{"ext8 no type", []byte{0xc7, 1}},
		{"fixext4 short", []byte{0xd6, 0x01, 1, 2}},
		// oversized 32-bit length prefixes must fail cleanly even where
		// they would wrap a platform int
		{"str32 length beyond input", []byte{0xdb, 0xff, 0xff, 0xff, 0xff, 'x'}},
		{"bin32 length beyond input", []byte{0xc6, 0x80, 0x00, 0x00, 0x00}},
		{"ext32 length beyond input", []byte{0xc9, 0xff, 0xff, 0xff, 0xfe, 0x07}},
		{"array32 count beyond input", []byte{0xdd, 0xff, 0xff, 0xff, 0xff, 0xc0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := require.New(t)
			_, err := Unmarshal(tc.data)
			r.Error(err)
			cause := errors.Cause(err)
			_, ok := cause.(TruncatedError)
			r.True(ok, "expected TruncatedError, got %T: %v", cause, err)
		})
	}

	// the error carries how much was needed and how much was there
	_, err := Unmarshal(append([]byte{0xd9, 10}, "hello"...))
	require.Error(t, err)
	trunc, ok := errors.Cause(err).(TruncatedError)
	require.True(t, ok)
	require.Equal(t, 10, trunc.Need)
	require.Equal(t, 5, trunc.Have)
}

func TestDecodeInvalidFormat(t *testing.T) {
	r := require.New(t)

	_, err := Unmarshal([]byte{0xc1})
	r.Error(err)
	ferr, ok := errors.Cause(err).(FormatError)
	r.True(ok, "expected FormatError, got %v", err)
	r.Equal(byte(0xc1), ferr.Code)
	r.Equal(0, ferr.Offset)

	// nested occurrence is reported too
	_, err = Unmarshal([]byte{0x91, 0xc1})
	r.Error(err)
	ferr, ok = errors.Cause(err).(FormatError)
	r.True(ok)
	r.Equal(1, ferr.Offset)
}

func TestDecodeTrailingBytes(t *testing.T) {
	r := require.New(t)

	_, err := Unmarshal([]byte{0xc0, 0x00})
	r.Error(err)
	ferr, ok := errors.Cause(err).(FormatError)
	r.True(ok)
	r.Equal(1, ferr.Trailing)
	r.Equal(1, ferr.Offset)

	dec, err := NewDecoder(IgnoreTrailing())
	r.NoError(err)
	v, err := dec.Decode([]byte{0xc0, 0x00})
	r.NoError(err)
	r.Nil(v)
}

func TestDecodeNext(t *testing.T) {
	r := require.New(t)

	dec, err := NewDecoder()
	r.NoError(err)

	data := []byte{0x01, 0xa1, 'x', 0xc3}
	v, rest, err := dec.DecodeNext(data)
	r.NoError(err)
	r.Equal(int64(1), v)

	v, rest, err = dec.DecodeNext(rest)
	r.NoError(err)
	r.Equal("x", v)

	v, rest, err = dec.DecodeNext(rest)
	r.NoError(err)
	r.Equal(true, v)
	r.Empty(rest)
}

func TestDecodeUnknownExt(t *testing.T) {
	r := require.New(t)

	// no codec registered: raw Ext, payload preserved
	v, err := Unmarshal([]byte{0xd4, 0x2a, 0x2a})
	r.NoError(err)
	r.Equal(Ext{Type: 42, Data: []byte{0x2a}}, v)

	// reserved (high-bit) ext types survive as raw bytes as well
	v, err = Unmarshal([]byte{0xd4, 0xff, 0x01})
	r.NoError(err)
	r.Equal(Ext{Type: 0xff, Data: []byte{0x01}}, v)
}

func TestDecodePayloadCopies(t *testing.T) {
	r := require.New(t)

	data := []byte{0xc4, 3, 1, 2, 3}
	v, err := Unmarshal(data)
	r.NoError(err)
	data[2] = 99
	r.Equal([]byte{1, 2, 3}, v, "decoded bytes must not alias the input")

	data = []byte{0xd4, 0x05, 0x0a}
	v, err = Unmarshal(data)
	r.NoError(err)
	data[2] = 99
	r.Equal(Ext{Type: 5, Data: []byte{0x0a}}, v)
}

func TestDecodeMapKeyModes(t *testing.T) {
	r := require.New(t)

	// integer key flips the map to untyped form mid-decode
	v, err := Unmarshal([]byte{0x82, 0xa1, 'a', 0x01, 0x02, 0x03})
	r.NoError(err)
	r.Equal(map[interface{}]interface{}{"a": int64(1), int64(2): int64(3)}, v)

	dec, err := NewDecoder(UntypedMapKeys())
	r.NoError(err)
	v, err = dec.Decode([]byte{0x81, 0xa1, 'a', 0x01})
	r.NoError(err)
	r.Equal(map[interface{}]interface{}{"a": int64(1)}, v)

	// binary keys hash as strings
	v, err = dec.Decode([]byte{0x81, 0xc4, 0x01, 'k', 0x07})
	r.NoError(err)
	r.Equal(map[interface{}]interface{}{"k": int64(7)}, v)

	// container keys cannot be hashed
	_, err = dec.Decode([]byte{0x81, 0x90, 0x01})
	r.Error(err)
}

func TestDecodeKeepUnsigned(t *testing.T) {
	r := require.New(t)

	dec, err := NewDecoder(KeepUnsigned())
	r.NoError(err)

	v, err := dec.Decode([]byte{0xcc, 0x05})
	r.NoError(err)
	r.Equal(uint64(5), v)

	// fixints are not a uint family and stay signed
	v, err = dec.Decode([]byte{0x05})
	r.NoError(err)
	r.Equal(int64(5), v)
}

func TestDecodeDepthLimit(t *testing.T) {
	r := require.New(t)

	dec, err := NewDecoder(MaxDepth(2))
	r.NoError(err)

	_, err = dec.Decode([]byte{0x91, 0x91, 0xc0})
	r.NoError(err, "nesting at the limit is fine")

	_, err = dec.Decode([]byte{0x91, 0x91, 0x91, 0xc0})
	r.Error(err)
	r.Equal(ErrMaxDepth, errors.Cause(err))
}
