// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

package mpack

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScratchGrowthPolicy(t *testing.T) {
	r := require.New(t)

	s := scratch{min: 1024}

	// small demand still allocates at least two chunks
	buf := s.grow(nil, 100)
	r.Equal(0, len(buf))
	r.Equal(2048, cap(buf))

	// enough headroom: same slice comes back
	buf2 := s.grow(buf, 100)
	r.Equal(cap(buf), cap(buf2))

	// demand scales the chunk count
	buf3 := s.grow(nil, 5000)
	r.Equal(5*1024, cap(buf3))

	// outsized demand is clamped up to what is needed
	buf4 := s.grow(nil, 50_000)
	r.GreaterOrEqual(cap(buf4), 50_000)

	// growth preserves content and never shrinks
	buf5 := make([]byte, 3000)
	copy(buf5, "abc")
	buf6 := s.grow(buf5, 100)
	r.GreaterOrEqual(cap(buf6), 3100)
	r.Equal(byte('a'), buf6[0])
	r.Equal(3000, len(buf6))
}

func TestScratchKeepOnlyGrows(t *testing.T) {
	r := require.New(t)

	s := scratch{min: 1024}
	s.keep(make([]byte, 0, 4096))
	r.Equal(4096, cap(s.buf))

	s.keep(make([]byte, 0, 64))
	r.Equal(4096, cap(s.buf), "keep must not replace a larger buffer")
}

func TestEncoderOutputDoesNotAlias(t *testing.T) {
	r := require.New(t)

	enc, err := NewEncoder(ScratchSize(512))
	r.NoError(err)

	first, err := enc.Encode(strings.Repeat("a", 4000))
	r.NoError(err)
	firstCopy := append([]byte(nil), first...)

	_, err = enc.Encode(strings.Repeat("b", 4000))
	r.NoError(err)

	r.Equal(firstCopy, first, "earlier output must survive scratch reuse")
}

func TestEncoderScratchReuse(t *testing.T) {
	r := require.New(t)

	enc, err := NewEncoder()
	r.NoError(err)

	payload := strings.Repeat("z", 10_000)
	want, err := enc.Encode(payload)
	r.NoError(err)

	// repeated encodes of unrelated values must not corrupt output
	for i := 0; i < 5; i++ {
		_, err = enc.Encode([]interface{}{int64(i), strings.Repeat("q", 128)})
		r.NoError(err)
		again, err := enc.Encode(payload)
		r.NoError(err)
		r.Equal(want, again)
	}
}
