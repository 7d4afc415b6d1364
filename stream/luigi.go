// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

package stream // import "github.com/ssbc/mpack/stream"

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/ssbc/go-luigi"

	"github.com/ssbc/mpack"
)

var (
	_ luigi.Source = (*source)(nil)
	_ luigi.Sink   = (*sink)(nil)
)

// NewSource returns a luigi.Source yielding the decoded values of r,
// ending with luigi.EOS.
func NewSource(r io.Reader, opts ...mpack.DecodingOption) (luigi.Source, error) {
	dec, err := NewDecoder(r, opts...)
	if err != nil {
		return nil, err
	}
	return &source{dec: dec}, nil
}

type source struct {
	dec *Decoder
}

func (src *source) Next(ctx context.Context) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := src.dec.Decode()
	if err == io.EOF {
		return nil, luigi.EOS{}
	}
	if err != nil {
		return nil, errors.Wrap(err, "stream: source decode failed")
	}
	return v, nil
}

// NewSink returns a luigi.Sink encoding poured values onto w. Close
// closes w when it is an io.Closer.
func NewSink(w io.Writer, opts ...mpack.EncodingOption) (luigi.Sink, error) {
	enc, err := NewEncoder(w, opts...)
	if err != nil {
		return nil, err
	}
	return &sink{w: w, enc: enc}, nil
}

type sink struct {
	w   io.Writer
	enc *Encoder
}

func (s *sink) Pour(ctx context.Context, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.enc.Encode(v)
}

func (s *sink) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
