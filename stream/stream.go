// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

// Package stream adapts the mpack codec to io.Writer/io.Reader pairs
// carrying MessagePack values back to back, and exposes luigi
// Source/Sink views of such streams.
package stream // import "github.com/ssbc/mpack/stream"

import (
	"io"
	"io/ioutil"

	"github.com/pkg/errors"

	"github.com/ssbc/mpack"
)

// Encoder writes encoded values to an io.Writer, one after another.
type Encoder struct {
	w   io.Writer
	enc *mpack.Encoder
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer, opts ...mpack.EncodingOption) (*Encoder, error) {
	enc, err := mpack.NewEncoder(opts...)
	if err != nil {
		return nil, err
	}
	return &Encoder{w: w, enc: enc}, nil
}

// Encode appends the encoding of v to the stream.
func (e *Encoder) Encode(v interface{}) error {
	b, err := e.enc.Encode(v)
	if err != nil {
		return errors.Wrap(err, "stream: encode failed")
	}
	if _, err := e.w.Write(b); err != nil {
		return errors.Wrap(err, "stream: write failed")
	}
	return nil
}

// Decoder reads back-to-back values from an io.Reader. MessagePack is
// self-framing, so no length prefix separates the values. The reader
// is drained in full on the first Decode; decoding itself then works
// through the buffered bytes.
type Decoder struct {
	r      io.Reader
	dec    *mpack.Decoder
	rest   []byte
	primed bool
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opts ...mpack.DecodingOption) (*Decoder, error) {
	dec, err := mpack.NewDecoder(opts...)
	if err != nil {
		return nil, err
	}
	return &Decoder{r: r, dec: dec}, nil
}

// Decode returns the next value in the stream, or io.EOF once the
// input is exhausted.
func (d *Decoder) Decode() (interface{}, error) {
	if !d.primed {
		data, err := ioutil.ReadAll(d.r)
		if err != nil {
			return nil, errors.Wrap(err, "stream: reading input failed")
		}
		d.rest = data
		d.primed = true
	}
	if len(d.rest) == 0 {
		return nil, io.EOF
	}
	v, rest, err := d.dec.DecodeNext(d.rest)
	if err != nil {
		return nil, err
	}
	d.rest = rest
	return v, nil
}
