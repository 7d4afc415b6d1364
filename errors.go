// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

package mpack // import "github.com/ssbc/mpack"

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMaxDepth aborts encoding or decoding of containers nested deeper
// than the configured limit. Use errors.Cause to test for it.
var ErrMaxDepth = errors.New("mpack: container nesting exceeds depth limit")

// EncodingError reports a value that no built-in format, registered
// codec, or unsupported-value handler could represent.
type EncodingError struct {
	Value interface{}
	Kind  Kind
}

func (e EncodingError) Error() string {
	return fmt.Sprintf("mpack: cannot encode %s value of type %T", e.Kind, e.Value)
}

// TruncatedError reports input that ended before a fixed-width payload
// or a just-read length prefix was satisfied.
type TruncatedError struct {
	Need int // bytes the current format still requires
	Have int // bytes remaining in the input
}

func (e TruncatedError) Error() string {
	return fmt.Sprintf("mpack: truncated input: need %d byte(s), have %d", e.Need, e.Have)
}

// FormatError reports a lead byte outside the defined format space or,
// with Trailing set, leftover bytes after a complete value.
type FormatError struct {
	Code     byte
	Offset   int
	Trailing int // leftover byte count, 0 for an invalid lead byte
}

func (e FormatError) Error() string {
	if e.Trailing > 0 {
		return fmt.Sprintf("mpack: %d trailing byte(s) after value, starting at offset %d", e.Trailing, e.Offset)
	}
	return fmt.Sprintf("mpack: invalid format byte 0x%02x (%s) at offset %d", e.Code, formats[e.Code].name, e.Offset)
}
