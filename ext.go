// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

package mpack // import "github.com/ssbc/mpack"

// ExtTypeMax is the highest extension type tag available to
// applications. Tags with the high bit set are reserved by the
// MessagePack specification.
const ExtTypeMax = 0x7f

// Ext is an application-defined extension value: a one-byte type tag
// paired with an opaque payload. The decoder hands back an Ext when no
// registered codec claims the type tag, so unknown extension data is
// never dropped.
//
// Decoded Ext payloads are always fresh copies; they never alias the
// input buffer.
type Ext struct {
	Type byte
	Data []byte
}

// NewExt copies data so the returned Ext does not change when the
// caller reuses the slice.
func NewExt(typ byte, data []byte) Ext {
	d := make([]byte, len(data))
	copy(d, data)
	return Ext{Type: typ, Data: d}
}
