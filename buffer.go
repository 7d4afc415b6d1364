// SPDX-FileCopyrightText: 2023 The mpack Authors
//
// SPDX-License-Identifier: MIT

package mpack // import "github.com/ssbc/mpack"

// defaultScratchSize is the minimum allocation chunk of an Encoder's
// scratch buffer when ScratchSize is not configured.
const defaultScratchSize = 2048

// scratch is the per-Encoder output arena. Encode builds the wire
// bytes here and copies them out before returning, so the region is
// safe to reuse across calls. Capacity only ever grows.
type scratch struct {
	buf []byte
	min int // minimum allocation chunk
}

// take hands out the arena for one encode call, length reset to zero.
func (s *scratch) take() []byte {
	return s.buf[:0]
}

// keep retains the (possibly reallocated) arena so a later call starts
// with all capacity grown so far.
func (s *scratch) keep(buf []byte) {
	if cap(buf) > cap(s.buf) {
		s.buf = buf
	}
}

// grow returns buf with room for at least n more bytes. New capacity
// is allocated in coarse chunks, min * max(2, ceil(n/1024)), so many
// mid-sized payloads amortize a single reallocation; outsized requests
// are clamped up to exactly what they need.
func (s *scratch) grow(buf []byte, n int) []byte {
	if cap(buf)-len(buf) >= n {
		return buf
	}
	chunks := (n + 1023) / 1024
	if chunks < 2 {
		chunks = 2
	}
	newCap := s.min * chunks
	if newCap < len(buf)+n {
		newCap = len(buf) + n
	}
	next := make([]byte, len(buf), newCap)
	copy(next, buf)
	return next
}
