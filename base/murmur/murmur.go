// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package murmur provides an incremental 128-bit MurmurHash3 value
// used for structural hashing and change detection.
package murmur

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/spaolacci/murmur3"
)

// Hash is an incremental 128-bit hash. The zero value is the
// hash of nothing. Appending data folds the current state and the
// new bytes through MurmurHash3, so the result depends on both the
// content and the order in which it was appended.
type Hash struct {
	H1, H2 uint64
}

// New returns a new [Hash] with the given initial state.
func New(h1, h2 uint64) Hash {
	return Hash{H1: h1, H2: h2}
}

// Append appends the given bytes to the hash.
func (h *Hash) Append(b []byte) *Hash {
	buf := make([]byte, 16, 16+len(b))
	binary.LittleEndian.PutUint64(buf, h.H1)
	binary.LittleEndian.PutUint64(buf[8:], h.H2)
	buf = append(buf, b...)
	h.H1, h.H2 = murmur3.Sum128(buf)
	return h
}

// AppendString appends a string, including its length so that
// consecutive strings cannot alias each other.
func (h *Hash) AppendString(s string) *Hash {
	buf := binary.LittleEndian.AppendUint64(nil, uint64(len(s)))
	return h.Append(append(buf, s...))
}

// AppendInt appends an integer as a 64-bit value.
func (h *Hash) AppendInt(v int) *Hash {
	return h.Append(binary.LittleEndian.AppendUint64(nil, uint64(v)))
}

// AppendUint64 appends a 64-bit unsigned value.
func (h *Hash) AppendUint64(v uint64) *Hash {
	return h.Append(binary.LittleEndian.AppendUint64(nil, v))
}

// AppendFloat32 appends the bits of a float32.
func (h *Hash) AppendFloat32(v float32) *Hash {
	return h.Append(binary.LittleEndian.AppendUint32(nil, math.Float32bits(v)))
}

// AppendFloat64 appends the bits of a float64.
func (h *Hash) AppendFloat64(v float64) *Hash {
	return h.Append(binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
}

// AppendBool appends a bool as a single byte.
func (h *Hash) AppendBool(v bool) *Hash {
	b := byte(0)
	if v {
		b = 1
	}
	return h.Append([]byte{b})
}

// AppendHash appends another hash.
func (h *Hash) AppendHash(o Hash) *Hash {
	buf := binary.LittleEndian.AppendUint64(nil, o.H1)
	return h.Append(binary.LittleEndian.AppendUint64(buf, o.H2))
}

// IsZero returns whether nothing has been appended to the hash.
func (h Hash) IsZero() bool {
	return h.H1 == 0 && h.H2 == 0
}

// String returns the hash as 32 hexadecimal digits.
func (h Hash) String() string {
	return fmt.Sprintf("%016x%016x", h.H1, h.H2)
}
