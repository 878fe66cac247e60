// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Encoder appends values to a byte buffer in the little-endian
// layout shared by all [Object] serializations.
type Encoder struct {
	buf []byte
}

// Bytes returns the encoded bytes.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Uint64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }

func (e *Encoder) Int(v int) { e.Uint64(uint64(int64(v))) }

func (e *Encoder) Float32(v float32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
}

func (e *Encoder) Float64(v float64) { e.Uint64(math.Float64bits(v)) }

func (e *Encoder) Bool(v bool) {
	b := byte(0)
	if v {
		b = 1
	}
	e.buf = append(e.buf, b)
}

// Text writes a length-prefixed string.
func (e *Encoder) Text(s string) {
	e.Int(len(s))
	e.buf = append(e.buf, s...)
}

// Raw writes a length-prefixed byte slice.
func (e *Encoder) Raw(b []byte) {
	e.Int(len(b))
	e.buf = append(e.buf, b...)
}

// Object writes a length-prefixed serialized object, including its type name.
func (e *Encoder) Object(o Object) error {
	b, err := MarshalObject(o)
	if err != nil {
		return err
	}
	e.Raw(b)
	return nil
}

// Decoder reads values written by an [Encoder]. The first error is
// sticky: subsequent reads return zero values and [Decoder.Err]
// reports it.
type Decoder struct {
	buf []byte
	err error
}

// NewDecoder returns a decoder reading from b.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Err returns the first error encountered.
func (d *Decoder) Err() error { return d.err }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) }

func (d *Decoder) next(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || n > len(d.buf) {
		d.err = io.ErrUnexpectedEOF
		return nil
	}
	b := d.buf[:n]
	d.buf = d.buf[n:]
	return b
}

func (d *Decoder) Uint64() uint64 {
	b := d.next(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (d *Decoder) Int() int { return int(int64(d.Uint64())) }

func (d *Decoder) Float32() float32 {
	b := d.next(4)
	if b == nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func (d *Decoder) Float64() float64 { return math.Float64frombits(d.Uint64()) }

func (d *Decoder) Bool() bool {
	b := d.next(1)
	return b != nil && b[0] != 0
}

// Len reads an element count, checking that at least minSize bytes
// per element remain so that corrupt input cannot cause huge allocations.
func (d *Decoder) Len(minSize int) int {
	n := d.Int()
	if d.err != nil {
		return 0
	}
	if n < 0 || n*max(minSize, 1) > len(d.buf) {
		d.err = fmt.Errorf("data: invalid element count %d", n)
		return 0
	}
	return n
}

// Text reads a length-prefixed string.
func (d *Decoder) Text() string {
	return string(d.next(d.Len(1)))
}

// Raw reads a length-prefixed byte slice. The result aliases the input.
func (d *Decoder) Raw() []byte {
	return d.next(d.Len(1))
}

// Object reads a length-prefixed serialized object.
func (d *Decoder) Object() Object {
	b := d.Raw()
	if d.err != nil {
		return nil
	}
	o, err := UnmarshalObject(b)
	if err != nil {
		d.err = err
		return nil
	}
	return o
}
