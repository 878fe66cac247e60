// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"fmt"
	"slices"
	"sync/atomic"

	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/geom"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// buffer is the storage shared between copies of a [Vector].
// refs is an upper bound on the number of vectors sharing it.
type buffer[T Element] struct {
	values []T
	refs   atomic.Int32
}

func newBuffer[T Element](values []T) *buffer[T] {
	b := &buffer[T]{values: values}
	b.refs.Store(1)
	return b
}

// Vector is [Data] holding a sequence of values of an [Element] type.
//
// Copies made with [Vector.Clone] share storage until either side
// asks for [Vector.Writable] values, at which point that side gets
// its own storage. Two variables holding the same *Vector pointer
// are aliases and see each other's writes.
type Vector[T Element] struct {
	buf    *buffer[T]
	interp Interpretation
}

// NewVector returns new vector data taking ownership of the given values.
func NewVector[T Element](values []T) *Vector[T] {
	return &Vector[T]{buf: newBuffer(values)}
}

// NewGeometricVector returns new vector data with the given interpretation.
func NewGeometricVector[T Element](values []T, in Interpretation) *Vector[T] {
	d := NewVector(values)
	d.interp = in
	return d
}

// Readable returns the values for reading. The slice must not be modified.
func (d *Vector[T]) Readable() []T {
	if d.buf == nil {
		return nil
	}
	return d.buf.values
}

// Writable returns the values for modification, first making a private
// copy of the storage if it is shared with other vectors.
func (d *Vector[T]) Writable() []T {
	if d.buf == nil {
		d.buf = newBuffer[T](nil)
		return nil
	}
	if d.buf.refs.Load() > 1 {
		nb := newBuffer(slices.Clone(d.buf.values))
		d.buf.refs.Add(-1)
		d.buf = nb
	}
	return d.buf.values
}

// SetValues replaces the values, taking ownership of the given slice.
func (d *Vector[T]) SetValues(values []T) {
	if d.buf != nil {
		d.buf.refs.Add(-1)
	}
	d.buf = newBuffer(values)
}

// Append appends values.
func (d *Vector[T]) Append(values ...T) {
	vs := d.Writable()
	d.buf.values = append(vs, values...)
}

// Shared returns whether the storage is currently shared with another vector.
func (d *Vector[T]) Shared() bool {
	return d.buf != nil && d.buf.refs.Load() > 1
}

func (d *Vector[T]) Len() int { return len(d.Readable()) }

func (d *Vector[T]) Interpretation() Interpretation { return d.interp }

func (d *Vector[T]) SetInterpretation(in Interpretation) { d.interp = in }

func (d *Vector[T]) TypeID() TypeID { return VectorTypeID(KindOf[T]()) }

func (d *Vector[T]) TypeName() string { return d.TypeID().String() }

func (d *Vector[T]) Hash(h *murmur.Hash) { HashBinary(h, d) }

// Clone returns a copy sharing storage until one side is written.
func (d *Vector[T]) Clone() Object {
	nd := &Vector[T]{buf: d.buf, interp: d.interp}
	if d.buf != nil {
		d.buf.refs.Add(1)
	}
	return nd
}

func (d *Vector[T]) Gather(indices []int) (VectorData, error) {
	vs := d.Readable()
	out := make([]T, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(vs) {
			return nil, fmt.Errorf("%s.Gather: index %d at %d out of range [0, %d)", d.TypeName(), idx, i, len(vs))
		}
		out[i] = vs[idx]
	}
	return NewGeometricVector(out, d.interp), nil
}

func (d *Vector[T]) MarshalBinary() ([]byte, error) {
	vs := d.Readable()
	e := &Encoder{}
	e.Int(int(d.interp))
	e.Int(len(vs))
	encodeElements(e, vs)
	return e.Bytes(), nil
}

func (d *Vector[T]) UnmarshalBinary(b []byte) error {
	dec := NewDecoder(b)
	d.interp = Interpretation(dec.Int())
	n := dec.Len(elementSize(KindOf[T]()))
	vs := decodeElements[T](dec, n)
	if dec.Err() != nil {
		return dec.Err()
	}
	d.SetValues(vs)
	return nil
}

func (d *Vector[T]) String() string {
	return fmt.Sprintf("%s%v", d.TypeName(), d.Readable())
}

// Aliases for the commonly used vector data types.
type (
	BoolVectorData    = Vector[bool]
	IntVectorData     = Vector[int]
	FloatVectorData   = Vector[float32]
	DoubleVectorData  = Vector[float64]
	StringVectorData  = Vector[string]
	V2fVectorData     = Vector[mgl32.Vec2]
	V3fVectorData     = Vector[mgl32.Vec3]
	V3dVectorData     = Vector[mgl64.Vec3]
	Color3fVectorData = Vector[Color3f]
	M44fVectorData    = Vector[mgl32.Mat4]
	M44dVectorData    = Vector[mgl64.Mat4]
	Box3fVectorData   = Vector[geom.Box3f]
	Box3dVectorData   = Vector[geom.Box3d]
)

// NewInts returns new [IntVectorData] holding the given values.
func NewInts(values ...int) *IntVectorData { return NewVector(values) }

// NewStrings returns new [StringVectorData] holding the given values.
func NewStrings(values ...string) *StringVectorData { return NewVector(values) }

// NewFloats returns new [FloatVectorData] holding the given values.
func NewFloats(values ...float32) *FloatVectorData { return NewVector(values) }

// NewPoints returns new [V3fVectorData] interpreted as points.
func NewPoints(values ...mgl32.Vec3) *V3fVectorData {
	return NewGeometricVector(values, InterpPoint)
}

// ValuesOf returns the values of d if it is vector data of type T.
func ValuesOf[T Element](d Object) ([]T, bool) {
	if v, ok := d.(*Vector[T]); ok && v != nil {
		return v.Readable(), true
	}
	return nil, false
}

func registerKind[T Element]() {
	k := KindOf[T]()
	Register(SimpleTypeID(k).String(), func() Object { return &Simple[T]{} })
	Register(VectorTypeID(k).String(), func() Object { return &Vector[T]{} })
}

func init() {
	registerKind[bool]()
	registerKind[int]()
	registerKind[float32]()
	registerKind[float64]()
	registerKind[string]()
	registerKind[mgl32.Vec2]()
	registerKind[mgl32.Vec3]()
	registerKind[mgl64.Vec3]()
	registerKind[Color3f]()
	registerKind[mgl32.Mat4]()
	registerKind[mgl64.Mat4]()
	registerKind[geom.Box3f]()
	registerKind[geom.Box3d]()
	Register("CompoundData", func() Object { return NewCompound() })
}
