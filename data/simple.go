// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"fmt"

	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/geom"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Simple is [Data] holding a single value of an [Element] type.
type Simple[T Element] struct {
	value  T
	interp Interpretation
}

// NewSimple returns new simple data holding the given value.
func NewSimple[T Element](v T) *Simple[T] {
	return &Simple[T]{value: v}
}

// Value returns the value.
func (d *Simple[T]) Value() T { return d.value }

// SetValue sets the value.
func (d *Simple[T]) SetValue(v T) { d.value = v }

// Interpretation returns the geometric interpretation of the value.
func (d *Simple[T]) Interpretation() Interpretation { return d.interp }

// SetInterpretation sets the geometric interpretation of the value.
func (d *Simple[T]) SetInterpretation(in Interpretation) { d.interp = in }

func (d *Simple[T]) TypeID() TypeID { return SimpleTypeID(KindOf[T]()) }

func (d *Simple[T]) TypeName() string { return d.TypeID().String() }

func (d *Simple[T]) Hash(h *murmur.Hash) { HashBinary(h, d) }

func (d *Simple[T]) Clone() Object {
	nd := *d
	return &nd
}

func (d *Simple[T]) MarshalBinary() ([]byte, error) {
	e := &Encoder{}
	e.Int(int(d.interp))
	encodeElements(e, []T{d.value})
	return e.Bytes(), nil
}

func (d *Simple[T]) UnmarshalBinary(b []byte) error {
	dec := NewDecoder(b)
	d.interp = Interpretation(dec.Int())
	vs := decodeElements[T](dec, 1)
	if dec.Err() != nil {
		return dec.Err()
	}
	d.value = vs[0]
	return nil
}

func (d *Simple[T]) String() string {
	return fmt.Sprintf("%s(%v)", d.TypeName(), d.value)
}

// Aliases for the commonly used simple data types.
type (
	BoolData    = Simple[bool]
	IntData     = Simple[int]
	FloatData   = Simple[float32]
	DoubleData  = Simple[float64]
	StringData  = Simple[string]
	V2fData     = Simple[mgl32.Vec2]
	V3fData     = Simple[mgl32.Vec3]
	V3dData     = Simple[mgl64.Vec3]
	Color3fData = Simple[Color3f]
	M44fData    = Simple[mgl32.Mat4]
	M44dData    = Simple[mgl64.Mat4]
	Box3fData   = Simple[geom.Box3f]
	Box3dData   = Simple[geom.Box3d]
)

// NewBool returns new [BoolData].
func NewBool(v bool) *BoolData { return NewSimple(v) }

// NewInt returns new [IntData].
func NewInt(v int) *IntData { return NewSimple(v) }

// NewFloat returns new [FloatData].
func NewFloat(v float32) *FloatData { return NewSimple(v) }

// NewDouble returns new [DoubleData].
func NewDouble(v float64) *DoubleData { return NewSimple(v) }

// NewString returns new [StringData].
func NewString(v string) *StringData { return NewSimple(v) }

// NewM44d returns new [M44dData].
func NewM44d(v mgl64.Mat4) *M44dData { return NewSimple(v) }

// ValueOf returns the value of d if it is simple data of type T.
func ValueOf[T Element](d Object) (T, bool) {
	if s, ok := d.(*Simple[T]); ok && s != nil {
		return s.value, true
	}
	var z T
	return z, false
}
