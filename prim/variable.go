// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package prim provides geometric primitives described as topology
// plus named primitive variables, and the rules that relate the two.
package prim

import (
	"fmt"
	"slices"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/ordmap"
	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/data"
)

// Interpolation is the granularity at which a primitive variable
// varies across the topology of its primitive.
type Interpolation int32

const (
	// Invalid is the zero value and is never valid on a primitive.
	Invalid Interpolation = iota

	// Constant has a single value for the whole primitive.
	Constant

	// Uniform has one value per face (or per curve).
	Uniform

	// Vertex has one value per point, interpolated using the
	// primitive's own basis.
	Vertex

	// Varying has one value per point (or per segment end point
	// for curves), interpolated linearly.
	Varying

	// FaceVarying has one value per face corner, allowing
	// discontinuities such as UV seams.
	FaceVarying
)

var interpolationNames = [...]string{"Invalid", "Constant", "Uniform", "Vertex", "Varying", "FaceVarying"}

func (i Interpolation) String() string {
	if i < 0 || int(i) >= len(interpolationNames) {
		return fmt.Sprintf("Interpolation(%d)", int32(i))
	}
	return interpolationNames[i]
}

// ErrInvalidVariable is returned when a primitive variable does not
// match the topology of its primitive.
var ErrInvalidVariable = errors.New("invalid primitive variable")

// Variable is a data array attached to a primitive, with an
// interpolation and optional indices into the data.
type Variable struct {
	Interpolation Interpolation
	Data          data.Data

	// Indices, when set, index into Data; the expanded value at
	// position i is Data[Indices[i]].
	Indices *data.IntVectorData
}

// NewVariable returns a new non-indexed [Variable].
func NewVariable(interp Interpolation, d data.Data) Variable {
	return Variable{Interpolation: interp, Data: d}
}

// NewIndexedVariable returns a new indexed [Variable].
func NewIndexedVariable(interp Interpolation, d data.Data, indices *data.IntVectorData) Variable {
	return Variable{Interpolation: interp, Data: d, Indices: indices}
}

// Copy returns a copy of the variable. A shallow copy shares the
// Data and Indices objects with v, so writes through either are
// visible to both; a deep copy gets independent copies.
func (v Variable) Copy(deep bool) Variable {
	if !deep {
		return v
	}
	nv := Variable{Interpolation: v.Interpolation}
	if v.Data != nil {
		nv.Data = data.Copy(v.Data)
	}
	if v.Indices != nil {
		nv.Indices = data.Copy(v.Indices)
	}
	return nv
}

// ExpandedData returns the data with indices applied. If the
// variable has no indices, the Data itself is returned and is not a copy.
func (v Variable) ExpandedData() (data.Data, error) {
	if v.Indices == nil {
		return v.Data, nil
	}
	vd, ok := v.Data.(data.VectorData)
	if !ok {
		return nil, fmt.Errorf("%w: indexed %s is not vector data", ErrInvalidVariable, typeName(v.Data))
	}
	return vd.Gather(v.Indices.Readable())
}

// Equal returns whether two variables have equal interpolation,
// data and indices.
func (v Variable) Equal(o Variable) bool {
	if v.Interpolation != o.Interpolation || !data.Equal(v.Data, o.Data) {
		return false
	}
	if v.Indices == nil || o.Indices == nil {
		return v.Indices == nil && o.Indices == nil
	}
	return data.Equal(v.Indices, o.Indices)
}

func typeName(d data.Data) string {
	if d == nil {
		return "nil"
	}
	return d.TypeName()
}

// dataSize returns the number of elements of d, or -1 for
// non-vector data.
func dataSize(d data.Data) int {
	if vd, ok := d.(data.VectorData); ok {
		return vd.Len()
	}
	return -1
}

// Variables is the ordered set of named primitive variables of a primitive.
type Variables struct {
	ordmap.Map[string, Variable]
}

// Set sets the named variable, replacing any existing one.
func (vs *Variables) Set(name string, v Variable) {
	vs.Add(name, v)
}

// Get returns the named variable.
func (vs *Variables) Get(name string) (Variable, bool) {
	return vs.ValueByKeyTry(name)
}

// Has returns whether the named variable exists.
func (vs *Variables) Has(name string) bool {
	return vs.IndexByKey(name) >= 0
}

// Delete removes the named variable.
func (vs *Variables) Delete(name string) {
	vs.DeleteKey(name)
}

// Names returns the variable names in insertion order.
func (vs *Variables) Names() []string {
	return vs.Keys()
}

// copyFrom copies all variables from o, deeply if requested.
func (vs *Variables) copyFrom(o *Variables, deep bool) {
	vs.Reset()
	for _, kv := range o.Order {
		vs.Add(kv.Key, kv.Value.Copy(deep))
	}
}

func (vs *Variables) sortedNames() []string {
	names := vs.Keys()
	slices.Sort(names)
	return names
}

func (vs *Variables) hash(h *murmur.Hash) {
	for _, n := range vs.sortedNames() {
		v, _ := vs.Get(n)
		h.AppendString(n)
		h.AppendInt(int(v.Interpolation))
		if v.Data != nil {
			v.Data.Hash(h)
		}
		if v.Indices != nil {
			v.Indices.Hash(h)
		}
	}
}

func (vs *Variables) encode(e *data.Encoder) error {
	names := vs.sortedNames()
	e.Int(len(names))
	for _, n := range names {
		v, _ := vs.Get(n)
		e.Text(n)
		e.Int(int(v.Interpolation))
		if err := e.Object(v.Data); err != nil {
			return fmt.Errorf("primitive variable %q: %w", n, err)
		}
		e.Bool(v.Indices != nil)
		if v.Indices != nil {
			if err := e.Object(v.Indices); err != nil {
				return fmt.Errorf("primitive variable %q indices: %w", n, err)
			}
		}
	}
	return nil
}

func (vs *Variables) decode(d *data.Decoder) error {
	vs.Reset()
	n := d.Len(17)
	for range n {
		name := d.Text()
		v := Variable{Interpolation: Interpolation(d.Int())}
		o := d.Object()
		if d.Err() != nil {
			return d.Err()
		}
		dd, ok := o.(data.Data)
		if !ok {
			return fmt.Errorf("primitive variable %q: %s is not data", name, o.TypeName())
		}
		v.Data = dd
		if d.Bool() {
			io := d.Object()
			if d.Err() != nil {
				return d.Err()
			}
			idx, ok := io.(*data.IntVectorData)
			if !ok {
				return fmt.Errorf("primitive variable %q: indices are not IntVectorData", name)
			}
			v.Indices = idx
		}
		vs.Set(name, v)
	}
	return d.Err()
}
