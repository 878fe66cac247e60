// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prim

import (
	"fmt"

	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// Bounded is implemented by objects that have a bounding box.
type Bounded interface {
	Bound() geom.Box3f
}

// Primitive is a geometric object described as topology plus
// named primitive [Variables].
type Primitive interface {
	data.Object
	Bounded

	// Vars returns the primitive variables, which the primitive owns.
	Vars() *Variables

	// VariableSize returns the number of values a variable of the
	// given interpolation needs for the current topology.
	VariableSize(interp Interpolation) int

	// TopologyHash appends the hash of the topology alone.
	TopologyHash(h *murmur.Hash)
}

// Base provides the variables shared by all primitives.
type Base struct {
	Variables Variables
}

func (b *Base) Vars() *Variables { return &b.Variables }

// IsVariableValid returns whether v is internally consistent and
// sized correctly for p. It never fails with an error.
func IsVariableValid(p Primitive, v Variable) bool {
	return checkVariable(p, v) == nil
}

// AreVariablesValid returns whether every variable of p is valid.
func AreVariablesValid(p Primitive) bool {
	return Validate(p) == nil
}

// Validate returns an error wrapping [ErrInvalidVariable] that names
// the first invalid variable of p, or nil if all are valid.
func Validate(p Primitive) error {
	for _, kv := range p.Vars().Order {
		if kv.Key == "P" && kv.Value.Interpolation != Vertex && kv.Value.Interpolation != Varying {
			return fmt.Errorf("%w %q on %s: %v interpolation, needs Vertex or Varying", ErrInvalidVariable, kv.Key, p.TypeName(), kv.Value.Interpolation)
		}
		if err := checkVariable(p, kv.Value); err != nil {
			return fmt.Errorf("%w %q on %s: %s", ErrInvalidVariable, kv.Key, p.TypeName(), err)
		}
	}
	return nil
}

func checkVariable(p Primitive, v Variable) error {
	if v.Data == nil {
		return fmt.Errorf("no data")
	}
	if v.Interpolation <= Invalid || v.Interpolation > FaceVarying {
		return fmt.Errorf("invalid interpolation %v", v.Interpolation)
	}
	size := p.VariableSize(v.Interpolation)
	n := dataSize(v.Data)
	if v.Indices != nil {
		if n < 0 {
			return fmt.Errorf("indexed %s is not vector data", v.Data.TypeName())
		}
		idx := v.Indices.Readable()
		if len(idx) != size {
			return fmt.Errorf("%d indices, %v needs %d", len(idx), v.Interpolation, size)
		}
		for i, ix := range idx {
			if ix < 0 || ix >= n {
				return fmt.Errorf("index %d at %d out of range [0, %d)", ix, i, n)
			}
		}
		return nil
	}
	if n < 0 {
		if v.Interpolation != Constant {
			return fmt.Errorf("%s needs vector data for %v", v.Data.TypeName(), v.Interpolation)
		}
		return nil
	}
	if n != size {
		return fmt.Errorf("%d values, %v needs %d", n, v.Interpolation, size)
	}
	return nil
}

// Points returns the "P" variable values if present.
func (b *Base) Points() []mgl32.Vec3 {
	v, ok := b.Variables.Get("P")
	if !ok {
		return nil
	}
	ps, _ := data.ValuesOf[mgl32.Vec3](v.Data)
	return ps
}

// pointsBound returns the bound of "P", expanded by half of the
// "width" variable when present. defaultWidth applies when there is none.
func (b *Base) pointsBound(defaultWidth float32) geom.Box3f {
	ps := b.Points()
	bb := geom.B3fEmpty()
	if len(ps) == 0 {
		return bb
	}
	wv, hasWidth := b.Variables.Get("width")
	var widths []float32
	w := defaultWidth
	if hasWidth {
		if c, ok := data.ValueOf[float32](wv.Data); ok {
			w = c
		} else if ws, ok := data.ValuesOf[float32](wv.Data); ok && len(ws) == len(ps) && wv.Indices == nil {
			widths = ws
		}
	}
	for i, p := range ps {
		r := w / 2
		if widths != nil {
			r = widths[i] / 2
		}
		bb.ExpandByPoint(p.Sub(mgl32.Vec3{r, r, r}))
		bb.ExpandByPoint(p.Add(mgl32.Vec3{r, r, r}))
	}
	return bb
}

// encode writes the variables in name order.
func (b *Base) encode(e *data.Encoder) error {
	return b.Variables.encode(e)
}

func (b *Base) decode(d *data.Decoder) error {
	return b.Variables.decode(d)
}
