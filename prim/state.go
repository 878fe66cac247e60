// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prim

import (
	"fmt"
	"slices"

	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/geom"
)

// Shader is a shader declaration in a renderer state.
type Shader struct {
	Type       string
	Name       string
	Parameters *data.Compound
}

// Light is a light declaration in a renderer state.
type Light struct {
	Name       string
	Handle     string
	Parameters *data.Compound
	On         bool
}

// Motion holds the samples of a motion-blurred primitive. All
// samples have the same primitive type.
type Motion struct {
	Times   []float32
	Samples []Primitive
}

func params(c *data.Compound) *data.Compound {
	if c == nil {
		return data.NewCompound()
	}
	return c
}

func (s *Shader) TypeName() string { return "Shader" }

func (s *Shader) Hash(h *murmur.Hash) { data.HashBinary(h, s) }

func (s *Shader) Clone() data.Object {
	return &Shader{Type: s.Type, Name: s.Name, Parameters: data.Copy(params(s.Parameters))}
}

func (s *Shader) MarshalBinary() ([]byte, error) {
	e := &data.Encoder{}
	e.Text(s.Type)
	e.Text(s.Name)
	if err := e.Object(params(s.Parameters)); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func (s *Shader) UnmarshalBinary(b []byte) error {
	d := data.NewDecoder(b)
	s.Type = d.Text()
	s.Name = d.Text()
	s.Parameters, _ = d.Object().(*data.Compound)
	return d.Err()
}

func (l *Light) TypeName() string { return "Light" }

func (l *Light) Hash(h *murmur.Hash) { data.HashBinary(h, l) }

func (l *Light) Clone() data.Object {
	return &Light{Name: l.Name, Handle: l.Handle, Parameters: data.Copy(params(l.Parameters)), On: l.On}
}

func (l *Light) MarshalBinary() ([]byte, error) {
	e := &data.Encoder{}
	e.Text(l.Name)
	e.Text(l.Handle)
	e.Bool(l.On)
	if err := e.Object(params(l.Parameters)); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func (l *Light) UnmarshalBinary(b []byte) error {
	d := data.NewDecoder(b)
	l.Name = d.Text()
	l.Handle = d.Text()
	l.On = d.Bool()
	l.Parameters, _ = d.Object().(*data.Compound)
	return d.Err()
}

func (m *Motion) TypeName() string { return "MotionPrimitive" }

func (m *Motion) Hash(h *murmur.Hash) {
	h.AppendString(m.TypeName())
	for i, t := range m.Times {
		h.AppendFloat32(t)
		m.Samples[i].Hash(h)
	}
}

func (m *Motion) Clone() data.Object {
	nm := &Motion{Times: slices.Clone(m.Times)}
	for _, s := range m.Samples {
		nm.Samples = append(nm.Samples, data.Copy(s))
	}
	return nm
}

// Bound returns the union of the bounds of all samples.
func (m *Motion) Bound() geom.Box3f {
	bb := geom.B3fEmpty()
	for _, s := range m.Samples {
		bb.ExpandByBox(s.Bound())
	}
	return bb
}

func (m *Motion) MarshalBinary() ([]byte, error) {
	e := &data.Encoder{}
	e.Int(len(m.Times))
	for i, t := range m.Times {
		e.Float32(t)
		if err := e.Object(m.Samples[i]); err != nil {
			return nil, err
		}
	}
	return e.Bytes(), nil
}

func (m *Motion) UnmarshalBinary(b []byte) error {
	d := data.NewDecoder(b)
	n := d.Len(12)
	m.Times, m.Samples = nil, nil
	for range n {
		t := d.Float32()
		o := d.Object()
		if d.Err() != nil {
			return d.Err()
		}
		p, ok := o.(Primitive)
		if !ok {
			return fmt.Errorf("MotionPrimitive: sample %s is not a primitive", o.TypeName())
		}
		m.Times = append(m.Times, t)
		m.Samples = append(m.Samples, p)
	}
	return d.Err()
}

func init() {
	data.Register("MeshPrimitive", func() data.Object { return &Mesh{} })
	data.Register("PointsPrimitive", func() data.Object { return &Points{} })
	data.Register("CurvesPrimitive", func() data.Object { return &Curves{} })
	data.Register("SpherePrimitive", func() data.Object { return &Sphere{} })
	data.Register("Group", func() data.Object { return NewGroup() })
	data.Register("Shader", func() data.Object { return &Shader{} })
	data.Register("Light", func() data.Object { return &Light{} })
	data.Register("MotionPrimitive", func() data.Object { return &Motion{} })
}
