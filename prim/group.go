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

// Group is a node in a captured scene hierarchy: a local transform,
// optionally motion sampled, the attributes and state in effect, and
// child objects. Children may be shared between groups, in which case
// they are instances of one another.
type Group struct {
	// Transform is the local transform.
	Transform mgl32.Mat4

	// MotionTimes and MotionTransforms hold a motion-sampled local
	// transform. Transform is the first sample when they are set.
	MotionTimes      []float32
	MotionTransforms []mgl32.Mat4

	// Attributes are the attributes set in this group.
	Attributes *data.Compound

	// State holds shaders and lights, in declaration order.
	State []data.Object

	// Children are the child objects.
	Children []data.Object
}

// NewGroup returns a new group with an identity transform.
func NewGroup() *Group {
	return &Group{Transform: mgl32.Ident4(), Attributes: data.NewCompound()}
}

// AddChild appends a child object.
func (g *Group) AddChild(o data.Object) {
	g.Children = append(g.Children, o)
}

// Attribute returns the named attribute of this group, or nil.
func (g *Group) Attribute(name string) data.Data {
	if g.Attributes == nil {
		return nil
	}
	return g.Attributes.Get(name)
}

// Walk calls fn for g and then for every descendant group in depth-first
// order. Shared groups are visited once per reference. Walking stops
// when fn returns false.
func (g *Group) Walk(fn func(g *Group) bool) bool {
	if !fn(g) {
		return false
	}
	for _, c := range g.Children {
		if cg, ok := c.(*Group); ok {
			if !cg.Walk(fn) {
				return false
			}
		}
	}
	return true
}

// Bound returns the union of the bounds of the children in the
// parent space of the group.
func (g *Group) Bound() geom.Box3f {
	bb := geom.B3fEmpty()
	for _, c := range g.Children {
		if b, ok := c.(Bounded); ok {
			bb.ExpandByBox(b.Bound())
		}
	}
	if len(g.MotionTransforms) > 0 {
		out := geom.B3fEmpty()
		for _, m := range g.MotionTransforms {
			out.ExpandByBox(bb.MulMatrix4(m))
		}
		return out
	}
	return bb.MulMatrix4(g.Transform)
}

func (g *Group) TypeName() string { return "Group" }

func (g *Group) Hash(h *murmur.Hash) {
	h.AppendString(g.TypeName())
	for _, f := range g.Transform {
		h.AppendFloat32(f)
	}
	h.AppendInt(len(g.MotionTimes))
	for i, t := range g.MotionTimes {
		h.AppendFloat32(t)
		for _, f := range g.MotionTransforms[i] {
			h.AppendFloat32(f)
		}
	}
	if g.Attributes != nil {
		g.Attributes.Hash(h)
	}
	for _, s := range g.State {
		s.Hash(h)
	}
	h.AppendInt(len(g.Children))
	for _, c := range g.Children {
		c.Hash(h)
	}
}

// Clone returns a deep copy. Shared children are copied once per
// reference, so the copy does not share them.
func (g *Group) Clone() data.Object {
	ng := &Group{
		Transform:        g.Transform,
		MotionTimes:      append([]float32(nil), g.MotionTimes...),
		MotionTransforms: append([]mgl32.Mat4(nil), g.MotionTransforms...),
	}
	if g.Attributes != nil {
		ng.Attributes = data.Copy(g.Attributes)
	}
	for _, s := range g.State {
		ng.State = append(ng.State, s.Clone())
	}
	for _, c := range g.Children {
		ng.Children = append(ng.Children, c.Clone())
	}
	return ng
}

func (g *Group) MarshalBinary() ([]byte, error) {
	e := &data.Encoder{}
	for _, f := range g.Transform {
		e.Float32(f)
	}
	e.Int(len(g.MotionTimes))
	for i, t := range g.MotionTimes {
		e.Float32(t)
		for _, f := range g.MotionTransforms[i] {
			e.Float32(f)
		}
	}
	attrs := g.Attributes
	if attrs == nil {
		attrs = data.NewCompound()
	}
	if err := e.Object(attrs); err != nil {
		return nil, err
	}
	for _, list := range [][]data.Object{g.State, g.Children} {
		e.Int(len(list))
		for _, o := range list {
			if err := e.Object(o); err != nil {
				return nil, err
			}
		}
	}
	return e.Bytes(), nil
}

func (g *Group) UnmarshalBinary(b []byte) error {
	d := data.NewDecoder(b)
	for i := range g.Transform {
		g.Transform[i] = d.Float32()
	}
	n := d.Len(68)
	g.MotionTimes = make([]float32, n)
	g.MotionTransforms = make([]mgl32.Mat4, n)
	for i := range n {
		g.MotionTimes[i] = d.Float32()
		for j := range g.MotionTransforms[i] {
			g.MotionTransforms[i][j] = d.Float32()
		}
	}
	if n == 0 {
		g.MotionTimes, g.MotionTransforms = nil, nil
	}
	attrs, ok := d.Object().(*data.Compound)
	if d.Err() != nil {
		return d.Err()
	}
	if !ok {
		return fmt.Errorf("Group: attributes are not CompoundData")
	}
	g.Attributes = attrs
	g.State = decodeObjects(d)
	g.Children = decodeObjects(d)
	return d.Err()
}

func decodeObjects(d *data.Decoder) []data.Object {
	n := d.Len(8)
	var objs []data.Object
	for range n {
		o := d.Object()
		if d.Err() != nil {
			return nil
		}
		objs = append(objs, o)
	}
	return objs
}
