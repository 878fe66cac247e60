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

// CubicBasis is the basis used to interpolate curve vertices.
type CubicBasis int32

const (
	Linear CubicBasis = iota
	Bezier
	BSpline
	CatmullRom
)

var basisNames = [...]string{"Linear", "Bezier", "BSpline", "CatmullRom"}

func (b CubicBasis) String() string {
	if b < 0 || int(b) >= len(basisNames) {
		return fmt.Sprintf("CubicBasis(%d)", int32(b))
	}
	return basisNames[b]
}

// Step returns the number of vertices between segments.
func (b CubicBasis) Step() int {
	if b == Bezier {
		return 3
	}
	return 1
}

// Curves is a set of curves sharing a basis.
type Curves struct {
	Base

	verticesPerCurve []int
	basis            CubicBasis
	periodic         bool
}

// NewCurves returns new curves with the given topology.
func NewCurves(verticesPerCurve []int, basis CubicBasis, periodic bool) (*Curves, error) {
	c := &Curves{}
	if err := c.SetTopology(verticesPerCurve, basis, periodic); err != nil {
		return nil, err
	}
	return c, nil
}

// SetTopology replaces the topology. Variables must be revalidated.
func (c *Curves) SetTopology(verticesPerCurve []int, basis CubicBasis, periodic bool) error {
	minVerts := 2
	if basis != Linear && !periodic {
		minVerts = 4
	}
	for i, n := range verticesPerCurve {
		if n < minVerts {
			return fmt.Errorf("CurvesPrimitive: curve %d has %d vertices, %v needs at least %d", i, n, basis, minVerts)
		}
	}
	c.verticesPerCurve = verticesPerCurve
	c.basis = basis
	c.periodic = periodic
	return nil
}

// VerticesPerCurve returns the vertex count of each curve. Do not modify.
func (c *Curves) VerticesPerCurve() []int { return c.verticesPerCurve }

// Basis returns the curve basis.
func (c *Curves) Basis() CubicBasis { return c.basis }

// Periodic returns whether the curves are closed.
func (c *Curves) Periodic() bool { return c.periodic }

// NumCurves returns the number of curves.
func (c *Curves) NumCurves() int { return len(c.verticesPerCurve) }

// NumSegments returns the number of segments of the given curve.
func (c *Curves) NumSegments(curve int) int {
	n := c.verticesPerCurve[curve]
	if c.basis == Linear {
		if c.periodic {
			return n
		}
		return n - 1
	}
	if c.periodic {
		return n / c.basis.Step()
	}
	return (n-4)/c.basis.Step() + 1
}

func (c *Curves) VariableSize(interp Interpolation) int {
	switch interp {
	case Constant:
		return 1
	case Uniform:
		return len(c.verticesPerCurve)
	case Vertex:
		sum := 0
		for _, n := range c.verticesPerCurve {
			sum += n
		}
		return sum
	case Varying, FaceVarying:
		sum := 0
		for i := range c.verticesPerCurve {
			sum += c.NumSegments(i)
			if !c.periodic {
				sum++
			}
		}
		return sum
	}
	return 0
}

// Bound returns the bound of the control points expanded by "width",
// which defaults to 1.
func (c *Curves) Bound() geom.Box3f { return c.pointsBound(1) }

func (c *Curves) TypeName() string { return "CurvesPrimitive" }

func (c *Curves) TopologyHash(h *murmur.Hash) {
	h.AppendString(c.TypeName())
	h.AppendInt(int(c.basis))
	h.AppendBool(c.periodic)
	h.AppendInt(len(c.verticesPerCurve))
	for _, n := range c.verticesPerCurve {
		h.AppendInt(n)
	}
}

func (c *Curves) Hash(h *murmur.Hash) {
	c.TopologyHash(h)
	c.Variables.hash(h)
}

func (c *Curves) Clone() data.Object {
	nc := &Curves{verticesPerCurve: slices.Clone(c.verticesPerCurve), basis: c.basis, periodic: c.periodic}
	nc.Variables.copyFrom(&c.Variables, true)
	return nc
}

func (c *Curves) MarshalBinary() ([]byte, error) {
	e := &data.Encoder{}
	e.Int(int(c.basis))
	e.Bool(c.periodic)
	encodeInts(e, c.verticesPerCurve)
	if err := c.encode(e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func (c *Curves) UnmarshalBinary(b []byte) error {
	d := data.NewDecoder(b)
	basis := CubicBasis(d.Int())
	periodic := d.Bool()
	vpc := decodeInts(d)
	if d.Err() != nil {
		return d.Err()
	}
	if err := c.SetTopology(vpc, basis, periodic); err != nil {
		return err
	}
	return c.decode(d)
}
