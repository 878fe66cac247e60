// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prim

import (
	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/geom"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Sphere is an implicit sphere, optionally cut by z planes and a
// maximum sweep angle. ZMin and ZMax are in [-1, 1] relative to the
// radius; ThetaMax is in degrees.
type Sphere struct {
	Base

	Radius   float32
	ZMin     float32
	ZMax     float32
	ThetaMax float32
}

// NewSphere returns a full sphere of the given radius.
func NewSphere(radius float32) *Sphere {
	return &Sphere{Radius: radius, ZMin: -1, ZMax: 1, ThetaMax: 360}
}

func (s *Sphere) VariableSize(interp Interpolation) int {
	switch interp {
	case Constant, Uniform:
		return 1
	case Vertex, Varying, FaceVarying:
		return 4
	}
	return 0
}

func (s *Sphere) Bound() geom.Box3f {
	r := s.Radius
	zmin := math32.Max(-1, s.ZMin)
	zmax := math32.Min(1, s.ZMax)
	// largest ring radius within the z range
	ring := float32(1)
	if zmin > 0 {
		ring = math32.Sqrt(1 - zmin*zmin)
	} else if zmax < 0 {
		ring = math32.Sqrt(1 - zmax*zmax)
	}
	bb := geom.B3fEmpty()
	bb.ExpandByPoint(mgl32.Vec3{0, 0, zmin * r})
	bb.ExpandByPoint(mgl32.Vec3{0, 0, zmax * r})
	theta := math32.Min(360, s.ThetaMax)
	angles := []float32{0, theta}
	for a := float32(90); a < theta; a += 90 {
		angles = append(angles, a)
	}
	for _, a := range angles {
		rad := mgl32.DegToRad(a)
		x, y := math32.Cos(rad)*ring*r, math32.Sin(rad)*ring*r
		bb.ExpandByPoint(mgl32.Vec3{x, y, zmin * r})
		bb.ExpandByPoint(mgl32.Vec3{x, y, zmax * r})
	}
	return bb
}

func (s *Sphere) TypeName() string { return "SpherePrimitive" }

func (s *Sphere) TopologyHash(h *murmur.Hash) {
	h.AppendString(s.TypeName())
	h.AppendFloat32(s.Radius)
	h.AppendFloat32(s.ZMin)
	h.AppendFloat32(s.ZMax)
	h.AppendFloat32(s.ThetaMax)
}

func (s *Sphere) Hash(h *murmur.Hash) {
	s.TopologyHash(h)
	s.Variables.hash(h)
}

func (s *Sphere) Clone() data.Object {
	ns := &Sphere{Radius: s.Radius, ZMin: s.ZMin, ZMax: s.ZMax, ThetaMax: s.ThetaMax}
	ns.Variables.copyFrom(&s.Variables, true)
	return ns
}

func (s *Sphere) MarshalBinary() ([]byte, error) {
	e := &data.Encoder{}
	e.Float32(s.Radius)
	e.Float32(s.ZMin)
	e.Float32(s.ZMax)
	e.Float32(s.ThetaMax)
	if err := s.encode(e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func (s *Sphere) UnmarshalBinary(b []byte) error {
	d := data.NewDecoder(b)
	s.Radius = d.Float32()
	s.ZMin = d.Float32()
	s.ZMax = d.Float32()
	s.ThetaMax = d.Float32()
	return s.decode(d)
}
