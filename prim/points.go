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

// Points is a point cloud.
type Points struct {
	Base

	numPoints int
}

// NewPoints returns a point cloud with "P" set to the given positions.
func NewPoints(p []mgl32.Vec3) *Points {
	pts := &Points{numPoints: len(p)}
	pts.Variables.Set("P", NewVariable(Vertex, data.NewPoints(p...)))
	return pts
}

// NumPoints returns the number of points.
func (p *Points) NumPoints() int { return p.numPoints }

// SetNumPoints sets the number of points. Variables must be revalidated.
func (p *Points) SetNumPoints(n int) { p.numPoints = n }

func (p *Points) VariableSize(interp Interpolation) int {
	switch interp {
	case Constant, Uniform:
		return 1
	case Vertex, Varying, FaceVarying:
		return p.numPoints
	}
	return 0
}

// Bound returns the bound of the points, each expanded by its "width",
// which defaults to 1.
func (p *Points) Bound() geom.Box3f { return p.pointsBound(1) }

func (p *Points) TypeName() string { return "PointsPrimitive" }

func (p *Points) TopologyHash(h *murmur.Hash) {
	h.AppendString(p.TypeName())
	h.AppendInt(p.numPoints)
}

func (p *Points) Hash(h *murmur.Hash) {
	p.TopologyHash(h)
	p.Variables.hash(h)
}

func (p *Points) Clone() data.Object {
	np := &Points{numPoints: p.numPoints}
	np.Variables.copyFrom(&p.Variables, true)
	return np
}

func (p *Points) MarshalBinary() ([]byte, error) {
	e := &data.Encoder{}
	e.Int(p.numPoints)
	if err := p.encode(e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func (p *Points) UnmarshalBinary(b []byte) error {
	d := data.NewDecoder(b)
	p.numPoints = d.Int()
	if p.numPoints < 0 {
		return fmt.Errorf("PointsPrimitive: negative point count %d", p.numPoints)
	}
	return p.decode(d)
}
