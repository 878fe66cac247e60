// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package meshalgo

import (
	"context"
	"fmt"

	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/prim"
	"github.com/go-gl/mathgl/mgl32"
)

// points returns the "P" values of m, checking that there are enough.
func points(m *prim.Mesh) ([]mgl32.Vec3, error) {
	v, ok := m.Vars().Get("P")
	if !ok {
		return nil, fmt.Errorf("mesh has no \"P\" primitive variable")
	}
	ps, ok := data.ValuesOf[mgl32.Vec3](v.Data)
	if !ok || v.Indices != nil {
		return nil, fmt.Errorf("\"P\" must be non-indexed V3fVectorData, not %s", v.Data.TypeName())
	}
	if len(ps) < m.NumVertices() {
		return nil, fmt.Errorf("\"P\" has %d values, topology needs %d", len(ps), m.NumVertices())
	}
	return ps, nil
}

// faceNormal returns the area-weighted normal of a polygon: its length
// is twice the polygon area.
func faceNormal(ps []mgl32.Vec3, ids []int) mgl32.Vec3 {
	var n mgl32.Vec3
	p0 := ps[ids[0]]
	for i := 1; i < len(ids)-1; i++ {
		e1 := ps[ids[i]].Sub(p0)
		e2 := ps[ids[i+1]].Sub(p0)
		n = n.Add(e1.Cross(e2))
	}
	return n
}

// FaceAreas returns a Uniform "faceArea" variable holding the area of
// every face of m.
func FaceAreas(ctx context.Context, m *prim.Mesh) (prim.Variable, error) {
	ps, err := points(m)
	if err != nil {
		return prim.Variable{}, fmt.Errorf("meshalgo.FaceAreas: %w", err)
	}
	vpf := m.VerticesPerFace()
	ids := m.VertexIDs()
	areas := make([]float32, len(vpf))
	start := 0
	for f, n := range vpf {
		if f%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return prim.Variable{}, err
			}
		}
		areas[f] = faceNormal(ps, ids[start:start+n]).Len() / 2
		start += n
	}
	return prim.NewVariable(prim.Uniform, data.NewFloats(areas...)), nil
}

// CalculateNormals returns a Vertex "N" variable holding smooth normals,
// the normalized sum of the area-weighted normals of adjacent faces.
func CalculateNormals(ctx context.Context, m *prim.Mesh) (prim.Variable, error) {
	ps, err := points(m)
	if err != nil {
		return prim.Variable{}, fmt.Errorf("meshalgo.CalculateNormals: %w", err)
	}
	vpf := m.VerticesPerFace()
	ids := m.VertexIDs()
	normals := make([]mgl32.Vec3, len(ps))
	start := 0
	for f, n := range vpf {
		if f%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return prim.Variable{}, err
			}
		}
		fids := ids[start : start+n]
		fn := faceNormal(ps, fids)
		for _, id := range fids {
			normals[id] = normals[id].Add(fn)
		}
		start += n
	}
	for i, n := range normals {
		if l := n.Len(); l > 0 {
			normals[i] = n.Mul(1 / l)
		}
	}
	return prim.NewVariable(prim.Vertex, data.NewGeometricVector(normals, data.InterpNormal)), nil
}
