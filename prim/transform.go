// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prim

import (
	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// Transform applies m to every V3f variable of p according to its
// interpretation: points are fully transformed, vectors ignore
// translation, normals use the inverse transpose and everything else
// is left alone. Shared data is copied before it is modified, so
// other holders are unaffected. A negative determinant reverses the
// winding of meshes so that they keep facing outward.
func Transform(p Primitive, m mgl32.Mat4) {
	nm := geom.NormalMatrix(m)
	vars := p.Vars()
	for i, kv := range vars.Order {
		v := kv.Value
		switch d := v.Data.(type) {
		case *data.V3fVectorData:
			in := d.Interpretation()
			if in != data.InterpPoint && in != data.InterpVector && in != data.InterpNormal {
				continue
			}
			nd := data.Copy(d)
			vs := nd.Writable()
			for j := range vs {
				vs[j] = transformVec(vs[j], in, m, nm)
			}
			v.Data = nd
		case *data.V3fData:
			in := d.Interpretation()
			nd := data.Copy(d)
			nd.SetValue(transformVec(d.Value(), in, m, nm))
			v.Data = nd
		default:
			continue
		}
		vars.Order[i].Value = v
	}
	if mesh, ok := p.(*Mesh); ok && m.Det() < 0 {
		reverseWinding(mesh)
	}
}

func transformVec(v mgl32.Vec3, in data.Interpretation, m mgl32.Mat4, nm mgl32.Mat3) mgl32.Vec3 {
	switch in {
	case data.InterpPoint:
		return mgl32.TransformCoordinate(v, m)
	case data.InterpVector:
		return mgl32.TransformNormal(v, m)
	case data.InterpNormal:
		return nm.Mul3x1(v)
	}
	return v
}

// reverseWinding reverses the vertex order of every face, keeping
// the first vertex, and remaps FaceVarying variables to match.
func reverseWinding(m *Mesh) {
	perm := make([]int, 0, len(m.vertexIDs))
	start := 0
	for _, n := range m.verticesPerFace {
		perm = append(perm, start)
		for k := n - 1; k >= 1; k-- {
			perm = append(perm, start+k)
		}
		start += n
	}
	ids := make([]int, len(perm))
	for i, j := range perm {
		ids[i] = m.vertexIDs[j]
	}
	m.vertexIDs = ids
	for i, kv := range m.Variables.Order {
		v := kv.Value
		if v.Interpolation != FaceVarying {
			continue
		}
		if v.Indices != nil {
			old := v.Indices.Readable()
			ni := make([]int, len(perm))
			for k, j := range perm {
				ni[k] = old[j]
			}
			v.Indices = data.NewInts(ni...)
		} else if vd, ok := v.Data.(data.VectorData); ok && vd.Len() == len(perm) {
			g, err := vd.Gather(perm)
			if err != nil {
				continue
			}
			v.Data = g
		}
		m.Variables.Order[i].Value = v
	}
}
