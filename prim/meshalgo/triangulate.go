// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package meshalgo provides algorithms operating on [prim.Mesh].
// Long-running functions take a [context.Context] and return its
// error promptly when it is cancelled.
package meshalgo

import (
	"context"
	"fmt"

	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/prim"
)

// cancelCheckInterval is the number of faces processed between
// cancellation checks.
const cancelCheckInterval = 100

// Triangulate returns a new mesh in which every face is split into
// a fan of triangles (v0, vi, vi+1). Uniform and FaceVarying variables
// are remapped to the new faces; when a variable is indexed its
// indices are remapped and its data is shared with the input.
// The input must have valid variables and a "P" variable.
func Triangulate(ctx context.Context, m *prim.Mesh) (*prim.Mesh, error) {
	if err := prim.Validate(m); err != nil {
		return nil, fmt.Errorf("meshalgo.Triangulate: %w", err)
	}
	if !m.Vars().Has("P") {
		return nil, fmt.Errorf("meshalgo.Triangulate: mesh has no \"P\" primitive variable")
	}
	if m.MaxVerticesPerFace() == 3 {
		return data.Copy(m), nil
	}

	vpf := m.VerticesPerFace()
	ids := m.VertexIDs()
	numTris := 0
	for _, n := range vpf {
		numTris += n - 2
	}
	newVPF := make([]int, numTris)
	newIDs := make([]int, 0, numTris*3)
	// corner and face maps from new topology to old
	corners := make([]int, 0, numTris*3)
	faces := make([]int, 0, numTris)

	start := 0
	for f, n := range vpf {
		if f%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for i := 1; i < n-1; i++ {
			c0, c1, c2 := start, start+i, start+i+1
			newIDs = append(newIDs, ids[c0], ids[c1], ids[c2])
			corners = append(corners, c0, c1, c2)
			faces = append(faces, f)
		}
		start += n
	}
	for i := range newVPF {
		newVPF[i] = 3
	}

	out, err := prim.NewMesh(newVPF, newIDs, m.Interpolation(), nil)
	if err != nil {
		return nil, err
	}
	for _, kv := range m.Vars().Order {
		v := kv.Value
		switch v.Interpolation {
		case prim.FaceVarying:
			v, err = remap(v, corners)
		case prim.Uniform:
			v, err = remap(v, faces)
		default:
			v = v.Copy(true)
		}
		if err != nil {
			return nil, fmt.Errorf("meshalgo.Triangulate: %q: %w", kv.Key, err)
		}
		out.Vars().Set(kv.Key, v)
	}
	return out, nil
}

// remap returns v with its values reordered by the given map from new
// element to old element.
func remap(v prim.Variable, mapping []int) (prim.Variable, error) {
	if v.Indices != nil {
		old := v.Indices.Readable()
		ni := make([]int, len(mapping))
		for i, j := range mapping {
			ni[i] = old[j]
		}
		return prim.NewIndexedVariable(v.Interpolation, v.Data, data.NewInts(ni...)), nil
	}
	vd, ok := v.Data.(data.VectorData)
	if !ok {
		return v, fmt.Errorf("%s is not vector data", v.Data.TypeName())
	}
	g, err := vd.Gather(mapping)
	if err != nil {
		return v, err
	}
	return prim.NewVariable(v.Interpolation, g), nil
}
