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
	"github.com/go-gl/mathgl/mgl32"
)

// Mesh interpolation schemes.
const (
	MeshLinear       = "linear"
	MeshCatmullClark = "catmullClark"
)

// Mesh is a polygon mesh: faces given by a vertex count per face and
// a flat list of vertex ids.
type Mesh struct {
	Base

	verticesPerFace []int
	vertexIDs       []int
	numVertices     int
	interpolation   string
}

// NewMesh returns a new mesh with the given topology and optional "P".
func NewMesh(verticesPerFace, vertexIDs []int, interpolation string, p *data.V3fVectorData) (*Mesh, error) {
	m := &Mesh{}
	if err := m.SetTopology(verticesPerFace, vertexIDs, interpolation); err != nil {
		return nil, err
	}
	if p != nil {
		m.Variables.Set("P", NewVariable(Vertex, p))
	}
	return m, nil
}

// SetTopology replaces the topology, taking ownership of the slices.
// Existing variables are kept and must be revalidated by the caller.
func (m *Mesh) SetTopology(verticesPerFace, vertexIDs []int, interpolation string) error {
	sum := 0
	for i, n := range verticesPerFace {
		if n < 3 {
			return fmt.Errorf("MeshPrimitive: face %d has %d vertices, need at least 3", i, n)
		}
		sum += n
	}
	if sum != len(vertexIDs) {
		return fmt.Errorf("MeshPrimitive: faces use %d vertex ids but %d were given", sum, len(vertexIDs))
	}
	numVertices := 0
	for i, id := range vertexIDs {
		if id < 0 {
			return fmt.Errorf("MeshPrimitive: negative vertex id %d at %d", id, i)
		}
		numVertices = max(numVertices, id+1)
	}
	if interpolation == "" {
		interpolation = MeshLinear
	}
	m.verticesPerFace = verticesPerFace
	m.vertexIDs = vertexIDs
	m.numVertices = numVertices
	m.interpolation = interpolation
	return nil
}

// VerticesPerFace returns the vertex count of each face. Do not modify.
func (m *Mesh) VerticesPerFace() []int { return m.verticesPerFace }

// VertexIDs returns the vertex ids of all faces. Do not modify.
func (m *Mesh) VertexIDs() []int { return m.vertexIDs }

// NumFaces returns the number of faces.
func (m *Mesh) NumFaces() int { return len(m.verticesPerFace) }

// NumVertices returns the number of points referenced by the topology.
func (m *Mesh) NumVertices() int { return m.numVertices }

// Interpolation returns the subdivision scheme.
func (m *Mesh) Interpolation() string { return m.interpolation }

// MinVerticesPerFace returns the smallest face size, or 0 for no faces.
func (m *Mesh) MinVerticesPerFace() int {
	if len(m.verticesPerFace) == 0 {
		return 0
	}
	return slices.Min(m.verticesPerFace)
}

// MaxVerticesPerFace returns the largest face size, or 0 for no faces.
func (m *Mesh) MaxVerticesPerFace() int {
	if len(m.verticesPerFace) == 0 {
		return 0
	}
	return slices.Max(m.verticesPerFace)
}

func (m *Mesh) VariableSize(interp Interpolation) int {
	switch interp {
	case Constant:
		return 1
	case Uniform:
		return len(m.verticesPerFace)
	case Vertex, Varying:
		return m.numVertices
	case FaceVarying:
		return len(m.vertexIDs)
	}
	return 0
}

func (m *Mesh) Bound() geom.Box3f {
	bb := geom.B3fEmpty()
	for _, p := range m.Points() {
		bb.ExpandByPoint(p)
	}
	return bb
}

func (m *Mesh) TypeName() string { return "MeshPrimitive" }

func (m *Mesh) TopologyHash(h *murmur.Hash) {
	h.AppendString(m.TypeName())
	h.AppendString(m.interpolation)
	h.AppendInt(len(m.verticesPerFace))
	for _, n := range m.verticesPerFace {
		h.AppendInt(n)
	}
	for _, id := range m.vertexIDs {
		h.AppendInt(id)
	}
}

func (m *Mesh) Hash(h *murmur.Hash) {
	m.TopologyHash(h)
	m.Variables.hash(h)
}

func (m *Mesh) Clone() data.Object {
	nm := &Mesh{
		verticesPerFace: slices.Clone(m.verticesPerFace),
		vertexIDs:       slices.Clone(m.vertexIDs),
		numVertices:     m.numVertices,
		interpolation:   m.interpolation,
	}
	nm.Variables.copyFrom(&m.Variables, true)
	return nm
}

func (m *Mesh) MarshalBinary() ([]byte, error) {
	e := &data.Encoder{}
	e.Text(m.interpolation)
	encodeInts(e, m.verticesPerFace)
	encodeInts(e, m.vertexIDs)
	if err := m.encode(e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func (m *Mesh) UnmarshalBinary(b []byte) error {
	d := data.NewDecoder(b)
	interp := d.Text()
	vpf := decodeInts(d)
	ids := decodeInts(d)
	if d.Err() != nil {
		return d.Err()
	}
	if err := m.SetTopology(vpf, ids, interp); err != nil {
		return err
	}
	return m.decode(d)
}

func encodeInts(e *data.Encoder, vs []int) {
	e.Int(len(vs))
	for _, v := range vs {
		e.Int(v)
	}
}

func decodeInts(d *data.Decoder) []int {
	n := d.Len(8)
	vs := make([]int, n)
	for i := range vs {
		vs[i] = d.Int()
	}
	return vs
}

// NewBox returns a mesh of the six quads of the given box, with
// Vertex "P" and per-face "N".
func NewBox(b geom.Box3f) *Mesh {
	lo, hi := b.Min, b.Max
	p := []mgl32.Vec3{
		{lo[0], lo[1], lo[2]}, {hi[0], lo[1], lo[2]}, {hi[0], hi[1], lo[2]}, {lo[0], hi[1], lo[2]},
		{lo[0], lo[1], hi[2]}, {hi[0], lo[1], hi[2]}, {hi[0], hi[1], hi[2]}, {lo[0], hi[1], hi[2]},
	}
	ids := []int{
		3, 2, 1, 0,
		4, 5, 6, 7,
		0, 1, 5, 4,
		1, 2, 6, 5,
		2, 3, 7, 6,
		3, 0, 4, 7,
	}
	m, _ := NewMesh([]int{4, 4, 4, 4, 4, 4}, ids, MeshLinear, data.NewPoints(p...))
	n := []mgl32.Vec3{{0, 0, -1}, {0, 0, 1}, {0, -1, 0}, {1, 0, 0}, {0, 1, 0}, {-1, 0, 0}}
	m.Variables.Set("N", NewVariable(Uniform, data.NewGeometricVector(n, data.InterpNormal)))
	return m
}

// NewPlane returns a single quad spanning the given rectangle in the
// xy plane, with FaceVarying "uv".
func NewPlane(minX, minY, maxX, maxY float32) *Mesh {
	p := []mgl32.Vec3{{minX, minY, 0}, {maxX, minY, 0}, {maxX, maxY, 0}, {minX, maxY, 0}}
	m, _ := NewMesh([]int{4}, []int{0, 1, 2, 3}, MeshLinear, data.NewPoints(p...))
	uv := []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	m.Variables.Set("uv", NewVariable(FaceVarying, data.NewGeometricVector(uv, data.InterpUV)))
	return m
}
