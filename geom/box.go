// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom provides axis-aligned bounding boxes and the matrix
// helpers used by primitives, renderers and scene caches.
package geom

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Box3d represents a 3D bounding box in double precision defined by
// the point with minimum coordinates and the point with maximum coordinates.
type Box3d struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// B3d returns a new [Box3d] from the given minimum and maximum x, y, and z coordinates.
func B3d(x0, y0, z0, x1, y1, z1 float64) Box3d {
	return Box3d{mgl64.Vec3{x0, y0, z0}, mgl64.Vec3{x1, y1, z1}}
}

// B3dEmpty returns a new empty [Box3d].
func B3dEmpty() Box3d {
	b := Box3d{}
	b.SetEmpty()
	return b
}

// SetEmpty sets this bounding box to empty (min / max +/- Infinity).
func (b *Box3d) SetEmpty() {
	inf := math.Inf(1)
	b.Min = mgl64.Vec3{inf, inf, inf}
	b.Max = mgl64.Vec3{-inf, -inf, -inf}
}

// IsEmpty returns true if this bounding box is empty (max < min on any coord).
func (b Box3d) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// ExpandByPoint may expand this bounding box to include the specified point.
func (b *Box3d) ExpandByPoint(p mgl64.Vec3) {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// ExpandByBox may expand this bounding box to include the specified box.
func (b *Box3d) ExpandByBox(box Box3d) {
	if box.IsEmpty() {
		return
	}
	b.ExpandByPoint(box.Min)
	b.ExpandByPoint(box.Max)
}

// Center returns the center of the bounding box.
func (b Box3d) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the vector from the minimum point to the maximum point.
func (b Box3d) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// ContainsPoint returns if this bounding box contains the specified point.
func (b Box3d) ContainsPoint(p mgl64.Vec3) bool {
	for i := range 3 {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// Union returns the union with other box.
func (b Box3d) Union(other Box3d) Box3d {
	b.ExpandByBox(other)
	return b
}

// MulMatrix4 multiplies the specified matrix to the vertices of this bounding box
// and computes the resulting spanning box of the transformed points.
// An empty box stays empty.
func (b Box3d) MulMatrix4(m mgl64.Mat4) Box3d {
	if b.IsEmpty() {
		return b
	}
	nb := Box3d{}
	for i := range 3 {
		nb.Min[i] = m[12+i]
		nb.Max[i] = m[12+i]
		for j := range 3 {
			a := m[j*4+i] * b.Min[j]
			c := m[j*4+i] * b.Max[j]
			nb.Min[i] += min(a, c)
			nb.Max[i] += max(a, c)
		}
	}
	return nb
}

// Box3f returns the box in single precision.
func (b Box3d) Box3f() Box3f {
	return Box3f{
		Min: mgl32.Vec3{float32(b.Min[0]), float32(b.Min[1]), float32(b.Min[2])},
		Max: mgl32.Vec3{float32(b.Max[0]), float32(b.Max[1]), float32(b.Max[2])},
	}
}

// LerpBox3d linearly interpolates between two boxes.
func LerpBox3d(a, b Box3d, x float64) Box3d {
	return Box3d{
		Min: a.Min.Add(b.Min.Sub(a.Min).Mul(x)),
		Max: a.Max.Add(b.Max.Sub(a.Max).Mul(x)),
	}
}

// Box3f represents a 3D bounding box in single precision.
type Box3f struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// B3f returns a new [Box3f] from the given minimum and maximum x, y, and z coordinates.
func B3f(x0, y0, z0, x1, y1, z1 float32) Box3f {
	return Box3f{mgl32.Vec3{x0, y0, z0}, mgl32.Vec3{x1, y1, z1}}
}

// B3fEmpty returns a new empty [Box3f].
func B3fEmpty() Box3f {
	b := Box3f{}
	b.SetEmpty()
	return b
}

// SetEmpty sets this bounding box to empty (min / max +/- Infinity).
func (b *Box3f) SetEmpty() {
	inf := math32.Inf(1)
	b.Min = mgl32.Vec3{inf, inf, inf}
	b.Max = mgl32.Vec3{-inf, -inf, -inf}
}

// IsEmpty returns true if this bounding box is empty (max < min on any coord).
func (b Box3f) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// ExpandByPoint may expand this bounding box to include the specified point.
func (b *Box3f) ExpandByPoint(p mgl32.Vec3) {
	for i := range 3 {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// ExpandByBox may expand this bounding box to include the specified box.
func (b *Box3f) ExpandByBox(box Box3f) {
	if box.IsEmpty() {
		return
	}
	b.ExpandByPoint(box.Min)
	b.ExpandByPoint(box.Max)
}

// Center returns the center of the bounding box.
func (b Box3f) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the vector from the minimum point to the maximum point.
func (b Box3f) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// MulMatrix4 multiplies the specified matrix to the vertices of this bounding box
// and computes the resulting spanning box of the transformed points.
func (b Box3f) MulMatrix4(m mgl32.Mat4) Box3f {
	return b.Box3d().MulMatrix4(Mat4d(m)).Box3f()
}

// Box3d returns the box in double precision.
func (b Box3f) Box3d() Box3d {
	if b.IsEmpty() {
		return B3dEmpty()
	}
	return Box3d{
		Min: mgl64.Vec3{float64(b.Min[0]), float64(b.Min[1]), float64(b.Min[2])},
		Max: mgl64.Vec3{float64(b.Max[0]), float64(b.Max[1]), float64(b.Max[2])},
	}
}
