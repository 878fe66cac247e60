// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Mat4d converts a single precision matrix to double precision.
func Mat4d(m mgl32.Mat4) mgl64.Mat4 {
	var r mgl64.Mat4
	for i, v := range m {
		r[i] = float64(v)
	}
	return r
}

// Mat4f converts a double precision matrix to single precision.
func Mat4f(m mgl64.Mat4) mgl32.Mat4 {
	var r mgl32.Mat4
	for i, v := range m {
		r[i] = float32(v)
	}
	return r
}

// Decompose splits an affine matrix without shear into scale,
// rotation and translation, such that m = T * R * S.
// A negative determinant is carried by the x scale.
func Decompose(m mgl64.Mat4) (scale mgl64.Vec3, rot mgl64.Quat, trans mgl64.Vec3) {
	trans = m.Col(3).Vec3()
	var cols [3]mgl64.Vec3
	for i := range 3 {
		cols[i] = m.Col(i).Vec3()
		scale[i] = cols[i].Len()
	}
	if m.Det() < 0 {
		scale[0] = -scale[0]
	}
	for i := range 3 {
		if scale[i] != 0 {
			cols[i] = cols[i].Mul(1 / scale[i])
		}
	}
	rm := mgl64.Mat3FromCols(cols[0], cols[1], cols[2])
	rot = mgl64.Mat4ToQuat(rm.Mat4()).Normalize()
	return
}

// Compose is the inverse of [Decompose].
func Compose(scale mgl64.Vec3, rot mgl64.Quat, trans mgl64.Vec3) mgl64.Mat4 {
	t := mgl64.Translate3D(trans[0], trans[1], trans[2])
	s := mgl64.Scale3D(scale[0], scale[1], scale[2])
	return t.Mul4(rot.Normalize().Mat4()).Mul4(s)
}

// InterpolateMat4d interpolates two transforms by decomposing them,
// interpolating scale and translation linearly and rotation spherically.
func InterpolateMat4d(a, b mgl64.Mat4, x float64) mgl64.Mat4 {
	if x <= 0 {
		return a
	}
	if x >= 1 {
		return b
	}
	sa, ra, ta := Decompose(a)
	sb, rb, tb := Decompose(b)
	if ra.Dot(rb) < 0 {
		rb = rb.Scale(-1)
	}
	s := sa.Add(sb.Sub(sa).Mul(x))
	t := ta.Add(tb.Sub(ta).Mul(x))
	r := mgl64.QuatSlerp(ra, rb, x)
	return Compose(s, r, t)
}

// NormalMatrix returns the matrix used to transform normals,
// the inverse transpose of the upper 3x3 of m.
func NormalMatrix(m mgl32.Mat4) mgl32.Mat3 {
	return m.Mat3().Inv().Transpose()
}
