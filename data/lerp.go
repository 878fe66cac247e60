// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"cogentcore.org/cortex/geom"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Lerp linearly interpolates between two data values of the same
// type, returning false when the type is not interpolable or the
// values are incompatible (for example vectors of different lengths).
// Matrices are interpolated by decomposition.
func Lerp(a, b Data, x float64) (Data, bool) {
	if a == nil || b == nil || a.TypeID() != b.TypeID() {
		return nil, false
	}
	xf := float32(x)
	switch av := a.(type) {
	case *FloatData:
		return lerpSimple(av, b, func(p, q float32) float32 { return p + (q-p)*xf })
	case *DoubleData:
		return lerpSimple(av, b, func(p, q float64) float64 { return p + (q-p)*x })
	case *V3fData:
		return lerpSimple(av, b, func(p, q mgl32.Vec3) mgl32.Vec3 { return p.Add(q.Sub(p).Mul(xf)) })
	case *V3dData:
		return lerpSimple(av, b, func(p, q mgl64.Vec3) mgl64.Vec3 { return p.Add(q.Sub(p).Mul(x)) })
	case *Color3fData:
		return lerpSimple(av, b, func(p, q Color3f) Color3f { return lerpColor(p, q, xf) })
	case *M44dData:
		return lerpSimple(av, b, func(p, q mgl64.Mat4) mgl64.Mat4 { return geom.InterpolateMat4d(p, q, x) })
	case *M44fData:
		return lerpSimple(av, b, func(p, q mgl32.Mat4) mgl32.Mat4 {
			return geom.Mat4f(geom.InterpolateMat4d(geom.Mat4d(p), geom.Mat4d(q), x))
		})
	case *Box3dData:
		return lerpSimple(av, b, func(p, q geom.Box3d) geom.Box3d { return geom.LerpBox3d(p, q, x) })
	case *Box3fData:
		return lerpSimple(av, b, func(p, q geom.Box3f) geom.Box3f { return geom.LerpBox3d(p.Box3d(), q.Box3d(), x).Box3f() })
	case *FloatVectorData:
		return lerpVector(av, b, func(p, q float32) float32 { return p + (q-p)*xf })
	case *DoubleVectorData:
		return lerpVector(av, b, func(p, q float64) float64 { return p + (q-p)*x })
	case *V2fVectorData:
		return lerpVector(av, b, func(p, q mgl32.Vec2) mgl32.Vec2 { return p.Add(q.Sub(p).Mul(xf)) })
	case *V3fVectorData:
		return lerpVector(av, b, func(p, q mgl32.Vec3) mgl32.Vec3 { return p.Add(q.Sub(p).Mul(xf)) })
	case *V3dVectorData:
		return lerpVector(av, b, func(p, q mgl64.Vec3) mgl64.Vec3 { return p.Add(q.Sub(p).Mul(x)) })
	case *Color3fVectorData:
		return lerpVector(av, b, func(p, q Color3f) Color3f { return lerpColor(p, q, xf) })
	}
	return nil, false
}

func lerpColor(p, q Color3f, x float32) Color3f {
	return Color3f(mgl32.Vec3(p).Add(mgl32.Vec3(q).Sub(mgl32.Vec3(p)).Mul(x)))
}

func lerpSimple[T Element](a *Simple[T], b Data, f func(p, q T) T) (Data, bool) {
	bv := b.(*Simple[T])
	return &Simple[T]{value: f(a.value, bv.value), interp: a.interp}, true
}

func lerpVector[T Element](a *Vector[T], b Data, f func(p, q T) T) (Data, bool) {
	av := a.Readable()
	bv := b.(*Vector[T]).Readable()
	if len(av) != len(bv) {
		return nil, false
	}
	out := make([]T, len(av))
	for i := range av {
		out[i] = f(av[i], bv[i])
	}
	return NewGeometricVector(out, a.interp), true
}
