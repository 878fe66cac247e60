// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"cogentcore.org/cortex/geom"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Color3f is an RGB color.
type Color3f [3]float32

// Element is the set of element types supported by [Simple] and [Vector] data.
type Element interface {
	bool | int | float32 | float64 | string |
		mgl32.Vec2 | mgl32.Vec3 | mgl64.Vec3 | Color3f |
		mgl32.Mat4 | mgl64.Mat4 | geom.Box3f | geom.Box3d
}

// KindOf returns the [Kind] of the element type T.
func KindOf[T Element]() Kind {
	var z T
	switch any(z).(type) {
	case bool:
		return KindBool
	case int:
		return KindInt
	case float32:
		return KindFloat
	case float64:
		return KindDouble
	case string:
		return KindString
	case mgl32.Vec2:
		return KindV2f
	case mgl32.Vec3:
		return KindV3f
	case mgl64.Vec3:
		return KindV3d
	case Color3f:
		return KindColor3f
	case mgl32.Mat4:
		return KindM44f
	case mgl64.Mat4:
		return KindM44d
	case geom.Box3f:
		return KindBox3f
	case geom.Box3d:
		return KindBox3d
	}
	return KindInvalid
}

// elementSize returns the minimum encoded size of one element of kind k.
func elementSize(k Kind) int {
	switch k {
	case KindBool:
		return 1
	case KindFloat:
		return 4
	case KindInt, KindDouble, KindString:
		return 8
	case KindV2f:
		return 8
	case KindV3f, KindColor3f:
		return 12
	case KindV3d, KindBox3f:
		return 24
	case KindM44f:
		return 64
	case KindM44d:
		return 128
	case KindBox3d:
		return 48
	}
	return 1
}

func putFloats32(e *Encoder, fs []float32) {
	for _, f := range fs {
		e.Float32(f)
	}
}

func putFloats64(e *Encoder, fs []float64) {
	for _, f := range fs {
		e.Float64(f)
	}
}

func getFloats32(d *Decoder, fs []float32) {
	for i := range fs {
		fs[i] = d.Float32()
	}
}

func getFloats64(d *Decoder, fs []float64) {
	for i := range fs {
		fs[i] = d.Float64()
	}
}

// encodeElements appends the values without a count.
func encodeElements[T Element](e *Encoder, values []T) {
	switch vs := any(values).(type) {
	case []bool:
		for _, v := range vs {
			e.Bool(v)
		}
	case []int:
		for _, v := range vs {
			e.Int(v)
		}
	case []float32:
		putFloats32(e, vs)
	case []float64:
		putFloats64(e, vs)
	case []string:
		for _, v := range vs {
			e.Text(v)
		}
	case []mgl32.Vec2:
		for _, v := range vs {
			putFloats32(e, v[:])
		}
	case []mgl32.Vec3:
		for _, v := range vs {
			putFloats32(e, v[:])
		}
	case []mgl64.Vec3:
		for _, v := range vs {
			putFloats64(e, v[:])
		}
	case []Color3f:
		for _, v := range vs {
			putFloats32(e, v[:])
		}
	case []mgl32.Mat4:
		for _, v := range vs {
			putFloats32(e, v[:])
		}
	case []mgl64.Mat4:
		for _, v := range vs {
			putFloats64(e, v[:])
		}
	case []geom.Box3f:
		for _, v := range vs {
			putFloats32(e, v.Min[:])
			putFloats32(e, v.Max[:])
		}
	case []geom.Box3d:
		for _, v := range vs {
			putFloats64(e, v.Min[:])
			putFloats64(e, v.Max[:])
		}
	}
}

// decodeElements reads n values.
func decodeElements[T Element](d *Decoder, n int) []T {
	out := make([]T, n)
	switch vs := any(out).(type) {
	case []bool:
		for i := range vs {
			vs[i] = d.Bool()
		}
	case []int:
		for i := range vs {
			vs[i] = d.Int()
		}
	case []float32:
		getFloats32(d, vs)
	case []float64:
		getFloats64(d, vs)
	case []string:
		for i := range vs {
			vs[i] = d.Text()
		}
	case []mgl32.Vec2:
		for i := range vs {
			getFloats32(d, vs[i][:])
		}
	case []mgl32.Vec3:
		for i := range vs {
			getFloats32(d, vs[i][:])
		}
	case []mgl64.Vec3:
		for i := range vs {
			getFloats64(d, vs[i][:])
		}
	case []Color3f:
		for i := range vs {
			getFloats32(d, vs[i][:])
		}
	case []mgl32.Mat4:
		for i := range vs {
			getFloats32(d, vs[i][:])
		}
	case []mgl64.Mat4:
		for i := range vs {
			getFloats64(d, vs[i][:])
		}
	case []geom.Box3f:
		for i := range vs {
			getFloats32(d, vs[i].Min[:])
			getFloats32(d, vs[i].Max[:])
		}
	case []geom.Box3d:
		for i := range vs {
			getFloats64(d, vs[i].Min[:])
			getFloats64(d, vs[i].Max[:])
		}
	}
	return out
}
