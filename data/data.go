// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package data provides typed, hashable value containers: scalar
// [Simple] data, copy-on-write [Vector] data and [Compound] data,
// together with the [Object] base interface for everything that can
// be stored in a scene, hashed, copied and serialized.
package data

import (
	"encoding"

	"cogentcore.org/cortex/base/murmur"
)

// Object is the base interface for all values that can be stored
// in a scene, serialized and hashed.
type Object interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler

	// TypeName returns the registered name of the concrete type,
	// for example "IntVectorData" or "MeshPrimitive".
	TypeName() string

	// Hash appends the structural hash of the object to h.
	// Two objects that are [Equal] always hash identically.
	Hash(h *murmur.Hash)

	// Clone returns an independent copy of the object. Mutating the
	// copy never affects the original and vice versa.
	Clone() Object
}

// Data is an [Object] holding typed values.
type Data interface {
	Object

	// TypeID returns the run-time type id of the data.
	TypeID() TypeID
}

// VectorData is [Data] holding a sequence of values.
type VectorData interface {
	Data

	// Len returns the number of elements.
	Len() int

	// Gather returns new data holding the elements at the given
	// indices, in order.
	Gather(indices []int) (VectorData, error)

	// Interpretation returns the geometric interpretation of the data.
	Interpretation() Interpretation

	// SetInterpretation sets the geometric interpretation of the data.
	SetInterpretation(in Interpretation)
}

// Interpretation is a semantic tag on vector-valued data that
// determines how transforms are applied to it.
type Interpretation int32

const (
	// InterpNone means the data has no geometric meaning.
	InterpNone Interpretation = iota

	// InterpNumeric means the data is a plain numeric tuple.
	InterpNumeric

	// InterpPoint means the data is a position: transforms apply fully.
	InterpPoint

	// InterpNormal means the data is a surface normal: transforms
	// apply through the inverse transpose.
	InterpNormal

	// InterpVector means the data is a direction: translation does not apply.
	InterpVector

	// InterpColor means the data is a color and is never transformed.
	InterpColor

	// InterpUV means the data is a texture coordinate.
	InterpUV
)

var interpretationNames = [...]string{"None", "Numeric", "Point", "Normal", "Vector", "Color", "UV"}

func (in Interpretation) String() string {
	if in < 0 || int(in) >= len(interpretationNames) {
		return "Interpretation(?)"
	}
	return interpretationNames[in]
}

// Copy returns a copy of the given object with its concrete type.
func Copy[T Object](o T) T {
	return o.Clone().(T)
}
