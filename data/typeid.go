// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import "fmt"

// Kind is the element type of [Simple] and [Vector] data.
type Kind int32

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDouble
	KindString
	KindV2f
	KindV3f
	KindV3d
	KindColor3f
	KindM44f
	KindM44d
	KindBox3f
	KindBox3d
	kindN
)

var kindNames = [...]string{"Invalid", "Bool", "Int", "Float", "Double", "String", "V2f", "V3f", "V3d", "Color3f", "M44f", "M44d", "Box3f", "Box3d"}

func (k Kind) String() string {
	if k < 0 || k >= kindN {
		return fmt.Sprintf("Kind(%d)", int32(k))
	}
	return kindNames[k]
}

// TypeID is the run-time type id of [Data]. Simple data has the id
// of its [Kind], vector data has the kind offset by [VectorBase], and
// compound data has [CompoundTypeID].
type TypeID int32

const (
	// VectorBase is added to a [Kind] to give the vector type id.
	VectorBase TypeID = 64

	// CompoundTypeID is the type id of [Compound].
	CompoundTypeID TypeID = 128
)

// SimpleTypeID returns the type id of simple data of the given kind.
func SimpleTypeID(k Kind) TypeID { return TypeID(k) }

// VectorTypeID returns the type id of vector data of the given kind.
func VectorTypeID(k Kind) TypeID { return VectorBase + TypeID(k) }

// Kind returns the element kind of the type id, and whether it is a vector.
func (id TypeID) Kind() (Kind, bool) {
	switch {
	case id == CompoundTypeID:
		return KindInvalid, false
	case id > VectorBase && id < VectorBase+TypeID(kindN):
		return Kind(id - VectorBase), true
	case id > 0 && id < TypeID(kindN):
		return Kind(id), false
	}
	return KindInvalid, false
}

// String returns the type name, for example "IntVectorData".
func (id TypeID) String() string {
	if id == CompoundTypeID {
		return "CompoundData"
	}
	k, vec := id.Kind()
	if k == KindInvalid {
		return fmt.Sprintf("TypeID(%d)", int32(id))
	}
	if vec {
		return k.String() + "VectorData"
	}
	return k.String() + "Data"
}

// New returns new empty data for the given type id.
func New(id TypeID) (Data, error) {
	o, err := NewObject(id.String())
	if err != nil {
		return nil, err
	}
	d, ok := o.(Data)
	if !ok {
		return nil, fmt.Errorf("data.New: %q is not data", id.String())
	}
	return d, nil
}
