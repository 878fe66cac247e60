// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"maps"
	"slices"

	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/prim"
	"github.com/go-gl/mathgl/mgl32"
)

// BlockKind is the kind of block a [State] belongs to.
type BlockKind int32

const (
	WorldBlock BlockKind = iota
	AttributeBlock
	TransformBlock
	ProceduralBlock
	InstanceBlock
)

var blockNames = [...]string{"world", "attributeBegin", "transformBegin", "procedural", "instanceBegin"}

func (k BlockKind) String() string {
	if k < 0 || int(k) >= len(blockNames) {
		return "block(?)"
	}
	return blockNames[k]
}

// RightHandedOrientation is the attribute that records whether the
// current transform preserves handedness. Transforms with a negative
// determinant flip it.
const RightHandedOrientation = "rightHandedOrientation"

// State is an entry of the state stack: the attributes, transform,
// shaders and lights in effect.
type State struct {
	// Kind is the kind of block that pushed this state.
	Kind BlockKind

	// Depth is the depth of the state in the stack of its context.
	Depth int

	// Transform is the current world transform. When the transform is
	// motion sampled it is the first sample.
	Transform mgl32.Mat4

	// MotionTimes and MotionTransforms hold a motion-sampled transform.
	MotionTimes      []float32
	MotionTransforms []mgl32.Mat4

	// Shaders are the shaders in effect, in declaration order.
	Shaders []*prim.Shader

	// Handle is set by the back end at BlockBegin. Transform blocks
	// share the handle of their parent.
	Handle any

	attributes map[string]data.Data
	local      map[string]data.Data
	lights     map[string]bool
	coordSys   map[string]mgl32.Mat4

	instanceName string
}

func newRootState() *State {
	return &State{
		Kind:       WorldBlock,
		Transform:  mgl32.Ident4(),
		attributes: map[string]data.Data{RightHandedOrientation: data.NewBool(true)},
		local:      map[string]data.Data{},
		lights:     map[string]bool{},
		coordSys:   map[string]mgl32.Mat4{},
	}
}

// derive returns a copy of st for a new block of the given kind.
func (st *State) derive(kind BlockKind) *State {
	return &State{
		Kind:             kind,
		Depth:            st.Depth + 1,
		Transform:        st.Transform,
		MotionTimes:      st.MotionTimes,
		MotionTransforms: st.MotionTransforms,
		Shaders:          slices.Clip(st.Shaders),
		Handle:           st.Handle,
		attributes:       maps.Clone(st.attributes),
		local:            map[string]data.Data{},
		lights:           maps.Clone(st.lights),
		coordSys:         maps.Clone(st.coordSys),
	}
}

// Attribute returns the named attribute in effect, or nil.
func (st *State) Attribute(name string) data.Data {
	return st.attributes[name]
}

// AttributeNames returns the sorted names of all attributes in effect.
func (st *State) AttributeNames() []string {
	return slices.Sorted(maps.Keys(st.attributes))
}

// LocalAttributes returns the attributes set in this block, as
// opposed to inherited from enclosing blocks.
func (st *State) LocalAttributes() *data.Compound {
	c := data.NewCompound()
	for n, v := range st.local {
		c.Set(n, v)
	}
	return c
}

// Bool returns the named bool attribute, or def when it is not set
// or is not [data.BoolData].
func (st *State) Bool(name string, def bool) bool {
	if v, ok := data.ValueOf[bool](st.attributes[name]); ok {
		return v
	}
	return def
}

// String returns the named string attribute, or "".
func (st *State) String(name string) string {
	v, _ := data.ValueOf[string](st.attributes[name])
	return v
}

// LightOn returns whether the light with the given handle illuminates
// this state.
func (st *State) LightOn(handle string) bool {
	return st.lights[handle]
}

func (st *State) setAttribute(name string, value data.Data) {
	st.attributes[name] = value
	st.local[name] = value
}

func (st *State) flipOrientation() {
	st.setAttribute(RightHandedOrientation, data.NewBool(!st.Bool(RightHandedOrientation, true)))
}
