// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render defines the [Renderer] call surface through which a
// scene is described to a renderer, and [Context], the state machine
// that validates block nesting, motion blocks and world phases for
// every [Backend] in the same way.
package render

import (
	"maps"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/prim"
	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrNesting is returned for unbalanced or mismatched blocks.
	ErrNesting = errors.New("render: invalid block nesting")

	// ErrMotion is returned for invalid motion blocks.
	ErrMotion = errors.New("render: invalid motion block")

	// ErrPhase is returned for calls made outside the world phase
	// that permits them.
	ErrPhase = errors.New("render: call not allowed in this phase")
)

// Renderer is the call sequence by which a scene is described.
// Options, cameras and displays are declared first, then the scene
// is described between WorldBegin and WorldEnd using nested attribute,
// transform and motion blocks.
//
// A Renderer is used from a single goroutine. Procedurals are given
// their own Renderer, which may run on another goroutine.
type Renderer interface {
	SetOption(name string, value data.Data) error
	Option(name string) data.Data
	Camera(name string, params *data.Compound) error
	Display(name, typ, dataSpec string, params *data.Compound) error

	WorldBegin() error
	WorldEnd() error

	TransformBegin() error
	TransformEnd() error
	SetTransform(m mgl32.Mat4) error
	ConcatTransform(m mgl32.Mat4) error
	Transform() mgl32.Mat4
	CoordinateSystem(name string) error
	NamedTransform(name string) (mgl32.Mat4, bool)

	AttributeBegin() error
	AttributeEnd() error
	SetAttribute(name string, value data.Data) error
	Attribute(name string) data.Data

	Shader(typ, name string, params *data.Compound) error
	Light(name, handle string, params *data.Compound) error
	Illuminate(handle string, on bool) error

	MotionBegin(times []float32) error
	MotionEnd() error

	Points(numPoints int, vars *prim.Variables) error
	Curves(basis prim.CubicBasis, periodic bool, verticesPerCurve []int, vars *prim.Variables) error
	Sphere(radius, zMin, zMax, thetaMax float32, vars *prim.Variables) error
	Mesh(verticesPerFace, vertexIDs []int, interpolation string, vars *prim.Variables) error
	Geometry(p prim.Primitive) error

	Procedural(p Procedural) error

	InstanceBegin(name string, params *data.Compound) error
	InstanceEnd() error
	Instance(name string) error

	Command(name string, params *data.Compound) (data.Data, error)
}

// Expand renders a procedural into a new block below the state it
// was declared in, returning that block's state. When threaded is
// true the procedural may run on another goroutine, in which case
// its errors are reported by WorldEnd.
type Expand func(threaded bool) (*State, error)

// Backend translates a validated call sequence into a native scene
// description. [Context] calls it only for well-formed sequences,
// with the [State] in effect.
type Backend interface {
	// WorldBegin starts the world; opts holds the declared options,
	// cameras and displays.
	WorldBegin(opts *Options, world *State) error

	// WorldEnd ends the world after all procedurals have finished.
	WorldEnd(world *State) error

	// BlockBegin is called when a new attribute or procedural
	// block begins. The back end may set block.Handle.
	BlockBegin(parent, block *State) error

	// BlockEnd is called when the block ends.
	BlockEnd(block *State) error

	// Geometry emits a [prim.Primitive] or a [prim.Motion].
	Geometry(st *State, o data.Object) error

	// Procedural decides how to handle a procedural: skip it,
	// reuse an earlier expansion, or call expand.
	Procedural(st *State, p Procedural, expand Expand) error

	// Light declares a light.
	Light(st *State, l *prim.Light) error

	// InstanceBegin starts the definition of a named instance. The
	// back end may set st.Handle for the definition block.
	InstanceBegin(st *State, name string, params *data.Compound) error

	// InstanceEnd ends the definition of a named instance.
	InstanceEnd(st *State, name string) error

	// Instance places a previously defined instance.
	Instance(st *State, name string) error

	// Command runs a back end specific command.
	Command(st *State, name string, params *data.Compound) (data.Data, error)
}

// Camera is a declared camera.
type Camera struct {
	Name string

	// Transform is the transform in effect when the camera was declared.
	Transform  mgl32.Mat4
	Parameters *data.Compound
}

// Display is a declared output image.
type Display struct {
	Name       string
	Type       string
	Data       string
	Parameters *data.Compound
}

// Options holds everything declared before WorldBegin.
type Options struct {
	Values   map[string]data.Data
	Cameras  []*Camera
	Displays []*Display
}

// Option returns the named option value, or nil.
func (o *Options) Option(name string) data.Data {
	return o.Values[name]
}

func (o *Options) clone() *Options {
	return &Options{
		Values:   maps.Clone(o.Values),
		Cameras:  append([]*Camera(nil), o.Cameras...),
		Displays: append([]*Display(nil), o.Displays...),
	}
}
