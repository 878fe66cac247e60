// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/prim"
	"cogentcore.org/cortex/settings"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

type phase int32

const (
	optionsPhase phase = iota
	worldPhase
	closedPhase
)

// core is the state shared by a [Context] and the contexts of all
// the procedurals it expands.
type core struct {
	backend Backend
	threads int

	mu      sync.RWMutex
	phase   phase
	options *Options

	// procs runs threaded procedurals; it is set at WorldBegin.
	procs *errgroup.Group

	errMu sync.Mutex
	errs  []error
}

// report records an error from a threaded procedural.
func (cr *core) report(err error) {
	if err == nil {
		return
	}
	cr.errMu.Lock()
	defer cr.errMu.Unlock()
	cr.errs = append(cr.errs, err)
}

// Context implements [Renderer] on top of a [Backend], validating
// every call against the state machine: options before the world,
// balanced attribute and transform blocks, and motion blocks of
// exactly one sample per declared time.
type Context struct {
	core       *core
	stack      []*State
	motion     *motionBlock
	procedural bool
}

var _ Renderer = (*Context)(nil)

// New returns a new [Context] rendering to the given back end, running
// threaded procedurals on up to the configured number of goroutines.
func New(b Backend) *Context {
	return &Context{
		core: &core{
			backend: b,
			threads: settings.Get().Render.ProceduralThreads,
			options: &Options{Values: map[string]data.Data{}},
		},
		stack: []*State{newRootState()},
	}
}

// SetThreads sets the maximum number of goroutines used for threaded
// procedurals. It must be called before WorldBegin.
func (c *Context) SetThreads(n int) {
	c.core.threads = n
}

// State returns the current state.
func (c *Context) State() *State {
	return c.stack[len(c.stack)-1]
}

func (c *Context) top() *State { return c.stack[len(c.stack)-1] }

func (c *Context) currentPhase() phase {
	c.core.mu.RLock()
	defer c.core.mu.RUnlock()
	return c.core.phase
}

// position describes the state stack for error messages.
func (c *Context) position() string {
	kinds := make([]string, len(c.stack))
	for i, st := range c.stack {
		kinds[i] = st.Kind.String()
	}
	return fmt.Sprintf("depth %d [%s]", len(c.stack)-1, strings.Join(kinds, " > "))
}

func (c *Context) inWorld(call string) error {
	if c.currentPhase() != worldPhase {
		return fmt.Errorf("%w: %s outside worldBegin/worldEnd", ErrPhase, call)
	}
	return nil
}

func (c *Context) notClosed(call string) error {
	if c.currentPhase() == closedPhase {
		return fmt.Errorf("%w: %s after worldEnd", ErrPhase, call)
	}
	return nil
}

func (c *Context) notInMotion(call string) error {
	if c.motion != nil {
		return fmt.Errorf("%w: %s inside motionBegin at %s", ErrMotion, call, c.position())
	}
	return nil
}

func (c *Context) optionsOnly(call string) error {
	if c.procedural || c.currentPhase() != optionsPhase {
		return fmt.Errorf("%w: %s after worldBegin", ErrPhase, call)
	}
	return nil
}

////////  Options

func (c *Context) SetOption(name string, value data.Data) error {
	if err := c.optionsOnly("setOption " + name); err != nil {
		return err
	}
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	if value == nil {
		delete(c.core.options.Values, name)
		return nil
	}
	c.core.options.Values[name] = value
	return nil
}

func (c *Context) Option(name string) data.Data {
	c.core.mu.RLock()
	defer c.core.mu.RUnlock()
	return c.core.options.Values[name]
}

func (c *Context) Camera(name string, params *data.Compound) error {
	if err := c.optionsOnly("camera " + name); err != nil {
		return err
	}
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	cam := &Camera{Name: name, Transform: c.top().Transform, Parameters: params}
	c.core.options.Cameras = append(c.core.options.Cameras, cam)
	return nil
}

func (c *Context) Display(name, typ, dataSpec string, params *data.Compound) error {
	if err := c.optionsOnly("display " + name); err != nil {
		return err
	}
	c.core.mu.Lock()
	defer c.core.mu.Unlock()
	d := &Display{Name: name, Type: typ, Data: dataSpec, Parameters: params}
	c.core.options.Displays = append(c.core.options.Displays, d)
	return nil
}

////////  World

func (c *Context) WorldBegin() error {
	if err := c.optionsOnly("worldBegin"); err != nil {
		return err
	}
	if err := c.notInMotion("worldBegin"); err != nil {
		return err
	}
	c.core.mu.Lock()
	c.core.phase = worldPhase
	opts := c.core.options.clone()
	c.core.procs = &errgroup.Group{}
	if c.core.threads > 0 {
		c.core.procs.SetLimit(c.core.threads)
	}
	c.core.mu.Unlock()

	root := c.stack[0]
	root.Transform = mgl32.Ident4()
	root.MotionTimes, root.MotionTransforms = nil, nil
	slog.Debug("render: worldBegin", "cameras", len(opts.Cameras), "displays", len(opts.Displays))
	if err := c.core.backend.WorldBegin(opts, root); err != nil {
		c.core.mu.Lock()
		c.core.phase = optionsPhase
		c.core.mu.Unlock()
		return err
	}
	return nil
}

func (c *Context) WorldEnd() error {
	if c.procedural {
		return fmt.Errorf("%w: worldEnd inside a procedural", ErrPhase)
	}
	if err := c.inWorld("worldEnd"); err != nil {
		return err
	}
	if err := c.notInMotion("worldEnd"); err != nil {
		return err
	}
	if len(c.stack) != 1 {
		return fmt.Errorf("%w: worldEnd with %d unclosed blocks at %s", ErrNesting, len(c.stack)-1, c.position())
	}
	c.core.procs.Wait()
	c.core.errMu.Lock()
	perr := errors.Join(c.core.errs...)
	c.core.errMu.Unlock()
	c.core.mu.Lock()
	c.core.phase = closedPhase
	c.core.mu.Unlock()
	slog.Debug("render: worldEnd")
	return errors.Join(perr, c.core.backend.WorldEnd(c.stack[0]))
}

////////  Blocks

func (c *Context) push(kind BlockKind) (*State, error) {
	call := kind.String()
	if err := c.inWorld(call); err != nil {
		return nil, err
	}
	if err := c.notInMotion(call); err != nil {
		return nil, err
	}
	parent := c.top()
	st := parent.derive(kind)
	if kind == AttributeBlock {
		if err := c.core.backend.BlockBegin(parent, st); err != nil {
			return nil, err
		}
	}
	c.stack = append(c.stack, st)
	return st, nil
}

func (c *Context) pop(kind BlockKind, call string) (*State, error) {
	if err := c.inWorld(call); err != nil {
		return nil, err
	}
	if err := c.notInMotion(call); err != nil {
		return nil, err
	}
	st := c.top()
	if len(c.stack) == 1 {
		return nil, fmt.Errorf("%w: %s without matching %s at %s", ErrNesting, call, kind, c.position())
	}
	if st.Kind != kind {
		return nil, fmt.Errorf("%w: %s does not match innermost %s at %s", ErrNesting, call, st.Kind, c.position())
	}
	c.stack = c.stack[:len(c.stack)-1]
	return st, nil
}

func (c *Context) AttributeBegin() error {
	_, err := c.push(AttributeBlock)
	return err
}

func (c *Context) AttributeEnd() error {
	st, err := c.pop(AttributeBlock, "attributeEnd")
	if err != nil {
		return err
	}
	return c.core.backend.BlockEnd(st)
}

func (c *Context) TransformBegin() error {
	_, err := c.push(TransformBlock)
	return err
}

// TransformEnd restores the transform in effect at the matching
// TransformBegin, along with its orientation. Everything else set
// inside the block stays in effect.
func (c *Context) TransformEnd() error {
	st, err := c.pop(TransformBlock, "transformEnd")
	if err != nil {
		return err
	}
	parent := c.top()
	orientation := parent.attributes[RightHandedOrientation]
	parent.attributes = st.attributes
	for n, v := range st.local {
		if n != RightHandedOrientation {
			parent.local[n] = v
		}
	}
	if orientation != nil {
		parent.attributes[RightHandedOrientation] = orientation
	} else {
		delete(parent.attributes, RightHandedOrientation)
	}
	parent.Shaders = st.Shaders
	parent.lights = st.lights
	parent.coordSys = st.coordSys
	return nil
}

////////  Transforms

func (c *Context) SetTransform(m mgl32.Mat4) error {
	if err := c.notClosed("setTransform"); err != nil {
		return err
	}
	if c.motion != nil {
		return c.motion.addTransform(c, m)
	}
	st := c.top()
	if (m.Det() < 0) != (st.Transform.Det() < 0) {
		st.flipOrientation()
	}
	st.Transform = m
	st.MotionTimes, st.MotionTransforms = nil, nil
	return nil
}

func (c *Context) ConcatTransform(m mgl32.Mat4) error {
	if err := c.notClosed("concatTransform"); err != nil {
		return err
	}
	st := c.top()
	if c.motion != nil {
		return c.motion.addTransform(c, st.Transform.Mul4(m))
	}
	if m.Det() < 0 {
		st.flipOrientation()
	}
	st.Transform = st.Transform.Mul4(m)
	if len(st.MotionTransforms) > 0 {
		mt := make([]mgl32.Mat4, len(st.MotionTransforms))
		for i, s := range st.MotionTransforms {
			mt[i] = s.Mul4(m)
		}
		st.MotionTransforms = mt
	}
	return nil
}

func (c *Context) Transform() mgl32.Mat4 {
	return c.top().Transform
}

func (c *Context) CoordinateSystem(name string) error {
	if err := c.notClosed("coordinateSystem"); err != nil {
		return err
	}
	if err := c.notInMotion("coordinateSystem"); err != nil {
		return err
	}
	c.top().coordSys[name] = c.top().Transform
	return nil
}

// NamedTransform returns the transform recorded by CoordinateSystem.
// "world" is always the identity.
func (c *Context) NamedTransform(name string) (mgl32.Mat4, bool) {
	if name == "world" {
		return mgl32.Ident4(), true
	}
	m, ok := c.top().coordSys[name]
	return m, ok
}

////////  Attributes, shaders and lights

func (c *Context) SetAttribute(name string, value data.Data) error {
	if err := c.notClosed("setAttribute " + name); err != nil {
		return err
	}
	if err := c.notInMotion("setAttribute " + name); err != nil {
		return err
	}
	if value == nil {
		return fmt.Errorf("render: setAttribute %s: nil value", name)
	}
	c.top().setAttribute(name, value)
	return nil
}

func (c *Context) Attribute(name string) data.Data {
	return c.top().Attribute(name)
}

func (c *Context) Shader(typ, name string, params *data.Compound) error {
	if err := c.inWorld("shader " + name); err != nil {
		return err
	}
	if err := c.notInMotion("shader " + name); err != nil {
		return err
	}
	st := c.top()
	st.Shaders = append(st.Shaders, &prim.Shader{Type: typ, Name: name, Parameters: params})
	return nil
}

func (c *Context) Light(name, handle string, params *data.Compound) error {
	if err := c.inWorld("light " + name); err != nil {
		return err
	}
	if err := c.notInMotion("light " + name); err != nil {
		return err
	}
	st := c.top()
	st.lights[handle] = true
	return c.core.backend.Light(st, &prim.Light{Name: name, Handle: handle, Parameters: params, On: true})
}

func (c *Context) Illuminate(handle string, on bool) error {
	if err := c.inWorld("illuminate " + handle); err != nil {
		return err
	}
	if err := c.notInMotion("illuminate " + handle); err != nil {
		return err
	}
	st := c.top()
	if _, ok := st.lights[handle]; !ok {
		return fmt.Errorf("render: illuminate: no light with handle %q in scope", handle)
	}
	st.lights[handle] = on
	return nil
}

////////  Geometry

func (c *Context) Geometry(p prim.Primitive) error {
	call := "geometry " + p.TypeName()
	if err := c.inWorld(call); err != nil {
		return err
	}
	if err := prim.Validate(p); err != nil {
		return fmt.Errorf("render: %s: %w", call, err)
	}
	if c.motion != nil {
		return c.motion.addPrimitive(c, p)
	}
	return c.core.backend.Geometry(c.top(), p)
}

// setVars gives p deep copies of vars, so that later writes by the
// caller do not reach geometry already emitted.
func setVars(p prim.Primitive, vars *prim.Variables) {
	if vars == nil {
		return
	}
	for _, kv := range vars.Order {
		p.Vars().Set(kv.Key, kv.Value.Copy(true))
	}
}

func (c *Context) Points(numPoints int, vars *prim.Variables) error {
	p := &prim.Points{}
	p.SetNumPoints(numPoints)
	setVars(p, vars)
	return c.Geometry(p)
}

func (c *Context) Curves(basis prim.CubicBasis, periodic bool, verticesPerCurve []int, vars *prim.Variables) error {
	cv, err := prim.NewCurves(verticesPerCurve, basis, periodic)
	if err != nil {
		return err
	}
	setVars(cv, vars)
	return c.Geometry(cv)
}

func (c *Context) Sphere(radius, zMin, zMax, thetaMax float32, vars *prim.Variables) error {
	s := &prim.Sphere{Radius: radius, ZMin: zMin, ZMax: zMax, ThetaMax: thetaMax}
	setVars(s, vars)
	return c.Geometry(s)
}

func (c *Context) Mesh(verticesPerFace, vertexIDs []int, interpolation string, vars *prim.Variables) error {
	m, err := prim.NewMesh(verticesPerFace, vertexIDs, interpolation, nil)
	if err != nil {
		return err
	}
	setVars(m, vars)
	return c.Geometry(m)
}

////////  Instances and commands

func (c *Context) inInstance() bool {
	for _, st := range c.stack {
		if st.Kind == InstanceBlock {
			return true
		}
	}
	return false
}

func (c *Context) InstanceBegin(name string, params *data.Compound) error {
	call := "instanceBegin " + name
	if err := c.inWorld(call); err != nil {
		return err
	}
	if err := c.notInMotion(call); err != nil {
		return err
	}
	if c.inInstance() {
		return fmt.Errorf("%w: %s inside another instance at %s", ErrNesting, call, c.position())
	}
	st := c.top().derive(InstanceBlock)
	st.Transform = mgl32.Ident4()
	st.MotionTimes, st.MotionTransforms = nil, nil
	st.instanceName = name
	if err := c.core.backend.InstanceBegin(st, name, params); err != nil {
		return err
	}
	c.stack = append(c.stack, st)
	return nil
}

func (c *Context) InstanceEnd() error {
	st, err := c.pop(InstanceBlock, "instanceEnd")
	if err != nil {
		return err
	}
	return c.core.backend.InstanceEnd(st, st.instanceName)
}

func (c *Context) Instance(name string) error {
	call := "instance " + name
	if err := c.inWorld(call); err != nil {
		return err
	}
	if err := c.notInMotion(call); err != nil {
		return err
	}
	return c.core.backend.Instance(c.top(), name)
}

func (c *Context) Command(name string, params *data.Compound) (data.Data, error) {
	if err := c.notClosed("command " + name); err != nil {
		return nil, err
	}
	return c.core.backend.Command(c.top(), name, params)
}
