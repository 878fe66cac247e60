// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/prim"
	. "cogentcore.org/cortex/render"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a [Backend] that records the calls it receives.
type recorder struct {
	mu       sync.Mutex
	calls    []string
	geometry []data.Object
	states   []*State
	opts     *Options
}

func (r *recorder) log(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) WorldBegin(opts *Options, world *State) error {
	r.opts = opts
	r.log("worldBegin")
	return nil
}

func (r *recorder) WorldEnd(world *State) error {
	r.log("worldEnd")
	return nil
}

func (r *recorder) BlockBegin(parent, block *State) error {
	r.log("begin %s", block.Kind)
	return nil
}

func (r *recorder) BlockEnd(block *State) error {
	r.log("end %s", block.Kind)
	return nil
}

func (r *recorder) Geometry(st *State, o data.Object) error {
	r.mu.Lock()
	r.geometry = append(r.geometry, o)
	r.states = append(r.states, st)
	r.mu.Unlock()
	r.log("geometry %s", o.TypeName())
	return nil
}

func (r *recorder) Procedural(st *State, p Procedural, expand Expand) error {
	_, err := expand(st.Bool("test:threaded", false))
	return err
}

func (r *recorder) Light(st *State, l *prim.Light) error {
	r.log("light %s", l.Handle)
	return nil
}

func (r *recorder) InstanceBegin(st *State, name string, params *data.Compound) error {
	r.log("instanceBegin %s", name)
	return nil
}

func (r *recorder) InstanceEnd(st *State, name string) error {
	r.log("instanceEnd %s", name)
	return nil
}

func (r *recorder) Instance(st *State, name string) error {
	r.log("instance %s", name)
	return nil
}

func (r *recorder) Command(st *State, name string, params *data.Compound) (data.Data, error) {
	return nil, fmt.Errorf("unknown command %q", name)
}

func newContext(t *testing.T) (*Context, *recorder) {
	rec := &recorder{}
	c := New(rec)
	c.SetThreads(4)
	return c, rec
}

func triangle() (verticesPerFace, vertexIDs []int, vars *prim.Variables) {
	vars = &prim.Variables{}
	vars.Set("P", prim.NewVariable(prim.Vertex, data.NewPoints(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})))
	return []int{3}, []int{0, 1, 2}, vars
}

func TestNestedAttributes(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, c.WorldBegin())
	require.NoError(t, c.SetAttribute("user:a", data.NewInt(1)))
	require.NoError(t, c.AttributeBegin())
	require.NoError(t, c.SetAttribute("user:a", data.NewInt(2)))
	require.NoError(t, c.SetAttribute("user:b", data.NewInt(3)))
	v, _ := data.ValueOf[int](c.Attribute("user:a"))
	assert.Equal(t, 2, v)
	require.NoError(t, c.AttributeBegin())
	v, _ = data.ValueOf[int](c.Attribute("user:b"))
	assert.Equal(t, 3, v)
	require.NoError(t, c.AttributeEnd())
	require.NoError(t, c.AttributeEnd())
	v, _ = data.ValueOf[int](c.Attribute("user:a"))
	assert.Equal(t, 1, v)
	assert.Nil(t, c.Attribute("user:b"))
	require.NoError(t, c.WorldEnd())

	assert.Equal(t, []string{
		"worldBegin",
		"begin attributeBegin", "begin attributeBegin",
		"end attributeBegin", "end attributeBegin",
		"worldEnd",
	}, rec.calls)
}

func TestTransformBlock(t *testing.T) {
	c, _ := newContext(t)
	require.NoError(t, c.WorldBegin())
	require.NoError(t, c.ConcatTransform(mgl32.Translate3D(1, 0, 0)))
	require.NoError(t, c.TransformBegin())
	require.NoError(t, c.ConcatTransform(mgl32.Translate3D(0, 2, 0)))
	require.NoError(t, c.SetAttribute("user:kept", data.NewBool(true)))
	assert.Equal(t, mgl32.Translate3D(1, 2, 0), c.Transform())
	require.NoError(t, c.TransformEnd())

	assert.Equal(t, mgl32.Translate3D(1, 0, 0), c.Transform())
	assert.NotNil(t, c.Attribute("user:kept"))
	require.NoError(t, c.WorldEnd())
}

func TestOrientation(t *testing.T) {
	c, _ := newContext(t)
	require.NoError(t, c.WorldBegin())
	assert.True(t, c.State().Bool(RightHandedOrientation, false))
	require.NoError(t, c.AttributeBegin())
	require.NoError(t, c.ConcatTransform(mgl32.Scale3D(-1, 1, 1)))
	assert.False(t, c.State().Bool(RightHandedOrientation, true))
	require.NoError(t, c.SetTransform(mgl32.Ident4()))
	assert.True(t, c.State().Bool(RightHandedOrientation, false))
	require.NoError(t, c.AttributeEnd())

	require.NoError(t, c.TransformBegin())
	require.NoError(t, c.ConcatTransform(mgl32.Scale3D(-1, 1, 1)))
	assert.False(t, c.State().Bool(RightHandedOrientation, true))
	require.NoError(t, c.TransformEnd())
	assert.Equal(t, mgl32.Ident4(), c.Transform())
	assert.True(t, c.State().Bool(RightHandedOrientation, false))
	require.NoError(t, c.ConcatTransform(mgl32.Scale3D(-1, 1, 1)))
	assert.False(t, c.State().Bool(RightHandedOrientation, true))
	require.NoError(t, c.WorldEnd())
}

func TestNestingErrors(t *testing.T) {
	c, _ := newContext(t)
	require.NoError(t, c.WorldBegin())
	assert.ErrorIs(t, c.AttributeEnd(), ErrNesting)

	require.NoError(t, c.AttributeBegin())
	assert.ErrorIs(t, c.TransformEnd(), ErrNesting)
	assert.ErrorIs(t, c.WorldEnd(), ErrNesting)
	require.NoError(t, c.AttributeEnd())

	require.NoError(t, c.InstanceBegin("a", nil))
	assert.ErrorIs(t, c.InstanceBegin("b", nil), ErrNesting)
	require.NoError(t, c.InstanceEnd())
	require.NoError(t, c.WorldEnd())
}

func TestPhases(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, c.SetOption("user:frame", data.NewInt(10)))
	require.NoError(t, c.ConcatTransform(mgl32.Translate3D(0, 0, 5)))
	require.NoError(t, c.Camera("main", nil))
	require.NoError(t, c.Display("beauty.exr", "exr", "rgba", nil))
	assert.ErrorIs(t, c.Shader("surface", "plastic", nil), ErrPhase)
	assert.ErrorIs(t, c.WorldEnd(), ErrPhase)

	require.NoError(t, c.WorldBegin())
	assert.Equal(t, mgl32.Ident4(), c.Transform())
	assert.ErrorIs(t, c.SetOption("user:frame", data.NewInt(11)), ErrPhase)
	assert.ErrorIs(t, c.Camera("other", nil), ErrPhase)
	assert.ErrorIs(t, c.WorldBegin(), ErrPhase)
	v, _ := data.ValueOf[int](c.Option("user:frame"))
	assert.Equal(t, 10, v)
	require.NoError(t, c.WorldEnd())

	assert.ErrorIs(t, c.AttributeBegin(), ErrPhase)
	vpf, ids, vars := triangle()
	assert.ErrorIs(t, c.Mesh(vpf, ids, prim.MeshLinear, vars), ErrPhase)

	require.Len(t, rec.opts.Cameras, 1)
	assert.Equal(t, mgl32.Translate3D(0, 0, 5), rec.opts.Cameras[0].Transform)
	require.Len(t, rec.opts.Displays, 1)
	assert.Equal(t, "rgba", rec.opts.Displays[0].Data)
}

func TestMotionTransform(t *testing.T) {
	c, _ := newContext(t)
	require.NoError(t, c.WorldBegin())
	require.NoError(t, c.ConcatTransform(mgl32.Translate3D(10, 0, 0)))
	require.NoError(t, c.MotionBegin([]float32{0, 0.5, 1}))
	for i := range 3 {
		require.NoError(t, c.ConcatTransform(mgl32.Translate3D(0, float32(i), 0)))
	}
	require.NoError(t, c.MotionEnd())

	st := c.State()
	assert.Equal(t, []float32{0, 0.5, 1}, st.MotionTimes)
	require.Len(t, st.MotionTransforms, 3)
	assert.Equal(t, mgl32.Translate3D(10, 2, 0), st.MotionTransforms[2])
	assert.Equal(t, st.MotionTransforms[0], c.Transform())

	// a later concatenation applies to every sample
	require.NoError(t, c.ConcatTransform(mgl32.Translate3D(0, 0, 1)))
	assert.Equal(t, mgl32.Translate3D(10, 1, 1), c.State().MotionTransforms[1])
	require.NoError(t, c.WorldEnd())
}

func TestMotionGeometry(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, c.WorldBegin())
	require.NoError(t, c.MotionBegin([]float32{0, 1, 2}))
	for i := range 3 {
		require.NoError(t, c.Sphere(float32(i+1), -1, 1, 360, nil))
	}
	require.NoError(t, c.MotionEnd())
	require.NoError(t, c.WorldEnd())

	require.Len(t, rec.geometry, 1)
	m, ok := rec.geometry[0].(*prim.Motion)
	require.True(t, ok)
	assert.Equal(t, []float32{0, 1, 2}, m.Times)
	require.Len(t, m.Samples, 3)
	assert.Equal(t, float32(3), m.Samples[2].(*prim.Sphere).Radius)
}

func TestMotionErrors(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, c.WorldBegin())

	assert.ErrorIs(t, c.MotionBegin(nil), ErrMotion)
	assert.ErrorIs(t, c.MotionBegin([]float32{1, 1}), ErrMotion)
	assert.ErrorIs(t, c.MotionEnd(), ErrMotion)

	// too few samples: the block is discarded
	require.NoError(t, c.MotionBegin([]float32{0, 1}))
	require.NoError(t, c.Sphere(1, -1, 1, 360, nil))
	assert.ErrorIs(t, c.MotionEnd(), ErrMotion)
	assert.Empty(t, rec.geometry)

	// too many samples and mixed kinds are rejected
	require.NoError(t, c.MotionBegin([]float32{0}))
	assert.ErrorIs(t, c.MotionBegin([]float32{0}), ErrMotion)
	require.NoError(t, c.SetTransform(mgl32.Translate3D(1, 0, 0)))
	assert.ErrorIs(t, c.SetTransform(mgl32.Translate3D(2, 0, 0)), ErrMotion)
	assert.ErrorIs(t, c.Sphere(1, -1, 1, 360, nil), ErrMotion)
	assert.ErrorIs(t, c.AttributeBegin(), ErrMotion)
	require.NoError(t, c.MotionEnd())
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), c.Transform())

	// samples of different primitive types
	require.NoError(t, c.MotionBegin([]float32{0, 1}))
	require.NoError(t, c.Sphere(1, -1, 1, 360, nil))
	assert.ErrorIs(t, c.Points(0, nil), ErrMotion)
	require.NoError(t, c.Sphere(2, -1, 1, 360, nil))
	require.NoError(t, c.MotionEnd())
	assert.Len(t, rec.geometry, 1)

	require.NoError(t, c.WorldEnd())
}

func TestInvalidGeometry(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, c.WorldBegin())
	vpf, ids, vars := triangle()
	vars.Set("Cs", prim.NewVariable(prim.Uniform, data.NewFloats(1, 2)))
	assert.ErrorIs(t, c.Mesh(vpf, ids, prim.MeshLinear, vars), prim.ErrInvalidVariable)
	assert.Error(t, c.Mesh([]int{3}, []int{0, 1}, prim.MeshLinear, nil))
	assert.Empty(t, rec.geometry)
	require.NoError(t, c.WorldEnd())
}

func TestLightsAndShaders(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, c.WorldBegin())
	require.NoError(t, c.Light("distant", "key", nil))
	assert.Error(t, c.Illuminate("fill", false))
	require.NoError(t, c.AttributeBegin())
	require.NoError(t, c.Illuminate("key", false))
	require.NoError(t, c.Shader("surface", "plastic", nil))
	assert.False(t, c.State().LightOn("key"))
	assert.Len(t, c.State().Shaders, 1)
	require.NoError(t, c.AttributeEnd())
	assert.True(t, c.State().LightOn("key"))
	assert.Empty(t, c.State().Shaders)

	require.NoError(t, c.CoordinateSystem("origin"))
	require.NoError(t, c.ConcatTransform(mgl32.Translate3D(1, 0, 0)))
	m, ok := c.NamedTransform("origin")
	assert.True(t, ok)
	assert.Equal(t, mgl32.Ident4(), m)

	_, err := c.Command("user:unknown", nil)
	assert.Error(t, err)
	require.NoError(t, c.WorldEnd())
	assert.Contains(t, rec.calls, "light key")
}

func TestProcedurals(t *testing.T) {
	for _, threaded := range []bool{false, true} {
		t.Run(fmt.Sprint("threaded=", threaded), func(t *testing.T) {
			c, rec := newContext(t)
			require.NoError(t, c.WorldBegin())
			require.NoError(t, c.SetAttribute("test:threaded", data.NewBool(threaded)))
			require.NoError(t, c.SetAttribute("user:depth", data.NewInt(0)))
			for range 20 {
				p := &Func{Box: NoBound, Fn: func(r Renderer) error {
					d, _ := data.ValueOf[int](r.Attribute("user:depth"))
					if err := r.AttributeBegin(); err != nil {
						return err
					}
					if err := r.SetAttribute("user:depth", data.NewInt(d+1)); err != nil {
						return err
					}
					vpf, ids, vars := triangle()
					if err := r.Mesh(vpf, ids, prim.MeshLinear, vars); err != nil {
						return err
					}
					return r.AttributeEnd()
				}}
				require.NoError(t, c.Procedural(p))
			}
			require.NoError(t, c.WorldEnd())

			require.Len(t, rec.geometry, 20)
			for _, st := range rec.states {
				d, _ := data.ValueOf[int](st.Attribute("user:depth"))
				assert.Equal(t, 1, d)
				assert.Equal(t, AttributeBlock, st.Kind)
			}
			n := 0
			for _, call := range rec.calls {
				if call == "begin procedural" {
					n++
				}
			}
			assert.Equal(t, 20, n)
		})
	}
}

func TestProceduralErrors(t *testing.T) {
	for _, threaded := range []bool{false, true} {
		t.Run(fmt.Sprint("threaded=", threaded), func(t *testing.T) {
			c, _ := newContext(t)
			require.NoError(t, c.WorldBegin())
			require.NoError(t, c.SetAttribute("test:threaded", data.NewBool(threaded)))
			failing := &Func{Fn: func(r Renderer) error { return fmt.Errorf("no data") }}
			unclosed := &Func{Fn: func(r Renderer) error { return r.AttributeBegin() }}
			panicking := &Func{Fn: func(r Renderer) error { panic("boom") }}
			worldEnd := &Func{Fn: func(r Renderer) error { return r.WorldEnd() }}

			var errs []error
			for _, p := range []Procedural{failing, unclosed, panicking, worldEnd} {
				errs = append(errs, c.Procedural(p))
			}
			err := c.WorldEnd()
			if !threaded {
				require.NoError(t, err)
				err = fmt.Errorf("%w %w %w %w", errs[0], errs[1], errs[2], errs[3])
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNesting)
			assert.ErrorIs(t, err, ErrPhase)
			assert.Contains(t, err.Error(), "no data")
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestInstances(t *testing.T) {
	c, rec := newContext(t)
	require.NoError(t, c.WorldBegin())
	require.NoError(t, c.ConcatTransform(mgl32.Translate3D(1, 0, 0)))
	require.NoError(t, c.InstanceBegin("tri", nil))
	assert.Equal(t, mgl32.Ident4(), c.Transform())
	vpf, ids, vars := triangle()
	require.NoError(t, c.Mesh(vpf, ids, prim.MeshLinear, vars))
	require.NoError(t, c.InstanceEnd())
	require.NoError(t, c.Instance("tri"))
	require.NoError(t, c.WorldEnd())
	assert.Equal(t, []string{"worldBegin", "instanceBegin tri", "geometry MeshPrimitive", "instanceEnd tri", "instance tri", "worldEnd"}, rec.calls)
}

func TestInstanceCacheConcurrent(t *testing.T) {
	const threads, lookups, unique = 10, 10000, 100
	var ic InstanceCache[*int]
	var creations atomic.Int32
	var wg sync.WaitGroup
	for g := range threads {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range lookups {
				k := (i + g) % unique
				h := murmur.Hash{}
				h.AppendInt(k)
				v, _, err := ic.Get(h, func() (*int, error) {
					creations.Add(1)
					return &k, nil
				})
				if assert.NoError(t, err) {
					assert.Equal(t, k, *v)
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(unique), creations.Load())
	assert.Equal(t, unique, ic.Len())
}

func TestInstanceCacheFailure(t *testing.T) {
	var ic InstanceCache[string]
	h := murmur.Hash{}
	h.AppendString("x")
	_, created, err := ic.Get(h, func() (string, error) { return "", fmt.Errorf("failed") })
	assert.True(t, created)
	assert.Error(t, err)
	v, created, err := ic.Get(h, func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "ok", v)
	ic.Clear()
	assert.Equal(t, 0, ic.Len())
}
