// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package capture

import (
	"fmt"
	"sync/atomic"
	"testing"

	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/prim"
	"cogentcore.org/cortex/render"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle(r render.Renderer) error {
	vars := &prim.Variables{}
	vars.Set("P", prim.NewVariable(prim.Vertex, data.NewPoints(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})))
	return r.Mesh([]int{3}, []int{0, 1, 2}, prim.MeshLinear, vars)
}

// leaves returns the non-group objects below g.
func leaves(g *prim.Group) []data.Object {
	var objs []data.Object
	g.Walk(func(g *prim.Group) bool {
		for _, c := range g.Children {
			if _, ok := c.(*prim.Group); !ok {
				objs = append(objs, c)
			}
		}
		return true
	})
	return objs
}

func TestHierarchy(t *testing.T) {
	r, b := NewRenderer()
	require.NoError(t, r.WorldBegin())
	require.NoError(t, r.SetAttribute("user:world", data.NewInt(1)))
	require.NoError(t, r.ConcatTransform(mgl32.Translate3D(1, 0, 0)))
	require.NoError(t, r.AttributeBegin())
	require.NoError(t, r.SetAttribute("user:x", data.NewInt(2)))
	require.NoError(t, r.Shader("surface", "plastic", nil))
	require.NoError(t, r.Light("distant", "key", nil))
	require.NoError(t, triangle(r))
	require.NoError(t, r.AttributeEnd())
	require.NoError(t, r.WorldEnd())

	w := b.World()
	v, _ := data.ValueOf[int](w.Attribute("user:world"))
	assert.Equal(t, 1, v)
	require.Len(t, w.Children, 1)
	block, ok := w.Children[0].(*prim.Group)
	require.True(t, ok)
	v, _ = data.ValueOf[int](block.Attribute("user:x"))
	assert.Equal(t, 2, v)
	assert.Nil(t, block.Attribute("user:world"))
	require.Len(t, block.State, 2)
	assert.IsType(t, &prim.Light{}, block.State[0])
	assert.IsType(t, &prim.Shader{}, block.State[1])

	require.Len(t, block.Children, 1)
	place := block.Children[0].(*prim.Group)
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), place.Transform)
	require.Len(t, place.Children, 1)
	assert.IsType(t, &prim.Mesh{}, place.Children[0])

	bound := w.Bound()
	assert.Equal(t, float32(1), bound.Min[0])
	assert.Equal(t, float32(2), bound.Max[0])
}

func TestAutomaticInstancing(t *testing.T) {
	for _, instancing := range []bool{true, false} {
		t.Run(fmt.Sprint("instancing=", instancing), func(t *testing.T) {
			r, b := NewRenderer()
			r.SetThreads(10)
			require.NoError(t, r.WorldBegin())
			require.NoError(t, r.SetAttribute(ReentrantAttribute, data.NewBool(true)))
			require.NoError(t, r.SetAttribute(AutomaticInstancingAttribute, data.NewBool(instancing)))
			for i := range 20 {
				require.NoError(t, r.TransformBegin())
				require.NoError(t, r.ConcatTransform(mgl32.Translate3D(float32(i), 0, 0)))
				require.NoError(t, r.Procedural(&render.Func{Box: render.NoBound, Fn: triangle}))
				require.NoError(t, r.TransformEnd())
			}
			require.NoError(t, r.WorldEnd())

			objs := leaves(b.World())
			require.Len(t, objs, 20)
			unique, refs := b.InstanceStats()
			assert.Equal(t, 20, refs)
			if instancing {
				assert.Equal(t, 1, unique)
				for _, o := range objs {
					assert.Same(t, objs[0], o)
				}
			} else {
				assert.Equal(t, 20, unique)
				assert.NotSame(t, objs[0], objs[1])
			}
			bound := b.World().Bound()
			assert.InDelta(t, 0, bound.Min[0], 1e-6)
			assert.InDelta(t, 20, bound.Max[0], 1e-6)
		})
	}
}

func TestCallerDataNotShared(t *testing.T) {
	r, b := NewRenderer()
	require.NoError(t, r.WorldBegin())
	require.NoError(t, r.SetAttribute(AutomaticInstancingAttribute, data.NewBool(true)))
	p := data.NewPoints(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
	vars := &prim.Variables{}
	vars.Set("P", prim.NewVariable(prim.Vertex, p))
	require.NoError(t, r.Mesh([]int{3}, []int{0, 1, 2}, prim.MeshLinear, vars))
	p.Writable()[0] = mgl32.Vec3{100, 100, 100}
	require.NoError(t, r.Mesh([]int{3}, []int{0, 1, 2}, prim.MeshLinear, vars))
	require.NoError(t, triangle(r))
	require.NoError(t, r.WorldEnd())

	bb := b.World().Bound()
	assert.Equal(t, mgl32.Vec3{100, 100, 100}, bb.Max)

	objs := leaves(b.World())
	require.Len(t, objs, 3)
	assert.Same(t, objs[0], objs[2])
	assert.NotSame(t, objs[0], objs[1])
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, objs[0].(*prim.Mesh).Points()[0])
	assert.Equal(t, mgl32.Vec3{100, 100, 100}, objs[1].(*prim.Mesh).Points()[0])
	unique, refs := b.InstanceStats()
	assert.Equal(t, 2, unique)
	assert.Equal(t, 3, refs)
}

func TestProceduralInstancing(t *testing.T) {
	r, b := NewRenderer()
	require.NoError(t, r.WorldBegin())
	require.NoError(t, r.SetAttribute(ReentrantAttribute, data.NewBool(false)))
	require.NoError(t, r.SetAttribute(AutomaticInstancingAttribute, data.NewBool(true)))
	var calls atomic.Int32
	key := murmur.New(1, 2)
	for i := range 5 {
		require.NoError(t, r.TransformBegin())
		require.NoError(t, r.ConcatTransform(mgl32.Translate3D(0, float32(i), 0)))
		require.NoError(t, r.Procedural(&render.Func{Box: render.NoBound, Key: key, Fn: func(r render.Renderer) error {
			calls.Add(1)
			return triangle(r)
		}}))
		require.NoError(t, r.TransformEnd())
	}
	require.NoError(t, r.WorldEnd())

	assert.EqualValues(t, 1, calls.Load())
	w := b.World()
	require.Len(t, w.Children, 5)
	var content *prim.Group
	for i, c := range w.Children {
		place := c.(*prim.Group)
		assert.Equal(t, mgl32.Translate3D(0, float32(i), 0), place.Transform)
		require.Len(t, place.Children, 1)
		g := place.Children[0].(*prim.Group)
		if content == nil {
			content = g
		}
		assert.Same(t, content, g)
	}
	// contents are captured in the space of the procedural
	inner := content.Children[0].(*prim.Group)
	assert.Equal(t, mgl32.Ident4(), inner.Transform)
}

func TestObjectFilter(t *testing.T) {
	r, b := NewRenderer()
	require.NoError(t, r.SetOption(ObjectFilterOption, data.NewStrings("/a/*")))
	require.NoError(t, r.WorldBegin())
	require.NoError(t, r.SetAttribute(ReentrantAttribute, data.NewBool(false)))

	named := func(name string, fn func() error) {
		require.NoError(t, r.AttributeBegin())
		require.NoError(t, r.SetAttribute(NameAttribute, data.NewString(name)))
		require.NoError(t, fn())
		require.NoError(t, r.AttributeEnd())
	}
	var expanded []string
	proc := func(name string) func() error {
		return func() error {
			return r.Procedural(&render.Func{Box: render.NoBound, Fn: func(pr render.Renderer) error {
				expanded = append(expanded, name)
				if err := pr.SetAttribute(NameAttribute, data.NewString(name+"/child")); err != nil {
					return err
				}
				return triangle(pr)
			}})
		}
	}
	named("/a/x", func() error { return triangle(r) })
	named("/b/y", func() error { return triangle(r) })
	named("", func() error { return triangle(r) })
	named("/a", proc("/a"))
	named("/b", proc("/b"))
	named("/a/p", proc("/a/p"))
	require.NoError(t, r.WorldEnd())

	assert.Equal(t, []string{"/a", "/a/p"}, expanded)
	// /a/x and the /a/child triangle match
	assert.Len(t, leaves(b.World()), 2)
}

func TestFilter(t *testing.T) {
	var f *filter
	assert.True(t, f.match("anything"))
	assert.True(t, f.matchOrAbove("anything"))

	f, err := newFilter([]string{"/set/*/mesh", "/other"})
	require.NoError(t, err)
	assert.True(t, f.match("/set/a/mesh"))
	assert.False(t, f.match("/set/a/b/mesh"))
	assert.True(t, f.match("/other"))
	assert.True(t, f.matchOrAbove("/set"))
	assert.True(t, f.matchOrAbove("/set/a"))
	assert.False(t, f.matchOrAbove("/set/a/other"))
	assert.False(t, f.matchOrAbove("/nope"))
	assert.True(t, f.matchOrAbove(""), "unnamed procedurals are expanded")

	_, err = newFilter([]string{"[unclosed"})
	assert.Error(t, err)
}

func TestInstances(t *testing.T) {
	r, b := NewRenderer()
	require.NoError(t, r.WorldBegin())
	require.NoError(t, r.InstanceBegin("tri", nil))
	require.NoError(t, triangle(r))
	require.NoError(t, r.InstanceEnd())
	require.NoError(t, r.Instance("tri"))
	require.NoError(t, r.ConcatTransform(mgl32.Translate3D(0, 0, 3)))
	require.NoError(t, r.Instance("tri"))
	assert.Error(t, r.Instance("missing"))
	require.NoError(t, r.WorldEnd())

	w := b.World()
	require.Len(t, w.Children, 2)
	first := w.Children[0].(*prim.Group)
	second := w.Children[1].(*prim.Group)
	assert.Equal(t, mgl32.Ident4(), first.Transform)
	assert.Equal(t, mgl32.Translate3D(0, 0, 3), second.Transform)
	assert.Same(t, first.Children[0], second.Children[0])
}

func TestMotion(t *testing.T) {
	r, b := NewRenderer()
	require.NoError(t, r.WorldBegin())
	require.NoError(t, r.MotionBegin([]float32{0, 1}))
	require.NoError(t, r.SetTransform(mgl32.Ident4()))
	require.NoError(t, r.SetTransform(mgl32.Translate3D(1, 0, 0)))
	require.NoError(t, r.MotionEnd())
	require.NoError(t, triangle(r))
	require.NoError(t, r.WorldEnd())

	place := b.World().Children[0].(*prim.Group)
	assert.Equal(t, []float32{0, 1}, place.MotionTimes)
	assert.Equal(t, []mgl32.Mat4{mgl32.Ident4(), mgl32.Translate3D(1, 0, 0)}, place.MotionTransforms)
}

func TestCommand(t *testing.T) {
	r, _ := NewRenderer()
	require.NoError(t, r.WorldBegin())
	_, err := r.Command(ClearInstanceCacheCommand, nil)
	assert.NoError(t, err)
	_, err = r.Command("cp:unknown", nil)
	assert.Error(t, err)
	require.NoError(t, r.WorldEnd())
}

func TestInvalidFilter(t *testing.T) {
	r, _ := NewRenderer()
	require.NoError(t, r.SetOption(ObjectFilterOption, data.NewInt(1)))
	assert.Error(t, r.WorldBegin())
}
