// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenecache

import (
	"testing"

	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/geom"
	"cogentcore.org/cortex/indexedio"
	"cogentcore.org/cortex/prim"
	"cogentcore.org/cortex/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFS(t *testing.T) hackpadfs.FS {
	fsys, err := mem.NewFS()
	require.NoError(t, err)
	return fsys
}

func create(t *testing.T, fsys hackpadfs.FS, name string) *Scene {
	s, err := OpenFS(fsys, name, name, scene.Write)
	require.NoError(t, err)
	return s
}

func open(t *testing.T, fsys hackpadfs.FS, name string) *Scene {
	s, err := OpenFS(fsys, name, name, scene.Read)
	require.NoError(t, err)
	return s
}

func child(t *testing.T, s scene.Interface, name string) scene.Interface {
	c, err := s.Child(name, scene.ThrowIfMissing)
	require.NoError(t, err)
	return c
}

func unitBox() *prim.Mesh {
	return prim.NewBox(geom.B3f(-1, -1, -1, 1, 1, 1))
}

// writeHierarchy writes /t/s, with t translated by one along x and s
// holding a unit sphere.
func writeHierarchy(t *testing.T, fsys hackpadfs.FS, name string) {
	root := create(t, fsys, name)
	require.NoError(t, root.WriteAttribute("w", data.NewBool(true), 0))

	tc, err := root.CreateChild("t")
	require.NoError(t, err)
	require.NoError(t, tc.WriteTransform(data.NewM44d(mgl64.Translate3D(1, 0, 0)), 0))
	require.NoError(t, tc.WriteAttribute("wuh", data.NewBool(true), 0))

	sc, err := tc.CreateChild("s")
	require.NoError(t, err)
	require.NoError(t, sc.WriteObject(prim.NewSphere(1), 0))
	require.NoError(t, sc.WriteAttribute("glah", data.NewInt(15), 0))
	require.NoError(t, sc.WriteTags([]string{"tagA", "tagB"}))

	require.NoError(t, root.Close())
}

func TestStaticHierarchy(t *testing.T) {
	fsys := memFS(t)
	writeHierarchy(t, fsys, "test.scc")

	root := open(t, fsys, "test.scc")
	defer root.Close()
	assert.Equal(t, "/", root.Name())
	assert.Equal(t, "test.scc", root.FileName())
	assert.Equal(t, []string{"t"}, root.ChildNames())
	assert.Equal(t, []string{"w"}, root.AttributeNames())
	w, err := root.ReadAttribute("w", 0)
	require.NoError(t, err)
	assert.True(t, data.Equal(data.NewBool(true), w))

	tc := child(t, root, "t")
	assert.Equal(t, "t", tc.Name())
	m, err := tc.ReadTransformAsMatrix(0)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Translate3D(1, 0, 0), m)
	assert.Equal(t, []string{"s"}, tc.ChildNames())
	assert.True(t, tc.HasAttribute("wuh"))
	assert.False(t, tc.HasObject())

	s := child(t, tc, "s")
	assert.Equal(t, scene.Path{"t", "s"}, s.Path())
	assert.Equal(t, "/t/s", s.Path().String())
	assert.Empty(t, s.ChildNames())
	glah, err := s.ReadAttribute("glah", 0)
	require.NoError(t, err)
	v, ok := data.ValueOf[int](glah)
	assert.True(t, ok)
	assert.Equal(t, 15, v)
	o, err := s.ReadObject(0)
	require.NoError(t, err)
	sphere, ok := o.(*prim.Sphere)
	require.True(t, ok)
	assert.Equal(t, float32(1), sphere.Radius)

	tags, err := s.ReadTags(scene.LocalTag)
	require.NoError(t, err)
	assert.Equal(t, []string{"tagA", "tagB"}, tags)
	tags, err = root.ReadTags(scene.DescendantTag)
	require.NoError(t, err)
	assert.Equal(t, []string{"tagA", "tagB"}, tags)
	assert.True(t, tc.HasTag("tagA", scene.DescendantTag))
	assert.False(t, tc.HasTag("tagA", scene.LocalTag))

	// the root has no transform
	m, err = root.ReadTransformAsMatrix(0)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Ident4(), m)

	// bounds propagate up through the transform
	b, err := root.ReadBound(0)
	require.NoError(t, err)
	assert.InDelta(t, 0, b.Min[0], 1e-5)
	assert.InDelta(t, 2, b.Max[0], 1e-5)
	assert.InDelta(t, -1, b.Min[1], 1e-5)
	assert.InDelta(t, 1, b.Max[2], 1e-5)

	byPath, err := root.Scene(scene.ParsePath("/t/s"), scene.ThrowIfMissing)
	require.NoError(t, err)
	assert.Equal(t, s.Path(), byPath.Path())
	byPath, err = s.Scene(scene.Path{}, scene.ThrowIfMissing)
	require.NoError(t, err)
	assert.Equal(t, "/", byPath.Name())
}

func TestMissing(t *testing.T) {
	fsys := memFS(t)
	writeHierarchy(t, fsys, "test.scc")
	root := open(t, fsys, "test.scc")

	_, err := root.Child("z", scene.ThrowIfMissing)
	assert.ErrorIs(t, err, scene.ErrNotFound)
	c, err := root.Child("z", scene.NullIfMissing)
	assert.NoError(t, err)
	assert.Nil(t, c)
	_, err = root.Child("z", scene.CreateIfMissing)
	assert.ErrorIs(t, err, scene.ErrReadOnly)

	_, err = root.Scene(scene.Path{"t", "x"}, scene.ThrowIfMissing)
	assert.ErrorIs(t, err, scene.ErrNotFound)
	c, err = root.Scene(scene.Path{"t", "x"}, scene.NullIfMissing)
	assert.NoError(t, err)
	assert.Nil(t, c)

	_, err = root.ReadAttribute("wx", 0)
	assert.ErrorIs(t, err, scene.ErrNotFound)
	assert.Contains(t, err.Error(), `"w"`)
	_, err = root.ReadObject(0)
	assert.ErrorIs(t, err, scene.ErrNotFound)

	tc := child(t, root, "t")
	b, err := child(t, tc, "s").ReadBound(0)
	require.NoError(t, err)
	assert.False(t, b.IsEmpty())

	_, err = OpenFS(fsys, "missing.scc", "missing.scc", scene.Read)
	assert.Error(t, err)
}

func TestModes(t *testing.T) {
	fsys := memFS(t)
	_, err := OpenFS(fsys, "test.scc", "test.scc", scene.Append)
	assert.ErrorIs(t, err, scene.ErrUnsupported)
	_, err = scene.Create("test.scc", scene.Append)
	assert.ErrorIs(t, err, scene.ErrUnsupported)
	assert.Contains(t, scene.SupportedExtensions(scene.Read), Extension)
	assert.Contains(t, scene.SupportedExtensions(scene.Write), Extension)
	assert.NotContains(t, scene.SupportedExtensions(scene.Append), Extension)

	writeHierarchy(t, fsys, "test.scc")
	root := open(t, fsys, "test.scc")
	tc := child(t, root, "t")
	assert.ErrorIs(t, tc.WriteAttribute("a", data.NewInt(1), 0), scene.ErrReadOnly)
	assert.ErrorIs(t, tc.WriteObject(unitBox(), 0), scene.ErrReadOnly)
	assert.ErrorIs(t, tc.WriteBound(geom.B3d(0, 0, 0, 1, 1, 1), 0), scene.ErrReadOnly)
	assert.ErrorIs(t, tc.WriteTags([]string{"a"}), scene.ErrReadOnly)
	_, err = tc.CreateChild("x")
	assert.ErrorIs(t, err, scene.ErrReadOnly)

	// a file that is not a scene cache
	f, err := indexedio.Open(fsys, "other.scc", indexedio.Write)
	require.NoError(t, err)
	require.NoError(t, f.Root().Write("header", data.NewString("other")))
	require.NoError(t, f.Close())
	_, err = OpenFS(fsys, "other.scc", "other.scc", scene.Read)
	assert.ErrorIs(t, err, indexedio.ErrFormat)
}

func TestWriteErrors(t *testing.T) {
	fsys := memFS(t)
	root := create(t, fsys, "test.scc")
	assert.ErrorIs(t, root.WriteTransform(data.NewM44d(mgl64.Ident4()), 0), scene.ErrUnsupported)
	assert.ErrorIs(t, root.WriteObject(unitBox(), 0), scene.ErrUnsupported)

	a, err := root.CreateChild("a")
	require.NoError(t, err)
	_, err = root.CreateChild("a")
	assert.Error(t, err)
	_, err = root.CreateChild("b/c")
	assert.Error(t, err)
	assert.Error(t, a.WriteObject(nil, 0))
	assert.Error(t, a.WriteAttribute("x", nil, 0))
	assert.Error(t, a.WriteTransform(nil, 0))
	assert.Error(t, a.WriteTransform(data.NewInt(1), 0))

	require.NoError(t, a.WriteObject(unitBox(), 1))
	assert.Error(t, a.WriteObject(unitBox(), 1), "times must increase")
	assert.Error(t, a.WriteObject(unitBox(), 0), "times must increase")
	require.NoError(t, a.WriteObject(unitBox(), 2))

	again, err := root.Child("a", scene.CreateIfMissing)
	require.NoError(t, err)
	assert.Same(t, a, again)

	// only local tags can be read while writing
	require.NoError(t, a.WriteTags([]string{"x"}))
	require.NoError(t, a.WriteTags([]string{"y", "x"}))
	tags, err := a.ReadTags(scene.LocalTag)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, tags)
	_, err = a.ReadTags(scene.EveryTag)
	assert.ErrorIs(t, err, scene.ErrUnsupported)
	_, err = a.ReadObject(0)
	assert.ErrorIs(t, err, scene.ErrUnsupported)
	_, err = a.Hash(scene.ObjectHash, 0)
	assert.ErrorIs(t, err, scene.ErrUnsupported)

	require.NoError(t, root.Close())
	require.NoError(t, root.Close())
	assert.ErrorIs(t, a.WriteObject(unitBox(), 3), scene.ErrFlushed)
	assert.ErrorIs(t, a.WriteAttribute("x", data.NewInt(1), 3), scene.ErrFlushed)
	_, err = a.CreateChild("c")
	assert.ErrorIs(t, err, scene.ErrFlushed)
	_, err = root.Child("b", scene.CreateIfMissing)
	assert.ErrorIs(t, err, scene.ErrFlushed)
}

func TestImplicitBounds(t *testing.T) {
	fsys := memFS(t)
	root := create(t, fsys, "test.scc")
	a, err := root.CreateChild("a")
	require.NoError(t, err)
	require.NoError(t, a.WriteTransform(data.NewM44d(mgl64.Translate3D(0, 0, 0)), 0))
	require.NoError(t, a.WriteTransform(data.NewM44d(mgl64.Translate3D(2, 0, 0)), 1))
	b, err := a.CreateChild("b")
	require.NoError(t, err)
	require.NoError(t, b.WriteObject(unitBox(), 0))
	c, err := root.CreateChild("c")
	require.NoError(t, err)
	require.NoError(t, c.WriteObject(prim.NewBox(geom.B3f(0, 0, 0, 1, 1, 5)), 0))
	require.NoError(t, root.Close())

	r := open(t, fsys, "test.scc")
	times, err := r.SampleTimes(scene.Channel{Kind: scene.BoundChannel})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, times)

	bound, err := r.ReadBound(0)
	require.NoError(t, err)
	assert.Equal(t, geom.B3d(-1, -1, -1, 1, 1, 5), bound)
	bound, err = r.ReadBound(1)
	require.NoError(t, err)
	assert.Equal(t, geom.B3d(0, -1, -1, 3, 1, 5), bound)
	bound, err = r.ReadBound(0.5)
	require.NoError(t, err)
	assert.Equal(t, geom.B3d(-0.5, -1, -1, 2, 1, 5), bound)

	// a child without a bound of its own keeps the bound of its subtree
	bound, err = child(t, r, "a").ReadBound(1)
	require.NoError(t, err)
	assert.Equal(t, geom.B3d(-1, -1, -1, 1, 1, 1), bound)
}

func TestExplicitBound(t *testing.T) {
	fsys := memFS(t)
	root := create(t, fsys, "test.scc")
	a, err := root.CreateChild("a")
	require.NoError(t, err)
	require.NoError(t, a.WriteObject(unitBox(), 0))
	require.NoError(t, root.WriteBound(geom.B3d(-10, -10, -10, 10, 10, 10), 0))
	require.NoError(t, root.Close())

	r := open(t, fsys, "test.scc")
	bound, err := r.ReadBound(0)
	require.NoError(t, err)
	assert.Equal(t, geom.B3d(-10, -10, -10, 10, 10, 10), bound)
}

func TestInterpolation(t *testing.T) {
	fsys := memFS(t)
	root := create(t, fsys, "test.scc")
	a, err := root.CreateChild("a")
	require.NoError(t, err)
	require.NoError(t, a.WriteTransform(data.NewM44d(mgl64.Translate3D(0, 0, 0)), 0))
	require.NoError(t, a.WriteTransform(data.NewM44d(mgl64.Translate3D(2, 0, 0)), 1))
	require.NoError(t, a.WriteAttribute("f", data.NewDouble(0), 0))
	require.NoError(t, a.WriteAttribute("f", data.NewDouble(10), 1))
	require.NoError(t, a.WriteAttribute("s", data.NewString("a"), 0))
	require.NoError(t, a.WriteAttribute("s", data.NewString("b"), 1))
	require.NoError(t, a.WriteObject(prim.NewPoints([]mgl32.Vec3{{0, 0, 0}}), 0))
	require.NoError(t, a.WriteObject(prim.NewPoints([]mgl32.Vec3{{4, 0, 0}}), 1))
	require.NoError(t, root.Close())

	r := child(t, open(t, fsys, "test.scc"), "a")
	m, err := r.ReadTransformAsMatrix(0.5)
	require.NoError(t, err)
	assert.InDelta(t, 1, m.At(0, 3), 1e-9)
	m, err = r.ReadTransformAsMatrix(-1)
	require.NoError(t, err)
	assert.Equal(t, mgl64.Ident4(), m)
	d, err := r.ReadTransform(5)
	require.NoError(t, err)
	assert.True(t, data.Equal(data.NewM44d(mgl64.Translate3D(2, 0, 0)), d))

	f, err := r.ReadAttribute("f", 0.25)
	require.NoError(t, err)
	v, _ := data.ValueOf[float64](f)
	assert.InDelta(t, 2.5, v, 1e-9)

	s, err := r.ReadAttribute("s", 0.25)
	require.NoError(t, err)
	assert.True(t, data.Equal(data.NewString("a"), s))
	s, err = r.ReadAttribute("s", 0.75)
	require.NoError(t, err)
	assert.True(t, data.Equal(data.NewString("b"), s))

	o, err := r.ReadObject(0.5)
	require.NoError(t, err)
	p, ok := o.(*prim.Points)
	require.True(t, ok)
	assert.InDelta(t, 2, p.Points()[0][0], 1e-6)

	ch := scene.Channel{Kind: scene.AttributeChannel, Attribute: "f"}
	times, err := r.(scene.Sampled).SampleTimes(ch)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, times)
	sample, err := r.(scene.Sampled).ReadAtSample(ch, 1)
	require.NoError(t, err)
	assert.True(t, data.Equal(data.NewDouble(10), sample))
	_, err = r.(scene.Sampled).ReadAtSample(ch, 2)
	assert.Error(t, err)
}

func TestTagFilters(t *testing.T) {
	fsys := memFS(t)
	root := create(t, fsys, "test.scc")
	a, err := root.CreateChild("a")
	require.NoError(t, err)
	require.NoError(t, a.WriteTags([]string{"ta"}))
	b, err := a.CreateChild("b")
	require.NoError(t, err)
	require.NoError(t, b.WriteTags([]string{"tb"}))
	c, err := b.CreateChild("c")
	require.NoError(t, err)
	require.NoError(t, c.WriteTags([]string{"tc"}))
	require.NoError(t, root.Close())

	r := open(t, fsys, "test.scc")
	rb, err := r.Scene(scene.Path{"a", "b"}, scene.ThrowIfMissing)
	require.NoError(t, err)
	for filter, want := range map[scene.TagFilter][]string{
		scene.LocalTag:                       {"tb"},
		scene.DescendantTag:                  {"tc"},
		scene.AncestorTag:                    {"ta"},
		scene.LocalTag | scene.DescendantTag: {"tb", "tc"},
		scene.EveryTag:                       {"ta", "tb", "tc"},
	} {
		tags, err := rb.ReadTags(filter)
		require.NoError(t, err)
		assert.Equal(t, want, tags, "filter %d", filter)
	}
	tags, err := r.ReadTags(scene.EveryTag)
	require.NoError(t, err)
	assert.Equal(t, []string{"ta", "tb", "tc"}, tags)
}

func TestHashes(t *testing.T) {
	fsys := memFS(t)
	writeHierarchy(t, fsys, "a.scc")
	writeHierarchy(t, fsys, "b.scc")

	root := create(t, fsys, "anim.scc")
	x, err := root.CreateChild("x")
	require.NoError(t, err)
	require.NoError(t, x.WriteObject(unitBox(), 0))
	require.NoError(t, x.WriteObject(unitBox(), 1))
	require.NoError(t, x.WriteTransform(data.NewM44d(mgl64.Translate3D(0, 0, 0)), 0))
	require.NoError(t, x.WriteTransform(data.NewM44d(mgl64.Translate3D(1, 0, 0)), 1))
	require.NoError(t, root.Close())

	a := open(t, fsys, "a.scc")
	b := open(t, fsys, "b.scc")
	for _, ht := range scene.HashTypes {
		ha, err := a.Hash(ht, 0)
		require.NoError(t, err)
		hb, err := b.Hash(ht, 0)
		require.NoError(t, err)
		assert.Equal(t, ha, hb, "identical files hash identically for %v", ht)
		later, err := a.Hash(ht, 10)
		require.NoError(t, err)
		assert.Equal(t, ha, later, "static content is time invariant for %v", ht)
	}

	// hash types and locations are distinguished
	seen := map[any]bool{}
	var visit func(s scene.Interface)
	visit = func(s scene.Interface) {
		for _, ht := range scene.HashTypes {
			h, err := s.Hash(ht, 0)
			require.NoError(t, err)
			assert.False(t, seen[h], "%v at %s", ht, s.Path())
			seen[h] = true
		}
		for _, name := range s.ChildNames() {
			visit(child(t, s, name))
		}
	}
	visit(a)

	ax := child(t, open(t, fsys, "anim.scc"), "x")
	h0, err := ax.Hash(scene.ObjectHash, 0)
	require.NoError(t, err)
	h1, err := ax.Hash(scene.ObjectHash, 0.5)
	require.NoError(t, err)
	assert.Equal(t, h0, h1, "identical samples hash as one")
	t0, err := ax.Hash(scene.TransformHash, 0)
	require.NoError(t, err)
	t1, err := ax.Hash(scene.TransformHash, 0.5)
	require.NoError(t, err)
	t2, err := ax.Hash(scene.TransformHash, 0.25)
	require.NoError(t, err)
	assert.NotEqual(t, t0, t1)
	assert.NotEqual(t, t1, t2)
}

func TestRegistration(t *testing.T) {
	dir := t.TempDir()
	name := dir + "/reg.scc"
	w, err := scene.Create(name, scene.Write)
	require.NoError(t, err)
	c, err := w.CreateChild("a")
	require.NoError(t, err)
	require.NoError(t, c.WriteObject(unitBox(), 0))
	require.NoError(t, w.Close())

	r, err := scene.Create(name, scene.Read)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, name, r.FileName())
	assert.Equal(t, []string{"a"}, r.ChildNames())
}
