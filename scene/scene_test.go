// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/geom"
	"cogentcore.org/cortex/prim"
	. "cogentcore.org/cortex/scene"
	"cogentcore.org/cortex/scene/scenecache"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleInterval(t *testing.T) {
	times := []float64{0, 1, 3}
	tests := []struct {
		t           float64
		x           float64
		floor, ceil int
	}{
		{-1, 0, 0, 0},
		{0, 0, 0, 0},
		{0.25, 0.25, 0, 1},
		{1, 0, 1, 1},
		{2, 0.5, 1, 2},
		{3, 0, 2, 2},
		{7, 0, 2, 2},
	}
	for _, test := range tests {
		x, floor, ceil := SampleInterval(times, test.t)
		assert.Equal(t, test.floor, floor, "floor at %g", test.t)
		assert.Equal(t, test.ceil, ceil, "ceil at %g", test.t)
		assert.InDelta(t, test.x, x, 1e-12, "x at %g", test.t)
	}
	x, floor, ceil := SampleInterval(nil, 1)
	assert.Zero(t, x)
	assert.Zero(t, floor)
	assert.Zero(t, ceil)
}

func TestPath(t *testing.T) {
	assert.Equal(t, Path{"a", "b"}, ParsePath("/a/b"))
	assert.Equal(t, Path{"a", "b"}, ParsePath("a//b/"))
	assert.Equal(t, Path{}, ParsePath("/"))
	assert.Equal(t, "/", Path{}.String())
	assert.Equal(t, "/a/b", Path{"a", "b"}.String())
}

func TestHashTypeString(t *testing.T) {
	assert.Equal(t, "ObjectHash", ObjectHash.String())
	assert.Len(t, HashTypes, 6)
}

func TestNotFound(t *testing.T) {
	err := NotFound("child", "sphear", Path{"a"}, []string{"cube", "sphere"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `did you mean "sphere"`)
	err = NotFound("child", "xyz", Path{"a"}, []string{"cube", "sphere"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestCreateUnknown(t *testing.T) {
	_, err := Create("scene.unknown", Read)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, err.Error(), scenecache.Extension)
}

// writeScene writes a root with the given number of children, each
// with the given number of grandchildren holding a box and an attribute.
func writeScene(t *testing.T, name string, children, grandchildren int) {
	root, err := scenecache.Open(name, Write)
	require.NoError(t, err)
	for i := range children {
		c, err := root.CreateChild(fmt.Sprintf("c%d", i))
		require.NoError(t, err)
		require.NoError(t, c.WriteTransform(data.NewM44d(mgl64.Translate3D(float64(i), 0, 0)), 0))
		for j := range grandchildren {
			g, err := c.CreateChild(fmt.Sprintf("g%d", j))
			require.NoError(t, err)
			require.NoError(t, g.WriteObject(prim.NewBox(geom.B3f(0, 0, 0, 1, 1, 1)), 0))
			require.NoError(t, g.WriteAttribute("index", data.NewInt(j), 0))
			require.NoError(t, g.WriteTags([]string{"leaf"}))
		}
	}
	require.NoError(t, root.Close())
}

func openRead(fileName string) (Interface, error) {
	return Create(fileName, Read)
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.scc")
	b := filepath.Join(dir, "b.scc")
	c := filepath.Join(dir, "c.scc")
	for _, name := range []string{a, b, c} {
		writeScene(t, name, 1, 1)
	}

	r := NewRegistry(2, openRead)
	r.SetFoldCase(false)
	a1, err := r.Get(a)
	require.NoError(t, err)
	a2, err := r.Get(a)
	require.NoError(t, err)
	assert.Same(t, a1, a2)
	assert.Equal(t, a, a1.FileName())

	r.Erase(a)
	a3, err := r.Get(a)
	require.NoError(t, err)
	assert.NotSame(t, a1, a3)
	assert.Equal(t, []string{"c0"}, a1.ChildNames(), "erased scenes stay usable")

	_, err = r.Get(b)
	require.NoError(t, err)
	_, err = r.Get(c)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	_, err = r.Get(filepath.Join(dir, "missing.scc"))
	assert.Error(t, err)
	assert.Equal(t, 2, r.Len())

	r.Clear()
	assert.Zero(t, r.Len())
}

func TestRegistrySearchPaths(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeScene(t, filepath.Join(second, "shot.scc"), 2, 0)

	r := NewRegistry(4, openRead)
	r.SetFoldCase(false)
	r.SetSearchPaths([]string{first, second})
	s, err := r.Get("shot.scc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(second, "shot.scc"), s.FileName())
	assert.Equal(t, []string{"c0", "c1"}, s.ChildNames())

	abs, err := r.Get(filepath.Join(second, "shot.scc"))
	require.NoError(t, err)
	assert.Same(t, s, abs)

	writeScene(t, filepath.Join(first, "shot.scc"), 1, 0)
	s, err = r.Get("shot.scc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "shot.scc"), s.FileName(), "earlier directories win")
	assert.Equal(t, []string{"c0"}, s.ChildNames())
}

func TestRegistryCase(t *testing.T) {
	dir := t.TempDir()
	lower := filepath.Join(dir, "scene.scc")
	upper := filepath.Join(dir, "SCENE.scc")
	writeScene(t, lower, 1, 0)

	folded := NewRegistry(4, openRead)
	folded.SetFoldCase(true)
	s1, err := folded.Get(lower)
	require.NoError(t, err)
	s2, err := folded.Get(upper)
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	exact := NewRegistry(4, openRead)
	exact.SetFoldCase(false)
	s1, err = exact.Get(lower)
	require.NoError(t, err)
	_, err = exact.Get(upper)
	if err == nil {
		// case-insensitive host filesystem
		assert.Equal(t, 2, exact.Len())
	} else {
		assert.Equal(t, 1, exact.Len())
	}
	s3, err := exact.Get(lower)
	require.NoError(t, err)
	assert.Same(t, s1, s3)
}

func TestRegistryWatch(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "watched.scc")
	writeScene(t, name, 1, 0)

	r := NewRegistry(4, openRead)
	require.NoError(t, r.Watch())
	defer r.Close()
	s1, err := r.Get(name)
	require.NoError(t, err)

	writeScene(t, name, 2, 0)
	assert.Eventually(t, func() bool { return r.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
	s2, err := r.Get(name)
	require.NoError(t, err)
	assert.NotSame(t, s1, s2)
	assert.Len(t, s2.ChildNames(), 2)
}

func TestParallelReadAll(t *testing.T) {
	name := filepath.Join(t.TempDir(), "big.scc")
	writeScene(t, name, 10, 5)
	s, err := Create(name, Read)
	require.NoError(t, err)
	defer s.Close()

	const frames = 3
	const locations = 1 + 10 + 50
	stats, err := ParallelReadAll(context.Background(), s, ReadAllOptions{
		StartFrame: 1, EndFrame: frames, Flags: ReadEverything, Threads: 4,
	})
	require.NoError(t, err)
	assert.False(t, stats.Skipped)
	assert.EqualValues(t, locations, stats.Locations)
	assert.EqualValues(t, locations*frames, stats.Bounds)
	assert.EqualValues(t, locations*frames, stats.Transforms)
	assert.EqualValues(t, 50*frames, stats.Objects)
	assert.EqualValues(t, 50*frames, stats.Attributes)
	assert.EqualValues(t, locations, stats.Tags)
	assert.EqualValues(t, locations*frames*5, stats.Hashes)

	stats, err = ParallelReadAll(context.Background(), s, ReadAllOptions{Flags: ReadObjects})
	require.NoError(t, err)
	assert.EqualValues(t, locations, stats.Locations)
	assert.EqualValues(t, 50, stats.Objects)
	assert.Zero(t, stats.Bounds)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ParallelReadAll(ctx, s, ReadAllOptions{Flags: ReadEverything})
	assert.ErrorIs(t, err, context.Canceled)

	stats, err = ParallelReadAll(context.Background(), s, ReadAllOptions{
		EndFrame: 100, Flags: ReadEverything, Threads: 1, Budget: time.Nanosecond,
	})
	require.NoError(t, err)
	assert.True(t, stats.Skipped)
	assert.Less(t, stats.Locations, int64(locations))
}
