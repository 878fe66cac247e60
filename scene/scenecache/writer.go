// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenecache

import (
	"fmt"
	"maps"
	"slices"

	"cogentcore.org/core/base/ordmap"
	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/geom"
	"cogentcore.org/cortex/indexedio"
	"cogentcore.org/cortex/prim"
	"cogentcore.org/cortex/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// writer accumulates the samples of a location being written, until
// the root is closed and the derived channels are computed.
type writer struct {
	boundTimes []float64
	bounds     []geom.Box3d

	// explicitBound is whether bounds were written by the caller.
	explicitBound bool

	transformTimes []float64
	transforms     []mgl64.Mat4

	objectTimes      []float64
	objectBoundTimes []float64
	objectBounds     []geom.Box3d

	attributeTimes map[string][]float64

	tags           map[string]bool
	descendantTags map[string]bool

	children *ordmap.Map[string, *Scene]
}

func newWriter() *writer {
	return &writer{
		attributeTimes: map[string][]float64{},
		tags:           map[string]bool{},
		descendantTags: map[string]bool{},
		children:       ordmap.New[string, *Scene](),
	}
}

func sortedSet(set map[string]bool) []string {
	return slices.Sorted(maps.Keys(set))
}

func (s *Scene) writable() error {
	if s.w == nil {
		return fmt.Errorf("%w: %s", scene.ErrReadOnly, s.file.name)
	}
	if s.file.flushed {
		return fmt.Errorf("%w: %s", scene.ErrFlushed, s.file.name)
	}
	return nil
}

// writeSample appends a sample to the named channel directory.
func (s *Scene) writeSample(d *indexedio.Directory, times *[]float64, o data.Object, t float64) error {
	if n := len(*times); n > 0 && t <= (*times)[n-1] {
		return fmt.Errorf("scenecache: %s: sample time %g is not after previous time %g", d, t, (*times)[n-1])
	}
	if err := d.Write(sampleName(len(*times)), o); err != nil {
		return err
	}
	*times = append(*times, t)
	return nil
}

func (s *Scene) WriteBound(b geom.Box3d, t float64) error {
	if err := s.writable(); err != nil {
		return err
	}
	d, err := s.dir.Subdirectory(boundEntry)
	if err != nil {
		return err
	}
	if err := s.writeSample(d, &s.w.boundTimes, data.NewSimple(b), t); err != nil {
		return err
	}
	s.w.bounds = append(s.w.bounds, b)
	s.w.explicitBound = true
	return nil
}

func (s *Scene) WriteTransform(d data.Data, t float64) error {
	if err := s.writable(); err != nil {
		return err
	}
	if s.isRoot() {
		return fmt.Errorf("%w: the root location has no transform", scene.ErrUnsupported)
	}
	var m mgl64.Mat4
	if v, ok := data.ValueOf[mgl64.Mat4](d); ok {
		m = v
	} else if v, ok := data.ValueOf[mgl32.Mat4](d); ok {
		m = geom.Mat4d(v)
	} else if d == nil {
		return fmt.Errorf("scenecache: %s: nil transform", s.Path())
	} else {
		return fmt.Errorf("scenecache: %s: unsupported transform type %s", s.Path(), d.TypeName())
	}
	dir, err := s.dir.Subdirectory(transformEntry)
	if err != nil {
		return err
	}
	if err := s.writeSample(dir, &s.w.transformTimes, data.NewM44d(m), t); err != nil {
		return err
	}
	s.w.transforms = append(s.w.transforms, m)
	return nil
}

func (s *Scene) WriteAttribute(name string, o data.Object, t float64) error {
	if err := s.writable(); err != nil {
		return err
	}
	if o == nil {
		return fmt.Errorf("scenecache: %s: nil attribute %q", s.Path(), name)
	}
	ad, err := s.dir.Subdirectory(attributesEntry)
	if err != nil {
		return err
	}
	d, err := ad.Subdirectory(name)
	if err != nil {
		return err
	}
	times := s.w.attributeTimes[name]
	if err := s.writeSample(d, &times, o, t); err != nil {
		return err
	}
	s.w.attributeTimes[name] = times
	return nil
}

func (s *Scene) WriteTags(tags []string) error {
	if err := s.writable(); err != nil {
		return err
	}
	for _, t := range tags {
		s.w.tags[t] = true
	}
	return nil
}

func (s *Scene) WriteObject(o data.Object, t float64) error {
	if err := s.writable(); err != nil {
		return err
	}
	if s.isRoot() {
		return fmt.Errorf("%w: the root location cannot hold an object", scene.ErrUnsupported)
	}
	if o == nil {
		return fmt.Errorf("scenecache: %s: nil object", s.Path())
	}
	d, err := s.dir.Subdirectory(objectEntry)
	if err != nil {
		return err
	}
	if err := s.writeSample(d, &s.w.objectTimes, o, t); err != nil {
		return err
	}
	if b, ok := o.(prim.Bounded); ok {
		s.w.objectBoundTimes = append(s.w.objectBoundTimes, t)
		s.w.objectBounds = append(s.w.objectBounds, b.Bound().Box3d())
	}
	return nil
}

////////  Flushing

func boxAt(times []float64, boxes []geom.Box3d, t float64) geom.Box3d {
	x, floor, ceil := scene.SampleInterval(times, t)
	if floor == ceil {
		return boxes[floor]
	}
	return geom.LerpBox3d(boxes[floor], boxes[ceil], x)
}

func matrixAt(times []float64, ms []mgl64.Mat4, t float64) mgl64.Mat4 {
	if len(times) == 0 {
		return mgl64.Ident4()
	}
	x, floor, ceil := scene.SampleInterval(times, t)
	if floor == ceil {
		return ms[floor]
	}
	return geom.InterpolateMat4d(ms[floor], ms[ceil], x)
}

// implicitBound computes the bound of the location from the bound of
// its object and the transformed bounds of its children, sampled at
// the union of all the times involved.
func (s *Scene) implicitBound() {
	w := s.w
	times := slices.Clone(w.objectBoundTimes)
	var bounded []*writer
	for _, kv := range w.children.Order {
		c := kv.Value.w
		if len(c.boundTimes) == 0 {
			continue
		}
		bounded = append(bounded, c)
		times = append(times, c.boundTimes...)
		times = append(times, c.transformTimes...)
	}
	slices.Sort(times)
	times = slices.Compact(times)
	for _, t := range times {
		b := geom.B3dEmpty()
		if len(w.objectBoundTimes) > 0 {
			b.ExpandByBox(boxAt(w.objectBoundTimes, w.objectBounds, t))
		}
		for _, c := range bounded {
			cb := boxAt(c.boundTimes, c.bounds, t)
			b.ExpandByBox(cb.MulMatrix4(matrixAt(c.transformTimes, c.transforms, t)))
		}
		w.boundTimes = append(w.boundTimes, t)
		w.bounds = append(w.bounds, b)
	}
}

func writeTimes(d *indexedio.Directory, times []float64) error {
	if d == nil || len(times) == 0 {
		return nil
	}
	return d.Write(timesEntry, data.NewVector(slices.Clone(times)))
}

func writeTagSet(d *indexedio.Directory, name string, set map[string]bool) error {
	if len(set) == 0 {
		return nil
	}
	return d.Write(name, data.NewStrings(sortedSet(set)...))
}

// flush writes the derived channels of the location and all of its
// descendants, children first.
func (s *Scene) flush() error {
	w := s.w
	for _, kv := range w.children.Order {
		c := kv.Value
		if err := c.flush(); err != nil {
			return err
		}
		maps.Copy(w.descendantTags, c.w.tags)
		maps.Copy(w.descendantTags, c.w.descendantTags)
	}
	if !w.explicitBound {
		s.implicitBound()
		if len(w.boundTimes) > 0 {
			d, err := s.dir.Subdirectory(boundEntry)
			if err != nil {
				return err
			}
			for i, b := range w.bounds {
				if err := d.Write(sampleName(i), data.NewSimple(b)); err != nil {
					return err
				}
			}
		}
	}
	if err := writeTimes(s.dir.Child(boundEntry), w.boundTimes); err != nil {
		return err
	}
	if err := writeTimes(s.dir.Child(transformEntry), w.transformTimes); err != nil {
		return err
	}
	if err := writeTimes(s.dir.Child(objectEntry), w.objectTimes); err != nil {
		return err
	}
	for name, times := range w.attributeTimes {
		if err := writeTimes(s.channelDir(scene.Channel{Kind: scene.AttributeChannel, Attribute: name}), times); err != nil {
			return err
		}
	}
	if err := writeTagSet(s.dir, tagsEntry, w.tags); err != nil {
		return err
	}
	return writeTagSet(s.dir, descendantTagsEntry, w.descendantTags)
}
