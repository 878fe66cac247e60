// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scenecache implements [scene.Interface] for .scc scene
// cache files, stored as [indexedio] files.
package scenecache

import (
	"fmt"
	"strconv"
	"strings"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/geom"
	"cogentcore.org/cortex/indexedio"
	"cogentcore.org/cortex/prim"
	"cogentcore.org/cortex/scene"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hack-pad/hackpadfs"
)

// Extension is the file extension of scene cache files.
const Extension = ".scc"

const formatName = "SceneCache"

// Entry and directory names within a location.
const (
	headerEntry         = "header"
	boundEntry          = "bound"
	transformEntry      = "transform"
	objectEntry         = "object"
	attributesEntry     = "attributes"
	childrenEntry       = "children"
	timesEntry          = "sampleTimes"
	tagsEntry           = "tags"
	descendantTagsEntry = "descendantTags"
)

func init() {
	scene.Register(Extension, []scene.Mode{scene.Read, scene.Write}, func(fileName string, mode scene.Mode) (scene.Interface, error) {
		return Open(fileName, mode)
	})
}

// file is the state shared by all locations of an open scene cache.
type file struct {
	io   *indexedio.File
	name string

	// flushed is set once the root of a write-mode scene is closed.
	flushed bool
}

// Scene is a location in a scene cache.
type Scene struct {
	file   *file
	dir    *indexedio.Directory
	parent *Scene
	name   string

	// w holds the samples written so far; it is nil in read mode.
	w *writer
}

var _ scene.Sampled = (*Scene)(nil)

// Open opens the named scene cache file in [scene.Read] or
// [scene.Write] mode, returning its root location.
func Open(fileName string, mode scene.Mode) (*Scene, error) {
	fsys, p, err := indexedio.OSPath(fileName)
	if err != nil {
		return nil, err
	}
	return OpenFS(fsys, p, fileName, mode)
}

// OpenFS opens the scene cache at path on fsys. fileName is the
// name reported by [Scene.FileName].
func OpenFS(fsys hackpadfs.FS, path, fileName string, mode scene.Mode) (*Scene, error) {
	switch mode {
	case scene.Read, scene.Write:
	default:
		return nil, fmt.Errorf("%w: scene caches cannot be opened in %v mode", scene.ErrUnsupported, mode)
	}
	io, err := indexedio.Open(fsys, path, mode)
	if err != nil {
		return nil, fmt.Errorf("scenecache: %w", err)
	}
	s := &Scene{file: &file{io: io, name: fileName}, dir: io.Root(), name: scene.RootName}
	root := io.Root()
	if mode == scene.Write {
		s.w = newWriter()
		hdr := data.NewCompound().
			Set("format", data.NewString(formatName)).
			Set("version", data.NewString(indexedio.Version))
		return s, root.Write(headerEntry, hdr)
	}
	o, err := root.Read(headerEntry)
	if err != nil {
		return nil, fmt.Errorf("scenecache: %s: %w: no header", fileName, indexedio.ErrFormat)
	}
	hdr, ok := o.(*data.Compound)
	if !ok {
		return nil, fmt.Errorf("scenecache: %s: %w: header is %s", fileName, indexedio.ErrFormat, o.TypeName())
	}
	if f, _ := data.ValueOf[string](hdr.Get("format")); f != formatName {
		return nil, fmt.Errorf("scenecache: %s: %w: not a scene cache", fileName, indexedio.ErrFormat)
	}
	return s, nil
}

func (s *Scene) FileName() string { return s.file.name }

func (s *Scene) Name() string { return s.name }

func (s *Scene) Path() scene.Path {
	if s.parent == nil {
		return scene.Path{}
	}
	return append(s.parent.Path(), s.name)
}

func (s *Scene) isRoot() bool { return s.parent == nil }

func (s *Scene) readable(what string) error {
	if s.w != nil {
		return fmt.Errorf("%w: reading %s of %s in write mode", scene.ErrUnsupported, what, s.Path())
	}
	return nil
}

////////  Channels

func (s *Scene) channelDir(ch scene.Channel) *indexedio.Directory {
	switch ch.Kind {
	case scene.BoundChannel:
		return s.dir.Child(boundEntry)
	case scene.TransformChannel:
		return s.dir.Child(transformEntry)
	case scene.ObjectChannel:
		return s.dir.Child(objectEntry)
	case scene.AttributeChannel:
		if ad := s.dir.Child(attributesEntry); ad != nil {
			return ad.Child(ch.Attribute)
		}
	}
	return nil
}

func sampleTimes(d *indexedio.Directory) ([]float64, error) {
	if d == nil || !d.HasEntry(timesEntry) {
		return nil, nil
	}
	o, err := d.Read(timesEntry)
	if err != nil {
		return nil, err
	}
	times, ok := data.ValuesOf[float64](o)
	if !ok {
		return nil, fmt.Errorf("scenecache: %s: %w: sample times are %s", d, indexedio.ErrFormat, o.TypeName())
	}
	return times, nil
}

func sampleName(i int) string { return strconv.Itoa(i) }

// readChannel reads the channel at time t, interpolating between
// samples where the sample types allow it. found is false when the
// channel has no samples.
func readChannel(d *indexedio.Directory, t float64) (o data.Object, found bool, err error) {
	times, err := sampleTimes(d)
	if err != nil || len(times) == 0 {
		return nil, false, err
	}
	x, floor, ceil := scene.SampleInterval(times, t)
	a, err := d.Read(sampleName(floor))
	if err != nil || floor == ceil {
		return a, err == nil, err
	}
	b, err := d.Read(sampleName(ceil))
	if err != nil {
		return nil, false, err
	}
	if v, ok := lerpObjects(a, b, x); ok {
		return v, true, nil
	}
	if x < 0.5 {
		return a, true, nil
	}
	return b, true, nil
}

func lerpObjects(a, b data.Object, x float64) (data.Object, bool) {
	if pa, ok := a.(prim.Primitive); ok {
		pb, ok := b.(prim.Primitive)
		if !ok {
			return nil, false
		}
		if p, ok := prim.Lerp(pa, pb, x); ok {
			return p, true
		}
		return nil, false
	}
	da, ok := a.(data.Data)
	if !ok {
		return nil, false
	}
	db, ok := b.(data.Data)
	if !ok {
		return nil, false
	}
	return data.Lerp(da, db, x)
}

func (s *Scene) SampleTimes(ch scene.Channel) ([]float64, error) {
	if err := s.readable("sample times"); err != nil {
		return nil, err
	}
	return sampleTimes(s.channelDir(ch))
}

func (s *Scene) ReadAtSample(ch scene.Channel, index int) (data.Object, error) {
	if err := s.readable("samples"); err != nil {
		return nil, err
	}
	d := s.channelDir(ch)
	times, err := sampleTimes(d)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(times) {
		return nil, fmt.Errorf("scenecache: %s: sample index %d out of range [0, %d)", s.Path(), index, len(times))
	}
	return d.Read(sampleName(index))
}

////////  Reading

func (s *Scene) ReadBound(t float64) (geom.Box3d, error) {
	if err := s.readable("bound"); err != nil {
		return geom.Box3d{}, err
	}
	o, found, err := readChannel(s.dir.Child(boundEntry), t)
	if err != nil || !found {
		return geom.B3dEmpty(), err
	}
	b, ok := data.ValueOf[geom.Box3d](o)
	if !ok {
		return geom.B3dEmpty(), fmt.Errorf("scenecache: %s: %w: bound is %s", s.Path(), indexedio.ErrFormat, o.TypeName())
	}
	return b, nil
}

func (s *Scene) ReadTransform(t float64) (data.Data, error) {
	m, err := s.ReadTransformAsMatrix(t)
	if err != nil {
		return nil, err
	}
	return data.NewM44d(m), nil
}

func (s *Scene) ReadTransformAsMatrix(t float64) (mgl64.Mat4, error) {
	if err := s.readable("transform"); err != nil {
		return mgl64.Ident4(), err
	}
	o, found, err := readChannel(s.dir.Child(transformEntry), t)
	if err != nil || !found {
		return mgl64.Ident4(), err
	}
	m, ok := data.ValueOf[mgl64.Mat4](o)
	if !ok {
		return mgl64.Ident4(), fmt.Errorf("scenecache: %s: %w: transform is %s", s.Path(), indexedio.ErrFormat, o.TypeName())
	}
	return m, nil
}

func (s *Scene) HasAttribute(name string) bool {
	ad := s.dir.Child(attributesEntry)
	return ad != nil && ad.Child(name) != nil
}

func (s *Scene) AttributeNames() []string {
	if ad := s.dir.Child(attributesEntry); ad != nil {
		return ad.ChildNames()
	}
	return nil
}

func (s *Scene) ReadAttribute(name string, t float64) (data.Object, error) {
	if err := s.readable("attribute " + name); err != nil {
		return nil, err
	}
	o, found, err := readChannel(s.channelDir(scene.Channel{Kind: scene.AttributeChannel, Attribute: name}), t)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, scene.NotFound("attribute", name, s.Path(), s.AttributeNames())
	}
	return o, nil
}

func (s *Scene) HasObject() bool {
	return s.dir.Child(objectEntry) != nil
}

func (s *Scene) ReadObject(t float64) (data.Object, error) {
	if err := s.readable("object"); err != nil {
		return nil, err
	}
	o, found, err := readChannel(s.dir.Child(objectEntry), t)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: no object at %s", scene.ErrNotFound, s.Path())
	}
	return o, nil
}

func readTagSet(d *indexedio.Directory, name string, set map[string]bool) error {
	if !d.HasEntry(name) {
		return nil
	}
	o, err := d.Read(name)
	if err != nil {
		return err
	}
	tags, ok := data.ValuesOf[string](o)
	if !ok {
		return fmt.Errorf("scenecache: %s: %w: tags are %s", d, indexedio.ErrFormat, o.TypeName())
	}
	for _, t := range tags {
		set[t] = true
	}
	return nil
}

func (s *Scene) ReadTags(filter scene.TagFilter) ([]string, error) {
	set := map[string]bool{}
	if s.w != nil {
		if filter != scene.LocalTag {
			return nil, fmt.Errorf("%w: only local tags can be read in write mode", scene.ErrUnsupported)
		}
		for t := range s.w.tags {
			set[t] = true
		}
		return sortedSet(set), nil
	}
	if filter&scene.LocalTag != 0 {
		if err := readTagSet(s.dir, tagsEntry, set); err != nil {
			return nil, err
		}
	}
	if filter&scene.DescendantTag != 0 {
		if err := readTagSet(s.dir, descendantTagsEntry, set); err != nil {
			return nil, err
		}
	}
	if filter&scene.AncestorTag != 0 {
		for p := s.parent; p != nil; p = p.parent {
			if err := readTagSet(p.dir, tagsEntry, set); err != nil {
				return nil, err
			}
		}
	}
	return sortedSet(set), nil
}

func (s *Scene) HasTag(name string, filter scene.TagFilter) bool {
	tags, err := s.ReadTags(filter)
	if errors.Log(err) != nil {
		return false
	}
	for _, t := range tags {
		if t == name {
			return true
		}
	}
	return false
}

////////  Hierarchy

func (s *Scene) ChildNames() []string {
	if cd := s.dir.Child(childrenEntry); cd != nil {
		return cd.ChildNames()
	}
	return nil
}

func (s *Scene) HasChild(name string) bool {
	cd := s.dir.Child(childrenEntry)
	return cd != nil && cd.Child(name) != nil
}

func (s *Scene) child(name string) *Scene {
	if s.w != nil {
		c, _ := s.w.children.ValueByKeyTry(name)
		return c
	}
	cd := s.dir.Child(childrenEntry)
	if cd == nil {
		return nil
	}
	d := cd.Child(name)
	if d == nil {
		return nil
	}
	return &Scene{file: s.file, dir: d, parent: s, name: name}
}

func (s *Scene) Child(name string, missing scene.MissingBehaviour) (scene.Interface, error) {
	if s.w != nil && missing == scene.CreateIfMissing {
		if err := s.writable(); err != nil {
			return nil, err
		}
	}
	if c := s.child(name); c != nil {
		return c, nil
	}
	switch missing {
	case scene.NullIfMissing:
		return nil, nil
	case scene.CreateIfMissing:
		return s.CreateChild(name)
	default:
		return nil, scene.NotFound("child", name, s.Path(), s.ChildNames())
	}
}

func (s *Scene) CreateChild(name string) (scene.Interface, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("scenecache: invalid child name %q", name)
	}
	if s.HasChild(name) {
		return nil, fmt.Errorf("scenecache: %s already has a child %q", s.Path(), name)
	}
	cd, err := s.dir.Subdirectory(childrenEntry)
	if err != nil {
		return nil, err
	}
	d, err := cd.CreateChild(name)
	if err != nil {
		return nil, err
	}
	c := &Scene{file: s.file, dir: d, parent: s, name: name, w: newWriter()}
	s.w.children.Add(name, c)
	return c, nil
}

func (s *Scene) Scene(path scene.Path, missing scene.MissingBehaviour) (scene.Interface, error) {
	cur := s
	for cur.parent != nil {
		cur = cur.parent
	}
	for _, name := range path {
		next, err := cur.Child(name, missing)
		if err != nil || next == nil {
			return nil, err
		}
		cur = next.(*Scene)
	}
	return cur, nil
}

// Close closes the scene when called on the root. Closing the root
// of a write-mode scene computes implicit bounds and descendant tags,
// and writes the file.
func (s *Scene) Close() error {
	if !s.isRoot() || s.file.io.Closed() {
		return nil
	}
	if s.w != nil {
		if s.file.flushed {
			return nil
		}
		s.file.flushed = true
		if err := s.flush(); err != nil {
			return err
		}
	}
	return s.file.io.Close()
}
