// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linked provides a read-only [scene.Interface] that follows
// link attributes into other scene files, so that a hierarchy can be
// assembled from many files.
//
// A link location takes its transform, bound and attributes from the
// file containing the link, and its object, children and descendants
// from the linked location. The linked files are opened through
// [scene.Shared].
package linked

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/geom"
	"cogentcore.org/cortex/scene"
	"cogentcore.org/cortex/scene/scenecache"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// LinkAttribute is the name of the attribute holding a link,
	// a compound with fileName, root and optionally time members.
	LinkAttribute = "sceneInterface:link"

	// TimeAttribute is the name of an optional double attribute at a
	// link location that remaps times into the linked scene. It takes
	// precedence over the time member of the link.
	TimeAttribute = "sceneInterface:link.time"

	// Extension is the file extension of scene cache files that are
	// read with their links expanded.
	Extension = ".lscc"
)

const (
	fileNameMember = "fileName"
	rootMember     = "root"
	timeMember     = "time"
)

func init() {
	scene.Register(Extension, []scene.Mode{scene.Read}, func(fileName string, mode scene.Mode) (scene.Interface, error) {
		return Open(fileName)
	})
}

// LinkData returns the link attribute value for a link to target,
// without time remapping.
func LinkData(target scene.Interface) *data.Compound {
	return data.NewCompound().
		Set(fileNameMember, data.NewString(target.FileName())).
		Set(rootMember, data.NewStrings(target.Path()...))
}

// WriteLink makes s a link to target, which is read at the given time
// whatever the time s is read at.
func WriteLink(s, target scene.Interface, time float64) error {
	d := LinkData(target).Set(timeMember, data.NewDouble(time))
	return s.WriteAttribute(LinkAttribute, d, 0)
}

// WriteTimeRemap adds a sample to the time remapping of the link at s:
// reading s at time reads the linked scene at linkTime. Remapped times
// are interpolated between samples.
func WriteTimeRemap(s scene.Interface, time, linkTime float64) error {
	return s.WriteAttribute(TimeAttribute, data.NewDouble(linkTime), time)
}

var _ scene.Interface = (*Scene)(nil)

// Scene is a location in a scene with expanded links.
type Scene struct {
	// main is the location in the file containing the links; inside
	// a link it is the link location.
	main scene.Interface

	// linked is the location in the linked file, or nil outside links.
	linked scene.Interface

	// depth is the length of the path of the linked root.
	depth int

	atLink bool

	// fixedTime is the link time member, used when there is no
	// [TimeAttribute] at the link location.
	fixedTime *float64

	// owned is whether Close closes main.
	owned bool
}

// Open opens the named scene file for reading with links expanded.
func Open(fileName string) (*Scene, error) {
	var main scene.Interface
	var err error
	if strings.EqualFold(filepath.Ext(fileName), Extension) {
		main, err = scenecache.Open(fileName, scene.Read)
	} else {
		main, err = scene.Create(fileName, scene.Read)
	}
	if err != nil {
		return nil, err
	}
	s := Wrap(main)
	s.owned = true
	return s, nil
}

// Wrap returns main, a scene opened for reading, with links expanded.
func Wrap(main scene.Interface) *Scene {
	return expand(main)
}

// expand returns the location main, following its link if it has one.
// Links that cannot be followed are logged and the location is
// returned as it is.
func expand(main scene.Interface) *Scene {
	s := &Scene{main: main}
	if !main.HasAttribute(LinkAttribute) {
		return s
	}
	o, err := main.ReadAttribute(LinkAttribute, 0)
	if err != nil {
		slog.Error("linked: reading link", "location", main.Path(), "err", err)
		return s
	}
	link, ok := o.(*data.Compound)
	if !ok {
		slog.Error("linked: invalid link", "location", main.Path(), "type", o.TypeName())
		return s
	}
	fileName, _ := data.ValueOf[string](link.Get(fileNameMember))
	root, _ := data.ValuesOf[string](link.Get(rootMember))
	target, err := scene.Shared().Get(fileName)
	if err != nil {
		slog.Error("linked: expanding link", "file", main.FileName(), "location", main.Path(), "err", err)
		return s
	}
	l, err := target.Scene(scene.Path(root), scene.NullIfMissing)
	if err != nil || l == nil {
		slog.Error("linked: link target not found", "file", fileName, "root", scene.Path(root), "err", err)
		return s
	}
	s.linked = l
	s.depth = len(root)
	s.atLink = true
	if t, ok := data.ValueOf[float64](link.Get(timeMember)); ok {
		s.fixedTime = &t
	}
	return s
}

func (s *Scene) inside() bool { return s.linked != nil && !s.atLink }

// linkTime returns the time in the linked scene for time t.
func (s *Scene) linkTime(t float64) (float64, error) {
	if s.main.HasAttribute(TimeAttribute) {
		o, err := s.main.ReadAttribute(TimeAttribute, t)
		if err != nil {
			return 0, err
		}
		lt, ok := data.ValueOf[float64](o)
		if !ok {
			return 0, fmt.Errorf("linked: %s: invalid time remapping %s", s.main.Path(), o.TypeName())
		}
		return lt, nil
	}
	if s.fixedTime != nil {
		return *s.fixedTime, nil
	}
	return t, nil
}

func (s *Scene) readOnly() error {
	return fmt.Errorf("%w: linked scenes are read only", scene.ErrReadOnly)
}

func (s *Scene) FileName() string { return s.main.FileName() }

func (s *Scene) Name() string {
	if s.inside() {
		return s.linked.Name()
	}
	return s.main.Name()
}

func (s *Scene) Path() scene.Path {
	p := slices.Clone(s.main.Path())
	if s.linked != nil {
		p = append(p, s.linked.Path()[s.depth:]...)
	}
	return p
}

func (s *Scene) ReadBound(t float64) (geom.Box3d, error) {
	if !s.inside() {
		return s.main.ReadBound(t)
	}
	lt, err := s.linkTime(t)
	if err != nil {
		return geom.B3dEmpty(), err
	}
	return s.linked.ReadBound(lt)
}

func (s *Scene) WriteBound(b geom.Box3d, t float64) error { return s.readOnly() }

func (s *Scene) ReadTransform(t float64) (data.Data, error) {
	if !s.inside() {
		return s.main.ReadTransform(t)
	}
	lt, err := s.linkTime(t)
	if err != nil {
		return nil, err
	}
	return s.linked.ReadTransform(lt)
}

func (s *Scene) ReadTransformAsMatrix(t float64) (mgl64.Mat4, error) {
	if !s.inside() {
		return s.main.ReadTransformAsMatrix(t)
	}
	lt, err := s.linkTime(t)
	if err != nil {
		return mgl64.Ident4(), err
	}
	return s.linked.ReadTransformAsMatrix(lt)
}

func (s *Scene) WriteTransform(d data.Data, t float64) error { return s.readOnly() }

func isLinkAttribute(name string) bool {
	return name == LinkAttribute || name == TimeAttribute
}

func (s *Scene) HasAttribute(name string) bool {
	if s.inside() {
		return s.linked.HasAttribute(name)
	}
	return !isLinkAttribute(name) && s.main.HasAttribute(name)
}

func (s *Scene) AttributeNames() []string {
	if s.inside() {
		return s.linked.AttributeNames()
	}
	return slices.DeleteFunc(slices.Clone(s.main.AttributeNames()), isLinkAttribute)
}

func (s *Scene) ReadAttribute(name string, t float64) (data.Object, error) {
	if s.inside() {
		lt, err := s.linkTime(t)
		if err != nil {
			return nil, err
		}
		return s.linked.ReadAttribute(name, lt)
	}
	if isLinkAttribute(name) {
		return nil, scene.NotFound("attribute", name, s.Path(), s.AttributeNames())
	}
	return s.main.ReadAttribute(name, t)
}

func (s *Scene) WriteAttribute(name string, o data.Object, t float64) error {
	return s.readOnly()
}

func (s *Scene) HasTag(name string, filter scene.TagFilter) bool {
	tags, err := s.ReadTags(filter)
	return err == nil && slices.Contains(tags, name)
}

func (s *Scene) ReadTags(filter scene.TagFilter) ([]string, error) {
	if s.linked == nil {
		return s.main.ReadTags(filter)
	}
	tags, err := s.linked.ReadTags(filter)
	if err != nil {
		return nil, err
	}
	// The link location contributes its own tags, which are ancestor
	// tags for the locations inside the link.
	mainFilter := filter & scene.AncestorTag
	if s.atLink {
		mainFilter |= filter & scene.LocalTag
	} else if filter&scene.AncestorTag != 0 {
		mainFilter |= scene.LocalTag
	}
	if mainFilter != 0 {
		mt, err := s.main.ReadTags(mainFilter)
		if err != nil {
			return nil, err
		}
		tags = append(tags, mt...)
	}
	slices.Sort(tags)
	return slices.Compact(tags), nil
}

func (s *Scene) WriteTags(tags []string) error { return s.readOnly() }

func (s *Scene) HasObject() bool {
	if s.linked != nil {
		return s.linked.HasObject()
	}
	return s.main.HasObject()
}

func (s *Scene) ReadObject(t float64) (data.Object, error) {
	if s.linked == nil {
		return s.main.ReadObject(t)
	}
	lt, err := s.linkTime(t)
	if err != nil {
		return nil, err
	}
	return s.linked.ReadObject(lt)
}

func (s *Scene) WriteObject(o data.Object, t float64) error { return s.readOnly() }

func (s *Scene) ChildNames() []string {
	switch {
	case s.atLink:
		names := slices.Clone(s.linked.ChildNames())
		for _, n := range s.main.ChildNames() {
			if !slices.Contains(names, n) {
				names = append(names, n)
			}
		}
		return names
	case s.linked != nil:
		return s.linked.ChildNames()
	}
	return s.main.ChildNames()
}

func (s *Scene) HasChild(name string) bool {
	return slices.Contains(s.ChildNames(), name)
}

func (s *Scene) Child(name string, missing scene.MissingBehaviour) (scene.Interface, error) {
	if missing == scene.CreateIfMissing {
		return nil, s.readOnly()
	}
	if s.linked != nil {
		c, err := s.linked.Child(name, scene.NullIfMissing)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return &Scene{main: s.main, linked: c, depth: s.depth, fixedTime: s.fixedTime}, nil
		}
		if !s.atLink {
			if missing == scene.NullIfMissing {
				return nil, nil
			}
			return nil, scene.NotFound("child", name, s.Path(), s.ChildNames())
		}
	}
	c, err := s.main.Child(name, scene.NullIfMissing)
	if err != nil {
		return nil, err
	}
	if c == nil {
		if missing == scene.NullIfMissing {
			return nil, nil
		}
		return nil, scene.NotFound("child", name, s.Path(), s.ChildNames())
	}
	return expand(c), nil
}

func (s *Scene) CreateChild(name string) (scene.Interface, error) {
	return nil, s.readOnly()
}

func (s *Scene) Scene(path scene.Path, missing scene.MissingBehaviour) (scene.Interface, error) {
	root, err := s.main.Scene(scene.Path{}, scene.ThrowIfMissing)
	if err != nil {
		return nil, err
	}
	var cur scene.Interface = expand(root)
	for _, name := range path {
		next, err := cur.Child(name, missing)
		if err != nil || next == nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// Hash hashes the location as seen through its links. Locations
// inside links hash as their linked locations, so that every link to
// the same content hashes identically.
func (s *Scene) Hash(ht scene.HashType, t float64) (murmur.Hash, error) {
	if s.linked == nil {
		return s.main.Hash(ht, t)
	}
	lt, err := s.linkTime(t)
	if err != nil {
		return murmur.Hash{}, err
	}
	if s.inside() {
		return s.linked.Hash(ht, lt)
	}
	switch ht {
	case scene.TransformHash, scene.BoundHash:
		return s.main.Hash(ht, t)
	case scene.ObjectHash:
		return s.linked.Hash(ht, lt)
	}
	mh, err := s.main.Hash(ht, t)
	if err != nil {
		return murmur.Hash{}, err
	}
	lh, err := s.linked.Hash(ht, lt)
	if err != nil {
		return murmur.Hash{}, err
	}
	var h murmur.Hash
	h.AppendHash(mh).AppendHash(lh)
	return h, nil
}

// Close closes the main scene if it was opened by [Open]. Linked
// files stay open in the shared registry.
func (s *Scene) Close() error {
	if !s.owned {
		return nil
	}
	return s.main.Close()
}
