// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scene defines [Interface], the protocol for path-addressed,
// time-sampled and hashable access to a scene hierarchy, along with
// the registry of file formats implementing it and the shared
// registry of open scenes.
package scene

import (
	"fmt"
	"strings"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/geom"
	"cogentcore.org/cortex/indexedio"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrNotFound is returned for a missing location, object or attribute.
	ErrNotFound = errors.New("scene: not found")

	// ErrReadOnly is returned for writes to a scene opened for reading.
	ErrReadOnly = errors.New("scene: scene is read-only")

	// ErrUnsupported is returned for modes and operations a scene
	// does not support.
	ErrUnsupported = errors.New("scene: unsupported")

	// ErrFlushed is returned for writes after the root of the scene
	// was closed.
	ErrFlushed = errors.New("scene: scene has been flushed")
)

// Mode is the mode a scene file is opened in.
type Mode = indexedio.Mode

const (
	Read   = indexedio.Read
	Write  = indexedio.Write
	Append = indexedio.Append
)

// MissingBehaviour is the policy for a child that does not exist.
type MissingBehaviour int32

const (
	// ThrowIfMissing returns an [ErrNotFound] error.
	ThrowIfMissing MissingBehaviour = iota

	// NullIfMissing returns nil without error.
	NullIfMissing

	// CreateIfMissing creates the child; it is only valid in write mode.
	CreateIfMissing
)

// HashType selects what [Interface.Hash] covers.
type HashType int32

const (
	TransformHash HashType = iota
	AttributesHash
	BoundHash
	ObjectHash
	ChildNamesHash

	// HierarchyHash covers everything at the location and below it.
	HierarchyHash
)

// HashTypes are all hash types, in order.
var HashTypes = []HashType{TransformHash, AttributesHash, BoundHash, ObjectHash, ChildNamesHash, HierarchyHash}

var hashTypeNames = [...]string{"TransformHash", "AttributesHash", "BoundHash", "ObjectHash", "ChildNamesHash", "HierarchyHash"}

func (h HashType) String() string {
	if h < 0 || int(h) >= len(hashTypeNames) {
		return fmt.Sprintf("HashType(%d)", int32(h))
	}
	return hashTypeNames[h]
}

// TagFilter selects which tags are read, as a bit mask.
type TagFilter int32

const (
	DescendantTag TagFilter = 1
	LocalTag      TagFilter = 2
	AncestorTag   TagFilter = 4
	EveryTag      TagFilter = DescendantTag | LocalTag | AncestorTag
)

// RootName is the name of the root location.
const RootName = "/"

// Path is the sequence of names from the root to a location.
// The root has an empty path.
type Path []string

// String returns the path joined by slashes, "/" for the root.
func (p Path) String() string {
	return "/" + strings.Join(p, "/")
}

// ParsePath parses a slash-separated path, ignoring empty names.
func ParsePath(s string) Path {
	p := Path{}
	for _, n := range strings.Split(s, "/") {
		if n != "" {
			p = append(p, n)
		}
	}
	return p
}

// Interface is a location in a hierarchical scene. Read-mode scenes
// may be used from any number of goroutines; write-mode scenes are
// used from a single goroutine.
//
// Times are in seconds. Channels are interpolated between their
// samples; reading before the first or after the last sample returns
// that sample.
type Interface interface {
	// FileName returns the name of the file the scene was opened from.
	FileName() string

	// Name returns the name of the location; [RootName] for the root.
	Name() string

	// Path returns the path of the location.
	Path() Path

	// ReadBound returns the bound of the location and everything below
	// it, in the location's local space. A location without a bound
	// returns an empty box.
	ReadBound(time float64) (geom.Box3d, error)
	WriteBound(b geom.Box3d, time float64) error

	// ReadTransform returns the transform relative to the parent as
	// data; a location without a transform returns the identity.
	ReadTransform(time float64) (data.Data, error)
	ReadTransformAsMatrix(time float64) (mgl64.Mat4, error)
	WriteTransform(d data.Data, time float64) error

	HasAttribute(name string) bool
	AttributeNames() []string
	ReadAttribute(name string, time float64) (data.Object, error)
	WriteAttribute(name string, o data.Object, time float64) error

	// HasTag returns whether the tag is present for the filter.
	HasTag(name string, filter TagFilter) bool

	// ReadTags returns the sorted tags selected by the filter.
	ReadTags(filter TagFilter) ([]string, error)

	// WriteTags adds local tags.
	WriteTags(tags []string) error

	HasObject() bool
	ReadObject(time float64) (data.Object, error)
	WriteObject(o data.Object, time float64) error

	ChildNames() []string
	HasChild(name string) bool

	// Child returns the named child according to the missing behaviour.
	Child(name string, missing MissingBehaviour) (Interface, error)

	// CreateChild creates a new child; it is an error if it exists.
	CreateChild(name string) (Interface, error)

	// Scene returns the location at the absolute path.
	Scene(path Path, missing MissingBehaviour) (Interface, error)

	// Hash returns a hash of the given aspect of the location at the
	// given time. Unchanging aspects hash the same at every time.
	Hash(ht HashType, time float64) (murmur.Hash, error)

	// Close closes the scene. Closing the root of a write-mode scene
	// writes it out; all locations become unusable for writing.
	Close() error
}

// ChannelKind is a kind of time-sampled channel.
type ChannelKind int32

const (
	BoundChannel ChannelKind = iota
	TransformChannel
	ObjectChannel
	AttributeChannel
)

// Channel identifies a time-sampled channel of a location.
type Channel struct {
	Kind ChannelKind

	// Attribute is the attribute name of an [AttributeChannel].
	Attribute string
}

// Sampled is implemented by scenes that give access to the stored
// samples of their channels.
type Sampled interface {
	Interface

	// SampleTimes returns the sorted times of the channel's samples.
	SampleTimes(ch Channel) ([]float64, error)

	// ReadAtSample returns the sample with the given index.
	ReadAtSample(ch Channel, index int) (data.Object, error)
}
