// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package capture provides a [render.Backend] that captures the
// scene it is given as a [prim.Group] hierarchy. It is the reference
// back end: it expands procedurals, on several goroutines when they
// are reentrant, and instances repeated content automatically.
package capture

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"cogentcore.org/cortex/data"
	"cogentcore.org/cortex/prim"
	"cogentcore.org/cortex/render"
	"cogentcore.org/cortex/settings"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// ObjectFilterOption is a string vector option of glob patterns.
	// When set, only geometry whose name attribute matches a pattern
	// is captured, and only procedurals whose name matches a pattern
	// or is an ancestor of a possible match are expanded.
	ObjectFilterOption = "cp:objectFilter"

	// ReentrantAttribute is a bool attribute selecting whether
	// procedurals may be expanded concurrently.
	ReentrantAttribute = "cp:procedural:reentrant"

	// AutomaticInstancingAttribute is a bool attribute selecting
	// whether identical geometry and procedurals are captured once
	// and referenced thereafter.
	AutomaticInstancingAttribute = "cp:automaticInstancing"

	// NameAttribute is the attribute naming objects.
	NameAttribute = "name"

	// ClearInstanceCacheCommand empties the automatic instancing cache.
	ClearInstanceCacheCommand = "cp:clearInstanceCache"
)

// Backend captures a scene as a [prim.Group] hierarchy. Attribute
// blocks become groups, and every primitive is wrapped in a group
// holding its transform relative to the enclosing procedural or
// instance.
type Backend struct {
	mu        sync.Mutex
	world     *prim.Group
	instances map[string]*prim.Group
	filter    *filter

	autoInstancing bool
	reentrant      bool

	geometry    render.InstanceCache[data.Object]
	procedurals render.InstanceCache[*prim.Group]

	stats struct {
		geometry, references atomic.Int64
	}
}

// node is the [render.State.Handle] of a captured block.
type node struct {
	group *prim.Group

	// inv maps world space to the space of group.
	inv mgl32.Mat4

	// shaders is the number of shaders inherited by the block.
	shaders int
}

// New returns a new capturing back end.
func New() *Backend {
	return &Backend{}
}

// NewRenderer returns a [render.Context] capturing into a new [Backend].
func NewRenderer() (*render.Context, *Backend) {
	b := New()
	return render.New(b), b
}

// World returns the captured world. It is complete once WorldEnd
// has returned.
func (b *Backend) World() *prim.Group {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.world
}

// InstanceStats returns the number of distinct geometry objects
// captured, and the number of references made to them.
func (b *Backend) InstanceStats() (unique, references int) {
	return int(b.stats.geometry.Load()), int(b.stats.references.Load())
}

func nodeOf(st *render.State) *node {
	return st.Handle.(*node)
}

func (b *Backend) add(parent *node, o data.Object) {
	b.mu.Lock()
	defer b.mu.Unlock()
	parent.group.AddChild(o)
}

// placement returns a group placing child in n at the transform of st.
func placement(n *node, st *render.State, child data.Object) *prim.Group {
	g := prim.NewGroup()
	g.AddChild(child)
	g.Transform = n.inv.Mul4(st.Transform)
	if len(st.MotionTransforms) > 0 {
		g.MotionTimes = append([]float32(nil), st.MotionTimes...)
		for _, m := range st.MotionTransforms {
			g.MotionTransforms = append(g.MotionTransforms, n.inv.Mul4(m))
		}
		g.Transform = g.MotionTransforms[0]
	}
	return g
}

func (b *Backend) WorldBegin(opts *render.Options, world *render.State) error {
	var f *filter
	if o := opts.Option(ObjectFilterOption); o != nil {
		patterns, ok := data.ValuesOf[string](o)
		if !ok {
			return fmt.Errorf("capture: %s must be a string vector, not %s", ObjectFilterOption, o.TypeName())
		}
		var err error
		if f, err = newFilter(patterns); err != nil {
			return fmt.Errorf("capture: %s: %w", ObjectFilterOption, err)
		}
	}
	rs := settings.Get().Render
	b.mu.Lock()
	b.world = prim.NewGroup()
	b.instances = map[string]*prim.Group{}
	b.filter = f
	b.autoInstancing = rs.AutomaticInstancing
	b.reentrant = rs.ProceduralReentrant
	b.mu.Unlock()
	b.geometry.Clear()
	b.procedurals.Clear()
	b.stats.geometry.Store(0)
	b.stats.references.Store(0)
	world.Handle = &node{group: b.world, inv: mgl32.Ident4()}
	return nil
}

func (b *Backend) WorldEnd(world *render.State) error {
	b.endBlock(world)
	unique, refs := b.InstanceStats()
	slog.Debug("capture: world captured", "geometry", unique, "references", refs)
	return nil
}

func (b *Backend) BlockBegin(parent, block *render.State) error {
	pn := nodeOf(parent)
	n := &node{group: prim.NewGroup(), inv: pn.inv, shaders: len(parent.Shaders)}
	if block.Kind == render.ProceduralBlock {
		// The contents of a procedural are captured in its own space
		// so that they can be shared by other placements.
		b.add(pn, placement(pn, block, n.group))
		n.inv = block.Transform.Inv()
	} else {
		b.add(pn, n.group)
	}
	block.Handle = n
	return nil
}

func (b *Backend) BlockEnd(block *render.State) error {
	b.endBlock(block)
	return nil
}

// endBlock records the attributes and shaders declared in block.
func (b *Backend) endBlock(block *render.State) {
	n := nodeOf(block)
	attrs := block.LocalAttributes()
	b.mu.Lock()
	defer b.mu.Unlock()
	n.group.Attributes = attrs
	for _, name := range attrs.Names() {
		if strings.HasPrefix(name, "cp:") && !known[name] {
			slog.Warn("capture: unknown attribute", "name", name)
		}
	}
	for _, s := range block.Shaders[min(n.shaders, len(block.Shaders)):] {
		n.group.State = append(n.group.State, s)
	}
}

var known = map[string]bool{
	ReentrantAttribute:           true,
	AutomaticInstancingAttribute: true,
}

func (b *Backend) automaticInstancing(st *render.State) bool {
	return st.Bool(AutomaticInstancingAttribute, b.autoInstancing)
}

func (b *Backend) Geometry(st *render.State, o data.Object) error {
	if !b.filter.match(st.String(NameAttribute)) {
		return nil
	}
	o = o.Clone()
	if b.automaticInstancing(st) {
		shared, created, err := b.geometry.Get(data.HashOf(o), func() (data.Object, error) {
			return o, nil
		})
		if err != nil {
			return err
		}
		if created {
			b.stats.geometry.Add(1)
		}
		o = shared
	} else {
		b.stats.geometry.Add(1)
	}
	b.stats.references.Add(1)
	n := nodeOf(st)
	b.add(n, placement(n, st, o))
	return nil
}

func (b *Backend) Procedural(st *render.State, p render.Procedural, expand render.Expand) error {
	if !b.filter.matchOrAbove(st.String(NameAttribute)) {
		return nil
	}
	threaded := st.Bool(ReentrantAttribute, b.reentrant)
	h := p.Hash()
	if !b.automaticInstancing(st) || h.IsZero() {
		_, err := expand(threaded)
		return err
	}
	g, created, err := b.procedurals.Get(h, func() (*prim.Group, error) {
		pst, err := expand(threaded)
		if pst == nil {
			return nil, err
		}
		return nodeOf(pst).group, err
	})
	if err != nil || created {
		return err
	}
	n := nodeOf(st)
	b.add(n, placement(n, st, g))
	return nil
}

func (b *Backend) Light(st *render.State, l *prim.Light) error {
	n := nodeOf(st)
	b.mu.Lock()
	defer b.mu.Unlock()
	n.group.State = append(n.group.State, l)
	return nil
}

func (b *Backend) InstanceBegin(st *render.State, name string, params *data.Compound) error {
	st.Handle = &node{group: prim.NewGroup(), inv: mgl32.Ident4(), shaders: len(st.Shaders)}
	return nil
}

func (b *Backend) InstanceEnd(st *render.State, name string) error {
	b.endBlock(st)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.instances[name] = nodeOf(st).group
	return nil
}

func (b *Backend) Instance(st *render.State, name string) error {
	b.mu.Lock()
	g, ok := b.instances[name]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("capture: unknown instance %q", name)
	}
	n := nodeOf(st)
	b.add(n, placement(n, st, g))
	return nil
}

func (b *Backend) Command(st *render.State, name string, params *data.Compound) (data.Data, error) {
	switch name {
	case ClearInstanceCacheCommand:
		b.geometry.Clear()
		b.procedurals.Clear()
		return nil, nil
	}
	return nil, fmt.Errorf("capture: unknown command %q", name)
}
