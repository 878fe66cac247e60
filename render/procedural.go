// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/geom"
)

// Procedural generates geometry on demand. The back end decides when
// and whether to call Render, and on which goroutine.
type Procedural interface {
	// Bound returns the bound of everything Render will produce, in
	// the space the procedural is declared in. [NoBound] means the
	// procedural must always be expanded.
	Bound() geom.Box3f

	// Render describes the procedural's contents to r.
	Render(r Renderer) error

	// Hash identifies the procedural's output. Two procedurals with
	// equal non-zero hashes produce the same contents and may be
	// instanced. A zero hash disables instancing.
	Hash() murmur.Hash
}

// NoBound is the bound of a procedural whose extent is unknown.
var NoBound = geom.B3fEmpty()

// Func is a [Procedural] implemented by a function.
type Func struct {
	Box geom.Box3f
	Key murmur.Hash
	Fn  func(r Renderer) error
}

func (f *Func) Bound() geom.Box3f       { return f.Box }
func (f *Func) Render(r Renderer) error { return f.Fn(r) }
func (f *Func) Hash() murmur.Hash       { return f.Key }

func (c *Context) Procedural(p Procedural) error {
	if err := c.inWorld("procedural"); err != nil {
		return err
	}
	if err := c.notInMotion("procedural"); err != nil {
		return err
	}
	parent := c.top()
	return c.core.backend.Procedural(parent, p, c.expander(parent, p))
}

// expander returns the [Expand] function for p declared in parent.
// Each expansion gets its own [Context] sharing c's core, so that the
// procedural's block nesting is validated independently of its
// siblings.
func (c *Context) expander(parent *State, p Procedural) Expand {
	return func(threaded bool) (*State, error) {
		st := parent.derive(ProceduralBlock)
		if err := c.core.backend.BlockBegin(parent, st); err != nil {
			return nil, err
		}
		pc := &Context{core: c.core, stack: []*State{st}, procedural: true}
		if threaded && c.core.procs.TryGo(func() error {
			c.core.report(pc.run(p))
			return nil
		}) {
			return st, nil
		}
		return st, pc.run(p)
	}
}

// run renders p into the procedural context pc, converting panics
// into errors and checking that all blocks opened were closed.
func (pc *Context) run(p Procedural) (err error) {
	root := pc.stack[0]
	defer func() {
		if r := recover(); r != nil {
			slog.Error("render: procedural panicked", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("render: procedural panicked: %v", r)
		}
		if berr := pc.core.backend.BlockEnd(root); berr != nil && err == nil {
			err = berr
		}
	}()
	if err := p.Render(pc); err != nil {
		return err
	}
	if pc.motion != nil {
		return fmt.Errorf("%w: procedural returned inside motionBegin", ErrMotion)
	}
	if len(pc.stack) != 1 {
		return fmt.Errorf("%w: procedural returned with %d unclosed blocks at %s", ErrNesting, len(pc.stack)-1, pc.position())
	}
	return nil
}
