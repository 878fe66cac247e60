// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"slices"

	"cogentcore.org/cortex/prim"
	"github.com/go-gl/mathgl/mgl32"
)

type motionKind int32

const (
	motionUnknown motionKind = iota
	motionTransform
	motionGeometry
)

// motionBlock accumulates the samples of an open motion block.
// Exactly one transform call or one geometry call is expected per
// time, and all calls must be of the same kind.
type motionBlock struct {
	times      []float32
	kind       motionKind
	transforms []mgl32.Mat4
	prims      []prim.Primitive
}

func (mb *motionBlock) count() int {
	return len(mb.transforms) + len(mb.prims)
}

func (mb *motionBlock) accept(c *Context, kind motionKind, what string) error {
	if mb.kind != motionUnknown && mb.kind != kind {
		return fmt.Errorf("%w: %s mixed with other calls at %s", ErrMotion, what, c.position())
	}
	if mb.count() >= len(mb.times) {
		return fmt.Errorf("%w: %s beyond the %d declared samples at %s", ErrMotion, what, len(mb.times), c.position())
	}
	return nil
}

func (mb *motionBlock) addTransform(c *Context, m mgl32.Mat4) error {
	if err := mb.accept(c, motionTransform, "transform"); err != nil {
		return err
	}
	mb.kind = motionTransform
	mb.transforms = append(mb.transforms, m)
	return nil
}

func (mb *motionBlock) addPrimitive(c *Context, p prim.Primitive) error {
	if err := mb.accept(c, motionGeometry, p.TypeName()); err != nil {
		return err
	}
	if len(mb.prims) > 0 && mb.prims[0].TypeName() != p.TypeName() {
		return fmt.Errorf("%w: %s sample in a block of %s at %s", ErrMotion, p.TypeName(), mb.prims[0].TypeName(), c.position())
	}
	mb.kind = motionGeometry
	mb.prims = append(mb.prims, p)
	return nil
}

// MotionBegin opens a motion block with the given sample times, which
// must be strictly increasing. Each following transform or geometry
// call supplies the sample for the next time.
func (c *Context) MotionBegin(times []float32) error {
	if err := c.inWorld("motionBegin"); err != nil {
		return err
	}
	if c.motion != nil {
		return fmt.Errorf("%w: motionBegin inside motionBegin at %s", ErrMotion, c.position())
	}
	if len(times) == 0 {
		return fmt.Errorf("%w: motionBegin with no times", ErrMotion)
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return fmt.Errorf("%w: motion times %v are not strictly increasing", ErrMotion, times)
		}
	}
	c.motion = &motionBlock{times: slices.Clone(times)}
	return nil
}

// MotionEnd closes the motion block. If the number of samples given
// does not match the number of times, the block is discarded and an
// error is returned.
func (c *Context) MotionEnd() error {
	if err := c.inWorld("motionEnd"); err != nil {
		return err
	}
	mb := c.motion
	if mb == nil {
		return fmt.Errorf("%w: motionEnd without motionBegin at %s", ErrMotion, c.position())
	}
	c.motion = nil
	if mb.count() != len(mb.times) {
		return fmt.Errorf("%w: %d samples given for %d motion times at %s", ErrMotion, mb.count(), len(mb.times), c.position())
	}
	st := c.top()
	switch mb.kind {
	case motionTransform:
		if (mb.transforms[0].Det() < 0) != (st.Transform.Det() < 0) {
			st.flipOrientation()
		}
		st.Transform = mb.transforms[0]
		st.MotionTimes = mb.times
		st.MotionTransforms = mb.transforms
		return nil
	default:
		return c.core.backend.Geometry(st, &prim.Motion{Times: mb.times, Samples: mb.prims})
	}
}
