// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"cogentcore.org/cortex/settings"
	"golang.org/x/sync/errgroup"
)

// ReadFlags selects what [ParallelReadAll] reads, as a bit mask.
type ReadFlags uint32

const (
	ReadBounds ReadFlags = 1 << iota
	ReadTransforms
	ReadAttributes
	ReadObjects
	ReadTags
	ReadHashes

	ReadEverything = ReadBounds | ReadTransforms | ReadAttributes | ReadObjects | ReadTags | ReadHashes
)

// ReadAllOptions configure [ParallelReadAll].
type ReadAllOptions struct {
	// StartFrame and EndFrame are the inclusive range of frames read.
	StartFrame, EndFrame int

	// FrameRate converts frames to times; it defaults to 24.
	FrameRate float64

	// Flags selects what is read at every location and frame.
	Flags ReadFlags

	// Threads is the maximum number of goroutines; it defaults to the
	// scene read threads setting.
	Threads int

	// Budget is a soft time limit. Once it is exceeded the locations
	// not yet started are skipped. Zero means no limit.
	Budget time.Duration
}

// ReadStats are the counts of what [ParallelReadAll] read.
type ReadStats struct {
	Locations  int64
	Bounds     int64
	Transforms int64
	Attributes int64
	Objects    int64
	Tags       int64
	Hashes     int64

	// Skipped is set when the budget ran out before every location was read.
	Skipped bool
}

type readCounters struct {
	locations, bounds, transforms, attributes, objects, tags, hashes atomic.Int64
	skipped                                                         atomic.Bool
}

func (c *readCounters) stats() ReadStats {
	return ReadStats{
		Locations:  c.locations.Load(),
		Bounds:     c.bounds.Load(),
		Transforms: c.transforms.Load(),
		Attributes: c.attributes.Load(),
		Objects:    c.objects.Load(),
		Tags:       c.tags.Load(),
		Hashes:     c.hashes.Load(),
		Skipped:    c.skipped.Load(),
	}
}

// ParallelReadAll reads the whole hierarchy below s for every frame
// in the range, reading sibling locations concurrently. It returns
// ctx.Err() when ctx is canceled.
func ParallelReadAll(ctx context.Context, s Interface, opts ReadAllOptions) (ReadStats, error) {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 24
	}
	if opts.Threads <= 0 {
		opts.Threads = max(settings.Get().Scene.ReadThreads, 1)
	}
	var deadline time.Time
	if opts.Budget > 0 {
		deadline = time.Now().Add(opts.Budget)
	}
	times := make([]float64, 0, max(opts.EndFrame-opts.StartFrame+1, 0))
	for f := opts.StartFrame; f <= opts.EndFrame; f++ {
		times = append(times, float64(f)/opts.FrameRate)
	}

	c := &readCounters{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Threads)
	r := &reader{ctx: gctx, g: g, opts: opts, times: times, deadline: deadline, counts: c}
	g.Go(func() error { return r.visit(s) })
	err := g.Wait()
	if cerr := ctx.Err(); cerr != nil {
		err = cerr
	}
	st := c.stats()
	if st.Skipped {
		slog.Info("scene: read budget exhausted", "budget", opts.Budget, "locations", st.Locations)
	}
	return st, err
}

type reader struct {
	ctx      context.Context
	g        *errgroup.Group
	opts     ReadAllOptions
	times    []float64
	deadline time.Time
	counts   *readCounters
}

func (r *reader) visit(s Interface) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if !r.deadline.IsZero() && time.Now().After(r.deadline) {
		r.counts.skipped.Store(true)
		return nil
	}
	if err := r.read(s); err != nil {
		return err
	}
	r.counts.locations.Add(1)
	for _, name := range s.ChildNames() {
		child, err := s.Child(name, ThrowIfMissing)
		if err != nil {
			return err
		}
		if !r.g.TryGo(func() error { return r.visit(child) }) {
			if err := r.visit(child); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *reader) read(s Interface) error {
	f := r.opts.Flags
	if f&ReadTags != 0 {
		if _, err := s.ReadTags(LocalTag); err != nil {
			return err
		}
		r.counts.tags.Add(1)
	}
	attrs := s.AttributeNames()
	hasObject := s.HasObject()
	for _, t := range r.times {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		if f&ReadBounds != 0 {
			if _, err := s.ReadBound(t); err != nil {
				return err
			}
			r.counts.bounds.Add(1)
		}
		if f&ReadTransforms != 0 {
			if _, err := s.ReadTransform(t); err != nil {
				return err
			}
			r.counts.transforms.Add(1)
		}
		if f&ReadAttributes != 0 {
			for _, a := range attrs {
				if _, err := s.ReadAttribute(a, t); err != nil {
					return err
				}
				r.counts.attributes.Add(1)
			}
		}
		if f&ReadObjects != 0 && hasObject {
			if _, err := s.ReadObject(t); err != nil {
				return err
			}
			r.counts.objects.Add(1)
		}
		if f&ReadHashes != 0 {
			for _, ht := range HashTypes[:HierarchyHash] {
				if _, err := s.Hash(ht, t); err != nil {
					return err
				}
				r.counts.hashes.Add(1)
			}
		}
	}
	return nil
}
