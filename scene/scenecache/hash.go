// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scenecache

import (
	"bytes"
	"fmt"
	"slices"

	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/indexedio"
	"cogentcore.org/cortex/scene"
)

// Hash returns a hash of the given aspect of the location at time t.
// Hashes are computed from the stored sample bytes, so locations that
// hold identical samples at time t hash identically, and a location
// whose samples do not vary hashes the same at every time.
func (s *Scene) Hash(ht scene.HashType, t float64) (murmur.Hash, error) {
	if err := s.readable("hashes"); err != nil {
		return murmur.Hash{}, err
	}
	var h murmur.Hash
	h.AppendInt(int(ht))
	if err := s.appendHash(&h, ht, t); err != nil {
		return murmur.Hash{}, err
	}
	return h, nil
}

func (s *Scene) appendHash(h *murmur.Hash, ht scene.HashType, t float64) error {
	h.AppendString(s.Path().String())
	switch ht {
	case scene.TransformHash:
		return hashChannel(h, s.dir.Child(transformEntry), t)
	case scene.BoundHash:
		return hashChannel(h, s.dir.Child(boundEntry), t)
	case scene.ObjectHash:
		return hashChannel(h, s.dir.Child(objectEntry), t)
	case scene.AttributesHash:
		names := slices.Sorted(slices.Values(s.AttributeNames()))
		for _, name := range names {
			h.AppendString(name)
			d := s.channelDir(scene.Channel{Kind: scene.AttributeChannel, Attribute: name})
			if err := hashChannel(h, d, t); err != nil {
				return err
			}
		}
	case scene.ChildNamesHash:
		for _, name := range s.ChildNames() {
			h.AppendString(name)
		}
	case scene.HierarchyHash:
		for _, sub := range scene.HashTypes {
			if sub == scene.HierarchyHash {
				continue
			}
			h.AppendInt(int(sub))
			if err := s.appendHash(h, sub, t); err != nil {
				return err
			}
		}
		for _, name := range s.ChildNames() {
			if err := s.child(name).appendHash(h, scene.HierarchyHash, t); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: hash type %v", scene.ErrUnsupported, ht)
	}
	return nil
}

// hashChannel appends the samples bracketing t, and the position of t
// between them when they differ.
func hashChannel(h *murmur.Hash, d *indexedio.Directory, t float64) error {
	times, err := sampleTimes(d)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		h.AppendBool(false)
		return nil
	}
	h.AppendBool(true)
	x, floor, ceil := scene.SampleInterval(times, t)
	a, ok := d.ReadRaw(sampleName(floor))
	if !ok {
		return fmt.Errorf("scenecache: %s: %w: missing sample %d", d, indexedio.ErrFormat, floor)
	}
	if floor == ceil {
		h.Append(a)
		return nil
	}
	b, ok := d.ReadRaw(sampleName(ceil))
	if !ok {
		return fmt.Errorf("scenecache: %s: %w: missing sample %d", d, indexedio.ErrFormat, ceil)
	}
	if bytes.Equal(a, b) {
		h.Append(a)
		return nil
	}
	h.Append(a).Append(b).AppendFloat64(x)
	return nil
}
