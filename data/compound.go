// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"fmt"
	"maps"
	"slices"

	"cogentcore.org/cortex/base/murmur"
)

// Compound is [Data] holding named members. Members are hashed,
// serialized and listed in name order.
type Compound struct {
	members map[string]Data
}

// NewCompound returns a new empty [Compound].
func NewCompound() *Compound {
	return &Compound{members: map[string]Data{}}
}

// Set sets the named member, replacing any existing one.
func (c *Compound) Set(name string, d Data) *Compound {
	if c.members == nil {
		c.members = map[string]Data{}
	}
	c.members[name] = d
	return c
}

// Get returns the named member, or nil.
func (c *Compound) Get(name string) Data {
	return c.members[name]
}

// Delete removes the named member.
func (c *Compound) Delete(name string) {
	delete(c.members, name)
}

// Len returns the number of members.
func (c *Compound) Len() int { return len(c.members) }

// Names returns the sorted member names.
func (c *Compound) Names() []string {
	return slices.Sorted(maps.Keys(c.members))
}

// Member returns the named member if it has type T.
func Member[T Data](c *Compound, name string) (T, bool) {
	var z T
	if c == nil {
		return z, false
	}
	v, ok := c.members[name].(T)
	return v, ok
}

func (c *Compound) TypeID() TypeID { return CompoundTypeID }

func (c *Compound) TypeName() string { return "CompoundData" }

func (c *Compound) Hash(h *murmur.Hash) {
	h.AppendString(c.TypeName())
	for _, n := range c.Names() {
		h.AppendString(n)
		c.members[n].Hash(h)
	}
}

// Clone returns a deep copy: every member is cloned.
func (c *Compound) Clone() Object {
	nc := NewCompound()
	for n, d := range c.members {
		nc.members[n] = d.Clone().(Data)
	}
	return nc
}

func (c *Compound) MarshalBinary() ([]byte, error) {
	e := &Encoder{}
	names := c.Names()
	e.Int(len(names))
	for _, n := range names {
		e.Text(n)
		if err := e.Object(c.members[n]); err != nil {
			return nil, fmt.Errorf("CompoundData member %q: %w", n, err)
		}
	}
	return e.Bytes(), nil
}

func (c *Compound) UnmarshalBinary(b []byte) error {
	dec := NewDecoder(b)
	n := dec.Len(16)
	c.members = make(map[string]Data, n)
	for range n {
		name := dec.Text()
		o := dec.Object()
		if dec.Err() != nil {
			return dec.Err()
		}
		d, ok := o.(Data)
		if !ok {
			return fmt.Errorf("CompoundData member %q: %s is not data", name, o.TypeName())
		}
		c.members[name] = d
	}
	return dec.Err()
}
