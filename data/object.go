// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package data

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/cortex/base/murmur"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Object{}
)

// Register registers a factory for the given object type name, so
// that serialized objects of that type can be decoded with
// [UnmarshalObject]. It is typically called from init functions.
func Register(typeName string, factory func() Object) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typeName] = factory
}

// NewObject returns a new zero object of the given registered type name.
func NewObject(typeName string) (Object, error) {
	registryMu.RLock()
	fn, ok := registry[typeName]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("data: object type %q is not registered", typeName)
	}
	return fn(), nil
}

// RegisteredTypes returns the sorted names of all registered object types.
func RegisteredTypes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// MarshalObject serializes an object prefixed with its type name.
func MarshalObject(o Object) ([]byte, error) {
	if o == nil {
		return nil, errors.New("data.MarshalObject: nil object")
	}
	b, err := o.MarshalBinary()
	if err != nil {
		return nil, err
	}
	e := &Encoder{}
	e.Text(o.TypeName())
	e.buf = append(e.buf, b...)
	return e.Bytes(), nil
}

// UnmarshalObject decodes an object serialized with [MarshalObject].
func UnmarshalObject(b []byte) (Object, error) {
	d := NewDecoder(b)
	name := d.Text()
	if d.Err() != nil {
		return nil, fmt.Errorf("data.UnmarshalObject: %w", d.Err())
	}
	o, err := NewObject(name)
	if err != nil {
		return nil, err
	}
	if err := o.UnmarshalBinary(d.buf); err != nil {
		return nil, fmt.Errorf("data.UnmarshalObject: %s: %w", name, err)
	}
	return o, nil
}

// HashOf returns the structural hash of an object.
func HashOf(o Object) murmur.Hash {
	var h murmur.Hash
	if o != nil {
		o.Hash(&h)
	}
	return h
}

// Equal returns whether two objects have the same type and
// bit-identical contents.
func Equal(a, b Object) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.TypeName() != b.TypeName() {
		return false
	}
	ab, err := a.MarshalBinary()
	if errors.Log(err) != nil {
		return false
	}
	bb, err := b.MarshalBinary()
	if errors.Log(err) != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// HashBinary appends the type name and serialized contents of o to h.
// Object implementations whose serialization is deterministic use it
// to implement [Object.Hash].
func HashBinary(h *murmur.Hash, o Object) {
	h.AppendString(o.TypeName())
	b, err := o.MarshalBinary()
	if errors.Log(err) != nil {
		return
	}
	h.Append(b)
}
