// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"sync"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/cortex/base/murmur"
)

var errPanicked = errors.New("render: instance creation panicked")

// InstanceCache maps content hashes to back end objects so that
// content seen more than once is created once and referenced
// thereafter. It is safe for concurrent use; concurrent lookups of a
// hash that is being created wait for the creation to finish.
type InstanceCache[V any] struct {
	mu      sync.Mutex
	entries map[murmur.Hash]*instanceEntry[V]
}

type instanceEntry[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// Get returns the value for h, calling create if h has not been seen
// before. created reports whether this call created the value. A
// failed creation is not cached.
func (ic *InstanceCache[V]) Get(h murmur.Hash, create func() (V, error)) (value V, created bool, err error) {
	ic.mu.Lock()
	if e, ok := ic.entries[h]; ok {
		ic.mu.Unlock()
		<-e.done
		return e.value, false, e.err
	}
	if ic.entries == nil {
		ic.entries = map[murmur.Hash]*instanceEntry[V]{}
	}
	e := &instanceEntry[V]{done: make(chan struct{})}
	ic.entries[h] = e
	ic.mu.Unlock()

	defer close(e.done)
	defer func() {
		if e.err != nil {
			ic.mu.Lock()
			delete(ic.entries, h)
			ic.mu.Unlock()
		}
	}()
	e.err = errPanicked
	e.value, e.err = create()
	return e.value, true, e.err
}

// Len returns the number of cached values.
func (ic *InstanceCache[V]) Len() int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return len(ic.entries)
}

// Clear removes all cached values.
func (ic *InstanceCache[V]) Clear() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	clear(ic.entries)
}
