// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package indexedio

import (
	"fmt"
	"strings"

	"cogentcore.org/core/base/ordmap"
	"cogentcore.org/cortex/data"
)

// Directory is a node of an indexed file: an ordered set of named
// entries holding serialized [data.Object]s, and an ordered set of
// named child directories.
type Directory struct {
	file     *File
	name     string
	parent   *Directory
	entries  ordmap.Map[string, []byte]
	children ordmap.Map[string, *Directory]
}

// Name returns the name of the directory; the root has an empty name.
func (d *Directory) Name() string { return d.name }

// Parent returns the parent directory, or nil for the root.
func (d *Directory) Parent() *Directory { return d.parent }

// File returns the file the directory belongs to.
func (d *Directory) File() *File { return d.file }

// Path returns the names of the directories from the root to d.
func (d *Directory) Path() []string {
	if d.parent == nil {
		return []string{}
	}
	return append(d.parent.Path(), d.name)
}

// String returns the path of the directory separated by slashes.
func (d *Directory) String() string {
	return "/" + strings.Join(d.Path(), "/")
}

// Child returns the named child directory, or nil.
func (d *Directory) Child(name string) *Directory {
	d.file.mu.RLock()
	defer d.file.mu.RUnlock()
	c, _ := d.children.ValueByKeyTry(name)
	return c
}

// ChildNames returns the names of the child directories in the order
// they were created.
func (d *Directory) ChildNames() []string {
	d.file.mu.RLock()
	defer d.file.mu.RUnlock()
	return d.children.Keys()
}

// CreateChild creates a new child directory. It is an error if the
// child already exists.
func (d *Directory) CreateChild(name string) (*Directory, error) {
	d.file.mu.Lock()
	defer d.file.mu.Unlock()
	if err := d.file.writable(); err != nil {
		return nil, err
	}
	if err := validName(name); err != nil {
		return nil, err
	}
	if d.children.IndexByKey(name) >= 0 {
		return nil, fmt.Errorf("indexedio: %s: child %q already exists", d, name)
	}
	c := &Directory{file: d.file, name: name, parent: d}
	d.children.Add(name, c)
	return c, nil
}

// Subdirectory returns the named child directory, creating it if it
// does not exist and the file is writable.
func (d *Directory) Subdirectory(name string) (*Directory, error) {
	if c := d.Child(name); c != nil {
		return c, nil
	}
	return d.CreateChild(name)
}

// HasEntry returns whether the named entry exists.
func (d *Directory) HasEntry(name string) bool {
	d.file.mu.RLock()
	defer d.file.mu.RUnlock()
	return d.entries.IndexByKey(name) >= 0
}

// EntryNames returns the names of the entries in the order they
// were first written.
func (d *Directory) EntryNames() []string {
	d.file.mu.RLock()
	defer d.file.mu.RUnlock()
	return d.entries.Keys()
}

// Write writes o to the named entry, replacing any existing entry.
// The object is serialized immediately, so later changes to o are
// not stored.
func (d *Directory) Write(name string, o data.Object) error {
	if o == nil {
		return fmt.Errorf("indexedio: %s: nil object for entry %q", d, name)
	}
	b, err := data.MarshalObject(o)
	if err != nil {
		return err
	}
	return d.WriteRaw(name, b)
}

// WriteRaw writes serialized bytes to the named entry.
func (d *Directory) WriteRaw(name string, b []byte) error {
	d.file.mu.Lock()
	defer d.file.mu.Unlock()
	if err := d.file.writable(); err != nil {
		return err
	}
	if err := validName(name); err != nil {
		return err
	}
	d.entries.Add(name, b)
	return nil
}

// Read decodes and returns the named entry. Each call returns a new object.
func (d *Directory) Read(name string) (data.Object, error) {
	b, ok := d.ReadRaw(name)
	if !ok {
		return nil, fmt.Errorf("indexedio: %s: no entry %q", d, name)
	}
	o, err := data.UnmarshalObject(b)
	if err != nil {
		return nil, fmt.Errorf("indexedio: %s: entry %q: %w", d, name, err)
	}
	return o, nil
}

// ReadRaw returns the serialized bytes of the named entry. They must
// not be modified.
func (d *Directory) ReadRaw(name string) ([]byte, bool) {
	d.file.mu.RLock()
	defer d.file.mu.RUnlock()
	return d.entries.ValueByKeyTry(name)
}

// Remove removes the named entry or child directory.
func (d *Directory) Remove(name string) error {
	d.file.mu.Lock()
	defer d.file.mu.Unlock()
	if err := d.file.writable(); err != nil {
		return err
	}
	if d.entries.DeleteKey(name) || d.children.DeleteKey(name) {
		return nil
	}
	return fmt.Errorf("indexedio: %s: nothing named %q to remove", d, name)
}

func validName(name string) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("indexedio: invalid name %q", name)
	}
	return nil
}

func (d *Directory) encode(e *data.Encoder) {
	e.Int(d.entries.Len())
	for _, kv := range d.entries.Order {
		e.Text(kv.Key)
		e.Raw(kv.Value)
	}
	e.Int(d.children.Len())
	for _, kv := range d.children.Order {
		e.Text(kv.Key)
		kv.Value.encode(e)
	}
}

func (d *Directory) decode(dec *data.Decoder) error {
	n := dec.Len(16)
	for range n {
		name := dec.Text()
		b := dec.Raw()
		if dec.Err() != nil {
			return dec.Err()
		}
		d.entries.Add(name, b)
	}
	n = dec.Len(16)
	for range n {
		name := dec.Text()
		if dec.Err() != nil {
			return dec.Err()
		}
		c := &Directory{file: d.file, name: name, parent: d}
		if err := c.decode(dec); err != nil {
			return err
		}
		d.children.Add(name, c)
	}
	return dec.Err()
}
