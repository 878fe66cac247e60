// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/cortex/settings"
	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/text/cases"
)

// Registry is a size-bounded cache of scenes opened for reading,
// keyed by absolute file path. A scene dropped from the registry
// stays valid for anyone still holding it.
type Registry struct {
	mu       sync.Mutex
	cache    *lru.Cache
	open     func(fileName string) (Interface, error)
	foldCase bool
	watcher  *fsnotify.Watcher

	// searchPaths are tried in order for relative file names.
	searchPaths []string
}

// NewRegistry returns a registry holding up to size scenes, opened
// with open. Keys are case folded when the host filesystem is
// case-insensitive.
func NewRegistry(size int, open func(fileName string) (Interface, error)) *Registry {
	r := &Registry{
		open:     open,
		foldCase: runtime.GOOS == "darwin" || runtime.GOOS == "windows",
	}
	r.cache = errors.Must1(lru.NewWithEvict(max(size, 1), r.evicted))
	return r
}

// SetFoldCase sets whether keys are case folded.
func (r *Registry) SetFoldCase(fold bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.foldCase = fold
}

// SetSearchPaths sets the directories in which relative file names
// are looked up, in order. A relative name found in none of them is
// resolved against the working directory.
func (r *Registry) SetSearchPaths(dirs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searchPaths = slices.Clone(dirs)
}

// Watch makes the registry drop scenes whose files change on disk.
func (r *Registry) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.watcher = w
	for _, k := range r.cache.Keys() {
		if e, ok := r.cache.Peek(k); ok {
			errors.Log(w.Add(e.(*entry).path))
		}
	}
	r.mu.Unlock()
	go r.watch(w)
	return nil
}

func (r *Registry) watch(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) || ev.Op.Has(fsnotify.Create) {
				slog.Debug("scene: shared file changed", "path", ev.Name, "op", ev.Op)
				r.Erase(ev.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			slog.Warn("scene: watching shared files", "err", err)
		}
	}
}

// Close stops watching files.
func (r *Registry) Close() error {
	r.mu.Lock()
	w := r.watcher
	r.watcher = nil
	r.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}

func (r *Registry) key(fileName string) (string, error) {
	p, err := homedir.Expand(fileName)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(p) {
		r.mu.Lock()
		dirs := r.searchPaths
		r.mu.Unlock()
		for _, dir := range dirs {
			dir, err := homedir.Expand(dir)
			if errors.Log(err) != nil {
				continue
			}
			if c := filepath.Join(dir, p); fileExists(c) {
				p = c
				break
			}
		}
	}
	p, err = filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return p, nil
}

func (r *Registry) cacheKey(abs string) string {
	if r.foldCase {
		return cases.Fold().String(abs)
	}
	return abs
}

// Get returns the registered scene for the file, opening and
// registering it if it is not registered.
func (r *Registry) Get(fileName string) (Interface, error) {
	abs, err := r.key(fileName)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.cacheKey(abs)
	if s, ok := r.cache.Get(k); ok {
		return s.(*entry).scene, nil
	}
	s, err := r.open(abs)
	if err != nil {
		return nil, err
	}
	r.cache.Add(k, &entry{path: abs, scene: s})
	if r.watcher != nil {
		errors.Log(r.watcher.Add(abs))
	}
	return s, nil
}

// Erase drops the scene for the file from the registry.
func (r *Registry) Erase(fileName string) {
	abs, err := r.key(fileName)
	if errors.Log(err) != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Remove(r.cacheKey(abs))
}

// Clear drops all scenes from the registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Purge()
}

// Len returns the number of registered scenes.
func (r *Registry) Len() int {
	return r.cache.Len()
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

type entry struct {
	path  string
	scene Interface
}

// evicted is called with r.mu held.
func (r *Registry) evicted(key, value any) {
	if r.watcher != nil {
		r.watcher.Remove(value.(*entry).path)
	}
}

var shared = sync.OnceValue(func() *Registry {
	st := settings.Get().Scene
	r := NewRegistry(st.MaxSharedScenes, func(fileName string) (Interface, error) {
		return Create(fileName, Read)
	})
	r.SetSearchPaths(st.SearchPaths)
	if st.WatchSharedFiles {
		errors.Log(r.Watch())
	}
	return r
})

// Shared returns the process-wide registry of scenes opened for reading.
func Shared() *Registry {
	return shared()
}
