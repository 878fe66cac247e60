// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Creator opens a scene file in the given mode.
type Creator func(fileName string, mode Mode) (Interface, error)

type format struct {
	modes   []Mode
	creator Creator
}

var (
	formatsMu sync.RWMutex
	formats   = map[string]format{}
)

// Register registers the creator for files with the given extension,
// such as ".scc", for the given modes. It is typically called from
// init functions.
func Register(ext string, modes []Mode, c Creator) {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	formats[strings.ToLower(ext)] = format{modes: slices.Clone(modes), creator: c}
}

// Create opens a scene file using the creator registered for its extension.
func Create(fileName string, mode Mode) (Interface, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	formatsMu.RLock()
	f, ok := formats[ext]
	formatsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no scene format for %q (supported: %s)", ErrUnsupported, fileName, strings.Join(SupportedExtensions(mode), " "))
	}
	if !slices.Contains(f.modes, mode) {
		return nil, fmt.Errorf("%w: %s files cannot be opened in %v mode", ErrUnsupported, ext, mode)
	}
	return f.creator(fileName, mode)
}

// SupportedExtensions returns the sorted extensions of the formats
// that can be opened in the given mode.
func SupportedExtensions(mode Mode) []string {
	formatsMu.RLock()
	defer formatsMu.RUnlock()
	var exts []string
	for _, ext := range slices.Sorted(maps.Keys(formats)) {
		if slices.Contains(formats[ext].modes, mode) {
			exts = append(exts, ext)
		}
	}
	return exts
}
