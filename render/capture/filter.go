// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package capture

import (
	"strings"

	"github.com/gobwas/glob"
)

// filter matches object names against glob patterns, with '/' as
// the separator.
type filter struct {
	full []glob.Glob

	// prefixes[i][k] matches the first k+1 segments of pattern i.
	prefixes [][]glob.Glob
}

func newFilter(patterns []string) (*filter, error) {
	f := &filter{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		f.full = append(f.full, g)
		segs := strings.Split(p, "/")
		var pre []glob.Glob
		for k := 1; k < len(segs); k++ {
			prefix := strings.Join(segs[:k], "/")
			if prefix == "" {
				// the root above absolute patterns
				pre = append(pre, nil)
				continue
			}
			pg, err := glob.Compile(prefix, '/')
			if err != nil {
				return nil, err
			}
			pre = append(pre, pg)
		}
		f.prefixes = append(f.prefixes, pre)
	}
	return f, nil
}

// match returns whether name matches a pattern. A nil filter
// matches everything.
func (f *filter) match(name string) bool {
	if f == nil {
		return true
	}
	for _, g := range f.full {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// matchOrAbove returns whether name matches a pattern, or is an
// ancestor of names that may match one.
func (f *filter) matchOrAbove(name string) bool {
	if f == nil || name == "" || f.match(name) {
		return true
	}
	k := len(strings.Split(name, "/"))
	for _, pre := range f.prefixes {
		if k <= len(pre) && pre[k-1] != nil && pre[k-1].Match(name) {
			return true
		}
	}
	return false
}
