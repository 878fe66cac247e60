// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"fmt"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// suggestionThreshold is the minimum similarity for a name to be
// suggested in a not found error.
const suggestionThreshold = 0.5

// NotFound returns an [ErrNotFound] error for the named thing missing
// at the given location, suggesting the most similar of the
// available names.
func NotFound(what, name string, at Path, available []string) error {
	best, score := "", 0.0
	lev := metrics.NewLevenshtein()
	for _, a := range available {
		if s := strutil.Similarity(name, a, lev); s > score {
			best, score = a, s
		}
	}
	if score >= suggestionThreshold {
		return fmt.Errorf("%w: %s %q at %s (did you mean %q?)", ErrNotFound, what, name, at, best)
	}
	return fmt.Errorf("%w: %s %q at %s", ErrNotFound, what, name, at)
}
