// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import "slices"

// SampleInterval returns the samples surrounding time t in the sorted
// sample times, and the interpolation factor x between them. When t
// falls on a sample or outside the sampled range, floor and ceil are
// the same sample and x is 0. With no samples it returns 0, 0, 0.
func SampleInterval(times []float64, t float64) (x float64, floor, ceil int) {
	n := len(times)
	switch {
	case n == 0:
		return 0, 0, 0
	case t <= times[0]:
		return 0, 0, 0
	case t >= times[n-1]:
		return 0, n - 1, n - 1
	}
	ceil, found := slices.BinarySearch(times, t)
	if found {
		return 0, ceil, ceil
	}
	floor = ceil - 1
	return (t - times[floor]) / (times[ceil] - times[floor]), floor, ceil
}
