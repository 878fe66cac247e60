// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package prim

import (
	"cogentcore.org/cortex/base/murmur"
	"cogentcore.org/cortex/data"
)

// Lerp interpolates between two primitives with identical topology
// and variable sets. Variables whose data can be interpolated are;
// the others are taken from the nearer primitive. It returns false
// when the primitives are not compatible.
func Lerp(a, b Primitive, x float64) (Primitive, bool) {
	if a.TypeName() != b.TypeName() {
		return nil, false
	}
	var ha, hb murmur.Hash
	a.TopologyHash(&ha)
	b.TopologyHash(&hb)
	if ha != hb || a.Vars().Len() != b.Vars().Len() {
		return nil, false
	}
	near := a
	if x >= 0.5 {
		near = b
	}
	out := data.Copy(near)
	for _, kv := range a.Vars().Order {
		va := kv.Value
		vb, ok := b.Vars().Get(kv.Key)
		if !ok || va.Interpolation != vb.Interpolation {
			return nil, false
		}
		if va.Indices != nil || vb.Indices != nil {
			continue
		}
		d, ok := data.Lerp(va.Data, vb.Data, x)
		if !ok {
			continue
		}
		out.Vars().Set(kv.Key, NewVariable(va.Interpolation, d))
	}
	return out, true
}
