// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lattice defines the abstract values of the taint analysis.
//
// A Value is a set of Taint, one per origin. Each Taint records the kinds for which data from that origin is still
// dangerous, and the kinds for which it has been sanitized. The lattice elements of the analysis are represented as
// follows:
//
//   - Clean is the empty value (the bottom element);
//   - Tainted{k, o} is a value with a taint from origin o whose Kinds contain k;
//   - Sanitized{k} is a value where every taint has k in its Sanitized set and no taint has k in its Kinds.
//
// A value can be Sanitized for one kind and Tainted for another at the same time: sanitization only clears the
// kinds it is declared for.
package lattice

import (
	"strings"

	"golang.org/x/exp/slices"
)

// A Taint is the information carried by a value about one origin.
type Taint struct {
	// Origin is where the data comes from
	Origin Origin

	// Kinds is the set of kinds for which the data is dangerous on some path
	Kinds KindSet

	// Sanitized is the set of kinds for which the data went through a sanitizer on some path
	Sanitized KindSet
}

func (t Taint) isEmpty() bool {
	return t.Kinds.IsEmpty() && t.Sanitized.IsEmpty()
}

func (t Taint) String() string {
	s := t.Origin.String() + " " + t.Kinds.String()
	if !t.Sanitized.IsEmpty() {
		s += " sanitized:" + t.Sanitized.String()
	}
	return s
}

// A Value is an element of the taint lattice. The zero value is Clean.
// Values are immutable: all operations return new values, and the taints slice is never modified after the value
// has been built. Taints are sorted by origin and there is at most one taint per origin.
type Value struct {
	taints []Taint
}

// Clean is the bottom element of the lattice.
var Clean = Value{}

// Tainted returns the value tainted from origin o for the kinds.
func Tainted(o Origin, kinds KindSet) Value {
	return fromTaint(Taint{Origin: o, Kinds: kinds})
}

// SanitizedValue returns the value from origin o that has been sanitized for the kinds.
func SanitizedValue(o Origin, kinds KindSet) Value {
	return fromTaint(Taint{Origin: o, Sanitized: kinds})
}

// FromTaints returns the join of all the taints.
func FromTaints(taints ...Taint) Value {
	v := Clean
	for _, t := range taints {
		v = Join(v, fromTaint(t))
	}
	return v
}

func fromTaint(t Taint) Value {
	if t.isEmpty() {
		return Clean
	}
	return Value{taints: []Taint{t}}
}

// IsClean returns true if the value carries no information about any origin.
func (v Value) IsClean() bool { return len(v.taints) == 0 }

// Taints returns a copy of the taints of the value, sorted by origin.
func (v Value) Taints() []Taint {
	return slices.Clone(v.taints)
}

// TaintedKinds returns the union of the kinds for which the value is dangerous.
func (v Value) TaintedKinds() KindSet {
	var ks KindSet
	for _, t := range v.taints {
		ks |= t.Kinds
	}
	return ks
}

// IsTaintedFor returns true if the value is dangerous for some kind in ks.
func (v Value) IsTaintedFor(ks KindSet) bool {
	return v.TaintedKinds().Intersects(ks)
}

// IsSanitizedFor returns true if the value has been sanitized for k on some path and is not tainted for k on any
// path.
func (v Value) IsSanitizedFor(k Kind) bool {
	sanitized := false
	for _, t := range v.taints {
		if t.Kinds.Has(k) {
			return false
		}
		if t.Sanitized.Has(k) {
			sanitized = true
		}
	}
	return sanitized
}

// Join returns the least upper bound of a and b. Join is commutative, associative and idempotent, and Clean is its
// identity.
func Join(a, b Value) Value {
	if len(a.taints) == 0 {
		return b
	}
	if len(b.taints) == 0 {
		return a
	}
	res := make([]Taint, 0, len(a.taints)+len(b.taints))
	i, j := 0, 0
	for i < len(a.taints) && j < len(b.taints) {
		ta, tb := a.taints[i], b.taints[j]
		switch c := CompareOrigins(ta.Origin, tb.Origin); {
		case c < 0:
			res = append(res, ta)
			i++
		case c > 0:
			res = append(res, tb)
			j++
		default:
			res = append(res, Taint{
				Origin:    ta.Origin,
				Kinds:     ta.Kinds | tb.Kinds,
				Sanitized: ta.Sanitized | tb.Sanitized,
			})
			i++
			j++
		}
	}
	res = append(res, a.taints[i:]...)
	res = append(res, b.taints[j:]...)
	return Value{taints: res}
}

// JoinAll returns the join of all the values.
func JoinAll(values ...Value) Value {
	v := Clean
	for _, w := range values {
		v = Join(v, w)
	}
	return v
}

// Sanitize returns the value after a sanitizer for the kinds ks: the kinds ks are cleared from every taint and
// recorded as sanitized. Taint of any other kind is retained.
func (v Value) Sanitize(ks KindSet) Value {
	if len(v.taints) == 0 {
		return v
	}
	res := make([]Taint, 0, len(v.taints))
	for _, t := range v.taints {
		res = append(res, Taint{
			Origin:    t.Origin,
			Kinds:     t.Kinds &^ ks,
			Sanitized: t.Sanitized | (t.Kinds & ks),
		})
	}
	return Value{taints: res}
}

// Through returns the value v after it has flowed along a path summarized by the taint t of a formal origin: only
// the kinds still in t.Kinds remain dangerous, and the kinds t records as sanitized are sanitized.
func (v Value) Through(t Taint) Value {
	if len(v.taints) == 0 {
		return v
	}
	res := make([]Taint, 0, len(v.taints))
	for _, x := range v.taints {
		y := Taint{
			Origin:    x.Origin,
			Kinds:     x.Kinds & t.Kinds,
			Sanitized: x.Sanitized | (x.Kinds & t.Sanitized),
		}
		if !y.isEmpty() {
			res = append(res, y)
		}
	}
	return Value{taints: res}
}

// Substitute returns the join, over every taint t of v, of f(t). This is used to replace symbolic origins by
// the values they stand for.
func (v Value) Substitute(f func(Taint) Value) Value {
	res := Clean
	for _, t := range v.taints {
		res = Join(res, f(t))
	}
	return res
}

// Filter returns the value restricted to the taints satisfying keep.
func (v Value) Filter(keep func(Taint) bool) Value {
	var res []Taint
	for _, t := range v.taints {
		if keep(t) {
			res = append(res, t)
		}
	}
	return Value{taints: res}
}

// MapOrigins returns the value where each origin o has been replaced by f(o). Taints whose origins collide are
// joined.
func (v Value) MapOrigins(f func(Origin) Origin) Value {
	res := Clean
	for _, t := range v.taints {
		res = Join(res, fromTaint(Taint{Origin: f(t.Origin), Kinds: t.Kinds, Sanitized: t.Sanitized}))
	}
	return res
}

// Equal returns true if v and w are the same lattice element.
func (v Value) Equal(w Value) bool {
	return slices.Equal(v.taints, w.taints)
}

// LessOrEqual returns true if v is below w in the lattice.
func (v Value) LessOrEqual(w Value) bool {
	return Join(v, w).Equal(w)
}

func (v Value) String() string {
	if len(v.taints) == 0 {
		return "Clean"
	}
	parts := make([]string, len(v.taints))
	for i, t := range v.taints {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, "; ") + "]"
}
