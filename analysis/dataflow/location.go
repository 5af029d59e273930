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

package dataflow

import (
	"strings"

	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/analysis/lattice"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// A Location is an abstract location: a variable and a bounded access path. Its key is the dotted representation
// of the place, e.g. "req.in.name".
type Location string

// Root returns the variable of the location.
func (l Location) Root() string {
	if i := strings.IndexByte(string(l), '.'); i >= 0 {
		return string(l)[:i]
	}
	return string(l)
}

// Fields returns the access path of the location.
func (l Location) Fields() []string {
	parts := strings.Split(string(l), ".")
	return parts[1:]
}

// IsPrefixOf returns true if o is a strict descendant of l.
func (l Location) IsPrefixOf(o Location) bool {
	return len(o) > len(l) && strings.HasPrefix(string(o), string(l)) && o[len(l)] == '.'
}

// parent returns the location of the enclosing object, and false for variables.
func (l Location) parent() (Location, bool) {
	i := strings.LastIndexByte(string(l), '.')
	if i < 0 {
		return "", false
	}
	return l[:i], true
}

// LocationOf returns the location of the place, and true if the access path of the place was longer than maxLen
// and collapsed to the root variable.
func LocationOf(p ir.Place, maxLen int) (Location, bool) {
	if len(p.Fields) > maxLen {
		return Location(p.Root), true
	}
	return Location(p.Key()), false
}

// A State maps abstract locations to taint values. Locations that are not in the map hold the value of their
// nearest enclosing location that is in the map, adjusted with the access path for symbolic formal origins, or
// Clean if there is none.
type State struct {
	values map[Location]lattice.Value
	maxLen int
}

// NewState returns an empty state where access paths are bounded by maxLen.
func NewState(maxLen int) *State {
	return &State{values: map[Location]lattice.Value{}, maxLen: maxLen}
}

// Clone returns a copy of the state. Values are immutable and shared.
func (s *State) Clone() *State {
	return &State{values: maps.Clone(s.values), maxLen: s.maxLen}
}

// Locations returns the locations stored in the state, sorted.
func (s *State) Locations() []Location {
	locs := maps.Keys(s.values)
	slices.Sort(locs)
	return locs
}

// Lookup returns the value at the location itself, without the values of its fields.
func (s *State) Lookup(l Location) lattice.Value {
	if v, ok := s.values[l]; ok {
		return v
	}
	cur := l
	for {
		p, ok := cur.parent()
		if !ok {
			return lattice.Clean
		}
		if v, ok := s.values[p]; ok {
			suffix := string(l[len(p):])
			return v.MapOrigins(func(o lattice.Origin) lattice.Origin { return o.WithSuffix(suffix, s.maxLen) })
		}
		cur = p
	}
}

// Get returns the value of the object at location l: the join of the value at l and of all its fields.
func (s *State) Get(l Location) lattice.Value {
	v := s.Lookup(l)
	for k, w := range s.values {
		if l.IsPrefixOf(k) {
			v = lattice.Join(v, w)
		}
	}
	return v
}

// Read returns the value of the place.
func (s *State) Read(p ir.Place) lattice.Value {
	l, _ := LocationOf(p, s.maxLen)
	return s.Get(l)
}

// Set performs a strong update: after Set, the object at l and all its fields hold v.
func (s *State) Set(l Location, v lattice.Value) {
	for k := range s.values {
		if l.IsPrefixOf(k) {
			delete(s.values, k)
		}
	}
	s.values[l] = v
}

// Add performs a weak update: v is joined to the object at l and to each of its fields.
func (s *State) Add(l Location, v lattice.Value) {
	if v.IsClean() {
		return
	}
	for k, w := range s.values {
		if l.IsPrefixOf(k) {
			s.values[k] = lattice.Join(w, v)
		}
	}
	s.values[l] = lattice.Join(s.Lookup(l), v)
}

// Write writes v to the place. Places whose access path is too long collapse to their root, which is then updated
// weakly.
func (s *State) Write(p ir.Place, v lattice.Value) {
	l, collapsed := LocationOf(p, s.maxLen)
	if collapsed {
		s.Add(l, v)
	} else {
		s.Set(l, v)
	}
}

// WriteWeak joins v into the place.
func (s *State) WriteWeak(p ir.Place, v lattice.Value) {
	l, _ := LocationOf(p, s.maxLen)
	s.Add(l, v)
}

// JoinWith joins o into s and returns true if the value of some location of s changed.
func (s *State) JoinWith(o *State) bool {
	locs := maps.Keys(s.values)
	for l := range o.values {
		if _, ok := s.values[l]; !ok {
			locs = append(locs, l)
		}
	}
	// all the lookups are done on the state before the join
	updates := make(map[Location]lattice.Value, len(locs))
	changed := false
	for _, l := range locs {
		old := s.Lookup(l)
		v := lattice.Join(old, o.Lookup(l))
		if !v.Equal(old) {
			changed = true
		}
		updates[l] = v
	}
	for l, v := range updates {
		s.values[l] = v
	}
	return changed
}

// Equal returns true if both states map every location to the same value.
func (s *State) Equal(o *State) bool {
	for l, v := range s.values {
		if !o.Lookup(l).Equal(v) {
			return false
		}
	}
	for l, v := range o.values {
		if !s.Lookup(l).Equal(v) {
			return false
		}
	}
	return true
}

func (s *State) String() string {
	var b strings.Builder
	for _, l := range s.Locations() {
		b.WriteString(string(l))
		b.WriteString(": ")
		b.WriteString(s.values[l].String())
		b.WriteString("\n")
	}
	return b.String()
}
