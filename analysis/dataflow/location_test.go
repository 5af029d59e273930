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
	"testing"

	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/analysis/lattice"
	"github.com/stretchr/testify/assert"
)

var (
	endpointOrigin = lattice.Origin{Type: lattice.EndpointParameter, Procedure: "S::f", Name: "cmd"}
	sourceOrigin   = lattice.Origin{Type: lattice.SourceCall, Procedure: "S::f", Name: "getenv", Site: "f.cpp:3"}
	tainted        = lattice.Tainted(endpointOrigin, lattice.UserControlled)
	fromSource     = lattice.Tainted(sourceOrigin, lattice.UserControlled)
)

func TestLocation(t *testing.T) {
	l := Location("req.in.name")
	assert.Equal(t, "req", l.Root())
	assert.Equal(t, []string{"in", "name"}, l.Fields())
	assert.True(t, Location("req").IsPrefixOf(l))
	assert.True(t, Location("req.in").IsPrefixOf(l))
	assert.False(t, Location("re").IsPrefixOf(l))
	assert.False(t, l.IsPrefixOf(l))

	loc, collapsed := LocationOf(ir.PlaceOf("a.b.c.d"), 3)
	assert.Equal(t, Location("a"), loc)
	assert.True(t, collapsed)
	loc, collapsed = LocationOf(ir.PlaceOf("a.b.c"), 3)
	assert.Equal(t, Location("a.b.c"), loc)
	assert.False(t, collapsed)
}

func TestLookupInheritsFromEnclosingObject(t *testing.T) {
	s := NewState(3)
	formal := lattice.Tainted(lattice.FormalOrigin("f", 0, "req", ""), lattice.UserControlled)
	s.Set("req", formal)
	s.Set("x", tainted)

	want := lattice.Tainted(lattice.FormalOrigin("f", 0, "req", ".in.name"), lattice.UserControlled)
	assert.Equal(t, want, s.Lookup("req.in.name"))
	// concrete origins do not have paths
	assert.Equal(t, tainted, s.Lookup("x.s"))
	assert.True(t, s.Lookup("y").IsClean())

	// paths longer than the bound collapse to the formal itself
	deep := lattice.Tainted(lattice.FormalOrigin("f", 0, "req", ""), lattice.UserControlled)
	assert.Equal(t, deep, stateWith(1, "req", formal).Lookup("req.in.name"))
}

// stateWith returns a state with a single location, for tests.
func stateWith(maxLen int, l Location, v lattice.Value) *State {
	s := NewState(maxLen)
	s.Set(l, v)
	return s
}

func TestStrongAndWeakUpdates(t *testing.T) {
	s := NewState(3)
	s.Write(ir.PlaceOf("req.s"), tainted)
	s.Write(ir.PlaceOf("req.i"), fromSource)
	assert.Equal(t, lattice.Join(tainted, fromSource), s.Read(ir.PlaceOf("req")), "reads join the fields")

	s.Write(ir.PlaceOf("req.s"), lattice.Clean)
	assert.True(t, s.Read(ir.PlaceOf("req.s")).IsClean())
	assert.Equal(t, fromSource, s.Read(ir.PlaceOf("req")))

	s.Write(ir.PlaceOf("req"), lattice.Clean)
	assert.True(t, s.Read(ir.PlaceOf("req.i")).IsClean(), "strong updates overwrite the fields")
	assert.Equal(t, []Location{"req"}, s.Locations())

	s.WriteWeak(ir.PlaceOf("req"), tainted)
	s.WriteWeak(ir.PlaceOf("req"), fromSource)
	assert.Equal(t, lattice.Join(tainted, fromSource), s.Read(ir.PlaceOf("req.i")))

	// writes to paths longer than the bound are weak updates of the root
	s.Write(ir.PlaceOf("req.a.b.c.d"), lattice.Clean)
	assert.Equal(t, lattice.Join(tainted, fromSource), s.Read(ir.PlaceOf("req")))
}

func TestJoinStates(t *testing.T) {
	a := NewState(3)
	a.Set("x", tainted)
	b := NewState(3)
	b.Set("x.s", fromSource)
	b.Set("y", fromSource)

	assert.True(t, a.JoinWith(b))
	assert.Equal(t, lattice.Join(tainted, fromSource), a.Lookup("x.s"))
	assert.Equal(t, tainted, a.Lookup("x"))
	assert.Equal(t, fromSource, a.Lookup("y"))
	assert.False(t, a.JoinWith(b), "join is idempotent")

	c := a.Clone()
	assert.True(t, c.Equal(a))
	c.Set("z", tainted)
	assert.False(t, c.Equal(a))
	assert.False(t, a.Equal(c))
}
