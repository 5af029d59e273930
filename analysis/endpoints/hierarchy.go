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

package endpoints

import (
	"github.com/awslabs/svctaint/analysis/ir"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Hierarchy is the type hierarchy of a program, with an edge from every class to each of its direct subclasses.
type Hierarchy struct {
	g     *simple.DirectedGraph
	ids   map[string]int64
	names map[int64]string
}

// NewHierarchy builds the type hierarchy of the classes of the program.
func NewHierarchy(prog *ir.Program) *Hierarchy {
	h := &Hierarchy{g: simple.NewDirectedGraph(), ids: map[string]int64{}, names: map[int64]string{}}
	names := maps.Keys(prog.Classes)
	slices.Sort(names)
	for _, name := range names {
		h.node(name)
	}
	for _, name := range names {
		for _, super := range prog.Classes[name].Supers {
			if super == name {
				continue
			}
			h.g.SetEdge(h.g.NewEdge(h.node(super), h.node(name)))
		}
	}
	return h
}

func (h *Hierarchy) node(name string) graph.Node {
	if id, ok := h.ids[name]; ok {
		return h.g.Node(id)
	}
	n := h.g.NewNode()
	h.g.AddNode(n)
	h.ids[name] = n.ID()
	h.names[n.ID()] = name
	return n
}

// Subclasses returns the names of the classes inheriting directly or transitively from class, sorted.
func (h *Hierarchy) Subclasses(class string) []string {
	id, ok := h.ids[class]
	if !ok {
		return nil
	}
	var res []string
	dfs := traverse.DepthFirst{
		Visit: func(n graph.Node) {
			if n.ID() != id {
				res = append(res, h.names[n.ID()])
			}
		},
	}
	dfs.Walk(h.g, h.g.Node(id), nil)
	slices.Sort(res)
	return res
}

// Capabilities maps every class inheriting from a capability marker to the sorted list of markers it inherits from.
// isMarker decides which classes are capability markers.
func (h *Hierarchy) Capabilities(isMarker func(string) bool) map[string][]string {
	markers := maps.Keys(h.ids)
	slices.Sort(markers)
	caps := map[string][]string{}
	for _, m := range markers {
		if !isMarker(m) {
			continue
		}
		for _, sub := range h.Subclasses(m) {
			caps[sub] = append(caps[sub], m)
		}
	}
	return caps
}
