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
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/internal/graphutil"
)

// CallGraph is the call graph of the procedures with a body, with virtual calls resolved to every implementation,
// and its strongly connected components.
type CallGraph struct {
	callees     map[*ir.Procedure][]*ir.Procedure
	components  [][]*ir.Procedure
	componentOf map[*ir.Procedure]int
	heights     []int
}

// NewCallGraph builds the call graph of a finalized program.
func NewCallGraph(prog *ir.Program) *CallGraph {
	cg := &CallGraph{
		callees:     map[*ir.Procedure][]*ir.Procedure{},
		componentOf: map[*ir.Procedure]int{},
	}
	var nodes []*ir.Procedure
	for _, proc := range prog.AllProcedures() {
		if !proc.HasBody() {
			continue
		}
		nodes = append(nodes, proc)
		seen := map[*ir.Procedure]bool{}
		for _, call := range proc.Calls() {
			for _, callee := range prog.Callees(call) {
				if !seen[callee] {
					seen[callee] = true
					cg.callees[proc] = append(cg.callees[proc], callee)
				}
			}
		}
	}
	cg.components = graphutil.StronglyConnectedComponents(nodes, func(p *ir.Procedure) []*ir.Procedure {
		return cg.callees[p]
	})
	for i, c := range cg.components {
		for _, p := range c {
			cg.componentOf[p] = i
		}
	}
	// components are sorted callees first
	cg.heights = make([]int, len(cg.components))
	for i, c := range cg.components {
		for _, p := range c {
			for _, callee := range cg.callees[p] {
				if j := cg.componentOf[callee]; j != i && cg.heights[j]+1 > cg.heights[i] {
					cg.heights[i] = cg.heights[j] + 1
				}
			}
		}
	}
	return cg
}

// Callees returns the procedures with a body called by proc.
func (cg *CallGraph) Callees(proc *ir.Procedure) []*ir.Procedure {
	return cg.callees[proc]
}

// Components returns the strongly connected components of the call graph, callees first. The procedures of a
// component are sorted by name.
func (cg *CallGraph) Components() [][]*ir.Procedure {
	return cg.components
}

// ComponentOf returns the index of the component of proc, or -1 if proc is not in the call graph.
func (cg *CallGraph) ComponentOf(proc *ir.Procedure) int {
	if i, ok := cg.componentOf[proc]; ok {
		return i
	}
	return -1
}

// Height returns the length of the longest chain of calls from the component to other components. The height of a
// component that only calls its own members, or procedures without a body, is 0.
func (cg *CallGraph) Height(component int) int {
	return cg.heights[component]
}
