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

// Package graphutil contains graph algorithms over generic nodes.
package graphutil

import (
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
)

// StronglyConnectedComponents computes the strongly connected components (SCCs) of the graph with the nodes and the
// successors function. Successors returns a slice containing the targets of directed edges out from the given node;
// targets that are not in nodes are ignored.
//
// Nodes appear in their SCC in the order of nodes. The order of SCCs is toposorted so that successors appear first;
// i.e. if the graph is a tree then in order from leaves towards the root. For summary-based bottom-up algorithms,
// the result is in the desired order to minimize recomputation.
func StronglyConnectedComponents[T comparable](nodes []T, successors func(T) []T) [][]T {
	index := make(map[T]int, len(nodes))
	for _, n := range nodes {
		if _, ok := index[n]; !ok {
			index[n] = len(index)
		}
	}
	ids := make([]T, len(index))
	for n, i := range index {
		ids[i] = n
	}

	g := graph.New(len(ids))
	for i, n := range ids {
		for _, s := range successors(n) {
			if j, ok := index[s]; ok {
				g.Add(i, j)
			}
		}
	}
	components := graph.StrongComponents(g)

	// condensation: one vertex per component, with an edge for each edge between two distinct components
	componentOf := make([]int, len(ids))
	for c, members := range components {
		for _, v := range members {
			componentOf[v] = c
		}
	}
	dag := graph.New(len(components))
	for v := range ids {
		g.Visit(v, func(w int, _ int64) bool {
			if componentOf[v] != componentOf[w] {
				dag.Add(componentOf[v], componentOf[w])
			}
			return false
		})
	}
	order, _ := graph.TopSort(dag)

	sccs := make([][]T, 0, len(components))
	for i := len(order) - 1; i >= 0; i-- {
		members := slices.Clone(components[order[i]])
		slices.Sort(members)
		scc := make([]T, len(members))
		for j, v := range members {
			scc[j] = ids[v]
		}
		sccs = append(sccs, scc)
	}
	return sccs
}
