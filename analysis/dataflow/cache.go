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
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/awslabs/svctaint/analysis/ir"
	"golang.org/x/sync/singleflight"
)

// Cache holds the summaries of the procedures of one analysis run. Summaries are built on demand, at most once per
// procedure: concurrent requests for a summary that is being built wait for the build in progress. The procedures
// of a strongly connected component of the call graph are built together, by a single goroutine.
//
// The summary of a procedure requested at nesting depth d is complete when d plus the height of its component does
// not exceed the maximum summary depth. Complete summaries do not depend on the depth they are requested at, and are
// published. Other summaries contain provisional summaries for the callees beyond the bound; they are kept per depth
// and never published, so that the summary returned for a request only depends on the procedure and the depth.
//
// A Cache is safe for concurrent use. Published summaries are never modified.
type Cache struct {
	state     *AnalyzerState
	summaries sync.Map // *ir.Procedure -> *Summary
	bounded   sync.Map // boundedKey -> *Summary
	group     singleflight.Group
	builds    atomic.Int64
}

type boundedKey struct {
	proc  *ir.Procedure
	depth int
}

// NewCache returns an empty cache for the analyzer state.
func NewCache(state *AnalyzerState) *Cache {
	return &Cache{state: state}
}

// Summary returns the summary of the procedure, building it and the summaries of its callees if needed.
// Procedures without a body have a provisional summary.
func (c *Cache) Summary(proc *ir.Procedure) *Summary {
	return c.get(proc, 0)
}

// Lookup returns the summary of the procedure if it has already been built and published.
func (c *Cache) Lookup(proc *ir.Procedure) (*Summary, bool) {
	s, ok := c.summaries.Load(proc)
	if !ok {
		return nil, false
	}
	return s.(*Summary), true
}

// Builds returns the number of summaries built so far.
func (c *Cache) Builds() int64 {
	return c.builds.Load()
}

// complete returns true if the summaries of the component requested at depth can be built without reaching the
// maximum summary depth.
func (c *Cache) complete(component int, depth int) bool {
	maxDepth := c.state.Config.MaxSummaryDepth
	return maxDepth <= 0 || depth+c.state.CallGraph.Height(component) <= maxDepth
}

func (c *Cache) load(proc *ir.Procedure, depth int, complete bool) (*Summary, bool) {
	if complete {
		return c.Lookup(proc)
	}
	s, ok := c.bounded.Load(boundedKey{proc, depth})
	if !ok {
		return nil, false
	}
	return s.(*Summary), true
}

func (c *Cache) get(proc *ir.Procedure, depth int) *Summary {
	component := c.state.CallGraph.ComponentOf(proc)
	if component < 0 {
		return ProvisionalSummary(proc)
	}
	if c.state.Config.ExceedsMaxSummaryDepth(depth) {
		c.state.Logger.Warnf("summary of %s not built: maximum summary depth %d reached\n",
			proc.QualifiedName(), c.state.Config.MaxSummaryDepth)
		return ProvisionalSummary(proc)
	}
	complete := c.complete(component, depth)
	if s, ok := c.load(proc, depth, complete); ok {
		return s
	}
	key := strconv.Itoa(component)
	if !complete {
		key += "@" + strconv.Itoa(depth)
	}
	c.group.Do(key, func() (any, error) {
		c.buildComponent(component, depth, complete)
		return nil, nil
	})
	if s, ok := c.load(proc, depth, complete); ok {
		return s
	}
	return ProvisionalSummary(proc)
}

// buildComponent builds the summaries of all the procedures of the component, in order, and stores them once they
// are all built. Calls to members of the component that are not yet summarized use provisional summaries.
func (c *Cache) buildComponent(component int, depth int, complete bool) {
	members := c.state.CallGraph.Components()[component]
	if _, done := c.load(members[0], depth, complete); done {
		return
	}
	inComponent := make(map[*ir.Procedure]bool, len(members))
	for _, m := range members {
		inComponent[m] = true
	}
	built := make(map[*ir.Procedure]*Summary, len(members))
	var current *ir.Procedure
	resolve := func(callee *ir.Procedure) *Summary {
		if inComponent[callee] {
			if s, ok := built[callee]; ok {
				return s
			}
			printProvisionalSummaryMessage(c.state, current, callee)
			return ProvisionalSummary(callee)
		}
		return c.get(callee, depth+1)
	}
	for _, m := range members {
		current = m
		s := IntraProceduralAnalysis(c.state, m, resolve)
		built[m] = s
		c.builds.Add(1)
		if c.state.Config.ReportSummaries {
			c.state.Logger.Debugf("%s", s)
		}
	}
	for _, m := range members {
		if complete {
			c.summaries.Store(m, built[m])
		} else {
			c.bounded.Store(boundedKey{m, depth}, built[m])
		}
	}
}
