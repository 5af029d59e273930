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
	"fmt"
	"strconv"
	"strings"

	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/analysis/lattice"
	"golang.org/x/exp/slices"
)

// An Output is the value of a formal passed by reference (or of one of its fields) when the procedure returns.
type Output struct {
	// Index is the formal index, or lattice.ReceiverIndex for the receiver
	Index  int
	Fields []string
	Value  lattice.Value
}

func (o Output) location(proc *ir.Procedure) string {
	name := ir.ThisName
	if o.Index >= 0 {
		name = proc.Params[o.Index].Name
	}
	return ir.Place{Root: name, Fields: o.Fields}.Key()
}

// A SinkFlow is a flow of taint to an argument of a sink call, in the procedure or in one of its callees.
type SinkFlow struct {
	Sink string       // the callee of the sink call
	Arg  int          // the argument position, ir.ReceiverPosition for the receiver
	Kind lattice.Kind // the kind of the sink for that argument
	// Value holds the taints that reach the argument and are relevant to Kind: tainted or sanitized for Kind.
	// Formal origins denote the formals of the summarized procedure.
	Value lattice.Value
	// Trace is the chain of call sites from the summarized procedure down to the sink call, which is last.
	Trace []ir.Pos
}

// Site returns the position of the sink call.
func (f *SinkFlow) Site() ir.Pos { return f.Trace[len(f.Trace)-1] }

func (f *SinkFlow) key() string {
	var b strings.Builder
	for _, p := range f.Trace {
		b.WriteString(p.String())
		b.WriteString(">")
	}
	b.WriteString(f.Sink)
	b.WriteString("#")
	b.WriteString(strconv.Itoa(f.Arg))
	b.WriteString("#")
	b.WriteString(f.Kind.String())
	return b.String()
}

func (f *SinkFlow) String() string {
	trace := make([]string, len(f.Trace))
	for i, p := range f.Trace {
		trace[i] = p.String()
	}
	return fmt.Sprintf("%s arg %d (%s) <- %s via %s", f.Sink, f.Arg, f.Kind, f.Value, strings.Join(trace, " > "))
}

// A Summary is the effect of a procedure on the taint of its formals, its result and the sinks it reaches. Summaries
// are immutable once published in the cache.
type Summary struct {
	Procedure *ir.Procedure
	// Result is the join of the values returned by the procedure
	Result lattice.Value
	// Outputs are the locations of formals passed by reference that the procedure may modify, sorted
	Outputs []Output
	// Flows are the flows to sinks, sorted by trace
	Flows []*SinkFlow
	// Truncated is true when the fixpoint computation stopped early
	Truncated bool
	// Provisional is true for the summaries standing for procedures whose summary is not available
	Provisional bool
}

// ProvisionalSummary returns the summary used for calls that cannot be summarized: the result is clean, the
// arguments are not modified and there is no sink flow.
func ProvisionalSummary(proc *ir.Procedure) *Summary {
	return &Summary{Procedure: proc, Provisional: true}
}

func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "summary of %s", s.Procedure.QualifiedName())
	if s.Provisional {
		b.WriteString(" (provisional)")
	}
	if s.Truncated {
		b.WriteString(" (truncated)")
	}
	b.WriteString(":\n")
	fmt.Fprintf(&b, "  result: %s\n", s.Result)
	for _, o := range s.Outputs {
		fmt.Fprintf(&b, "  %s: %s\n", o.location(s.Procedure), o.Value)
	}
	for _, f := range s.Flows {
		fmt.Fprintf(&b, "  sink %s\n", f)
	}
	return b.String()
}

func sortFlows(flows []*SinkFlow) {
	slices.SortFunc(flows, func(a, b *SinkFlow) bool { return a.key() < b.key() })
}

func sortOutputs(outputs []Output) {
	slices.SortFunc(outputs, func(a, b Output) bool {
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return strings.Join(a.Fields, ".") < strings.Join(b.Fields, ".")
	})
}

// Instantiate returns the sink flows of the summary where the formal origins are replaced by the values of the
// formals in the entry state. Formals that do not have a value in the entry state are clean.
func (s *Summary) Instantiate(entry *State) []*SinkFlow {
	name := s.Procedure.QualifiedName()
	subst := func(t lattice.Taint) lattice.Value {
		o := t.Origin
		if !o.IsFormal() {
			return lattice.FromTaints(t)
		}
		if o.Procedure != name || o.Index >= len(s.Procedure.Params) {
			return lattice.Clean
		}
		root := ir.ThisName
		if o.Index >= 0 {
			root = s.Procedure.Params[o.Index].Name
		}
		return entry.Get(Location(root + o.Path)).Through(t)
	}
	var res []*SinkFlow
	for _, f := range s.Flows {
		v := f.Value.Substitute(subst).Filter(relevantTo(f.Kind))
		if v.IsClean() {
			continue
		}
		g := *f
		g.Value = v
		res = append(res, &g)
	}
	return res
}
