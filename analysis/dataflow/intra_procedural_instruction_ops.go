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

	"github.com/awslabs/svctaint/analysis/catalog"
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/analysis/lattice"
	"github.com/awslabs/svctaint/analysis/summaries"
	"golang.org/x/exp/slices"
)

// actuals are the taint values of the arguments of a call, evaluated in the state before the call.
type actuals struct {
	call *ir.Call
	recv lattice.Value
	args []lattice.Value
}

func (in actuals) at(pos int) lattice.Value {
	if pos == ir.ReceiverPosition {
		return in.recv
	}
	if pos >= 0 && pos < len(in.args) {
		return in.args[pos]
	}
	return lattice.Clean
}

// positions returns the positions of the arguments of the call, starting with the receiver if there is one.
func (in actuals) positions() []int {
	var ps []int
	if in.call.Receiver != nil {
		ps = append(ps, ir.ReceiverPosition)
	}
	for i := range in.args {
		ps = append(ps, i)
	}
	return ps
}

func (in actuals) join() lattice.Value {
	return lattice.JoinAll(append([]lattice.Value{in.recv}, in.args...)...)
}

func (a *intraAnalysis) actuals(s *State, call *ir.Call) actuals {
	in := actuals{call: call, args: make([]lattice.Value, len(call.Args))}
	if call.Receiver != nil {
		in.recv = a.eval(s, call.Receiver)
	}
	for i, arg := range call.Args {
		in.args[i] = a.eval(s, arg)
	}
	return in
}

// relevantTo returns a filter keeping the taints that matter for a sink of kind k.
func relevantTo(k lattice.Kind) func(lattice.Taint) bool {
	return func(t lattice.Taint) bool { return t.Kinds.Has(k) || t.Sanitized.Has(k) }
}

func (a *intraAnalysis) sourceOrigin(call *ir.Call) lattice.Origin {
	return lattice.Origin{
		Type:      lattice.SourceCall,
		Procedure: a.proc.QualifiedName(),
		Name:      call.Callee,
		Site:      call.At.String(),
	}
}

// call updates the state with the effect of a call. The role of the callee in the catalog has priority over the
// body of the callee for sanitizers and sources of the call result.
func (a *intraAnalysis) call(s *State, call *ir.Call) {
	in := a.actuals(s, call)
	var result lattice.Value
	switch r := a.state.Catalog.Lookup(call.Callee).(type) {
	case catalog.SanitizerRole:
		result = in.join().Sanitize(r.Kinds)
	case catalog.SourceRole:
		if ks := r.Returns(); !ks.IsEmpty() {
			result = lattice.Tainted(a.sourceOrigin(call), ks)
		} else {
			result = a.propagate(s, call, in)
		}
		if len(a.state.Program.Callees(call)) == 0 {
			a.taintOutArgs(s, call, in, r)
		}
	case catalog.SinkRole:
		a.checkSink(call, r, in)
		result = a.propagate(s, call, in)
	default:
		result = a.propagate(s, call, in)
	}
	if call.Result != nil {
		s.Write(*call.Result, result)
	}
}

// checkSink records a flow for every argument of the call matched by the sink that holds taint relevant to the kind
// of the sink.
func (a *intraAnalysis) checkSink(call *ir.Call, sink catalog.SinkRole, in actuals) {
	for _, pos := range in.positions() {
		ks := a.state.Catalog.SinkMatches(sink, call, pos, a.state.Program)
		for _, k := range ks.Kinds() {
			v := in.at(pos).Filter(relevantTo(k))
			if v.IsClean() {
				continue
			}
			a.addFlow(&SinkFlow{Sink: call.Callee, Arg: pos, Kind: k, Value: v, Trace: []ir.Pos{call.At}})
		}
	}
}

// taintOutArgs taints the arguments of a call to a library source that produces user-controlled data in its
// arguments.
func (a *intraAnalysis) taintOutArgs(s *State, call *ir.Call, in actuals, src catalog.SourceRole) {
	for _, pos := range in.positions() {
		ks := src.At(pos)
		if ks.IsEmpty() {
			continue
		}
		if u, ok := call.Arg(pos).(ir.Use); ok {
			s.WriteWeak(u.Place, lattice.Tainted(a.sourceOrigin(call), ks))
		}
	}
}

// propagate applies the summaries of the callees with a body, or the library model of the callee, and returns the
// value of the result of the call.
func (a *intraAnalysis) propagate(s *State, call *ir.Call, in actuals) lattice.Value {
	callees := a.state.Program.Callees(call)
	if len(callees) == 0 {
		return a.applyModel(s, call, in)
	}
	return a.applySummaries(s, call, in, callees)
}

func (a *intraAnalysis) applyModel(s *State, call *ir.Call, in actuals) lattice.Value {
	m, ok := summaries.SummaryOrDefault(call.Callee)
	if !ok {
		printMissingModelMessage(a.state, a.proc, call)
	}
	result := lattice.Clean
	for _, pos := range in.positions() {
		v := in.at(pos)
		if m.Returns(pos) {
			result = lattice.Join(result, v)
		}
		for _, target := range m.Targets(pos) {
			if u, ok := call.Arg(target).(ir.Use); ok {
				s.WriteWeak(u.Place, v)
			}
		}
	}
	return result
}

// applySummaries applies the summaries of the possible callees of the call. The outputs of the callees are joined;
// an output written by all the callees replaces the previous value of the argument.
func (a *intraAnalysis) applySummaries(s *State, call *ir.Call, in actuals, callees []*ir.Procedure) lattice.Value {
	result := lattice.Clean
	pending := map[Location]lattice.Value{}
	writers := map[Location]int{}
	collapsed := map[Location]bool{}
	for _, callee := range callees {
		sum := a.resolve(callee)
		if sum.Truncated {
			a.truncated = true
		}
		subst := a.substitution(s, call, in, callee)
		result = lattice.Join(result, sum.Result.Substitute(subst))

		written := map[Location]bool{}
		for _, o := range sum.Outputs {
			u, ok := call.Arg(o.Index).(ir.Use)
			if !ok {
				continue
			}
			fields := append(slices.Clone(u.Place.Fields), o.Fields...)
			l, coll := LocationOf(ir.Place{Root: u.Place.Root, Fields: fields}, a.maxLen)
			pending[l] = lattice.Join(pending[l], o.Value.Substitute(subst))
			collapsed[l] = collapsed[l] || coll
			if !written[l] {
				written[l] = true
				writers[l]++
			}
		}
		for _, f := range sum.Flows {
			a.liftFlow(call, f, subst)
		}
	}

	locs := make([]Location, 0, len(pending))
	for l := range pending {
		locs = append(locs, l)
	}
	// parents are written before their fields
	slices.Sort(locs)
	for _, l := range locs {
		if writers[l] == len(callees) && !collapsed[l] {
			s.Set(l, pending[l])
		} else {
			s.Add(l, pending[l])
		}
	}
	return result
}

// substitution returns the function replacing the formal origins of the callee with the values of the arguments of
// the call in state s. Formal origins with an access path are replaced with the value of the same path in the
// argument, when the argument is a place.
func (a *intraAnalysis) substitution(s *State, call *ir.Call, in actuals,
	callee *ir.Procedure) func(lattice.Taint) lattice.Value {
	name := callee.QualifiedName()
	return func(t lattice.Taint) lattice.Value {
		o := t.Origin
		if !o.IsFormal() {
			return lattice.FromTaints(t)
		}
		if o.Procedure != name {
			return lattice.Clean
		}
		v := in.at(o.Index)
		if o.Path != "" {
			if u, ok := call.Arg(o.Index).(ir.Use); ok {
				fields := append(slices.Clone(u.Place.Fields), strings.Split(o.Path[1:], ".")...)
				v = s.Read(ir.Place{Root: u.Place.Root, Fields: fields})
			}
		}
		return v.Through(t)
	}
}

// liftFlow adds the flow of a callee to the flows of the procedure when the taint reaching the sink comes from the
// arguments of the call. Flows from sources in the callee are reported in the callee.
func (a *intraAnalysis) liftFlow(call *ir.Call, f *SinkFlow, subst func(lattice.Taint) lattice.Value) {
	v := f.Value.
		Filter(func(t lattice.Taint) bool { return t.Origin.IsFormal() }).
		Substitute(subst).
		Filter(relevantTo(f.Kind))
	if v.IsClean() {
		return
	}
	a.addFlow(&SinkFlow{
		Sink:  f.Sink,
		Arg:   f.Arg,
		Kind:  f.Kind,
		Value: v,
		Trace: append([]ir.Pos{call.At}, f.Trace...),
	})
}
