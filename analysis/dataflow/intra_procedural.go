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
	"github.com/awslabs/svctaint/analysis/lattice"
	"golang.org/x/exp/maps"
	"golang.org/x/tools/container/intsets"
)

// IntraProceduralAnalysis computes the summary of the procedure. The analysis is a forward dataflow analysis over the
// blocks of the procedure that reaches a fixpoint, or stops after the maximum number of block visits set in the
// configuration, in which case the summary is marked as truncated.
//
// resolve returns the summaries of the procedures called by proc.
func IntraProceduralAnalysis(state *AnalyzerState, proc *ir.Procedure, resolve func(*ir.Procedure) *Summary) *Summary {
	a := &intraAnalysis{
		state:   state,
		proc:    proc,
		resolve: resolve,
		maxLen:  state.Config.MaxAccessPathLength,
		flows:   map[string]*SinkFlow{},
	}
	if proc.HasBody() {
		a.run()
	}
	return a.summary()
}

// intraAnalysis contains the information used by the intra-procedural analysis of one procedure.
type intraAnalysis struct {
	state   *AnalyzerState
	proc    *ir.Procedure
	resolve func(*ir.Procedure) *Summary
	maxLen  int

	// entry is the state at the entry of the procedure: every formal holds its symbolic value
	entry *State

	// in maps block indexes to the state at the entry of the block, nil for blocks not reached yet
	in []*State

	// exit is the join of the states at the exit points
	exit *State

	// result is the join of the returned values
	result lattice.Value

	flows     map[string]*SinkFlow
	truncated bool
}

func (a *intraAnalysis) entryState() *State {
	s := NewState(a.maxLen)
	name := a.proc.QualifiedName()
	if a.proc.HasReceiver() {
		o := lattice.FormalOrigin(name, lattice.ReceiverIndex, ir.ThisName, "")
		s.Set(Location(ir.ThisName), lattice.Tainted(o, lattice.UserControlled))
	}
	for i, p := range a.proc.Params {
		o := lattice.FormalOrigin(name, i, p.Name, "")
		s.Set(Location(p.Name), lattice.Tainted(o, lattice.UserControlled))
	}
	return s
}

func (a *intraAnalysis) run() {
	a.entry = a.entryState()
	a.in = make([]*State, len(a.proc.Blocks))
	a.in[0] = a.entry.Clone()

	maxVisits := a.state.Config.MaxFixpointIterations
	visits := 0
	var worklist intsets.Sparse
	worklist.Insert(0)
	var b int
	for worklist.TakeMin(&b) {
		if maxVisits > 0 && visits >= maxVisits {
			a.truncated = true
			a.state.Logger.Warnf("%s: fixpoint not reached after %d block visits, summary is truncated\n",
				a.proc.QualifiedName(), visits)
			return
		}
		visits++

		block := a.proc.Blocks[b]
		s := a.in[b].Clone()
		returned := false
		for _, instr := range block.Instrs {
			if a.transfer(s, instr) {
				returned = true
				break
			}
		}
		if returned || len(block.Succs) == 0 {
			a.addExit(s)
			continue
		}
		for _, succ := range block.Succs {
			if a.in[succ] == nil {
				a.in[succ] = s.Clone()
				worklist.Insert(succ)
			} else if a.in[succ].JoinWith(s) {
				worklist.Insert(succ)
			}
		}
	}
	a.state.Logger.Tracef("%s: fixpoint reached after %d block visits\n", a.proc.QualifiedName(), visits)
}

func (a *intraAnalysis) addExit(s *State) {
	if a.exit == nil {
		a.exit = s.Clone()
	} else {
		a.exit.JoinWith(s)
	}
}

// transfer updates the state with the effect of the instruction. It returns true if the instruction exits the
// procedure.
func (a *intraAnalysis) transfer(s *State, instr ir.Instr) bool {
	switch i := instr.(type) {
	case *ir.Assign:
		s.Write(i.Dst, a.eval(s, i.Src))
	case *ir.Call:
		a.call(s, i)
	case *ir.Return:
		if i.Value != nil {
			a.result = lattice.Join(a.result, a.eval(s, i.Value))
		}
		return true
	}
	return false
}

// eval returns the taint value of the expression. Constants are clean, and arithmetic joins its operands.
func (a *intraAnalysis) eval(s *State, e ir.Expr) lattice.Value {
	switch x := e.(type) {
	case ir.Use:
		return s.Read(x.Place)
	case ir.Binary:
		return lattice.Join(a.eval(s, x.X), a.eval(s, x.Y))
	default:
		return lattice.Clean
	}
}

func (a *intraAnalysis) addFlow(f *SinkFlow) {
	key := f.key()
	if prev, ok := a.flows[key]; ok {
		prev.Value = lattice.Join(prev.Value, f.Value)
		return
	}
	a.flows[key] = f
}

// summary builds the summary from the state of the analysis. The outputs are the locations of the receiver and of
// the formals passed by reference whose value at the exit differs from their value at the entry.
func (a *intraAnalysis) summary() *Summary {
	sum := &Summary{Procedure: a.proc, Result: a.result, Truncated: a.truncated}
	if a.exit != nil {
		outputs := map[string]int{}
		if a.proc.HasReceiver() {
			outputs[ir.ThisName] = lattice.ReceiverIndex
		}
		for i, p := range a.proc.Params {
			if p.Type.IsByReference() {
				outputs[p.Name] = i
			}
		}
		for _, l := range a.exit.Locations() {
			index, ok := outputs[l.Root()]
			if !ok {
				continue
			}
			v := a.exit.values[l]
			if v.Equal(a.entry.Lookup(l)) {
				continue
			}
			sum.Outputs = append(sum.Outputs, Output{Index: index, Fields: l.Fields(), Value: v})
		}
		sortOutputs(sum.Outputs)
	}
	sum.Flows = maps.Values(a.flows)
	sortFlows(sum.Flows)
	return sum
}
