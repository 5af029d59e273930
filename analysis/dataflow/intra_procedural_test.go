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
	"io"
	"testing"

	"github.com/awslabs/svctaint/analysis/config"
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/analysis/lattice"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
user-controlled-sources:
  - method: getenv
    position: return
  - method: read_input
    position: 0
sanitizers:
  - method: __infer_shell_sanitizer
    kind: ShellCommand
  - method: __infer_sql_sanitizer
    kind: SqlQuery
sinks:
  - method: __infer_sql_sink
    position: 0
    kind: SqlQuery
`

const testProgram = `
file: flows.cpp
constants:
  CURLOPT_URL: 10002
types:
  - name: request
    fields: [std::string s, int i]
functions:
  - name: direct
    params: [std::string cmd]
    body:
      - call system(cmd)
  - name: sanitized
    params: [std::string cmd]
    body:
      - x = call __infer_shell_sanitizer(cmd)
      - call system(x)
  - name: set_out
    params: ["std::string& out", std::string in]
    body:
      - out = in
  - name: store
    params: [request* r, std::string s]
    body:
      - r.s = s
  - name: identity
    params: [std::string s]
    body:
      - return s
  - name: caller
    params: [std::string a]
    body:
      - y = call identity(a)
      - call set_out(z, y)
      - call direct(z)
  - name: field_caller
    params: [std::string a, std::string b]
    body:
      - call store(req, a)
      - req.i = b
      - call __infer_sql_sink(req.s)
  - name: loop
    params: [std::string cmd]
    blocks:
      - instrs:
          - x = "safe"
        succs: [1]
      - instrs:
          - call system(x)
        succs: [2, 3]
      - instrs:
          - x = cmd
        succs: [1]
      - instrs:
          - return
  - name: from_source
    body:
      - s = call getenv("X")
      - call system(s)
  - name: out_source
    body:
      - call read_input(buf)
      - call popen(buf, "r")
  - name: curl
    params: [std::string url, int i]
    body:
      - call curl_easy_setopt(h, $CURLOPT_URL, url)
      - call curl_easy_setopt(h, 0, url)
      - call curl_easy_setopt(h, i + 17, url)
  - name: rec_a
    params: [std::string s]
    body:
      - call rec_b(s)
      - call system(s)
  - name: rec_b
    params: [std::string s]
    body:
      - call rec_a(s)
  - name: chain_a
    params: [std::string s]
    body:
      - call chain_b(s)
  - name: chain_b
    params: [std::string s]
    body:
      - call chain_c(s)
  - name: chain_c
    params: [std::string s]
    body:
      - call system(s)
  - name: system
    params: [const char* command]
    returns: int
`

func newTestState(t *testing.T, program string, cfgSrc string) *AnalyzerState {
	prog, err := ir.LoadProgramBytes("flows.yaml", []byte(program))
	require.NoError(t, err)
	cfg, err := config.LoadBytes([]byte(cfgSrc))
	require.NoError(t, err)
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(io.Discard)
	state, err := NewAnalyzerState(prog, logger, cfg)
	require.NoError(t, err)
	return state
}

func summaryOf(t *testing.T, state *AnalyzerState, name string) *Summary {
	proc := state.Program.Procedure(name)
	require.NotNil(t, proc, name)
	return state.Cache.Summary(proc)
}

func formal(proc string, index int, name string) lattice.Value {
	return lattice.Tainted(lattice.FormalOrigin(proc, index, name, ""), lattice.UserControlled)
}

// callSite returns the position of the i-th call of the procedure.
func callSite(state *AnalyzerState, proc string, i int) ir.Pos {
	return state.Program.Procedure(proc).Calls()[i].At
}

var cmpValues = cmp.Comparer(func(a, b lattice.Value) bool { return a.Equal(b) })

func TestDirectFlow(t *testing.T) {
	state := newTestState(t, testProgram, testConfig)
	s := summaryOf(t, state, "direct")
	want := []*SinkFlow{{
		Sink:  "system",
		Arg:   0,
		Kind:  lattice.ShellCommand,
		Value: formal("direct", 0, "cmd"),
		Trace: []ir.Pos{callSite(state, "direct", 0)},
	}}
	if diff := cmp.Diff(want, s.Flows, cmpValues); diff != "" {
		t.Errorf("flows mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, s.Truncated)
	assert.False(t, s.Provisional)
	assert.Empty(t, s.Outputs)
	assert.True(t, s.Result.IsClean())
}

func TestSanitizedFlow(t *testing.T) {
	state := newTestState(t, testProgram, testConfig)
	s := summaryOf(t, state, "sanitized")
	require.Len(t, s.Flows, 1)
	v := s.Flows[0].Value
	assert.True(t, v.IsSanitizedFor(lattice.ShellCommand))
	taints := v.Taints()
	require.Len(t, taints, 1)
	assert.False(t, taints[0].Kinds.Has(lattice.ShellCommand))
	// other kinds are still tainted
	assert.True(t, taints[0].Kinds.Has(lattice.SQLQuery))
}

func TestOutputsAndResult(t *testing.T) {
	state := newTestState(t, testProgram, testConfig)

	id := summaryOf(t, state, "identity")
	assert.True(t, id.Result.Equal(formal("identity", 0, "s")))
	assert.Empty(t, id.Outputs, "formals passed by value are not outputs")

	out := summaryOf(t, state, "set_out")
	require.Len(t, out.Outputs, 1)
	assert.Equal(t, 0, out.Outputs[0].Index)
	assert.Empty(t, out.Outputs[0].Fields)
	assert.True(t, out.Outputs[0].Value.Equal(formal("set_out", 1, "in")))

	store := summaryOf(t, state, "store")
	require.Len(t, store.Outputs, 1)
	assert.Equal(t, []string{"s"}, store.Outputs[0].Fields)
}

func TestFlowThroughCallees(t *testing.T) {
	state := newTestState(t, testProgram, testConfig)
	s := summaryOf(t, state, "caller")
	want := []*SinkFlow{{
		Sink:  "system",
		Arg:   0,
		Kind:  lattice.ShellCommand,
		Value: formal("caller", 0, "a"),
		Trace: []ir.Pos{callSite(state, "caller", 2), callSite(state, "direct", 0)},
	}}
	if diff := cmp.Diff(want, s.Flows, cmpValues); diff != "" {
		t.Errorf("flows mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldOutputs(t *testing.T) {
	state := newTestState(t, testProgram, testConfig)
	s := summaryOf(t, state, "field_caller")
	require.Len(t, s.Flows, 1)
	assert.True(t, s.Flows[0].Value.Equal(lattice.Tainted(lattice.FormalOrigin("field_caller", 0, "a", ""),
		lattice.UserControlled)), "only the field written by the callee flows to the sink, got %s", s.Flows[0].Value)
}

func TestLoopReachesFixpoint(t *testing.T) {
	state := newTestState(t, testProgram, testConfig)
	s := summaryOf(t, state, "loop")
	require.Len(t, s.Flows, 1)
	assert.True(t, s.Flows[0].Value.Equal(formal("loop", 0, "cmd")))
	assert.False(t, s.Truncated)
}

func TestFixpointBound(t *testing.T) {
	state := newTestState(t, testProgram, testConfig+"options: {max-fixpoint-iterations: 2}\n")
	s := summaryOf(t, state, "loop")
	assert.True(t, s.Truncated)
	// the second visit of the sink block was cut off
	assert.Empty(t, s.Flows)
}

func TestSourceCalls(t *testing.T) {
	state := newTestState(t, testProgram, testConfig)
	s := summaryOf(t, state, "from_source")
	require.Len(t, s.Flows, 1)
	taints := s.Flows[0].Value.Taints()
	require.Len(t, taints, 1)
	o := taints[0].Origin
	assert.Equal(t, lattice.SourceCall, o.Type)
	assert.Equal(t, "getenv", o.Name)
	assert.Equal(t, "from_source", o.Procedure)
	assert.Equal(t, callSite(state, "from_source", 0).String(), o.Site)

	// flows from sources are kept when the summary is instantiated without any tainted formal
	assert.Len(t, s.Instantiate(NewState(3)), 1)
	assert.Empty(t, summaryOf(t, state, "direct").Instantiate(NewState(3)))

	out := summaryOf(t, state, "out_source")
	require.Len(t, out.Flows, 1)
	assert.Equal(t, "popen", out.Flows[0].Sink)
	assert.Equal(t, lattice.SourceCall, out.Flows[0].Value.Taints()[0].Origin.Type)
}

func TestKeyedSink(t *testing.T) {
	state := newTestState(t, testProgram, testConfig)
	s := summaryOf(t, state, "curl")
	var sites []ir.Pos
	for _, f := range s.Flows {
		assert.Equal(t, lattice.NetworkURL, f.Kind)
		assert.Equal(t, 2, f.Arg)
		sites = append(sites, f.Site())
	}
	assert.ElementsMatch(t, []ir.Pos{callSite(state, "curl", 0), callSite(state, "curl", 2)}, sites)

	state = newTestState(t, testProgram, testConfig+"options: {unresolved-constant-policy: ignore}\n")
	s = summaryOf(t, state, "curl")
	require.Len(t, s.Flows, 1)
	assert.Equal(t, callSite(state, "curl", 0), s.Flows[0].Site())
}

func TestInstantiate(t *testing.T) {
	state := newTestState(t, testProgram, testConfig)
	s := summaryOf(t, state, "caller")
	entry := NewState(3)
	entry.Set("a", tainted)
	flows := s.Instantiate(entry)
	require.Len(t, flows, 1)
	assert.True(t, flows[0].Value.Equal(tainted), "got %s", flows[0].Value)
	assert.Len(t, s.Flows, 1, "instantiation does not modify the summary")
	assert.True(t, s.Flows[0].Value.Equal(formal("caller", 0, "a")))
}

func TestRecursionUsesProvisionalSummaries(t *testing.T) {
	state := newTestState(t, testProgram, testConfig)
	a := state.Program.Procedure("rec_a")
	b := state.Program.Procedure("rec_b")
	assert.Equal(t, state.CallGraph.ComponentOf(a), state.CallGraph.ComponentOf(b))
	assert.Equal(t, 0, state.CallGraph.Height(state.CallGraph.ComponentOf(a)))

	sa := state.Cache.Summary(a)
	sb := state.Cache.Summary(b)
	assert.False(t, sa.Provisional)
	assert.False(t, sb.Provisional)
	require.Len(t, sa.Flows, 1)
	assert.Equal(t, []ir.Pos{callSite(state, "rec_a", 1)}, sa.Flows[0].Trace)
	// rec_b is built after rec_a, and sees its flow
	require.Len(t, sb.Flows, 1)
	assert.Equal(t, []ir.Pos{callSite(state, "rec_b", 0), callSite(state, "rec_a", 1)}, sb.Flows[0].Trace)
	assert.True(t, sb.Flows[0].Value.Equal(formal("rec_b", 0, "s")))
}

func TestSummaryDepthBound(t *testing.T) {
	state := newTestState(t, testProgram, testConfig+"options: {max-summary-depth: 1}\n")
	s := summaryOf(t, state, "chain_a")
	assert.Empty(t, s.Flows, "the summary of chain_c is beyond the depth bound")
	_, built := state.Cache.Lookup(state.Program.Procedure("chain_c"))
	assert.False(t, built)

	c := summaryOf(t, state, "chain_c")
	assert.False(t, c.Provisional)
	assert.Len(t, c.Flows, 1)
	cg := state.CallGraph
	assert.Equal(t, 2, cg.Height(cg.ComponentOf(state.Program.Procedure("chain_a"))))
}

func TestSummaryDepthBoundIsOrderIndependent(t *testing.T) {
	cfg := testConfig + "options: {max-summary-depth: 1}\n"

	first := newTestState(t, testProgram, cfg)
	b1 := summaryOf(t, first, "chain_b")

	second := newTestState(t, testProgram, cfg)
	a := summaryOf(t, second, "chain_a")
	b2 := summaryOf(t, second, "chain_b")

	assert.Empty(t, a.Flows)
	require.Len(t, b1.Flows, 1)
	require.Len(t, b2.Flows, 1)
	assert.Equal(t, b1.Flows[0].Trace, b2.Flows[0].Trace)
	published, ok := second.Cache.Lookup(second.Program.Procedure("chain_b"))
	require.True(t, ok)
	assert.Same(t, b2, published)
	_, ok = second.Cache.Lookup(second.Program.Procedure("chain_a"))
	assert.False(t, ok, "summaries cut by the depth bound are not published")

	// a bounded summary is built once per depth
	builds := second.Cache.Builds()
	assert.Same(t, a, summaryOf(t, second, "chain_a"))
	assert.Equal(t, builds, second.Cache.Builds())
}

func TestProceduresWithoutBody(t *testing.T) {
	state := newTestState(t, testProgram, testConfig)
	s := summaryOf(t, state, "system")
	assert.True(t, s.Provisional)
	assert.Empty(t, s.Flows)
	assert.Equal(t, -1, state.CallGraph.ComponentOf(state.Program.Procedure("system")))
}
