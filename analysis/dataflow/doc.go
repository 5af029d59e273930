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

/*
The dataflow package implements the core of the taint analysis: the intra-procedural propagation of taint values over
the control-flow graph of a procedure, and the procedure summaries that make the analysis inter-procedural.

The first object to build is an instance of the [AnalyzerState], the context of one analysis run. Assuming you have a
program prog, configuration cfg and logger log, you can build the state with:

	state, err := dataflow.NewAnalyzerState(prog, log, cfg)

The state contains the catalog of sources, sinks and sanitizers, the call graph of the program and the summary cache.

To get the summary of a procedure, ask the cache:

	summary := state.Cache.Summary(proc)

Summaries are built on demand, once per procedure, and callees are summarized before their callers. A summary is
expressed in terms of the formals of the procedure: every formal (and the receiver) starts with a symbolic taint
value with a [lattice.Formal] origin, and the summary records the values that reach the result, the formals passed by
reference and the sinks. At each call site, the formal origins are replaced by the taint values of the arguments.

The procedures of a strongly connected component of the call graph are summarized together: when a procedure calls a
member of its component whose summary is not built yet, the call is approximated by a provisional summary where every
output is clean.
*/
package dataflow
