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
	"io"

	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/internal/formatutil"
)

func printMissingModelMessage(state *AnalyzerState, caller *ir.Procedure, call *ir.Call) {
	if !state.Config.Verbose() {
		return
	}
	state.Logger.Debugf("| %s has no body and no library model (call in %s).\n",
		formatutil.Yellow(call.Callee), caller.QualifiedName())
	state.Logger.Debugf("| All its arguments flow to its result. Add a model to the library summaries if needed.\n")
	state.Logger.Debugf("|_ See call site: %s\n", call.At)
}

func printProvisionalSummaryMessage(state *AnalyzerState, caller *ir.Procedure, callee *ir.Procedure) {
	if !state.Config.Verbose() {
		return
	}
	state.Logger.Debugf("| %s: summary of %s used before it was built (recursive call from %s).\n",
		formatutil.Yellow("WARNING"), formatutil.Yellow(callee.QualifiedName()), caller.QualifiedName())
}

// WriteSummaries writes the summaries of all the procedures of the program with a body to w, in call graph order.
// Summaries are built if needed.
func WriteSummaries(state *AnalyzerState, w io.Writer) {
	for _, component := range state.CallGraph.Components() {
		for _, proc := range component {
			fmt.Fprint(w, state.Cache.Summary(proc))
		}
	}
}
