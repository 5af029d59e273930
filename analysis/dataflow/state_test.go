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
	"bytes"
	"testing"

	"github.com/awslabs/svctaint/analysis/config"
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildProgram builds a program without the loader: f calls system on its parameter.
func buildProgram(t *testing.T, succs []int) *ir.Program {
	prog := ir.NewProgram()
	call, err := ir.ParseInstr("call system(cmd)", ir.Pos{File: "built.cpp", Line: 1})
	require.NoError(t, err)
	require.NoError(t, prog.AddProcedure(&ir.Procedure{
		Name:   "f",
		Params: []*ir.Param{{Name: "cmd", Type: ir.ParseType("std::string", nil)}},
		Blocks: []*ir.Block{{Index: 0, Instrs: []ir.Instr{call}, Succs: succs}},
	}))
	require.NoError(t, prog.AddProcedure(&ir.Procedure{Name: "system"}))
	return prog
}

func TestStateFinalizesProgram(t *testing.T) {
	prog := buildProgram(t, nil)
	require.False(t, prog.IsFinalized())
	cfg := config.NewDefault()
	state, err := NewAnalyzerState(prog, nil, cfg)
	require.NoError(t, err)
	assert.True(t, prog.IsFinalized())
	assert.Len(t, state.Program.AllProcedures(), 2)
	assert.Len(t, state.Cache.Summary(prog.Procedure("f")).Flows, 1)
}

func TestStateRejectsMalformedProgram(t *testing.T) {
	prog := buildProgram(t, []int{1})
	_, err := NewAnalyzerState(prog, nil, config.NewDefault())
	assert.ErrorContains(t, err, "invalid program: procedure f: block 0 has missing successor 1")
}

func TestStateLogsAreTaggedWithRun(t *testing.T) {
	cfg := config.NewDefault()
	state, err := NewAnalyzerState(buildProgram(t, nil), nil, cfg)
	require.NoError(t, err)
	var buf bytes.Buffer
	state.Logger.SetAllOutput(&buf)
	state.Logger.Infof("hello")
	assert.Contains(t, buf.String(), "["+state.RunID.String()[:8]+"] [INFO] hello")
}
