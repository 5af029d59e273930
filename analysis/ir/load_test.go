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

package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleProgram = `
file: sample.cpp
constants:
  CURLOPT_URL: 10002
types:
  - name: request
    fields: [std::string s, int i]
classes:
  - name: Base
    methods:
      - name: run
        params: [std::string cmd]
      - name: hidden
        visibility: private
        params: [std::string cmd]
  - name: Impl
    supers: [Base]
    fields: [request last]
    methods:
      - name: Impl
      - name: run
        params: [std::string cmd]
        body:
          - this.last.s = cmd
          - call system(cmd)
      - name: hidden
        params: [std::string cmd]
        body:
          - return
  - name: Deeper
    supers: [Impl]
    methods:
      - name: run
        params: [std::string cmd]
        blocks:
          - instrs: [x = cmd]
            succs: [1, 2]
          - instrs: [x = "safe"]
            succs: [2]
          - instrs: [call system(x)]
functions:
  - name: system
    params: [const char* command]
    returns: int
`

func TestLoadProgram(t *testing.T) {
	prog, err := LoadProgramBytes("ignored.yaml", []byte(sampleProgram))
	require.NoError(t, err)

	v, ok := prog.Constant("CURLOPT_URL")
	assert.True(t, ok)
	assert.Equal(t, int64(10002), v)

	run := prog.Procedure("Impl::run")
	require.NotNil(t, run)
	assert.True(t, run.HasBody())
	assert.True(t, run.HasReceiver())
	assert.Equal(t, []string{"Base::run"}, run.Overrides)
	require.Len(t, run.Blocks, 1)
	require.Len(t, run.Blocks[0].Instrs, 2)
	assert.Equal(t, "sample.cpp", run.Pos.File)
	assert.Equal(t, 25, run.Blocks[0].Instrs[1].Pos().Line)

	// private base methods are not overridden
	assert.Empty(t, prog.Procedure("Impl::hidden").Overrides)
	assert.True(t, prog.Procedure("Impl::Impl").IsConstructor())
	assert.Empty(t, prog.Procedure("Impl::Impl").Overrides)

	deeper := prog.Procedure("Deeper::run")
	assert.ElementsMatch(t, []string{"Impl::run", "Base::run"}, deeper.Overrides)
	assert.Equal(t, []int{1, 2}, deeper.Blocks[0].Succs)

	sys := prog.Procedure("system")
	require.NotNil(t, sys)
	assert.False(t, sys.HasBody())
	assert.Equal(t, String, sys.Params[0].Type.Kind)
	assert.Equal(t, "command", sys.Params[0].Name)

	impl := prog.Classes["Impl"]
	assert.True(t, impl.Type.FieldType([]string{"last", "i"}).IsScalar())
}

func TestImplementations(t *testing.T) {
	prog, err := LoadProgramBytes("sample.yaml", []byte(sampleProgram))
	require.NoError(t, err)

	var names []string
	for _, p := range prog.Implementations("Base::run") {
		names = append(names, p.QualifiedName())
	}
	// Base::run has no body
	assert.Equal(t, []string{"Deeper::run", "Impl::run"}, names)

	call := &Call{Callee: "Impl::run", Virtual: false}
	require.Len(t, prog.Callees(call), 1)
	call.Virtual = true
	assert.Len(t, prog.Callees(call), 2)
	assert.Empty(t, prog.Callees(&Call{Callee: "system"}))
}

func TestAllProceduresSorted(t *testing.T) {
	prog, err := LoadProgramBytes("sample.yaml", []byte(sampleProgram))
	require.NoError(t, err)
	var names []string
	for _, p := range prog.AllProcedures() {
		names = append(names, p.QualifiedName())
	}
	assert.Equal(t, []string{
		"Base::hidden", "Base::run", "Deeper::run", "Impl::Impl", "Impl::hidden", "Impl::run", "system",
	}, names)
}

func TestLoadRejectsMalformedPrograms(t *testing.T) {
	for name, src := range map[string]string{
		"missing successor": `
functions:
  - name: f
    blocks:
      - instrs: [return]
        succs: [3]
`,
		"unknown base class": `
classes:
  - name: A
    supers: [Missing]
`,
		"duplicate procedure": `
functions:
  - name: f
  - name: f
`,
		"bad instruction": `
functions:
  - name: f
    body: ["x = = y"]
`,
		"bad declaration": `
functions:
  - name: f
    params: [int]
`,
	} {
		_, err := LoadProgramBytes("bad.yaml", []byte(src))
		assert.Error(t, err, name)
	}
}
