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

package taint

import (
	"bytes"
	"errors"
	"testing"

	"github.com/awslabs/svctaint/analysis/catalog"
	"github.com/awslabs/svctaint/analysis/config"
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/analysis/lattice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func analyze(t *testing.T, cfg *config.Config, prog *ir.Program) AnalysisResult {
	result, err := Analyze(quietLogger(cfg), cfg, prog)
	if err != nil {
		t.Fatalf("taint analysis returned error %v", err)
	}
	return result
}

func findingsIn(result AnalysisResult, proc string) []*Finding {
	var res []*Finding
	for _, f := range result.Findings {
		if f.Procedure == proc {
			res = append(res, f)
		}
	}
	return res
}

func TestEndpoints(t *testing.T) {
	result := runTest(t, "endpoints", nil)
	assert.Len(t, result.Endpoints, 23)
	for _, ep := range result.Endpoints {
		assert.NotEqual(t, "endpoints::Service1::private_not_endpoint_ok", ep.Name())
	}
}

func TestInterprocedural(t *testing.T) {
	runTest(t, "interprocedural", nil)
}

func TestFindingOrigins(t *testing.T) {
	result := runTest(t, "endpoints", nil)

	fs := findingsIn(result, "endpoints::Service1::service1_endpoint_bad")
	require.Len(t, fs, 1)
	f := fs[0]
	assert.Equal(t, catalog.RemoteCodeExecutionRisk, f.Issue)
	assert.Equal(t, "system", f.Sink)
	assert.Equal(t, 0, f.Arg)
	assert.Equal(t, lattice.ShellCommand, f.Kind)
	assert.Equal(t, lattice.Origin{
		Type:      lattice.EndpointParameter,
		Procedure: "endpoints::Service1::service1_endpoint_bad",
		Index:     0,
		Name:      "formal",
	}, f.Origin())
	assert.Equal(t, f.CallSite(), f.SinkSite())

	fs = findingsIn(result, "endpoints::Service1::user_controlled_endpoint_to_sql_bad")
	require.Len(t, fs, 1)
	assert.Equal(t, lattice.ConfiguredParameter, fs[0].Origin().Type)
}

func TestDeduplication(t *testing.T) {
	result := runTest(t, "interprocedural", nil)

	// two flows from the same call site with the same issue type are reported once
	fs := findingsIn(result, "svc::Handler::twice_bad")
	require.Len(t, fs, 1)
	assert.Len(t, fs[0].Origins, 2)
	assert.Len(t, fs[0].Trace, 2)

	fs = findingsIn(result, "read_env")
	require.Len(t, fs, 1)
	assert.Equal(t, lattice.SourceCall, fs[0].Origin().Type)
	assert.Equal(t, "getenv", fs[0].Origin().Name)
}

func TestTraces(t *testing.T) {
	result := runTest(t, "interprocedural", nil)
	fs := findingsIn(result, "svc::Handler::through_helper_bad")
	require.Len(t, fs, 1)
	callee := result.State.Program.Procedure("run_command")
	assert.Equal(t, []ir.Pos{fs[0].CallSite(), callee.Calls()[1].At}, fs[0].Trace)
}

func TestUnresolvedConstantPolicy(t *testing.T) {
	result := runTest(t, "endpoints", func(cfg *config.Config) {
		cfg.UnresolvedConstantPolicy = config.UnresolvedIgnore
	})
	assert.Empty(t, findingsIn(result, "endpoints::Service1::endpoint_to_curl_url_unknown_exp_bad"))
	assert.Len(t, findingsIn(result, "endpoints::Service1::endpoint_to_curl_url_bad"), 1)
	assert.Len(t, findingsIn(result, "endpoints::Service1::endpoint_to_curl_url_exp_bad"), 1)
}

func TestScalarFields(t *testing.T) {
	result := runTest(t, "endpoints", func(cfg *config.Config) {
		cfg.TaintScalarFields = true
	})
	fs := findingsIn(result, "endpoints::Service1::service1_endpoint_struct_int_field_ok")
	require.Len(t, fs, 1)
	assert.Equal(t, catalog.RemoteCodeExecutionRisk, fs[0].Issue)
}

func TestSanitizedFlowsNotReported(t *testing.T) {
	result := runTest(t, "endpoints", func(cfg *config.Config) {
		cfg.ReportSanitizedFlows = false
	})
	assert.Empty(t, findingsIn(result, "endpoints::Service1::service1_endpoint_sql_sanitized_bad"))
	for _, f := range result.Findings {
		assert.NotEqual(t, catalog.UserControlledSQLRisk, f.Issue)
	}
}

func TestSanitizedFlowsReported(t *testing.T) {
	result := runTest(t, "endpoints", nil)
	fs := findingsIn(result, "endpoints::Service1::service1_endpoint_sql_sanitized_bad")
	require.Len(t, fs, 1)
	assert.Equal(t, catalog.UserControlledSQLRisk, fs[0].Issue)
	assert.True(t, fs[0].Sanitized)
	for _, f := range findingsIn(result, "endpoints::Service1::sanitized_shell_with_sql_bad") {
		assert.False(t, f.Sanitized)
	}

	var text bytes.Buffer
	require.NoError(t, TextReporter{W: &text, Traces: true}.Report(result))
	assert.Contains(t, text.String(), "sanitized for SqlQuery")
}

func TestProcedureFilter(t *testing.T) {
	result := runTest(t, "interprocedural", func(cfg *config.Config) {
		cfg.ProcedureFilter = "svc::Handler::through"
	})
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "svc::Handler::through_helper_bad", result.Findings[0].Procedure)
	// callees are summarized on demand
	_, ok := result.State.Cache.Lookup(result.State.Program.Procedure("run_command"))
	assert.True(t, ok)
	_, ok = result.State.Cache.Lookup(result.State.Program.Procedure("read_env"))
	assert.False(t, ok)
}

func TestSingleRoutine(t *testing.T) {
	parallel := runTest(t, "interprocedural", nil)
	sequential := runTest(t, "interprocedural", func(cfg *config.Config) {
		cfg.NumRoutines = 1
	})
	require.Equal(t, len(parallel.Findings), len(sequential.Findings))
	for i := range parallel.Findings {
		assert.Equal(t, parallel.Findings[i].String(), sequential.Findings[i].String())
	}
}

func TestInvalidProgram(t *testing.T) {
	prog, err := ir.LoadProgramBytes("bad.yaml", []byte(`
functions:
  - name: f
    body:
      - return
`))
	require.NoError(t, err)
	prog.Procedure("f").Blocks[0].Succs = []int{3}
	_, err = Analyze(quietLogger(config.NewDefault()), config.NewDefault(), prog)
	assert.ErrorContains(t, err, "invalid program")
}

func TestReporters(t *testing.T) {
	result := runTest(t, "interprocedural", nil)

	var text bytes.Buffer
	require.NoError(t, TextReporter{W: &text, Traces: true}.Report(result))
	assert.Contains(t, text.String(), "SHELL_INJECTION")
	assert.Contains(t, text.String(), "also from")
	assert.Contains(t, text.String(), "findings\n")

	var out bytes.Buffer
	require.NoError(t, YAMLReporter{W: &out}.Report(result))
	var report struct {
		RunID    string `yaml:"run-id"`
		Findings []struct {
			Issue     string   `yaml:"issue"`
			Procedure string   `yaml:"procedure"`
			Origins   []string `yaml:"origins"`
		} `yaml:"findings"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, result.RunID.String(), report.RunID)
	require.Len(t, report.Findings, len(result.Findings))
	for i, f := range report.Findings {
		assert.Equal(t, string(result.Findings[i].Issue), f.Issue)
		assert.NotEmpty(t, f.Origins)
	}
}

// failingWriter fails every write after the first n.
type failingWriter struct {
	n int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n == 0 {
		return 0, errors.New("disk full")
	}
	w.n--
	return len(p), nil
}

func TestTextReporterWriteError(t *testing.T) {
	result := runTest(t, "interprocedural", nil)
	require.NotEmpty(t, result.Findings)
	// the first line of each finding is followed by its trace
	for n := 1; n <= 2; n++ {
		err := TextReporter{W: &failingWriter{n: n}, Traces: true}.Report(result)
		assert.EqualError(t, err, "disk full")
	}
}

func TestWriteReportFile(t *testing.T) {
	dir := t.TempDir()
	result := runTest(t, "interprocedural", func(cfg *config.Config) {
		cfg.ReportsDir = dir
	})
	name, err := WriteReportFile(result)
	require.NoError(t, err)
	assert.FileExists(t, name)
	assert.Contains(t, name, dir)
}
