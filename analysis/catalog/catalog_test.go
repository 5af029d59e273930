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

package catalog

import (
	"bytes"
	"testing"

	"github.com/awslabs/svctaint/analysis/config"
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/analysis/lattice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
user-controlled-sources:
  - method: endpoints::Service1::user_controlled_endpoint_to_sql_bad
  - method: getenv
    position: return
  - method: read_input
    position: 1
    kind: SqlQuery
  - method: bad_source
    position: first
sinks:
  - method: __infer_sql_sink
    position: 0
    kind: SqlQuery
  - method: system
    position: 0
    kind: SqlQuery
  - method: bad_sink
    kind: xss
sanitizers:
  - method: __infer_shell_sanitizer
    kind: ShellCommand
  - method: escape_.*
    kinds: [SqlQuery, ShellCommand]
  - method: no_kind
`

type constants map[string]int64

func (c constants) Constant(name string) (int64, bool) {
	v, ok := c[name]
	return v, ok
}

func newTestCatalog(t *testing.T, src string) (*Catalog, string) {
	cfg, err := config.LoadBytes([]byte(src))
	require.NoError(t, err)
	var buf bytes.Buffer
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(&buf)
	return New(cfg, logger), buf.String()
}

func parseCall(t *testing.T, s string) *ir.Call {
	instr, err := ir.ParseInstr(s, ir.Pos{})
	require.NoError(t, err)
	return instr.(*ir.Call)
}

func TestMalformedEntriesAreSkipped(t *testing.T) {
	c, logs := newTestCatalog(t, testConfig)
	assert.Contains(t, logs, "ignoring user-controlled source bad_source@first")
	assert.Contains(t, logs, "ignoring sink bad_sink")
	assert.Contains(t, logs, "ignoring sanitizer no_kind")
	assert.Nil(t, c.Lookup("bad_source"))
	assert.Nil(t, c.Lookup("bad_sink"))
	assert.Nil(t, c.Lookup("no_kind"))
}

func TestMistypedEntriesAreSkipped(t *testing.T) {
	c, logs := newTestCatalog(t, `
sinks:
  - method: curl_setopt_wrapper
    position: 2
    kind: NetworkURL
    key-position: 1
    key-values: [CURLOPT_URL]
  - method: __infer_sql_sink
    position: 0
    kind: SqlQuery
`)
	assert.Contains(t, logs, "ignoring sinks entry at line 3")
	assert.Nil(t, c.Lookup("curl_setopt_wrapper"))
	sink, ok := c.Lookup("__infer_sql_sink").(SinkRole)
	require.True(t, ok)
	assert.Equal(t, lattice.KindsOf(lattice.SQLQuery), sink.Matchers[0].Kinds)
}

func TestConfigurationWinsOverBuiltins(t *testing.T) {
	c, _ := newTestCatalog(t, testConfig)
	sink, ok := c.Lookup("system").(SinkRole)
	require.True(t, ok)
	require.Len(t, sink.Matchers, 1)
	assert.Equal(t, lattice.KindsOf(lattice.SQLQuery), sink.Matchers[0].Kinds)

	// without configuration, system is a shell sink
	d, _ := newTestCatalog(t, "")
	sink, ok = d.Lookup("system").(SinkRole)
	require.True(t, ok)
	assert.Equal(t, lattice.KindsOf(lattice.ShellCommand), sink.Matchers[0].Kinds)
}

func TestLookupRoles(t *testing.T) {
	c, _ := newTestCatalog(t, testConfig)

	src, ok := c.Lookup("getenv").(SourceRole)
	require.True(t, ok)
	assert.Equal(t, lattice.UserControlled, src.Returns())
	assert.False(t, src.HasParams())

	src, ok = c.Lookup("read_input").(SourceRole)
	require.True(t, ok)
	assert.Equal(t, lattice.KindsOf(lattice.SQLQuery), src.At(1))
	assert.True(t, src.At(0).IsEmpty())
	assert.True(t, src.Returns().IsEmpty())

	san, ok := c.Lookup("escape_shell").(SanitizerRole)
	require.True(t, ok)
	assert.Equal(t, lattice.KindsOf(lattice.SQLQuery, lattice.ShellCommand), san.Kinds)

	san, ok = c.Lookup("__infer_shell_sanitizer").(SanitizerRole)
	require.True(t, ok)
	assert.Equal(t, lattice.KindsOf(lattice.ShellCommand), san.Kinds)

	assert.Nil(t, c.Lookup("printf"))
}

func TestFormalSources(t *testing.T) {
	c, _ := newTestCatalog(t, testConfig)
	proc := &ir.Procedure{Name: "user_controlled_endpoint_to_sql_bad", Class: "endpoints::Service1"}
	src, ok := c.FormalSources(proc)
	require.True(t, ok)
	assert.Equal(t, lattice.UserControlled, src.At(0))
	assert.True(t, src.At(ir.ReceiverPosition).IsEmpty())

	_, ok = c.FormalSources(&ir.Procedure{Name: "getenv"})
	assert.False(t, ok, "return sources do not seed formals")
}

func TestBuiltinSinks(t *testing.T) {
	c, _ := newTestCatalog(t, "")
	for method, args := range map[string][]int{
		"system":                              {0},
		"popen":                               {0},
		"sqlite3_exec":                        {1},
		"sqlite3_prepare_v2":                  {1},
		"mysql_real_query":                    {1},
		"PQexec":                              {1},
		"open":                                {0},
		"openat":                              {1},
		"creat":                               {0},
		"fopen":                               {0},
		"freopen":                             {0},
		"rename":                              {0, 1},
		"std::basic_ofstream::basic_ofstream": {0},
		"std::basic_ifstream<char>::basic_ifstream": {0},
		"std::basic_fstream::open":                  {0},
	} {
		sink, ok := c.Lookup(method).(SinkRole)
		require.True(t, ok, method)
		assert.Equal(t, args, sink.Matchers[0].Args, method)
	}
	sink, ok := c.Lookup("execvp").(SinkRole)
	require.True(t, ok)
	assert.True(t, sink.Matchers[0].AppliesTo(3))
	assert.False(t, sink.Matchers[0].AppliesTo(ir.ReceiverPosition))

	assert.Nil(t, c.Lookup("opendir"))
	assert.Nil(t, c.Lookup("std::basic_ofstream::close"))
	assert.Nil(t, c.Lookup("my_system"))
}

func TestCurlKeyedSink(t *testing.T) {
	env := constants{"CURLOPT_URL": 10002}
	for _, test := range []struct {
		call    string
		policy  string
		matches bool
	}{
		{"call curl_easy_setopt(h, $CURLOPT_URL, s)", "", true},
		{"call curl_easy_setopt(h, 10002, s)", "", true},
		{"call curl_easy_setopt(h, 10000 + 2, s)", "", true},
		{"call curl_easy_setopt(h, i + 17, s)", "", true},
		{"call curl_easy_setopt(h, i + 17, s)", "options: {unresolved-constant-policy: ignore}", false},
		{"call curl_easy_setopt(h, 0, s)", "", false},
		{"call curl_easy_setopt(h, 1 + 2, s)", "", false},
		{"call curl_easy_setopt(h)", "", false},
	} {
		c, _ := newTestCatalog(t, test.policy)
		call := parseCall(t, test.call)
		sink, ok := c.Lookup(call.Callee).(SinkRole)
		require.True(t, ok)
		ks := c.SinkMatches(sink, call, 2, env)
		assert.Equal(t, test.matches, ks.Has(lattice.NetworkURL), "%s (%s)", test.call, test.policy)
		assert.True(t, c.SinkMatches(sink, call, 1, env).IsEmpty(), "only the url argument is checked")
	}
}

func TestIssueFor(t *testing.T) {
	for _, test := range []struct {
		class           lattice.SourceClass
		kind            lattice.Kind
		sanitized       bool
		reportSanitized bool
		want            IssueType
	}{
		{lattice.EndpointClass, lattice.ShellCommand, false, false, RemoteCodeExecutionRisk},
		{lattice.EndpointClass, lattice.SQLQuery, false, false, RemoteCodeExecutionRisk},
		{lattice.EndpointClass, lattice.SQLQuery, true, true, UserControlledSQLRisk},
		{lattice.EndpointClass, lattice.SQLQuery, true, false, ""},
		{lattice.EndpointClass, lattice.ShellCommand, true, true, ""},
		{lattice.EndpointClass, lattice.FileSystemPath, false, false, UntrustedFileRisk},
		{lattice.EndpointClass, lattice.NetworkURL, false, false, UntrustedURLRisk},
		{lattice.UserControlledClass, lattice.SQLQuery, false, false, SQLInjection},
		{lattice.UserControlledClass, lattice.ShellCommand, false, false, ShellInjection},
		{lattice.UserControlledClass, lattice.FileSystemPath, false, false, UntrustedFileRisk},
		{lattice.NoClass, lattice.ShellCommand, false, false, ""},
	} {
		issue, ok := IssueFor(test.class, test.kind, test.sanitized, test.reportSanitized)
		assert.Equal(t, test.want != "", ok)
		assert.Equal(t, test.want, issue)
	}
}
