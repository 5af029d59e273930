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
	"embed"
	"io"
	"path"
	"testing"

	"github.com/awslabs/svctaint/analysis/config"
	"github.com/awslabs/svctaint/internal/analysistest"
)

//go:embed testdata
var testfsys embed.FS

// checkExpectedFindings checks that every finding has been annotated with its issue type at its call site, and
// that every annotation has a finding.
func checkExpectedFindings(t *testing.T, findings []*Finding, expect map[analysistest.LPos]map[string]bool) {
	seen := make(map[analysistest.LPos]map[string]bool)
	for _, f := range findings {
		pos := analysistest.RelPos(f.CallSite())
		if _, ok := seen[pos]; !ok {
			seen[pos] = map[string]bool{}
		}
		issue := string(f.Issue)
		if expect[pos][issue] {
			seen[pos][issue] = true
		} else {
			t.Errorf("false positive: %s\n", f)
		}
	}

	for pos, issues := range expect {
		for issue := range issues {
			if !seen[pos][issue] {
				t.Errorf("failed to detect %s at %s\n", issue, pos)
			}
		}
	}
}

// runTest runs the analysis on the program.yaml of the directory dirName of the test data, with its config.yaml,
// and checks the findings against the annotations of the program. The configuration can be modified by update
// before the analysis runs.
func runTest(t *testing.T, dirName string, update func(*config.Config)) AnalysisResult {
	dir := path.Join("testdata", dirName)
	program, cfg := analysistest.LoadTest(t, testfsys, dir)
	if update != nil {
		update(cfg)
	}
	result := analyze(t, cfg, program)
	if update == nil {
		checkExpectedFindings(t, result.Findings, analysistest.GetExpectedFindings(t, testfsys, dir))
	}
	return result
}

func quietLogger(cfg *config.Config) *config.LogGroup {
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(io.Discard)
	return logger
}
