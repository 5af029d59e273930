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

package tools

import (
	"strings"
	"testing"
)

func validateHint(t *testing.T, errorMsg string, containedHint string) {
	hint := HintForErrorMessage(errorMsg)
	if !strings.Contains(hint, containedHint) {
		t.Fatalf("incorrect hint %q; check and update error message if necessary", hint)
	}
}

func TestHintForFlagAfterFiles(t *testing.T) {
	errorMsg := "error: could not load program: expected one program file, got 2 arguments"
	containedHint := "all command line flags should be before the path"
	validateHint(t, errorMsg, containedHint)
}

func TestHintForFailedLoadProgram(t *testing.T) {
	errorMsg := "error: could not load program: could not read program p.yaml: no such file or directory\n"
	containedHint := "the path to a YAML program"
	validateHint(t, errorMsg, containedHint)
}

func TestHintForMalformedProgram(t *testing.T) {
	errorMsg := "error: could not load program: procedure f: block 0 has missing successor 3"
	containedHint := "the program is malformed"
	validateHint(t, errorMsg, containedHint)
}

func TestNoHint(t *testing.T) {
	if hint := HintForErrorMessage("taint analysis failed: analysis of f failed"); hint != "" {
		t.Fatalf("unexpected hint %q", hint)
	}
}
