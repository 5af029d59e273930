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

import "regexp"

// Captures errors happening before any analysis starts (program could not load)
var regexCouldNotLoad = regexp.MustCompile("could not load program")

// Captures the kind of error that happen when you put a flag at the end instead of the program file
var flagAfterProgram = regexp.MustCompile("expected one program file, got [2-9]")

// Captures the structural errors of the program
var invalidProgram = regexp.MustCompile("invalid program|missing successor|unknown (base|declaring) class")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	if regexCouldNotLoad.MatchString(errMsg) {
		if flagAfterProgram.MatchString(errMsg) {
			return "all command line flags should be before the path to the program to analyze"
		}
		if invalidProgram.MatchString(errMsg) {
			return "the program is malformed; check the successors of its blocks and the classes it declares"
		}
		return "make sure you have provided the path to a YAML program"
	}
	if invalidProgram.MatchString(errMsg) {
		return "the program is malformed; check the successors of its blocks and the classes it declares"
	}
	return ""
}
