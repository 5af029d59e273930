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
// Package summaries implements the front-end printing the procedure summaries of a program.
package summaries

import (
	"os"

	"github.com/awslabs/svctaint/analysis/dataflow"
	"github.com/awslabs/svctaint/cmd/svctaint/tools"
)

// Usage of the summaries tool
const Usage = ` Print the summaries of the procedures of a program, callees first.
Usage:
  svctaint summaries [options] <program.yaml>
`

// Run prints the summaries of the program named in flags on standard output.
func Run(flags tools.CommonFlags) error {
	cfg, err := tools.LoadConfig(flags)
	if err != nil {
		return err
	}
	prog, err := tools.LoadProgram(flags)
	if err != nil {
		return err
	}
	state, err := dataflow.NewAnalyzerState(prog, nil, cfg)
	if err != nil {
		return err
	}
	dataflow.WriteSummaries(state, os.Stdout)
	return nil
}
