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
package main

import (
	"fmt"
	"os"

	"github.com/awslabs/svctaint/cmd/svctaint/endpoints"
	"github.com/awslabs/svctaint/cmd/svctaint/summaries"
	"github.com/awslabs/svctaint/cmd/svctaint/taint"
	"github.com/awslabs/svctaint/cmd/svctaint/tools"
)

const usage = `svctaint: taint analysis of service endpoints
Usage:
  svctaint [tool] [options] <program.yaml>
Tools:
  - taint: reports the flows of user-controlled data to the sinks of the program
  - endpoints: lists the endpoints of the program and the seeds of their parameters
  - summaries: prints the summaries of the procedures of the program
Examples:
  Run the taint analysis: svctaint taint -config config.yaml program.yaml
  Write the findings as YAML: svctaint taint -format yaml program.yaml`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "error: expected subcommand\n%s\n", usage)
		os.Exit(2)
	}

	// hardcode help flag
	if snd := os.Args[1]; snd == "-help" || snd == "--help" {
		fmt.Println(usage)
		return
	}

	// hardcode version flag
	if snd := os.Args[1]; snd == "-version" || snd == "--version" {
		fmt.Println(tools.Version)
		return
	}

	args := os.Args[2:]
	switch cmd := os.Args[1]; cmd {
	case "endpoints":
		flags, err := tools.NewCommonFlags("endpoints", args, endpoints.Usage)
		if err != nil {
			errExit(err)
		}
		if err := endpoints.Run(flags); err != nil {
			errExit(err)
		}
	case "summaries":
		flags, err := tools.NewCommonFlags("summaries", args, summaries.Usage)
		if err != nil {
			errExit(err)
		}
		if err := summaries.Run(flags); err != nil {
			errExit(err)
		}
	case "taint":
		flags, err := taint.NewFlags(args)
		if err != nil {
			errExit(err)
		}
		if err := taint.Run(flags); err != nil {
			errExit(err)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: unexpected command: %v\n", cmd)
		fmt.Fprintf(os.Stderr, "usage:\n%s\n", usage)
		os.Exit(2)
	}
}

func errExit(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	hint := tools.HintForErrorMessage(err.Error())
	if hint != "" {
		fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	}
	os.Exit(2)
}
