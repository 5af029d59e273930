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
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/awslabs/svctaint/analysis/taint"
	"github.com/awslabs/svctaint/cmd/svctaint/tools"
	"github.com/awslabs/svctaint/internal/formatutil"
)

const usage = ` Perform taint analysis on the endpoints of your program.
Usage:
  svctaint taint [options] <program.yaml>
Examples:
  % svctaint taint -config config.yaml program.yaml
  % svctaint taint -format yaml -traces program.yaml
`

// Flags represents the parsed flags for the taint analysis.
type Flags struct {
	tools.CommonFlags
	format string
	traces bool
}

// NewFlags returns the parsed flags for the taint analysis with args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("taint")
	format := flags.FlagSet.String("format", "text", "format of the findings on standard output: text or yaml")
	traces := flags.FlagSet.Bool("traces", false, "print the call chain of every finding")
	tools.SetUsage(flags.FlagSet, usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	if *format != "text" && *format != "yaml" {
		return Flags{}, fmt.Errorf("unknown format %q, expected text or yaml", *format)
	}
	return Flags{CommonFlags: common, format: *format, traces: *traces}, nil
}

// Reporter returns the reporter selected by the flags, writing to w.
func (f Flags) Reporter(w io.Writer) taint.Reporter {
	if f.format == "yaml" {
		return taint.YAMLReporter{W: w}
	}
	return taint.TextReporter{W: w, Traces: f.traces}
}

// Run runs the taint analysis with flags.
func Run(flags Flags) error {
	logger := log.New(os.Stderr, "", log.Flags())

	taintConfig, err := tools.LoadConfig(flags.CommonFlags)
	if err != nil {
		return err
	}

	logger.Printf(formatutil.Faint("svctaint taint tool - " + tools.Version))
	logger.Printf(formatutil.Faint("Reading program") + "\n")

	program, err := tools.LoadProgram(flags.CommonFlags)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := taint.Analyze(nil, taintConfig, program)
	duration := time.Since(start)
	if err != nil {
		for _, err := range result.Errors {
			fmt.Fprintf(os.Stderr, "\terror: %v\n", err)
		}
		return fmt.Errorf("taint analysis failed: %v", err)
	}
	result.State.Logger.Infof("")
	result.State.Logger.Infof(strings.Repeat("*", 80))
	result.State.Logger.Infof("Analysis took %3.4f s", duration.Seconds())
	result.State.Logger.Infof("")
	if len(result.Findings) == 0 {
		result.State.Logger.Infof(
			"RESULT:\n\t\t%s", formatutil.Green("No taint flows detected ✓")) // safe %s
	} else {
		result.State.Logger.Errorf(
			"RESULT:\n\t\t%s", formatutil.Red("Taint flows detected!")) // safe %s
	}

	if err := flags.Reporter(os.Stdout).Report(result); err != nil {
		return fmt.Errorf("could not write findings: %v", err)
	}
	if taintConfig.ReportFindings {
		if _, err := taint.WriteReportFile(result); err != nil {
			return err
		}
	}
	return nil
}
