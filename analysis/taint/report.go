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
	"os"

	"github.com/awslabs/svctaint/analysis/dataflow"
	"github.com/awslabs/svctaint/internal/formatutil"
	"gopkg.in/yaml.v3"
)

// A Reporter receives the findings of an analysis run.
type Reporter interface {
	Report(result AnalysisResult) error
}

// TextReporter writes one line per finding, followed by the trace of the finding when Traces is set.
type TextReporter struct {
	W      io.Writer
	Traces bool
}

func (r TextReporter) Report(result AnalysisResult) error {
	for _, f := range result.Findings {
		if _, err := fmt.Fprintf(r.W, "%s: %s: %s reaches %s (argument %d, %s) in %s\n",
			f.CallSite(), formatutil.Red(f.Issue), f.Origin(), f.Sink, f.Arg, f.Kind, f.Procedure); err != nil {
			return err
		}
		if !r.Traces {
			continue
		}
		if f.Sanitized {
			if _, err := fmt.Fprintf(r.W, "  sanitized for %s\n", f.Kind); err != nil {
				return err
			}
		}
		for _, o := range f.Origins[1:] {
			if _, err := fmt.Fprintf(r.W, "  also from %s\n", o); err != nil {
				return err
			}
		}
		for i, p := range f.Trace {
			if _, err := fmt.Fprintf(r.W, "  %d. %s\n", i, p); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(r.W, "%d findings\n", len(result.Findings))
	return err
}

// YAMLReporter writes the findings as a YAML document.
type YAMLReporter struct {
	W io.Writer
}

type yamlReport struct {
	RunID    string        `yaml:"run-id"`
	Findings []yamlFinding `yaml:"findings"`
}

type yamlFinding struct {
	Issue     string   `yaml:"issue"`
	Procedure string   `yaml:"procedure"`
	Site      string   `yaml:"site"`
	Sink      string   `yaml:"sink"`
	SinkSite  string   `yaml:"sink-site"`
	Arg       int      `yaml:"arg"`
	Kind      string   `yaml:"kind"`
	Origins   []string `yaml:"origins"`
	Trace     []string `yaml:"trace,omitempty"`
	Sanitized bool     `yaml:"sanitized,omitempty"`
}

func (r YAMLReporter) Report(result AnalysisResult) error {
	report := yamlReport{RunID: result.RunID.String(), Findings: []yamlFinding{}}
	for _, f := range result.Findings {
		yf := yamlFinding{
			Issue:     string(f.Issue),
			Procedure: f.Procedure,
			Site:      f.CallSite().String(),
			Sink:      f.Sink,
			SinkSite:  f.SinkSite().String(),
			Arg:       f.Arg,
			Kind:      f.Kind.String(),
			Sanitized: f.Sanitized,
		}
		for _, o := range f.Origins {
			yf.Origins = append(yf.Origins, o.String())
		}
		if len(f.Trace) > 1 {
			for _, p := range f.Trace {
				yf.Trace = append(yf.Trace, p.String())
			}
		}
		report.Findings = append(report.Findings, yf)
	}
	enc := yaml.NewEncoder(r.W)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("could not encode findings: %w", err)
	}
	return enc.Close()
}

// WriteReportFile writes the YAML report of the findings to a new findings-*.yaml file in the reports directory of
// the configuration, and returns the name of the file.
func WriteReportFile(result AnalysisResult) (string, error) {
	cfg := result.State.Config
	tmp, err := os.CreateTemp(cfg.ReportsDir, "findings-*.yaml")
	if err != nil {
		return "", fmt.Errorf("could not create report file: %w", err)
	}
	defer tmp.Close()
	if err := (YAMLReporter{W: tmp}).Report(result); err != nil {
		return "", err
	}
	result.State.Logger.Infof("Report in %s\n", tmp.Name())
	return tmp.Name(), nil
}

// logFinding logs a finding at the info level, and its trace at the debug level.
func logFinding(state *dataflow.AnalyzerState, f *Finding) {
	state.Logger.Infof(" 💀 Sink reached at %s\n", formatutil.Red(f.SinkSite()))
	state.Logger.Infof(" %s: %s ==> %s in %s\n", f.Issue,
		formatutil.Green(f.Origin()), formatutil.Red(f.Sink), f.Procedure)
	if state.Config.Verbose() {
		for _, p := range f.Trace {
			state.Logger.Debugf("TRACE: %s\n", p)
		}
	}
}
