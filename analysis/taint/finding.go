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
	"strings"

	"github.com/awslabs/svctaint/analysis/catalog"
	"github.com/awslabs/svctaint/analysis/config"
	"github.com/awslabs/svctaint/analysis/dataflow"
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/analysis/lattice"
	"golang.org/x/exp/slices"
)

// A Finding is a flow of user-controlled data to a sink, reported in the procedure where the analysis of the flow
// starts: the endpoint whose parameter is the origin, or the procedure containing the source call.
type Finding struct {
	Issue catalog.IssueType

	// Procedure is the qualified name of the procedure the finding is reported in
	Procedure string

	// Sink is the callee of the sink call, Arg the position of the tainted argument and Kind the kind of the sink
	// for that argument
	Sink string
	Arg  int
	Kind lattice.Kind

	// Origins are the origins of the tainted data, sorted. The first one is the primary origin.
	Origins []lattice.Origin

	// Trace is the chain of call sites from Procedure to the sink call, which is last
	Trace []ir.Pos

	// Sanitized is set when every origin of the finding was sanitized for Kind before reaching the sink
	Sanitized bool
}

// CallSite returns the position of the call, in the procedure of the finding, that leads to the sink.
func (f *Finding) CallSite() ir.Pos { return f.Trace[0] }

// SinkSite returns the position of the sink call.
func (f *Finding) SinkSite() ir.Pos { return f.Trace[len(f.Trace)-1] }

// Origin returns the primary origin of the finding.
func (f *Finding) Origin() lattice.Origin { return f.Origins[0] }

func (f *Finding) String() string {
	s := fmt.Sprintf("%s: %s: %s reaches argument %d of %s (%s) in %s",
		f.CallSite(), f.Issue, f.Origin(), f.Arg, f.Sink, f.Kind, f.Procedure)
	if len(f.Trace) > 1 {
		var steps []string
		for _, p := range f.Trace {
			steps = append(steps, p.String())
		}
		s += " via " + strings.Join(steps, " -> ")
	}
	return s
}

// findingKey identifies the findings that are reported once: one issue type per call site of a procedure.
type findingKey struct {
	procedure string
	site      ir.Pos
	issue     catalog.IssueType
}

func (f *Finding) key() findingKey {
	return findingKey{procedure: f.Procedure, site: f.CallSite(), issue: f.Issue}
}

// findingsOf returns the findings of the sink flows of proc. The flows must be instantiated: their values do not
// contain formal origins. A flow produces one finding per issue type of its taints.
func findingsOf(proc *ir.Procedure, flows []*dataflow.SinkFlow, cfg *config.Config) []*Finding {
	var res []*Finding
	for _, flow := range flows {
		byIssue := map[catalog.IssueType][]lattice.Origin{}
		unsanitized := map[catalog.IssueType]bool{}
		var issues []catalog.IssueType
		for _, t := range flow.Value.Taints() {
			if t.Origin.IsFormal() {
				continue
			}
			sanitized := !t.Kinds.Has(flow.Kind) && t.Sanitized.Has(flow.Kind)
			issue, ok := catalog.IssueFor(t.Origin.Class(), flow.Kind, sanitized, cfg.ReportSanitizedFlows)
			if !ok {
				continue
			}
			if _, seen := byIssue[issue]; !seen {
				issues = append(issues, issue)
			}
			byIssue[issue] = append(byIssue[issue], t.Origin)
			if !sanitized {
				unsanitized[issue] = true
			}
		}
		for _, issue := range issues {
			res = append(res, &Finding{
				Issue:     issue,
				Procedure: proc.QualifiedName(),
				Sink:      flow.Sink,
				Arg:       flow.Arg,
				Kind:      flow.Kind,
				Origins:   byIssue[issue],
				Trace:     slices.Clone(flow.Trace),
				Sanitized: !unsanitized[issue],
			})
		}
	}
	return res
}

// dedup merges the findings with the same procedure, call site and issue type. The merged finding keeps the trace
// of the first finding in the order of compareFindings and the union of the origins. The merged finding is sanitized
// only if all its findings are. The result is sorted.
func dedup(findings []*Finding) []*Finding {
	slices.SortFunc(findings, func(a, b *Finding) bool { return compareFindings(a, b) < 0 })
	merged := map[findingKey]*Finding{}
	var res []*Finding
	for _, f := range findings {
		k := f.key()
		if m, ok := merged[k]; ok {
			m.Origins = append(m.Origins, f.Origins...)
			m.Sanitized = m.Sanitized && f.Sanitized
			continue
		}
		g := *f
		g.Origins = slices.Clone(f.Origins)
		merged[k] = &g
		res = append(res, &g)
	}
	for _, f := range res {
		slices.SortFunc(f.Origins, func(a, b lattice.Origin) bool { return lattice.CompareOrigins(a, b) < 0 })
		f.Origins = slices.CompactFunc(f.Origins, func(a, b lattice.Origin) bool { return a == b })
	}
	return res
}

func compareFindings(a, b *Finding) int {
	if c := comparePos(a.CallSite(), b.CallSite()); c != 0 {
		return c
	}
	if c := strings.Compare(a.Procedure, b.Procedure); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Issue), string(b.Issue)); c != 0 {
		return c
	}
	if len(a.Trace) != len(b.Trace) {
		return len(a.Trace) - len(b.Trace)
	}
	for i := range a.Trace {
		if c := comparePos(a.Trace[i], b.Trace[i]); c != 0 {
			return c
		}
	}
	if c := strings.Compare(a.Sink, b.Sink); c != 0 {
		return c
	}
	if a.Arg != b.Arg {
		return a.Arg - b.Arg
	}
	return int(a.Kind) - int(b.Kind)
}

func comparePos(a, b ir.Pos) int {
	if c := strings.Compare(a.File, b.File); c != 0 {
		return c
	}
	return a.Line - b.Line
}
