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
	"time"

	"github.com/awslabs/svctaint/analysis/config"
	"github.com/awslabs/svctaint/analysis/dataflow"
	"github.com/awslabs/svctaint/analysis/endpoints"
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/analysis/lattice"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type AnalysisResult struct {
	// RunID identifies the analysis run
	RunID uuid.UUID

	// Findings contains the de-duplicated findings of the analysis, sorted by call site
	Findings []*Finding

	// Endpoints are the procedures where the analysis of endpoint parameters starts
	Endpoints []*endpoints.Endpoint

	// State is the state at the end of the analysis, if you need to chain another analysis. Its cache contains the
	// summaries of the procedures analyzed.
	State *dataflow.AnalyzerState

	// Errors contains a list of errors produced by the analysis.
	Errors []error
}

// Analyze runs the taint analysis on the program prog with the user-provided configuration cfg. If logger is nil, the
// log group is created from the configuration and tagged with the run identifier.
//
// The analysis proceeds in three steps:
//
// - the endpoints of the program are discovered, and the seeds of their formals computed.
//
// - the summaries of all the procedures matching the procedure filter of the configuration are built, in parallel.
// Summaries of the callees are built on demand.
//
// - the flows of every summary are instantiated: the flows of endpoints with their seeds, and the flows of the other
// procedures with clean formals, which keeps only the flows from source calls. Each flow gives one finding per issue
// type, and findings are reported once per issue type and call site of the procedure.
//
// An error is returned if the program is not valid. Taint conditions are never errors.
func Analyze(logger *config.LogGroup, cfg *config.Config, prog *ir.Program) (AnalysisResult, error) {
	state, err := dataflow.NewAnalyzerState(prog, logger, cfg)
	if err != nil {
		return AnalysisResult{}, err
	}
	logger = state.Logger
	start := time.Now()
	eps := endpoints.Discover(prog, cfg, state.Catalog, logger)
	logger.Infof("run %s: %d endpoints\n", state.RunID, len(eps))

	roots := map[*ir.Procedure]*endpoints.Endpoint{}
	for _, ep := range eps {
		roots[ep.Procedure] = ep
	}
	var procs []*ir.Procedure
	for _, proc := range prog.AllProcedures() {
		if proc.HasBody() && cfg.MatchProcedureFilter(proc.QualifiedName()) {
			procs = append(procs, proc)
		}
	}

	// Each job writes its findings in its own slot
	results := make([][]*Finding, len(procs))
	var g errgroup.Group
	g.SetLimit(cfg.NumRoutines)
	for i, proc := range procs {
		i, proc := i, proc
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("analysis of %s failed: %v", proc.QualifiedName(), r)
				}
			}()
			summary := state.Cache.Summary(proc)
			entry := dataflow.NewState(cfg.MaxAccessPathLength)
			if ep, ok := roots[proc]; ok {
				entry = SeedState(ep, cfg)
			}
			results[i] = findingsOf(proc, summary.Instantiate(entry), cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		state.AddError("analysis", err)
	}

	var all []*Finding
	for _, r := range results {
		all = append(all, r...)
	}
	findings := dedup(all)
	logger.Infof("run %s: %d summaries built, %d findings (%.2f s)\n", state.RunID, state.Cache.Builds(),
		len(findings), time.Since(start).Seconds())
	for _, f := range findings {
		logFinding(state, f)
	}

	res := AnalysisResult{RunID: state.RunID, Findings: findings, Endpoints: eps, State: state}
	for state.HasErrors() {
		res.Errors = append(res.Errors, state.CheckError()...)
	}
	if len(res.Errors) > 0 {
		err = fmt.Errorf("analysis returned errors, check AnalysisResult.Errors for more details")
	}
	return res, err
}

// SeedState returns the state at the entry of the endpoint: the places of its seeds hold their user-controlled
// origin. The receiver and the other formals are clean.
func SeedState(ep *endpoints.Endpoint, cfg *config.Config) *dataflow.State {
	s := dataflow.NewState(cfg.MaxAccessPathLength)
	for _, seed := range ep.Seeds {
		l, _ := dataflow.LocationOf(seed.Place(ep.Procedure), cfg.MaxAccessPathLength)
		s.Add(l, lattice.Tainted(seed.Origin, seed.Kinds))
	}
	return s
}
