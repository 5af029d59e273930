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

package dataflow

import (
	"fmt"
	"sync"

	"github.com/awslabs/svctaint/analysis/catalog"
	"github.com/awslabs/svctaint/analysis/config"
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/google/uuid"
)

// AnalyzerState holds the information used during the analysis of one program, and represents the context of one
// analysis run. Nothing in the state is global: a new run starts from a new state.
type AnalyzerState struct {
	// RunID identifies the analysis run in logs and reports
	RunID uuid.UUID

	// The logger used during the analysis (can be used to control output).
	Logger *config.LogGroup

	// The configuration of the analysis
	Config *config.Config

	// The program to be analyzed. It must be finalized.
	Program *ir.Program

	// Catalog resolves the roles of the callees
	Catalog *catalog.Catalog

	// CallGraph is the call graph of the procedures with a body
	CallGraph *CallGraph

	// Cache holds the summaries of the procedures
	Cache *Cache

	// Stored errors
	errors     map[string][]error
	errorMutex sync.Mutex
}

// NewAnalyzerState returns a properly initialized analyzer state for the program. It returns an error if the program
// is not structurally valid. A program that is not finalized is finalized first. If l is nil, the log group of the state is created from the config, and its lines are
// tagged with the run identifier.
func NewAnalyzerState(p *ir.Program, l *config.LogGroup, c *config.Config) (*AnalyzerState, error) {
	check := p.Validate
	if !p.IsFinalized() {
		check = p.Finalize
	}
	if err := check(); err != nil {
		return nil, fmt.Errorf("invalid program: %w", err)
	}
	runID := uuid.New()
	if l == nil {
		l = config.NewLogGroupWithTag(c, runID.String()[:8])
	}
	state := &AnalyzerState{
		RunID:   runID,
		Logger:  l,
		Config:  c,
		Program: p,
		Catalog: catalog.New(c, l),
		errors:  map[string][]error{},
	}
	state.CallGraph = NewCallGraph(p)
	state.Cache = NewCache(state)
	l.Debugf("run %s: %d procedures, %d call graph components\n", state.RunID, len(p.AllProcedures()),
		len(state.CallGraph.Components()))
	return state, nil
}

// AddError adds an error with key and error e to the state.
func (s *AnalyzerState) AddError(key string, e error) {
	s.errorMutex.Lock()
	defer s.errorMutex.Unlock()
	if e != nil {
		s.errors[key] = append(s.errors[key], e)
	}
}

// CheckError checks whether there is an error in the state, and if there is, returns the first it encounters and
// deletes it. The slice returned contains all the errors associated with one single error key (as used in
// [*AnalyzerState.AddError])
func (s *AnalyzerState) CheckError() []error {
	s.errorMutex.Lock()
	defer s.errorMutex.Unlock()
	for e, errs := range s.errors {
		delete(s.errors, e)
		return errs
	}
	return nil
}

// HasErrors returns true if the state has an error. Unlike [*AnalyzerState.CheckError], this is non-destructive.
func (s *AnalyzerState) HasErrors() bool {
	s.errorMutex.Lock()
	defer s.errorMutex.Unlock()
	for _, errs := range s.errors {
		if len(errs) > 0 {
			return true
		}
	}
	return false
}
