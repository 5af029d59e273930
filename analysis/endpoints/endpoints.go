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

// Package endpoints discovers the procedures where the analysis starts: the endpoints of network-facing services,
// whose parameters are implicitly user controlled, and the procedures whose parameters the configuration marks as
// user controlled.
//
// A class is a service when it inherits, directly or transitively, from a capability marker type listed in the
// configuration (by default, the fb303 service interfaces). All the non-private methods of a service, other than its
// constructors and destructors, are endpoints.
package endpoints

import (
	"strings"

	"github.com/awslabs/svctaint/analysis/catalog"
	"github.com/awslabs/svctaint/analysis/config"
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/analysis/lattice"
	"golang.org/x/exp/slices"
)

// A Seed is an access path of a formal that holds user-controlled data when the analysis starts.
type Seed struct {
	Index  int      // index of the formal
	Fields []string // access path from the formal
	Kinds  lattice.KindSet
	Origin lattice.Origin
}

// Place returns the place of the seed in the procedure.
func (s Seed) Place(proc *ir.Procedure) ir.Place {
	return ir.Place{Root: proc.Params[s.Index].Name, Fields: s.Fields}
}

func (s Seed) String() string {
	if len(s.Fields) == 0 {
		return s.Origin.Name
	}
	return s.Origin.Name + "." + strings.Join(s.Fields, ".")
}

// An Endpoint is a procedure where the analysis starts, with the seeds of its formals.
type Endpoint struct {
	Procedure *ir.Procedure
	// Capabilities are the service markers the class of the procedure inherits from. It is empty for procedures only
	// marked by the configuration.
	Capabilities []string
	// Configured is true when the seeds come from the configuration rather than from the endpoint convention.
	Configured bool
	Seeds      []Seed
}

// Name returns the qualified name of the endpoint procedure.
func (e *Endpoint) Name() string { return e.Procedure.QualifiedName() }

// Discover returns the endpoints of the program, sorted by name. Endpoints without any seed are returned as well:
// they may still contain flows from source calls.
func Discover(prog *ir.Program, cfg *config.Config, cat *catalog.Catalog, logger *config.LogGroup) []*Endpoint {
	caps := NewHierarchy(prog).Capabilities(cfg.IsServiceInterface)
	var res []*Endpoint
	for _, proc := range prog.AllProcedures() {
		if src, ok := cat.FormalSources(proc); ok {
			e := &Endpoint{Procedure: proc, Capabilities: caps[proc.Class], Configured: true}
			e.Seeds = configuredSeeds(proc, src, cfg, logger)
			res = append(res, e)
			continue
		}
		if !IsEndpoint(proc, caps) {
			continue
		}
		e := &Endpoint{Procedure: proc, Capabilities: caps[proc.Class]}
		e.Seeds = implicitSeeds(proc, cfg)
		logger.Debugf("endpoint %s (%s): seeds %v", proc.QualifiedName(), strings.Join(e.Capabilities, ", "),
			e.Seeds)
		res = append(res, e)
	}
	return res
}

// IsEndpoint returns true if proc is a non-private instance method of a class that has some capability.
func IsEndpoint(proc *ir.Procedure, caps map[string][]string) bool {
	if proc.Class == "" || len(caps[proc.Class]) == 0 {
		return false
	}
	return proc.Visibility != ir.Private && !proc.Static && !proc.IsConstructor()
}

// isReturnParam returns true if the formal follows the return-value output parameter convention.
func isReturnParam(p *ir.Param, cfg *config.Config) bool {
	return cfg.IsReturnParamName(p.Name) && p.Type.IsByReference()
}

func implicitSeeds(proc *ir.Procedure, cfg *config.Config) []Seed {
	var seeds []Seed
	for i, p := range proc.Params {
		if isReturnParam(p, cfg) {
			continue
		}
		o := lattice.Origin{Type: lattice.EndpointParameter, Procedure: proc.QualifiedName(), Index: i, Name: p.Name}
		seeds = append(seeds, paramSeeds(i, p, o, lattice.UserControlled, cfg.TaintScalarFields, cfg)...)
	}
	return seeds
}

func configuredSeeds(proc *ir.Procedure, src catalog.SourceRole, cfg *config.Config,
	logger *config.LogGroup) []Seed {
	var seeds []Seed
	if !src.At(ir.ReceiverPosition).IsEmpty() {
		logger.Debugf("%s: the receiver of a procedure is never a source", proc.QualifiedName())
	}
	for i, p := range proc.Params {
		ks := src.At(i)
		if ks.IsEmpty() || isReturnParam(p, cfg) {
			continue
		}
		o := lattice.Origin{Type: lattice.ConfiguredParameter, Procedure: proc.QualifiedName(), Index: i, Name: p.Name}
		// a parameter named explicitly is seeded whatever its type
		explicit := slices.IndexFunc(src.Entries, func(e catalog.SourceEntry) bool {
			return e.Position.Kind == config.Arg && e.Position.Index == i
		}) >= 0
		seeds = append(seeds, paramSeeds(i, p, o, ks, explicit || cfg.TaintScalarFields, cfg)...)
	}
	return seeds
}

// paramSeeds returns the seeds of a formal. Struct formals are seeded field by field, so that their scalar fields
// can be left clean; other formals are seeded at their root.
func paramSeeds(index int, p *ir.Param, o lattice.Origin, ks lattice.KindSet, scalars bool,
	cfg *config.Config) []Seed {
	var seeds []Seed
	var visit func(t *ir.Type, fields []string)
	visit = func(t *ir.Type, fields []string) {
		u := t.Underlying()
		switch {
		case u == nil || u.Kind == ir.Void:
			return
		case u.Kind == ir.Scalar:
			if !scalars {
				return
			}
		case u.Kind == ir.Struct && len(u.Fields) > 0 && len(fields) < cfg.MaxAccessPathLength:
			for _, f := range u.Fields {
				visit(f.Type, append(slices.Clone(fields), f.Name))
			}
			return
		}
		seeds = append(seeds, Seed{Index: index, Fields: fields, Kinds: ks, Origin: o})
	}
	visit(p.Type, nil)
	return seeds
}
