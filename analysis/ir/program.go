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

// Package ir contains the procedure abstraction the taint analysis runs on: classes with their base types and
// method tables, procedures with their formals and a control-flow graph of basic blocks, and the instructions
// (assignments, calls and returns) in those blocks.
//
// Programs are produced by a front-end. This package also provides a small textual syntax for instructions and a
// YAML loader, used by the command line tool and the tests.
package ir

import (
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Visibility is the access level of a method.
type Visibility int

const (
	// Public methods can be called from anywhere.
	Public Visibility = iota
	// Protected methods can be called from subclasses.
	Protected
	// Private methods can only be called from the declaring class, and cannot be overridden.
	Private
)

// ParseVisibility parses "public", "protected" or "private". The empty string is public.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(s) {
	case "", "public":
		return Public, nil
	case "protected":
		return Protected, nil
	case "private":
		return Private, nil
	}
	return Public, fmt.Errorf("unknown visibility %q", s)
}

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

// A Param is a formal parameter.
type Param struct {
	Name string
	Type *Type
}

// A Block is a basic block. Succs are indexes of successor blocks in the procedure.
type Block struct {
	Index  int
	Instrs []Instr
	Succs  []int
}

// A Procedure is a function or a method. Procedures without blocks have no body available to the analysis
// (library functions, interface stubs).
type Procedure struct {
	Name       string
	Class      string // declaring type, empty for free functions
	Params     []*Param
	Result     *Type
	Visibility Visibility
	Static     bool
	Overrides  []string // qualified names of the base methods this method implements
	Blocks     []*Block
	Pos        Pos
}

// QualifiedName returns the fully qualified name of the procedure, e.g. "endpoints::Service1::f".
func (p *Procedure) QualifiedName() string {
	if p.Class == "" {
		return p.Name
	}
	return p.Class + "::" + p.Name
}

func (p *Procedure) String() string { return p.QualifiedName() }

// HasReceiver returns true if the procedure is an instance method.
func (p *Procedure) HasReceiver() bool { return p.Class != "" && !p.Static }

// HasBody returns true if the control-flow graph of the procedure is available.
func (p *Procedure) HasBody() bool { return len(p.Blocks) > 0 }

// IsConstructor returns true if the procedure is a constructor or a destructor of its class.
func (p *Procedure) IsConstructor() bool {
	if p.Class == "" {
		return false
	}
	simple := p.Class
	if i := strings.LastIndex(simple, "::"); i >= 0 {
		simple = simple[i+2:]
	}
	return p.Name == simple || p.Name == "~"+simple
}

// ParamIndex returns the index of the formal named name, ReceiverPosition for "this", and false if the procedure
// has no such formal.
func (p *Procedure) ParamIndex(name string) (int, bool) {
	if name == ThisName && p.HasReceiver() {
		return ReceiverPosition, true
	}
	for i, param := range p.Params {
		if param.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Calls returns all the call instructions of the procedure, in block order.
func (p *Procedure) Calls() []*Call {
	var calls []*Call
	for _, b := range p.Blocks {
		for _, instr := range b.Instrs {
			if c, ok := instr.(*Call); ok {
				calls = append(calls, c)
			}
		}
	}
	return calls
}

// A Class is a type with a method table and a list of direct base types.
type Class struct {
	Name    string
	Supers  []string
	Methods []*Procedure
	Type    *Type
}

// A Program is a set of classes, procedures, struct types and named constants.
// A program must be finalized with Finalize before it is analyzed.
type Program struct {
	Types      map[string]*Type
	Classes    map[string]*Class
	Procedures map[string]*Procedure
	Constants  map[string]int64

	sorted     []*Procedure
	overriders map[string][]*Procedure
	finalized  bool
}

// NewProgram returns an empty program.
func NewProgram() *Program {
	return &Program{
		Types:      map[string]*Type{},
		Classes:    map[string]*Class{},
		Procedures: map[string]*Procedure{},
		Constants:  map[string]int64{},
	}
}

// AddClass adds a class to the program, and all its methods. Methods get their Class set to the class name.
func (prog *Program) AddClass(c *Class) error {
	if _, ok := prog.Classes[c.Name]; ok {
		return fmt.Errorf("duplicate class %s", c.Name)
	}
	prog.Classes[c.Name] = c
	for _, m := range c.Methods {
		m.Class = c.Name
		if err := prog.AddProcedure(m); err != nil {
			return err
		}
	}
	prog.finalized = false
	return nil
}

// AddProcedure adds a procedure to the program.
func (prog *Program) AddProcedure(p *Procedure) error {
	name := p.QualifiedName()
	if _, ok := prog.Procedures[name]; ok {
		return fmt.Errorf("duplicate procedure %s", name)
	}
	prog.Procedures[name] = p
	prog.finalized = false
	return nil
}

// Finalize validates the program and computes the override table. It returns an error if the control-flow graph
// of some procedure is malformed or a method overrides an unknown class.
func (prog *Program) Finalize() error {
	if err := prog.Validate(); err != nil {
		return err
	}
	prog.sorted = maps.Values(prog.Procedures)
	slices.SortFunc(prog.sorted, func(a, b *Procedure) bool { return a.QualifiedName() < b.QualifiedName() })

	prog.overriders = map[string][]*Procedure{}
	for _, p := range prog.sorted {
		for _, base := range p.Overrides {
			prog.overriders[base] = append(prog.overriders[base], p)
		}
	}
	prog.finalized = true
	return nil
}

// IsFinalized returns true if the program has been finalized since its last change.
func (prog *Program) IsFinalized() bool {
	return prog.finalized
}

// Validate checks the structural well-formedness of the program.
func (prog *Program) Validate() error {
	for name, p := range prog.Procedures {
		for i, b := range p.Blocks {
			if b.Index != i {
				return fmt.Errorf("procedure %s: block at position %d has index %d", name, i, b.Index)
			}
			for _, s := range b.Succs {
				if s < 0 || s >= len(p.Blocks) {
					return fmt.Errorf("procedure %s: block %d has missing successor %d", name, i, s)
				}
			}
		}
		if p.Class != "" {
			if _, ok := prog.Classes[p.Class]; !ok {
				return fmt.Errorf("procedure %s: unknown declaring class %s", name, p.Class)
			}
		}
	}
	for _, c := range prog.Classes {
		for _, s := range c.Supers {
			if _, ok := prog.Classes[s]; !ok {
				return fmt.Errorf("class %s: unknown base class %s", c.Name, s)
			}
		}
	}
	return nil
}

// AllProcedures returns the procedures of the program sorted by qualified name.
func (prog *Program) AllProcedures() []*Procedure {
	if !prog.finalized {
		panic("program must be finalized before use")
	}
	return prog.sorted
}

// Procedure returns the procedure with the qualified name, or nil.
func (prog *Program) Procedure(name string) *Procedure {
	return prog.Procedures[name]
}

// Constant returns the value of the named constant.
func (prog *Program) Constant(name string) (int64, bool) {
	v, ok := prog.Constants[name]
	return v, ok
}

// Implementations returns the procedures a virtual call to method may dispatch to: the method itself if it has a
// body, and all its transitive overrides that have a body.
func (prog *Program) Implementations(method string) []*Procedure {
	var res []*Procedure
	seen := map[string]bool{}
	var visit func(name string)
	visit = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if p := prog.Procedures[name]; p != nil && p.HasBody() {
			res = append(res, p)
		}
		for _, o := range prog.overriders[name] {
			visit(o.QualifiedName())
		}
	}
	visit(method)
	slices.SortFunc(res, func(a, b *Procedure) bool { return a.QualifiedName() < b.QualifiedName() })
	return res
}

// Callees returns the procedures with a body that call may reach.
func (prog *Program) Callees(call *Call) []*Procedure {
	if call.Virtual {
		return prog.Implementations(call.Callee)
	}
	if p := prog.Procedures[call.Callee]; p != nil && p.HasBody() {
		return []*Procedure{p}
	}
	return nil
}
