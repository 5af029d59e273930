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

package ir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// programFile is the YAML representation of a program.
//
//	file: endpoints.cpp
//	constants: {CURLOPT_URL: 10002}
//	types:
//	  - name: request
//	    fields: [std::string s, int i]
//	classes:
//	  - name: Service
//	    supers: [Base]
//	    methods:
//	      - name: f
//	        params: [std::string formal]
//	        body:
//	          - x = call std::basic_string::c_str(@formal)
//	          - call system(x)
//	functions:
//	  - name: system
//	    params: [char* command]
//	    returns: int
type programFile struct {
	File      string           `yaml:"file"`
	Constants map[string]int64 `yaml:"constants"`
	Types     []typeDecl       `yaml:"types"`
	Classes   []classDecl      `yaml:"classes"`
	Functions []procDecl       `yaml:"functions"`
}

type typeDecl struct {
	Name   string   `yaml:"name"`
	Fields []string `yaml:"fields"`
}

type classDecl struct {
	Name    string     `yaml:"name"`
	Supers  []string   `yaml:"supers"`
	Fields  []string   `yaml:"fields"`
	Methods []procDecl `yaml:"methods"`
}

type procDecl struct {
	Name       string      `yaml:"name"`
	Params     []string    `yaml:"params"`
	Returns    string      `yaml:"returns"`
	Visibility string      `yaml:"visibility"`
	Static     bool        `yaml:"static"`
	Overrides  []string    `yaml:"overrides"`
	Line       int         `yaml:"line"`
	Body       []yaml.Node `yaml:"body"`
	Blocks     []blockDecl `yaml:"blocks"`

	declLine int
}

type blockDecl struct {
	Instrs []yaml.Node `yaml:"instrs"`
	Succs  []int       `yaml:"succs"`
}

// UnmarshalYAML records the line of the declaration in addition to decoding its fields.
func (d *procDecl) UnmarshalYAML(n *yaml.Node) error {
	type plain procDecl
	var p plain
	if err := n.Decode(&p); err != nil {
		return err
	}
	*d = procDecl(p)
	d.declLine = n.Line
	return nil
}

// LoadProgram reads the YAML program in filename and returns the finalized program.
func LoadProgram(filename string) (*Program, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read program %s: %w", filename, err)
	}
	return LoadProgramBytes(filepath.Base(filename), b)
}

// LoadProgramBytes parses a YAML program. The name is used as file name of the positions in the program unless the
// program declares a file.
func LoadProgramBytes(name string, b []byte) (*Program, error) {
	var pf programFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return nil, fmt.Errorf("could not parse program %s: %w", name, err)
	}
	if pf.File != "" {
		name = pf.File
	}
	l := &loader{prog: NewProgram(), file: name}
	if err := l.load(&pf); err != nil {
		return nil, err
	}
	if err := l.prog.Finalize(); err != nil {
		return nil, err
	}
	return l.prog, nil
}

type loader struct {
	prog *Program
	file string
}

func (l *loader) load(pf *programFile) error {
	for k, v := range pf.Constants {
		l.prog.Constants[k] = v
	}

	// declare all the named types first so that fields and params can refer to any of them
	for _, td := range pf.Types {
		l.prog.Types[td.Name] = &Type{Name: td.Name, Kind: Struct}
	}
	for _, cd := range pf.Classes {
		if _, ok := l.prog.Types[cd.Name]; !ok {
			l.prog.Types[cd.Name] = &Type{Name: cd.Name, Kind: Struct}
		}
	}
	for _, td := range pf.Types {
		if err := l.fields(l.prog.Types[td.Name], td.Fields); err != nil {
			return err
		}
	}

	for _, cd := range pf.Classes {
		t := l.prog.Types[cd.Name]
		if err := l.fields(t, cd.Fields); err != nil {
			return err
		}
		c := &Class{Name: cd.Name, Supers: cd.Supers, Type: t}
		for i := range cd.Methods {
			m, err := l.procedure(&cd.Methods[i])
			if err != nil {
				return fmt.Errorf("class %s: %w", cd.Name, err)
			}
			c.Methods = append(c.Methods, m)
		}
		if err := l.prog.AddClass(c); err != nil {
			return err
		}
	}
	for i := range pf.Functions {
		p, err := l.procedure(&pf.Functions[i])
		if err != nil {
			return err
		}
		if err := l.prog.AddProcedure(p); err != nil {
			return err
		}
	}
	deriveOverrides(l.prog)
	return nil
}

func (l *loader) fields(t *Type, decls []string) error {
	for _, d := range decls {
		typ, name, err := l.declaration(d)
		if err != nil {
			return fmt.Errorf("type %s: %w", t.Name, err)
		}
		t.Fields = append(t.Fields, &Field{Name: name, Type: typ})
	}
	return nil
}

// declaration splits "type name" declarations, where the type may contain spaces.
func (l *loader) declaration(d string) (*Type, string, error) {
	d = strings.TrimSpace(d)
	i := strings.LastIndexAny(d, " \t*&")
	if i < 0 || i == len(d)-1 {
		return nil, "", fmt.Errorf("declaration %q must be of the form \"type name\"", d)
	}
	return ParseType(d[:i+1], l.prog.Types), d[i+1:], nil
}

func (l *loader) procedure(d *procDecl) (*Procedure, error) {
	vis, err := ParseVisibility(d.Visibility)
	if err != nil {
		return nil, fmt.Errorf("procedure %s: %w", d.Name, err)
	}
	line := d.Line
	if line == 0 {
		line = d.declLine
	}
	p := &Procedure{
		Name:       d.Name,
		Result:     ParseType(d.Returns, l.prog.Types),
		Visibility: vis,
		Static:     d.Static,
		Overrides:  d.Overrides,
		Pos:        Pos{File: l.file, Line: line},
	}
	for _, pd := range d.Params {
		typ, name, err := l.declaration(pd)
		if err != nil {
			return nil, fmt.Errorf("procedure %s: %w", d.Name, err)
		}
		p.Params = append(p.Params, &Param{Name: name, Type: typ})
	}
	if len(d.Body) > 0 && len(d.Blocks) > 0 {
		return nil, fmt.Errorf("procedure %s: body and blocks are exclusive", d.Name)
	}
	if len(d.Body) > 0 {
		b, err := l.block(0, d.Body, nil)
		if err != nil {
			return nil, fmt.Errorf("procedure %s: %w", d.Name, err)
		}
		p.Blocks = []*Block{b}
	}
	for i, bd := range d.Blocks {
		b, err := l.block(i, bd.Instrs, bd.Succs)
		if err != nil {
			return nil, fmt.Errorf("procedure %s: %w", d.Name, err)
		}
		p.Blocks = append(p.Blocks, b)
	}
	return p, nil
}

func (l *loader) block(index int, nodes []yaml.Node, succs []int) (*Block, error) {
	b := &Block{Index: index, Succs: succs}
	for _, n := range nodes {
		if n.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: instruction must be a string", n.Line)
		}
		instr, err := ParseInstr(n.Value, Pos{File: l.file, Line: n.Line})
		if err != nil {
			return nil, err
		}
		b.Instrs = append(b.Instrs, instr)
	}
	return b, nil
}

// deriveOverrides adds to each method the methods of the same name it overrides in the transitive base classes,
// unless the base method is private.
func deriveOverrides(prog *Program) {
	for _, c := range prog.Classes {
		for _, m := range c.Methods {
			if m.Static || m.IsConstructor() {
				continue
			}
			seen := map[string]bool{}
			var visit func(string)
			visit = func(name string) {
				if seen[name] {
					return
				}
				seen[name] = true
				sc, ok := prog.Classes[name]
				if !ok {
					return
				}
				for _, bm := range sc.Methods {
					if bm.Name == m.Name && bm.Visibility != Private && !bm.Static {
						addOverride(m, bm.QualifiedName())
					}
				}
				for _, s := range sc.Supers {
					visit(s)
				}
			}
			for _, s := range c.Supers {
				visit(s)
			}
		}
	}
}

func addOverride(m *Procedure, base string) {
	for _, o := range m.Overrides {
		if o == base {
			return
		}
	}
	m.Overrides = append(m.Overrides, base)
}
