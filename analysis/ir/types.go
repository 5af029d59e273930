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

import "strings"

// TypeKind classifies types by how they can carry tainted data.
type TypeKind int

const (
	// Opaque is a type the analysis knows nothing about.
	Opaque TypeKind = iota
	// Void is the type of procedures returning nothing.
	Void
	// Scalar types are integers, booleans, characters, enums and floating point numbers.
	Scalar
	// String types are string objects and C strings.
	String
	// Pointer types point to another type.
	Pointer
	// Reference types are references to another type.
	Reference
	// Struct types are records or classes with named fields.
	Struct
)

// A Type is the type of a parameter, field or result.
type Type struct {
	Name   string
	Kind   TypeKind
	Elem   *Type    // Pointer and Reference only
	Fields []*Field // Struct only
}

// A Field is a named member of a struct type.
type Field struct {
	Name string
	Type *Type
}

var (
	// VoidType is the type of procedures that do not return a value.
	VoidType = &Type{Name: "void", Kind: Void}
	// IntType is the default scalar type.
	IntType = &Type{Name: "int", Kind: Scalar}
	// StringType is the default string type.
	StringType = &Type{Name: "string", Kind: String}
)

var scalarNames = map[string]bool{
	"int": true, "long": true, "short": true, "unsigned": true, "bool": true, "char": true, "size_t": true,
	"float": true, "double": true, "int32_t": true, "int64_t": true, "uint32_t": true, "uint64_t": true,
	"long long": true, "unsigned int": true, "unsigned long": true, "enum": true,
}

var stringNames = map[string]bool{
	"string": true, "std::string": true, "std::basic_string": true, "char*": true, "const char*": true,
	"std::string_view": true,
}

// ParseType parses a type expression such as "int", "std::string&", "request*" or "char*". Names found in named are
// resolved to the struct types they denote; other unknown names are opaque.
func ParseType(s string, named map[string]*Type) *Type {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "const ")
	if s == "" || s == "void" {
		return VoidType
	}
	if stringNames[s] {
		return &Type{Name: s, Kind: String}
	}
	if strings.HasSuffix(s, "*") {
		return &Type{Name: s, Kind: Pointer, Elem: ParseType(strings.TrimSuffix(s, "*"), named)}
	}
	if strings.HasSuffix(s, "&") {
		return &Type{Name: s, Kind: Reference, Elem: ParseType(strings.TrimSuffix(s, "&"), named)}
	}
	if scalarNames[s] {
		return &Type{Name: s, Kind: Scalar}
	}
	if t, ok := named[s]; ok {
		return t
	}
	return &Type{Name: s, Kind: Opaque}
}

// Underlying returns the type pointed to or referenced by t, following any number of indirections.
func (t *Type) Underlying() *Type {
	for t != nil && (t.Kind == Pointer || t.Kind == Reference) {
		t = t.Elem
	}
	return t
}

// IsScalar returns true if values of type t are scalars (after following indirections).
func (t *Type) IsScalar() bool {
	u := t.Underlying()
	return u != nil && u.Kind == Scalar
}

// IsByReference returns true if a procedure can modify the caller's object through a formal of type t.
func (t *Type) IsByReference() bool {
	return t != nil && (t.Kind == Pointer || t.Kind == Reference)
}

// Field returns the field named name of the struct type underlying t, or nil.
func (t *Type) Field(name string) *Field {
	u := t.Underlying()
	if u == nil || u.Kind != Struct {
		return nil
	}
	for _, f := range u.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldType returns the type at the access path fields starting from t, or nil when the path does not resolve.
func (t *Type) FieldType(fields []string) *Type {
	cur := t
	for _, name := range fields {
		f := cur.Field(name)
		if f == nil {
			return nil
		}
		cur = f.Type
	}
	return cur
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}
