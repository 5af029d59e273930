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

package lattice

import (
	"fmt"
	"strings"
)

// OriginType distinguishes the different ways data can enter the analysis.
type OriginType uint8

const (
	// Formal is a symbolic origin standing for the value of a formal (or of a field of a formal) at procedure entry.
	// Formal origins only appear in procedure summaries and are replaced by the actual values at call sites.
	Formal OriginType = iota
	// EndpointParameter is a formal parameter of an endpoint, implicitly tainted.
	EndpointParameter
	// ConfiguredParameter is a formal parameter marked as a source in the configuration.
	ConfiguredParameter
	// SourceCall is the result (or out-argument) of a call to a source.
	SourceCall
)

func (t OriginType) String() string {
	switch t {
	case Formal:
		return "formal"
	case EndpointParameter:
		return "endpoint"
	case ConfiguredParameter:
		return "user-controlled"
	case SourceCall:
		return "source-call"
	default:
		return fmt.Sprintf("OriginType(%d)", t)
	}
}

// SourceClass groups origins by how they are trusted. The issue reported when tainted data reaches a sink
// depends on the class of its origin.
type SourceClass uint8

const (
	// NoClass is the class of symbolic origins.
	NoClass SourceClass = iota
	// EndpointClass is the class of implicit sources on network-facing service methods.
	EndpointClass
	// UserControlledClass is the class of sources explicitly designated by the user or the catalog.
	UserControlledClass
)

// ReceiverIndex is the formal index of the receiver ("this") of a method.
const ReceiverIndex = -1

// An Origin identifies where tainted data comes from: an endpoint parameter, a configured parameter, a source
// call site, or a symbolic formal of the procedure being summarized.
// Origins are comparable and can be used as map keys.
type Origin struct {
	Type OriginType

	// Procedure is the qualified name of the procedure owning the formal, or containing the source call
	Procedure string

	// Index is the formal index (ReceiverIndex for the receiver). Unused for SourceCall.
	Index int

	// Name is the formal name, or the source callee for a SourceCall
	Name string

	// Path is the access path relative to the formal, e.g. ".s" (Formal only)
	Path string

	// Site is the position of the source call (SourceCall only)
	Site string
}

// FormalOrigin returns the symbolic origin of formal index of procedure, at access path path.
func FormalOrigin(procedure string, index int, name string, path string) Origin {
	return Origin{Type: Formal, Procedure: procedure, Index: index, Name: name, Path: path}
}

// IsFormal returns true if the origin is symbolic.
func (o Origin) IsFormal() bool { return o.Type == Formal }

// Class returns the source class of the origin.
func (o Origin) Class() SourceClass {
	switch o.Type {
	case EndpointParameter:
		return EndpointClass
	case ConfiguredParameter, SourceCall:
		return UserControlledClass
	default:
		return NoClass
	}
}

// PathLength returns the number of fields in the access path of the origin.
func PathLength(path string) int {
	return strings.Count(path, ".")
}

// WithSuffix returns the formal origin o whose access path is extended by suffix. If the resulting path is longer
// than maxLen, the path collapses to the root of the formal. Non-formal origins are returned unchanged.
func (o Origin) WithSuffix(suffix string, maxLen int) Origin {
	if o.Type != Formal || suffix == "" {
		return o
	}
	p := o.Path + suffix
	if maxLen >= 0 && PathLength(p) > maxLen {
		p = ""
	}
	o.Path = p
	return o
}

func (o Origin) String() string {
	switch o.Type {
	case Formal:
		return fmt.Sprintf("formal %s%s of %s", o.Name, o.Path, o.Procedure)
	case EndpointParameter:
		return fmt.Sprintf("endpoint parameter %s of %s", o.Name, o.Procedure)
	case ConfiguredParameter:
		return fmt.Sprintf("user-controlled parameter %s of %s", o.Name, o.Procedure)
	case SourceCall:
		return fmt.Sprintf("call to %s in %s at %s", o.Name, o.Procedure, o.Site)
	default:
		return "unknown origin"
	}
}

// CompareOrigins is a total order on origins. It returns a negative number if a < b, zero if a == b and a positive
// number otherwise.
func CompareOrigins(a, b Origin) int {
	if a.Type != b.Type {
		return int(a.Type) - int(b.Type)
	}
	if c := strings.Compare(a.Procedure, b.Procedure); c != 0 {
		return c
	}
	if a.Index != b.Index {
		return a.Index - b.Index
	}
	if c := strings.Compare(a.Path, b.Path); c != 0 {
		return c
	}
	if c := strings.Compare(a.Site, b.Site); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}
