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

package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// A CodeIdentifier identifies a method, and optionally a position in its signature, that is a source, sink or
// sanitizer.
// The method is matched by exact string equality on its qualified name, or else as an anchored regex if it
// compiles to one.
type CodeIdentifier struct {
	// Method is the qualified name of the method, e.g. "endpoints::Service1::f", or a regex
	Method string `yaml:"method"`

	// Position is a parameter index, "return", "this" or "*". The empty position means all parameters for sources and
	// sinks.
	Position string `yaml:"position"`

	// Kind is the taint kind of the entry, e.g. "ShellCommand" or "SqlQuery"
	Kind string `yaml:"kind"`

	// Kinds can be used instead of Kind to list several taint kinds
	Kinds []string `yaml:"kinds"`

	// KeyPosition is the position of the argument whose constant value decides whether a sink applies
	KeyPosition *int `yaml:"key-position"`

	// KeyValues are the constant values of the argument at KeyPosition for which the sink applies
	KeyValues []int64 `yaml:"key-values"`

	// This will not be part of the yaml config
	methodRegex *regexp.Regexp
}

// CompileRegexes compiles the method of the code identifier into an anchored regex. If it does not compile, the
// identifier only matches by string equality.
func CompileRegexes(cid CodeIdentifier) CodeIdentifier {
	r, err := regexp.Compile("^(?:" + cid.Method + ")$")
	if err != nil {
		cid.methodRegex = nil
		return cid
	}
	cid.methodRegex = r
	return cid
}

// MatchMethod returns true if name is the method of the code identifier, or matches its regex.
func (cid CodeIdentifier) MatchMethod(name string) bool {
	if cid.Method == name {
		return true
	}
	return cid.methodRegex != nil && cid.methodRegex.MatchString(name)
}

// IsExact returns true if the identifier matches only the method named by its string.
func (cid CodeIdentifier) IsExact(name string) bool {
	return cid.Method == name
}

// AllKinds returns the kind names of the identifier.
func (cid CodeIdentifier) AllKinds() []string {
	var res []string
	if cid.Kind != "" {
		res = append(res, cid.Kind)
	}
	return append(res, cid.Kinds...)
}

func (cid CodeIdentifier) String() string {
	s := cid.Method
	if cid.Position != "" {
		s += "@" + cid.Position
	}
	return s
}

// PositionKind distinguishes argument positions from the receiver and the result.
type PositionKind int

const (
	// AllArgs denotes every parameter
	AllArgs PositionKind = iota
	// Arg denotes the parameter at Index
	Arg
	// Return denotes the result of the call
	Return
	// Receiver denotes "this"
	Receiver
)

// A Position is a position in the signature of a method.
type Position struct {
	Kind  PositionKind
	Index int
}

// ParsePosition parses a position: a non-negative integer, "return", "this", or "*" (or the empty string) for all
// parameters.
func ParsePosition(s string) (Position, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "*":
		return Position{Kind: AllArgs}, nil
	case "return", "ret":
		return Position{Kind: Return}, nil
	case "this", "receiver":
		return Position{Kind: Receiver}, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || i < 0 {
		return Position{}, fmt.Errorf("invalid position %q", s)
	}
	return Position{Kind: Arg, Index: i}, nil
}

func (p Position) String() string {
	switch p.Kind {
	case Arg:
		return strconv.Itoa(p.Index)
	case Return:
		return "return"
	case Receiver:
		return "this"
	default:
		return "*"
	}
}
