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

// Package summaries defines how data flows through library procedures whose body is not available to the analysis.
// These summaries are pre-determined and are not computed during the analysis.
package summaries

import (
	"regexp"

	"github.com/awslabs/svctaint/analysis/ir"
	"golang.org/x/exp/slices"
)

const (
	// Receiver denotes the receiver of a call in a summary
	Receiver = ir.ReceiverPosition
	// AnyArg denotes every argument of a call (but not the receiver) in a summary
	AnyArg = -2
)

// Summary summarizes data flow information for a library procedure.
type Summary struct {
	// Rets lists the inputs whose data flows to the result of the call. For example, Rets = [Receiver] marks a data
	// flow from the receiver to the result, and Rets = [] means that the result is always clean.
	Rets []int
	// Args maps inputs to the arguments they flow into. For example, Args[1] = [0] means that if the second argument is
	// tainted, then when the procedure returns, the first argument is tainted. The argument receiving the data must be
	// passed by reference for the flow to be visible to the caller.
	Args map[int][]int
}

// NoDataFlowPropagation is a summary for procedures that do not have a data flow. The return value, if used, is a
// clean value.
var NoDataFlowPropagation = Summary{}

// DefaultPropagation is the summary of procedures without any known model: every input flows to the result.
var DefaultPropagation = Summary{Rets: []int{Receiver, AnyArg}}

// ReceiverPropagation is the summary of accessors returning data of the receiver.
var ReceiverPropagation = Summary{Rets: []int{Receiver}}

// FirstArgPropagation is the summary of conversions of their first argument.
var FirstArgPropagation = Summary{Rets: []int{0}}

// ConstructorPropagation is the summary of constructors copying their arguments into the constructed object.
var ConstructorPropagation = Summary{Args: map[int][]int{AnyArg: {Receiver}}}

// AppendPropagation is the summary of methods appending their arguments to the receiver, and returning the receiver.
var AppendPropagation = Summary{Rets: []int{Receiver, AnyArg}, Args: map[int][]int{AnyArg: {Receiver}}}

// Returns returns true if data at input position pos flows to the result.
func (s Summary) Returns(pos int) bool {
	return containsPos(s.Rets, pos)
}

// Targets returns the positions of the arguments data at input position pos flows into.
func (s Summary) Targets(pos int) []int {
	var res []int
	for from, to := range s.Args {
		if from == pos || (from == AnyArg && pos >= 0) {
			res = append(res, to...)
		}
	}
	slices.Sort(res)
	return slices.Compact(res)
}

func containsPos(positions []int, pos int) bool {
	for _, p := range positions {
		if p == pos || (p == AnyArg && pos >= 0) {
			return true
		}
	}
	return false
}

type pattern struct {
	re      *regexp.Regexp
	summary Summary
}

// SummaryOf returns the summary of the library procedure and true if the procedure has a model,
// otherwise it returns an empty summary and false.
func SummaryOf(name string) (Summary, bool) {
	if s, ok := libraryModels[name]; ok {
		return s, true
	}
	for _, p := range libraryPatterns {
		if p.re.MatchString(name) {
			return p.summary, true
		}
	}
	return Summary{}, false
}

// SummaryOrDefault returns the model of the library procedure, or DefaultPropagation. The second result is false
// when the procedure has no model and the default is returned.
func SummaryOrDefault(name string) (Summary, bool) {
	if s, ok := SummaryOf(name); ok {
		return s, true
	}
	return DefaultPropagation, false
}
