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

// Package constfold evaluates the integer expressions passed as call arguments when their value is known at compile
// time. It is used to match sinks whose relevance depends on the value of an option argument.
package constfold

import (
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/internal/funcutil"
)

// A Resolver returns the value of a named constant.
type Resolver interface {
	Constant(name string) (int64, bool)
}

// Fold returns the value of the expression e if it is an integer literal, a named constant known to r, or an
// arithmetic operation on foldable operands. Fold returns None for anything else, in particular for any expression
// reading a variable.
func Fold(e ir.Expr, r Resolver) funcutil.Optional[int64] {
	switch x := e.(type) {
	case ir.IntConst:
		return funcutil.Some(x.Value)
	case ir.NamedConst:
		if r == nil {
			return funcutil.None[int64]()
		}
		if v, ok := r.Constant(x.Name); ok {
			return funcutil.Some(v)
		}
		return funcutil.None[int64]()
	case ir.Binary:
		return funcutil.BindOption(Fold(x.X, r), func(a int64) funcutil.Optional[int64] {
			return funcutil.MapOption(Fold(x.Y, r), func(b int64) int64 { return apply(x.Op, a, b) })
		})
	default:
		return funcutil.None[int64]()
	}
}

func apply(op byte, a, b int64) int64 {
	switch op {
	case '-':
		return a - b
	case '*':
		return a * b
	default:
		return a + b
	}
}
