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

package constfold

import (
	"testing"

	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constants map[string]int64

func (c constants) Constant(name string) (int64, bool) {
	v, ok := c[name]
	return v, ok
}

func parseArg(t *testing.T, s string) ir.Expr {
	instr, err := ir.ParseInstr("x = "+s, ir.Pos{})
	require.NoError(t, err)
	return instr.(*ir.Assign).Src
}

func TestFold(t *testing.T) {
	env := constants{"CURLOPT_URL": 10002}
	tests := []struct {
		expr string
		want int64
	}{
		{"10002", 10002},
		{"10000 + 2", 10002},
		{"$CURLOPT_URL", 10002},
		{"$CURLOPT_URL - 2", 10000},
		{"1 + 2", 3},
		{"(2 + 3) * 4", 20},
		{"-1 + 1", 0},
	}
	for _, test := range tests {
		v := Fold(parseArg(t, test.expr), env)
		require.True(t, v.IsSome(), test.expr)
		assert.Equal(t, test.want, v.Value(), test.expr)
	}
}

func TestFoldUnresolved(t *testing.T) {
	env := constants{}
	for _, expr := range []string{"i + 17", "i", "$UNKNOWN", "\"10002\"", "17 + formal.i"} {
		assert.True(t, Fold(parseArg(t, expr), env).IsNone(), expr)
	}
	assert.True(t, Fold(ir.NamedConst{Name: "K"}, nil).IsNone())
}
