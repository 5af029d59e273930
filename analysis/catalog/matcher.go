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

package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/awslabs/svctaint/analysis/constfold"
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/analysis/lattice"
	"golang.org/x/exp/slices"
)

// A Matcher selects the arguments of a sink call that must not be tainted for Kinds.
type Matcher struct {
	Kinds lattice.KindSet
	// Args are the positions of the arguments checked by the sink, nil for all arguments. Positions do not count
	// the receiver, which is ir.ReceiverPosition.
	Args []int
	// Key is non-nil for sinks that only apply when some argument has specific constant values.
	Key *KeyMatcher
}

// A KeyMatcher requires the argument at position Arg to be one of Values.
type KeyMatcher struct {
	Arg    int
	Values []int64
}

// AppliesTo returns true if the matcher checks the argument at position arg.
func (m Matcher) AppliesTo(arg int) bool {
	if m.Args == nil {
		return arg >= 0
	}
	return slices.Contains(m.Args, arg)
}

// KeyMatches returns true if the key argument of the call has one of the accepted values, or the matcher has no key.
// When the value of the key argument cannot be folded to a constant, the result is matchUnresolved.
func (m Matcher) KeyMatches(call *ir.Call, r constfold.Resolver, matchUnresolved bool) bool {
	if m.Key == nil {
		return true
	}
	arg := call.Arg(m.Key.Arg)
	if arg == nil {
		return false
	}
	v := constfold.Fold(arg, r)
	if v.IsNone() {
		return matchUnresolved
	}
	return slices.Contains(m.Key.Values, v.Value())
}

func (m Matcher) String() string {
	args := "*"
	if m.Args != nil {
		s := make([]string, len(m.Args))
		for i, a := range m.Args {
			s[i] = strconv.Itoa(a)
		}
		args = strings.Join(s, ",")
	}
	str := fmt.Sprintf("%s@%s", m.Kinds, args)
	if m.Key != nil {
		str += fmt.Sprintf(" if arg %d in %v", m.Key.Arg, m.Key.Values)
	}
	return str
}
