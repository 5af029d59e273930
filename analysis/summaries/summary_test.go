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

package summaries

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringAccessorsReturnReceiver(t *testing.T) {
	for _, name := range []string{"std::basic_string::c_str", "std::basic_string<char>::data"} {
		s, ok := SummaryOf(name)
		assert.True(t, ok, name)
		assert.True(t, s.Returns(Receiver), name)
		assert.False(t, s.Returns(0), name)
	}
}

func TestStringConstructorWritesReceiver(t *testing.T) {
	s, ok := SummaryOf("std::basic_string::basic_string")
	assert.True(t, ok)
	assert.Equal(t, []int{Receiver}, s.Targets(0))
	assert.Equal(t, []int{Receiver}, s.Targets(3))
	assert.Empty(t, s.Targets(Receiver))
	assert.False(t, s.Returns(0))
}

func TestCopyFunctions(t *testing.T) {
	s, _ := SummaryOrDefault("strcpy")
	assert.Equal(t, []int{0}, s.Targets(1))
	assert.Empty(t, s.Targets(0))
	assert.True(t, s.Returns(1))

	s, _ = SummaryOrDefault("snprintf")
	assert.Equal(t, []int{0}, s.Targets(2))
	assert.False(t, s.Returns(2))
}

func TestNoDataFlow(t *testing.T) {
	s, ok := SummaryOf("strlen")
	assert.True(t, ok)
	assert.False(t, s.Returns(0))
	s, ok = SummaryOf("std::basic_string::size")
	assert.True(t, ok)
	assert.False(t, s.Returns(Receiver))
}

func TestDefaultPropagation(t *testing.T) {
	_, ok := SummaryOf("some_library_function")
	assert.False(t, ok)
	s, ok := SummaryOrDefault("some_library_function")
	assert.False(t, ok)
	assert.True(t, s.Returns(Receiver))
	assert.True(t, s.Returns(0))
	assert.True(t, s.Returns(5))
	assert.Empty(t, s.Targets(0))
}

func TestToStringPropagatesArgument(t *testing.T) {
	s, ok := SummaryOrDefault("std::to_string")
	assert.True(t, ok)
	assert.True(t, s.Returns(0))
	assert.False(t, s.Returns(Receiver))
}
