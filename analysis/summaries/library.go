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

import "regexp"

// libraryModels maps the qualified names of C and C++ library procedures to their summary.
var libraryModels = map[string]Summary{
	// C strings
	"strlen":   NoDataFlowPropagation,
	"strcmp":   NoDataFlowPropagation,
	"strncmp":  NoDataFlowPropagation,
	"strcpy":   {Rets: []int{1}, Args: map[int][]int{1: {0}}},
	"strncpy":  {Rets: []int{1}, Args: map[int][]int{1: {0}}},
	"strcat":   {Rets: []int{0, 1}, Args: map[int][]int{1: {0}}},
	"strncat":  {Rets: []int{0, 1}, Args: map[int][]int{1: {0}}},
	"strdup":   FirstArgPropagation,
	"memcpy":   {Rets: []int{1}, Args: map[int][]int{1: {0}}},
	"sprintf":  {Args: map[int][]int{AnyArg: {0}}},
	"snprintf": {Args: map[int][]int{AnyArg: {0}}},
	"free":     NoDataFlowPropagation,
	"printf":   NoDataFlowPropagation,
	"puts":     NoDataFlowPropagation,
	"close":    NoDataFlowPropagation,
	"fclose":   NoDataFlowPropagation,

	// C++ standard library
	"std::to_string": FirstArgPropagation,
	"std::move":      FirstArgPropagation,
	"std::forward":   FirstArgPropagation,
	"std::operator+": {Rets: []int{AnyArg}},
}

var libraryPatterns = []pattern{
	{regexp.MustCompile(`^std::basic_string(<[^:]*>)?::(c_str|data|substr|begin|end|at|operator\[\])$`),
		ReceiverPropagation},
	{regexp.MustCompile(`^std::basic_string(<[^:]*>)?::(size|length|empty|compare|find|rfind)$`),
		NoDataFlowPropagation},
	{regexp.MustCompile(`^std::basic_string(<[^:]*>)?::(basic_string|operator=|assign)$`),
		ConstructorPropagation},
	{regexp.MustCompile(`^std::basic_string(<[^:]*>)?::(append|operator\+=|push_back|insert)$`),
		AppendPropagation},
	{regexp.MustCompile(`^std::basic_string_view(<[^:]*>)?::(basic_string_view|data)$`),
		Summary{Rets: []int{Receiver}, Args: map[int][]int{AnyArg: {Receiver}}}},
	{regexp.MustCompile(`^std::basic_(o|i)?fstream(<[^:]*>)?::(close|is_open|~basic_(o|i)?fstream)$`),
		NoDataFlowPropagation},
	{regexp.MustCompile(`^(std::)?(stoi|stol|stoll|atoi|atol)$`), FirstArgPropagation},
}
