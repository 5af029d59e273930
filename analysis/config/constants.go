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

const (
	// DefaultMaxAccessPathLength is the default number of fields tracked in an access path
	DefaultMaxAccessPathLength = 3
	// DefaultMaxFixpointIterations is the default number of block visits per procedure
	DefaultMaxFixpointIterations = 1000
	// DefaultMaxSummaryDepth is the default nesting depth of on-demand summary construction
	DefaultMaxSummaryDepth = 128
	// DefaultServiceInterface is the fb303 synchronous service marker
	DefaultServiceInterface = "facebook::fb303::cpp2::FacebookServiceSvIf"
	// DefaultAsyncServiceInterface is the fb303 asynchronous service marker
	DefaultAsyncServiceInterface = "facebook::fb303::cpp2::FacebookServiceSvAsyncIf"
	// DefaultReturnParamName is the name of the formal receiving the result of a thrift endpoint
	DefaultReturnParamName = "_return"
	// UnresolvedMatch makes exact-value sinks match when the value is not a compile-time constant
	UnresolvedMatch = "match"
	// UnresolvedIgnore makes exact-value sinks not match when the value is not a compile-time constant
	UnresolvedIgnore = "ignore"
)
