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
	"github.com/awslabs/svctaint/analysis/lattice"
)

// CurlOptURL is the value of the CURLOPT_URL option of curl_easy_setopt
const CurlOptURL = 10002

func sinkAt(k lattice.Kind, args ...int) SinkRole {
	return SinkRole{Matchers: []Matcher{{Kinds: lattice.KindsOf(k), Args: args}}}
}

func anyArgSink(k lattice.Kind) SinkRole {
	return SinkRole{Matchers: []Matcher{{Kinds: lattice.KindsOf(k)}}}
}

// fstreams matches the constructors and the open methods of the standard file streams, with or without template
// arguments.
const fstreams = `(std::)?basic_(o|i)?fstream(<[^:]*>)?::(basic_(o|i)?fstream|open)`

func builtinEntries() []entry {
	return []entry{
		// process execution
		builtin(`system`, sinkAt(lattice.ShellCommand, 0)),
		builtin(`popen`, sinkAt(lattice.ShellCommand, 0)),
		builtin(`exec(l|lp|le|v|vp|vpe|ve)`, anyArgSink(lattice.ShellCommand)),

		// raw SQL execution
		builtin(`sqlite3_exec`, sinkAt(lattice.SQLQuery, 1)),
		builtin(`sqlite3_prepare.*`, sinkAt(lattice.SQLQuery, 1)),
		builtin(`mysql_(real_)?query`, sinkAt(lattice.SQLQuery, 1)),
		builtin(`PQexec`, sinkAt(lattice.SQLQuery, 1)),

		// file creation and opening
		builtin(`open`, sinkAt(lattice.FileSystemPath, 0)),
		builtin(`openat`, sinkAt(lattice.FileSystemPath, 1)),
		builtin(`creat`, sinkAt(lattice.FileSystemPath, 0)),
		builtin(`fopen`, sinkAt(lattice.FileSystemPath, 0)),
		builtin(`freopen`, sinkAt(lattice.FileSystemPath, 0)),
		builtin(`rename`, sinkAt(lattice.FileSystemPath, 0, 1)),
		builtin(fstreams, sinkAt(lattice.FileSystemPath, 0)),

		// URLs set through option codes
		builtin(`curl_easy_setopt`, SinkRole{Matchers: []Matcher{{
			Kinds: lattice.KindsOf(lattice.NetworkURL),
			Args:  []int{2},
			Key:   &KeyMatcher{Arg: 1, Values: []int64{CurlOptURL}},
		}}}),
	}
}
