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
/*
Package taint implements the front-end to the taint analysis.

The findings are written on standard output, one per line by default, or as a YAML document with -format yaml. The
logs of the analysis go to standard error. When the configuration file sets report-findings, the YAML report is
also written to a findings-*.yaml file in the reports directory.

A configuration file looks like:

	options:
	  report-sanitized-flows: true
	  unresolved-constant-policy: ignore
	user-controlled-sources:
	  - method: "getenv"
	    position: return
	sanitizers:
	  - method: "__infer_url_sanitizer"
	    kind: NetworkURL
*/
package taint
