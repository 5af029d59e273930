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
Package taint implements the taint analysis of service endpoints. It consumes the procedure summaries built by the
dataflow package. The main entry point of the analysis is the [Analyze] function, which returns an [AnalysisResult]
containing all the findings discovered as well as the analyzer state resulting from the analysis.

A finding is reported in the procedure where the tainted data enters the program: the endpoint whose parameter holds
it, or the procedure that calls the source. Findings are reported once per issue type and call site.

Findings are written by a [Reporter]: [TextReporter] for terminals and [YAMLReporter] for tools. When the
configuration sets report-findings, [WriteReportFile] stores the YAML report in the reports directory.
*/
package taint
