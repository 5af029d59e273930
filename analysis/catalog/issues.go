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

import "github.com/awslabs/svctaint/analysis/lattice"

// An IssueType is the kind of vulnerability reported for a flow.
type IssueType string

const (
	RemoteCodeExecutionRisk IssueType = "REMOTE_CODE_EXECUTION_RISK"
	ShellInjection          IssueType = "SHELL_INJECTION"
	SQLInjection            IssueType = "SQL_INJECTION"
	UserControlledSQLRisk   IssueType = "USER_CONTROLLED_SQL_RISK"
	UntrustedFileRisk       IssueType = "UNTRUSTED_FILE_RISK"
	UntrustedURLRisk        IssueType = "UNTRUSTED_URL_RISK"
)

// IssueFor returns the issue type of a flow from a source of class class to a sink of kind k. If the flow has been
// sanitized for k, there is an issue only for sanitized SQL flows from endpoints when reportSanitized is true.
// The second result is false when the flow is not an issue.
func IssueFor(class lattice.SourceClass, k lattice.Kind, sanitized bool, reportSanitized bool) (IssueType, bool) {
	if sanitized {
		if reportSanitized && class == lattice.EndpointClass && k == lattice.SQLQuery {
			return UserControlledSQLRisk, true
		}
		return "", false
	}
	switch k {
	case lattice.FileSystemPath:
		return UntrustedFileRisk, true
	case lattice.NetworkURL:
		return UntrustedURLRisk, true
	}
	switch class {
	case lattice.EndpointClass:
		return RemoteCodeExecutionRisk, true
	case lattice.UserControlledClass:
		if k == lattice.SQLQuery {
			return SQLInjection, true
		}
		return ShellInjection, true
	}
	return "", false
}
