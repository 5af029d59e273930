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
Package config provides a simple way to manage configuration files.

Use [Load](filename) to load a configuration from a specific filename, or [NewDefault]() for the default
configuration.

A config file should be in yaml format. The top-level fields can be any of the fields defined in the Config
struct type. For example, a valid config file is as follows:

	options:
	  log-level: 4
	  unresolved-constant-policy: match

	user-controlled-sources:
	  - method: endpoints::Service1::user_controlled_endpoint_to_sql_bad

	sinks:
	  - method: __infer_sql_sink
	    position: 0
	    kind: SqlQuery

	sanitizers:
	  - method: __infer_shell_sanitizer
	    kind: ShellCommand

# Identifying code elements

The config uses [CodeIdentifier] to identify methods. An important feature of the code identifiers is that the
method names are first compared as strings, and then seen as anchored regexes if they can be compiled to regexes.

Entries of the config are not validated when loading: the catalog reports and skips the entries that have an invalid
position or kind, so that a partially wrong configuration still lets the analysis run with the built-in catalog.
*/
package config
