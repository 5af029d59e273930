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
// Package endpoints implements the front-end listing the endpoints of a program.
package endpoints

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/awslabs/svctaint/analysis/catalog"
	"github.com/awslabs/svctaint/analysis/config"
	"github.com/awslabs/svctaint/analysis/endpoints"
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/cmd/svctaint/tools"
	"github.com/awslabs/svctaint/internal/formatutil"
)

// Usage of the endpoints tool
const Usage = ` List the endpoints of a program, with the parameters that hold user-controlled data.
Usage:
  svctaint endpoints [options] <program.yaml>
`

// Run lists the endpoints of the program named in flags on standard output.
func Run(flags tools.CommonFlags) error {
	cfg, err := tools.LoadConfig(flags)
	if err != nil {
		return err
	}
	prog, err := tools.LoadProgram(flags)
	if err != nil {
		return err
	}
	return WriteEndpoints(os.Stdout, prog, cfg)
}

// WriteEndpoints writes one line per endpoint of prog to w, followed by one indented line per seed.
func WriteEndpoints(w io.Writer, prog *ir.Program, cfg *config.Config) error {
	logger := config.NewLogGroup(cfg)
	eps := endpoints.Discover(prog, cfg, catalog.New(cfg, logger), logger)
	for _, ep := range eps {
		marker := strings.Join(ep.Capabilities, ", ")
		if ep.Configured {
			marker = "configured"
		}
		if _, err := fmt.Fprintf(w, "%s (%s) %s\n", formatutil.Bold(formatutil.Sanitize(ep.Name())), marker, ep.Procedure.Pos); err != nil {
			return err
		}
		for _, seed := range ep.Seeds {
			fmt.Fprintf(w, "  %s: %s\n", formatutil.Green(seed), seed.Kinds)
		}
	}
	_, err := fmt.Fprintf(w, "%d endpoints\n", len(eps))
	return err
}
