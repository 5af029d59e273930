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

// Package analysistest loads the test programs of the analyses and the expectations annotated in them.
package analysistest

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"testing"

	"github.com/awslabs/svctaint/analysis/config"
	"github.com/awslabs/svctaint/analysis/ir"
	"gopkg.in/yaml.v3"
)

// LoadTest loads the program.yaml and the config.yaml in the directory dir of fsys. A missing config.yaml gives the
// default configuration.
func LoadTest(t *testing.T, fsys fs.FS, dir string) (*ir.Program, *config.Config) {
	t.Helper()
	src, err := fs.ReadFile(fsys, path.Join(dir, "program.yaml"))
	if err != nil {
		t.Fatalf("error reading program: %v", err)
	}
	prog, err := ir.LoadProgramBytes(path.Base(dir)+".yaml", src)
	if err != nil {
		t.Fatalf("error loading program: %v", err)
	}
	cfg := config.NewDefault()
	if b, err := fs.ReadFile(fsys, path.Join(dir, "config.yaml")); err == nil {
		cfg, err = config.LoadBytes(b)
		if err != nil {
			t.Fatalf("error loading config: %v", err)
		}
	}
	return prog, cfg
}

// FindingRegex matches annotations of the form "@Finding(ISSUE_1, ISSUE_2)"
var FindingRegex = regexp.MustCompile(`//.*@Finding\(((?:\s*\w+\s*,?)+)\)`)

// LPos is a position without column.
type LPos struct {
	Filename string
	Line     int
}

func (p LPos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// GetExpectedFindings reads the program.yaml in the directory dir of fsys, and looks for comments @Finding(issue)
// in its instructions to construct the expected findings, in the form of a map from call site positions to the
// issue types reported at that call site.
func GetExpectedFindings(t *testing.T, fsys fs.FS, dir string) map[LPos]map[string]bool {
	t.Helper()
	src, err := fs.ReadFile(fsys, path.Join(dir, "program.yaml"))
	if err != nil {
		t.Fatalf("error reading program: %v", err)
	}
	var header struct {
		File string `yaml:"file"`
	}
	if err := yaml.Unmarshal(src, &header); err != nil {
		t.Fatalf("error reading program: %v", err)
	}
	filename := header.File
	if filename == "" {
		filename = path.Base(dir) + ".yaml"
	}

	expected := map[LPos]map[string]bool{}
	scanner := bufio.NewScanner(bytes.NewReader(src))
	line := 0
	for scanner.Scan() {
		line++
		a := FindingRegex.FindStringSubmatch(scanner.Text())
		if len(a) <= 1 {
			continue
		}
		pos := LPos{Filename: filename, Line: line}
		for _, issue := range strings.Split(a[1], ",") {
			if _, ok := expected[pos]; !ok {
				expected[pos] = map[string]bool{}
			}
			expected[pos][strings.TrimSpace(issue)] = true
		}
	}
	return expected
}

// RelPos returns the position of p without column.
func RelPos(p ir.Pos) LPos {
	return LPos{Filename: p.File, Line: p.Line}
}
