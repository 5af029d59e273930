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

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config contains the options of the analysis and the user-supplied catalog entries.
// If some field is not defined in the config file, it will be set to its default value by Load.
// Private fields are not populated from a yaml file, but computed after initialization.
type Config struct {
	Options

	// if the ProcedureFilter is specified
	procedureFilterRegex *regexp.Regexp

	// ServiceInterfaces lists the capability marker types. Any class inheriting, directly or transitively, from a
	// type matching one of these identifiers is a service, and its public methods are endpoints.
	ServiceInterfaces []string `yaml:"service-interfaces"`

	// ReturnParamNames lists the names of the formals used to receive the return value of endpoints
	ReturnParamNames []string `yaml:"return-param-names"`

	// UserControlledSources lists the methods and positions whose values are user controlled
	UserControlledSources []CodeIdentifier `yaml:"-"`

	// Sinks lists additional sinks
	Sinks []CodeIdentifier `yaml:"-"`

	// Sanitizers lists additional sanitizers
	Sanitizers []CodeIdentifier `yaml:"-"`

	serviceInterfaceIds []CodeIdentifier

	// entries of the catalog lists that could not be decoded
	malformed []error
}

// catalogLists are the lists of the config file decoded entry by entry, so that one malformed entry does not prevent
// loading the others.
type catalogLists struct {
	UserControlledSources yaml.Node `yaml:"user-controlled-sources"`
	Sinks                 yaml.Node `yaml:"sinks"`
	Sanitizers            yaml.Node `yaml:"sanitizers"`
}

// Options are the settings of the analysis that are not catalog entries.
type Options struct {
	// ReportsDir is the directory where the reports will be stored. If the config does not specify a ReportsDir
	// but sets ReportFindings to true, then a temporary directory is created next to the config file.
	ReportsDir string `yaml:"reports-dir"`

	// ReportFindings specifies whether the findings should also be written to a findings-*.yaml file in ReportsDir
	ReportFindings bool `yaml:"report-findings"`

	// ReportSummaries can be set to true, in which case summaries will be logged at the debug level
	ReportSummaries bool `yaml:"report-summaries"`

	// ProcedureFilter restricts the procedures that are summarized eagerly. Summaries of procedures that do not match
	// are still built on demand when they are called.
	ProcedureFilter string `yaml:"procedure-filter"`

	// MaxAccessPathLength bounds the number of fields in a tracked access path. Longer paths collapse to their root.
	MaxAccessPathLength int `yaml:"max-access-path-length"`

	// MaxFixpointIterations bounds the number of block visits of the intra-procedural analysis of one procedure.
	// When the bound is reached, the summary of the procedure is marked as truncated.
	MaxFixpointIterations int `yaml:"max-fixpoint-iterations"`

	// MaxSummaryDepth bounds the nesting of on-demand summary constructions.
	MaxSummaryDepth int `yaml:"max-summary-depth"`

	// NumRoutines is the number of goroutines used by the analysis
	NumRoutines int `yaml:"num-routines"`

	// UnresolvedConstantPolicy is either "match" or "ignore". It decides whether a sink that only accepts specific
	// constant values matches a call site where the value cannot be computed statically.
	UnresolvedConstantPolicy string `yaml:"unresolved-constant-policy"`

	// TaintScalarFields specifies whether scalar (integer, boolean, ...) parameters and fields of endpoints are
	// tainted.
	TaintScalarFields bool `yaml:"taint-scalar-fields"`

	// ReportSanitizedFlows specifies whether flows from endpoints sanitized for the kind of the sink are reported
	// with a lower-severity issue type.
	ReportSanitizedFlows bool `yaml:"report-sanitized-flows"`

	// Loglevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`
}

// NewDefault returns a config with the default options and no user-defined catalog entries.
func NewDefault() *Config {
	c := &Config{
		ServiceInterfaces: []string{DefaultServiceInterface, DefaultAsyncServiceInterface},
		ReturnParamNames:  []string{DefaultReturnParamName},
		Options: Options{
			MaxAccessPathLength:      DefaultMaxAccessPathLength,
			MaxFixpointIterations:    DefaultMaxFixpointIterations,
			MaxSummaryDepth:          DefaultMaxSummaryDepth,
			NumRoutines:              runtime.NumCPU(),
			UnresolvedConstantPolicy: UnresolvedMatch,
			LogLevel:                 int(InfoLevel),
		},
	}
	c.compile()
	return c
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := LoadBytes(b)
	if err != nil {
		return nil, err
	}
	if cfg.ReportFindings {
		if err := setReportsDir(cfg, filename); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadBytes parses a yaml configuration. Unset options get their default value.
func LoadBytes(b []byte) (*Config, error) {
	cfg := NewDefault()
	// user lists replace the defaults instead of being appended to them
	cfg.ServiceInterfaces = nil
	cfg.ReturnParamNames = nil
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}
	var lists catalogLists
	if err := yaml.Unmarshal(b, &lists); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}
	cfg.UserControlledSources = cfg.decodeEntries("user-controlled-sources", &lists.UserControlledSources)
	cfg.Sinks = cfg.decodeEntries("sinks", &lists.Sinks)
	cfg.Sanitizers = cfg.decodeEntries("sanitizers", &lists.Sanitizers)
	if cfg.ServiceInterfaces == nil {
		cfg.ServiceInterfaces = []string{DefaultServiceInterface, DefaultAsyncServiceInterface}
	}
	if cfg.ReturnParamNames == nil {
		cfg.ReturnParamNames = []string{DefaultReturnParamName}
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}
	if cfg.MaxAccessPathLength <= 0 {
		cfg.MaxAccessPathLength = DefaultMaxAccessPathLength
	}
	if cfg.MaxFixpointIterations <= 0 {
		cfg.MaxFixpointIterations = DefaultMaxFixpointIterations
	}
	if cfg.MaxSummaryDepth <= 0 {
		cfg.MaxSummaryDepth = DefaultMaxSummaryDepth
	}
	if cfg.NumRoutines <= 0 {
		cfg.NumRoutines = runtime.NumCPU()
	}
	switch strings.ToLower(cfg.UnresolvedConstantPolicy) {
	case "":
		cfg.UnresolvedConstantPolicy = UnresolvedMatch
	case UnresolvedMatch, UnresolvedIgnore:
		cfg.UnresolvedConstantPolicy = strings.ToLower(cfg.UnresolvedConstantPolicy)
	default:
		return nil, fmt.Errorf("unresolved-constant-policy must be %q or %q, not %q",
			UnresolvedMatch, UnresolvedIgnore, cfg.UnresolvedConstantPolicy)
	}
	cfg.compile()
	return cfg, nil
}

// decodeEntries decodes the code identifiers of the list node n. Entries that cannot be decoded are recorded in the
// malformed entries of the config and skipped.
func (c *Config) decodeEntries(list string, n *yaml.Node) []CodeIdentifier {
	switch n.Kind {
	case 0:
		return nil
	case yaml.SequenceNode:
	default:
		c.malformed = append(c.malformed, fmt.Errorf("%s at line %d: expected a list of entries", list, n.Line))
		return nil
	}
	var cids []CodeIdentifier
	for _, item := range n.Content {
		var cid CodeIdentifier
		if err := item.Decode(&cid); err != nil {
			c.malformed = append(c.malformed, fmt.Errorf("%s entry at line %d: %w", list, item.Line, err))
			continue
		}
		cids = append(cids, cid)
	}
	return cids
}

// MalformedEntries returns the errors of the entries of the source, sink and sanitizer lists that could not be
// decoded. These entries are not part of the config.
func (c *Config) MalformedEntries() []error {
	return c.malformed
}

func (c *Config) compile() {
	if c.ProcedureFilter != "" {
		r, err := regexp.Compile(c.ProcedureFilter)
		if err == nil {
			c.procedureFilterRegex = r
		}
	}
	c.serviceInterfaceIds = nil
	for _, s := range c.ServiceInterfaces {
		c.serviceInterfaceIds = append(c.serviceInterfaceIds, CompileRegexes(CodeIdentifier{Method: s}))
	}
	compileAll(c.UserControlledSources)
	compileAll(c.Sinks)
	compileAll(c.Sanitizers)
}

func compileAll(cids []CodeIdentifier) {
	for i := range cids {
		cids[i] = CompileRegexes(cids[i])
	}
}

func setReportsDir(c *Config, filename string) error {
	if c.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(filename), "*-report")
		if err != nil {
			return fmt.Errorf("could not create temp dir for reports")
		}
		c.ReportsDir = tmpdir
	} else {
		err := os.Mkdir(c.ReportsDir, 0750)
		if err != nil {
			if !os.IsExist(err) {
				return fmt.Errorf("could not create directory %s", c.ReportsDir)
			}
		}
	}
	return nil
}

// MatchProcedureFilter returns true if the qualified procedure name matches the procedure filter set in the config
// file. If no filter has been set, it returns true. If the filter could not be compiled to a regex, it is used as a
// prefix.
func (c *Config) MatchProcedureFilter(name string) bool {
	if c.procedureFilterRegex != nil {
		return c.procedureFilterRegex.MatchString(name)
	} else if c.ProcedureFilter != "" {
		return strings.HasPrefix(name, c.ProcedureFilter)
	} else {
		return true
	}
}

// IsServiceInterface returns true if the type name matches one of the configured service capability markers.
func (c *Config) IsServiceInterface(typeName string) bool {
	for _, cid := range c.serviceInterfaceIds {
		if cid.MatchMethod(typeName) {
			return true
		}
	}
	return false
}

// IsReturnParamName returns true if name is one of the names of the return-value output parameter convention.
func (c *Config) IsReturnParamName(name string) bool {
	for _, n := range c.ReturnParamNames {
		if n == name {
			return true
		}
	}
	return false
}

// MatchUnresolvedConstants returns true if exact-value sinks match call sites where the value is unknown.
func (c *Config) MatchUnresolvedConstants() bool {
	return c.UnresolvedConstantPolicy != UnresolvedIgnore
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c *Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxSummaryDepth returns true if d nested summary constructions exceed the maximum depth.
func (c *Config) ExceedsMaxSummaryDepth(d int) bool {
	return c.MaxSummaryDepth > 0 && d > c.MaxSummaryDepth
}
