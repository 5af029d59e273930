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

// Package catalog maps methods to their role in the taint analysis: sources, sinks and sanitizers.
//
// The catalog is built from the configuration and from built-in knowledge of well-known dangerous library functions.
// Configuration entries always take precedence over the built-in entries: a method named in the configuration is
// never looked up in the built-in table.
package catalog

import (
	"fmt"
	"strings"

	"github.com/awslabs/svctaint/analysis/config"
	"github.com/awslabs/svctaint/analysis/constfold"
	"github.com/awslabs/svctaint/analysis/ir"
	"github.com/awslabs/svctaint/analysis/lattice"
	"golang.org/x/exp/slices"
)

// A Role is the role of a method in the taint analysis. It is one of SourceRole, SinkRole or SanitizerRole.
type Role interface {
	fmt.Stringer
	isRole()
}

// A SourceEntry is a position of a method whose values are user controlled, for the kinds.
type SourceEntry struct {
	Position config.Position
	Kinds    lattice.KindSet
}

// SourceRole is the role of methods that return or produce user controlled data.
type SourceRole struct {
	Entries []SourceEntry
}

// SinkRole is the role of methods whose arguments must not be tainted.
type SinkRole struct {
	Matchers []Matcher
}

// SanitizerRole is the role of methods that return a value safe for the kinds.
type SanitizerRole struct {
	Kinds lattice.KindSet
}

func (SourceRole) isRole()    {}
func (SinkRole) isRole()      {}
func (SanitizerRole) isRole() {}

func (r SourceRole) String() string {
	parts := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		parts[i] = e.Position.String() + ":" + e.Kinds.String()
	}
	return "source(" + strings.Join(parts, ", ") + ")"
}

func (r SinkRole) String() string {
	parts := make([]string, len(r.Matchers))
	for i, m := range r.Matchers {
		parts[i] = m.String()
	}
	return "sink(" + strings.Join(parts, ", ") + ")"
}

func (r SanitizerRole) String() string { return "sanitizer(" + r.Kinds.String() + ")" }

// Returns returns the kinds for which the result of a call to the source is user controlled.
func (r SourceRole) Returns() lattice.KindSet {
	var ks lattice.KindSet
	for _, e := range r.Entries {
		if e.Position.Kind == config.Return {
			ks |= e.Kinds
		}
	}
	return ks
}

// At returns the kinds for which the argument at position pos (ir.ReceiverPosition for the receiver) is user
// controlled.
func (r SourceRole) At(pos int) lattice.KindSet {
	var ks lattice.KindSet
	for _, e := range r.Entries {
		switch e.Position.Kind {
		case config.AllArgs:
			if pos >= 0 {
				ks |= e.Kinds
			}
		case config.Arg:
			if e.Position.Index == pos {
				ks |= e.Kinds
			}
		case config.Receiver:
			if pos == ir.ReceiverPosition {
				ks |= e.Kinds
			}
		}
	}
	return ks
}

// HasParams returns true if some entry of the source is a parameter position.
func (r SourceRole) HasParams() bool {
	for _, e := range r.Entries {
		if e.Position.Kind == config.AllArgs || e.Position.Kind == config.Arg {
			return true
		}
	}
	return false
}

// A Catalog resolves the role of methods. It is immutable once built and safe for concurrent use.
type Catalog struct {
	config      []entry
	builtins    []entry
	matchAnyKey bool
}

// An entry associates a method pattern with a role.
type entry struct {
	cid  config.CodeIdentifier
	role Role
}

// New builds the catalog from the config and the built-in entries. Malformed config entries are reported to the
// logger and skipped.
func New(cfg *config.Config, logger *config.LogGroup) *Catalog {
	c := &Catalog{builtins: builtinEntries(), matchAnyKey: cfg.MatchUnresolvedConstants()}
	for _, err := range cfg.MalformedEntries() {
		logger.Warnf("ignoring %v", err)
	}
	for _, cid := range cfg.UserControlledSources {
		e, err := sourceEntry(cid)
		if err != nil {
			logger.Warnf("ignoring user-controlled source %s: %v", cid, err)
			continue
		}
		c.config = append(c.config, e)
	}
	for _, cid := range cfg.Sinks {
		e, err := sinkEntry(cid)
		if err != nil {
			logger.Warnf("ignoring sink %s: %v", cid, err)
			continue
		}
		c.config = append(c.config, e)
	}
	for _, cid := range cfg.Sanitizers {
		e, err := sanitizerEntry(cid)
		if err != nil {
			logger.Warnf("ignoring sanitizer %s: %v", cid, err)
			continue
		}
		c.config = append(c.config, e)
	}
	return c
}

// Lookup returns the role of the method with the qualified name, or nil if it has none.
// Exact matches of the configuration are tried first, then configuration regexes, then the built-in entries.
// When several entries of the same level match, entries with the same role are merged and the first role in the
// order source, sink, sanitizer wins.
func (c *Catalog) Lookup(method string) Role {
	if r := merge(filter(c.config, func(e entry) bool { return e.cid.IsExact(method) })); r != nil {
		return r
	}
	if r := merge(filter(c.config, func(e entry) bool { return e.cid.MatchMethod(method) })); r != nil {
		return r
	}
	return merge(filter(c.builtins, func(e entry) bool { return e.cid.MatchMethod(method) }))
}

// FormalSources returns the configured source entries of the parameters of the procedure. The second result is
// false if the configuration has no parameter entry for the procedure.
func (c *Catalog) FormalSources(proc *ir.Procedure) (SourceRole, bool) {
	src, ok := c.Lookup(proc.QualifiedName()).(SourceRole)
	if !ok || !src.HasParams() {
		return SourceRole{}, false
	}
	return src, true
}

// SinkMatches returns the kinds of the sink for the argument at position arg of the call. The constant arguments of
// the call are folded with the resolver.
func (c *Catalog) SinkMatches(sink SinkRole, call *ir.Call, arg int, r constfold.Resolver) lattice.KindSet {
	var ks lattice.KindSet
	for _, m := range sink.Matchers {
		if m.AppliesTo(arg) && m.KeyMatches(call, r, c.matchAnyKey) {
			ks |= m.Kinds
		}
	}
	return ks
}

func filter(entries []entry, keep func(entry) bool) []Role {
	var roles []Role
	for _, e := range entries {
		if keep(e) {
			roles = append(roles, e.role)
		}
	}
	return roles
}

func merge(roles []Role) Role {
	var src *SourceRole
	var sink *SinkRole
	var san *SanitizerRole
	for _, r := range roles {
		switch x := r.(type) {
		case SourceRole:
			if src == nil {
				src = &SourceRole{}
			}
			src.Entries = append(src.Entries, x.Entries...)
		case SinkRole:
			if sink == nil {
				sink = &SinkRole{}
			}
			sink.Matchers = append(sink.Matchers, x.Matchers...)
		case SanitizerRole:
			if san == nil {
				san = &SanitizerRole{}
			}
			san.Kinds |= x.Kinds
		}
	}
	switch {
	case src != nil:
		return *src
	case sink != nil:
		return *sink
	case san != nil:
		return *san
	}
	return nil
}

func parseKinds(cid config.CodeIdentifier, dflt lattice.KindSet) (lattice.KindSet, error) {
	names := cid.AllKinds()
	if len(names) == 0 {
		if dflt.IsEmpty() {
			return 0, fmt.Errorf("missing kind")
		}
		return dflt, nil
	}
	var ks lattice.KindSet
	for _, n := range names {
		k, err := lattice.ParseKinds(n)
		if err != nil {
			return 0, err
		}
		ks |= k
	}
	return ks, nil
}

func checkMethod(cid config.CodeIdentifier) error {
	if cid.Method == "" {
		return fmt.Errorf("missing method")
	}
	return nil
}

func sourceEntry(cid config.CodeIdentifier) (entry, error) {
	if err := checkMethod(cid); err != nil {
		return entry{}, err
	}
	pos, err := config.ParsePosition(cid.Position)
	if err != nil {
		return entry{}, err
	}
	ks, err := parseKinds(cid, lattice.UserControlled)
	if err != nil {
		return entry{}, err
	}
	return entry{cid: cid, role: SourceRole{Entries: []SourceEntry{{Position: pos, Kinds: ks}}}}, nil
}

func sinkEntry(cid config.CodeIdentifier) (entry, error) {
	if err := checkMethod(cid); err != nil {
		return entry{}, err
	}
	pos, err := config.ParsePosition(cid.Position)
	if err != nil {
		return entry{}, err
	}
	if pos.Kind == config.Return {
		return entry{}, fmt.Errorf("a sink cannot be at the return position")
	}
	ks, err := parseKinds(cid, 0)
	if err != nil {
		return entry{}, err
	}
	m := Matcher{Kinds: ks, Args: positionArgs(pos)}
	if cid.KeyPosition != nil {
		if *cid.KeyPosition < 0 {
			return entry{}, fmt.Errorf("invalid key position %d", *cid.KeyPosition)
		}
		if len(cid.KeyValues) == 0 {
			return entry{}, fmt.Errorf("key position without key values")
		}
		m.Key = &KeyMatcher{Arg: *cid.KeyPosition, Values: slices.Clone(cid.KeyValues)}
	}
	return entry{cid: cid, role: SinkRole{Matchers: []Matcher{m}}}, nil
}

func sanitizerEntry(cid config.CodeIdentifier) (entry, error) {
	if err := checkMethod(cid); err != nil {
		return entry{}, err
	}
	ks, err := parseKinds(cid, 0)
	if err != nil {
		return entry{}, err
	}
	return entry{cid: cid, role: SanitizerRole{Kinds: ks}}, nil
}

func positionArgs(pos config.Position) []int {
	switch pos.Kind {
	case config.Arg:
		return []int{pos.Index}
	case config.Receiver:
		return []int{ir.ReceiverPosition}
	default:
		return nil
	}
}

// builtin returns a catalog entry for a built-in method regex.
func builtin(pattern string, role Role) entry {
	return entry{cid: config.CompileRegexes(config.CodeIdentifier{Method: pattern}), role: role}
}
