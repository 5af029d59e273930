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

package lattice

import (
	"fmt"
	"strings"
)

// A Kind is a category of vulnerability a tainted value may cause. Sinks accept kinds and sanitizers clear kinds.
type Kind uint8

const (
	// ShellCommand is the kind of data that may be interpreted by a shell or a process launcher.
	ShellCommand Kind = iota
	// SQLQuery is the kind of data that may be interpreted as SQL.
	SQLQuery
	// FileSystemPath is the kind of data that may be used as a file path.
	FileSystemPath
	// NetworkURL is the kind of data that may be used as a URL by a network client.
	NetworkURL

	numKinds
)

var kindNames = [numKinds]string{
	ShellCommand:   "ShellCommand",
	SQLQuery:       "SqlQuery",
	FileSystemPath: "FileSystemPath",
	NetworkURL:     "NetworkURL",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// A KindSet is a set of kinds, represented as a bit set.
type KindSet uint8

const (
	// NoKinds is the empty kind set.
	NoKinds KindSet = 0

	// UserControlled is the set of all kinds. Data that is user controlled is dangerous for every sink until
	// it has been sanitized for the sink's kind.
	UserControlled KindSet = 1<<numKinds - 1
)

// KindsOf returns the set containing the kinds ks.
func KindsOf(ks ...Kind) KindSet {
	var s KindSet
	for _, k := range ks {
		s |= 1 << k
	}
	return s
}

// Has returns true if k is in the set.
func (s KindSet) Has(k Kind) bool { return s&(1<<k) != 0 }

// Intersects returns true if s and t have at least one kind in common.
func (s KindSet) Intersects(t KindSet) bool { return s&t != 0 }

// IsEmpty returns true if the set has no kinds.
func (s KindSet) IsEmpty() bool { return s == NoKinds }

// Kinds returns the kinds in the set, in increasing order.
func (s KindSet) Kinds() []Kind {
	var ks []Kind
	for k := Kind(0); k < numKinds; k++ {
		if s.Has(k) {
			ks = append(ks, k)
		}
	}
	return ks
}

func (s KindSet) String() string {
	switch s {
	case NoKinds:
		return "{}"
	case UserControlled:
		return "UserControlled"
	}
	names := make([]string, 0, numKinds)
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// ParseKinds parses a kind name as used in configuration files. Names are case-insensitive, and
// "UserControlled" (or "all") denotes every kind.
func ParseKinds(name string) (KindSet, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "usercontrolled", "user-controlled", "all":
		return UserControlled, nil
	}
	for k := Kind(0); k < numKinds; k++ {
		if strings.ToLower(kindNames[k]) == n {
			return KindsOf(k), nil
		}
	}
	switch n {
	case "shell", "command":
		return KindsOf(ShellCommand), nil
	case "sql":
		return KindsOf(SQLQuery), nil
	case "file", "path":
		return KindsOf(FileSystemPath), nil
	case "url", "network":
		return KindsOf(NetworkURL), nil
	}
	return NoKinds, fmt.Errorf("unknown taint kind %q", name)
}
