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

package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// ThisName is the name of the receiver of methods.
const ThisName = "this"

// A Pos is a position in the analyzed source.
type Pos struct {
	File string
	Line int
}

func (p Pos) String() string {
	if p.File == "" && p.Line == 0 {
		return "-"
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// A Place is a storage location: a variable (local, formal, or "this") followed by a possibly empty path of
// field names.
type Place struct {
	Root   string
	Fields []string
}

// PlaceOf returns the place denoted by a dotted path such as "formal.s".
func PlaceOf(path string) Place {
	parts := strings.Split(path, ".")
	return Place{Root: parts[0], Fields: parts[1:]}
}

// Key returns the dotted representation of the place.
func (p Place) Key() string {
	if len(p.Fields) == 0 {
		return p.Root
	}
	return p.Root + "." + strings.Join(p.Fields, ".")
}

func (p Place) String() string { return p.Key() }

// An Expr is a side-effect free expression.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// A Use reads a place.
type Use struct {
	Place Place
}

// An IntConst is an integer literal.
type IntConst struct {
	Value int64
}

// A StringConst is a string literal.
type StringConst struct {
	Value string
}

// A NamedConst is a reference to a named compile-time constant (an enum value or a constant definition).
type NamedConst struct {
	Name string
}

// A Binary is an arithmetic operation on two expressions. Op is one of '+', '-' and '*'.
type Binary struct {
	Op   byte
	X, Y Expr
}

func (Use) isExpr()         {}
func (IntConst) isExpr()    {}
func (StringConst) isExpr() {}
func (NamedConst) isExpr()  {}
func (Binary) isExpr()      {}

func (e Use) String() string         { return e.Place.Key() }
func (e IntConst) String() string    { return strconv.FormatInt(e.Value, 10) }
func (e StringConst) String() string { return strconv.Quote(e.Value) }
func (e NamedConst) String() string  { return "$" + e.Name }
func (e Binary) String() string {
	return "(" + e.X.String() + " " + string(e.Op) + " " + e.Y.String() + ")"
}

// An Instr is an instruction of a basic block.
type Instr interface {
	fmt.Stringer
	Pos() Pos
	isInstr()
}

// An Assign writes the value of Src to Dst.
type Assign struct {
	Dst Place
	Src Expr
	At  Pos
}

// A Call calls Callee with arguments Args. Receiver is nil for calls to free functions. If Virtual is true, the
// call is dispatched to any override of Callee.
type Call struct {
	Result   *Place
	Callee   string
	Receiver Expr
	Args     []Expr
	Virtual  bool
	At       Pos
}

// A Return exits the procedure, with an optional value.
type Return struct {
	Value Expr
	At    Pos
}

func (*Assign) isInstr() {}
func (*Call) isInstr()   {}
func (*Return) isInstr() {}

// Pos returns the position of the instruction.
func (i *Assign) Pos() Pos { return i.At }

// Pos returns the position of the instruction.
func (i *Call) Pos() Pos { return i.At }

// Pos returns the position of the instruction.
func (i *Return) Pos() Pos { return i.At }

func (i *Assign) String() string { return i.Dst.Key() + " = " + i.Src.String() }

func (i *Call) String() string {
	var b strings.Builder
	if i.Result != nil {
		b.WriteString(i.Result.Key())
		b.WriteString(" = ")
	}
	if i.Virtual {
		b.WriteString("invoke ")
	} else {
		b.WriteString("call ")
	}
	b.WriteString(i.Callee)
	b.WriteString("(")
	var args []string
	if i.Receiver != nil {
		args = append(args, "@"+i.Receiver.String())
	}
	for _, a := range i.Args {
		args = append(args, a.String())
	}
	b.WriteString(strings.Join(args, ", "))
	b.WriteString(")")
	return b.String()
}

func (i *Return) String() string {
	if i.Value == nil {
		return "return"
	}
	return "return " + i.Value.String()
}

// Arg returns the argument at position pos, where ReceiverPosition denotes the receiver. It returns nil when
// there is no such argument.
func (i *Call) Arg(pos int) Expr {
	if pos == ReceiverPosition {
		return i.Receiver
	}
	if pos < 0 || pos >= len(i.Args) {
		return nil
	}
	return i.Args[pos]
}

// ReceiverPosition is the argument position of the receiver of a call.
const ReceiverPosition = -1
