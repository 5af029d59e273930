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
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokInt
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

// SplitComment splits an instruction line into its code and its trailing "//" comment. Comment markers inside
// string literals are ignored.
func SplitComment(line string) (code string, comment string) {
	inString := false
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '\\' && inString:
			i++
		case c == '"':
			inString = !inString
		case !inString && c == '/' && i+1 < len(line) && line[i+1] == '/':
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+2:])
		}
	}
	return strings.TrimSpace(line), ""
}

func isNameStart(r rune) bool {
	return r == '_' || r == '~' || unicode.IsLetter(r)
}

func isNamePart(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || r == ':' || r == '<' || r == '>'
}

func lex(s string) ([]token, error) {
	var toks []token
	rs := []rune(s)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r):
			j := i
			for j < len(rs) && unicode.IsDigit(rs[j]) {
				j++
			}
			toks = append(toks, token{tokInt, string(rs[i:j])})
			i = j
		case r == '"':
			j := i + 1
			for j < len(rs) && rs[j] != '"' {
				if rs[j] == '\\' {
					j++
				}
				j++
			}
			if j >= len(rs) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			lit, err := strconv.Unquote(string(rs[i : j+1]))
			if err != nil {
				return nil, fmt.Errorf("bad string literal %s: %w", string(rs[i:j+1]), err)
			}
			toks = append(toks, token{tokString, lit})
			i = j + 1
		case isNameStart(r):
			j := i
			for j < len(rs) && isNamePart(rs[j]) {
				j++
			}
			toks = append(toks, token{tokName, string(rs[i:j])})
			i = j
		case strings.ContainsRune("$@(),=+-*.", r):
			toks = append(toks, token{tokPunct, string(r)})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", r)
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token{kind: tokEOF}
}

func (p *parser) next() token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) expect(s string) error {
	if !p.isPunct(s) {
		return fmt.Errorf("expected %q, got %q", s, p.peek().text)
	}
	p.next()
	return nil
}

func (p *parser) isCallKeyword() bool {
	t := p.peek()
	return t.kind == tokName && (t.text == "call" || t.text == "invoke")
}

// ParseInstr parses one instruction in the textual syntax:
//
//	return [expr]
//	[place =] call callee(args)
//	[place =] invoke callee(@receiver, args)
//	place = expr
//
// A trailing "//" comment is ignored.
func ParseInstr(line string, pos Pos) (Instr, error) {
	code, _ := SplitComment(line)
	toks, err := lex(code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pos, err)
	}
	p := &parser{toks: toks}
	instr, err := p.instr(pos)
	if err != nil {
		return nil, fmt.Errorf("%s: %q: %w", pos, code, err)
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%s: %q: unexpected %q", pos, code, p.peek().text)
	}
	return instr, nil
}

func (p *parser) instr(pos Pos) (Instr, error) {
	t := p.peek()
	if t.kind == tokEOF {
		return nil, fmt.Errorf("empty instruction")
	}
	if t.kind == tokName && t.text == "return" {
		p.next()
		if p.peek().kind == tokEOF {
			return &Return{At: pos}, nil
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &Return{Value: e, At: pos}, nil
	}
	if p.isCallKeyword() {
		return p.call(nil, pos)
	}
	dst, err := p.place()
	if err != nil {
		return nil, err
	}
	if err := p.expect("="); err != nil {
		return nil, err
	}
	if p.isCallKeyword() {
		return p.call(&dst, pos)
	}
	src, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &Assign{Dst: dst, Src: src, At: pos}, nil
}

func (p *parser) call(result *Place, pos Pos) (Instr, error) {
	kw := p.next()
	callee := p.next()
	if callee.kind != tokName {
		return nil, fmt.Errorf("expected callee name, got %q", callee.text)
	}
	c := &Call{Result: result, Callee: callee.text, Virtual: kw.text == "invoke", At: pos}
	if err := p.expect("("); err != nil {
		return nil, err
	}
	for !p.isPunct(")") {
		if len(c.Args) > 0 || c.Receiver != nil {
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
		receiver := false
		if p.isPunct("@") {
			if len(c.Args) > 0 || c.Receiver != nil {
				return nil, fmt.Errorf("receiver must be the first argument")
			}
			p.next()
			receiver = true
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if receiver {
			c.Receiver = e
		} else {
			c.Args = append(c.Args, e)
		}
	}
	p.next()
	if c.Virtual && c.Receiver == nil {
		return nil, fmt.Errorf("invoke of %s without receiver", c.Callee)
	}
	return c, nil
}

func (p *parser) place() (Place, error) {
	t := p.next()
	if t.kind != tokName {
		return Place{}, fmt.Errorf("expected a variable, got %q", t.text)
	}
	pl := Place{Root: t.text}
	for p.isPunct(".") {
		p.next()
		f := p.next()
		if f.kind != tokName {
			return Place{}, fmt.Errorf("expected a field name, got %q", f.text)
		}
		pl.Fields = append(pl.Fields, f.text)
	}
	return pl, nil
}

func (p *parser) expr() (Expr, error) {
	x, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") || p.isPunct("*") {
		op := p.next().text[0]
		y, err := p.term()
		if err != nil {
			return nil, err
		}
		x = Binary{Op: op, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) term() (Expr, error) {
	t := p.peek()
	switch {
	case t.kind == tokInt:
		p.next()
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, err
		}
		return IntConst{Value: n}, nil
	case t.kind == tokString:
		p.next()
		return StringConst{Value: t.text}, nil
	case t.kind == tokName:
		pl, err := p.place()
		if err != nil {
			return nil, err
		}
		return Use{Place: pl}, nil
	case p.isPunct("-"):
		p.next()
		n := p.next()
		if n.kind != tokInt {
			return nil, fmt.Errorf("expected integer after '-', got %q", n.text)
		}
		v, err := strconv.ParseInt("-"+n.text, 10, 64)
		if err != nil {
			return nil, err
		}
		return IntConst{Value: v}, nil
	case p.isPunct("$"):
		p.next()
		n := p.next()
		if n.kind != tokName {
			return nil, fmt.Errorf("expected constant name after '$', got %q", n.text)
		}
		return NamedConst{Name: n.text}, nil
	case p.isPunct("("):
		p.next()
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("unexpected %q", t.text)
}
