// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"

	"github.com/tangovm/tango/isa"
)

// A Kind identifies the category of a classified source word.
type Kind byte

// Token kinds.
const (
	OpCode Kind = iota
	Register
	Address
	Indirect
	Immediate
	Label
	LabelDef
	EquDef
	Directive
	Comment
)

var kindName = []string{
	"OpCode",
	"Register",
	"Address",
	"Indirect",
	"Immediate",
	"Label",
	"LabelDef",
	"EquDef",
	"Directive",
	"Comment",
}

func (k Kind) String() string {
	return kindName[k]
}

// A Decoration modifies how a label reference resolves.
type Decoration byte

// Label reference decorations.
const (
	Plain    Decoration = iota // name: 16-bit address
	Bracket                    // [name]: indirect through the address
	LowByte                    // <name: low byte of the address
	HighByte                   // >name: high byte of the address
)

// Directives.
const (
	dirByte = ".byte"
	dirEqu  = ".equ"
	dirOrg  = ".org"
)

// A Token is a single classified word of source.
//
// Numeric kinds keep their value in Value. Label, LabelDef, EquDef and
// Directive tokens keep their name in Name. A Label token is an unresolved
// reference; resolving it produces a new Address, Indirect or Immediate
// token rather than mutating the reference.
type Token struct {
	Kind  Kind
	Value uint16
	Name  string
	Deco  Decoration
}

func (t Token) String() string {
	switch t.Kind {
	case Label:
		return fmt.Sprintf("%s(%q)", t.Kind, t.ref())
	case LabelDef, EquDef, Directive:
		return fmt.Sprintf("%s(%q)", t.Kind, t.Name)
	case Address, Indirect:
		return fmt.Sprintf("%s($%04X)", t.Kind, t.Value)
	default:
		return fmt.Sprintf("%s($%02X)", t.Kind, t.Value)
	}
}

// ref returns the reference text as it appeared in source.
func (t Token) ref() string {
	switch t.Deco {
	case Bracket:
		return "[" + t.Name + "]"
	case LowByte:
		return "<" + t.Name
	case HighByte:
		return ">" + t.Name
	default:
		return t.Name
	}
}

// half reports whether a label reference selects one byte of its address.
func (t Token) half() bool {
	return t.Deco == LowByte || t.Deco == HighByte
}

// Size returns the number of bytes the token occupies in the output.
func (t Token) Size() int {
	switch t.Kind {
	case Address, Indirect:
		return 2
	case Label:
		if t.half() {
			return 1
		}
		return 2
	case LabelDef, EquDef, Directive, Comment:
		return 0
	default:
		return 1
	}
}

// mode returns the addressing mode selected by an operand token.
func (t Token) mode() (isa.Mode, bool) {
	switch t.Kind {
	case Register:
		return isa.Register, true
	case Address:
		return isa.Address, true
	case Indirect:
		return isa.Indirect, true
	case Immediate:
		return isa.Immediate, true
	case Label:
		switch t.Deco {
		case Bracket:
			return isa.Indirect, true
		case LowByte, HighByte:
			return isa.Immediate, true
		default:
			return isa.Address, true
		}
	default:
		return 0, false
	}
}

// resolve turns a label reference into the operand it denotes once the
// label's address is known.
func (t Token) resolve(addr uint16) Token {
	switch t.Deco {
	case Bracket:
		return Token{Kind: Indirect, Value: addr}
	case LowByte:
		return Token{Kind: Immediate, Value: addr & 0xff}
	case HighByte:
		return Token{Kind: Immediate, Value: addr >> 8}
	default:
		return Token{Kind: Address, Value: addr}
	}
}

// bytes appends the token's little-endian encoding to b.
func (t Token) bytes(b []byte) []byte {
	switch t.Kind {
	case Address, Indirect:
		return append(b, toBytes(2, int(t.Value))...)
	default:
		return append(b, byte(t.Value))
	}
}
