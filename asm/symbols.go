// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"sort"
)

// unresolved marks a label that has been referenced but not yet defined.
const unresolved = -1

// A symbolTable maps label names to program counter values.
type symbolTable map[string]int

// define binds a label to an address. A label may be defined only once.
func (s symbolTable) define(name string, pc int) error {
	if v, ok := s[name]; ok && v != unresolved {
		return fmt.Errorf("label '%s' already defined", name)
	}
	s[name] = pc
	return nil
}

// reference records a use of a label, leaving it unresolved if it has not
// been defined.
func (s symbolTable) reference(name string) {
	if _, ok := s[name]; !ok {
		s[name] = unresolved
	}
}

// lookup returns the address bound to a defined label.
func (s symbolTable) lookup(name string) (uint16, bool) {
	v, ok := s[name]
	if !ok || v == unresolved {
		return 0, false
	}
	return uint16(v), true
}

// labels returns all defined labels sorted by address, then name.
func (s symbolTable) labels() []Symbol {
	var syms []Symbol
	for name, v := range s {
		if v != unresolved {
			syms = append(syms, Symbol{Name: name, Address: uint16(v)})
		}
	}
	sortSymbols(syms)
	return syms
}

// A Symbol is a label bound to an address.
type Symbol struct {
	Name    string
	Address uint16
}

func sortSymbols(syms []Symbol) {
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].Address != syms[j].Address {
			return syms[i].Address < syms[j].Address
		}
		return syms[i].Name < syms[j].Name
	})
}

// A constantTable maps .equ names to the token they stand for.
type constantTable map[string]Token

// substitute replaces a reference to a constant with the constant's value,
// applying the reference's decoration. The result is either a resolved
// operand or, for a constant that aliases a label, a new label reference.
func (c constantTable) substitute(ref Token) (Token, error) {
	v, ok := c[ref.Name]
	if !ok {
		return ref, nil
	}

	switch v.Kind {
	case Label:
		if ref.Deco == Plain {
			return v, nil
		}
		if v.Deco != Plain {
			return Token{}, fmt.Errorf("constant '%s' is already decorated", ref.Name)
		}
		return Token{Kind: Label, Name: v.Name, Deco: ref.Deco}, nil

	case Register:
		if ref.Deco != Plain {
			return Token{}, fmt.Errorf("register constant '%s' cannot be decorated", ref.Name)
		}
		return v, nil

	case Address:
		return v.resolveAs(ref.Deco), nil

	case Immediate, Indirect:
		switch ref.Deco {
		case Plain:
			return v, nil
		case LowByte:
			return Token{Kind: Immediate, Value: v.Value & 0xff}, nil
		case HighByte:
			return Token{Kind: Immediate, Value: v.Value >> 8}, nil
		}
	}
	return Token{}, fmt.Errorf("constant '%s' cannot be used as '%s'", ref.Name, ref.ref())
}

// resolveAs applies a reference decoration to an address token.
func (t Token) resolveAs(deco Decoration) Token {
	return Token{Deco: deco}.resolve(t.Value)
}
