// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package isa describes the tango instruction set: mnemonics, base
// opcodes, registers and the addressing-mode offsets used to derive
// concrete opcode variants.
package isa

import "strings"

// A Family groups instructions by the way their operands select an
// opcode variant.
type Family byte

const (
	// Implied instructions never add addressing-mode offsets.
	Implied Family = iota

	// Jump instructions take a single destination operand.
	Jump

	// Unary instructions take a single source operand. Their destination
	// is implicitly a register.
	Unary

	// Binary instructions take a destination and a source operand.
	Binary
)

var familyName = []string{"implied", "jump", "unary", "binary"}

func (f Family) String() string {
	return familyName[f]
}

// An Instruction describes a single mnemonic.
type Instruction struct {
	Name     string // lower-case mnemonic
	Opcode   byte   // base opcode before addressing-mode offsets
	Operands int    // number of operand tokens that follow the mnemonic
	Family   Family // addressing-mode family
}

// The order of this table matters: when an opcode variant can be derived
// from more than one base opcode, the disassembler picks the first match.
var instructions = []Instruction{
	{"nop", 0x00, 0, Implied},
	{"jmp", 0x10, 1, Jump},
	{"inc", 0x20, 1, Implied},
	{"dec", 0x30, 1, Implied},
	{"clc", 0x40, 0, Implied},
	{"sec", 0x50, 0, Implied},
	{"not", 0x60, 1, Implied},
	{"jsr", 0x70, 1, Jump},
	{"ret", 0x80, 0, Implied},
	{"beq", 0x01, 1, Implied},
	{"bne", 0x11, 1, Implied},
	{"blt", 0x21, 1, Implied},
	{"ble", 0x31, 1, Implied},
	{"bgt", 0x41, 1, Implied},
	{"bge", 0x51, 1, Implied},
	{"mov", 0x02, 2, Binary},
	{"add", 0x03, 2, Binary},
	{"adc", 0x43, 2, Binary},
	{"sub", 0x04, 2, Binary},
	{"sbb", 0x44, 2, Binary},
	{"cmp", 0x05, 2, Binary},
	{"and", 0x07, 2, Binary},
	{"or", 0x47, 2, Binary},
	{"psh", 0x08, 1, Unary},
	{"pop", 0x48, 1, Unary},
	{"dbg", 0xfe, 0, Implied},
	{"end", 0xff, 0, Implied},
}

var (
	byName   = make(map[string]*Instruction, len(instructions))
	byOpcode = make(map[byte]*Instruction, len(instructions))
)

func init() {
	for i := range instructions {
		inst := &instructions[i]
		byName[inst.Name] = inst
		byOpcode[inst.Opcode] = inst
	}
}

// Lookup returns the instruction matching a mnemonic. The match is
// case-insensitive.
func Lookup(name string) (*Instruction, bool) {
	inst, ok := byName[strings.ToLower(name)]
	return inst, ok
}

// LookupOpcode returns the instruction whose base opcode is exactly op.
func LookupOpcode(op byte) (*Instruction, bool) {
	inst, ok := byOpcode[op]
	return inst, ok
}

// A Variant is a fully decoded opcode: the instruction plus the addressing
// modes selected by the opcode's offsets.
type Variant struct {
	Inst *Instruction
	Dest Mode // destination mode (binary and jump families)
	Src  Mode // source mode (binary and unary families)
}

// Decode maps an opcode byte back to an instruction variant. Base opcodes
// take precedence over derived variants. It returns false if no
// instruction can produce op.
func Decode(op byte) (Variant, bool) {
	if inst, ok := byOpcode[op]; ok {
		return Variant{Inst: inst, Dest: Register, Src: Register}, true
	}

	for i := range instructions {
		inst := &instructions[i]
		if inst.Family == Implied || op < inst.Opcode {
			continue
		}
		delta := op - inst.Opcode
		dest, ok := destFromOffset(delta & 0xc0)
		if !ok {
			continue
		}
		src, ok := srcFromOffset(delta & 0x30)
		if !ok || delta&0x0f != 0 {
			continue
		}

		switch inst.Family {
		case Jump:
			if src != Register {
				continue
			}
		case Unary:
			if dest != Register {
				continue
			}
		}
		return Variant{Inst: inst, Dest: dest, Src: src}, true
	}
	return Variant{}, false
}
