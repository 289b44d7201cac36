// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "github.com/tangovm/tango/isa"

// Derive an instruction's final opcode from the addressing modes of its
// operands. tokens[0] is the opcode token; it is updated in place.
func (a *assembler) encode(row int, tokens []Token) {
	inst, ok := isa.LookupOpcode(byte(tokens[0].Value))
	if !ok {
		a.addError(row, "unknown opcode $%02X", tokens[0].Value)
		return
	}

	operands := tokens[1:]
	if len(operands) != inst.Operands {
		a.addError(row, "'%s' expects %d operand(s), found %d", inst.Name, inst.Operands, len(operands))
		return
	}

	var offset byte
	switch inst.Family {
	case isa.Implied:
		return

	case isa.Jump:
		d, ok := a.destOffset(row, inst, operands[0])
		if !ok {
			return
		}
		offset = d

	case isa.Unary:
		s, ok := a.srcOffset(row, inst, operands[0])
		if !ok {
			return
		}
		offset = s

	case isa.Binary:
		d, ok := a.destOffset(row, inst, operands[0])
		if !ok {
			return
		}
		s, ok := a.srcOffset(row, inst, operands[1])
		if !ok {
			return
		}
		offset = d + s
	}

	tokens[0].Value += uint16(offset)
	a.logLine(row, "%s %s opcode=$%02X", inst.Name, inst.Family, tokens[0].Value)
}

func (a *assembler) destOffset(row int, inst *isa.Instruction, t Token) (byte, bool) {
	if m, ok := t.mode(); ok {
		if off, ok := isa.DestOffset(m); ok {
			return off, true
		}
	}
	a.addError(row, "invalid destination operand %v for '%s'", t, inst.Name)
	return 0, false
}

func (a *assembler) srcOffset(row int, inst *isa.Instruction, t Token) (byte, bool) {
	if m, ok := t.mode(); ok {
		if off, ok := isa.SourceOffset(m); ok {
			return off, true
		}
	}
	a.addError(row, "invalid source operand %v for '%s'", t, inst.Name)
	return 0, false
}
