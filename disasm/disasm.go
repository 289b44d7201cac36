// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a tango instruction set
// disassembler.
package disasm

import (
	"fmt"
	"strings"

	"github.com/tangovm/tango/isa"
)

// Disassembler formatting for addressing modes
var modeFormat = []string{
	"%s",      // REG
	"$%04X",   // ABS
	"#$%02X",  // IMM
	"[$%04X]", // IND
}

// Disassemble the machine code in memory 'm' at address 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// address that starts the following line of machine code. Bytes that no
// instruction can produce disassemble as data.
func Disassemble(m isa.Memory, addr uint16) (line string, next uint16) {
	opcode := m.LoadByte(addr)
	v, ok := isa.Decode(opcode)
	if !ok {
		return fmt.Sprintf(".byte $%02X", opcode), addr + 1
	}

	next = addr + 1
	modes := operandModes(v)
	operands := make([]string, 0, len(modes))
	for _, mode := range modes {
		operands = append(operands, formatOperand(m, next, mode))
		next += uint16(mode.Size())
	}

	line = v.Inst.Name
	if len(operands) > 0 {
		line += " " + strings.Join(operands, ", ")
	}
	return line, next
}

// Return the addressing mode of each operand following the opcode.
func operandModes(v isa.Variant) []isa.Mode {
	switch v.Inst.Family {
	case isa.Jump:
		return []isa.Mode{v.Dest}
	case isa.Unary:
		return []isa.Mode{v.Src}
	case isa.Binary:
		return []isa.Mode{v.Dest, v.Src}
	}

	// Branches take a target address. Other implied instructions with an
	// operand take a register.
	modes := make([]isa.Mode, v.Inst.Operands)
	for i := range modes {
		if v.Inst.Opcode&0x0f == 0x01 {
			modes[i] = isa.Address
		} else {
			modes[i] = isa.Register
		}
	}
	return modes
}

func formatOperand(m isa.Memory, addr uint16, mode isa.Mode) string {
	switch mode {
	case isa.Register:
		code := m.LoadByte(addr)
		if name := isa.RegisterName(code); name != "" {
			return name
		}
		return fmt.Sprintf("$%02X", code)
	case isa.Immediate:
		return fmt.Sprintf(modeFormat[mode], m.LoadByte(addr))
	default:
		return fmt.Sprintf(modeFormat[mode], m.LoadAddress(addr))
	}
}
