// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isa

// A Mode identifies an operand's addressing mode.
type Mode byte

// Addressing modes.
const (
	Register  Mode = iota // REG
	Address               // ABS
	Immediate             // IMM
	Indirect              // IND
)

var modeName = []string{"REG", "ABS", "IMM", "IND"}

func (m Mode) String() string {
	return modeName[m]
}

// Size returns the number of bytes an operand in this mode occupies.
func (m Mode) Size() int {
	switch m {
	case Address, Indirect:
		return 2
	default:
		return 1
	}
}

// DestOffset returns the amount a destination operand in mode m adds to a
// base opcode. Immediate destinations are invalid.
func DestOffset(m Mode) (byte, bool) {
	switch m {
	case Register:
		return 0x00, true
	case Address:
		return 0x40, true
	case Indirect:
		return 0x80, true
	default:
		return 0, false
	}
}

// SourceOffset returns the amount a source operand in mode m adds to a
// base opcode.
func SourceOffset(m Mode) (byte, bool) {
	switch m {
	case Register:
		return 0x00, true
	case Address:
		return 0x10, true
	case Immediate:
		return 0x20, true
	case Indirect:
		return 0x30, true
	default:
		return 0, false
	}
}

func destFromOffset(off byte) (Mode, bool) {
	switch off {
	case 0x00:
		return Register, true
	case 0x40:
		return Address, true
	case 0x80:
		return Indirect, true
	default:
		return 0, false
	}
}

func srcFromOffset(off byte) (Mode, bool) {
	switch off {
	case 0x00:
		return Register, true
	case 0x10:
		return Address, true
	case 0x20:
		return Immediate, true
	default:
		return Indirect, true
	}
}
