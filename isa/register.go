// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isa

import "strings"

// General purpose registers occupy codes 0 through GeneralRegisters-1.
const GeneralRegisters = 8

// Special register codes.
const (
	ST byte = 0x08 // status
	SL byte = 0x09 // stack pointer, low byte
	SH byte = 0x0a // stack pointer, high byte
	XL byte = 0x0b // X index, low byte
	XH byte = 0x0c // X index, high byte
	YL byte = 0x0d // Y index, low byte
	YH byte = 0x0e // Y index, high byte
	X  byte = 0xf0 // byte addressed by X
	Y  byte = 0xf1 // byte addressed by Y
	SP byte = 0xf2 // stack pointer
)

var specialRegisters = map[string]byte{
	"st": ST,
	"sl": SL,
	"sh": SH,
	"xl": XL,
	"xh": XH,
	"yl": YL,
	"yh": YH,
	"x":  X,
	"y":  Y,
	"sp": SP,
}

var registerNames = func() map[byte]string {
	m := make(map[byte]string, len(specialRegisters))
	for name, code := range specialRegisters {
		m[code] = name
	}
	return m
}()

// LookupRegister returns the code of a general (r0-r7) or special
// register name. The match is case-insensitive.
func LookupRegister(name string) (byte, bool) {
	name = strings.ToLower(name)
	if len(name) == 2 && name[0] == 'r' && name[1] >= '0' && name[1] < '0'+GeneralRegisters {
		return name[1] - '0', true
	}
	code, ok := specialRegisters[name]
	return code, ok
}

// RegisterName returns the assembler name of a register code, or the empty
// string if the code names no register.
func RegisterName(code byte) string {
	if code < GeneralRegisters {
		return "r" + string(rune('0'+code))
	}
	return registerNames[code]
}
