// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package isa

// The Memory interface presents the 16-bit address space that ROM images
// are loaded into.
type Memory interface {
	// LoadByte loads a single byte from the address and returns it.
	LoadByte(addr uint16) byte

	// LoadBytes loads multiple bytes from the address and stores them into
	// the buffer 'b'.
	LoadBytes(addr uint16, b []byte)

	// LoadAddress loads a little-endian 16-bit value from the requested
	// address and returns it.
	LoadAddress(addr uint16) uint16

	// StoreByte stores a byte to the requested address.
	StoreByte(addr uint16, v byte)

	// StoreBytes stores multiple bytes to the requested address.
	StoreBytes(addr uint16, b []byte)
}

// FlatMemory represents an entire 16-bit address space as a singular
// 64K buffer.
type FlatMemory struct {
	b [64 * 1024]byte
}

// NewFlatMemory creates a new 16-bit memory space.
func NewFlatMemory() *FlatMemory {
	return &FlatMemory{}
}

// LoadByte loads a single byte from the address and returns it.
func (m *FlatMemory) LoadByte(addr uint16) byte {
	return m.b[addr]
}

// LoadBytes loads multiple bytes from the address. Bytes past the end of
// the address space read as zero.
func (m *FlatMemory) LoadBytes(addr uint16, b []byte) {
	n := copy(b, m.b[addr:])
	clear(b[n:])
}

// LoadAddress loads a 16-bit value, low byte first. The high byte wraps
// to address 0 at the top of memory.
func (m *FlatMemory) LoadAddress(addr uint16) uint16 {
	return uint16(m.b[addr]) | uint16(m.b[addr+1])<<8
}

// StoreByte stores a byte at the requested address.
func (m *FlatMemory) StoreByte(addr uint16, v byte) {
	m.b[addr] = v
}

// StoreBytes stores multiple bytes to the requested address. Bytes that
// would land past the end of the address space are dropped.
func (m *FlatMemory) StoreBytes(addr uint16, b []byte) {
	copy(m.b[addr:], b)
}
