// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"encoding/json"
	"io"
	"sort"
)

// A SourceMap describes the mapping between source code line numbers and
// assembly code addresses, along with the labels defined by the source.
type SourceMap struct {
	File   string
	Size   uint32
	CRC    uint32
	Lines  []SourceLine
	Labels []Symbol
}

// A SourceLine represents a mapping between a machine code address and
// the source code line used to generate it.
type SourceLine struct {
	Address int // Machine code address
	Line    int // 0-based source code line number
}

// Search searches the source map for a mapping with the requested address.
func (s *SourceMap) Search(addr int) (filename string, line int) {
	i := sort.Search(len(s.Lines), func(i int) bool {
		return s.Lines[i].Address >= addr
	})
	if i < len(s.Lines) && s.Lines[i].Address == addr {
		return s.File, s.Lines[i].Line
	}
	return "", -1
}

// Lookup returns the address of a label.
func (s *SourceMap) Lookup(name string) (uint16, bool) {
	for _, l := range s.Labels {
		if l.Name == name {
			return l.Address, true
		}
	}
	return 0, false
}

// LabelsAt returns the names of all labels bound to an address.
func (s *SourceMap) LabelsAt(addr uint16) []string {
	var names []string
	for _, l := range s.Labels {
		if l.Address == addr {
			names = append(names, l.Name)
		}
	}
	return names
}

// ReadFrom reads the contents of a source map file.
func (s *SourceMap) ReadFrom(r io.Reader) (n int64, err error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	err = json.Unmarshal(b, s)
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}

// WriteTo writes the contents of the source map to an output stream.
func (s *SourceMap) WriteTo(w io.Writer) (n int64, err error) {
	b, err := json.Marshal(*s)
	if err != nil {
		return 0, err
	}

	nn, err := w.Write(b)
	return int64(nn), err
}
