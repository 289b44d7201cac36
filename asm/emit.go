// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// Generate machine code. Every label is now defined or missing, so deferred
// references are resolved here. Gaps opened by .org are zero-filled so that
// a byte's offset in the code equals its address.
func (a *assembler) generateCode() error {
	a.logSection("Generating code")
	for _, rec := range a.records {
		var b []byte
		resolved := true
		for _, t := range rec.tokens {
			switch t.Kind {
			case Directive, LabelDef, EquDef, Comment:
				continue
			case Label:
				addr, ok := a.symbols.lookup(t.Name)
				if !ok {
					a.addError(rec.line, "label '%s' not found", t.Name)
					resolved = false
					continue
				}
				t = t.resolve(addr)
			}
			b = t.bytes(b)
		}

		if !resolved || len(b) == 0 {
			continue
		}

		if gap := rec.pc - len(a.code); gap > 0 {
			a.code = append(a.code, make([]byte, gap)...)
		}
		a.code = append(a.code, b...)
		a.lines = append(a.lines, Line{Address: uint16(rec.pc), Source: rec.line, Code: b})
		a.logBytes(rec.pc, b)
	}
	return nil
}
