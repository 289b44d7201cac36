// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tangovm/tango/isa"
)

// classify splits a line of source into whitespace-delimited words and maps
// each word to a token. Classification stops at the first comment. If a
// word cannot be classified, the tokens already produced are discarded and
// an error describing the word is returned.
func classify(line string) ([]Token, error) {
	var tokens []Token

	// The first token that is not a label definition decides how numeric
	// literals and the word after an .equ are interpreted.
	lead := -1
	var leadDir string

	for _, word := range strings.Fields(line) {
		if comment(word[0]) {
			break
		}

		// A trailing comma is cosmetic.
		word = strings.TrimSuffix(word, ",")
		if word == "" {
			continue
		}

		equName := leadDir == dirEqu && len(tokens) == lead+1
		t, err := classifyWord(word, leadDir == dirByte, equName)
		if err != nil {
			return nil, err
		}

		if lead == -1 && t.Kind != LabelDef {
			lead = len(tokens)
			if t.Kind == Directive {
				leadDir = t.Name
			}
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// classifyWord maps a single word to a token. Recognition order matters:
// mnemonics shadow directives, which shadow registers, and so on.
func classifyWord(word string, byteData, equName bool) (Token, error) {
	if inst, ok := isa.Lookup(word); ok {
		return Token{Kind: OpCode, Value: uint16(inst.Opcode)}, nil
	}

	lower := strings.ToLower(word)
	switch lower {
	case dirByte, dirEqu, dirOrg:
		return Token{Kind: Directive, Name: lower}, nil
	}

	if code, ok := isa.LookupRegister(word); ok {
		return Token{Kind: Register, Value: uint16(code)}, nil
	}

	if name, ok := strings.CutSuffix(word, ":"); ok && isName(name) {
		if reserved(name) {
			return Token{}, fmt.Errorf("label '%s' is a reserved word", name)
		}
		return Token{Kind: LabelDef, Name: name}, nil
	}

	if t, ok := labelReference(word); ok {
		if equName && t.Deco == Plain {
			t.Kind = EquDef
		}
		return t, nil
	}

	if decimal(word[0]) || word[0] == '$' || word[0] == '#' || word[0] == '[' {
		return parseNumber(word, byteData)
	}

	return Token{}, fmt.Errorf("unrecognized word '%s'", word)
}

// labelReference recognizes name, [name], <name and >name.
func labelReference(word string) (Token, bool) {
	deco, name := Plain, word
	switch {
	case word[0] == '[' && len(word) > 2 && word[len(word)-1] == ']':
		deco, name = Bracket, word[1:len(word)-1]
	case word[0] == '<':
		deco, name = LowByte, word[1:]
	case word[0] == '>':
		deco, name = HighByte, word[1:]
	}

	if !isName(name) {
		return Token{}, false
	}
	return Token{Kind: Label, Name: name, Deco: deco}, true
}

// parseNumber parses a decimal or $-prefixed hexadecimal literal. A '#'
// prefix makes it immediate and [...] makes it indirect. Otherwise the
// literal is an absolute address, unless it appears as .byte data.
func parseNumber(word string, byteData bool) (Token, error) {
	kind, s := Address, word
	switch {
	case s[0] == '#':
		kind, s = Immediate, s[1:]
	case s[0] == '[':
		if len(s) < 2 || s[len(s)-1] != ']' {
			return Token{}, fmt.Errorf("unterminated indirect address '%s'", word)
		}
		kind, s = Indirect, s[1:len(s)-1]
	case byteData:
		kind = Immediate
	}

	base := 10
	if len(s) > 0 && s[0] == '$' {
		base, s = 16, s[1:]
	}
	if s == "" {
		return Token{}, fmt.Errorf("missing value in '%s'", word)
	}

	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return Token{}, fmt.Errorf("invalid number '%s'", word)
	}

	switch {
	case kind == Immediate && v > 0xff:
		return Token{}, fmt.Errorf("immediate value '%s' exceeds $FF", word)
	case v > 0xffff:
		return Token{}, fmt.Errorf("address '%s' exceeds $FFFF", word)
	}
	return Token{Kind: kind, Value: uint16(v)}, nil
}

// reserved reports whether a name would classify as something other than
// a label.
func reserved(name string) bool {
	if _, ok := isa.Lookup(name); ok {
		return true
	}
	_, ok := isa.LookupRegister(name)
	return ok
}

func isName(s string) bool {
	if s == "" || !labelStartChar(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !labelChar(s[i]) {
			return false
		}
	}
	return true
}

//
// character helper functions
//

func alpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func decimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func comment(c byte) bool {
	return c == ';'
}

func labelStartChar(c byte) bool {
	return alpha(c) || c == '_'
}

func labelChar(c byte) bool {
	return alpha(c) || decimal(c) || c == '_'
}
