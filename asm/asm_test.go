// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func assemble(code string) (*Assembly, *SourceMap, error) {
	r := strings.NewReader(code)
	return Assemble(r, "test", io.Discard, 0)
}

func checkASM(t *testing.T, asm string, expected string) {
	t.Helper()
	assembly, _, err := assemble(asm)
	if err != nil {
		t.Error(err)
		for _, e := range assembly.Errors {
			t.Error(e)
		}
		return
	}

	code := assembly.Code
	b := make([]byte, len(code)*2)
	for i, j := 0, 0; i < len(code); i, j = i+1, j+2 {
		v := code[i]
		b[j+0] = hex[v>>4]
		b[j+1] = hex[v&0x0f]
	}
	s := string(b)

	if s != expected {
		t.Error("code doesn't match expected")
		t.Errorf("got: %s\n", s)
		t.Errorf("exp: %s\n", expected)
	}
}

func checkASMError(t *testing.T, asm string, errs ...string) {
	t.Helper()
	assembly, _, err := assemble(asm)
	if err == nil {
		t.Errorf("Expected error on %q, didn't get one\n", asm)
		return
	}
	if err.Error() != "parse error" {
		t.Errorf("Expected 'parse error', got '%v'\n", err)
	}
	if assembly.Code != nil {
		t.Errorf("Expected no code on failure, got % X\n", assembly.Code)
	}
	if len(assembly.Errors) != len(errs) {
		t.Errorf("Expected %d error(s), got %d: %q\n", len(errs), len(assembly.Errors), assembly.Errors)
		return
	}
	for i := range errs {
		if assembly.Errors[i] != errs[i] {
			t.Errorf("Expected '%s', got '%s'\n", errs[i], assembly.Errors[i])
		}
	}
}

func lines(l ...string) string {
	return strings.Join(l, "\n")
}

func TestImmediateAndRegister(t *testing.T) {
	asm := lines(
		"mov r0, #5",
		"mov r1, r0",
		"end")

	checkASM(t, asm, "220005020100FF")
}

func TestBackwardLabel(t *testing.T) {
	asm := lines(
		"loop: inc r0",
		"jmp loop",
		"end")

	checkASM(t, asm, "2000500000FF")
}

func TestForwardLabel(t *testing.T) {
	asm := lines(
		"jmp done",
		"nop",
		"done: end")

	checkASM(t, asm, "50040000FF")
}

func TestLabelOnOwnLine(t *testing.T) {
	asm := lines(
		"start:",
		"nop",
		"again:",
		"beq again")

	checkASM(t, asm, "00010100")
}

func TestHalfLabels(t *testing.T) {
	asm := lines(
		"mov r0, <data",
		"mov r1, >data",
		"end",
		"data: .byte 1 2")

	checkASM(t, asm, "220007220100FF0102")
}

func TestIndirectLabel(t *testing.T) {
	asm := lines(
		"ptr: .byte $00 $20",
		"jsr [ptr]",
		"mov r0, [ptr]")

	checkASM(t, asm, "0020F0000032000000")
}

func TestAddressingModes(t *testing.T) {
	asm := `
	mov $1234, r1
	mov [$1234], #1
	add r2, [$0010]
	mov r0, $0010
	sub r3, sp
	psh #7
	pop r1
	jsr [$2000]
	cmp x, y
	adc xl, #$FF
	sbb [16], [32]
	and r7, st
	or $20, $30`

	checkASM(t, asm, "42341201"+"A2341201"+"33021000"+"12001000"+"0403F2"+
		"2807"+"4801"+"F00020"+"05F0F1"+"630BFF"+"F410002000"+"070708"+"9720003000")
}

func TestImpliedOperands(t *testing.T) {
	asm := `
	nop
	clc
	sec
	ret
	dbg
	inc r3
	dec r4
	not r5
	bne $1234
	blt $0001
	ble $0002
	bgt $0003
	bge $0004`

	checkASM(t, asm, "00405080FE"+"2003"+"3004"+"6005"+
		"113412"+"210100"+"310200"+"410300"+"510400")
}

func TestCaseAndCommas(t *testing.T) {
	asm := lines(
		"MOV R2,   #$10 ; load",
		"Mov   r3, r2",
		"  ; nothing here",
		"",
		"END")

	checkASM(t, asm, "220210"+"020302"+"FF")
}

func TestEquates(t *testing.T) {
	asm := lines(
		".equ count #3",
		".equ port $4000",
		".equ acc r7",
		"mov acc, count",
		"mov port, acc",
		"mov r0, >port",
		"mov r1, <port",
		"end")

	checkASM(t, asm, "220703"+"42004007"+"220040"+"220100"+"FF")
}

func TestEquateLabelAlias(t *testing.T) {
	asm := lines(
		".equ target start",
		"nop",
		"start: jmp target",
		"mov r0, >target")

	checkASM(t, asm, "00500100220000")
}

func TestEquateForwardAlias(t *testing.T) {
	asm := lines(
		".equ target finish",
		"jmp target",
		"finish: end")

	checkASM(t, asm, "500300FF")
}

func TestOrigin(t *testing.T) {
	asm := lines(
		"nop",
		".org $0004",
		"here: jmp here",
		".org 8",
		"end")

	checkASM(t, asm, "00000000"+"500400"+"00"+"FF")
}

func TestOriginLabel(t *testing.T) {
	asm := lines(
		".equ base $0003",
		".org base",
		"end")

	checkASM(t, asm, "000000FF")
}

func TestOriginLabelDefinition(t *testing.T) {
	asm := lines(
		"nop",
		"start: .org $10",
		"jmp start")

	checkASM(t, asm, "00"+strings.Repeat("00", 15)+"501000")
}

func TestEquivalentOperands(t *testing.T) {
	sources := []string{
		lines(
			"mov r0, #$07",
			"jmp $0006",
			"end"),
		lines(
			"mov r0, #$07",
			"jmp done",
			"done: end"),
		lines(
			".equ count #$07",
			".equ target $0006",
			"mov r0, count",
			"jmp target",
			"end"),
	}

	expected := []byte{0x22, 0x00, 0x07, 0x50, 0x06, 0x00, 0xff}
	for i, src := range sources {
		assembly, _, err := assemble(src)
		if err != nil {
			t.Errorf("source %d: %v %q", i, err, assembly.Errors)
			continue
		}
		if !bytes.Equal(assembly.Code, expected) {
			t.Errorf("source %d: got % X, exp % X", i, assembly.Code, expected)
		}
	}
}

func TestDataBytes(t *testing.T) {
	asm := lines(
		".byte 1 2 $ff",
		".byte #4, 255",
		"table: .byte <table >table")

	checkASM(t, asm, "0102FF04FF0500")
}

func TestErrorDuplicateLabel(t *testing.T) {
	asm := lines(
		"a: nop",
		"a: nop")

	checkASMError(t, asm, "line 1: label 'a' already defined")

	asm = lines(
		"jmp a",
		"a: nop",
		"a: nop")

	checkASMError(t, asm, "line 2: label 'a' already defined")
}

func TestErrorLabelOutOfRange(t *testing.T) {
	asm := lines(
		"jmp after",
		".org $FFFF",
		"end",
		"after:")

	checkASMError(t, asm, "line 3: label 'after' lies outside the 64K address space")
}

func TestErrorUndefinedLabel(t *testing.T) {
	checkASMError(t, "jmp nowhere", "line 0: label 'nowhere' not found")
}

func TestErrorLexical(t *testing.T) {
	asm := lines(
		"nop",
		"mov r0, @5",
		"mov r0, #256",
		"jmp $10000",
		"mov: nop")

	checkASMError(t, asm,
		"line 1: syntax error: unrecognized word '@5'",
		"line 2: syntax error: immediate value '#256' exceeds $FF",
		"line 3: syntax error: address '$10000' exceeds $FFFF",
		"line 4: syntax error: label 'mov' is a reserved word")
}

func TestErrorOperands(t *testing.T) {
	asm := lines(
		"mov r0",
		"nop r1",
		"mov #1, r0",
		"psh label",
		"jmp #3",
		"label: end")

	checkASMError(t, asm,
		"line 0: 'mov' expects 2 operand(s), found 1",
		"line 1: 'nop' expects 0 operand(s), found 1",
		"line 2: invalid destination operand Immediate($01) for 'mov'",
		"line 4: invalid destination operand Immediate($03) for 'jmp'")
}

func TestErrorOrigin(t *testing.T) {
	checkASMError(t, lines("nop", "nop", ".org $0001"),
		"line 2: .org target $0001 precedes current address $0002")
	checkASMError(t, ".org", "line 0: .org requires a target address")
	checkASMError(t, ".org later\nlater: nop",
		`line 0: .org target must be a known address, found Label("later")`)
	checkASMError(t, ".org $10 $20", "line 0: unexpected Address($0020) after .org target")
}

func TestErrorEquate(t *testing.T) {
	checkASMError(t, ".equ foo", "line 0: missing value for .equ 'foo'")
	checkASMError(t, ".equ a #1\n.equ a #2", "line 1: constant 'a' already defined")
	checkASMError(t, ".equ a #1\n.equ b a", "line 1: constant 'b' cannot refer to constant 'a'")
	checkASMError(t, "val: nop\n.equ val #1", "line 1: constant 'val' is already used as a label")
	checkASMError(t, ".equ val #1\nval: nop", "line 1: label 'val' is already defined as a constant")
}

func TestErrorStatement(t *testing.T) {
	checkASMError(t, "#5", "line 0: expected instruction or directive, found Immediate($05)")
	checkASMError(t, "nop .byte 1", "line 0: directive '.byte' must begin a statement")
	checkASMError(t, ".byte 1 nop", "line 0: unexpected instruction after operand")
}

func TestErrorsAccumulate(t *testing.T) {
	asm := lines(
		"a: nop",
		"a: nop",
		"mov r0",
		"jmp b")

	// Pass two never runs once pass one has reported errors.
	checkASMError(t, asm,
		"line 1: label 'a' already defined",
		"line 2: 'mov' expects 2 operand(s), found 1")
}

func TestSymbols(t *testing.T) {
	asm := lines(
		"zeta: nop",
		"alpha: nop",
		"beta:",
		"end")

	assembly, sourceMap, err := assemble(asm)
	if err != nil {
		t.Fatal(err)
	}

	exp := []Symbol{{"zeta", 0}, {"alpha", 1}, {"beta", 2}}
	if len(assembly.Symbols) != len(exp) {
		t.Fatalf("got %v symbols, expected %v", assembly.Symbols, exp)
	}
	for i := range exp {
		if assembly.Symbols[i] != exp[i] {
			t.Errorf("symbol %d: got %v, expected %v", i, assembly.Symbols[i], exp[i])
		}
	}

	if addr, ok := sourceMap.Lookup("beta"); !ok || addr != 2 {
		t.Errorf("Lookup(beta) = %v, %v", addr, ok)
	}
	if names := sourceMap.LabelsAt(2); len(names) != 1 || names[0] != "beta" {
		t.Errorf("LabelsAt(2) = %v", names)
	}
}

func TestSourceMap(t *testing.T) {
	asm := lines(
		"; header",
		"mov r0, #1",
		"",
		"end")

	assembly, sourceMap, err := assemble(asm)
	if err != nil {
		t.Fatal(err)
	}

	if sourceMap.Size != uint32(len(assembly.Code)) {
		t.Errorf("source map size %d, expected %d", sourceMap.Size, len(assembly.Code))
	}
	if file, line := sourceMap.Search(3); file != "test" || line != 3 {
		t.Errorf("Search(3) = %s, %d", file, line)
	}
	if _, line := sourceMap.Search(1); line != -1 {
		t.Errorf("Search(1) found line %d", line)
	}

	var buf bytes.Buffer
	if _, err := sourceMap.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	var sm SourceMap
	if _, err := sm.ReadFrom(&buf); err != nil {
		t.Fatal(err)
	}
	if sm.CRC != sourceMap.CRC || len(sm.Lines) != 2 {
		t.Errorf("source map round trip mismatch: %+v", sm)
	}
}

func TestVerbose(t *testing.T) {
	var buf bytes.Buffer
	_, _, err := Assemble(strings.NewReader("loop: jmp loop"), "test", &buf, Verbose)
	if err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, s := range []string{"Classifying source", "label=loop", "labels:", "$0000: $50 $00 $00"} {
		if !strings.Contains(out, s) {
			t.Errorf("verbose output missing %q:\n%s", s, out)
		}
	}
}

func TestListing(t *testing.T) {
	asm := lines(
		".org $0010",
		"loop: inc r0",
		"jmp loop")

	assembly, _, err := assemble(asm)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := assembly.Render(&buf, Listing); err != nil {
		t.Fatal(err)
	}

	exp := "0010: 20 00\n0012: 50 10 00\n"
	if buf.String() != exp {
		t.Errorf("got listing:\n%s\nexpected:\n%s", buf.String(), exp)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		s   string
		f   Format
		err bool
	}{
		{"binary", Binary, false},
		{"b", Binary, false},
		{"LIST", Listing, false},
		{"xml", Binary, true},
	}

	for _, test := range tests {
		f, err := ParseFormat(test.s)
		if (err != nil) != test.err {
			t.Errorf("ParseFormat(%q) error = %v", test.s, err)
			continue
		}
		if f != test.f {
			t.Errorf("ParseFormat(%q) = %v, expected %v", test.s, f, test.f)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	lib := filepath.Join(dir, "lib.rom")
	if err := os.WriteFile(lib, []byte{0xaa, 0xbb}, 0644); err != nil {
		t.Fatal(err)
	}

	assembly, _, err := assemble("mov r0, #5\nend")
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.rom")
	if err := WriteFile(out, assembly, Binary, []string{lib, lib}); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	exp := []byte{0x22, 0x00, 0x05, 0xff, 0xaa, 0xbb, 0xaa, 0xbb}
	if !bytes.Equal(b, exp) {
		t.Errorf("got % X, expected % X", b, exp)
	}
}

func TestWriteFileMissingLink(t *testing.T) {
	dir := t.TempDir()

	assembly, _, err := assemble("end")
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.rom")
	err = WriteFile(out, assembly, Binary, []string{filepath.Join(dir, "missing.rom")})
	if err == nil {
		t.Fatal("expected error for missing link file")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files after failed write, found %d", len(entries))
	}
}

func TestAssembleFile(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "prog.asm")
	if err := os.WriteFile(src, []byte("start: jmp start\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := FileConfig{
		Out:     filepath.Join(dir, "prog.lst"),
		Format:  Listing,
		MapPath: filepath.Join(dir, "prog.map"),
	}
	_, _, err := AssembleFile(src, cfg, io.Discard)
	if err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(cfg.Out)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "0000: 50 00 00\n" {
		t.Errorf("unexpected listing %q", b)
	}

	file, err := os.Open(cfg.MapPath)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	var sm SourceMap
	if _, err := sm.ReadFrom(file); err != nil {
		t.Fatal(err)
	}
	if addr, ok := sm.Lookup("start"); !ok || addr != 0 {
		t.Errorf("source map lookup of 'start' = %v, %v", addr, ok)
	}
}

func TestAssembleFileFailure(t *testing.T) {
	dir := t.TempDir()

	src := filepath.Join(dir, "bad.asm")
	if err := os.WriteFile(src, []byte("jmp nowhere\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "bad.rom")
	assembly, _, err := AssembleFile(src, FileConfig{Out: out}, io.Discard)
	if err == nil {
		t.Fatal("expected assembly to fail")
	}
	if len(assembly.Errors) != 1 {
		t.Errorf("expected one error, got %q", assembly.Errors)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("output file should not exist after failure")
	}
}
