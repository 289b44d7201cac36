// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements a two-pass assembler for the tango instruction
// set.
//
// The first pass classifies each source line into tokens, sizes them to
// advance the program counter, records label and .equ definitions, and
// derives each instruction's opcode variant from its operands' addressing
// modes. The second pass resolves forward label references and emits
// little-endian machine code.
package asm

import (
	"bufio"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"strings"

	"github.com/k0kubun/pp/v3"
)

var (
	errParse = errors.New("parse error")
)

// maxAddress is one past the last addressable byte.
const maxAddress = 0x10000

// A record is the unit the code generator iterates: one source line's
// tokens and the program counter at which the line starts.
type record struct {
	line   int     // 0-based source line number
	pc     int     // address of the first byte of the line
	tokens []Token // tokens, including label definitions and directives
}

// An asmerror is used to keep track of errors encountered
// during assembly.
type asmerror struct {
	line int    // 0-based line causing the error
	msg  string // error message
}

func (e asmerror) String() string {
	return fmt.Sprintf("line %d: %s", e.line, e.msg)
}

// The assembler is a state object used during the assembly of
// machine code from assembly code.
type assembler struct {
	r         io.Reader     // the reader passed to Assemble
	pc        int           // the program counter
	symbols   symbolTable   // label -> address
	constants constantTable // .equ name -> value token
	records   []record      // lines in source order
	code      []byte        // generated machine code
	lines     []Line        // generated machine code, per line
	out       io.Writer     // output used for verbose output
	verbose   bool          // verbose output
	errors    []asmerror    // errors encountered during assembly
}

// A Line is the machine code generated for a single line of source.
type Line struct {
	Address uint16 // address of the first byte
	Source  int    // 0-based source line number
	Code    []byte // generated bytes
}

// Assembly contains the assembled machine code and other data associated with
// the machine code.
type Assembly struct {
	Code    []byte   // Assembled machine code
	Lines   []Line   // Assembled lines in address order
	Symbols []Symbol // Defined labels, sorted by address
	Errors  []string // Errors encountered during assembly
}

// ReadFrom reads machine code from a binary input source.
func (a *Assembly) ReadFrom(r io.Reader) (n int64, err error) {
	a.Errors = []string{}
	a.Code, err = io.ReadAll(r)
	n = int64(len(a.Code))
	if n > maxAddress {
		return n, fmt.Errorf("code exceeded 64K size")
	}
	return n, err
}

// WriteTo saves machine code as binary data into an output writer.
func (a *Assembly) WriteTo(w io.Writer) (n int64, err error) {
	nn, err := w.Write(a.Code)
	return int64(nn), err
}

// Option type used by the Assembly function.
type Option uint

// Options for the Assemble function.
const (
	Verbose Option = 1 << iota // verbose output during assembly
)

// Assemble reads source from the provided stream and attempts to assemble
// it into tango machine code. All diagnostics are collected; if any were
// recorded the returned error is non-nil and Assembly.Errors describes
// them.
func Assemble(r io.Reader, filename string, out io.Writer, options Option) (*Assembly, *SourceMap, error) {
	if out == nil {
		out = os.Stdout
	}

	a := &assembler{
		r:         r,
		symbols:   make(symbolTable),
		constants: make(constantTable),
		out:       out,
		verbose:   (options & Verbose) != 0,
	}

	// Assembly consists of the following steps
	steps := []func(a *assembler) error{
		(*assembler).parse,        // Classify lines, size them, and build tables
		(*assembler).logSymbols,   // Show the completed tables
		(*assembler).generateCode, // Resolve forward references and emit code
	}

	// Execute assembler steps, breaking if an error is encountered
	// in any one of them.
	var err error
	for _, step := range steps {
		err = step(a)
		if err != nil {
			break
		}
		if len(a.errors) > 0 {
			err = errParse
			break
		}
	}

	errs := make([]string, 0, len(a.errors))
	for _, e := range a.errors {
		errs = append(errs, e.String())
	}

	assembly := &Assembly{
		Code:    a.code,
		Lines:   a.lines,
		Symbols: a.symbols.labels(),
		Errors:  errs,
	}
	if err != nil {
		assembly.Code, assembly.Lines = nil, nil
	}

	sourceMap := &SourceMap{
		File:   filename,
		Size:   uint32(len(assembly.Code)),
		CRC:    crc32.ChecksumIEEE(assembly.Code),
		Labels: assembly.Symbols,
	}
	for _, l := range assembly.Lines {
		sourceMap.Lines = append(sourceMap.Lines, SourceLine{Address: int(l.Address), Line: l.Source})
	}

	return assembly, sourceMap, err
}

// Read the assembly code and perform the first pass: classify each line,
// advance the program counter, and build the symbol and constant tables.
func (a *assembler) parse() error {
	a.logSection("Classifying source")

	scanner := bufio.NewScanner(a.r)
	for row := 0; scanner.Scan(); row++ {
		a.parseLine(row, scanner.Text())
	}
	return scanner.Err()
}

// Parse a single line of assembly code.
func (a *assembler) parseLine(row int, text string) {
	tokens, err := classify(text)
	if err != nil {
		a.addError(row, "syntax error: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	a.logLine(row, "tokens: %v", tokens)

	rec := record{line: row, pc: a.pc}

	// The lead token is the first one that isn't a label definition.
	// Labels preceding it are bound once the lead is known, so that a
	// label on an .org line takes the new origin.
	lead := -1
	var labels []string
	bind := func() {
		for _, name := range labels {
			a.defineLabel(row, name)
		}
		labels = nil
	}

	for i, t := range tokens {
		if lead == -1 && t.Kind != LabelDef {
			lead = i
			if t.Kind != OpCode && t.Kind != Directive {
				a.addError(row, "expected instruction or directive, found %v", t)
				return
			}
			if t.Kind != Directive || t.Name != dirOrg {
				bind()
			}
		}

		switch t.Kind {
		case LabelDef:
			if lead == -1 {
				labels = append(labels, t.Name)
			} else {
				a.defineLabel(row, t.Name)
			}

		case Directive:
			if i != lead {
				a.addError(row, "directive '%s' must begin a statement", t.Name)
				return
			}
			switch t.Name {
			case dirOrg:
				a.parseOrigin(row, tokens[i+1:])
				bind()
				return
			case dirEqu:
				a.parseEquate(row, tokens[i+1:])
				return
			}

		case OpCode:
			if i != lead {
				a.addError(row, "unexpected instruction after operand")
				return
			}

		case EquDef:
			a.addError(row, "constant name '%s' outside .equ", t.Name)
			return

		case Label:
			var ok bool
			t, ok = a.reference(row, t)
			if !ok {
				return
			}
		}

		a.pc += t.Size()
		rec.tokens = append(rec.tokens, t)
	}
	bind()

	if a.pc > maxAddress {
		a.addError(row, "program exceeds the 64K address space")
		return
	}

	if lead != -1 && rec.tokens[lead].Kind == OpCode {
		a.encode(row, rec.tokens[lead:])
	}

	a.records = append(a.records, rec)
}

// Bind a label to the current program counter.
func (a *assembler) defineLabel(row int, name string) {
	if a.pc >= maxAddress {
		a.addError(row, "label '%s' lies outside the 64K address space", name)
		return
	}
	if _, ok := a.constants[name]; ok {
		a.addError(row, "label '%s' is already defined as a constant", name)
		return
	}
	if err := a.symbols.define(name, a.pc); err != nil {
		a.addError(row, "%v", err)
		return
	}
	a.logLine(row, "label=%s pc=$%04X", name, a.pc)
}

// Resolve a label reference as far as the tables currently allow. A
// reference to an undefined label stays deferred until code generation.
func (a *assembler) reference(row int, t Token) (Token, bool) {
	t, err := a.constants.substitute(t)
	if err != nil {
		a.addError(row, "%v", err)
		return t, false
	}
	if t.Kind != Label {
		return t, true
	}

	if addr, ok := a.symbols.lookup(t.Name); ok {
		return t.resolve(addr), true
	}

	a.symbols.reference(t.Name)
	return t, true
}

// Parse an ".org" origin definition. The origin may move the program
// counter forward but never backward.
func (a *assembler) parseOrigin(row int, args []Token) {
	if len(args) == 0 {
		a.addError(row, ".org requires a target address")
		return
	}

	t, err := a.constants.substitute(args[0])
	if err != nil {
		a.addError(row, "%v", err)
		return
	}
	if t.Kind == Label {
		if addr, ok := a.symbols.lookup(t.Name); ok {
			t = t.resolve(addr)
		}
	}

	switch {
	case t.Kind != Address && t.Kind != Immediate:
		a.addError(row, ".org target must be a known address, found %v", t)
	case len(args) > 1:
		a.addError(row, "unexpected %v after .org target", args[1])
	case int(t.Value) < a.pc:
		a.addError(row, ".org target $%04X precedes current address $%04X", t.Value, a.pc)
	default:
		a.logLine(row, "origin=$%04X", t.Value)
		a.pc = int(t.Value)
	}
}

// Parse an ".equ" constant definition: the directive, the constant's
// name, and the value it stands for.
func (a *assembler) parseEquate(row int, args []Token) {
	if len(args) == 0 || args[0].Kind != EquDef {
		a.addError(row, ".equ requires a constant name")
		return
	}

	name := args[0].Name
	switch {
	case len(args) < 2:
		a.addError(row, "missing value for .equ '%s'", name)
		return
	case len(args) > 2:
		a.addError(row, "unexpected %v after .equ value", args[2])
		return
	}

	if _, ok := a.constants[name]; ok {
		a.addError(row, "constant '%s' already defined", name)
		return
	}
	if _, ok := a.symbols[name]; ok {
		a.addError(row, "constant '%s' is already used as a label", name)
		return
	}

	v := args[1]
	switch v.Kind {
	case Address, Indirect, Immediate, Register:
	case Label:
		if _, ok := a.constants[v.Name]; ok {
			a.addError(row, "constant '%s' cannot refer to constant '%s'", name, v.Name)
			return
		}
		a.symbols.reference(v.Name)
	default:
		a.addError(row, "invalid value %v for .equ '%s'", v, name)
		return
	}

	a.constants[name] = v
	a.logLine(row, "equate %s=%v", name, v)
}

// Append an error message to the assembler's error state.
func (a *assembler) addError(row int, format string, args ...any) {
	e := asmerror{line: row, msg: fmt.Sprintf(format, args...)}
	a.errors = append(a.errors, e)
	if a.verbose {
		fmt.Fprintf(a.out, "Error on %s\n", e)
	}
}

// In verbose mode, log a string to the output.
func (a *assembler) log(format string, args ...any) {
	if a.verbose {
		fmt.Fprintf(a.out, format, args...)
		fmt.Fprintf(a.out, "\n")
	}
}

// In verbose mode, log a string along with its source line number.
func (a *assembler) logLine(row int, format string, args ...any) {
	if a.verbose {
		detail := fmt.Sprintf(format, args...)
		fmt.Fprintf(a.out, "%-4d | $%04X | %s\n", row, a.pc, detail)
	}
}

// In verbose mode, log a line's memory map.
func (a *assembler) logBytes(addr int, b []byte) {
	if a.verbose {
		a.log("$%04X: %s", addr, dollarString(b))
	}
}

// In verbose mode, log a section header to the output.
func (a *assembler) logSection(name string) {
	if a.verbose {
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
		fmt.Fprintf(a.out, "-- %s --\n", name)
		fmt.Fprintln(a.out, strings.Repeat("-", len(name)+6))
	}
}

var printer = func() *pp.PrettyPrinter {
	p := pp.New()
	p.SetColoringEnabled(false)
	return p
}()

// In verbose mode, dump the symbol and constant tables.
func (a *assembler) logSymbols() error {
	if a.verbose {
		a.logSection("Symbol tables")
		a.log("labels: %s", printer.Sprint(map[string]int(a.symbols)))
		constants := make(map[string]string, len(a.constants))
		for name, t := range a.constants {
			constants[name] = t.String()
		}
		a.log("constants: %s", printer.Sprint(constants))
	}
	return nil
}
