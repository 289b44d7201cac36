// Copyright 2018 Brett Vickers.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host allows you to create a "host" that wraps the tango
// assembler in an interactive environment with 64K of memory.
//
// Within the host it is possible to assemble source files, load machine
// code into memory, disassemble the contents of memory, dump memory, and
// list the symbols recorded in a source map.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/term"
	"github.com/tangovm/tango/asm"
	"github.com/tangovm/tango/disasm"
	"github.com/tangovm/tango/isa"
)

var errQuit = errors.New("exiting program")

// A Host represents a 64K memory image together with the assembler,
// disassembler and other useful tools.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	mem         *isa.FlatMemory
	lastCmd     *cmd.Selection
	sourceMap   *asm.SourceMap
	source      []string // lines of the source map's file, if readable
	settings    *settings
}

// New creates a new host environment.
func New() *Host {
	return &Host{
		mem:      isa.NewFlatMemory(),
		settings: newSettings(),
	}
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered, and an empty line
// repeats the previous command.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			continue
		}

		var c cmd.Selection
		switch {
		case line != "":
			c, err = cmds.Lookup(line)
			if err != nil {
				h.printf("%v.\n", err)
				continue
			}
		case h.interactive && h.lastCmd != nil:
			c = *h.lastCmd
		}

		if c.Command == nil {
			continue
		}
		h.lastCmd = &c

		handler := c.Command.Data.(*command).handler
		err = handler(h, c)
		if err != nil {
			break
		}
	}
	h.flush()
}

// Break interrupts the line being entered and redisplays the prompt.
func (h *Host) Break() {
	h.println()
	h.prompt()
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
	}
}

// Return the column at which help text wraps.
func (h *Host) width() int {
	if h.interactive {
		w, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err == nil && w > 20 {
			return w - 1
		}
	}
	return 79
}

func (h *Host) cmdAssemble(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := c.Args[0]
	if filepath.Ext(filename) == "" {
		filename += ".asm"
	}

	format, err := asm.ParseFormat(h.settings.Format)
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	prefix := strings.TrimSuffix(filename, filepath.Ext(filename))
	cfg := asm.FileConfig{
		Out:     prefix + ".rom",
		Format:  format,
		MapPath: prefix + ".map",
	}
	if format == asm.Listing {
		cfg.Out = prefix + ".lst"
	}
	if h.settings.Verbose {
		cfg.Options = asm.Verbose
	}

	assembly, sourceMap, err := asm.AssembleFile(filename, cfg, h.output)
	if err != nil {
		h.printf("Failed to assemble '%s': %v\n", filepath.Base(filename), err)
		if assembly != nil {
			for _, e := range assembly.Errors {
				h.println(e)
			}
		}
		return nil
	}

	h.printf("Assembled '%s' to '%s'.\n", filepath.Base(filename), filepath.Base(cfg.Out))

	if format == asm.Binary {
		h.mem.StoreBytes(0, assembly.Code)
		h.sourceMap = sourceMap
		h.source = loadSource(filename)
		h.settings.NextDisasmAddr = 0
		h.settings.NextMemDumpAddr = 0
	}
	return nil
}

func (h *Host) cmdDisassemble(c cmd.Selection) error {
	if len(c.Args) == 0 {
		c.Args = []string{"$"}
	}

	var addr uint16
	switch c.Args[0] {
	case "$":
		addr = h.settings.NextDisasmAddr
	default:
		a, err := h.parseAddr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	lines := h.settings.DisasmLines
	if len(c.Args) > 1 {
		n, err := h.parseAddr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(n)
	}

	for i := 0; i < lines; i++ {
		d, next := h.disassemble(addr)
		h.println(d)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.lastCmd.Args = []string{"$", strconv.Itoa(lines)}
	return nil
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.displayCommands("")
		return nil
	}

	name := strings.ToLower(strings.Join(c.Args, " "))
	if isGroup(name) {
		h.displayCommands(name)
		return nil
	}

	s, err := cmds.Lookup(name)
	if err != nil {
		h.printf("%v.\n", err)
		return nil
	}
	if s.Command == nil {
		return nil
	}

	cm := s.Command.Data.(*command)
	if cm.usage != "" {
		h.printf("Syntax: %s\n\n", cm.usage)
	}
	switch {
	case cm.description != "":
		h.printf("Description:\n%s\n\n", indentWrap(3, h.width(), cm.description))
	case cm.brief != "":
		h.printf("Description:\n%s.\n\n", indentWrap(3, h.width(), cm.brief))
	}
	return nil
}

func (h *Host) cmdLoad(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	filename := c.Args[0]
	if filepath.Ext(filename) == "" {
		filename += ".rom"
	}

	addr := h.settings.LoadAddr
	if len(c.Args) >= 2 {
		a, err := h.parseAddr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	h.load(filename, addr)
	return nil
}

func (h *Host) cmdMemoryClear(c cmd.Selection) error {
	h.mem = isa.NewFlatMemory()
	h.sourceMap = nil
	h.source = nil
	h.settings.NextDisasmAddr = 0
	h.settings.NextMemDumpAddr = 0
	h.println("Memory cleared.")
	return nil
}

func (h *Host) cmdMemoryDump(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	var addr uint16
	switch c.Args[0] {
	case "$":
		addr = h.settings.NextMemDumpAddr
	default:
		a, err := h.parseAddr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	bytes := uint16(h.settings.MemDumpBytes)
	if len(c.Args) >= 2 {
		var err error
		bytes, err = h.parseAddr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	h.dumpMemory(addr, bytes)

	h.settings.NextMemDumpAddr = addr + bytes
	h.lastCmd.Args = []string{"$", strconv.Itoa(int(bytes))}
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return errQuit
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayUsage(c)

	default:
		key, value := strings.ToLower(c.Args[0]), strings.Join(c.Args[1:], " ")

		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("setting '%s' not found", key)
		case reflect.String:
			err = h.settings.Set(key, value)
		case reflect.Bool:
			var v bool
			v, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		default:
			var v uint16
			v, err = h.parseAddr(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}
	}

	return nil
}

func (h *Host) cmdSymbols(c cmd.Selection) error {
	if h.sourceMap == nil || len(h.sourceMap.Labels) == 0 {
		h.println("No symbols.")
		return nil
	}
	for _, l := range h.sourceMap.Labels {
		h.printf("%-16s $%04X\n", l.Name, l.Address)
	}
	return nil
}

// Load a binary image into memory along with its source map, if one
// exists and matches the image.
func (h *Host) load(filename string, addr uint16) {
	file, err := os.Open(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return
	}
	defer file.Close()

	a := &asm.Assembly{}
	_, err = a.ReadFrom(file)
	switch {
	case err != nil:
		h.printf("Failed to read '%s': %v\n", filepath.Base(filename), err)
		return
	case len(a.Code) == 0:
		h.printf("File '%s' is empty.\n", filepath.Base(filename))
		return
	case int(addr)+len(a.Code) > 0x10000:
		h.printf("File '%s' does not fit at $%04X.\n", filepath.Base(filename), addr)
		return
	}

	h.mem.StoreBytes(addr, a.Code)
	h.printf("Loaded '%s' to $%04X..$%04X\n", filepath.Base(filename), addr, int(addr)+len(a.Code)-1)
	h.settings.NextDisasmAddr = addr
	h.settings.NextMemDumpAddr = addr
	h.sourceMap = nil
	h.source = nil

	mapFilename := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".map"
	mapFile, err := os.Open(mapFilename)
	if err != nil {
		return
	}
	defer mapFile.Close()

	sourceMap := &asm.SourceMap{}
	_, err = sourceMap.ReadFrom(mapFile)
	switch {
	case err != nil:
		h.printf("Failed to read '%s': %v\n", filepath.Base(mapFilename), err)
	case addr != 0 || sourceMap.Size != uint32(len(a.Code)) || sourceMap.CRC != crc32.ChecksumIEEE(a.Code):
		h.printf("Source map '%s' does not match the loaded image.\n", filepath.Base(mapFilename))
	default:
		h.sourceMap = sourceMap
		h.source = loadSource(sourceMap.File)
		h.printf("Loaded '%s' source map\n", filepath.Base(mapFilename))
	}
}

// Parse an address or count. Labels from the active source map are
// recognized, as are $-prefixed hexadecimal values. Bare numbers are
// decimal unless HexMode is set.
func (h *Host) parseAddr(s string) (uint16, error) {
	if h.sourceMap != nil {
		if addr, ok := h.sourceMap.Lookup(s); ok {
			return addr, nil
		}
	}

	base, digits := 10, s
	if h.settings.HexMode {
		base = 16
	}
	switch {
	case strings.HasPrefix(s, "$"):
		base, digits = 16, s[1:]
	case strings.HasPrefix(strings.ToLower(s), "0x"):
		base, digits = 16, s[2:]
	}

	v, err := strconv.ParseUint(digits, base, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid address '%s'", s)
	}
	return uint16(v), nil
}

func (h *Host) disassemble(addr uint16) (str string, next uint16) {
	var line string
	line, next = disasm.Disassemble(h.mem, addr)

	b := make([]byte, next-addr)
	h.mem.LoadBytes(addr, b)

	str = fmt.Sprintf("%04X-   %-14s    %s", addr, codeString(b), line)

	if h.sourceMap != nil {
		if _, n := h.sourceMap.Search(int(addr)); n >= 0 && n < len(h.source) {
			str = fmt.Sprintf("%-44s ; %s", str, strings.TrimSpace(h.source[n]))
		} else if names := h.sourceMap.LabelsAt(addr); len(names) > 0 {
			str = fmt.Sprintf("%-44s ; %s", str, strings.Join(names, ", "))
		}
	}
	return str, next
}

// Read the lines of a source file for annotating disassembly. A missing
// or unreadable file yields no lines.
func loadSource(filename string) []string {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil
	}
	return strings.Split(string(b), "\n")
}

func (h *Host) dumpMemory(addr0, bytes uint16) {
	if bytes == 0 {
		return
	}

	addr1 := addr0 + bytes - 1
	if addr1 < addr0 {
		addr1 = 0xffff
	}

	buf := []byte("    -" + strings.Repeat(" ", 35))

	// Don't align display for short dumps.
	if addr1-addr0 < 8 {
		addrToBuf(addr0, buf[0:4])
		for a, c1, c2 := uint32(addr0), 6, 32; a <= uint32(addr1); a, c1, c2 = a+1, c1+3, c2+1 {
			m := h.mem.LoadByte(uint16(a))
			byteToBuf(m, buf[c1:c1+2])
			buf[c2] = toPrintableChar(m)
		}
		h.println(strings.TrimRight(string(buf), " "))
		return
	}

	// Align addr0 and addr1 to 8-byte boundaries.
	start := uint32(addr0) & 0xfff8
	stop := (uint32(addr1) + 8) & 0xffff8
	if stop > 0x10000 {
		stop = 0x10000
	}

	a := uint16(start)
	for r := start; r < stop; r += 8 {
		addrToBuf(a, buf[0:4])
		for c1, c2 := 6, 32; c1 < 29; c1, c2, a = c1+3, c2+1, a+1 {
			if a >= addr0 && a <= addr1 {
				m := h.mem.LoadByte(a)
				byteToBuf(m, buf[c1:c1+2])
				buf[c2] = toPrintableChar(m)
			} else {
				buf[c1] = ' '
				buf[c1+1] = ' '
				buf[c2] = ' '
			}
		}
		h.println(strings.TrimRight(string(buf), " "))
	}
}

func (h *Host) displayUsage(c cmd.Selection) {
	if cm, ok := c.Command.Data.(*command); ok && cm.usage != "" {
		h.printf("Syntax: %s\n", cm.usage)
	} else {
		h.println("<no help text>")
	}
}

func (h *Host) displayCommands(group string) {
	title := "tango"
	if group != "" {
		title = group
	}
	h.printf("%s commands:\n", title)
	for _, c := range commands {
		if c.brief != "" && (group == "" || c.group == group) {
			h.printf("    %-15s  %s\n", c.path(), c.brief)
		}
	}
}

func isGroup(name string) bool {
	for _, c := range commands {
		if c.group == name {
			return true
		}
	}
	return false
}
