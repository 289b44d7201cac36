// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/cmd"

// A command describes a host command and the handler that runs it.
type command struct {
	group       string
	name        string
	brief       string
	description string
	usage       string
	handler     func(*Host, cmd.Selection) error
}

func (c *command) path() string {
	if c.group == "" {
		return c.name
	}
	return c.group + " " + c.name
}

var (
	cmds     *cmd.Tree
	commands []*command
)

func init() {
	cmds = cmd.NewTree(cmd.TreeDescriptor{Name: "tango"})
	add(cmds, &command{
		name:        "help",
		description: "Display help for a command.",
		usage:       "help [<command>]",
		handler:     (*Host).cmdHelp,
	})
	add(cmds, &command{
		name:  "assemble",
		brief: "Assemble a file and save the output",
		description: "Run the assembler on the specified file, producing an" +
			" output file and source map file if successful. The output" +
			" format is chosen by the Format setting. Binary output is also" +
			" loaded into memory at address 0.",
		usage:   "assemble <filename>",
		handler: (*Host).cmdAssemble,
	})
	add(cmds, &command{
		name:  "disassemble",
		brief: "Disassemble code",
		description: "Disassemble machine code starting at the requested" +
			" address. The number of instructions to disassemble may be" +
			" specified as an option. Use $ to continue from the end of the" +
			" previous disassembly.",
		usage:   "disassemble <address> [<count>]",
		handler: (*Host).cmdDisassemble,
	})
	add(cmds, &command{
		name:  "load",
		brief: "Load a binary file",
		description: "Load the contents of a binary file into memory. If the" +
			" file has an associated source map, it will be loaded too. The" +
			" file loads at the LoadAddr setting unless an address is given.",
		usage:   "load <filename> [<address>]",
		handler: (*Host).cmdLoad,
	})

	mem := cmds.AddSubtree(cmd.TreeDescriptor{Name: "memory", Brief: "Memory commands"})
	add(mem, &command{
		group: "memory",
		name:  "dump",
		brief: "Dump memory at address",
		description: "Dump the contents of memory starting from the" +
			" specified address. The number of bytes to dump may be" +
			" specified as an option.",
		usage:   "memory dump <address> [<bytes>]",
		handler: (*Host).cmdMemoryDump,
	})
	add(mem, &command{
		group:       "memory",
		name:        "clear",
		brief:       "Clear memory",
		description: "Reset every byte of memory to zero and forget the active source map.",
		usage:       "memory clear",
		handler:     (*Host).cmdMemoryClear,
	})

	add(cmds, &command{
		name:        "quit",
		brief:       "Quit the program",
		description: "Quit the program.",
		usage:       "quit",
		handler:     (*Host).cmdQuit,
	})
	add(cmds, &command{
		name:  "set",
		brief: "Set a configuration variable",
		description: "Set the value of a configuration variable. Type the set" +
			" command without a variable name or value to display the current" +
			" values of all configuration variables.",
		usage:   "set [<var> <value>]",
		handler: (*Host).cmdSet,
	})
	add(cmds, &command{
		name:        "symbols",
		brief:       "List symbols",
		description: "Display the labels defined by the active source map.",
		usage:       "symbols",
		handler:     (*Host).cmdSymbols,
	})
}

func add(t *cmd.Tree, c *command) {
	t.AddCommand(cmd.CommandDescriptor{
		Name:        c.name,
		Brief:       c.brief,
		Description: c.description,
		Usage:       c.usage,
		Data:        c,
	})
	commands = append(commands, c)
}
