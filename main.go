// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/beevik/term"
	"github.com/spf13/cobra"

	"github.com/tangovm/tango/asm"
	"github.com/tangovm/tango/host"
)

var (
	out     string
	verbose bool
	links   []string
	format  string
	mapPath string
)

var rootCmd = &cobra.Command{
	Use:   "tango source_file",
	Short: "A two-pass assembler for the tango instruction set",
	Long: `Tango assembles a single source file into a ROM image.

Each source line holds at most one instruction or directive. Labels may be
referenced before they are defined. Supported directives are .byte, .equ
and .org. The output is either raw binary or a hexadecimal listing, and
additional pre-assembled files may be appended to it with --link.

Nothing is written unless the whole file assembles without errors.
`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return assemble(args[0])
	},
}

var shellCmd = &cobra.Command{
	Use:   "shell [script...]",
	Short: "Run the interactive host",
	Long: `Shell runs host commands from each script in turn, then reads commands
from standard input. When standard input is a terminal, a prompt is shown
and an empty line repeats the previous command. Type "help" for a list of
commands.
`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return shell(args)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&out, "out", "o", "default.rom", "output file path")
	flags.BoolVarP(&verbose, "verbose", "v", false, "echo token lists and memory maps to stderr")
	flags.StringSliceVarP(&links, "link", "l", nil, "pre-assembled file to append to the output (repeatable)")
	flags.StringVarP(&format, "format", "f", "binary", "output format: binary or listing")
	flags.StringVarP(&mapPath, "map", "m", "", "also write a source map to this path")

	rootCmd.AddCommand(shellCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exitOnError(err)
	}
}

func assemble(path string) error {
	f, err := asm.ParseFormat(format)
	if err != nil {
		return err
	}

	cfg := asm.FileConfig{
		Out:     out,
		Format:  f,
		Links:   links,
		MapPath: mapPath,
	}
	if verbose {
		cfg.Options = asm.Verbose
	}

	assembly, _, err := asm.AssembleFile(path, cfg, os.Stderr)
	if err != nil {
		if assembly != nil {
			for _, e := range assembly.Errors {
				fmt.Fprintln(os.Stderr, e)
			}
		}
		return fmt.Errorf("failed to assemble '%s': %w", filepath.Base(path), err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Assembled '%s' to '%s'.\n", filepath.Base(path), out)
	}
	return nil
}

func shell(scripts []string) error {
	h := host.New()

	// Run commands contained in command-line files.
	for _, filename := range scripts {
		file, err := os.Open(filename)
		if err != nil {
			return err
		}
		h.RunCommands(file, os.Stdout, false)
		file.Close()
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		// Break on Ctrl-C.
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go handleInterrupt(h, c)
	}

	h.RunCommands(os.Stdin, os.Stdout, interactive)
	return nil
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
