// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteListing writes one line per assembled source line: the 4-digit
// starting address followed by each byte in hexadecimal.
func (a *Assembly) WriteListing(w io.Writer) (n int64, err error) {
	for _, l := range a.Lines {
		nn, err := fmt.Fprintf(w, "%04X: %s\n", l.Address, byteString(l.Code))
		n += int64(nn)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Render writes the assembly to w in the requested format.
func (a *Assembly) Render(w io.Writer, f Format) error {
	var err error
	switch f {
	case Listing:
		_, err = a.WriteListing(w)
	default:
		_, err = a.WriteTo(w)
	}
	return err
}

// Link appends the verbatim contents of each file to w, in order. No
// relocation or symbol merging takes place.
func Link(w io.Writer, paths ...string) error {
	for _, path := range paths {
		if err := linkFile(w, path); err != nil {
			return err
		}
	}
	return nil
}

func linkFile(w io.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(w, file); err != nil {
		return fmt.Errorf("link '%s': %w", path, err)
	}
	return nil
}

// WriteFile renders the assembly followed by the linked files and replaces
// the file at path with the result. A failure never leaves a partially
// written file behind.
func WriteFile(path string, a *Assembly, f Format, links []string) error {
	var buf bytes.Buffer
	if err := a.Render(&buf, f); err != nil {
		return err
	}
	if err := Link(&buf, links...); err != nil {
		return err
	}
	return replaceFile(path, buf.Bytes())
}

// WriteSourceMap replaces the file at path with the JSON encoding of the
// source map.
func WriteSourceMap(path string, s *SourceMap) error {
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return err
	}
	return replaceFile(path, buf.Bytes())
}

// Write b to a temporary file in the target's directory and rename it over
// the target.
func replaceFile(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// FileConfig describes the outputs produced by AssembleFile.
type FileConfig struct {
	Out     string   // output path
	Format  Format   // output format
	Links   []string // files appended verbatim after the output
	MapPath string   // source map path, or empty for none
	Options Option
}

// AssembleFile assembles the source file at path and writes the outputs
// described by cfg. Verbose output goes to out. Nothing is written unless
// assembly succeeds.
func AssembleFile(path string, cfg FileConfig, out io.Writer) (*Assembly, *SourceMap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	assembly, sourceMap, err := Assemble(file, path, out, cfg.Options)
	if err != nil {
		return assembly, sourceMap, err
	}

	if err := WriteFile(cfg.Out, assembly, cfg.Format, cfg.Links); err != nil {
		return assembly, sourceMap, err
	}
	if cfg.MapPath != "" {
		if err := WriteSourceMap(cfg.MapPath, sourceMap); err != nil {
			return assembly, sourceMap, err
		}
	}
	return assembly, sourceMap, nil
}
