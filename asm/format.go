// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strings"

	"github.com/beevik/prefixtree/v2"
)

// A Format selects how an assembly is serialized.
type Format byte

// Output formats.
const (
	Binary  Format = iota // raw bytes in program order
	Listing               // one "AAAA: BB BB ..." line per assembled line
)

var formatName = []string{"binary", "listing"}

func (f Format) String() string {
	return formatName[f]
}

var formatTree = prefixtree.New[Format]()

func init() {
	for i, name := range formatName {
		formatTree.Add(name, Format(i))
	}
}

// ParseFormat returns the output format named by s or by any unique
// prefix of its name.
func ParseFormat(s string) (Format, error) {
	f, err := formatTree.FindValue(strings.ToLower(s))
	if err != nil {
		return Binary, fmt.Errorf("unknown output format '%s'", s)
	}
	return f, nil
}
