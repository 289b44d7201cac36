// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"strings"
)

func codeString(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		byteToBuilder(v, &sb)
	}
	return sb.String()
}

func stringToBool(s string) (bool, error) {
	s = strings.ToLower(s)
	switch s {
	case "0", "false", "off":
		return false, nil
	case "1", "true", "on":
		return true, nil
	default:
		return false, fmt.Errorf("invalid bool value '%s'", s)
	}
}

var hexString = "0123456789ABCDEF"

func addrToBuf(addr uint16, b []byte) {
	b[0] = hexString[(addr>>12)&0xf]
	b[1] = hexString[(addr>>8)&0xf]
	b[2] = hexString[(addr>>4)&0xf]
	b[3] = hexString[addr&0xf]
}

func byteToBuf(v byte, b []byte) {
	b[0] = hexString[(v>>4)&0xf]
	b[1] = hexString[v&0xf]
}

func byteToBuilder(v byte, sb *strings.Builder) {
	sb.WriteByte(hexString[(v>>4)&0xf])
	sb.WriteByte(hexString[v&0xf])
}

func toPrintableChar(v byte) byte {
	switch {
	case v >= 32 && v < 127:
		return v
	default:
		return '.'
	}
}

// Word-wrap s to the given width, indenting every line.
func indentWrap(indent, width int, s string) string {
	pad := strings.Repeat(" ", indent)

	var sb strings.Builder
	n := 0
	for _, word := range strings.Fields(s) {
		switch {
		case n == 0:
			sb.WriteString(pad)
			n = indent
		case n+1+len(word) > width:
			sb.WriteString("\n")
			sb.WriteString(pad)
			n = indent
		default:
			sb.WriteByte(' ')
			n++
		}
		sb.WriteString(word)
		n += len(word)
	}
	return sb.String()
}
