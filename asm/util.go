// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "strings"

var hex = "0123456789ABCDEF"

// Return a little-endian representation of the value using the requested
// number of bytes.
func toBytes(bytes, value int) []byte {
	switch bytes {
	case 1:
		return []byte{byte(value)}
	default:
		return []byte{byte(value), byte(value >> 8)}
	}
}

// Return a hexadecimal string representation of a byte slice.
func byteString(b []byte) string {
	if len(b) < 1 {
		return ""
	}

	s := make([]byte, len(b)*3-1)
	i, j := 0, 0
	for n := len(b) - 1; i < n; i, j = i+1, j+3 {
		s[j+0] = hex[(b[i] >> 4)]
		s[j+1] = hex[(b[i] & 0x0f)]
		s[j+2] = ' '
	}
	s[j+0] = hex[(b[i] >> 4)]
	s[j+1] = hex[(b[i] & 0x0f)]
	return string(s)
}

// Return a byte slice as space-separated $XX values.
func dollarString(b []byte) string {
	var sb strings.Builder
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('$')
		sb.WriteByte(hex[v>>4])
		sb.WriteByte(hex[v&0x0f])
	}
	return sb.String()
}
