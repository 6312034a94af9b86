// This file is part of the arc (R) project.
// Copyright (c) 2025 oonrumail
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package arc

import "strings"

// HeaderField is one header line accepted by a message, in arrival order.
// Once appended it is never modified or reordered, mirroring libopenarc's
// append-only ARC_HDRFIELD list built by arc_header_field().
type HeaderField struct {
	text      string
	nameLen   int
	colon     int // byte offset of ':' within text
	next      *HeaderField
}

// Name returns the header field name: the bytes up to (and excluding) the
// trailing whitespace that precedes the colon.
func (h *HeaderField) Name() string { return h.text[:h.nameLen] }

// Value returns the header field value: everything after the colon,
// unparsed.
func (h *HeaderField) Value() string { return h.text[h.colon+1:] }

// Next returns the next header field in arrival order, or nil at the end
// of the list.
func (h *HeaderField) Next() *HeaderField { return h.next }

// Raw returns the full stored header text, including name, colon, and
// value, after any FIXCRLF normalization.
func (h *HeaderField) Raw() string { return h.text }

// HeaderField consumes one raw header line. It validates RFC 5322 2.2
// field syntax, optionally rewrites bare CR/LF to CRLF when the library's
// FIXCRLF flag is set, and appends the result to the message's header
// list (mirroring libopenarc's arc_header_field()). It is only legal
// while the message is in INIT or HEADER state; any other call returns
// StatInvalid without mutating state.
func (m *Message) HeaderField(raw []byte) Stat {
	if !m.requireState(stateInit, stateHeader) {
		return StatInvalid
	}
	m.state = stateHeader

	if len(raw) == 0 {
		return StatInvalid
	}

	colon := -1
	for i := 0; i < len(raw); i++ {
		if colon < 0 {
			if raw[i] < 32 || raw[i] > 126 {
				return StatSyntax
			}
			if raw[i] == ':' {
				colon = i
			}
		} else {
			b := raw[i]
			if !(b == 9 || b == 10 || b == 13 || (b >= 32 && b <= 126)) {
				return StatSyntax
			}
		}
	}

	if colon < 0 {
		return StatSyntax
	}

	if i := indexByte(raw[:colon], ';'); i >= 0 {
		return StatSyntax
	}

	end := colon
	for end > 0 && isASCIISpace(raw[end-1]) {
		end--
	}

	var text string
	if m.library.flags&FlagFixCRLF != 0 {
		text = fixCRLF(raw)
	} else {
		text = string(raw)
	}

	// colon position may have shifted if normalization inserted bytes
	// before it; since FIXCRLF only touches line endings (which never
	// appear before the colon in a legal field name), the offsets found
	// above remain valid into the normalized text as long as it's at
	// least as long as the prefix scanned.
	h := &HeaderField{
		text:    text,
		nameLen: end,
		colon:   colon,
	}

	m.appendHeader(h)
	m.headerCount++

	return StatOK
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}

func isASCIISpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	default:
		return false
	}
}

// fixCRLF rewrites bare LF to CRLF and bare CR to CRLF, as OpenARC's
// arc_header_field does under ARC_LIBFLAGS_FIXCRLF.
func fixCRLF(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw) + 8)

	var prev byte
	for _, c := range raw {
		switch {
		case c == '\n' && prev != '\r':
			b.WriteString("\r\n")
		case prev == '\r' && c != '\n':
			b.WriteByte('\n')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
		prev = c
	}
	if prev == '\r' {
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Message) appendHeader(h *HeaderField) {
	if m.headHeader == nil {
		m.headHeader = h
		m.tailHeader = h
	} else {
		m.tailHeader.next = h
		m.tailHeader = h
	}
}

// Headers returns the first header field in arrival order, or nil if none
// have been accepted yet. Walk it with HeaderField.Next.
func (m *Message) Headers() *HeaderField {
	return m.headHeader
}

// HeaderCount returns the number of header fields accepted so far.
func (m *Message) HeaderCount() int {
	return m.headerCount
}
