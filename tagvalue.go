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

import (
	"strconv"
	"strings"
)

// SetType identifies which of the three ARC header fields (or the internal
// DNS-key parser mode) a TagSet was parsed from.
type SetType int

const (
	SetTypeSeal SetType = iota
	SetTypeSignature
	SetTypeAR
	SetTypeKey
)

func (t SetType) String() string {
	switch t {
	case SetTypeSeal:
		return "ARC-Seal"
	case SetTypeSignature:
		return "ARC-Message-Signature"
	case SetTypeAR:
		return "ARC-Authentication-Results"
	case SetTypeKey:
		return "key"
	default:
		return "unknown"
	}
}

// TagSet is one parsed ARC header value: an ordered, keyed parameter set
// plus the "bad" flag that survives a recoverable mid-parse failure so the
// chain assembler can mark the whole message non-useful without losing
// track of what was seen, mirroring libopenarc's ARC_KVSET. Each value is
// stored as its own string in the parameter index, so parameter entries
// never outlive the set that owns them.
type TagSet struct {
	Type   SetType
	params map[string]string // lower-cased key -> collapsed value
	order  []string          // insertion order, lower-cased keys
	bad    bool
	next   *TagSet
}

// Bad reports whether parsing this set hit a recoverable syntax failure
// partway through.
func (s *TagSet) Bad() bool { return s.bad }

// Get looks up a parameter by name, case-insensitively. It returns ok=false
// for any key not present, including one that only ever appeared in a set
// that was marked bad before the lookup key was added.
func (s *TagSet) Get(name string) (string, bool) {
	v, ok := s.params[strings.ToLower(name)]
	return v, ok
}

// Names returns parameter names in the order they were first added.
func (s *TagSet) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *TagSet) set(name, value string) {
	key := strings.ToLower(name)
	if _, exists := s.params[key]; !exists {
		s.order = append(s.order, key)
	}
	s.params[key] = value
}

func (s *TagSet) setDefault(name, value string) {
	key := strings.ToLower(name)
	if _, exists := s.params[key]; exists {
		return
	}
	s.order = append(s.order, key)
	s.params[key] = value
}

// parser states, matching the state table in arc_process_set()
// (libopenarc/arc.c).
const (
	pStateBeforeParam = iota
	pStateInParam
	pStateBeforeValue
	pStateInValue
)

func isLWSP(b byte) bool {
	switch b {
	case '\t', '\v', '\f', ' ', '\r', '\n':
		return true
	default:
		return false
	}
}

func isPrintASCII(b byte) bool {
	return b >= 0x20 && b <= 0x7e
}

func isAlnum(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// collapse strips ASCII whitespace (HT, LF, VT, FF, CR, SP) from s. It is
// idempotent: collapse(collapse(s)) == collapse(s).
func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if !isLWSP(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// ProcessSet parses one ARC header value into a TagSet and appends it to
// the message's set list. It implements the tag-list grammar of RFC 6376
// 3.2 byte for byte, including the exact error points of arc_process_set()
// in the reference implementation.
func (m *Message) ProcessSet(t SetType, data []byte) (*TagSet, Stat) {
	set := &TagSet{
		Type:   t,
		params: make(map[string]string),
	}
	m.appendSet(set)

	settype := t.String()

	state := pStateBeforeParam
	spaced := false
	var paramStart, valueStart int
	var param string

	for i := 0; i < len(data); i++ {
		c := data[i]

		if c > 0x7f || (!isPrintASCII(c) && !isLWSP(c)) {
			m.errorf("invalid character (ASCII 0x%02x at offset %d) in %s data", c, i, settype)
			set.bad = true
			return set, StatSyntax
		}

		switch state {
		case pStateBeforeParam:
			switch {
			case isLWSP(c):
				// stay
			case isAlnum(c):
				paramStart = i
				state = pStateInParam
			default:
				m.errorf("syntax error in %s data (ASCII 0x%02x at offset %d)", settype, c, i)
				set.bad = true
				return set, StatSyntax
			}

		case pStateInParam:
			switch {
			case isLWSP(c):
				spaced = true
			case c == '=':
				param = collapse(string(data[paramStart:i]))
				state = pStateBeforeValue
				spaced = false
			case c == ';' || spaced:
				m.errorf("syntax error in %s data (ASCII 0x%02x at offset %d)", settype, c, i)
				set.bad = true
				return set, StatSyntax
			}

		case pStateBeforeValue:
			switch {
			case isLWSP(c):
				// stay
			case c == ';':
				if addErr := addParam(set, param, ""); addErr != StatOK {
					set.bad = true
					return set, addErr
				}
				param = ""
				state = pStateBeforeParam
			default:
				valueStart = i
				state = pStateInValue
			}

		case pStateInValue:
			if c == ';' {
				value := collapse(string(data[valueStart:i]))
				if addErr := addParam(set, param, value); addErr != StatOK {
					set.bad = true
					return set, addErr
				}
				param = ""
				state = pStateBeforeParam
			}
		}
	}

	switch state {
	case pStateBeforeParam:
		// nothing pending, end cleanly
	case pStateInValue:
		value := collapse(string(data[valueStart:]))
		if addErr := addParam(set, param, value); addErr != StatOK {
			set.bad = true
			return set, addErr
		}
	case pStateBeforeValue:
		if addErr := addParam(set, param, ""); addErr != StatOK {
			set.bad = true
			return set, addErr
		}
	case pStateInParam:
		m.errorf("tag without value at end of %s data", settype)
		set.bad = true
		return set, StatSyntax
	}

	if stat := m.applyDefaults(set, settype); stat != StatOK {
		return set, stat
	}

	return set, StatOK
}

func addParam(set *TagSet, param, value string) Stat {
	if param == "" {
		return StatInternal
	}
	set.set(param, value)
	return StatOK
}

// applyDefaults enforces the per-type mandatory parameters and defaults
// RFC 6376 3.2/3.5 and RFC 8617 4.1.1/4.1.2/4.1.3 require for signature,
// seal, and key sets respectively, matching arc_process_set()'s
// post-processing switch.
func (m *Message) applyDefaults(set *TagSet, settype string) Stat {
	switch set.Type {
	case SetTypeSignature:
		for _, req := range []string{"s", "h", "d", "b", "v", "i", "a"} {
			if _, ok := set.Get(req); !ok {
				m.errorf("missing parameter(s) in %s data", settype)
				set.bad = true
				return StatSyntax
			}
		}

		h, _ := set.Get("h")
		for _, name := range strings.Split(h, ":") {
			switch strings.ToLower(name) {
			case "authentication-results", "arc-message-signature", "arc-seal":
				m.errorf("ARC-Message-Signature signs %s", name)
				set.bad = true
				return StatInternal
			}
		}

		// "i" is mandatory (checked above); "t" and "x" are optional
		// timestamps that must still be well-formed when present.
		if v, _ := set.Get("i"); !checkUint(v) {
			m.errorf("invalid %q value in %s data", "i", settype)
			set.bad = true
			return StatSyntax
		}
		for _, intParam := range []string{"t", "x"} {
			if v, ok := set.Get(intParam); ok && !checkUint(v) {
				m.errorf("invalid %q value in %s data", intParam, settype)
				set.bad = true
				return StatSyntax
			}
		}

		set.setDefault("q", "dns/txt")

	case SetTypeKey:
		set.setDefault("k", "rsa")

	case SetTypeSeal, SetTypeAR:
		// no additional defaults
	}

	return StatOK
}

// checkUint reports whether value parses as a well-formed unsigned decimal
// integer: non-empty, no sign, no trailing garbage. Mirrors
// arc_check_uint().
func checkUint(value string) bool {
	if value == "" {
		return false
	}
	if value[0] == '-' {
		return false
	}
	_, err := strconv.ParseUint(value, 10, 64)
	return err == nil
}

func (s *TagSet) instance() (int, bool) {
	v, ok := s.Get("i")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
