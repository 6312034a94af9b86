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

import "fmt"

// Stat is the status taxonomy returned from core operations. It mirrors the
// ARC_STAT_* constants of the reference C implementation.
type Stat int

const (
	StatOK Stat = iota
	StatSyntax
	StatInvalid
	StatNoResource
	StatInternal
	StatBadSig
	StatKeyFail
	StatNoKey
	StatNotImplemented
)

func (s Stat) String() string {
	switch s {
	case StatOK:
		return "OK"
	case StatSyntax:
		return "SYNTAX"
	case StatInvalid:
		return "INVALID"
	case StatNoResource:
		return "NORESOURCE"
	case StatInternal:
		return "INTERNAL"
	case StatBadSig:
		return "BADSIG"
	case StatKeyFail:
		return "KEYFAIL"
	case StatNoKey:
		return "NOKEY"
	case StatNotImplemented:
		return "NOTIMPLEMENTED"
	default:
		return fmt.Sprintf("Stat(%d)", int(s))
	}
}

// SigError enumerates the structural chain-signature errors the assembler
// and validator can record on a message, beyond the coarser Stat code.
type SigError int

const (
	SigErrorNone SigError = iota
	SigErrorDupInstance
	SigErrorMissingSeal
	SigErrorMissingSignature
	SigErrorMissingAR
	SigErrorInstanceOutOfRange
)

func (e SigError) String() string {
	switch e {
	case SigErrorNone:
		return "none"
	case SigErrorDupInstance:
		return "DUPINSTANCE"
	case SigErrorMissingSeal:
		return "MISSINGSEAL"
	case SigErrorMissingSignature:
		return "MISSINGSIGNATURE"
	case SigErrorMissingAR:
		return "MISSINGAR"
	case SigErrorInstanceOutOfRange:
		return "INSTANCEOUTOFRANGE"
	default:
		return fmt.Sprintf("SigError(%d)", int(e))
	}
}

// errorf overwrites the message's last-error diagnostic, the way
// arc_error() re-formats libopenarc's arc_error buffer on every call: the
// channel is not a stack, only the most recent failure survives.
func (m *Message) errorf(format string, args ...any) {
	m.lastError = fmt.Sprintf(format, args...)
}

// Error returns the most recent diagnostic recorded on this message, or the
// empty string if nothing has failed yet.
func (m *Message) Error() string {
	return m.lastError
}

// SigError returns the most recent chain-structure error code recorded
// during EndOfHeaders, or SigErrorNone if none was recorded.
func (m *Message) SigError() SigError {
	return m.sigError
}
