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

// Package arc implements the ingestion and chain-evaluation engine of the
// Authenticated Received Chain (ARC) protocol (RFC 8617): a streaming
// message state machine, a tag-list parser for ARC header values, chain
// assembly and completeness checking, and the seal/signature validation
// walk that computes a chain's overall pass/fail/none state.
//
// Cryptographic verification, DNS key retrieval, and header/body
// canonicalization are abstract collaborators (Verifier, KeyProvider,
// Canonicalizer); reference implementations live in the providers and
// canon subpackages.
package arc

// Flags is the library's recognized bit-flag word.
type Flags uint64

const (
	// FlagFixCRLF normalizes bare CR and bare LF to CRLF in stored header
	// text. Unrecognized bits are preserved across Options round-trips.
	FlagFixCRLF Flags = 1 << iota
)

const defaultTmpDir = "/tmp"

// Library is process- or caller-scoped state shared by every Message
// created from it: the feature bitset, the flag word, and the temporary
// directory path. Multiple Library handles may coexist; there is no
// implicit global state.
type Library struct {
	features featureBitset
	flags    Flags
	tmpDir   string
}

// Init creates a new library instance with default options.
func Init() *Library {
	return &Library{
		features: newFeatureBitset(),
		tmpDir:   defaultTmpDir,
	}
}

// Close releases a library instance. Any Message handles created from it
// must be freed separately; Close does not reach into them.
func (l *Library) Close() {}

// OptionOp selects whether Options reads or writes a key.
type OptionOp int

const (
	OptionGet OptionOp = iota
	OptionSet
)

// OptionKey identifies a recognized library option, matching the shape of
// libopenarc's arc_option() key enum.
type OptionKey int

const (
	OptionFlags OptionKey = iota
	OptionTmpDir
)

// Options is the single get/set entry point for library-wide settings,
// matching the shape of libopenarc's arc_option(op, arg, val, len). val is
// *Flags for OptionFlags and *string for OptionTmpDir; for OptionSet with
// OptionTmpDir, a nil val restores the compiled-in default.
func (l *Library) Options(op OptionOp, key OptionKey, val any) Stat {
	switch key {
	case OptionFlags:
		f, ok := val.(*Flags)
		if !ok || f == nil {
			return StatInvalid
		}
		if op == OptionGet {
			*f = l.flags
		} else {
			l.flags = *f
		}
		return StatOK

	case OptionTmpDir:
		if op == OptionGet {
			s, ok := val.(*string)
			if !ok || s == nil {
				return StatInvalid
			}
			*s = l.tmpDir
			return StatOK
		}

		if val == nil {
			l.tmpDir = defaultTmpDir
			return StatOK
		}
		s, ok := val.(*string)
		if !ok || s == nil {
			return StatInvalid
		}
		l.tmpDir = *s
		return StatOK

	default:
		return StatInvalid
	}
}

// Message is per-message state: the header list, parsed tag-sets, the
// assembled chain, and the ingestion state machine, mirroring libopenarc's
// ARC_MESSAGE handle.
type Message struct {
	library *Library

	state msgState

	headHeader  *HeaderField
	tailHeader  *HeaderField
	headerCount int

	setHead *TagSet
	setTail *TagSet

	chain       map[int]*instanceSets
	chainLength int
	chainState  ChainState

	body []byte

	lastError string
	sigError  SigError
}

// NewMessage creates a new message handle in INIT state, owned by this
// library.
func (l *Library) NewMessage() *Message {
	return &Message{
		library:    l,
		state:      stateInit,
		chainState: ChainUnknown,
	}
}

// Free releases a message handle. All headers and tag-sets it owns become
// unreachable (the engine has no external storage to reclaim explicitly;
// Free exists for API-shape parity with arc_free's handle lifecycle).
func (m *Message) Free() {
	m.headHeader = nil
	m.tailHeader = nil
	m.setHead = nil
	m.setTail = nil
	m.chain = nil
	m.body = nil
}

// State returns the message's current position in the ingestion state
// machine, mainly useful for diagnostics and tests.
func (m *Message) State() string {
	return m.state.String()
}

// GetSeal is the signing-side counterpart to the verification walk
// implemented here. Signing (computing and returning a new ARC-Seal for
// this message) is outside this core's scope: key management and signing
// are a verifier's concern, not the chain engine's, and libopenarc's own
// arc_getseal() is a late, optional addition over the verification path;
// callers that need to sign must do so with their own signer against the
// chain this package assembles and validates.
func (m *Message) GetSeal(selector, domain string, key []byte) (string, Stat) {
	return "", StatNotImplemented
}

// SSLVersion reports the version of the crypto library a Verifier/KeyProvider
// pair was built against, for callers that want to confirm compatibility.
// The core itself has no cryptographic dependency, so this always reports
// the zero sentinel; a real deployment's Verifier may expose its own
// version through whatever channel it uses to report diagnostics.
func SSLVersion() uint64 {
	return 0
}
