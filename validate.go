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
	"context"
	"strings"
)

// ChainState is the overall result of evaluating an ingested ARC chain.
type ChainState int

const (
	ChainUnknown ChainState = iota
	ChainNone
	ChainPass
	ChainFail
)

func (c ChainState) String() string {
	switch c {
	case ChainNone:
		return "none"
	case ChainPass:
		return "pass"
	case ChainFail:
		return "fail"
	default:
		return "unknown"
	}
}

// BodyChunk feeds one chunk of body bytes to the message. The accumulated
// body is canonicalized at EndOfMessage, per each signature's "c" tag.
// Legal from EOH or BODY state; transitions to BODY.
func (m *Message) BodyChunk(buf []byte) Stat {
	if !m.requireState(stateEOH, stateBody) {
		return StatInvalid
	}
	m.state = stateBody
	m.body = append(m.body, buf...)
	return StatOK
}

// EndOfMessage declares the message complete and runs the chain validator.
// It is legal from BODY or EOH state (a message with an empty body never
// calls BodyChunk) and always transitions to EOM. verifier, keys, and canon
// may be nil only when the chain length is 0, since no instance needs
// verifying; a non-empty chain with a nil collaborator is a programmer
// error and returns StatInternal.
func (m *Message) EndOfMessage(ctx context.Context, verifier Verifier, keys KeyProvider, canon Canonicalizer) (ChainState, Stat) {
	if !m.requireState(stateEOH, stateBody) {
		return ChainUnknown, StatInvalid
	}
	m.state = stateEOM

	if m.chainLength == 0 {
		m.chainState = ChainNone
		return ChainNone, StatOK
	}

	if verifier == nil || keys == nil || canon == nil {
		m.errorf("missing verifier collaborator for non-empty chain")
		return ChainUnknown, StatInternal
	}

	n := m.chainLength

	stat := m.verifyInstanceOnly(ctx, n, verifier, keys, canon)
	if stat == StatBadSig {
		m.chainState = ChainFail
		return ChainFail, StatOK
	}
	if stat != StatOK {
		return ChainUnknown, stat
	}

	// Earlier instances are only re-checked if their recorded cv matches
	// what they should have reported at seal time; a cv mismatch is
	// itself a fail condition the most recent sealer already recorded,
	// per RFC 8617 5.2 step 6 (the descending arc_eom validation loop).
	for i := n - 1; i >= 1; i-- {
		seal := m.InstanceSeal(i)
		if seal == nil {
			m.errorf("internal error: no seal recorded for instance %d", i)
			return ChainUnknown, StatInternal
		}

		cv, _ := seal.Get("cv")
		required := "pass"
		if i == 1 {
			required = "none"
		}

		if !strings.EqualFold(cv, required) {
			continue
		}

		stat := m.verifyInstanceOnly(ctx, i, verifier, keys, canon)
		if stat == StatBadSig {
			m.chainState = ChainFail
			return ChainFail, StatOK
		}
		if stat != StatOK {
			return ChainUnknown, stat
		}
	}

	m.chainState = ChainPass
	return ChainPass, StatOK
}

// verifyInstanceOnly resolves the key, canonicalizes the body, and
// delegates to the Verifier for one instance, returning its raw status.
func (m *Message) verifyInstanceOnly(ctx context.Context, i int, verifier Verifier, keys KeyProvider, canon Canonicalizer) Stat {
	sig := m.InstanceSignature(i)
	seal := m.InstanceSeal(i)
	if sig == nil || seal == nil {
		m.errorf("internal error: incomplete set for instance %d", i)
		return StatInternal
	}

	domain, _ := sig.Get("d")
	selector, _ := sig.Get("s")

	key, stat := keys.FetchKey(ctx, selector, domain)
	if stat != StatOK {
		return stat
	}

	canonBody := canon.CanonicalizeBody(m.body, bodyCanonIsRelaxed(firstOr(sig, "c", "simple/simple")))

	req := &VerifyRequest{
		Instance:      i,
		Signature:     sig,
		Seal:          seal,
		Headers:       m.Headers(),
		CanonicalBody: canonBody,
		Key:           key,
	}

	return verifier.Verify(ctx, req)
}

func firstOr(s *TagSet, key, def string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return def
}

// bodyCanonIsRelaxed reports whether a signature's "c" tag selects relaxed
// body canonicalization. RFC 6376 3.3 defines "c" as "header/body"; when
// only one algorithm is given (e.g. "c=relaxed"), it names the header
// algorithm and body defaults to simple, so the body decision must come
// from the second slash-separated component, not a substring match over
// the whole tag.
func bodyCanonIsRelaxed(c string) bool {
	_, body, found := strings.Cut(c, "/")
	if !found {
		body = "simple"
	}
	return strings.EqualFold(strings.TrimSpace(body), "relaxed")
}

// ChainState returns the chain's overall validity state. Before
// EndOfMessage runs it is ChainUnknown.
func (m *Message) ChainState() ChainState {
	return m.chainState
}
