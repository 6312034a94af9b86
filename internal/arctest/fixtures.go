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

// Package arctest holds stub collaborators (KeyProvider, Canonicalizer,
// Verifier) for the arc package's tests.
package arctest

import (
	"context"

	"github.com/oonrumail/arc"
)

// StubKeyProvider returns a fixed key (or a fixed failure) regardless of
// selector/domain, for tests that don't exercise real DNS.
type StubKeyProvider struct {
	Key  []byte
	Stat arc.Stat
}

func (p StubKeyProvider) FetchKey(ctx context.Context, selector, domain string) ([]byte, arc.Stat) {
	if p.Stat != arc.StatOK {
		return nil, p.Stat
	}
	return p.Key, arc.StatOK
}

// StubCanonicalizer passes header and body bytes through unchanged,
// letting a test assert exactly what the core handed to the Canonicalizer.
type StubCanonicalizer struct{}

func (StubCanonicalizer) CanonicalizeHeader(name, value string, relaxed bool) []byte {
	return []byte(name + ":" + value + "\r\n")
}

func (StubCanonicalizer) CanonicalizeBody(body []byte, relaxed bool) []byte {
	return body
}

// StubVerifier reports a fixed status for every instance, for tests that
// want to drive the chain walk without real cryptography.
type StubVerifier struct {
	Stat arc.Stat
}

func (v StubVerifier) Verify(ctx context.Context, req *arc.VerifyRequest) arc.Stat {
	return v.Stat
}

// InstanceVerifier reports a per-instance status, for tests that need to
// tell whether a particular instance was (or wasn't) actually verified.
// An instance with no entry reports StatBadSig, so a test can assert an
// instance was never reached by leaving it out of Stats.
type InstanceVerifier struct {
	Stats map[int]arc.Stat
}

func (v InstanceVerifier) Verify(ctx context.Context, req *arc.VerifyRequest) arc.Stat {
	if stat, ok := v.Stats[req.Instance]; ok {
		return stat
	}
	return arc.StatBadSig
}

// KeyProviderBySelector returns a per-selector key or failure status, for
// tests where different signing identities in the same chain need to
// behave differently. A selector with no entry reports Default.
type KeyProviderBySelector struct {
	Results map[string]KeyResult
	Default arc.Stat
}

// KeyResult is one selector's canned FetchKey outcome.
type KeyResult struct {
	Key  []byte
	Stat arc.Stat
}

func (p KeyProviderBySelector) FetchKey(ctx context.Context, selector, domain string) ([]byte, arc.Stat) {
	if r, ok := p.Results[selector]; ok {
		if r.Stat != arc.StatOK {
			return nil, r.Stat
		}
		return r.Key, arc.StatOK
	}
	return nil, p.Default
}

// AlwaysPass is a convenience collaborator set whose chain walk always
// succeeds, for tests exercising structural assembly rather than crypto.
func AlwaysPass() (arc.Verifier, arc.KeyProvider, arc.Canonicalizer) {
	return StubVerifier{Stat: arc.StatOK}, StubKeyProvider{Key: []byte("k"), Stat: arc.StatOK}, StubCanonicalizer{}
}

// AlwaysFail is a convenience collaborator set whose chain walk always
// reports a bad signature.
func AlwaysFail() (arc.Verifier, arc.KeyProvider, arc.Canonicalizer) {
	return StubVerifier{Stat: arc.StatBadSig}, StubKeyProvider{Key: []byte("k"), Stat: arc.StatOK}, StubCanonicalizer{}
}
