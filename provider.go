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

import "context"

// KeyProvider resolves the public key material for a DKIM/ARC selector and
// domain pair. Implementations typically perform a DNS TXT lookup at
// {selector}._domainkey.{domain}, per RFC 6376 3.6.1; the reference
// implementation lives in providers/dns.
type KeyProvider interface {
	FetchKey(ctx context.Context, selector, domain string) ([]byte, Stat)
}

// Canonicalizer produces the canonical byte form of a header or the body
// used as verifier input, per the algorithm named in a signature's "c"
// parameter (RFC 6376 3.4). This is entirely external to the core; the
// reference implementation lives in the canon subpackage.
type Canonicalizer interface {
	CanonicalizeHeader(name, value string, relaxed bool) []byte
	CanonicalizeBody(body []byte, relaxed bool) []byte
}

// Verifier checks one ARC instance's cryptographic signature. It is given
// everything the core has assembled for that instance and returns one of
// StatOK, StatBadSig, StatKeyFail, StatNoKey, or StatInternal, mirroring
// libopenarc's arc_verify() result codes.
// The reference implementation lives in providers/cryptoverify.
type Verifier interface {
	Verify(ctx context.Context, req *VerifyRequest) Stat
}

// VerifyRequest bundles the material a Verifier needs to check one
// instance's signature: the parsed AMS and seal tag-sets, the message's
// headers, the canonicalized body, and the resolved key, per RFC 8617 5.2.
type VerifyRequest struct {
	Instance      int
	Signature     *TagSet
	Seal          *TagSet
	Headers       *HeaderField // head of the message's header list
	CanonicalBody []byte       // body, post-canonicalization; the verifier hashes it
	Key           []byte
}
