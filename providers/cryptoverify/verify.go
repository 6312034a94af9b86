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

// Package cryptoverify implements arc.Verifier with RSA and Ed25519
// signature checking over RFC 6376/8617 canonical header and body hashes.
package cryptoverify

import (
	"context"
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	_ "crypto/sha1" // register crypto.SHA1 for rsa-sha1 verification
	_ "crypto/sha256" // register crypto.SHA256 for rsa-sha256/ed25519-sha256
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/oonrumail/arc"
	"github.com/oonrumail/arc/canon"
)

// Standard is the reference arc.Verifier. It canonicalizes the signed
// header set (per the AMS's "c" and "h" tags) the way the AMS instructs,
// hashes it with the algorithm named by the AMS's "a" tag, and checks the
// result against the "b" signature using the key the caller resolved.
type Standard struct {
	Canon arc.Canonicalizer
}

// New builds a Standard verifier using the reference canon.Standard
// canonicalizer, matching the pairing the core's validate.go already
// assumes (verifyInstanceOnly canonicalizes the body itself and hands the
// result through VerifyRequest.CanonicalBody).
func New() *Standard {
	return &Standard{Canon: canon.Standard{}}
}

// Verify implements arc.Verifier. It checks the AMS signature for the
// instance named in req; the seal's own signature is a separate concern
// the core's chain walk does not currently delegate here (see DESIGN.md
// "Seal signature verification scope").
func (s *Standard) Verify(ctx context.Context, req *arc.VerifyRequest) arc.Stat {
	sig := req.Signature
	algo, _ := sig.Get("a")
	bTag, _ := sig.Get("b")
	hList, _ := sig.Get("h")
	cParam, _ := sig.Get("c")

	relaxedHeader := strings.HasPrefix(strings.ToLower(cParam), "relaxed")

	signature, err := base64.StdEncoding.DecodeString(stripWhitespace(bTag))
	if err != nil {
		return arc.StatBadSig
	}

	hashFn, pubParse, err := resolveAlgorithm(algo)
	if err != nil {
		return arc.StatBadSig
	}

	signedText, ok := s.buildSignedText(req, hList, relaxedHeader)
	if !ok {
		return arc.StatBadSig
	}

	h := hashFn.New()
	h.Write(signedText)
	h.Write(req.CanonicalBody)
	digest := h.Sum(nil)

	pub, err := pubParse(req.Key)
	if err != nil {
		return arc.StatKeyFail
	}

	switch key := pub.(type) {
	case *rsa.PublicKey:
		if err := rsa.VerifyPKCS1v15(key, hashFn, digest, signature); err != nil {
			return arc.StatBadSig
		}
	case ed25519.PublicKey:
		if !ed25519.Verify(key, digest, signature) {
			return arc.StatBadSig
		}
	default:
		return arc.StatKeyFail
	}

	return arc.StatOK
}

func stripWhitespace(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// resolveAlgorithm maps an AMS "a" tag to a hash function and a public-key
// parser, covering the rsa-sha1/rsa-sha256/ed25519-sha256 triple RFC 8617
// inherits from DKIM (RFC 6376 3.3) plus RFC 8463.
func resolveAlgorithm(a string) (crypto.Hash, func([]byte) (any, error), error) {
	switch strings.ToLower(a) {
	case "rsa-sha1":
		return crypto.SHA1, parseRSAKey, nil
	case "rsa-sha256":
		return crypto.SHA256, parseRSAKey, nil
	case "ed25519-sha256":
		return crypto.SHA256, parseEd25519Key, nil
	default:
		return 0, nil, fmt.Errorf("cryptoverify: unsupported algorithm %q", a)
	}
}

func parseRSAKey(key []byte) (any, error) {
	if pub, err := x509.ParsePKIXPublicKey(key); err == nil {
		if rsaKey, ok := pub.(*rsa.PublicKey); ok {
			return rsaKey, nil
		}
		return nil, fmt.Errorf("cryptoverify: key is not RSA")
	}
	pub, err := x509.ParsePKCS1PublicKey(key)
	if err != nil {
		return nil, err
	}
	return pub, nil
}

func parseEd25519Key(key []byte) (any, error) {
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("cryptoverify: ed25519 key has wrong length")
	}
	return ed25519.PublicKey(key), nil
}

// buildSignedText reconstructs the canonicalized header block checked
// against an AMS: the headers named in h=, in the order they're listed,
// each resolved to the last occurrence of that name in the message. A name
// listed more than once resolves to the same field each time, and the AMS
// header itself is not appended.
func (s *Standard) buildSignedText(req *arc.VerifyRequest, hList string, relaxed bool) ([]byte, bool) {
	names := strings.Split(hList, ":")

	var out []byte
	for _, name := range names {
		name = strings.TrimSpace(name)
		h := findHeader(req.Headers, name)
		if h == nil {
			return nil, false
		}
		out = append(out, s.Canon.CanonicalizeHeader(h.Name(), h.Value(), relaxed)...)
	}

	return out, true
}

// findHeader returns the last (most recently appearing) header field with
// the given name, matching RFC 6376 5.4.2's "bottom up" signing order when
// h= lists a name once but it occurs multiple times in the message.
func findHeader(head *arc.HeaderField, name string) *arc.HeaderField {
	var found *arc.HeaderField
	for h := head; h != nil; h = h.Next() {
		if strings.EqualFold(h.Name(), name) {
			found = h
		}
	}
	return found
}

