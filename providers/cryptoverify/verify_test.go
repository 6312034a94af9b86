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

package cryptoverify

import (
	"context"
	"crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"testing"

	"github.com/oonrumail/arc"
	"github.com/oonrumail/arc/canon"
)

// buildHeaders feeds fields through a real Message so the returned
// *arc.HeaderField list is built exactly the way the core builds it.
func buildHeaders(t *testing.T, fields [][2]string) *arc.HeaderField {
	t.Helper()
	msg := arc.Init().NewMessage()
	for _, f := range fields {
		if stat := msg.HeaderField([]byte(f[0] + ": " + f[1])); stat != arc.StatOK {
			t.Fatalf("HeaderField(%s): %v: %s", f[0], stat, msg.Error())
		}
	}
	return msg.Headers()
}

// signedText reproduces buildSignedText for the test's own headers
// independently, calling the reference canonicalizer directly.
func signedText(t *testing.T, headers *arc.HeaderField, names []string, relaxed bool) []byte {
	t.Helper()
	var out []byte
	for _, name := range names {
		h := findHeader(headers, name)
		if h == nil {
			t.Fatalf("header %q not found in fixture", name)
		}
		out = append(out, canon.Standard{}.CanonicalizeHeader(h.Name(), h.Value(), relaxed)...)
	}
	return out
}

func TestVerifyRSASHA256RoundTrip(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	headers := buildHeaders(t, [][2]string{
		{"From", " alice@example.com"},
		{"Subject", " hello"},
	})

	relaxed := true
	canonBody := canon.Standard{}.CanonicalizeBody([]byte("body text\r\n"), relaxed)

	text := signedText(t, headers, []string{"from", "subject"}, relaxed)
	h := crypto.SHA256.New()
	h.Write(text)
	h.Write(canonBody)
	digest := h.Sum(nil)

	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest)
	if err != nil {
		t.Fatalf("SignPKCS1v15: %v", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}

	sigMsg := arc.Init().NewMessage()
	tagValue := "v=1; a=rsa-sha256; i=1; d=example.com; s=sel; c=relaxed/relaxed; h=from:subject; b=" + base64.StdEncoding.EncodeToString(sig)
	set, stat := sigMsg.ProcessSet(arc.SetTypeSignature, []byte(tagValue))
	if stat != arc.StatOK {
		t.Fatalf("ProcessSet: %v: %s", stat, sigMsg.Error())
	}

	req := &arc.VerifyRequest{
		Instance:      1,
		Signature:     set,
		Headers:       headers,
		CanonicalBody: canonBody,
		Key:           pubDER,
	}

	v := New()
	if got := v.Verify(context.Background(), req); got != arc.StatOK {
		t.Errorf("Verify() = %v, want StatOK", got)
	}
}

func TestVerifyEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	headers := buildHeaders(t, [][2]string{
		{"From", " alice@example.com"},
	})

	relaxed := false
	canonBody := canon.Standard{}.CanonicalizeBody([]byte("body text\r\n"), relaxed)

	text := signedText(t, headers, []string{"from"}, relaxed)
	h := crypto.SHA256.New()
	h.Write(text)
	h.Write(canonBody)
	digest := h.Sum(nil)

	sig := ed25519.Sign(priv, digest)

	sigMsg := arc.Init().NewMessage()
	tagValue := "v=1; a=ed25519-sha256; i=1; d=example.com; s=sel; c=simple/simple; h=from; b=" + base64.StdEncoding.EncodeToString(sig)
	set, stat := sigMsg.ProcessSet(arc.SetTypeSignature, []byte(tagValue))
	if stat != arc.StatOK {
		t.Fatalf("ProcessSet: %v: %s", stat, sigMsg.Error())
	}

	req := &arc.VerifyRequest{
		Instance:      1,
		Signature:     set,
		Headers:       headers,
		CanonicalBody: canonBody,
		Key:           []byte(pub),
	}

	v := New()
	if got := v.Verify(context.Background(), req); got != arc.StatOK {
		t.Errorf("Verify() = %v, want StatOK", got)
	}
}

func TestVerifyDetectsTamperedBody(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	headers := buildHeaders(t, [][2]string{{"From", " alice@example.com"}})

	signedBody := canon.Standard{}.CanonicalizeBody([]byte("original body\r\n"), false)
	text := signedText(t, headers, []string{"from"}, false)
	h := crypto.SHA256.New()
	h.Write(text)
	h.Write(signedBody)
	digest := h.Sum(nil)

	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest)
	if err != nil {
		t.Fatalf("SignPKCS1v15: %v", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}

	sigMsg := arc.Init().NewMessage()
	tagValue := "v=1; a=rsa-sha256; i=1; d=example.com; s=sel; c=simple/simple; h=from; b=" + base64.StdEncoding.EncodeToString(sig)
	set, stat := sigMsg.ProcessSet(arc.SetTypeSignature, []byte(tagValue))
	if stat != arc.StatOK {
		t.Fatalf("ProcessSet: %v: %s", stat, sigMsg.Error())
	}

	tamperedBody := canon.Standard{}.CanonicalizeBody([]byte("tampered body\r\n"), false)

	req := &arc.VerifyRequest{
		Instance:      1,
		Signature:     set,
		Headers:       headers,
		CanonicalBody: tamperedBody,
		Key:           pubDER,
	}

	v := New()
	if got := v.Verify(context.Background(), req); got != arc.StatBadSig {
		t.Errorf("Verify() = %v, want StatBadSig for tampered body", got)
	}
}

func TestVerifyRejectsUnsupportedAlgorithm(t *testing.T) {
	headers := buildHeaders(t, [][2]string{{"From", " alice@example.com"}})

	sigMsg := arc.Init().NewMessage()
	tagValue := "v=1; a=rsa-sha512; i=1; d=example.com; s=sel; c=simple/simple; h=from; b=" + base64.StdEncoding.EncodeToString([]byte("not a real signature"))
	set, stat := sigMsg.ProcessSet(arc.SetTypeSignature, []byte(tagValue))
	if stat != arc.StatOK {
		t.Fatalf("ProcessSet: %v: %s", stat, sigMsg.Error())
	}

	req := &arc.VerifyRequest{
		Instance:      1,
		Signature:     set,
		Headers:       headers,
		CanonicalBody: []byte("irrelevant"),
		Key:           []byte("irrelevant"),
	}

	v := New()
	if got := v.Verify(context.Background(), req); got != arc.StatBadSig {
		t.Errorf("Verify() = %v, want StatBadSig for unsupported algorithm", got)
	}
}
