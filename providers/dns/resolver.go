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

// Package dns implements arc.KeyProvider by resolving DKIM/ARC selector
// keys over DNS, with DNSSEC validation where the zone supports it.
package dns

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	gdns "github.com/miekg/dns"
	"github.com/peterzen/goresolver"

	"github.com/oonrumail/arc"
)

// Resolver is the reference arc.KeyProvider. It looks up
// {selector}._domainkey.{domain} TXT records through goresolver (which
// validates DNSSEC chains when the zone is signed) and hands the raw
// record through the core tag-list parser's arc.SetTypeKey mode, matching
// the DNS key record grammar RFC 6376 section 3.6.1 defines as a
// tag-list. The KEY set type is only ever reached from here, never from a
// message's own headers.
type Resolver struct {
	resolver *goresolver.Resolver
	library  *arc.Library
}

// NewResolver builds a Resolver using the system resolver configuration at
// resolvConf (typically "/etc/resolv.conf"). lib supplies the ProcessSet
// call used to parse the returned key record.
func NewResolver(lib *arc.Library, resolvConf string) (*Resolver, error) {
	r, err := goresolver.NewResolver(resolvConf)
	if err != nil {
		return nil, fmt.Errorf("arc/providers/dns: initializing resolver: %w", err)
	}
	return &Resolver{resolver: r, library: lib}, nil
}

// FetchKey implements arc.KeyProvider.
func (r *Resolver) FetchKey(ctx context.Context, selector, domain string) ([]byte, arc.Stat) {
	query := fmt.Sprintf("%s._domainkey.%s.", selector, domain)

	rrs, err := r.resolver.StrictNSQuery(query, gdns.TypeTXT)
	if err != nil {
		return nil, arc.StatNoKey
	}

	var parts []string
	for _, rr := range rrs {
		txt, ok := rr.(*gdns.TXT)
		if !ok {
			continue
		}
		parts = append(parts, strings.Join(txt.Txt, ""))
	}
	if len(parts) == 0 {
		return nil, arc.StatNoKey
	}

	return parseKeyRecord(r.library, strings.Join(parts, ""))
}

// parseKeyRecord decodes a concatenated DNS TXT key record into the raw
// public key bytes, split out from FetchKey so it can be exercised without
// a live resolver.
func parseKeyRecord(lib *arc.Library, record string) ([]byte, arc.Stat) {
	msg := lib.NewMessage()
	set, stat := msg.ProcessSet(arc.SetTypeKey, []byte(record))
	if stat != arc.StatOK {
		return nil, arc.StatKeyFail
	}

	p, ok := set.Get("p")
	if !ok || p == "" {
		// A present-but-empty "p" tag means the key has been revoked
		// (RFC 6376 3.6.1); this is a hard verification failure, not a
		// resolution failure, so the caller sees it distinctly.
		return nil, arc.StatKeyFail
	}

	key, err := base64.StdEncoding.DecodeString(p)
	if err != nil {
		return nil, arc.StatKeyFail
	}

	return key, arc.StatOK
}
