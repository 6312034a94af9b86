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

// Command arcdump reads a raw RFC 5322 message from stdin, drives it
// through the arc ingestion state machine, and prints the resulting chain
// verdict. It is a thin demonstration binary, not a mail filter daemon.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/oonrumail/arc"
	"github.com/oonrumail/arc/canon"
	"github.com/oonrumail/arc/internal/runid"
	"github.com/oonrumail/arc/providers/cryptoverify"
	arcdns "github.com/oonrumail/arc/providers/dns"
)

func main() {
	resolvConf := flag.String("resolv-conf", "/etc/resolv.conf", "path to resolver configuration for the reference DNS key provider")
	fixCRLF := flag.Bool("fix-crlf", true, "normalize bare CR/LF in header fields before storing them")
	timeout := flag.Duration("timeout", 5*time.Second, "timeout for DNS key lookups")
	flag.Parse()

	runID := runid.Format(uuid.New())

	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("arcdump[%s]: reading stdin: %v", runID, err)
	}

	lib := arc.Init()
	if *fixCRLF {
		flags := arc.FlagFixCRLF
		lib.Options(arc.OptionSet, arc.OptionFlags, &flags)
	}

	msg := lib.NewMessage()
	defer msg.Free()

	headerBlock, body := splitMessage(raw)
	for _, line := range splitHeaderFields(headerBlock) {
		if stat := msg.HeaderField(line); stat != arc.StatOK {
			log.Fatalf("arcdump[%s]: header field rejected (%s): %s", runID, stat, msg.Error())
		}
	}

	if stat := msg.EndOfHeaders(); stat != arc.StatOK {
		log.Fatalf("arcdump[%s]: end of headers (%s): %s", runID, stat, msg.Error())
	}

	if len(body) > 0 {
		if stat := msg.BodyChunk(body); stat != arc.StatOK {
			log.Fatalf("arcdump[%s]: body chunk (%s): %s", runID, stat, msg.Error())
		}
	}

	resolver, err := arcdns.NewResolver(lib, *resolvConf)
	if err != nil {
		log.Fatalf("arcdump[%s]: %v", runID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	state, stat := msg.EndOfMessage(ctx, cryptoverify.New(), resolver, canon.Standard{})
	if stat != arc.StatOK {
		log.Fatalf("arcdump[%s]: chain evaluation (%s): %s", runID, stat, msg.Error())
	}

	fmt.Printf("chain: %s (%d instance(s))\n", state, msg.ChainLength())
}

// splitMessage divides a raw RFC 5322 message into its header block and
// body at the first blank line, tolerating both CRLF and bare-LF line
// endings.
func splitMessage(raw []byte) (header, body []byte) {
	for _, sep := range [][]byte{[]byte("\r\n\r\n"), []byte("\n\n")} {
		if i := bytes.Index(raw, sep); i >= 0 {
			return raw[:i], raw[i+len(sep):]
		}
	}
	return raw, nil
}

// splitHeaderFields folds continuation lines (those starting with space or
// tab) into the header field they continue, returning one raw field per
// element the way RFC 5322 2.2 and OpenARC's own line reader do.
func splitHeaderFields(block []byte) [][]byte {
	var fields [][]byte
	var cur []byte
	for _, line := range bytes.SplitAfter(block, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		trimmed := bytes.TrimRight(line, "\r\n")
		if len(trimmed) == 0 {
			continue
		}
		if (trimmed[0] == ' ' || trimmed[0] == '\t') && cur != nil {
			cur = append(cur, '\r', '\n')
			cur = append(cur, trimmed...)
			continue
		}
		if cur != nil {
			fields = append(fields, cur)
		}
		cur = append([]byte{}, trimmed...)
	}
	if cur != nil {
		fields = append(fields, cur)
	}
	return fields
}
