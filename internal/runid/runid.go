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

// Package runid formats UUIDs as short, readable correlation ids for log
// lines, grouped into hyphenated chunks instead of the standard
// dashed-hex UUID layout.
package runid

import (
	"encoding/base32"
	"strings"

	"github.com/google/uuid"
)

// Format renders id as a lowercase, URL-safe base32 string with a hyphen
// inserted every 7 characters.
func Format(id uuid.UUID) string {
	encoded := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(id[:])
	encoded = strings.ToLower(encoded)

	var b strings.Builder
	for i, r := range encoded {
		if i > 0 && i%7 == 0 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}
