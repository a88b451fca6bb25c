// Copyright 2025 The Stadiums Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils normalizes free text scraped from web pages.
package textutils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// spaces wikipedia tables use inside numbers and names.
var spaceReplacer = strings.NewReplacer(
	"\u00a0", " ", // NO-BREAK SPACE
	"\u202f", " ", // NARROW NO-BREAK SPACE
	"\u2009", " ", // THIN SPACE
)

// LowerASCIIFolding normalizes a string by removing accents, lowercasing, and trimming spaces.
func LowerASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.TrimSpace(strings.ToLower(s)),
	)

	return s
}

// Clean returns s in NFC form with unusual spaces replaced and runs of
// whitespace squashed into a single space.
func Clean(s string) string {
	s = norm.NFC.String(spaceReplacer.Replace(s))

	return strings.Join(strings.Fields(s), " ")
}
