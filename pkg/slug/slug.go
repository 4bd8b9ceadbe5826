// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug generates ASCII file-name fragments from arbitrary Unicode strings.
//
// # Usage
//
// Slugs identify exports by the query that produced them
// (e.g., "Ratatouille" + "Rémy" becomes "ratatouille-remy").
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds the slug so file names stay portable.
const MaxLength = 60

var (
	// nonAlphanumeric matches any run of characters outside [a-z0-9-].
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	// multiHyphen collapses repeated hyphens.
	multiHyphen = regexp.MustCompile(`-{2,}`)
)

// From converts an arbitrary Unicode string into an ASCII slug.
//
// # Transformation Pipeline
//
// 1. Decomposes to NFD and drops combining marks (é → e).
// 2. Lowercases.
// 3. Replaces everything else with hyphens and collapses them.
// 4. Truncates to [MaxLength] without leaving a trailing hyphen.
func From(s string) string {
	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, s)

	// 2. Lowercase
	result = strings.ToLower(result)

	// 3. Replace separators and clean up hyphenation
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	// 4. Bound the length
	if len(result) > MaxLength {
		result = strings.TrimRight(result[:MaxLength], "-")
	}

	return result
}

// Join slugs every part and joins the non-empty results with hyphens.
func Join(parts ...string) string {
	var slugs []string
	for _, part := range parts {
		if s := From(part); s != "" {
			slugs = append(slugs, s)
		}
	}
	return From(strings.Join(slugs, "-"))
}

// isMn reports whether r is a Unicode non-spacing mark.
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
