// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package argtree

import (
	"strings"
	"unicode"

	"github.com/typeflag/typeflag/pkg/schema"
)

// kebab normalizes a declared field or variant name into a flag token
// segment: CamelCase words become dash-separated, underscores become dashes,
// everything is lowercased.
func kebab(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == ' ':
			b.WriteRune('-')
		case unicode.IsUpper(r):
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteRune('-')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return strings.ReplaceAll(b.String(), "--", "-")
}

// suffixToken joins the last depth segments of a path into a flag token.
func suffixToken(path []string, depth int) string {
	if depth > len(path) {
		depth = len(path)
	}
	return strings.Join(path[len(path)-depth:], ".")
}

// assignTokens gives every leaf in one naming scope a unique flag token.
// Tokens start as the leaf's own name and are qualified with enclosing
// names, escalating one segment at a time, until unique within the scope
// and distinct from every reserved token. Two leaves whose full paths
// normalize identically are an unresolvable collision.
func assignTokens(leaves []*Leaf, reserved map[string]bool) error {
	if len(leaves) == 0 {
		return nil
	}
	depth := make(map[*Leaf]int, len(leaves))
	for _, l := range leaves {
		depth[l] = 1
	}
	for {
		byToken := make(map[string][]*Leaf, len(leaves))
		for _, l := range leaves {
			byToken[suffixToken(l.Path, depth[l])] = append(byToken[suffixToken(l.Path, depth[l])], l)
		}
		escalated := false
		for tok, set := range byToken {
			if len(set) < 2 && !reserved[tok] {
				continue
			}
			stuck := 0
			for _, l := range set {
				if depth[l] < len(l.Path) {
					depth[l]++
					escalated = true
				} else {
					stuck++
				}
			}
			if reserved[tok] && stuck > 0 {
				return &schema.UnsupportedTypeError{
					Path:   set[0].Path,
					Reason: "flag token collides with enclosing flag --" + tok,
				}
			}
			if stuck > 1 {
				return &schema.UnsupportedTypeError{
					Path:   set[0].Path,
					Reason: "flag token collides with " + set[1].FlagPath(),
				}
			}
		}
		if !escalated {
			break
		}
	}
	for _, l := range leaves {
		l.Token = suffixToken(l.Path, depth[l])
	}
	return nil
}
