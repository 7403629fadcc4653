// Package normalize cleans free text from upstream payloads so equal values compare equal
// Pipeline order
// 1 UTF-8 repair drop invalid bytes
// 2 Drop control characters (C0, DEL, C1) and invisible format characters
// 3 Unicode NFC composition
// 4 Collapse whitespace runs to one space and trim
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// whitespace is kept for step 4 so words separated by tabs or newlines stay apart
func dropControl(r rune) bool {
	if unicode.IsSpace(r) {
		return false
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r)
}

// pool of fresh transformer chains; a chain is stateful and not safe to share
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			runes.Remove(runes.Predicate(dropControl)),
			norm.NFC,
		)
	},
}

// Clean returns the normalized form of s following the pipeline above.
// It is pure and safe for concurrent use
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(out), " ")
}

// CleanPtr applies Clean to an optional value; empty results become nil
func CleanPtr(s *string) *string {
	if s == nil {
		return nil
	}
	c := Clean(*s)
	if c == "" {
		return nil
	}
	return &c
}
