package reduction

import (
	"strings"
	"unicode"
)

// aggressiveLimit is the maximum length, in code units, kept by the
// aggressive strategy.
const aggressiveLimit = 256

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "and": {}, "or": {},
	"to": {}, "in": {}, "on": {}, "for": {}, "with": {}, "at": {},
	"by": {}, "from": {}, "is": {}, "are": {}, "was": {}, "were": {},
}

// Apply runs the strategy selected by algorithm over text.
// Unknown algorithms fall back to DefaultAlgorithm; callers are expected to
// reject them before reaching the engine.
func Apply(algorithm Algorithm, text string) string {
	switch algorithm.OrDefault() {
	case AlgorithmSyntactic:
		return Syntactic(text)
	case AlgorithmAggressive:
		return Aggressive(text)
	default:
		return Semantic(text)
	}
}

// Semantic drops stop words and joins the remaining tokens with one space.
//
// Leading or trailing whitespace produces an empty token that survives the
// filter, so " fox " becomes " fox ".
func Semantic(text string) string {
	tokens := splitWhitespace(text)

	var b strings.Builder
	b.Grow(len(text))
	first := true
	for _, tok := range tokens {
		if _, stop := stopWords[lowerFull(tok)]; stop {
			continue
		}
		if !first {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
		first = false
	}
	return b.String()
}

// Syntactic keeps ASCII word characters and whitespace, then collapses and
// trims whitespace.
func Syntactic(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isWordChar(r) || isSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Trim(collapseSpace(b.String()), " ")
}

// Aggressive collapses and trims whitespace, then keeps at most the first
// 256 code units.
func Aggressive(text string) string {
	s := strings.Trim(collapseSpace(text), " ")
	return truncateUnits(s, aggressiveLimit)
}

// lowerFull lowercases s with the default full case mapping, where U+0130
// becomes "i" followed by U+0307 rather than a plain "i".
func lowerFull(s string) string {
	if !strings.ContainsRune(s, '\u0130') {
		return strings.ToLower(s)
	}
	return strings.ToLower(strings.ReplaceAll(s, "\u0130", "i\u0307"))
}

// splitWhitespace splits on runs of whitespace. Unlike strings.Fields it
// keeps the empty token produced by a leading or trailing run.
func splitWhitespace(s string) []string {
	tokens := make([]string, 0, 8)
	start := 0
	inSpace := false
	for i, r := range s {
		switch {
		case isSpace(r) && !inSpace:
			tokens = append(tokens, s[start:i])
			inSpace = true
		case !isSpace(r) && inSpace:
			start = i
			inSpace = false
		}
	}
	if inSpace {
		return append(tokens, "")
	}
	return append(tokens, s[start:])
}

// collapseSpace replaces every whitespace run with a single ASCII space.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if isSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// truncateUnits cuts s after limit code units. A surrogate pair that would
// straddle the limit is dropped whole.
func truncateUnits(s string, limit int) string {
	n := 0
	for i, r := range s {
		w := runeUnits(r)
		if n+w > limit {
			return s[:i]
		}
		n += w
	}
	return s
}

// isSpace matches the ECMAScript \s class: Unicode White_Space plus BOM,
// without NEL.
func isSpace(r rune) bool {
	switch r {
	case '\uFEFF':
		return true
	case '\u0085':
		return false
	}
	return unicode.IsSpace(r)
}

func isWordChar(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
