package reduction

import (
	"strconv"
	"unicode"
	"unicode/utf16"
)

// ComputeMetrics derives the savings of compressed relative to original.
// elapsedMs is recorded as-is.
func ComputeMetrics(original, compressed string, elapsedMs float64) Metrics {
	origLen := Len(original)
	compLen := Len(compressed)

	saved := origLen - compLen
	if saved < 0 {
		saved = 0
	}

	m := Metrics{
		SavedChars: saved,
		LatencyMs:  elapsedMs,
	}
	if compLen > 0 {
		m.Ratio = float64(saved) / float64(compLen)
	}
	if origLen > 0 {
		m.Pct = float64(saved) / float64(origLen)
	}
	return m
}

// Len returns the length of s in UTF-16 code units.
func Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

// Digest returns the hex rendering of |h| where h is the 32-bit rolling
// hash h = h*31 + unit over the UTF-16 code units of text.
func Digest(text string) string {
	var h int32
	for _, r := range text {
		if runeUnits(r) == 2 {
			hi, lo := utf16.EncodeRune(r)
			h = h*31 + hi
			h = h*31 + lo
			continue
		}
		h = h*31 + r
	}

	// widen before negating so -2^31 renders as 80000000
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 16)
}

func runeUnits(r rune) int {
	if r >= 0x10000 && r <= unicode.MaxRune {
		return 2
	}
	return 1
}
