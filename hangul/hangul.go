// Package hangul counts rate-bearing units in Korean transcripts.
package hangul

// Precomposed Hangul syllable block.
const (
	syllableFirst = 0xAC00
	syllableLast  = 0xD7A3
)

// CountSyllables counts Hangul syllable code points, one syllable per code
// point. Whitespace, punctuation, Latin text and jamo are ignored, so the
// count is deterministic for a given transcript.
func CountSyllables(s string) int {
	n := 0
	for _, r := range s {
		if r >= syllableFirst && r <= syllableLast {
			n++
		}
	}
	return n
}
