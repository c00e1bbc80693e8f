package scoring

import (
	"strings"
	"unicode"
)

// NormalizeText lowercases s and collapses everything that is not a letter or digit
// into single spaces.
func NormalizeText(s string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Similarity is the Jaccard index of the word sets of two normalized texts.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	wa := wordSet(a)
	wb := wordSet(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	inter := 0
	for w := range wa {
		if _, ok := wb[w]; ok {
			inter++
		}
	}
	union := len(wa) + len(wb) - inter
	return float64(inter) / float64(union)
}

// FindDuplicate returns the index of the first existing text at or above threshold, or -1.
// Inputs are expected to be normalized already.
func FindDuplicate(text string, existing []string, threshold float64) int {
	for i, e := range existing {
		if Similarity(text, e) >= threshold {
			return i
		}
	}
	return -1
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
