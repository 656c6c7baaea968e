package detect

import (
	"math"
	"strings"
)

// DefaultEntropyThreshold is the bits-per-character cutoff above which a
// token is reported as secret-like.
const DefaultEntropyThreshold = 4.5

// minEntropyTokenLength is the shortest token the entropy pass considers;
// entropy estimates on shorter tokens are too noisy to act on.
const minEntropyTokenLength = 20

// Entropy returns the Shannon entropy of s in bits per character, computed
// over the observed rune distribution. Empty input has zero entropy.
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}

	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}

	entropy := 0.0
	for _, count := range counts {
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// HighEntropyTokens splits text on whitespace and returns every token of
// length >= 20 whose entropy meets the threshold. A threshold <= 0 selects
// DefaultEntropyThreshold. Checksum validators never run here; this pass is
// a heuristic, not a rule.
func HighEntropyTokens(text string, threshold float64) []string {
	if threshold <= 0 {
		threshold = DefaultEntropyThreshold
	}

	var tokens []string
	for _, tok := range strings.Fields(text) {
		if len(tok) < minEntropyTokenLength {
			continue
		}
		if Entropy(tok) >= threshold {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
