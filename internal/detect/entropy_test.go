package detect

import (
	"math"
	"strings"
	"testing"
)

func TestEntropy(t *testing.T) {
	t.Run("EmptyString", func(t *testing.T) {
		if got := Entropy(""); got != 0 {
			t.Errorf("Entropy of empty string should be 0, got %f", got)
		}
	})

	t.Run("SingleRepeatedCharacter", func(t *testing.T) {
		for _, n := range []int{1, 5, 100} {
			if got := Entropy(strings.Repeat("x", n)); got != 0 {
				t.Errorf("Entropy of %d repeated chars should be 0, got %f", n, got)
			}
		}
	})

	t.Run("EquiprobableDistinctCharacters", func(t *testing.T) {
		cases := []struct {
			s    string
			want float64
		}{
			{"ab", 1},                  // log2(2)
			{"abcd", 2},                // log2(4)
			{"abcdefgh", 3},            // log2(8)
			{"aabb", 1},                // still 2 equiprobable symbols
			{"0123456789abcdef", 4},    // log2(16)
			{"abcdefghijklmnopqrstuvwxyz", math.Log2(26)},
		}

		for _, tc := range cases {
			got := Entropy(tc.s)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Entropy(%q) = %f, want %f", tc.s, got, tc.want)
			}
		}
	})

	t.Run("MultibyteRunes", func(t *testing.T) {
		// Entropy is over runes, not bytes.
		if got := Entropy("日日日日"); got != 0 {
			t.Errorf("Repeated multibyte rune should have 0 entropy, got %f", got)
		}
		if got := Entropy("日本語漢"); math.Abs(got-2) > 1e-9 {
			t.Errorf("Four distinct runes should have entropy 2, got %f", got)
		}
	})
}

func TestHighEntropyTokens(t *testing.T) {
	random := "q7Zp2Lx9Rt4Vw8Yb3Nc6Km1Jh5Gf0D" // 30 chars, high entropy

	t.Run("ReportsQualifyingToken", func(t *testing.T) {
		tokens := HighEntropyTokens("deploy key "+random+" now", 4.5)
		if len(tokens) != 1 || tokens[0] != random {
			t.Fatalf("Expected the random token, got %v", tokens)
		}
	})

	t.Run("ShortTokensSkipped", func(t *testing.T) {
		// High entropy but under the 20-char floor.
		tokens := HighEntropyTokens("q7Zp2Lx9Rt4Vw8Y", 1.0)
		if len(tokens) != 0 {
			t.Errorf("Short tokens should be skipped, got %v", tokens)
		}
	})

	t.Run("ThresholdRespected", func(t *testing.T) {
		tokens := HighEntropyTokens(random, 6.0)
		if len(tokens) != 0 {
			t.Errorf("Token below threshold should be skipped, got %v", tokens)
		}
	})

	t.Run("DefaultThresholdWhenUnset", func(t *testing.T) {
		tokens := HighEntropyTokens(random, 0)
		if len(tokens) != 1 {
			t.Errorf("Zero threshold should select the default, got %v", tokens)
		}
	})

	t.Run("UniformTokenIgnored", func(t *testing.T) {
		tokens := HighEntropyTokens(strings.Repeat("a", 30), 4.5)
		if len(tokens) != 0 {
			t.Errorf("Zero-entropy token should be skipped, got %v", tokens)
		}
	})
}
