// Package obfuscate turns raw text plus detection matches into a redacted
// rendition and a recoverable mapping of mask tokens to encrypted originals.
package obfuscate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/veilbot/veil/internal/cipher"
	"github.com/veilbot/veil/internal/detect"
	"github.com/veilbot/veil/internal/mask"
)

// Result holds the redacted text and the token-to-blob mapping for one
// obfuscation call. The caller decides what, if anything, to persist.
type Result struct {
	Redacted string            `json:"redacted"`
	Mapping  map[string]string `json:"mapping,omitempty"`
}

// Obfuscator composes the masking engine with a reversible cipher. It is a
// pure transform over its arguments plus the cipher's randomness; it never
// touches storage.
type Obfuscator struct {
	cipher *cipher.Cipher
}

// New binds an obfuscator to a cipher.
func New(c *cipher.Cipher) *Obfuscator {
	return &Obfuscator{cipher: c}
}

// Obfuscate replaces each match with its mask token and records the
// encrypted original under that token. Matches are applied in descending
// start order so a splice never shifts the offsets of matches still to be
// processed. Token collisions within the call (two distinct values masking
// to the same placeholder) are disambiguated with a numeric suffix.
func (o *Obfuscator) Obfuscate(text string, matches []detect.Match) (*Result, error) {
	ordered := make([]detect.Match, len(matches))
	copy(ordered, matches)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Start > ordered[j].Start
	})

	redacted := text
	mapping := make(map[string]string, len(ordered))

	for _, m := range ordered {
		if m.Start < 0 || m.Start+len(m.Text) > len(redacted) {
			continue
		}
		if redacted[m.Start:m.Start+len(m.Text)] != m.Text {
			// An overlapping, later-offset match already rewrote this
			// region; nothing left here to redact.
			continue
		}

		blob, err := o.cipher.Encrypt(m.Text)
		if err != nil {
			return nil, fmt.Errorf("obfuscate: encrypting match: %w", err)
		}

		token := mask.Token(m.Text, m.Type)
		token = uniqueToken(token, blob, mapping)
		mapping[token] = blob

		redacted = redacted[:m.Start] + token + redacted[m.Start+len(m.Text):]
	}

	return &Result{Redacted: redacted, Mapping: mapping}, nil
}

// Restore substitutes the decrypted original for the first literal
// occurrence of each mask token. Longer tokens are substituted first so a
// base token never shadows its "#n"-suffixed variants. Best effort: tokens
// absent from the text are skipped. Decryption failures abort the restore.
func (o *Obfuscator) Restore(redacted string, mapping map[string]string) (string, error) {
	tokens := make([]string, 0, len(mapping))
	for token := range mapping {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})

	text := redacted
	for _, token := range tokens {
		plain, err := o.cipher.Decrypt(mapping[token])
		if err != nil {
			return "", fmt.Errorf("obfuscate: restoring %q: %w", token, err)
		}
		text = strings.Replace(text, token, plain, 1)
	}
	return text, nil
}

// uniqueToken returns token, or token suffixed with "#n" when the mapping
// already binds it to a different ciphertext.
func uniqueToken(token, blob string, mapping map[string]string) string {
	existing, ok := mapping[token]
	if !ok || existing == blob {
		return token
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s#%d", token, n)
		if _, taken := mapping[candidate]; !taken {
			return candidate
		}
	}
}
