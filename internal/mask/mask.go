// Package mask converts detected sensitive spans into partially-revealing
// redaction tokens. Each type reveals the minimum a user needs to recognize
// their own data while hiding the sensitive payload.
package mask

import (
	"strings"

	"github.com/veilbot/veil/internal/detect"
)

const (
	genericPlaceholder = "[REDACTED]"
	localPartMask      = "***"
)

// Token returns the redaction token for matched text of the given type.
// It is pure and deterministic: the same (text, type) pair always yields the
// same token. Tokens are unique enough to key a mapping within one
// obfuscation call; callers must not assume uniqueness across calls.
func Token(text string, t detect.RuleType) string {
	switch t {
	case detect.TypeCard:
		return cardToken(text)
	case detect.TypeNationalID:
		return "[ID REDACTED]"
	case detect.TypeSecretKey:
		return secretToken(text)
	case detect.TypePassword:
		return "[PASSWORD REDACTED]"
	case detect.TypeEmail:
		return emailToken(text)
	case detect.TypePhone:
		return phoneToken(text)
	case detect.TypeIP:
		return ipToken(text)
	case detect.TypeCustom, detect.TypeHighEntropy:
		return genericPlaceholder
	default:
		return genericPlaceholder
	}
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func cardToken(text string) string {
	digits := digitsOf(text)
	if len(digits) < 4 {
		return "[CARD REDACTED]"
	}
	return "[CARD ****" + digits[len(digits)-4:] + "]"
}

func secretToken(text string) string {
	if len(text) <= 8 {
		return "[KEY REDACTED]"
	}
	return "[KEY " + text[:4] + "****" + text[len(text)-4:] + "]"
}

func emailToken(text string) string {
	at := strings.Index(text, "@")
	if at < 1 {
		return genericPlaceholder
	}
	// First character of the local part plus the full domain.
	return text[:1] + localPartMask + text[at:]
}

func phoneToken(text string) string {
	digits := digitsOf(text)
	if len(digits) < 4 {
		return "[PHONE REDACTED]"
	}
	return "[PHONE ****" + digits[len(digits)-4:] + "]"
}

func ipToken(text string) string {
	octets := strings.Split(text, ".")
	if len(octets) != 4 {
		return "[IP REDACTED]"
	}
	return octets[0] + ".*.*." + octets[3]
}
