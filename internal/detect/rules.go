package detect

import "regexp"

// DefaultRules returns the built-in detection registry. The returned slice
// is a fresh copy on every call; detectors treat it as immutable after
// construction so a reduced set can be injected for testing.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        "payment_card",
			Type:        TypeCard,
			Severity:    SeverityCritical,
			Pattern:     regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
			Validate:    luhnValid,
			Description: "Payment card number (Luhn-checked, 13-19 digits)",
		},
		{
			Name:        "us_ssn",
			Type:        TypeNationalID,
			Severity:    SeverityCritical,
			Pattern:     regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			Description: "US Social Security Number",
		},
		{
			Name:        "aws_access_key",
			Type:        TypeSecretKey,
			Severity:    SeverityCritical,
			Pattern:     regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`),
			Description: "AWS access key ID",
		},
		{
			Name:        "generic_secret",
			Type:        TypeSecretKey,
			Severity:    SeverityHigh,
			Pattern:     regexp.MustCompile(`\b[A-Za-z0-9]{32,}\b`),
			Validate:    keyComplexity,
			Description: "Long mixed-case alphanumeric token with digits",
		},
		{
			Name:        "password_assignment",
			Type:        TypePassword,
			Severity:    SeverityHigh,
			Pattern:     regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)\s*[:=]\s*\S{6,}`),
			Description: "Password assignment in plain text",
		},
		{
			Name:        "email_address",
			Type:        TypeEmail,
			Severity:    SeverityMedium,
			Pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
			Description: "Email address",
		},
		{
			Name:        "phone_number",
			Type:        TypePhone,
			Severity:    SeverityMedium,
			Pattern:     regexp.MustCompile(`\+?\d{1,3}[-. ]?\(?\d{2,4}\)?[-. ]\d{3,4}[-. ]?\d{3,4}\b`),
			Description: "Phone number with separators",
		},
		{
			Name:        "public_ipv4",
			Type:        TypeIP,
			Severity:    SeverityMedium,
			Pattern:     regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			Validate:    publicIP,
			Description: "Public IPv4 address (private/loopback/link-local excluded)",
		},
	}
}
