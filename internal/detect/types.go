package detect

import "regexp"

// RuleType is the closed set of sensitive-data categories a rule can report.
type RuleType string

const (
	TypeCard        RuleType = "card"
	TypeNationalID  RuleType = "national-id"
	TypeSecretKey   RuleType = "secret-key"
	TypePassword    RuleType = "password"
	TypeEmail       RuleType = "email"
	TypePhone       RuleType = "phone"
	TypeIP          RuleType = "ip"
	TypeCustom      RuleType = "custom"
	TypeHighEntropy RuleType = "high-entropy"
)

// Severity ranks how sensitive a finding is.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Rule is a single detection rule. The optional Validate predicate is
// re-checked on every candidate occurrence; candidates failing it are
// dropped, not reported.
type Rule struct {
	Name        string
	Type        RuleType
	Severity    Severity
	Pattern     *regexp.Regexp
	Validate    func(string) bool
	Description string
}

// Match is one detected occurrence. Start is an offset into the original
// text, computed before any masking.
type Match struct {
	Type     RuleType `json:"type"`
	Severity Severity `json:"severity"`
	Text     string   `json:"-"` // never serialize matched text
	Start    int      `json:"start"`
}
