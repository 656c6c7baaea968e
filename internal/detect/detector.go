package detect

import (
	"strings"

	"go.uber.org/zap"
)

// Detector runs an immutable rule registry over input text. It holds no
// mutable state after construction and is safe for concurrent use.
type Detector struct {
	rules  []Rule
	logger *zap.Logger
}

// New creates a detector over the given registry. The rule slice is copied
// so later mutation by the caller cannot affect detection.
func New(rules []Rule, log *zap.Logger) *Detector {
	if log == nil {
		log = zap.NewNop()
	}

	owned := make([]Rule, len(rules))
	copy(owned, rules)

	log.Info("Detector initialized", zap.Int("rules", len(owned)))

	return &Detector{rules: owned, logger: log}
}

// Rules returns the registry the detector was built with.
func (d *Detector) Rules() []Rule {
	out := make([]Rule, len(d.rules))
	copy(out, d.rules)
	return out
}

// Detect scans text with every rule whose type is in enabled, or with all
// rules when enabled is empty. For each rule it reports every
// non-overlapping occurrence whose validator (if any) accepts the matched
// substring. Offsets are relative to the original text. Rules are
// independent; the same span may be reported by more than one rule.
func (d *Detector) Detect(text string, enabled ...RuleType) []Match {
	var want map[RuleType]bool
	if len(enabled) > 0 {
		want = make(map[RuleType]bool, len(enabled))
		for _, t := range enabled {
			want[t] = true
		}
	}

	matches := make([]Match, 0)
	for _, rule := range d.rules {
		if want != nil && !want[rule.Type] {
			continue
		}

		locs := rule.Pattern.FindAllStringIndex(text, -1)
		if locs == nil {
			continue
		}

		accepted := 0
		for _, loc := range locs {
			candidate := text[loc[0]:loc[1]]
			if rule.Validate != nil && !rule.Validate(candidate) {
				continue
			}
			matches = append(matches, Match{
				Type:     rule.Type,
				Severity: rule.Severity,
				Text:     candidate,
				Start:    loc[0],
			})
			accepted++
		}

		if accepted > 0 {
			d.logger.Debug("Sensitive data detected",
				zap.String("rule", rule.Name),
				zap.String("type", string(rule.Type)),
				zap.Int("count", accepted),
			)
		}
	}

	return matches
}

// DetectHighEntropy runs the entropy pass and reports each qualifying token
// as a low-severity match with its offset in the original text. Repeated
// tokens are located left to right so offsets stay distinct.
func (d *Detector) DetectHighEntropy(text string, threshold float64) []Match {
	tokens := HighEntropyTokens(text, threshold)
	if len(tokens) == 0 {
		return nil
	}

	matches := make([]Match, 0, len(tokens))
	searchFrom := 0
	for _, tok := range tokens {
		idx := strings.Index(text[searchFrom:], tok)
		if idx < 0 {
			continue
		}
		start := searchFrom + idx
		matches = append(matches, Match{
			Type:     TypeHighEntropy,
			Severity: SeverityLow,
			Text:     tok,
			Start:    start,
		})
		searchFrom = start + len(tok)
	}

	if len(matches) > 0 {
		d.logger.Debug("High-entropy tokens detected", zap.Int("count", len(matches)))
	}

	return matches
}
