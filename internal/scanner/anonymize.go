package scanner

import (
	"regexp"

	"github.com/af-corp/promptguard-gateway/internal/types"
)

const anonymizeRisk = 0.8

// piiPattern defines one PII category with its redaction placeholder.
type piiPattern struct {
	Entity      string
	Placeholder string
	Regex       *regexp.Regexp
}

// defaultPIIPatterns returns the built-in PII detection patterns. Order
// matters: narrower digit-group patterns run before broader ones so a credit
// card number is not half-consumed as a phone number, and the name pattern
// runs last. Placeholders are upper-case bracketed tokens that no pattern can
// re-match, which keeps redaction idempotent.
func defaultPIIPatterns() []piiPattern {
	return []piiPattern{
		{
			Entity:      "EMAIL_ADDRESS",
			Placeholder: "[REDACTED_EMAIL]",
			Regex:       regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
		},
		{
			Entity:      "US_SSN",
			Placeholder: "[REDACTED_SSN]",
			Regex:       regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		},
		{
			Entity:      "CREDIT_CARD",
			Placeholder: "[REDACTED_CREDIT_CARD]",
			Regex:       regexp.MustCompile(`\b(?:\d{4}[ \-]){3}\d{4}\b|\b\d{15,16}\b`),
		},
		{
			Entity:      "PHONE_NUMBER",
			Placeholder: "[REDACTED_PHONE]",
			Regex:       regexp.MustCompile(`(?:\+?1[ .\-])?\(?\d{3}\)?[ .\-]\d{3}[ .\-]\d{4}\b`),
		},
		{
			Entity:      "PERSON",
			Placeholder: "[REDACTED_NAME]",
			Regex:       regexp.MustCompile(`(?:\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+)?\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`),
		},
	}
}

// scanAnonymize redacts each matched PII span with its category placeholder.
func (b *Bank) scanAnonymize(prompt string) types.ScannerResult {
	sanitized := prompt
	entities := map[string]any{}

	for _, p := range b.pii {
		matches := p.Regex.FindAllString(sanitized, -1)
		if len(matches) == 0 {
			continue
		}
		entities[p.Entity] = len(matches)
		sanitized = p.Regex.ReplaceAllString(sanitized, p.Placeholder)
	}

	if len(entities) == 0 {
		return cleanResult(types.ScannerAnonymize, prompt)
	}

	return types.ScannerResult{
		ScannerName:     types.ScannerAnonymize,
		InputPrompt:     prompt,
		SanitizedPrompt: sanitized,
		IsValid:         false,
		RiskScore:       anonymizeRisk,
		Details: map[string]any{
			"pii_detected": true,
			"entities":     entities,
		},
	}
}
