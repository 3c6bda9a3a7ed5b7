package scanner

import (
	"github.com/af-corp/promptguard-gateway/internal/types"
)

// Config carries the caller-supplied per-request scanner configuration.
type Config struct {
	BannedSubstrings []string
	RegexPatterns    []string
}

// Bank is the local deterministic scanner bank used when the remote scanning
// backend is unavailable. Every scan is a pure function of (prompt, config):
// no I/O, no shared mutable state, byte-identical output for identical input.
type Bank struct {
	pii []piiPattern
}

// NewBank creates a scanner bank with the built-in pattern tables.
func NewBank() *Bank {
	return &Bank{pii: defaultPIIPatterns()}
}

// Scan runs the local implementation of one scanner kind against a prompt.
// Only anonymize mutates the prompt; every other kind echoes it unchanged.
func (b *Bank) Scan(kind types.ScannerKind, prompt string, cfg Config) types.ScannerResult {
	switch kind {
	case types.ScannerAnonymize:
		return b.scanAnonymize(prompt)
	case types.ScannerSecrets:
		return scanVocabulary(kind, prompt, secretTerms, secretsRisk)
	case types.ScannerToxicity:
		return scanVocabulary(kind, prompt, toxicTerms, toxicityRisk)
	case types.ScannerBanSubstrings, types.ScannerRegex, types.ScannerCode:
		// Non-detecting in the local fallback: these kinds report clean.
		return cleanResult(kind, prompt)
	default:
		return cleanResult(kind, prompt)
	}
}

func cleanResult(kind types.ScannerKind, prompt string) types.ScannerResult {
	return types.ScannerResult{
		ScannerName:     kind,
		InputPrompt:     prompt,
		SanitizedPrompt: prompt,
		IsValid:         true,
		RiskScore:       0,
		Details:         map[string]any{},
	}
}
