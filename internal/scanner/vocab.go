package scanner

import (
	"strings"

	"github.com/af-corp/promptguard-gateway/internal/types"
)

const (
	secretsRisk  = 0.95
	toxicityRisk = 0.9
)

// secretTerms is the fixed credential-keyword vocabulary. Matching is
// case-insensitive substring containment; these scanners flag, never redact.
var secretTerms = []string{
	"api_key",
	"password",
	"secret",
	"token",
	"apikey",
	"api key",
	"access key",
	"private key",
}

// toxicTerms is the fixed profanity/insult vocabulary for the local
// toxicity check.
var toxicTerms = []string{
	"idiot",
	"stupid",
	"moron",
	"dumbass",
	"loser",
	"worthless",
	"pathetic",
	"shut up",
	"i hate you",
	"kill yourself",
}

// scanVocabulary flags a prompt containing any vocabulary term. The prompt is
// never modified; details list the matched terms in vocabulary order.
func scanVocabulary(kind types.ScannerKind, prompt string, vocab []string, risk float64) types.ScannerResult {
	lower := strings.ToLower(prompt)

	var matched []string
	for _, term := range vocab {
		if strings.Contains(lower, term) {
			matched = append(matched, term)
		}
	}

	if len(matched) == 0 {
		return cleanResult(kind, prompt)
	}

	return types.ScannerResult{
		ScannerName:     kind,
		InputPrompt:     prompt,
		SanitizedPrompt: prompt,
		IsValid:         false,
		RiskScore:       risk,
		Details: map[string]any{
			"matched_terms": matched,
		},
	}
}
