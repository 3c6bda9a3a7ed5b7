package scan

import (
	"encoding/json"

	"github.com/af-corp/promptguard-gateway/internal/types"
)

// resultKeys maps each scanner kind to its dedicated sub-object key in the
// backend's multi-field response shape.
var resultKeys = map[types.ScannerKind]string{
	types.ScannerAnonymize:     "anonymize_result",
	types.ScannerSecrets:       "secrets_result",
	types.ScannerToxicity:      "toxicity_result",
	types.ScannerBanSubstrings: "banned_substrings_result",
	types.ScannerRegex:         "regex_result",
	types.ScannerCode:          "code_result",
}

const toxicityOverrideThreshold = 0.7

// decodeUnified returns the payload as a ScanResponse when it structurally
// matches the unified shape: a present applied_scanners_results array whose
// every element carries a known scanner_name and a boolean is_valid. Anything
// looser is handed to the normalizer instead.
func decodeUnified(payload json.RawMessage) (*types.ScanResponse, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, false
	}
	listRaw, ok := raw["applied_scanners_results"]
	if !ok {
		return nil, false
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(listRaw, &entries); err != nil {
		return nil, false
	}
	for _, entry := range entries {
		var name string
		if err := json.Unmarshal(entry["scanner_name"], &name); err != nil {
			return nil, false
		}
		if _, known := types.ParseScannerKind(name); !known {
			return nil, false
		}
		var valid bool
		if err := json.Unmarshal(entry["is_valid"], &valid); err != nil {
			return nil, false
		}
	}

	var resp types.ScanResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

// normalize converts a legacy backend payload into per-scanner results plus
// the overall sanitized prompt. The backend has emitted two historical
// shapes: a flat single-result one, and a multi-field one with per-scanner
// *_result sub-objects and detection.* structures; both funnel through here.
func normalize(payload json.RawMessage, scanners []types.ScannerKind, originalPrompt string) ([]types.ScannerResult, string) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		raw = map[string]any{}
	}

	topSanitized := stringField(raw, "sanitized_prompt", originalPrompt)
	detection, _ := raw["detection"].(map[string]any)

	results := make([]types.ScannerResult, 0, len(scanners))
	for _, kind := range scanners {
		result := types.ScannerResult{
			ScannerName:     kind,
			InputPrompt:     originalPrompt,
			SanitizedPrompt: originalPrompt,
			IsValid:         true,
			RiskScore:       0,
			Details:         map[string]any{},
		}

		if sub, ok := raw[resultKeys[kind]].(map[string]any); ok {
			result.SanitizedPrompt = stringField(sub, "sanitized_prompt", topSanitized)
			result.IsValid = boolField(sub, "is_valid", true)
			result.RiskScore = floatField(sub, "risk_score", 0)
			if details, ok := sub["details"].(map[string]any); ok {
				result.Details = details
			}
		} else if kind == types.ScannerAnonymize {
			// Legacy flat shape: the primary scanner inherits the
			// payload's top-level verdict.
			result.SanitizedPrompt = topSanitized
			result.IsValid = boolField(raw, "is_valid", true)
			result.RiskScore = floatField(raw, "risk_score", 0)
		}

		applyDetectionOverrides(&result, kind, detection)
		result.RiskScore = types.ClampRisk(result.RiskScore)
		results = append(results, result)
	}

	return results, topSanitized
}

// applyDetectionOverrides folds the payload's detection.* structures into a
// scanner's result.
func applyDetectionOverrides(result *types.ScannerResult, kind types.ScannerKind, detection map[string]any) {
	if detection == nil {
		return
	}

	switch kind {
	case types.ScannerAnonymize:
		if pii, ok := detection["pii"]; ok {
			result.Details["entities"] = pii
			result.Details["pii_detected"] = true
		}
	case types.ScannerToxicity:
		items, ok := detection["toxicity"].([]any)
		if !ok {
			return
		}
		result.Details["toxicity_scores"] = items
		for _, item := range items {
			if itemScore(item) > toxicityOverrideThreshold {
				result.IsValid = false
			}
		}
	case types.ScannerBanSubstrings:
		matches, ok := detection["banned_substrings"].([]any)
		if !ok || len(matches) == 0 {
			return
		}
		result.Details["banned_matches"] = matches
		result.IsValid = false
	}
}

// itemScore extracts a score from a toxicity detection item, which arrives
// either as a bare number or as an object with a "score" field.
func itemScore(item any) float64 {
	switch v := item.(type) {
	case float64:
		return v
	case map[string]any:
		return floatField(v, "score", 0)
	default:
		return 0
	}
}

func stringField(m map[string]any, key, fallback string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

func boolField(m map[string]any, key string, fallback bool) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return fallback
}

func floatField(m map[string]any, key string, fallback float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}
