package scan

import "github.com/af-corp/promptguard-gateway/internal/types"

// aggregate reduces per-scanner results into the final response.
// overall_is_valid is the AND over every is_valid (vacuously true for an
// empty list); risk scores are clamped to [0, 1].
func aggregate(originalPrompt, finalSanitized string, results []types.ScannerResult) *types.ScanResponse {
	overall := true
	for i := range results {
		results[i].RiskScore = types.ClampRisk(results[i].RiskScore)
		if results[i].Details == nil {
			results[i].Details = map[string]any{}
		}
		if !results[i].IsValid {
			overall = false
		}
	}

	return &types.ScanResponse{
		OriginalPrompt:         originalPrompt,
		FinalSanitizedPrompt:   finalSanitized,
		OverallIsValid:         overall,
		AppliedScannersResults: results,
	}
}
