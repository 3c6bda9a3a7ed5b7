package types

// ScanRequest is the inbound scan payload. The same shape is forwarded to the
// remote scanning backend.
type ScanRequest struct {
	Prompt               string   `json:"prompt"`
	Scanners             []string `json:"scanners,omitempty"`
	BannedSubstringsList []string `json:"banned_substrings_list,omitempty"`
	RegexPatternsList    []string `json:"regex_patterns_list,omitempty"`
}

// ScannerResult is the outcome of one scanner applied to a prompt.
type ScannerResult struct {
	ScannerName     ScannerKind    `json:"scanner_name"`
	InputPrompt     string         `json:"input_prompt"`
	SanitizedPrompt string         `json:"sanitized_prompt"`
	IsValid         bool           `json:"is_valid"`
	RiskScore       float64        `json:"risk_score"`
	Details         map[string]any `json:"details"`
}

// ScanResponse is the unified result schema returned to callers. The result
// list's length and order match the effective (deduplicated) scanner list.
type ScanResponse struct {
	OriginalPrompt         string          `json:"original_prompt"`
	FinalSanitizedPrompt   string          `json:"final_sanitized_prompt"`
	OverallIsValid         bool            `json:"overall_is_valid"`
	AppliedScannersResults []ScannerResult `json:"applied_scanners_results"`
}

// FlatScanResult is the legacy single-scanner projection served by the
// per-scanner endpoints.
type FlatScanResult struct {
	SanitizedPrompt string  `json:"sanitized_prompt"`
	IsValid         bool    `json:"is_valid"`
	RiskScore       float64 `json:"risk_score"`
}

// ClampRisk bounds a risk score to [0, 1].
func ClampRisk(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
