package types

// ScannerKind identifies one content-safety check. The set is closed: unknown
// kinds arriving in a request are skipped, never treated as errors.
type ScannerKind string

const (
	ScannerAnonymize     ScannerKind = "anonymize"
	ScannerSecrets       ScannerKind = "secrets"
	ScannerToxicity      ScannerKind = "toxicity"
	ScannerBanSubstrings ScannerKind = "bansubstrings"
	ScannerRegex         ScannerKind = "regex"
	ScannerCode          ScannerKind = "code"
)

// ParseScannerKind validates a scanner name from a request.
func ParseScannerKind(s string) (ScannerKind, bool) {
	switch ScannerKind(s) {
	case ScannerAnonymize, ScannerSecrets, ScannerToxicity,
		ScannerBanSubstrings, ScannerRegex, ScannerCode:
		return ScannerKind(s), true
	default:
		return "", false
	}
}

// NormalizeScanners maps raw scanner names to the effective scanner list:
// unknown names are dropped, duplicates collapse to their first occurrence,
// request order is preserved, and an empty result defaults to [anonymize].
func NormalizeScanners(raw []string) []ScannerKind {
	seen := make(map[ScannerKind]bool, len(raw))
	out := make([]ScannerKind, 0, len(raw))
	for _, s := range raw {
		kind, ok := ParseScannerKind(s)
		if !ok || seen[kind] {
			continue
		}
		seen[kind] = true
		out = append(out, kind)
	}
	if len(out) == 0 {
		return []ScannerKind{ScannerAnonymize}
	}
	return out
}
