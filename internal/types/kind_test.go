package types

import "testing"

func TestParseScannerKind(t *testing.T) {
	valid := []string{"anonymize", "secrets", "toxicity", "bansubstrings", "regex", "code"}
	for _, s := range valid {
		kind, ok := ParseScannerKind(s)
		if !ok {
			t.Errorf("expected %q to parse", s)
		}
		if string(kind) != s {
			t.Errorf("expected kind %q, got %q", s, kind)
		}
	}

	if _, ok := ParseScannerKind("llm_guard"); ok {
		t.Error("expected unknown scanner name to be rejected")
	}
	if _, ok := ParseScannerKind(""); ok {
		t.Error("expected empty scanner name to be rejected")
	}
}

func TestNormalizeScanners_Defaults(t *testing.T) {
	got := NormalizeScanners(nil)
	if len(got) != 1 || got[0] != ScannerAnonymize {
		t.Errorf("expected default [anonymize], got %v", got)
	}

	// All-unknown list also falls back to the default
	got = NormalizeScanners([]string{"bogus", "nope"})
	if len(got) != 1 || got[0] != ScannerAnonymize {
		t.Errorf("expected default [anonymize] for unknown names, got %v", got)
	}
}

func TestNormalizeScanners_OrderAndDedup(t *testing.T) {
	got := NormalizeScanners([]string{"secrets", "toxicity", "secrets", "unknown", "anonymize"})
	want := []ScannerKind{ScannerSecrets, ScannerToxicity, ScannerAnonymize}
	if len(got) != len(want) {
		t.Fatalf("expected %d scanners, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestClampRisk(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.8, 0.8},
		{1, 1},
		{1.7, 1},
	}
	for _, tt := range tests {
		if got := ClampRisk(tt.in); got != tt.want {
			t.Errorf("ClampRisk(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
