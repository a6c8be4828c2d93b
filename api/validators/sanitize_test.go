package validators

import "testing"

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	// "trà" is 4 bytes; cutting at 3 would split the à.
	got := SanitizeString("  trà sữa ", 3)
	if got != "tr" {
		t.Fatalf("expected %q, got %q", "tr", got)
	}
	if got := SanitizeString(" matcha ", 0); got != "matcha" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}
