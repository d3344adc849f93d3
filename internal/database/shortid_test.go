package database

import "testing"

func TestGenerateShortID_LengthAndCharset(t *testing.T) {
	id := GenerateShortID()
	if len(id) != shortIDLength {
		t.Fatalf("len(id) = %d, want %d", len(id), shortIDLength)
	}
	for _, r := range id {
		if !containsRune(shortIDCharset, r) {
			t.Errorf("id %q contains unexpected rune %q", id, r)
		}
	}
}

func TestGenerateShortID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateShortID()
		if seen[id] {
			t.Fatalf("GenerateShortID produced a duplicate: %s", id)
		}
		seen[id] = true
	}
}

func containsRune(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
