package storage

import "testing"

func TestSanitizeOriginalName_StripsMarkup(t *testing.T) {
	got := sanitizeOriginalName(`<b>report</b>.pdf`)
	if got != "report.pdf" {
		t.Errorf("sanitizeOriginalName = %q, want report.pdf", got)
	}
}

func TestSanitizeOriginalName_DropsScriptContent(t *testing.T) {
	got := sanitizeOriginalName(`<script>alert(1)</script>report.pdf`)
	if got != "report.pdf" {
		t.Errorf("sanitizeOriginalName = %q, want report.pdf (script content dropped)", got)
	}
}

func TestSanitizeOriginalName_PlainNameUnchanged(t *testing.T) {
	got := sanitizeOriginalName("invoice-2026.pdf")
	if got != "invoice-2026.pdf" {
		t.Errorf("sanitizeOriginalName = %q, want invoice-2026.pdf", got)
	}
}
