package keyword

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"report", "report", 0},
		{"", "pdf", 3},
		{"docx", "", 4},
		{"report", "reprt", 1},
		{"invoice", "invoise", 1},
		{"kitten", "sitting", 3},
		{"Report", "report", 1},
		{"café", "cafe", 1},
		{"ab", "ba", 2},
	}
	for _, tt := range tests {
		if got := LevenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := LevenshteinDistance(tt.b, tt.a); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d (symmetry)", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestDamerauLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "pdf", 3},
		{"ab", "ba", 1},
		{"reprot", "report", 1},
		{"quartelry", "quarterly", 1},
		{"kitten", "sitting", 3},
		{"spreadsheet", "spreadsheet", 0},
	}
	for _, tt := range tests {
		if got := DamerauLevenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("DamerauLevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
