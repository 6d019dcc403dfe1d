package query

import (
	"errors"
	"testing"
)

func TestEquals(t *testing.T) {
	if got := Equals("FileType", "docx"); got != "FileType:equals('docx')" {
		t.Errorf("Equals() = %s", got)
	}
	if got := Equals("Author", "O'Brien"); got != "Author:equals('O''Brien')" {
		t.Errorf("Equals() with quote = %s", got)
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		expr      string
		facet     string
		value     string
		wantError bool
	}{
		{"FileType:equals('docx')", "FileType", "docx", false},
		{"Author:equals('O''Brien')", "Author", "O'Brien", false},
		{"Title:equals('')", "Title", "", false},
		{"FileType=docx", "", "", true},
		{":equals('x')", "", "", true},
		{"FileType:equals('docx", "", "", true},
		{"A:equals('it's')", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			facet, value, err := ParseFilter(tt.expr)
			if tt.wantError {
				if !errors.Is(err, ErrInvalidFilter) {
					t.Errorf("err = %v, want ErrInvalidFilter", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if facet != tt.facet || value != tt.value {
				t.Errorf("got %q/%q", facet, value)
			}
		})
	}
}

func TestParseFilter_reversesEquals(t *testing.T) {
	for _, v := range []string{"docx", "a b", "x'y'z", "''"} {
		facet, value, err := ParseFilter(Equals("F", v))
		if err != nil || facet != "F" || value != v {
			t.Errorf("roundtrip %q: %q %q %v", v, facet, value, err)
		}
	}
}
