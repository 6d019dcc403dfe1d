package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/session"
)

func intPtr(n int) *int { return &n }

func sampleState() session.State[Hit] {
	return session.State[Hit]{
		TotalResults: 3,
		HasMore:      true,
		Results: []*models.SearchResult[Hit]{
			{ID: "r1", Rank: intPtr(1), Data: Hit{Title: "Sales report", Path: "/docs/sales.docx", FileType: "docx", Author: "ana",
				LastModifiedTime: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}},
			{ID: "r2", Rank: intPtr(2), Data: Hit{Path: "/docs/untitled.pdf", FileType: "pdf"}},
		},
		Refiners: []models.Refiner{{Name: "FileType", Entries: []models.RefinerEntry{
			{Value: "docx", Count: 2}, {Value: "pdf", Count: 1},
		}}},
		Refinements: map[string][]string{"FileType": {"docx"}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"JSON", OutputJSON, false},
		{"compact", OutputCompact, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteSession_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSession(&buf, sampleState(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Found 3 results (showing 2)",
		"[1] Sales report",
		"Path: /docs/sales.docx",
		"type docx | by ana | modified 2024-03-01",
		"[2] r2",
		"... 1 more",
		"FileType: *docx (2), pdf (1)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSession_textShowsError(t *testing.T) {
	st := session.State[Hit]{Err: errors.New("execute query: boom")}
	var buf bytes.Buffer
	_ = WriteSession(&buf, st, OutputText)
	if !strings.Contains(buf.String(), "Error: execute query: boom") {
		t.Errorf("output: %s", buf.String())
	}
}

func TestWriteSession_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSession(&buf, sampleState(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), lines)
	}
	if lines[0] != "1\tdocx\tSales report\t/docs/sales.docx" {
		t.Errorf("line 0 = %q", lines[0])
	}
}

func TestWriteSession_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSession(&buf, sampleState(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		TotalResults int  `json:"total_results"`
		Loaded       int  `json:"loaded"`
		HasMore      bool `json:"has_more"`
		Results      []struct {
			ID       string     `json:"id"`
			Rank     int        `json:"rank"`
			Title    string     `json:"title"`
			Modified *time.Time `json:"last_modified_time"`
		} `json:"results"`
		Refiners    []models.Refiner    `json:"refiners"`
		Refinements map[string][]string `json:"refinements"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.TotalResults != 3 || decoded.Loaded != 2 || !decoded.HasMore {
		t.Errorf("decoded header = %+v", decoded)
	}
	if len(decoded.Results) != 2 || decoded.Results[0].ID != "r1" || decoded.Results[0].Rank != 1 {
		t.Errorf("results = %+v", decoded.Results)
	}
	if decoded.Results[0].Modified == nil || decoded.Results[1].Modified != nil {
		t.Error("last_modified_time should only be present when known")
	}
	if len(decoded.Refiners) != 1 || decoded.Refinements["FileType"][0] != "docx" {
		t.Errorf("refiners=%+v refinements=%v", decoded.Refiners, decoded.Refinements)
	}
}

func TestWriteSession_JSONEmptyState(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSession(&buf, session.State[Hit]{}, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"results": []`) || !strings.Contains(buf.String(), `"refiners": []`) {
		t.Errorf("empty lists should be encoded as []: %s", buf.String())
	}
}

func TestWriteSuggestions(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteSuggestions(&buf, []string{"quarterly", "quarterly report"}, OutputText)
	if buf.String() != "quarterly\nquarterly report\n" {
		t.Errorf("text = %q", buf.String())
	}
	buf.Reset()
	_ = WriteSuggestions(&buf, nil, OutputJSON)
	if strings.TrimSpace(buf.String()) != `{"queries":[]}` {
		t.Errorf("json = %q", buf.String())
	}
}
