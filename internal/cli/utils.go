// Package cli renders search sessions for the kensaku command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/session"
	"github.com/hyperjump/kensaku/pkg/utils"
)

// OutputFormat is the format for session output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one tab-separated line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat validates a -format flag value. Empty means text.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// Hit is the projection of a result row the command line shows.
type Hit struct {
	Title            string
	Path             string
	FileType         string
	Author           string
	Size             int64
	LastModifiedTime time.Time
}

// SelectProperties are the properties Hit needs from the backend.
var SelectProperties = []string{"Title", "Path", "FileType", "Author", "Size", "LastModifiedTime"}

type jsonResult struct {
	ID       string     `json:"id"`
	Rank     *int       `json:"rank,omitempty"`
	Title    string     `json:"title"`
	Path     string     `json:"path,omitempty"`
	FileType string     `json:"file_type,omitempty"`
	Author   string     `json:"author,omitempty"`
	Size     int64      `json:"size,omitempty"`
	Modified *time.Time `json:"last_modified_time,omitempty"`
}

type jsonSession struct {
	TotalResults int                 `json:"total_results"`
	Loaded       int                 `json:"loaded"`
	HasMore      bool                `json:"has_more"`
	Results      []jsonResult        `json:"results"`
	Refiners     []models.Refiner    `json:"refiners"`
	Refinements  map[string][]string `json:"refinements,omitempty"`
	Error        string              `json:"error,omitempty"`
}

// WriteSession writes the session's accumulated results and refiners to w.
func WriteSession(w io.Writer, st session.State[Hit], format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeSessionJSON(w, st)
	case OutputCompact:
		for _, r := range st.Results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rankString(r.Rank), r.Data.FileType, r.Data.Title, r.Data.Path)
		}
		return nil
	default:
		writeSessionText(w, st)
		return nil
	}
}

func writeSessionJSON(w io.Writer, st session.State[Hit]) error {
	out := jsonSession{
		TotalResults: st.TotalResults,
		Loaded:       len(st.Results),
		HasMore:      st.HasMore,
		Results:      make([]jsonResult, 0, len(st.Results)),
		Refiners:     st.Refiners,
		Refinements:  st.Refinements,
	}
	if out.Refiners == nil {
		out.Refiners = []models.Refiner{}
	}
	if len(out.Refinements) == 0 {
		out.Refinements = nil
	}
	if st.Err != nil {
		out.Error = st.Err.Error()
	}
	for _, r := range st.Results {
		jr := jsonResult{
			ID:       r.ID,
			Rank:     r.Rank,
			Title:    r.Data.Title,
			Path:     r.Data.Path,
			FileType: r.Data.FileType,
			Author:   r.Data.Author,
			Size:     r.Data.Size,
		}
		if !r.Data.LastModifiedTime.IsZero() {
			mod := r.Data.LastModifiedTime
			jr.Modified = &mod
		}
		out.Results = append(out.Results, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeSessionText(w io.Writer, st session.State[Hit]) {
	fmt.Fprintf(w, "\nFound %d results (showing %d)\n\n", st.TotalResults, len(st.Results))
	for _, r := range st.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%s] %s\n", rankString(r.Rank), titleOrID(r))
		if r.Data.Path != "" {
			fmt.Fprintf(w, "Path: %s\n", r.Data.Path)
		}
		var meta []string
		if r.Data.FileType != "" {
			meta = append(meta, "type "+r.Data.FileType)
		}
		if r.Data.Author != "" {
			meta = append(meta, "by "+r.Data.Author)
		}
		if !r.Data.LastModifiedTime.IsZero() {
			meta = append(meta, "modified "+r.Data.LastModifiedTime.Format("2006-01-02"))
		}
		if len(meta) > 0 {
			fmt.Fprintln(w, strings.Join(meta, " | "))
		}
	}
	if st.HasMore {
		fmt.Fprintf(w, "\n... %d more\n", st.TotalResults-len(st.Results))
	}
	if len(st.Refiners) > 0 {
		fmt.Fprintln(w, "\nRefiners:")
		for _, ref := range st.Refiners {
			fmt.Fprintf(w, "  %s: %s\n", ref.Name, refinerEntries(ref, st.Refinements[ref.Name]))
		}
	}
	if st.Err != nil {
		fmt.Fprintf(w, "\nError: %v\n", st.Err)
	}
	fmt.Fprintln(w)
}

// refinerEntries lists values with counts, marking selected ones with '*'.
func refinerEntries(ref models.Refiner, selected []string) string {
	parts := make([]string, 0, len(ref.Entries))
	for _, e := range ref.Entries {
		mark := ""
		for _, s := range selected {
			if s == e.Value {
				mark = "*"
				break
			}
		}
		parts = append(parts, fmt.Sprintf("%s%s (%d)", mark, e.Value, e.Count))
	}
	return strings.Join(parts, ", ")
}

func rankString(rank *int) string {
	if rank == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *rank)
}

func titleOrID(r *models.SearchResult[Hit]) string {
	if r.Data.Title != "" {
		return utils.Truncate(r.Data.Title, 120)
	}
	return r.ID
}

// WriteSuggestions writes query suggestions one per line, or as a JSON array.
func WriteSuggestions(w io.Writer, queries []string, format OutputFormat) error {
	if format == OutputJSON {
		if queries == nil {
			queries = []string{}
		}
		return json.NewEncoder(w).Encode(map[string][]string{"queries": queries})
	}
	for _, q := range queries {
		fmt.Fprintln(w, q)
	}
	return nil
}
