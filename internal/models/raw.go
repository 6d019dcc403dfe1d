package models

// Row keys with fixed meaning in a RawResponse row.
const (
	RowKeyDocID = "DocId"
	RowKeyPath  = "Path"
	RowKeyRank  = "Rank"
)

// RawResponse is the backend's answer to a query descriptor.
// TotalRows is a pointer so a missing count can be told apart from zero.
type RawResponse struct {
	TotalRows *int             `json:"total_rows,omitempty"`
	Rows      []map[string]any `json:"rows"`
	Refiners  []RawRefiner     `json:"refiners,omitempty"`
	ElapsedMs int64            `json:"elapsed_ms,omitempty"`
}

// RawRefiner is a facet payload as reported by the backend.
type RawRefiner struct {
	Name    string            `json:"name"`
	Entries []RawRefinerEntry `json:"entries"`
}

// RawRefinerEntry is a facet value as reported by the backend.
type RawRefinerEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
	Token string `json:"token,omitempty"`
}

// SuggestResponse holds query completions for a partial text.
type SuggestResponse struct {
	Queries []string `json:"queries"`
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}
