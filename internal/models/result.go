package models

// SearchResult is a single normalized result row.
// ID is stable across pages for the same backend document; Data is the typed
// projection of the selected fields and Raw keeps the row as the backend sent it.
type SearchResult[T any] struct {
	ID   string         `json:"id"`
	Data T              `json:"data"`
	Raw  map[string]any `json:"raw,omitempty"`
	Rank *int           `json:"rank,omitempty"`
}

// RefinerEntry is one candidate value of a facet with its match count.
type RefinerEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
	Token string `json:"token"`
}

// Refiner is a facet reported by the backend for the current query.
type Refiner struct {
	Name    string         `json:"name"`
	Entries []RefinerEntry `json:"entries"`
}

// Entry returns the entry for value, if the refiner reported it.
func (r Refiner) Entry(value string) (RefinerEntry, bool) {
	for _, e := range r.Entries {
		if e.Value == value {
			return e, true
		}
	}
	return RefinerEntry{}, false
}

// Page is one parsed backend response.
// Refiners is never nil so "no facets" can be handled like any other list.
type Page[T any] struct {
	Results      []*SearchResult[T] `json:"results"`
	TotalResults int                `json:"total_results"`
	Refiners     []Refiner          `json:"refiners"`
}
