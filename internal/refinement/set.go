// Package refinement holds the facet selections applied to a search session.
package refinement

import "github.com/hyperjump/kensaku/internal/query"

// Set maps facet names to ordered selected values.
// A facet is present only while it has at least one selected value.
// Set is not safe for concurrent use; the session controller guards it.
type Set struct {
	order    []string
	selected map[string][]string
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{selected: make(map[string][]string)}
}

// Toggle selects value under facet, or deselects it when already selected.
// It reports whether value is selected afterwards.
func (s *Set) Toggle(facet, value string) bool {
	values := s.selected[facet]
	for i, v := range values {
		if v != value {
			continue
		}
		values = append(values[:i:i], values[i+1:]...)
		if len(values) == 0 {
			s.removeFacet(facet)
		} else {
			s.selected[facet] = values
		}
		return false
	}
	if len(values) == 0 {
		s.order = append(s.order, facet)
	}
	s.selected[facet] = append(values, value)
	return true
}

func (s *Set) removeFacet(facet string) {
	delete(s.selected, facet)
	for i, f := range s.order {
		if f == facet {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Clear removes every selection.
func (s *Set) Clear() {
	s.order = nil
	s.selected = make(map[string][]string)
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	return &Set{
		order:    append([]string(nil), s.order...),
		selected: s.Selected(),
	}
}

// IsSelected reports whether value is selected under facet.
func (s *Set) IsSelected(facet, value string) bool {
	for _, v := range s.selected[facet] {
		if v == value {
			return true
		}
	}
	return false
}

// Len returns the number of facets with selections.
func (s *Set) Len() int {
	return len(s.order)
}

// Selected returns a copy of the selections.
func (s *Set) Selected() map[string][]string {
	out := make(map[string][]string, len(s.selected))
	for facet, values := range s.selected {
		out[facet] = append([]string(nil), values...)
	}
	return out
}

// FilterExpressions returns one equals filter per selected value, facets in
// first-selected order and values in selection order.
func (s *Set) FilterExpressions() []string {
	if len(s.order) == 0 {
		return nil
	}
	var exprs []string
	for _, facet := range s.order {
		for _, v := range s.selected[facet] {
			exprs = append(exprs, query.Equals(facet, v))
		}
	}
	return exprs
}
