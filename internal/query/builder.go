// Package query translates logical queries into backend query descriptors.
package query

import "strings"

// Sort orders results by a managed property.
type Sort struct {
	Property   string `json:"property"`
	Descending bool   `json:"descending,omitempty"`
}

// Descriptor is the backend-facing description of one fetch.
type Descriptor struct {
	QueryText         string   `json:"query_text"`
	SelectProperties  []string `json:"select_properties,omitempty"`
	Refiners          string   `json:"refiners,omitempty"`
	RefinementFilters []string `json:"refinement_filters,omitempty"`
	SortList          []Sort   `json:"sort_list,omitempty"`
	RowLimit          int      `json:"row_limit,omitempty"`
	StartRow          int      `json:"start_row,omitempty"`
}

// RefinerNames splits the comma-joined Refiners list, dropping blanks.
func (d *Descriptor) RefinerNames() []string {
	if d.Refiners == "" {
		return nil
	}
	parts := strings.Split(d.Refiners, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Builder assembles a Descriptor. Calls chain; later calls override earlier ones
// except for the appending methods (RefinementFilters, SortBy).
type Builder struct {
	d Descriptor
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Text sets the full-text clause.
func (b *Builder) Text(text string) *Builder {
	b.d.QueryText = text
	return b
}

// Select replaces the list of properties returned per row.
func (b *Builder) Select(props ...string) *Builder {
	b.d.SelectProperties = append([]string(nil), props...)
	return b
}

// Refiners replaces the comma-joined list of facets to compute.
func (b *Builder) Refiners(names string) *Builder {
	b.d.Refiners = names
	return b
}

// RefinementFilters appends filter expressions.
func (b *Builder) RefinementFilters(exprs ...string) *Builder {
	b.d.RefinementFilters = append(b.d.RefinementFilters, exprs...)
	return b
}

// SortBy appends a sort key.
func (b *Builder) SortBy(property string, descending bool) *Builder {
	b.d.SortList = append(b.d.SortList, Sort{Property: property, Descending: descending})
	return b
}

// RowLimit sets the page size.
func (b *Builder) RowLimit(n int) *Builder {
	b.d.RowLimit = n
	return b
}

// StartRow sets the offset of the first row.
func (b *Builder) StartRow(n int) *Builder {
	b.d.StartRow = n
	return b
}

// Descriptor returns a copy of the descriptor built so far.
func (b *Builder) Descriptor() *Descriptor {
	d := b.d
	d.SelectProperties = append([]string(nil), b.d.SelectProperties...)
	d.RefinementFilters = append([]string(nil), b.d.RefinementFilters...)
	d.SortList = append([]Sort(nil), b.d.SortList...)
	return &d
}
