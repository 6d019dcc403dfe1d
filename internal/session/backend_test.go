package session

import (
	"context"
	"strings"
	"sync"

	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/query"
)

// memBackend serves a fixed corpus, applying text matching, refinement filters,
// paging and FileType facet counts the way a real backend would.
type memBackend struct {
	mu          sync.Mutex
	docs        []map[string]any
	descriptors []*query.Descriptor
	suggestions []string
	executeErr  error
	suggestErr  error
	suggests    int
	// hold, when set, returns a channel the call waits on before answering.
	hold    func(d *query.Descriptor) <-chan struct{}
	started chan *query.Descriptor
}

func newMemBackend(docs ...map[string]any) *memBackend {
	return &memBackend{docs: docs, started: make(chan *query.Descriptor, 16)}
}

func (b *memBackend) Execute(ctx context.Context, d *query.Descriptor) (*models.RawResponse, error) {
	b.mu.Lock()
	b.descriptors = append(b.descriptors, d)
	hold := b.hold
	b.mu.Unlock()

	select {
	case b.started <- d:
	default:
	}
	if hold != nil {
		if ch := hold(d); ch != nil {
			select {
			case <-ch:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.executeErr != nil {
		return nil, b.executeErr
	}

	var matched []map[string]any
	for _, doc := range b.docs {
		if matchesText(doc, d.QueryText) && matchesFilters(doc, d.RefinementFilters) {
			matched = append(matched, doc)
		}
	}

	start := d.StartRow
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if d.RowLimit > 0 && start+d.RowLimit < end {
		end = start + d.RowLimit
	}
	rows := make([]map[string]any, 0, end-start)
	for i, doc := range matched[start:end] {
		row := make(map[string]any, len(doc)+1)
		for k, v := range doc {
			row[k] = v
		}
		row[models.RowKeyRank] = float64(start + i + 1)
		rows = append(rows, row)
	}

	resp := &models.RawResponse{TotalRows: models.IntPtr(len(matched)), Rows: rows}
	for _, name := range d.RefinerNames() {
		resp.Refiners = append(resp.Refiners, facet(name, matched))
	}
	return resp, nil
}

func (b *memBackend) Suggest(_ context.Context, _ string) (*models.SuggestResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suggests++
	if b.suggestErr != nil {
		return nil, b.suggestErr
	}
	return &models.SuggestResponse{Queries: b.suggestions}, nil
}

func (b *memBackend) calls() []*query.Descriptor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*query.Descriptor(nil), b.descriptors...)
}

func (b *memBackend) setExecuteErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.executeErr = err
}

func (b *memBackend) setHold(fn func(d *query.Descriptor) <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hold = fn
}

func matchesText(doc map[string]any, text string) bool {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" || text == "*" {
		return true
	}
	title, _ := doc["Title"].(string)
	return strings.Contains(strings.ToLower(title), text)
}

func matchesFilters(doc map[string]any, filters []string) bool {
	for _, f := range filters {
		name, value, err := query.ParseFilter(f)
		if err != nil {
			return false
		}
		if v, _ := doc[name].(string); v != value {
			return false
		}
	}
	return true
}

func facet(name string, docs []map[string]any) models.RawRefiner {
	ref := models.RawRefiner{Name: name}
	index := make(map[string]int)
	for _, doc := range docs {
		v, ok := doc[name].(string)
		if !ok {
			continue
		}
		i, seen := index[v]
		if !seen {
			i = len(ref.Entries)
			index[v] = i
			ref.Entries = append(ref.Entries, models.RawRefinerEntry{Value: v, Token: "tok-" + v})
		}
		ref.Entries[i].Count++
	}
	return ref
}
