package keyword

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	index "github.com/blevesearch/bleve_index_api"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/query"
	"go.uber.org/zap"
)

const (
	defaultRowLimit    = 50
	maxRowLimit        = 500
	defaultFacetSize   = 20
	defaultSuggestSize = 8
	// refinerTokenPrefix marks an opaque refinement token; the value follows hex encoded.
	refinerTokenPrefix = "ǂǂ"
)

// ErrMissingID is returned when a document without an ID is indexed.
var ErrMissingID = errors.New("keyword: document has no id")

// BleveIndex is a search backend over a bleve index.
// It is safe for concurrent use.
type BleveIndex struct {
	index       bleve.Index
	speller     *SpellChecker
	logger      *zap.Logger
	facetSize   int
	suggestSize int
	maxDistance int
}

// Option configures a BleveIndex.
type Option func(*BleveIndex)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(b *BleveIndex) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithFacetSize sets how many values are reported per refiner.
func WithFacetSize(n int) Option {
	return func(b *BleveIndex) {
		if n > 0 {
			b.facetSize = n
		}
	}
}

// WithSuggestSize sets how many completions Suggest returns.
func WithSuggestSize(n int) Option {
	return func(b *BleveIndex) {
		if n > 0 {
			b.suggestSize = n
		}
	}
}

// WithCorrectionDistance sets the edit distance used for did-you-mean suggestions.
func WithCorrectionDistance(d int) Option {
	return func(b *BleveIndex) {
		if d > 0 {
			b.maxDistance = d
		}
	}
}

// NewBleveIndex opens the index at path, or creates it with the document mapping.
// Changing the mapping requires removing the index directory so documents are re-indexed.
func NewBleveIndex(path string, opts ...Option) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		idx, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open bleve index: %w", err)
		}
		return newBleveIndex(idx, opts), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	idx, err := bleve.New(path, documentMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return newBleveIndex(idx, opts), nil
}

// NewMemoryIndex creates an index that lives in memory only.
func NewMemoryIndex(opts ...Option) (*BleveIndex, error) {
	idx, err := bleve.NewMemOnly(documentMapping())
	if err != nil {
		return nil, fmt.Errorf("create memory index: %w", err)
	}
	return newBleveIndex(idx, opts), nil
}

func newBleveIndex(idx bleve.Index, opts []Option) *BleveIndex {
	b := &BleveIndex{
		index:       idx,
		logger:      zap.NewNop(),
		facetSize:   defaultFacetSize,
		suggestSize: defaultSuggestSize,
		maxDistance: 2,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.speller = NewSpellChecker(b, WithMaxDistance(b.maxDistance), WithMaxSuggestions(b.suggestSize))
	return b
}

func documentMapping() mapping.IndexMapping {
	// standard analyzer: lowercase + tokenize, no stemming, so prefixes in the
	// term dictionary are the words users type
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	kw := bleve.NewKeywordFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(FieldTitle, text)
	doc.AddFieldMappingsAt(FieldContent, text)
	doc.AddFieldMappingsAt(FieldPath, kw)
	doc.AddFieldMappingsAt(FieldFileName, kw)
	doc.AddFieldMappingsAt(FieldFileType, kw)
	doc.AddFieldMappingsAt(FieldAuthor, kw)
	doc.AddFieldMappingsAt(FieldSize, bleve.NewNumericFieldMapping())
	doc.AddFieldMappingsAt(FieldLastModifiedTime, bleve.NewDateTimeFieldMapping())

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}

// Index adds or replaces doc.
func (b *BleveIndex) Index(ctx context.Context, doc *models.Document) error {
	if doc == nil || doc.ID == "" {
		return ErrMissingID
	}
	fields := map[string]interface{}{
		FieldTitle:   doc.Title,
		FieldContent: doc.Content,
	}
	if doc.Path != "" {
		fields[FieldPath] = doc.Path
		fields[FieldFileName] = filepath.Base(doc.Path)
	}
	if doc.FileType != "" {
		fields[FieldFileType] = doc.FileType
	}
	if doc.Author != "" {
		fields[FieldAuthor] = doc.Author
	}
	if doc.Size > 0 {
		fields[FieldSize] = float64(doc.Size)
	}
	if !doc.LastModifiedTime.IsZero() {
		fields[FieldLastModifiedTime] = doc.LastModifiedTime.UTC().Format(time.RFC3339)
	}
	if err := b.index.Index(doc.ID, fields); err != nil {
		return fmt.Errorf("index document %s: %w", doc.ID, err)
	}
	b.speller.Invalidate()
	return nil
}

// Delete removes a document from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	if err := b.index.Delete(id); err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	b.speller.Invalidate()
	return nil
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// Execute runs d and returns one page of rows with the requested refiners.
// Rows carry DocId, Path, Rank (1-based position in the whole result set), Score
// and the selected stored fields.
func (b *BleveIndex) Execute(ctx context.Context, d *query.Descriptor) (*models.RawResponse, error) {
	started := time.Now()
	q, err := buildQuery(d)
	if err != nil {
		return nil, err
	}

	size := d.RowLimit
	if size <= 0 {
		size = defaultRowLimit
	}
	if size > maxRowLimit {
		size = maxRowLimit
	}
	from := d.StartRow
	if from < 0 {
		from = 0
	}

	req := bleve.NewSearchRequestOptions(q, size, from, false)
	req.Fields = selectFields(d.SelectProperties)
	refiners := d.RefinerNames()
	for _, name := range refiners {
		req.AddFacet(name, bleve.NewFacetRequest(name, b.facetSize))
	}
	req.SortBy(sortOrder(d.SortList))

	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	rows := make([]map[string]any, 0, len(res.Hits))
	for i, hit := range res.Hits {
		row := make(map[string]any, len(hit.Fields)+3)
		for k, v := range hit.Fields {
			row[k] = v
		}
		row[models.RowKeyDocID] = hit.ID
		row[models.RowKeyRank] = from + i + 1
		row["Score"] = hit.Score
		rows = append(rows, row)
	}

	out := &models.RawResponse{
		TotalRows: models.IntPtr(int(res.Total)),
		Rows:      rows,
		ElapsedMs: time.Since(started).Milliseconds(),
	}
	if len(refiners) > 0 {
		out.Refiners, err = decodeRefiners(refiners, res.Facets)
		if err != nil {
			return nil, err
		}
	}
	b.logger.Debug("bleve query executed",
		zap.String("query_text", d.QueryText),
		zap.Strings("filters", d.RefinementFilters),
		zap.Int("start_row", from),
		zap.Int("rows", len(rows)),
		zap.Uint64("total", res.Total))
	return out, nil
}

func buildQuery(d *query.Descriptor) (blevequery.Query, error) {
	var base blevequery.Query
	text := strings.TrimSpace(d.QueryText)
	if text == "" || text == "*" {
		base = bleve.NewMatchAllQuery()
	} else {
		base = bleve.NewQueryStringQuery(text)
	}
	if len(d.RefinementFilters) == 0 {
		return base, nil
	}
	parts := []blevequery.Query{base}
	for _, f := range d.RefinementFilters {
		facet, value, err := query.ParseFilter(f)
		if err != nil {
			return nil, err
		}
		tq := bleve.NewTermQuery(value)
		tq.SetField(facet)
		parts = append(parts, tq)
	}
	return bleve.NewConjunctionQuery(parts...), nil
}

func selectFields(props []string) []string {
	if len(props) == 0 {
		return []string{"*"}
	}
	fields := append([]string(nil), props...)
	for _, p := range props {
		if p == FieldPath || p == "*" {
			return fields
		}
	}
	return append(fields, FieldPath)
}

func sortOrder(list []query.Sort) []string {
	if len(list) == 0 {
		return []string{"-_score", "_id"}
	}
	order := make([]string, 0, len(list)+1)
	for _, s := range list {
		if s.Descending {
			order = append(order, "-"+s.Property)
		} else {
			order = append(order, s.Property)
		}
	}
	// stable paging across equal sort keys
	return append(order, "_id")
}

type facetPayload struct {
	Terms []struct {
		Term  string `json:"term"`
		Count int    `json:"count"`
	} `json:"terms"`
}

// decodeRefiners converts bleve's facet results through their JSON form,
// in the order the refiners were requested.
func decodeRefiners(names []string, facets any) ([]models.RawRefiner, error) {
	buf, err := json.Marshal(facets)
	if err != nil {
		return nil, fmt.Errorf("encode facets: %w", err)
	}
	var byName map[string]facetPayload
	if err := json.Unmarshal(buf, &byName); err != nil {
		return nil, fmt.Errorf("decode facets: %w", err)
	}
	out := make([]models.RawRefiner, 0, len(names))
	for _, name := range names {
		ref := models.RawRefiner{Name: name, Entries: []models.RawRefinerEntry{}}
		for _, t := range byName[name].Terms {
			ref.Entries = append(ref.Entries, models.RawRefinerEntry{
				Value: t.Term,
				Count: t.Count,
				Token: RefinerToken(t.Term),
			})
		}
		out = append(out, ref)
	}
	return out, nil
}

// RefinerToken returns the opaque token for a refiner value.
func RefinerToken(value string) string {
	return refinerTokenPrefix + hex.EncodeToString([]byte(value))
}

// Suggest completes the last word of text from the Title and Content term
// dictionaries, most frequent first. When nothing starts with that word it
// falls back to a did-you-mean correction of the whole text.
func (b *BleveIndex) Suggest(ctx context.Context, text string) (*models.SuggestResponse, error) {
	words := tokenizeQuery(text)
	if len(words) == 0 {
		return &models.SuggestResponse{Queries: []string{}}, nil
	}
	head := strings.Join(words[:len(words)-1], " ")
	last := words[len(words)-1]

	counts := make(map[string]int)
	for _, field := range []string{FieldTitle, FieldContent} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.visitPrefix(field, last, func(term string, count int) {
			if count > counts[term] {
				counts[term] = count
			}
		}); err != nil {
			return nil, err
		}
	}

	terms := make([]Term, 0, len(counts))
	for t, c := range counts {
		terms = append(terms, Term{Text: t, Count: c})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Text < terms[j].Text
	})
	if len(terms) > b.suggestSize {
		terms = terms[:b.suggestSize]
	}

	queries := make([]string, 0, len(terms))
	for _, t := range terms {
		queries = append(queries, joinWords(head, t.Text))
	}
	if len(queries) == 0 {
		corrected, changed, err := b.speller.Correct(text)
		if err != nil {
			return nil, fmt.Errorf("spell check: %w", err)
		}
		if changed {
			queries = append(queries, corrected)
		}
	}
	b.logger.Debug("bleve suggest", zap.String("text", text), zap.Int("suggestions", len(queries)))
	return &models.SuggestResponse{Queries: queries}, nil
}

func (b *BleveIndex) visitPrefix(field, prefix string, fn func(term string, count int)) error {
	var dict index.FieldDict
	var err error
	if prefix == "" {
		dict, err = b.index.FieldDict(field)
	} else {
		dict, err = b.index.FieldDictPrefix(field, []byte(prefix))
	}
	if err != nil {
		return fmt.Errorf("read %s dictionary: %w", field, err)
	}
	defer dict.Close()
	for {
		entry, err := dict.Next()
		if err != nil {
			return fmt.Errorf("read %s dictionary: %w", field, err)
		}
		if entry == nil {
			return nil
		}
		fn(entry.Term, int(entry.Count))
	}
}

// Terms lists the Title and Content dictionaries, merged by term.
func (b *BleveIndex) Terms() ([]Term, error) {
	counts := make(map[string]int)
	for _, field := range []string{FieldTitle, FieldContent} {
		if err := b.visitPrefix(field, "", func(term string, count int) {
			if count > counts[term] {
				counts[term] = count
			}
		}); err != nil {
			return nil, err
		}
	}
	terms := make([]Term, 0, len(counts))
	for t, c := range counts {
		terms = append(terms, Term{Text: t, Count: c})
	}
	return terms, nil
}

func joinWords(head, word string) string {
	if head == "" {
		return word
	}
	return head + " " + word
}
