// Package parser normalizes raw backend responses into typed result pages.
package parser

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/kensaku/internal/models"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// fallbackIDPrefix marks result IDs generated for rows without DocId or Path.
const fallbackIDPrefix = "generated:"

// Parser converts RawResponse payloads into Page[T].
// Row fields are projected into T by name (json tags, case-insensitive) with weak typing,
// so "42" fills an int field and a number fills a string field.
type Parser[T any] struct {
	logger *zap.Logger
}

// Option configures a Parser.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for data-quality warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns a parser for result type T.
func New[T any](opts ...Option) *Parser[T] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return &Parser[T]{logger: o.logger}
}

// Parse never fails: missing optional fields get defaults and projection
// problems are logged. A nil response yields an empty page.
func (p *Parser[T]) Parse(raw *models.RawResponse) *models.Page[T] {
	page := &models.Page[T]{
		Results:  make([]*models.SearchResult[T], 0),
		Refiners: make([]models.Refiner, 0),
	}
	if raw == nil {
		return page
	}
	if raw.TotalRows != nil && *raw.TotalRows > 0 {
		page.TotalResults = *raw.TotalRows
	} else if raw.TotalRows == nil {
		p.logger.Debug("search response without total row count", zap.Int("rows", len(raw.Rows)))
	}

	for _, row := range raw.Rows {
		if row == nil {
			continue
		}
		page.Results = append(page.Results, p.parseRow(row))
	}

	for _, rr := range raw.Refiners {
		if rr.Name == "" {
			continue
		}
		ref := models.Refiner{Name: rr.Name, Entries: make([]models.RefinerEntry, 0, len(rr.Entries))}
		for _, e := range rr.Entries {
			ref.Entries = append(ref.Entries, models.RefinerEntry{Value: e.Value, Count: e.Count, Token: e.Token})
		}
		page.Refiners = append(page.Refiners, ref)
	}
	return page
}

func (p *Parser[T]) parseRow(row map[string]any) *models.SearchResult[T] {
	id := rowID(row)
	if id == "" {
		id = fallbackIDPrefix + uuid.New().String()
		p.logger.Warn("search row has no DocId or Path; generated fallback id", zap.String("id", id))
	}
	result := &models.SearchResult[T]{
		ID:   id,
		Raw:  row,
		Rank: parseRank(row[models.RowKeyRank]),
	}
	if err := project(row, &result.Data); err != nil {
		p.logger.Warn("search row projection incomplete", zap.String("id", id), zap.Error(err))
	}
	return result
}

func project(row map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(";"),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(row)
}

// rowID returns the first non-empty identity field.
func rowID(row map[string]any) string {
	for _, key := range []string{models.RowKeyDocID, models.RowKeyPath} {
		if s := scalarString(row[key]); s != "" {
			return s
		}
	}
	return ""
}

func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
}

// parseRank truncates numeric ranks to an integer; anything unparseable yields nil.
func parseRank(v any) *int {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return &x
	case int64:
		n := int(x)
		return &n
	case float64:
		f = x
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.Atoi(s); err == nil {
			return &n
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int(f)
	return &n
}
