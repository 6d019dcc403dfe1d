// Package session manages one consumer's faceted search session: the active query,
// the pagination cursor, applied refinements and the accumulated results.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hyperjump/kensaku/internal/models"
	"github.com/hyperjump/kensaku/internal/parser"
	"github.com/hyperjump/kensaku/internal/query"
	"github.com/hyperjump/kensaku/internal/refinement"
	"go.uber.org/zap"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 50

var errNoBackend = errors.New("session: no backend configured")

// Defaults are the construction-time query options.
type Defaults struct {
	PageSize         int
	SelectProperties []string
	// Refiners is the backend's comma-joined list of facet names.
	Refiners string
}

// Option configures a Controller.
type Option func(*options)

type options struct {
	defaults Defaults
	logger   *zap.Logger
}

// WithDefaults sets the default page size, select list and refiners.
func WithDefaults(d Defaults) Option {
	return func(o *options) { o.defaults = d }
}

// WithLogger sets a logger for debug output and data-quality warnings.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// SearchOption overrides defaults for one Search call and the load-mores that follow it.
type SearchOption func(*searchOptions)

type searchOptions struct {
	pageSize int
}

// WithPageSize overrides the page size for the new query lineage.
func WithPageSize(n int) SearchOption {
	return func(o *searchOptions) { o.pageSize = n }
}

// Controller owns the state of one search session. It is safe for concurrent use.
//
// Search, Refetch and ApplyRefiner replace the result list; each starts a new
// generation and a response from an older generation is discarded with ErrSuperseded.
// LoadMore appends and allows one call in flight at a time.
type Controller[T any] struct {
	mu       sync.Mutex
	backend  Backend
	parser   *parser.Parser[T]
	defaults Defaults
	logger   *zap.Logger

	lastQuery    *query.Query
	lastPageSize int
	committed    lineage
	cursor       int
	results      []*models.SearchResult[T]
	totalResults int
	refiners     []models.Refiner
	refinements  *refinement.Set
	loading      bool
	loadingMore  bool
	err          error

	generation   uint64
	loadMoreSeq  uint64
	closed       bool
	version      uint64
	observers    map[int]func(State[T])
	nextObserver int
}

// lineage is the query, page size and refinements the current results were fetched with.
type lineage struct {
	query       *query.Query
	pageSize    int
	refinements *refinement.Set
}

// New creates a session over backend.
func New[T any](backend Backend, opts ...Option) *Controller[T] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.defaults.PageSize <= 0 {
		o.defaults.PageSize = DefaultPageSize
	}
	return &Controller[T]{
		backend:     backend,
		parser:      parser.New[T](parser.WithLogger(o.logger)),
		defaults:    o.defaults,
		logger:      o.logger,
		refiners:    make([]models.Refiner, 0),
		refinements: refinement.NewSet(),
		committed:   lineage{refinements: refinement.NewSet()},
	}
}

type fetch struct {
	backend    Backend
	desc       *query.Descriptor
	generation uint64
}

// Search starts a new query lineage: it clears the error, the cursor and the
// refinements, then fetches the first page. It returns that page only.
func (c *Controller[T]) Search(ctx context.Context, q query.Query, opts ...SearchOption) ([]*models.SearchResult[T], error) {
	so := searchOptions{}
	for _, opt := range opts {
		opt(&so)
	}
	pageSize := so.pageSize
	if pageSize <= 0 {
		pageSize = c.defaults.PageSize
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.err = nil
	c.refinements.Clear()
	c.lastQuery = &q
	c.lastPageSize = pageSize
	f := c.beginReplaceLocked()
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	c.logger.Debug("session search", zap.String("query", q.String()), zap.Int("page_size", pageSize), zap.Uint64("generation", f.generation))
	return c.runReplace(ctx, f)
}

// Refetch re-executes the last query from the first row with the current refinements.
func (c *Controller[T]) Refetch(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.lastQuery == nil {
		return c.failLocked(ErrNoQuery)
	}
	f := c.prepareRefetchLocked()
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	c.logger.Debug("session refetch", zap.Uint64("generation", f.generation))
	_, err := c.runReplace(ctx, f)
	return err
}

// ApplyRefiner toggles value under facet and refetches with the updated refinements.
func (c *Controller[T]) ApplyRefiner(ctx context.Context, facet, value string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.lastQuery == nil {
		return c.failLocked(ErrNoQuery)
	}
	selected := c.refinements.Toggle(facet, value)
	f := c.prepareRefetchLocked()
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	c.logger.Debug("session refiner toggled",
		zap.String("facet", facet), zap.String("value", value), zap.Bool("selected", selected),
		zap.Strings("filters", f.desc.RefinementFilters))
	_, err := c.runReplace(ctx, f)
	return err
}

// LoadMore fetches the page after the cursor and appends it. It returns only the new page.
// When every result is already loaded it returns an empty page without calling the backend.
// It is rejected with ErrSearchInProgress while Search, Refetch or ApplyRefiner is pending.
func (c *Controller[T]) LoadMore(ctx context.Context) ([]*models.SearchResult[T], error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.lastQuery == nil {
		return nil, c.failLocked(ErrNoQuery)
	}
	if c.lastPageSize <= 0 {
		return nil, c.failLocked(ErrNoPageSize)
	}
	if c.loading {
		c.mu.Unlock()
		return nil, ErrSearchInProgress
	}
	if c.loadingMore {
		c.mu.Unlock()
		return nil, ErrLoadMoreInProgress
	}
	c.err = nil
	if len(c.results) >= c.totalResults {
		notify := c.changedLocked()
		c.mu.Unlock()
		notify()
		return []*models.SearchResult[T]{}, nil
	}

	start := c.cursor + c.lastPageSize
	c.loadMoreSeq++
	seq := c.loadMoreSeq
	generation := c.generation
	c.loadingMore = true
	desc := query.Build(*c.lastQuery, c.queryDefaults(), query.Page{RowLimit: c.lastPageSize, StartRow: start}, c.refinements.FilterExpressions())
	backend := c.backend
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	c.logger.Debug("session load more", zap.Int("start_row", start), zap.Int("page_size", desc.RowLimit))
	page, err := c.execute(ctx, backend, desc)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.loadMoreSeq == seq {
		c.loadingMore = false
	}
	if generation != c.generation {
		notify := c.changedLocked()
		c.mu.Unlock()
		notify()
		c.logger.Debug("session load more superseded", zap.Int("start_row", start))
		return nil, superseded(err)
	}
	if err != nil {
		c.err = err
		notify := c.changedLocked()
		c.mu.Unlock()
		notify()
		return nil, err
	}
	c.results = append(c.results, page.Results...)
	c.cursor = start
	c.totalResults = page.TotalResults
	c.refiners = page.Refiners
	notify = c.changedLocked()
	c.mu.Unlock()
	notify()
	return copyResults(page.Results), nil
}

// Suggest returns completions for text. It does not touch the session state;
// its errors are returned to the caller only.
func (c *Controller[T]) Suggest(ctx context.Context, text string) ([]string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	backend := c.backend
	c.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}
	if backend == nil {
		return nil, errNoBackend
	}
	resp, err := backend.Suggest(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	if resp == nil || resp.Queries == nil {
		return []string{}, nil
	}
	return resp.Queries, nil
}

// ClearError clears the recorded error and nothing else.
func (c *Controller[T]) ClearError() {
	c.mu.Lock()
	if c.err == nil {
		c.mu.Unlock()
		return
	}
	c.err = nil
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
}

// SwitchBackend points the session at another backend scope. The last query is
// not portable across scopes, so the whole session is reset and in-flight responses are discarded.
func (c *Controller[T]) SwitchBackend(b Backend) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.backend = b
	c.lastQuery = nil
	c.lastPageSize = 0
	c.committed = lineage{refinements: refinement.NewSet()}
	c.cursor = 0
	c.results = nil
	c.totalResults = 0
	c.refiners = make([]models.Refiner, 0)
	c.refinements.Clear()
	c.generation++
	c.loadMoreSeq++
	c.loading = false
	c.loadingMore = false
	c.err = nil
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
	c.logger.Debug("session backend switched")
}

// Close ends the session. Responses still in flight are dropped and later calls return ErrClosed.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.generation++
	c.observers = nil
}

func (c *Controller[T]) queryDefaults() query.Defaults {
	return query.Defaults{SelectProperties: c.defaults.SelectProperties, Refiners: c.defaults.Refiners}
}

func (c *Controller[T]) prepareRefetchLocked() fetch {
	c.err = nil
	return c.beginReplaceLocked()
}

// beginReplaceLocked starts a new generation. A load-more still in flight
// belongs to the old lineage, so it gives up the single-flight slot here.
func (c *Controller[T]) beginReplaceLocked() fetch {
	c.generation++
	c.loadMoreSeq++
	c.loadingMore = false
	c.loading = true
	desc := query.Build(*c.lastQuery, c.queryDefaults(), query.Page{RowLimit: c.lastPageSize}, c.refinements.FilterExpressions())
	return fetch{backend: c.backend, desc: desc, generation: c.generation}
}

// failLocked records err, releases the lock and notifies observers.
func (c *Controller[T]) failLocked(err error) error {
	c.err = err
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
	return err
}

func (c *Controller[T]) runReplace(ctx context.Context, f fetch) ([]*models.SearchResult[T], error) {
	page, err := c.execute(ctx, f.backend, f.desc)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if f.generation != c.generation {
		c.mu.Unlock()
		c.logger.Debug("session response superseded", zap.Uint64("generation", f.generation))
		return nil, superseded(err)
	}
	c.loading = false
	if err != nil {
		// the kept results still belong to the committed lineage
		c.lastQuery = c.committed.query
		c.lastPageSize = c.committed.pageSize
		c.refinements = c.committed.refinements.Clone()
		c.err = err
		notify := c.changedLocked()
		c.mu.Unlock()
		notify()
		c.logger.Debug("session fetch failed", zap.Error(err))
		return nil, err
	}
	c.cursor = 0
	c.results = page.Results
	c.totalResults = page.TotalResults
	c.refiners = page.Refiners
	c.committed = lineage{query: c.lastQuery, pageSize: c.lastPageSize, refinements: c.refinements.Clone()}
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
	return copyResults(page.Results), nil
}

func (c *Controller[T]) execute(ctx context.Context, b Backend, d *query.Descriptor) (*models.Page[T], error) {
	if b == nil {
		return nil, errNoBackend
	}
	raw, err := b.Execute(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	return c.parser.Parse(raw), nil
}

// copyResults never returns nil, so an empty page reads the same on every path.
func copyResults[T any](results []*models.SearchResult[T]) []*models.SearchResult[T] {
	out := make([]*models.SearchResult[T], len(results))
	copy(out, results)
	return out
}

func superseded(err error) error {
	if err != nil {
		return errors.Join(ErrSuperseded, err)
	}
	return ErrSuperseded
}
