package session

import "github.com/hyperjump/kensaku/internal/models"

// State is a snapshot of a controller's session.
// Version increases with every change, so observers can drop snapshots that arrive out of order.
type State[T any] struct {
	Version      uint64
	Results      []*models.SearchResult[T]
	TotalResults int
	HasMore      bool
	Refiners     []models.Refiner
	Refinements  map[string][]string
	Loading      bool
	LoadingMore  bool
	Err          error
	// Cursor is the start row of the last fetched page.
	Cursor   int
	PageSize int
	HasQuery bool
}

func (c *Controller[T]) snapshotLocked() State[T] {
	return State[T]{
		Version:      c.version,
		Results:      append([]*models.SearchResult[T](nil), c.results...),
		TotalResults: c.totalResults,
		HasMore:      len(c.results) < c.totalResults,
		Refiners:     append([]models.Refiner(nil), c.refiners...),
		Refinements:  c.refinements.Selected(),
		Loading:      c.loading,
		LoadingMore:  c.loadingMore,
		Err:          c.err,
		Cursor:       c.cursor,
		PageSize:     c.lastPageSize,
		HasQuery:     c.lastQuery != nil,
	}
}

// State returns the current snapshot.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs on the goroutine that made the change, outside the controller's lock.
// The returned function removes the subscription.
func (c *Controller[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextObserver
	c.nextObserver++
	if c.observers == nil {
		c.observers = make(map[int]func(State[T]))
	}
	c.observers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// changedLocked bumps the version and returns the pending notification.
func (c *Controller[T]) changedLocked() func() {
	c.version++
	if len(c.observers) == 0 {
		return func() {}
	}
	snap := c.snapshotLocked()
	fns := make([]func(State[T]), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(snap)
		}
	}
}
