package session

import "errors"

var (
	// ErrNoQuery is returned by LoadMore, Refetch and ApplyRefiner before any Search.
	ErrNoQuery = errors.New("session: no prior search")
	// ErrNoPageSize is returned by LoadMore when no page size was established.
	ErrNoPageSize = errors.New("session: no page size established")
	// ErrLoadMoreInProgress is returned when LoadMore is called while another LoadMore is in flight.
	ErrLoadMoreInProgress = errors.New("session: load more already in progress")
	// ErrSearchInProgress is returned by LoadMore while Search, Refetch or ApplyRefiner is pending.
	ErrSearchInProgress = errors.New("session: search in progress")
	// ErrSuperseded is returned when a response arrived after a newer search replaced the session's query lineage.
	ErrSuperseded = errors.New("session: superseded by a newer request")
	// ErrClosed is returned once the controller has been closed.
	ErrClosed = errors.New("session: closed")
)
