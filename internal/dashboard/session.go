// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/taibuivan/charboard/internal/character"
	"github.com/taibuivan/charboard/internal/platform/apperr"
	"github.com/taibuivan/charboard/internal/platform/constants"
	"github.com/taibuivan/charboard/pkg/debounce"
)

// # Session Definitions

// Options configures a [Session].
type Options struct {
	// Source is the remote character catalogue.
	Source character.Source

	// Tier is an optional shared detail cache (see [RedisTier]).
	Tier DetailTier

	// PageSize is the initial page size. Defaults to [constants.DefaultPageSize].
	PageSize int

	// Debounce is the quiet period applied to raw search and filter input.
	Debounce time.Duration

	Logger *slog.Logger
}

// Session is the state container of one dashboard user.
//
// It is created once per user session and persists until [Session.Close].
// The first list fetch is dispatched by [New].
type Session struct {
	source  character.Source
	details *DetailCache
	logger  *slog.Logger

	// ctx bounds every goroutine the session starts.
	ctx     context.Context
	cancel  context.CancelFunc
	workers sync.WaitGroup

	search *debounce.Debouncer[string]
	filter *debounce.Debouncer[string]

	changes chan struct{}

	mu     sync.Mutex
	closed bool

	query       Query
	status      FetchStatus
	generation  uint64
	cancelFetch context.CancelFunc

	// pageBound is the highest page SetPage accepts; 0 while unknown.
	pageBound int

	selection       Selection
	detail          DetailState
	modalGeneration uint64
}

// # Session Initialization

// New creates a session and dispatches its initial list fetch.
func New(options Options) *Session {
	pageSize := options.PageSize
	if pageSize < 1 {
		pageSize = constants.DefaultPageSize
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	session := &Session{
		source:  options.Source,
		details: NewDetailCache(options.Source, options.Tier, logger),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		changes: make(chan struct{}, 1),
		query:   NewQuery(pageSize),
		status:  FetchStatus{Phase: PhaseIdle},
		detail:  DetailState{Phase: PhaseIdle},
	}

	session.search = debounce.New(options.Debounce, "", session.SetSearchQuery)
	session.filter = debounce.New(options.Debounce, "", session.SetFilterTVShow)

	session.mu.Lock()
	session.dispatchLocked()
	session.mu.Unlock()

	return session
}

// # Raw Input

// SearchInput records a raw keystroke value for the name search. The query
// only changes once the input settles.
func (s *Session) SearchInput(raw string) {
	s.search.Set(raw)
	s.notify()
}

// FilterInput records a raw keystroke value for the TV-show filter.
func (s *Session) FilterInput(raw string) {
	s.filter.Set(raw)
	s.notify()
}

// FlushInput settles both raw inputs immediately (e.g. on Enter).
func (s *Session) FlushInput() {
	s.search.Flush()
	s.filter.Flush()
}

// # Query Transitions

// SetPage moves to page n.
//
// Pages below 1 are rejected. Once a fetch has reported the page count, pages
// beyond it are rejected too. A rejected call leaves the state untouched.
func (s *Session) SetPage(n int) error {
	s.mu.Lock()

	if n < 1 {
		s.mu.Unlock()
		return pageError("Page must be at least 1")
	}
	if s.pageBound > 0 && n > s.pageBound {
		s.mu.Unlock()
		return pageError(fmt.Sprintf("Page must be between 1 and %d", s.pageBound))
	}

	changed := s.transitionLocked(s.query.WithPage(n), false)
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return nil
}

// SetPageSize changes the page size and returns to page 1.
func (s *Session) SetPageSize(n int) error {
	if n < 1 {
		return apperr.ValidationError("Validation failed", apperr.FieldError{Field: "page_size", Message: "Must be positive"})
	}
	s.apply(func(q Query) Query { return q.WithPageSize(n) }, true)
	return nil
}

// SetSearchQuery changes the settled name filter and returns to page 1.
//
// Front ends should feed raw keystrokes through [Session.SearchInput] instead.
func (s *Session) SetSearchQuery(query string) {
	s.apply(func(q Query) Query { return q.WithSearch(query) }, true)
}

// SetFilterTVShow changes the settled TV-show filter and returns to page 1.
func (s *Session) SetFilterTVShow(show string) {
	s.apply(func(q Query) Query { return q.WithTVShow(show) }, true)
}

// SetSortOrder changes the row order. The page is kept and nothing is fetched.
func (s *Session) SetSortOrder(order SortOrder) {
	s.apply(func(q Query) Query { return q.WithSort(order) }, false)
}

// Refresh re-dispatches the current query, e.g. to retry after a failure.
func (s *Session) Refresh() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.dispatchLocked()
	s.mu.Unlock()
	s.notify()
}

// apply runs a query transition under the lock and notifies observers.
func (s *Session) apply(transition func(Query) Query, resultSetChanges bool) {
	s.mu.Lock()
	changed := s.transitionLocked(transition(s.query), resultSetChanges)
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// transitionLocked installs next and dispatches a fetch when the fetch key changed.
func (s *Session) transitionLocked(next Query, resultSetChanges bool) bool {
	if s.closed || next == s.query {
		return false
	}

	previous := s.query
	s.query = next

	if resultSetChanges && next.Params() != previous.Params() {
		s.pageBound = 0
	}

	if next.Params() != previous.Params() {
		s.dispatchLocked()
	}

	return true
}

// # Fetch Controller

// dispatchLocked starts a fetch for the current query, superseding any other.
func (s *Session) dispatchLocked() {
	if s.cancelFetch != nil {
		s.cancelFetch()
	}

	s.generation++
	generation := s.generation
	params := s.query.Params()

	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelFetch = cancel

	s.status.Phase = PhaseLoading
	s.status.Error = ""
	s.status.Generation = generation

	s.logger.Debug("list_fetch_dispatched",
		slog.Uint64("generation", generation),
		slog.String("query", params.Encode()),
	)

	s.workers.Add(1)
	go s.fetch(ctx, cancel, generation, params)
}

// fetch runs one list request and commits it if it is still current.
func (s *Session) fetch(ctx context.Context, cancel context.CancelFunc, generation uint64, params character.ListParams) {
	defer s.workers.Done()
	defer cancel()

	page, err := s.source.List(ctx, params)

	s.mu.Lock()
	if s.closed || generation != s.generation {
		s.mu.Unlock()
		s.logger.Debug("stale_response_discarded",
			slog.Uint64("generation", generation),
			slog.String("query", params.Encode()),
		)
		return
	}

	s.cancelFetch = nil

	if err != nil {
		s.status = FetchStatus{
			Phase:      PhaseFailed,
			Characters: []character.Character{},
			Error:      apperr.MessageOr(err, constants.ListFetchFailed),
			Generation: generation,
		}
		s.pageBound = 0
		s.mu.Unlock()

		s.logger.Warn("list_fetch_failed", slog.String("query", params.Encode()), slog.Any("error", err))
		s.notify()
		return
	}

	if page == nil {
		page = &character.Page{Characters: []character.Character{}}
	}

	s.status = FetchStatus{
		Phase:      PhaseSucceeded,
		Characters: page.Characters,
		Info:       page.Info,
		Generation: generation,
	}
	s.pageBound = max(page.Info.TotalPages, 1)
	s.mu.Unlock()

	s.logger.Debug("list_fetch_committed",
		slog.Uint64("generation", generation),
		slog.Int("count", len(page.Characters)),
		slog.Int("total_pages", page.Info.TotalPages),
	)
	s.notify()
}

// # Observation

// Changes delivers a signal after any state change. Signals coalesce: one
// pending signal stands for any number of changes.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// notify signals observers without blocking.
func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Query returns the current list query.
func (s *Session) Query() Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Status returns the current fetch status. The character slice is a copy.
func (s *Session) Status() FetchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.status
	status.Characters = slices.Clone(status.Characters)
	return status
}

// Selection returns the current modal selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// # Teardown

// Wait blocks until all in-flight fetches have finished. It must not be
// called concurrently with transitions (including settling debouncers).
func (s *Session) Wait() {
	s.workers.Wait()
}

// Close cancels in-flight work, stops the debouncers and waits for the
// session's goroutines. No state change is applied after Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	s.mu.Unlock()

	s.search.Stop()
	s.filter.Stop()
	s.workers.Wait()
}

// pageError builds the validation error returned by SetPage.
func pageError(message string) error {
	return apperr.ValidationError("Validation failed", apperr.FieldError{Field: "page", Message: message})
}
