// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package dashboard is the client-side state machine behind both front ends.

A [Session] is one explicit state container with a fixed set of named
transitions. It owns:

  - the list query (page, page size, search, TV-show filter, sort order),
  - the fetch status of the current query generation,
  - the modal selection and its detail lookup,
  - a per-session [DetailCache].

Every front end (terminal UI, JSON API) mutates a session only through its
transition methods and reads it only through [Session.Snapshot], whose table,
chart, pagination and modal views are pure projections of the state.

# Concurrency

Transitions are serialized under one mutex. Network calls run on their own
goroutines and commit back through a generation guard, so a slow response to
an older query can never overwrite a newer one.
*/
package dashboard

import (
	"fmt"

	"github.com/taibuivan/charboard/internal/character"
)

// # Sort Order

// SortOrder orders the visible rows by character name.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// ParseSortOrder converts user input into a [SortOrder].
func ParseSortOrder(raw string) (SortOrder, error) {
	switch SortOrder(raw) {
	case SortAscending, SortDescending:
		return SortOrder(raw), nil
	}
	return "", fmt.Errorf("dashboard: unknown sort order %q", raw)
}

// Toggle returns the opposite order.
func (o SortOrder) Toggle() SortOrder {
	if o == SortDescending {
		return SortAscending
	}
	return SortDescending
}

// # Query State

// Query is the list query state. Its zero value is not valid; use [NewQuery].
type Query struct {
	Page         int       `json:"page"`
	PageSize     int       `json:"page_size"`
	SearchQuery  string    `json:"search_query"`
	FilterTVShow string    `json:"filter_tv_show"`
	SortOrder    SortOrder `json:"sort_order"`
}

// NewQuery returns the initial query for a session.
func NewQuery(pageSize int) Query {
	return Query{
		Page:      1,
		PageSize:  pageSize,
		SortOrder: SortAscending,
	}
}

// WithPage moves to page n. Bounds are checked by the session.
func (q Query) WithPage(n int) Query {
	q.Page = n
	return q
}

// WithPageSize changes the page size and returns to the first page.
func (q Query) WithPageSize(n int) Query {
	q.PageSize = n
	q.Page = 1
	return q
}

// WithSearch changes the name filter and returns to the first page.
func (q Query) WithSearch(s string) Query {
	q.SearchQuery = s
	q.Page = 1
	return q
}

// WithTVShow changes the TV-show filter and returns to the first page.
func (q Query) WithTVShow(s string) Query {
	q.FilterTVShow = s
	q.Page = 1
	return q
}

// WithSort changes the sort order. The page is kept: sorting applies to the
// rows already fetched and does not change which rows the page holds.
func (q Query) WithSort(o SortOrder) Query {
	q.SortOrder = o
	return q
}

// Params is the part of the query sent to the remote source. Two queries
// with equal params need no new fetch.
func (q Query) Params() character.ListParams {
	return character.ListParams{
		Page:     q.Page,
		PageSize: q.PageSize,
		Name:     q.SearchQuery,
		TVShows:  q.FilterTVShow,
	}
}

// # Fetch Status

// Phase is the lifecycle phase of a fetch.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseLoading   Phase = "loading"
	PhaseSucceeded Phase = "succeeded"
	PhaseFailed    Phase = "failed"
)

// FetchStatus is the outcome of the current query generation.
//
// While loading, the previous results are retained to avoid flicker. A
// failure clears them and resets the page count to zero.
type FetchStatus struct {
	Phase      Phase
	Characters []character.Character
	Info       character.PageInfo
	Error      string
	Generation uint64
}
