// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination pages in-memory listings for the JSON API.
//
// Listings such as the live sessions are small and held in memory, so a
// request's page is cut from the full slice by [Page] and described to the
// client by [Meta].
package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 20
	// MaxLimit is the upper bound for items per page.
	MaxLimit = 100
)

// Params is the requested page (1-indexed) and page length.
type Params struct {
	Page  int
	Limit int
}

// Meta is the pagination metadata included in API list responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// FromRequest reads the "page" and "limit" query parameters. Missing or
// unusable values fall back to page 1 and [DefaultLimit].
func FromRequest(r *http.Request) Params {
	query := r.URL.Query()

	params := Params{Page: 1, Limit: DefaultLimit}
	if n, err := strconv.Atoi(query.Get("page")); err == nil && n >= 1 {
		params.Page = n
	}
	if n, err := strconv.Atoi(query.Get("limit")); err == nil && n >= 1 && n <= MaxLimit {
		params.Limit = n
	}

	return params
}

// Page returns the items on the requested page together with its metadata.
// A page past the end is empty, never nil.
func Page[T any](items []T, params Params) ([]T, Meta) {
	total := len(items)
	meta := Meta{Page: params.Page, Limit: params.Limit, Total: total}
	if params.Limit < 1 || params.Page < 1 {
		return []T{}, meta
	}

	meta.TotalPages = (total + params.Limit - 1) / params.Limit

	start := min((params.Page-1)*params.Limit, total)
	end := min(start+params.Limit, total)
	if start == end {
		return []T{}, meta
	}

	return items[start:end:end], meta
}
