// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package character models the remote character catalogue and talks to it.

The remote API is an external collaborator: this package only consumes its
contract. It owns the wire types, the normalization rules for its loosely
typed responses, the list query encoding, and the HTTP [Client].
*/
package character

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// # Domain Types

// Character is a single catalogue entry. It is immutable once fetched.
//
// All list attributes are optional on the wire; a missing list decodes to nil
// and is treated exactly like an empty one by every consumer.
type Character struct {
	ID              int      `json:"_id"`
	Name            string   `json:"name"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	Films           []string `json:"films"`
	ShortFilms      []string `json:"shortFilms"`
	TVShows         []string `json:"tvShows"`
	VideoGames      []string `json:"videoGames"`
	ParkAttractions []string `json:"parkAttractions"`
	Allies          []string `json:"allies"`
	Enemies         []string `json:"enemies"`
	SourceURL       string   `json:"sourceUrl,omitempty"`
	URL             string   `json:"url,omitempty"`
}

// PageInfo is the pagination metadata returned by the list endpoint.
type PageInfo struct {
	TotalPages   int     `json:"totalPages"`
	Count        int     `json:"count"`
	PreviousPage *string `json:"previousPage"`
	NextPage     *string `json:"nextPage"`
}

// Page is one normalized page of the list endpoint.
type Page struct {
	Characters []Character
	Info       PageInfo
}

// # Query Encoding

// ListParams is the subset of dashboard state sent to the list endpoint.
// Sorting is deliberately absent: the remote source does not support it.
type ListParams struct {
	Page     int
	PageSize int
	Name     string
	TVShows  string
}

// Encode renders the query string in the fixed order page, pageSize, name,
// tvShows. Empty filters are omitted.
func (p ListParams) Encode() string {
	var b strings.Builder
	b.WriteString("page=")
	b.WriteString(strconv.Itoa(p.Page))
	b.WriteString("&pageSize=")
	b.WriteString(strconv.Itoa(p.PageSize))

	if p.Name != "" {
		b.WriteString("&name=")
		b.WriteString(escapeComponent(p.Name))
	}

	if p.TVShows != "" {
		b.WriteString("&tvShows=")
		b.WriteString(escapeComponent(p.TVShows))
	}

	return b.String()
}

// escapeComponent percent-encodes s for use as a query value, encoding
// spaces as %20 rather than '+'.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// # Wire Normalization

// envelope is the raw response shape shared by both endpoints.
type envelope struct {
	Data json.RawMessage `json:"data"`
	Info PageInfo        `json:"info"`
}

// Normalize converts the loosely typed `data` field into a slice.
//
// The remote source returns a list for multi-result pages, a bare object when
// exactly one record matches, and may omit the field or send null when
// nothing matches. The result is never nil.
func Normalize(raw json.RawMessage) ([]Character, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Character{}, nil
	}

	switch trimmed[0] {
	case '[':
		var list []Character
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("character: decode data list: %w", err)
		}
		if list == nil {
			list = []Character{}
		}
		return list, nil

	case '{':
		var single Character
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, fmt.Errorf("character: decode data object: %w", err)
		}
		return []Character{single}, nil

	default:
		return nil, fmt.Errorf("character: unexpected data type starting with %q", trimmed[0])
	}
}

// decodePage parses a list response body.
func decodePage(body []byte) (*Page, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("character: decode envelope: %w", err)
	}

	characters, err := Normalize(env.Data)
	if err != nil {
		return nil, err
	}

	return &Page{Characters: characters, Info: env.Info}, nil
}
