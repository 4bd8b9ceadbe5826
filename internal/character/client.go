// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package character

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/taibuivan/charboard/internal/platform/apperr"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// # Client

// Options configures a [Client].
type Options struct {
	// BaseURL is the API root, e.g. "https://api.disneyapi.dev".
	BaseURL string

	// Timeout bounds each HTTP round trip. Ignored when HTTPClient is set.
	Timeout time.Duration

	// RPS and Burst configure the outgoing token bucket. A zero RPS disables throttling.
	RPS   float64
	Burst int

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client is the HTTP implementation of [Source].
//
// # Throttling
//
// Every request waits on a shared token bucket so that a burst of keystrokes
// or page flips across sessions cannot hammer the public API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient constructs a [Client] from [Options].
func NewClient(options Options, logger *slog.Logger) (*Client, error) {
	base := strings.TrimRight(options.BaseURL, "/")
	if base == "" {
		return nil, errors.New("character: base URL is required")
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if options.RPS > 0 {
		burst := options.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(options.RPS), burst)
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

/*
List fetches one page of the character list.

Parameters:
  - ctx: context.Context (cancelled when a newer query supersedes this one)
  - params: ListParams

Returns:
  - *Page: Normalized characters plus pagination metadata
  - error: apperr.Upstream, apperr.Unavailable or a context error
*/
func (c *Client) List(ctx context.Context, params ListParams) (*Page, error) {
	body, err := c.get(ctx, "/character?"+params.Encode())
	if err != nil {
		return nil, err
	}

	page, err := decodePage(body)
	if err != nil {
		return nil, apperr.Upstream(http.StatusOK, "Malformed response from character service", err)
	}

	return page, nil
}

/*
Get fetches the full record of a single character.

Returns:
  - *Character: The record
  - error: apperr.NotFound when the source answers with no data, otherwise as [Client.List]
*/
func (c *Client) Get(ctx context.Context, id int) (*Character, error) {
	body, err := c.get(ctx, "/character/"+strconv.Itoa(id))
	if err != nil {
		return nil, err
	}

	page, err := decodePage(body)
	if err != nil {
		return nil, apperr.Upstream(http.StatusOK, "Malformed response from character service", err)
	}

	if len(page.Characters) == 0 {
		return nil, apperr.NotFound("Character")
	}

	return &page.Characters[0], nil
}

// get performs a throttled GET against path and returns the body of a 2xx answer.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("character: throttle: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("character: build request: %w", err))
	}
	request.Header.Set("Accept", "application/json")

	startTime := time.Now()
	response, err := c.httpClient.Do(request)
	if err != nil {
		// Superseded requests are not failures worth surfacing as transport errors.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperr.Unavailable(fmt.Errorf("character: GET %s: %w", path, err))
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.Unavailable(fmt.Errorf("character: read body: %w", err))
	}

	c.logger.Debug("character_api_request",
		slog.String("path", path),
		slog.Int("status", response.StatusCode),
		slog.Int64("latency_ms", time.Since(startTime).Milliseconds()),
	)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, apperr.Upstream(response.StatusCode, upstreamMessage(body),
			fmt.Errorf("character: GET %s: status %d", path, response.StatusCode))
	}

	return body, nil
}

// upstreamMessage extracts the collaborator-supplied error text, if any.
func upstreamMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
