// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dashboard

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/taibuivan/charboard/internal/character"
)

// DetailTier is an optional shared cache consulted behind the per-session map.
//
// Load returns (nil, nil) on a miss. Tier failures never fail a lookup: they
// are logged and treated as misses.
type DetailTier interface {
	Load(ctx context.Context, id int) (*character.Character, error)
	Store(ctx context.Context, c character.Character) error
}

// DetailCache holds fully resolved character records for one session.
//
// # Guarantees
//
//   - Hits are served synchronously by [DetailCache.Lookup] with no I/O.
//   - Concurrent [DetailCache.Resolve] calls for the same id share a single
//     underlying fetch.
//   - Failures are never cached; the next Resolve hits the network again.
//
// Entries are never evicted; use [DetailCache.Invalidate] to drop one.
type DetailCache struct {
	source character.Source
	tier   DetailTier
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[int]character.Character

	group singleflight.Group
}

// NewDetailCache constructs a [DetailCache]. tier may be nil.
func NewDetailCache(source character.Source, tier DetailTier, logger *slog.Logger) *DetailCache {
	return &DetailCache{
		source:  source,
		tier:    tier,
		logger:  logger,
		entries: make(map[int]character.Character),
	}
}

// Lookup returns the cached record for id without any I/O.
func (c *DetailCache) Lookup(id int) (character.Character, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	return entry, ok
}

// Len returns the number of cached records.
func (c *DetailCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Invalidate drops the cached record for id, if any.
func (c *DetailCache) Invalidate(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

/*
Resolve returns the record for id, fetching it at most once concurrently.

Lookup order: session map, shared tier, remote source. A successful remote
fetch is written to the session map and, best effort, to the tier.

Returns:
  - character.Character: The resolved record
  - error: The source error, untouched, when the fetch fails
*/
func (c *DetailCache) Resolve(ctx context.Context, id int) (character.Character, error) {
	if entry, ok := c.Lookup(id); ok {
		return entry, nil
	}

	value, err, shared := c.group.Do(strconv.Itoa(id), func() (any, error) {
		// Populated by a flight that finished between Lookup and Do
		if entry, ok := c.Lookup(id); ok {
			return entry, nil
		}

		if entry, ok := c.loadFromTier(ctx, id); ok {
			c.put(entry)
			return entry, nil
		}

		fetched, err := c.source.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		c.put(*fetched)
		c.storeInTier(ctx, *fetched)

		return *fetched, nil
	})

	if err != nil {
		return character.Character{}, err
	}

	if shared {
		c.logger.Debug("detail_fetch_coalesced", slog.Int("character_id", id))
	}

	return value.(character.Character), nil
}

// put records a resolved entry.
func (c *DetailCache) put(entry character.Character) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.ID] = entry
}

// loadFromTier consults the shared tier, treating failures as misses.
func (c *DetailCache) loadFromTier(ctx context.Context, id int) (character.Character, bool) {
	if c.tier == nil {
		return character.Character{}, false
	}

	entry, err := c.tier.Load(ctx, id)
	if err != nil {
		c.logger.Warn("detail_tier_load_failed", slog.Int("character_id", id), slog.Any("error", err))
		return character.Character{}, false
	}
	if entry == nil {
		return character.Character{}, false
	}

	return *entry, true
}

// storeInTier writes entry to the shared tier, best effort.
func (c *DetailCache) storeInTier(ctx context.Context, entry character.Character) {
	if c.tier == nil {
		return
	}
	if err := c.tier.Store(ctx, entry); err != nil {
		c.logger.Warn("detail_tier_store_failed", slog.Int("character_id", entry.ID), slog.Any("error", err))
	}
}
