// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/charboard/internal/character"
	"github.com/taibuivan/charboard/internal/platform/constants"
)

// RedisTier implements [DetailTier] using Redis.
//
// It lets sessions of a long-lived API process share resolved records while
// bounding their lifetime with a TTL.
type RedisTier struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisTier creates a new Redis-backed [DetailTier].
func NewRedisTier(client *redis.Client, ttl time.Duration) *RedisTier {
	return &RedisTier{client: client, ttl: ttl}
}

/*
Load retrieves a character record by id.

Returns:
  - *character.Character: The record, or nil when absent or expired
  - error: Connectivity or decoding errors
*/
func (tier *RedisTier) Load(ctx context.Context, id int) (*character.Character, error) {

	// Get the record from Redis
	raw, err := tier.client.Get(ctx, characterKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis_character_get_failed: %w", err)
	}

	var entry character.Character
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("redis_character_decode_failed: %w", err)
	}

	return &entry, nil
}

/*
Store writes a character record with the tier's TTL.
*/
func (tier *RedisTier) Store(ctx context.Context, entry character.Character) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis_character_encode_failed: %w", err)
	}

	if err := tier.client.Set(ctx, characterKey(entry.ID), raw, tier.ttl).Err(); err != nil {
		return fmt.Errorf("redis_character_set_failed: %w", err)
	}

	return nil
}

// characterKey builds the cache key for id.
func characterKey(id int) string {
	return constants.RedisPrefixCharacter + strconv.Itoa(id)
}
