// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dashboard_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/charboard/internal/character"
	"github.com/taibuivan/charboard/internal/dashboard"
	"github.com/taibuivan/charboard/internal/platform/apperr"
)

// memoryTier is an in-memory [dashboard.DetailTier].
type memoryTier struct {
	mu      sync.Mutex
	entries map[int]character.Character
	loadErr error
	stores  int
}

func newMemoryTier() *memoryTier {
	return &memoryTier{entries: make(map[int]character.Character)}
}

func (m *memoryTier) Load(ctx context.Context, id int) (*character.Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	entry, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (m *memoryTier) Store(ctx context.Context, entry character.Character) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
	m.stores++
	return nil
}

/*
TestDetailCache_SingleFlight resolves the same id concurrently and checks
that the source saw exactly one request.
*/
func TestDetailCache_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	source := newFakeSource()
	source.get = func(ctx context.Context, id int) (*character.Character, error) {
		started <- struct{}{}
		<-release
		return &character.Character{ID: id, Name: "Goofy"}, nil
	}

	cache := dashboard.NewDetailCache(source, nil, discardLogger())

	const callers = 2
	var wg sync.WaitGroup
	results := make([]character.Character, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = cache.Resolve(context.Background(), 7)
	}()

	// 1. Hold the first flight open, then join it
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = cache.Resolve(context.Background(), 7)
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	// 2. One request, same answer for both
	assert.Equal(t, 1, source.gets(7))
	assert.Equal(t, "Goofy", results[0].Name)
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, 1, cache.Len())
}

/*
TestDetailCache_HitSkipsSource checks that a cached id costs no request.
*/
func TestDetailCache_HitSkipsSource(t *testing.T) {
	source := newFakeSource()
	cache := dashboard.NewDetailCache(source, nil, discardLogger())

	_, err := cache.Resolve(context.Background(), 3)
	require.NoError(t, err)
	_, err = cache.Resolve(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 1, source.gets(3))

	// Invalidate forces the next lookup back to the source
	cache.Invalidate(3)
	_, ok := cache.Lookup(3)
	assert.False(t, ok)

	_, err = cache.Resolve(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 2, source.gets(3))
}

/*
TestDetailCache_FailureIsNotCached verifies that a failed lookup leaves no
entry behind and that a retry goes back to the source.
*/
func TestDetailCache_FailureIsNotCached(t *testing.T) {
	source := newFakeSource()
	source.get = func(ctx context.Context, id int) (*character.Character, error) {
		return nil, apperr.Upstream(http.StatusServiceUnavailable, "", nil)
	}

	cache := dashboard.NewDetailCache(source, nil, discardLogger())

	_, err := cache.Resolve(context.Background(), 9)
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())

	_, err = cache.Resolve(context.Background(), 9)
	require.Error(t, err)
	assert.Equal(t, 2, source.gets(9))
}

/*
TestDetailCache_Tier covers reads and writes through the shared tier.
*/
func TestDetailCache_Tier(t *testing.T) {
	t.Run("tier_hit", func(t *testing.T) {
		tier := newMemoryTier()
		tier.entries[5] = character.Character{ID: 5, Name: "Pluto"}

		source := newFakeSource()
		cache := dashboard.NewDetailCache(source, tier, discardLogger())

		got, err := cache.Resolve(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, "Pluto", got.Name)
		assert.Equal(t, 0, source.gets(5))

		_, ok := cache.Lookup(5)
		assert.True(t, ok)
	})

	t.Run("tier_miss_stores", func(t *testing.T) {
		tier := newMemoryTier()
		source := newFakeSource()
		cache := dashboard.NewDetailCache(source, tier, discardLogger())

		_, err := cache.Resolve(context.Background(), 6)
		require.NoError(t, err)
		assert.Equal(t, 1, source.gets(6))
		assert.Equal(t, 1, tier.stores)
	})

	t.Run("tier_error_falls_through", func(t *testing.T) {
		tier := newMemoryTier()
		tier.loadErr = errors.New("connection refused")

		source := newFakeSource()
		cache := dashboard.NewDetailCache(source, tier, discardLogger())

		got, err := cache.Resolve(context.Background(), 8)
		require.NoError(t, err)
		assert.Equal(t, 8, got.ID)
		assert.Equal(t, 1, source.gets(8))
	})
}

/*
TestSession_OpenModal walks the modal from skeleton to ready, then reopens
the same character from the cache.
*/
func TestSession_OpenModal(t *testing.T) {
	release := make(chan struct{})

	source := newFakeSource()
	source.get = func(ctx context.Context, id int) (*character.Character, error) {
		<-release
		return &character.Character{ID: id, Name: "Ariel", ImageURL: "https://example.test/ariel.jpg", VideoGames: []string{"Kingdom Hearts"}}, nil
	}

	session := newSession(t, source)
	session.Wait()

	// 1. Uncached: skeleton while loading
	session.OpenModal(42)
	modal := session.Snapshot().Modal
	assert.True(t, modal.Open)
	assert.Equal(t, dashboard.ModalSkeleton, modal.State)
	assert.Equal(t, 42, modal.ID)

	close(release)
	session.Wait()

	// 2. Ready with placeholders for empty lists
	modal = session.Snapshot().Modal
	assert.Equal(t, dashboard.ModalReady, modal.State)
	assert.Equal(t, "Ariel", modal.Name)
	assert.Equal(t, []string{"No TV Shows"}, modal.TVShows)
	assert.Equal(t, []string{"Kingdom Hearts"}, modal.VideoGames)

	// 3. Closing clears the selection
	session.CloseModal()
	selection := session.Selection()
	assert.False(t, selection.IsOpen)
	assert.Nil(t, selection.SelectedID)
	assert.Equal(t, dashboard.ModalClosed, session.Snapshot().Modal.State)

	// 4. Reopening is served synchronously from the cache
	session.OpenModal(42)
	assert.Equal(t, dashboard.ModalReady, session.Snapshot().Modal.State)
	assert.Equal(t, 1, source.gets(42))
}

/*
TestSession_DetailFailure keeps the modal open with an inline error and
checks that nothing was cached.
*/
func TestSession_DetailFailure(t *testing.T) {
	source := newFakeSource()
	source.get = func(ctx context.Context, id int) (*character.Character, error) {
		return nil, errors.New("connection reset")
	}

	session := newSession(t, source)
	session.OpenModal(13)
	session.Wait()

	snap := session.Snapshot()
	assert.True(t, snap.Selection.IsOpen)
	assert.Equal(t, dashboard.ModalError, snap.Modal.State)
	assert.Equal(t, "Failed to fetch character details", snap.Modal.Error)
	assert.Equal(t, 0, session.Details().Len())

	// Retry by reopening goes back to the source
	session.OpenModal(13)
	session.Wait()
	assert.Equal(t, 2, source.gets(13))
}

/*
TestSession_CloseModalMidFetch checks that a result arriving after the modal
closed is cached but not displayed.
*/
func TestSession_CloseModalMidFetch(t *testing.T) {
	release := make(chan struct{})

	source := newFakeSource()
	source.get = func(ctx context.Context, id int) (*character.Character, error) {
		<-release
		return &character.Character{ID: id, Name: "Stitch"}, nil
	}

	session := newSession(t, source)
	session.OpenModal(626)
	session.CloseModal()

	close(release)
	session.Wait()

	assert.Equal(t, dashboard.ModalClosed, session.Snapshot().Modal.State)

	cached, ok := session.Details().Lookup(626)
	require.True(t, ok)
	assert.Equal(t, "Stitch", cached.Name)
}

/*
TestSession_SwitchSelectionMidFetch opens a second character before the
first one resolves and checks that the modal shows the second.
*/
func TestSession_SwitchSelectionMidFetch(t *testing.T) {
	gates := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}

	source := newFakeSource()
	source.get = func(ctx context.Context, id int) (*character.Character, error) {
		<-gates[id]
		return &character.Character{ID: id, Name: map[int]string{1: "Mickey Mouse", 2: "Minnie Mouse"}[id]}, nil
	}

	session := newSession(t, source)
	session.OpenModal(1)
	session.OpenModal(2)

	close(gates[2])
	close(gates[1])
	session.Wait()

	modal := session.Snapshot().Modal
	assert.Equal(t, 2, modal.ID)
	assert.Equal(t, "Minnie Mouse", modal.Name)
	assert.Equal(t, 2, session.Details().Len())
}
