// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/taibuivan/charboard/internal/character"
	"github.com/taibuivan/charboard/internal/dashboard"
	"github.com/taibuivan/charboard/internal/platform/apperr"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubSource answers every list with the same page.
type stubSource struct {
	mu    sync.Mutex
	page  character.Page
	err   error
	lists int
}

func (s *stubSource) List(ctx context.Context, params character.ListParams) (*character.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.err != nil {
		return nil, s.err
	}
	page := s.page
	return &page, nil
}

func (s *stubSource) Get(ctx context.Context, id int) (*character.Character, error) {
	return &character.Character{ID: id, Name: "Donald Duck"}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(source character.Source, ttl time.Duration) *Registry {
	factory := func() *dashboard.Session {
		return dashboard.New(dashboard.Options{Source: source, Logger: testLogger()})
	}
	return NewRegistry(factory, ttl, testLogger())
}

/*
TestRegistry_Lifecycle covers create, get, list and delete.
*/
func TestRegistry_Lifecycle(t *testing.T) {
	registry := newTestRegistry(&stubSource{}, time.Minute)
	defer registry.Close()

	// 1. Create two sessions
	first, _ := registry.Create()
	second, _ := registry.Create()
	assert.Equal(t, 2, registry.Len())

	// 2. Listing is ordered by creation
	infos := registry.List()
	require.Len(t, infos, 2)
	assert.Equal(t, first, infos[0].ID)
	assert.Equal(t, second, infos[1].ID)
	assert.Equal(t, 1, infos[0].Query.Page)

	// 3. Get and delete
	_, err := registry.Get(first)
	require.NoError(t, err)
	require.NoError(t, registry.Delete(first))

	_, err = registry.Get(first)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
	assert.Error(t, registry.Delete(first))
}

/*
TestRegistry_Sweep evicts only sessions idle past the TTL.
*/
func TestRegistry_Sweep(t *testing.T) {
	registry := newTestRegistry(&stubSource{}, 10*time.Minute)
	defer registry.Close()

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return clock }

	idle, idleSession := registry.Create()
	active, _ := registry.Create()

	// 1. Only the active session is touched
	clock = clock.Add(8 * time.Minute)
	_, err := registry.Get(active)
	require.NoError(t, err)

	// 2. Idle session passes the TTL
	clock = clock.Add(5 * time.Minute)
	assert.Equal(t, 1, registry.Sweep())

	_, err = registry.Get(idle)
	assert.Error(t, err)
	_, err = registry.Get(active)
	assert.NoError(t, err)

	// 3. Evicted sessions are closed
	select {
	case <-idleSession.Done():
	default:
		t.Fatal("evicted session was not closed")
	}
}

func TestRegistry_SweepDisabled(t *testing.T) {
	registry := newTestRegistry(&stubSource{}, 0)
	defer registry.Close()

	registry.now = func() time.Time { return time.Now().Add(-24 * time.Hour) }
	registry.Create()
	registry.now = time.Now

	assert.Equal(t, 0, registry.Sweep())
	assert.Equal(t, 1, registry.Len())
}

func TestRegistry_RunStopsWithContext(t *testing.T) {
	registry := newTestRegistry(&stubSource{}, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		registry.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
