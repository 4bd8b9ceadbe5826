// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session exposes dashboard sessions over the JSON API.

Each API client creates a session and then drives it through the transition
endpoints, reading the resulting view back as a snapshot. The [Registry]
owns the live sessions; the [Handler] is the HTTP delivery layer.

# Lifecycle

Sessions live until they are deleted or until they have been idle for the
configured TTL, at which point the janitor started by [Registry.Run] closes
and evicts them.
*/
package session

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/charboard/internal/dashboard"
	"github.com/taibuivan/charboard/internal/platform/apperr"
	"github.com/taibuivan/charboard/internal/platform/constants"
	"github.com/taibuivan/charboard/pkg/uuid"
)

// # Registry Definitions

// Factory builds a new dashboard session.
type Factory func() *dashboard.Session

// Info describes a live session for listings.
type Info struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	LastSeen  time.Time       `json:"last_seen"`
	Query     dashboard.Query `json:"query"`
}

type entry struct {
	session   *dashboard.Session
	createdAt time.Time
	lastSeen  time.Time
}

// Registry holds the live sessions of the API process.
type Registry struct {
	factory Factory
	idleTTL time.Duration
	logger  *slog.Logger

	// now is replaceable in tests.
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewRegistry creates an empty registry. A non-positive idleTTL disables eviction.
func NewRegistry(factory Factory, idleTTL time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		factory:  factory,
		idleTTL:  idleTTL,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// # Session Management

// Create starts a new session and returns its ID.
func (registry *Registry) Create() (string, *dashboard.Session) {
	id := uuid.New()
	session := registry.factory()
	now := registry.now()

	registry.mu.Lock()
	registry.sessions[id] = &entry{session: session, createdAt: now, lastSeen: now}
	total := len(registry.sessions)
	registry.mu.Unlock()

	registry.logger.Info("session_created", slog.String("session_id", id), slog.Int("live_sessions", total))
	return id, session
}

// Get returns the session with id and marks it as recently used.
func (registry *Registry) Get(id string) (*dashboard.Session, error) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	found, ok := registry.sessions[id]
	if !ok {
		return nil, apperr.NotFound("Session")
	}

	found.lastSeen = registry.now()
	return found.session, nil
}

// Delete closes and removes the session with id.
func (registry *Registry) Delete(id string) error {
	registry.mu.Lock()
	found, ok := registry.sessions[id]
	delete(registry.sessions, id)
	registry.mu.Unlock()

	if !ok {
		return apperr.NotFound("Session")
	}

	found.session.Close()
	registry.logger.Info("session_deleted", slog.String("session_id", id))
	return nil
}

// List returns every live session ordered by creation.
func (registry *Registry) List() []Info {
	registry.mu.Lock()
	infos := make([]Info, 0, len(registry.sessions))
	sessions := make([]*dashboard.Session, 0, len(registry.sessions))
	for id, found := range registry.sessions {
		infos = append(infos, Info{ID: id, CreatedAt: found.createdAt, LastSeen: found.lastSeen})
		sessions = append(sessions, found.session)
	}
	registry.mu.Unlock()

	// Session locks are taken outside the registry lock
	for i, session := range sessions {
		infos[i].Query = session.Query()
	}

	// UUIDv7 strings sort by creation time
	slices.SortFunc(infos, func(a, b Info) int { return strings.Compare(a.ID, b.ID) })
	return infos
}

// Len reports the number of live sessions.
func (registry *Registry) Len() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	return len(registry.sessions)
}

// # Idle Eviction

// Sweep closes and evicts every session idle for longer than the TTL and
// returns how many were evicted.
func (registry *Registry) Sweep() int {
	if registry.idleTTL <= 0 {
		return 0
	}

	cutoff := registry.now().Add(-registry.idleTTL)

	registry.mu.Lock()
	var expired []*dashboard.Session
	for id, found := range registry.sessions {
		if found.lastSeen.Before(cutoff) {
			expired = append(expired, found.session)
			delete(registry.sessions, id)
			registry.logger.Info("session_expired", slog.String("session_id", id))
		}
	}
	registry.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}

	return len(expired)
}

// Run sweeps idle sessions every [constants.SessionSweepInterval] until ctx
// is cancelled.
func (registry *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(constants.SessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if evicted := registry.Sweep(); evicted > 0 {
				registry.logger.Debug("session_sweep_finished", slog.Int("evicted", evicted))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close closes every live session. The registry stays usable afterwards.
func (registry *Registry) Close() {
	registry.mu.Lock()
	sessions := registry.sessions
	registry.sessions = make(map[string]*entry)
	registry.mu.Unlock()

	for _, found := range sessions {
		found.session.Close()
	}
}
