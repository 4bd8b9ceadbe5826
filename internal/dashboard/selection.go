// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dashboard

import (
	"log/slog"

	"github.com/taibuivan/charboard/internal/character"
	"github.com/taibuivan/charboard/internal/platform/apperr"
	"github.com/taibuivan/charboard/internal/platform/constants"
)

// # Selection / Modal State

// Selection tracks the detail modal. Closing clears both fields.
type Selection struct {
	IsOpen     bool `json:"is_open"`
	SelectedID *int `json:"selected_id"`
}

// DetailState is the lookup state of the selected character.
type DetailState struct {
	Phase     Phase
	Character *character.Character
	Error     string
}

// OpenModal selects id and opens the detail modal.
//
// A cached record is shown immediately. Otherwise the modal shows a skeleton
// while the record is resolved in the background; a failure is shown inline
// and the modal stays open.
func (s *Session) OpenModal(id int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	selected := id
	s.selection = Selection{IsOpen: true, SelectedID: &selected}
	s.modalGeneration++
	generation := s.modalGeneration

	if cached, ok := s.details.Lookup(id); ok {
		s.detail = DetailState{Phase: PhaseSucceeded, Character: &cached}
		s.mu.Unlock()
		s.notify()
		return
	}

	s.detail = DetailState{Phase: PhaseLoading}
	s.workers.Add(1)
	go s.resolveDetail(generation, id)

	s.mu.Unlock()
	s.notify()
}

// CloseModal closes the modal and clears the selection. An outstanding
// detail fetch keeps running and its result is cached for later reuse.
func (s *Session) CloseModal() {
	s.mu.Lock()
	if s.closed || !s.selection.IsOpen {
		s.mu.Unlock()
		return
	}

	s.selection = Selection{}
	s.detail = DetailState{Phase: PhaseIdle}
	s.modalGeneration++
	s.mu.Unlock()
	s.notify()
}

// Details exposes the session's detail cache.
func (s *Session) Details() *DetailCache {
	return s.details
}

// resolveDetail resolves id and applies the outcome if the modal still
// shows the selection identified by generation.
func (s *Session) resolveDetail(generation uint64, id int) {
	defer s.workers.Done()

	resolved, err := s.details.Resolve(s.ctx, id)

	s.mu.Lock()
	if s.closed || generation != s.modalGeneration {
		s.mu.Unlock()
		s.logger.Debug("detail_result_not_displayed", slog.Int("character_id", id), slog.Bool("cached", err == nil))
		return
	}

	if err != nil {
		s.detail = DetailState{Phase: PhaseFailed, Error: apperr.MessageOr(err, constants.DetailFetchFailed)}
		s.mu.Unlock()
		s.logger.Warn("detail_fetch_failed", slog.Int("character_id", id), slog.Any("error", err))
		s.notify()
		return
	}

	s.detail = DetailState{Phase: PhaseSucceeded, Character: &resolved}
	s.mu.Unlock()
	s.notify()
}
