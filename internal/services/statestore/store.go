// Package statestore keeps the per-camera state that survives between
// pipeline runs, backed by a human-inspectable JSON file. Persistence is
// best-effort: a broken disk must never abort a detection run.
package statestore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trafficpulse-go/internal/models"
)

// historyLimit caps each camera's state history; the oldest entry is
// evicted first.
const historyLimit = 20

// Store is safe for concurrent readers and writers within one run. The
// backing file assumes a single-writer discipline: two pipeline runs must
// not share a state file concurrently.
type Store struct {
	mu     sync.RWMutex
	path   string
	states map[string]models.CameraState
	log    zerolog.Logger
}

// New creates a store bound to path and loads any existing state. A missing
// or corrupt file yields an empty store with a warning, not an error.
func New(path string, log zerolog.Logger) *Store {
	s := &Store{
		path:   path,
		states: make(map[string]models.CameraState),
		log:    log,
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", s.path).Msg("State file unreadable, starting empty")
		}
		return
	}
	var states map[string]models.CameraState
	if err := json.Unmarshal(data, &states); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("State file corrupt, starting empty")
		return
	}
	s.states = states
	s.log.Info().Int("cameras", len(states)).Str("path", s.path).Msg("Camera state loaded")
}

// Get returns the state record for a camera, or a zero-valued default for
// cameras the store has never seen. It never returns absence.
func (s *Store) Get(cameraRef string) models.CameraState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[cameraRef].Clone()
}

// UpdateDetection overwrites the camera's accident flag and appends one
// history entry. Congestion fields are left untouched; the two run kinds
// share the record, not the flags.
func (s *Store) UpdateDetection(cameraRef string, detected bool, observedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[cameraRef]
	state.Detected = detected
	s.states[cameraRef] = appendEntry(state, detected, observedAt)
}

// UpdateCongestion overwrites the camera's congestion flag and breach timer
// and appends one history entry. The accident flag is left untouched.
func (s *Store) UpdateCongestion(cameraRef string, congested bool, firstBreach *time.Time, observedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[cameraRef]
	state.Congested = congested
	state.FirstBreach = firstBreach
	s.states[cameraRef] = appendEntry(state, congested, observedAt)
}

// appendEntry stamps the update time and appends one history entry,
// evicting the oldest past the cap.
func appendEntry(state models.CameraState, flag bool, observedAt time.Time) models.CameraState {
	state.LastUpdate = observedAt
	state.History = append(state.History, models.StateEntry{Timestamp: observedAt, Detected: flag})
	if len(state.History) > historyLimit {
		state.History = state.History[len(state.History)-historyLimit:]
	}
	return state
}

// MarkAlerted records the moment an acted-upon detection fired for a
// camera; the cooldown filter measures from here.
func (s *Store) MarkAlerted(cameraRef string, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[cameraRef]
	state.LastAlert = &ts
	s.states[cameraRef] = state
}

// Snapshot returns a copy of all camera states.
func (s *Store) Snapshot() map[string]models.CameraState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]models.CameraState, len(s.states))
	for ref, state := range s.states {
		out[ref] = state.Clone()
	}
	return out
}

// Save flushes the state map to the backing file via a temp-file rename,
// creating parent directories as needed. Failures are logged and swallowed.
func (s *Store) Save() {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.states, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode camera state")
		return
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.log.Error().Err(err).Str("dir", dir).Msg("Failed to create state directory")
			return
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.log.Error().Err(err).Str("path", tmp).Msg("Failed to write camera state")
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("Failed to replace camera state file")
	}
}
