package storage

import (
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

// StateFile is the artifact holding stage markers and dedup fingerprints.
const StateFile = "state.json"

// StateStore keeps the scheduler state in a single JSON artifact. Every mutation is read-full,
// change-one-key, write-full; access is assumed to be sequential within one process.
type StateStore struct {
	store ports.ArtifactStore
}

var _ ports.StateStore = (*StateStore)(nil)

// NewStateStore wraps an artifact store.
func NewStateStore(store ports.ArtifactStore) *StateStore {
	return &StateStore{store: store}
}

// Load returns the full state, or an empty one when the file is missing or corrupt.
func (s *StateStore) Load() domain.State {
	state := domain.NewState()
	if !s.store.ReadJSON(StateFile, &state) {
		return domain.NewState()
	}
	return state
}

// Save writes the full state.
func (s *StateStore) Save(state domain.State) error {
	return s.store.WriteJSON(StateFile, state)
}

// StageLastSuccess returns the last success date of stage, or "".
func (s *StateStore) StageLastSuccess(stage domain.Stage) string {
	return s.Load().StageLastSuccess(stage)
}

// SetStageLastSuccess updates one stage marker without touching other stages or fingerprints.
func (s *StateStore) SetStageLastSuccess(stage domain.Stage, date string) error {
	state := s.Load()
	state.SetStageLastSuccess(stage, date)
	return s.Save(state)
}

// LastRun returns the stored last-run timestamp.
func (s *StateStore) LastRun() string {
	return s.Load().LastRun
}

// UpdateLastRun stores timestamp as the last-run value.
func (s *StateStore) UpdateLastRun(timestamp string) error {
	state := s.Load()
	state.LastRun = timestamp
	return s.Save(state)
}
