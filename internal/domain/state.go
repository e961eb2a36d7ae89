package domain

import (
	"encoding/json"
	"fmt"
)

// MaxFingerprints caps the persisted dedup fingerprint list.
const MaxFingerprints = 50000

const (
	stateKeyFingerprints = "processed_items_hash"
	stateKeyLastRun      = "last_run"
)

// StageState is the persisted record of one stage.
type StageState struct {
	LastSuccess string `json:"last_success"`
}

// State is the durable scheduler/dedup record. On disk the stage records sit at the top level next to
// the fingerprint list and the last-run timestamp; unknown keys are carried through untouched.
type State struct {
	Stages       map[Stage]StageState
	Fingerprints []string
	LastRun      string

	extra map[string]json.RawMessage
}

// NewState returns an empty state.
func NewState() State {
	return State{Stages: map[Stage]StageState{}}
}

// StageLastSuccess returns the success date of stage or "".
func (s State) StageLastSuccess(stage Stage) string {
	return s.Stages[stage].LastSuccess
}

// SetStageLastSuccess records date for stage only.
func (s *State) SetStageLastSuccess(stage Stage, date string) {
	if s.Stages == nil {
		s.Stages = map[Stage]StageState{}
	}
	rec := s.Stages[stage]
	rec.LastSuccess = date
	s.Stages[stage] = rec
}

// AppendFingerprints appends ids and keeps only the newest limit entries.
func (s *State) AppendFingerprints(ids []string, limit int) {
	s.Fingerprints = append(s.Fingerprints, ids...)
	if limit > 0 && len(s.Fingerprints) > limit {
		trimmed := make([]string, limit)
		copy(trimmed, s.Fingerprints[len(s.Fingerprints)-limit:])
		s.Fingerprints = trimmed
	}
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.extra)+len(s.Stages)+2)
	for k, v := range s.extra {
		out[k] = v
	}
	for stage, rec := range s.Stages {
		out[string(stage)] = rec
	}
	fingerprints := s.Fingerprints
	if fingerprints == nil {
		fingerprints = []string{}
	}
	out[stateKeyFingerprints] = fingerprints
	if s.LastRun != "" {
		out[stateKeyLastRun] = s.LastRun
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	*s = NewState()
	for key, value := range raw {
		switch key {
		case stateKeyFingerprints:
			var ids []string
			if err := json.Unmarshal(value, &ids); err == nil {
				s.Fingerprints = ids
			}
		case stateKeyLastRun:
			var ts string
			if err := json.Unmarshal(value, &ts); err == nil {
				s.LastRun = ts
			}
		default:
			if _, err := ParseStage(key); err == nil {
				var rec StageState
				if err := json.Unmarshal(value, &rec); err == nil {
					s.Stages[Stage(key)] = rec
					continue
				}
			}
			if s.extra == nil {
				s.extra = map[string]json.RawMessage{}
			}
			s.extra[key] = value
		}
	}
	return nil
}
