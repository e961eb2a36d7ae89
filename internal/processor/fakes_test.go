package processor

import (
	"encoding/json"
	"time"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/domain"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func fixedClock(now time.Time) clock.Clock {
	return clock.New(time.UTC, func() time.Time { return now })
}

type memState struct {
	state domain.State
	saves int
}

func newMemState() *memState {
	return &memState{state: domain.NewState()}
}

func (m *memState) Load() domain.State {
	raw, _ := json.Marshal(m.state)
	out := domain.NewState()
	_ = json.Unmarshal(raw, &out)
	return out
}

func (m *memState) Save(state domain.State) error {
	m.saves++
	m.state = state
	return nil
}

func (m *memState) StageLastSuccess(stage domain.Stage) string {
	return m.state.StageLastSuccess(stage)
}

func (m *memState) SetStageLastSuccess(stage domain.Stage, date string) error {
	m.state.SetStageLastSuccess(stage, date)
	return nil
}

func (m *memState) LastRun() string { return m.state.LastRun }

func (m *memState) UpdateLastRun(ts string) error {
	m.state.LastRun = ts
	return nil
}

type memArtifacts map[string][]byte

func (m memArtifacts) ReadJSON(name string, v any) bool {
	raw, ok := m[name]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func (m memArtifacts) WriteJSON(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m[name] = raw
	return nil
}

func ids(items []domain.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
