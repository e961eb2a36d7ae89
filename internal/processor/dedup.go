package processor

import (
	"context"
	"fmt"
	"log/slog"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

// Deduplicator drops items whose fingerprint was already seen today.
// The fingerprint list is cleared whenever the stored last run is not from today.
type Deduplicator struct {
	states ports.StateStore
	clock  clock.Clock
	limit  int
	logger *slog.Logger
}

var _ ports.Processor = (*Deduplicator)(nil)

// NewDeduplicator builds the dedup processor. limit <= 0 uses domain.MaxFingerprints.
func NewDeduplicator(states ports.StateStore, clk clock.Clock, limit int, log *slog.Logger) *Deduplicator {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if limit <= 0 {
		limit = domain.MaxFingerprints
	}
	return &Deduplicator{states: states, clock: clk, limit: limit, logger: log}
}

// Name implements ports.Processor.
func (d *Deduplicator) Name() string { return "deduplicate" }

// Process implements ports.Processor.
func (d *Deduplicator) Process(_ context.Context, batch *domain.Batch) error {
	state := d.states.Load()
	if clock.DatePrefix(state.LastRun) != d.clock.Today() {
		if len(state.Fingerprints) > 0 {
			d.logger.Debug("new day, clearing fingerprints", "dropped", len(state.Fingerprints), "last_run", state.LastRun)
		}
		state.Fingerprints = nil
	}

	seen := make(map[string]struct{}, len(state.Fingerprints)+len(batch.Items))
	for _, id := range state.Fingerprints {
		seen[id] = struct{}{}
	}

	unique := make([]domain.Item, 0, len(batch.Items))
	var fresh []string
	for _, item := range batch.Items {
		if item.ID == "" {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		fresh = append(fresh, item.ID)
		unique = append(unique, item)
	}

	d.logger.Debug("dedup done", "input", len(batch.Items), "unique", len(unique))
	batch.Items = unique

	if len(fresh) == 0 {
		return nil
	}

	state.AppendFingerprints(fresh, d.limit)
	state.LastRun = d.clock.Timestamp()
	if err := d.states.Save(state); err != nil {
		return fmt.Errorf("persist fingerprints: %w", err)
	}
	return nil
}
