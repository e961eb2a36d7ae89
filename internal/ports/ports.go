package ports

import (
	"context"

	"SignalDigest/internal/domain"
)

// SignalContributor refreshes external state (e.g. the recommendation list) during collect; it never emits items.
type SignalContributor interface {
	Name() string
	Refresh(ctx context.Context) error
}

// ContentContributor fetches items from one upstream source family.
type ContentContributor interface {
	Name() string
	Collect(ctx context.Context) ([]domain.Item, error)
}

// Processor transforms the working batch during the process stage.
type Processor interface {
	Name() string
	Process(ctx context.Context, batch *domain.Batch) error
}

// Generator consumes the final batch read-only and produces a report.
type Generator interface {
	Name() string
	Generate(ctx context.Context, batch domain.Batch) error
}

// ArtifactStore persists JSON-shaped artifacts by name. Reads fail open: found is false for missing or corrupt files.
type ArtifactStore interface {
	ReadJSON(name string, v any) (found bool)
	WriteJSON(name string, v any) error
}

// StateStore keeps per-stage success markers and the dedup fingerprint list.
type StateStore interface {
	Load() domain.State
	Save(state domain.State) error
	StageLastSuccess(stage domain.Stage) string
	SetStageLastSuccess(stage domain.Stage, date string) error
	LastRun() string
	UpdateLastRun(timestamp string) error
}

// ReportRepository appends generated reports to the persisted reports collection.
type ReportRepository interface {
	AppendReport(ctx context.Context, report domain.Report) error
	ListReports(ctx context.Context) ([]domain.Report, error)
}

// ChatClient sends a prompt to an LLM completion API and returns the assistant text.
type ChatClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Notifier streams finished reports to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Ticker drives periodic runs in daemon mode.
type Ticker interface {
	Start(ctx context.Context, job func(context.Context)) error
	Stop(ctx context.Context) error
}
