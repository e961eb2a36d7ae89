package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
	"SignalDigest/internal/processor"
)

// AuxiliaryFile is the side-channel artifact written by discovery.
const AuxiliaryFile = "auxiliary.json"

// NoUpdatesContent is the body of the report appended when the day produced nothing.
const NoUpdatesContent = "No updates today."

// DailyReportDeps groups the collaborators of the daily report generator.
type DailyReportDeps struct {
	Chat      ports.ChatClient
	Reports   ports.ReportRepository
	Artifacts ports.ArtifactStore
	Notifier  ports.Notifier // optional
	Limits    config.LimitsConfig
	Report    config.ReportConfig
	Clock     clock.Clock
	Logger    *slog.Logger
}

// DailyReport turns the final batch into one LLM-written digest per day.
type DailyReport struct {
	chat      ports.ChatClient
	reports   ports.ReportRepository
	artifacts ports.ArtifactStore
	notifier  ports.Notifier
	limits    config.LimitsConfig
	cfg       config.ReportConfig
	clock     clock.Clock
	logger    *slog.Logger
	newID     func() string
}

var _ ports.Generator = (*DailyReport)(nil)

// NewDailyReport wires the generator.
func NewDailyReport(deps DailyReportDeps) *DailyReport {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DailyReport{
		chat:      deps.Chat,
		reports:   deps.Reports,
		artifacts: deps.Artifacts,
		notifier:  deps.Notifier,
		limits:    deps.Limits,
		cfg:       deps.Report,
		clock:     deps.Clock,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Name identifies the generator inside the registry.
func (g *DailyReport) Name() string { return "daily_report" }

// Generate implements ports.Generator. The batch is read, never modified.
func (g *DailyReport) Generate(ctx context.Context, batch domain.Batch) error {
	items := batch.Items
	// Quota mode already bounded the list with its per-source mix.
	if !g.limits.QuotaMode() && g.limits.TopN > 0 && len(items) > g.limits.TopN {
		items = items[:g.limits.TopN]
	}

	if len(items) == 0 {
		g.logger.Warn("no updates for daily report")
		return g.save(ctx, NoUpdatesContent)
	}

	prompt := BuildPrompt(items, signalsFor(items, batch.Signals), batch.Trends, g.auxiliary())
	content, err := g.chat.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("daily report: %w", err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("%w: empty completion", domain.ErrGenerationFailed)
	}

	if err := g.save(ctx, content); err != nil {
		return err
	}
	g.publish(ctx, content)
	return nil
}

func (g *DailyReport) save(ctx context.Context, content string) error {
	report := domain.Report{
		ID:          g.newID(),
		Date:        g.clock.Today(),
		Content:     content,
		GeneratedAt: g.clock.Timestamp(),
	}
	if err := g.reports.AppendReport(ctx, report); err != nil {
		return fmt.Errorf("append report: %w", err)
	}
	g.logger.Info("daily report saved", "date", report.Date, "id", report.ID)
	return nil
}

func (g *DailyReport) publish(ctx context.Context, content string) {
	if g.notifier == nil {
		return
	}
	if err := g.notifier.PublishDigest(ctx, content); err != nil {
		g.logger.Warn("publish report failed", "error", err)
	}
}

func (g *DailyReport) auxiliary() []domain.AuxiliaryItem {
	if g.artifacts == nil || g.cfg.AuxiliaryCount <= 0 {
		return nil
	}
	var aux domain.AuxiliaryLog
	if !g.artifacts.ReadJSON(AuxiliaryFile, &aux) {
		return nil
	}
	if len(aux.Items) > g.cfg.AuxiliaryCount {
		return aux.Items[:g.cfg.AuxiliaryCount]
	}
	return aux.Items
}

// signalsFor pairs each item with its normalized signal, normalizing on the spot when the
// process stage ran in an earlier invocation.
func signalsFor(items []domain.Item, signals []domain.Signal) []domain.Signal {
	byID := make(map[string]domain.Signal, len(signals))
	for _, s := range signals {
		byID[s.ID] = s
	}
	out := make([]domain.Signal, len(items))
	for i, item := range items {
		if s, ok := byID[item.ID]; ok {
			out[i] = s
			continue
		}
		out[i] = processor.NormalizeItem(item)
	}
	return out
}
