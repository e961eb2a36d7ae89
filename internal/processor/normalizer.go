package processor

import (
	"context"
	"log/slog"
	"strings"

	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

// SignalNormalizer maps the working items into the unified signal shape.
type SignalNormalizer struct {
	logger *slog.Logger
}

var _ ports.Processor = (*SignalNormalizer)(nil)

// NewSignalNormalizer builds the normalizer.
func NewSignalNormalizer(log *slog.Logger) *SignalNormalizer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &SignalNormalizer{logger: log}
}

// Name implements ports.Processor.
func (n *SignalNormalizer) Name() string { return "signal_normalizer" }

// Process implements ports.Processor. batch.Items is read only.
func (n *SignalNormalizer) Process(_ context.Context, batch *domain.Batch) error {
	batch.Signals = NormalizeItems(batch.Items)
	n.logger.Info("normalized signals", "items", len(batch.Items), "signals", len(batch.Signals))
	return nil
}

// NormalizeItems converts every item; the result never aliases item slices.
func NormalizeItems(items []domain.Item) []domain.Signal {
	signals := make([]domain.Signal, 0, len(items))
	for _, item := range items {
		signals = append(signals, NormalizeItem(item))
	}
	return signals
}

// NormalizeItem converts one item, inferring type and platform from tags, source and url.
func NormalizeItem(item domain.Item) domain.Signal {
	topics := make([]string, 0, len(item.Tags))
	seen := make(map[string]struct{}, len(item.Tags))
	for _, tag := range item.Tags {
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		topics = append(topics, tag)
	}

	metrics := map[string]any{}
	if item.StarsToday > 0 {
		metrics["stars_today"] = item.StarsToday
	}

	title := item.Title
	if title == "" {
		title = item.URL
	}
	if title == "" {
		title = item.ID
	}

	return domain.Signal{
		ID:          item.ID,
		Type:        inferType(item),
		Source:      inferPlatform(item),
		Title:       title,
		Summary:     item.Summary,
		URL:         item.URL,
		PublishedAt: item.PublishedAt,
		Topics:      topics,
		Score:       item.Score,
		Metrics:     metrics,
	}
}

func inferType(item domain.Item) string {
	source := strings.ToLower(item.Source)
	url := strings.ToLower(item.URL)

	switch {
	case item.HasTag("arxiv"), item.HasTag("paper"), strings.Contains(source, "cs."):
		return domain.SignalPaper
	case item.HasTag("blog"), item.HasTag("research"):
		return domain.SignalBlog
	case item.HasTag("trending"), strings.Contains(source, "github"), strings.Contains(url, "github.com"):
		return domain.SignalCode
	default:
		return domain.SignalOther
	}
}

func inferPlatform(item domain.Item) string {
	source := strings.ToLower(item.Source)
	url := strings.ToLower(item.URL)

	switch {
	case strings.Contains(url, "github.com"), strings.Contains(source, "github"):
		return domain.PlatformGitHub
	case item.HasTag("arxiv"), strings.Contains(url, "arxiv.org"):
		return domain.PlatformArxiv
	case item.HasTag("blog"), item.HasTag("research"):
		return domain.PlatformRSS
	default:
		return domain.PlatformOther
	}
}
