package processor

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

// Bucket is the quota class of an item.
type Bucket int

const (
	BucketOther Bucket = iota
	BucketResearch
	BucketCode
)

func (b Bucket) String() string {
	switch b {
	case BucketResearch:
		return "research"
	case BucketCode:
		return "code"
	default:
		return "other"
	}
}

// Classify places an item into a quota bucket from its tags, url and source.
// Research signals win over code signals when both are present.
func Classify(item domain.Item) Bucket {
	url := strings.ToLower(item.URL)
	source := strings.ToLower(item.Source)

	switch {
	case item.HasTag("arxiv"), item.HasTag("paper"), item.HasTag("research"), item.HasTag("blog"),
		strings.Contains(url, "arxiv.org"), strings.Contains(source, "arxiv"):
		return BucketResearch
	case item.HasTag("trending"), item.HasTag("github"),
		strings.Contains(url, "github.com"), strings.Contains(source, "github"):
		return BucketCode
	default:
		return BucketOther
	}
}

// Filter keeps the items worth reporting: a day window followed by either a plain
// top-N cut or fixed per-bucket quotas.
type Filter struct {
	limits config.LimitsConfig
	clock  clock.Clock
	logger *slog.Logger
}

var _ ports.Processor = (*Filter)(nil)

// NewFilter builds the filtering processor.
func NewFilter(limits config.LimitsConfig, clk clock.Clock, log *slog.Logger) *Filter {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Filter{limits: limits, clock: clk, logger: log}
}

// Name implements ports.Processor.
func (f *Filter) Name() string { return "filtering" }

// Process implements ports.Processor.
func (f *Filter) Process(_ context.Context, batch *domain.Batch) error {
	input := len(batch.Items)
	recent := f.withinWindow(batch.Items)

	if f.limits.QuotaMode() {
		batch.Items = f.selectByQuota(recent)
	} else {
		batch.Items = f.selectTopN(recent)
	}

	f.logger.Info("filtered items",
		"input", input,
		"within_window", len(recent),
		"output", len(batch.Items),
		"quota_mode", f.limits.QuotaMode())
	return nil
}

func (f *Filter) withinWindow(items []domain.Item) []domain.Item {
	loc := f.clock.Location()
	today := dayNumber(f.clock.Now())

	kept := make([]domain.Item, 0, len(items))
	for _, item := range items {
		published, ok := clock.ParsePublished(item.PublishedAt, loc)
		if !ok {
			kept = append(kept, item)
			continue
		}
		if today-dayNumber(published.In(loc)) <= f.limits.DaysWindow {
			kept = append(kept, item)
		}
	}
	return kept
}

func (f *Filter) selectTopN(items []domain.Item) []domain.Item {
	sortByScore(items)
	if f.limits.TopN > 0 && len(items) > f.limits.TopN {
		items = items[:f.limits.TopN]
	}
	return items
}

func (f *Filter) selectByQuota(items []domain.Item) []domain.Item {
	var research, code []domain.Item
	for _, item := range items {
		switch Classify(item) {
		case BucketResearch:
			research = append(research, item)
		case BucketCode:
			code = append(code, item)
		}
	}

	selected := make([]domain.Item, 0, *f.limits.ResearchQuota+*f.limits.CodeQuota)
	selected = append(selected, takeTop(research, *f.limits.ResearchQuota)...)
	selected = append(selected, takeTop(code, *f.limits.CodeQuota)...)
	sortByScore(selected)
	return selected
}

func takeTop(items []domain.Item, n int) []domain.Item {
	sortByScore(items)
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		items = items[:n]
	}
	return items
}

// sortByScore orders by score descending; equal scores keep their input order.
func sortByScore(items []domain.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}

// dayNumber counts calendar days since the epoch for t's wall-clock date.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}
