package parser

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

// ResearchFeeds collects research lab and engineering blogs from RSS/Atom feeds.
type ResearchFeeds struct {
	fetcher *Fetcher
	cfg     config.ResearchFeedsConfig
	clock   clock.Clock
	logger  *slog.Logger
}

var _ ports.ContentContributor = (*ResearchFeeds)(nil)

// NewResearchFeeds wires the blog feed collector.
func NewResearchFeeds(fetcher *Fetcher, cfg config.ResearchFeedsConfig, clk clock.Clock, log *slog.Logger) *ResearchFeeds {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &ResearchFeeds{fetcher: fetcher, cfg: cfg, clock: clk, logger: log}
}

// Name identifies the collector inside the registry.
func (r *ResearchFeeds) Name() string { return "research_feeds" }

type datedItem struct {
	item      domain.Item
	published time.Time
	dated     bool
}

// Collect implements ports.ContentContributor. Duplicate links across feeds are merged;
// the result is ordered newest first and capped at MaxTotalEntries.
func (r *ResearchFeeds) Collect(ctx context.Context) ([]domain.Item, error) {
	if len(r.cfg.Feeds) == 0 {
		return nil, nil
	}

	loc := r.clock.Location()
	now := r.clock.Now()

	var (
		collected []datedItem
		failed    int
	)
	for _, source := range r.cfg.Feeds {
		feed, err := r.fetcher.Feed(ctx, source.URL)
		if err != nil {
			failed++
			r.logger.Warn("research feed failed", "feed", source.Name, "error", err)
			continue
		}

		tags := append([]string{"blog", "research"}, source.Tags...)
		added := 0
		for _, entry := range feed.Items {
			if added >= r.cfg.MaxEntriesPerFeed {
				break
			}
			link := strings.TrimSpace(entry.Link)
			if link == "" {
				continue
			}
			published, dated := entryTime(entry, loc)
			if !withinDays(published, dated, now, r.cfg.DaysWindow) {
				continue
			}

			title := cleanText(entry.Title, 200)
			if title == "" {
				title = link
			}
			summary := entry.Description
			if summary == "" {
				summary = entry.Content
			}

			item := domain.Item{
				ID:      domain.Fingerprint("blog:" + link),
				Title:   title,
				URL:     link,
				Source:  source.Name,
				Tags:    append([]string(nil), tags...),
				Summary: cleanText(summary, r.cfg.SummaryMaxLen),
			}
			if dated {
				item.PublishedAt = published.Format(time.RFC3339)
			}
			collected = append(collected, datedItem{item: item, published: published, dated: dated})
			added++
		}
	}

	if failed == len(r.cfg.Feeds) {
		return nil, fmt.Errorf("%w: research feeds: all %d feeds failed", domain.ErrSourceUnavailable, failed)
	}

	merged := mergeByID(collected)
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].dated != merged[j].dated {
			return merged[i].dated
		}
		return merged[i].published.After(merged[j].published)
	})
	if r.cfg.MaxTotalEntries > 0 && len(merged) > r.cfg.MaxTotalEntries {
		merged = merged[:r.cfg.MaxTotalEntries]
	}

	items := make([]domain.Item, 0, len(merged))
	for _, m := range merged {
		items = append(items, m.item)
	}
	r.logger.Info("research feeds collected", "feeds", len(r.cfg.Feeds), "failed", failed, "items", len(items))
	return items, nil
}

// mergeByID folds duplicates into the first occurrence: tags are unioned and the longer
// summary and published value win.
func mergeByID(items []datedItem) []datedItem {
	index := map[string]int{}
	out := make([]datedItem, 0, len(items))
	for _, it := range items {
		i, ok := index[it.item.ID]
		if !ok {
			index[it.item.ID] = len(out)
			out = append(out, it)
			continue
		}
		prev := &out[i]
		for _, tag := range it.item.Tags {
			if !prev.item.HasTag(tag) {
				prev.item.Tags = append(prev.item.Tags, tag)
			}
		}
		if len(it.item.Summary) > len(prev.item.Summary) {
			prev.item.Summary = it.item.Summary
		}
		if len(it.item.PublishedAt) > len(prev.item.PublishedAt) {
			prev.item.PublishedAt = it.item.PublishedAt
			prev.published, prev.dated = it.published, it.dated
		}
	}
	return out
}
