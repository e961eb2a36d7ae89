package parser

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

// BloggersFile is the recommendation list shared by discovery and the bloggers collector.
const BloggersFile = "bloggers.json"

// Bloggers reads the active entries of the recommendation list and pulls their latest posts.
type Bloggers struct {
	fetcher *Fetcher
	store   ports.ArtifactStore
	cfg     config.BloggersConfig
	clock   clock.Clock
	logger  *slog.Logger
}

var _ ports.ContentContributor = (*Bloggers)(nil)

// NewBloggers wires the recommendation-list collector.
func NewBloggers(fetcher *Fetcher, store ports.ArtifactStore, cfg config.BloggersConfig, clk clock.Clock, log *slog.Logger) *Bloggers {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Bloggers{fetcher: fetcher, store: store, cfg: cfg, clock: clk, logger: log}
}

// Name identifies the collector inside the registry.
func (b *Bloggers) Name() string { return "bloggers" }

// Collect implements ports.ContentContributor. A failing feed is skipped.
func (b *Bloggers) Collect(ctx context.Context) ([]domain.Item, error) {
	var list domain.BloggerList
	b.store.ReadJSON(BloggersFile, &list)

	active := make([]domain.Blogger, 0, len(list.Bloggers))
	for _, blogger := range list.Bloggers {
		if blogger.Active && strings.TrimSpace(blogger.Source) != "" {
			active = append(active, blogger)
		}
	}
	if b.cfg.MaxCount > 0 && len(active) > b.cfg.MaxCount {
		active = active[:b.cfg.MaxCount]
	}

	loc := b.clock.Location()
	var items []domain.Item
	for _, blogger := range active {
		feed, err := b.fetcher.Feed(ctx, blogger.Source)
		if err != nil {
			b.logger.Debug("blogger feed failed", "blogger", blogger.ID, "source", blogger.Source, "error", err)
			continue
		}

		for i, entry := range feed.Items {
			if i >= b.cfg.MaxEntriesPerFeed {
				break
			}
			link := strings.TrimSpace(entry.Link)
			if link == "" {
				continue
			}
			item := domain.Item{
				ID:     domain.Fingerprint(link),
				Title:  cleanText(entry.Title, 200),
				URL:    link,
				Source: blogger.Name,
				Tags:   []string{},
			}
			if published, ok := entryTime(entry, loc); ok {
				item.PublishedAt = published.Format(time.RFC3339)
			}
			items = append(items, item)
		}
	}

	b.logger.Info("bloggers collected", "bloggers", len(active), "items", len(items))
	return items, nil
}
