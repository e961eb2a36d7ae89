package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

// Trending artifacts.
const (
	TrendingFile        = "trending.json"
	TrendingHistoryFile = "trending_history.json"
)

const githubBaseURL = "https://github.com"

var digitsExpr = regexp.MustCompile(`[\d,]+`)

// GitHubTrending scrapes the daily trending page and keeps the day-indexed trending history.
type GitHubTrending struct {
	fetcher *Fetcher
	store   ports.ArtifactStore
	cfg     config.GitHubConfig
	clock   clock.Clock
	logger  *slog.Logger
}

var _ ports.ContentContributor = (*GitHubTrending)(nil)

// NewGitHubTrending wires the trending collector.
func NewGitHubTrending(fetcher *Fetcher, store ports.ArtifactStore, cfg config.GitHubConfig, clk clock.Clock, log *slog.Logger) *GitHubTrending {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &GitHubTrending{fetcher: fetcher, store: store, cfg: cfg, clock: clk, logger: log}
}

// Name identifies the collector inside the registry.
func (g *GitHubTrending) Name() string { return "github_trending" }

// Collect implements ports.ContentContributor.
func (g *GitHubTrending) Collect(ctx context.Context) ([]domain.Item, error) {
	doc, err := g.fetcher.Document(ctx, g.cfg.TrendingURL)
	if err != nil {
		return nil, fmt.Errorf("%w: github trending: %v", domain.ErrSourceUnavailable, err)
	}

	today := g.clock.Today()
	entries, descriptions := parseTrending(doc)

	items := make([]domain.Item, 0, len(entries))
	for i, entry := range entries {
		items = append(items, domain.Item{
			ID:          domain.Fingerprint(entry.URL),
			Title:       entry.Repo,
			URL:         entry.URL,
			Source:      "GitHub Trending",
			PublishedAt: today,
			Tags:        []string{"trending"},
			Summary:     descriptions[i],
			StarsToday:  entry.StarsToday,
		})
	}

	day := domain.TrendingDay{Date: today, Items: entries}
	if err := g.store.WriteJSON(TrendingFile, day); err != nil {
		return nil, fmt.Errorf("save trending: %w", err)
	}
	if err := g.appendHistory(day); err != nil {
		return nil, err
	}

	g.logger.Info("github trending collected", "repos", len(items), "date", today)
	return items, nil
}

// appendHistory replaces any entry for the same date and keeps the newest HistoryDays days.
func (g *GitHubTrending) appendHistory(day domain.TrendingDay) error {
	var history domain.TrendingHistory
	g.store.ReadJSON(TrendingHistoryFile, &history)

	kept := make([]domain.TrendingDay, 0, len(history.History)+1)
	for _, existing := range history.History {
		if existing.Date != day.Date {
			kept = append(kept, existing)
		}
	}
	kept = append(kept, day)
	if g.cfg.HistoryDays > 0 && len(kept) > g.cfg.HistoryDays {
		kept = kept[len(kept)-g.cfg.HistoryDays:]
	}

	if err := g.store.WriteJSON(TrendingHistoryFile, domain.TrendingHistory{History: kept}); err != nil {
		return fmt.Errorf("save trending history: %w", err)
	}
	return nil
}

func parseTrending(doc *goquery.Document) ([]domain.TrendingEntry, []string) {
	var (
		entries      []domain.TrendingEntry
		descriptions []string
	)

	doc.Find("article.Box-row, div.Box-row").Each(func(_ int, row *goquery.Selection) {
		href, ok := row.Find("h2 a").First().Attr("href")
		if !ok {
			return
		}
		repo := strings.Trim(strings.TrimSpace(href), "/")
		if strings.HasPrefix(repo, "http") {
			if parsed, err := url.Parse(repo); err == nil {
				repo = strings.Trim(parsed.Path, "/")
			}
		}
		if strings.Count(repo, "/") != 1 {
			return
		}

		entries = append(entries, domain.TrendingEntry{
			Repo:       repo,
			URL:        githubBaseURL + "/" + repo,
			StarsToday: starsToday(row),
			Language:   strings.TrimSpace(row.Find("[itemprop='programmingLanguage']").First().Text()),
		})
		descriptions = append(descriptions, cleanText(row.Find("p").First().Text(), 300))
	})

	return entries, descriptions
}

func starsToday(row *goquery.Selection) int {
	stars := 0
	row.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(span.Text()))
		if !strings.Contains(text, "stars today") && !strings.Contains(text, "stars this") {
			return true
		}
		stars = parseCount(text)
		return stars == 0
	})
	return stars
}

func parseCount(text string) int {
	match := digitsExpr.FindString(text)
	n, err := strconv.Atoi(strings.ReplaceAll(match, ",", ""))
	if err != nil {
		return 0
	}
	return n
}
