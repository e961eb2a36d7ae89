package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

const (
	arxivBaseURL = "https://arxiv.org"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// ArxivScanner crawls category listing pages and emits the papers announced inside the day window.
type ArxivScanner struct {
	fetcher *Fetcher
	cfg     config.ArxivConfig
	clock   clock.Clock
	logger  *slog.Logger
}

var _ ports.ContentContributor = (*ArxivScanner)(nil)

// NewArxivScanner wires the listing scanner; PageSize defaults to 200.
func NewArxivScanner(fetcher *Fetcher, cfg config.ArxivConfig, clk clock.Clock, log *slog.Logger) *ArxivScanner {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	return &ArxivScanner{fetcher: fetcher, cfg: cfg, clock: clk, logger: log}
}

// Name identifies the collector inside the registry.
func (a *ArxivScanner) Name() string {
	return "arxiv"
}

type arxivEntry struct {
	link      string
	title     string
	abstract  string
	published time.Time
}

// Collect walks each category listing. A failing category is skipped; the source is
// reported unavailable only when every category failed.
func (a *ArxivScanner) Collect(ctx context.Context) ([]domain.Item, error) {
	if len(a.cfg.Categories) == 0 {
		return nil, nil
	}

	loc := a.clock.Location()
	today := a.clock.Now()
	oldest := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -a.cfg.DaysWindow)

	var (
		results []domain.Item
		index   = map[string]int{}
		failed  int
	)

	for _, cat := range a.cfg.Categories {
		entries, err := a.scanCategory(ctx, cat, oldest)
		if err != nil {
			failed++
			a.logger.Warn("arxiv category failed", "category", cat, "error", err)
			continue
		}

		for _, entry := range entries {
			id := domain.Fingerprint("arxiv:" + entry.link)
			if i, ok := index[id]; ok {
				if !results[i].HasTag(cat) {
					results[i].Tags = append(results[i].Tags, cat)
				}
				continue
			}
			index[id] = len(results)
			results = append(results, domain.Item{
				ID:          id,
				Title:       entry.title,
				URL:         entry.link,
				Source:      "arXiv " + cat,
				PublishedAt: entry.published.Format(clock.DateLayout),
				Tags:        []string{"arxiv", cat},
				Summary:     entry.abstract,
			})
		}
		a.logger.Debug("category scanned", "category", cat, "papers", len(entries))
	}

	if failed == len(a.cfg.Categories) {
		return nil, fmt.Errorf("%w: arxiv: all %d categories failed", domain.ErrSourceUnavailable, failed)
	}
	return results, nil
}

func (a *ArxivScanner) scanCategory(ctx context.Context, category string, oldest time.Time) ([]arxivEntry, error) {
	listURL := strings.TrimRight(a.cfg.ListURL, "/") + "/" + category + "/pastweek"

	var collected []arxivEntry
	skip := 0
	for {
		pageURL, err := buildPageURL(listURL, skip, a.cfg.PageSize)
		if err != nil {
			return nil, err
		}

		doc, err := a.fetcher.Document(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		page, shouldContinue := a.extractEntries(doc, oldest)
		for _, entry := range page {
			if a.cfg.MaxEntriesPerCategory > 0 && len(collected) >= a.cfg.MaxEntriesPerCategory {
				return collected, nil
			}
			collected = append(collected, entry)
		}

		if !shouldContinue {
			return collected, nil
		}
		skip += a.cfg.PageSize
	}
}

func (a *ArxivScanner) extractEntries(doc *goquery.Document, oldest time.Time) ([]arxivEntry, bool) {
	var (
		collected    []arxivEntry
		continueScan = true
		processed    int
	)

	loc := a.clock.Location()
	fallback := a.clock.Now()
	doc.Find("dl > dt").EachWithBreak(func(i int, dt *goquery.Selection) bool {
		dd := dt.Next()
		processed++

		entry, ok := parseEntry(dt, dd, loc, fallback)
		if !ok {
			return true
		}

		if entry.published.Before(oldest) {
			continueScan = false
			return false
		}
		collected = append(collected, entry)
		return true
	})

	if processed < a.cfg.PageSize {
		continueScan = false
	}

	return collected, continueScan
}

func parseEntry(dt, dd *goquery.Selection, loc *time.Location, fallback time.Time) (arxivEntry, bool) {
	link := dt.Find("a[href*=\"/abs/\"]").First()
	href, exists := link.Attr("href")
	if !exists || strings.TrimSpace(href) == "" {
		return arxivEntry{}, false
	}
	if !strings.HasPrefix(href, "http") {
		href = strings.TrimSuffix(arxivBaseURL, "/") + href
	}

	title := strings.TrimSpace(dd.Find(".list-title").First().Text())
	title = strings.TrimPrefix(title, "Title:")
	title = cleanText(title, 200)
	if title == "" {
		title = href
	}

	summary := dd.Find("p.mathjax").First().Text()
	summary = strings.TrimPrefix(strings.TrimSpace(summary), "Abstract:")
	summary = cleanText(summary, 800)

	dateText := strings.TrimSpace(dd.Find(".list-date").First().Text())
	if dateText == "" {
		dateText = strings.TrimSpace(dd.Find(".list-dateline").First().Text())
	}

	publishedAt := fallback
	if match := dateExpr.FindString(dateText); match != "" {
		if parsed, err := time.ParseInLocation("2 Jan 2006", match, loc); err == nil {
			publishedAt = parsed
		}
	}

	return arxivEntry{link: href, title: title, abstract: summary, published: publishedAt}, true
}

func buildPageURL(base string, skip, pageSize int) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid category url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("skip", strconv.Itoa(skip))
	query.Set("show", strconv.Itoa(pageSize))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
