package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
)

func rssFeed(items ...string) string {
	body := ""
	for _, it := range items {
		body += it
	}
	return `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>t</title>` + body + `</channel></rss>`
}

func rssItem(title, link, pubDate, description string) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link><pubDate>%s</pubDate><description><![CDATA[%s]]></description></item>`,
		title, link, pubDate, description)
}

var feedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func feedServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResearchFeedsCollect(t *testing.T) {
	t.Parallel()

	srv := feedServer(t, map[string]string{
		"/lab.xml": rssFeed(
			rssItem("New &amp; shiny", "https://lab.example/post-1", "Mon, 19 Oct 2026 08:00:00 +0000", "<p>Short</p>"),
			rssItem("Ancient", "https://lab.example/old", "Mon, 05 Oct 2026 08:00:00 +0000", "old"),
			rssItem("Older", "https://lab.example/post-2", "Sat, 17 Oct 2026 08:00:00 +0000", "two"),
		),
		"/mirror.xml": rssFeed(
			rssItem("New &amp; shiny", "https://lab.example/post-1", "Mon, 19 Oct 2026 08:00:00 +0000", "<p>A much longer summary</p>"),
		),
	})

	cfg := config.ResearchFeedsConfig{
		Feeds: []config.FeedConfig{
			{Name: "Lab", URL: srv.URL + "/lab.xml", Tags: []string{"llm"}},
			{Name: "Mirror", URL: srv.URL + "/mirror.xml", Tags: []string{"mirror"}},
			{Name: "Down", URL: srv.URL + "/down.xml"},
		},
		MaxEntriesPerFeed: 10,
		MaxTotalEntries:   10,
		DaysWindow:        3,
		SummaryMaxLen:     800,
	}

	items, err := NewResearchFeeds(newTestFetcher(), cfg, fixedClock(feedNow), nil).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, domain.Fingerprint("blog:https://lab.example/post-1"), first.ID)
	assert.Equal(t, "New & shiny", first.Title)
	assert.Equal(t, "Lab", first.Source)
	assert.Equal(t, "A much longer summary", first.Summary)
	assert.Equal(t, []string{"blog", "research", "llm", "mirror"}, first.Tags)
	assert.Equal(t, "2026-10-19T08:00:00Z", first.PublishedAt)

	assert.Equal(t, "https://lab.example/post-2", items[1].URL)
}

func TestResearchFeedsAllFailed(t *testing.T) {
	t.Parallel()

	srv := feedServer(t, nil)
	cfg := config.ResearchFeedsConfig{Feeds: []config.FeedConfig{{Name: "x", URL: srv.URL + "/x"}}, MaxEntriesPerFeed: 5}
	_, err := NewResearchFeeds(newTestFetcher(), cfg, fixedClock(feedNow), nil).Collect(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestBloggersCollect(t *testing.T) {
	t.Parallel()

	srv := feedServer(t, map[string]string{
		"/alice.atom": rssFeed(
			rssItem("one", "https://alice.example/1", "Mon, 19 Oct 2026 08:00:00 +0000", ""),
			rssItem("two", "https://alice.example/2", "Sun, 18 Oct 2026 08:00:00 +0000", ""),
			rssItem("three", "https://alice.example/3", "Sat, 17 Oct 2026 08:00:00 +0000", ""),
		),
	})

	store := newTestArtifacts(t)
	raw := fmt.Sprintf(`{"bloggers":[
		{"id":"alice","name":"Alice","source":"%[1]s/alice.atom"},
		{"id":"bob","name":"Bob","source":"%[1]s/bob.atom","active":false},
		{"id":"carol","name":"Carol","source":"%[1]s/missing.atom","active":true}
	]}`, srv.URL)
	require.NoError(t, writeRaw(store.Dir(), BloggersFile, raw))

	b := NewBloggers(newTestFetcher(), store, config.BloggersConfig{MaxCount: 10, MaxEntriesPerFeed: 2}, fixedClock(feedNow), nil)
	items, err := b.Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, domain.Fingerprint("https://alice.example/1"), items[0].ID)
	assert.Equal(t, "Alice", items[0].Source)
	assert.Equal(t, "2026-10-19T08:00:00Z", items[0].PublishedAt)
	assert.Empty(t, items[0].Tags)
}

func TestBloggersWithoutList(t *testing.T) {
	t.Parallel()

	b := NewBloggers(newTestFetcher(), newTestArtifacts(t), config.BloggersConfig{MaxCount: 10, MaxEntriesPerFeed: 2}, fixedClock(feedNow), nil)
	items, err := b.Collect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}
