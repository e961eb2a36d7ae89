package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
)

const discoveryPage = `
<html><body>
<a href="https://github.com/alice/proj">proj</a>
<a href="https://github.com/alice/proj/issues">issues</a>
<a href="https://github.com/topics/llm">topic</a>
<p>Also see https://github.com/bob/tool. It is neat.</p>
<a href="https://github.com/alice/other.git">other</a>
</body></html>`

func writeRaw(dir, name, content string) error {
	return os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
}

func testDiscoveryConfig(pages ...string) config.DiscoveryConfig {
	return config.DiscoveryConfig{
		Pages:       pages,
		RepoPattern: `https://github\.com/[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+`,
		MaxHistory:  3,
	}
}

func TestDiscoveryRefresh(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(discoveryPage))
	}))
	defer srv.Close()

	store := newTestArtifacts(t)
	require.NoError(t, store.WriteJSON(BloggersFile, domain.BloggerList{Bloggers: []domain.Blogger{
		{ID: "alice", Name: "Alice", Source: "https://alice.example/feed", Active: true, MentionCount: 2, LastSeen: "2026-10-01"},
	}}))
	require.NoError(t, store.WriteJSON(AuxiliaryFile, domain.AuxiliaryLog{Items: []domain.AuxiliaryItem{
		{ID: domain.Fingerprint("https://github.com/bob/tool"), Title: "bob/tool", SeenAt: "old"},
		{ID: "older-1", Title: "x/one"},
		{ID: "older-2", Title: "x/two"},
	}}))

	now := time.Date(2026, 10, 19, 7, 0, 0, 0, time.UTC)
	d, err := NewDiscovery(newTestFetcher(), store, testDiscoveryConfig(srv.URL+"/page"), fixedClock(now), nil)
	require.NoError(t, err)
	require.NoError(t, d.Refresh(context.Background()))

	var list domain.BloggerList
	require.True(t, store.ReadJSON(BloggersFile, &list))
	require.Len(t, list.Bloggers, 2)
	assert.Equal(t, "https://alice.example/feed", list.Bloggers[0].Source)
	assert.Equal(t, 4, list.Bloggers[0].MentionCount)
	assert.Equal(t, "2026-10-19", list.Bloggers[0].LastSeen)
	assert.Equal(t, domain.Blogger{
		ID: "bob", Name: "bob", Source: "https://github.com/bob.atom", Active: true, MentionCount: 1, LastSeen: "2026-10-19",
	}, list.Bloggers[1])

	var aux domain.AuxiliaryLog
	require.True(t, store.ReadJSON(AuxiliaryFile, &aux))
	require.Len(t, aux.Items, 3)
	assert.Equal(t, "alice/proj", aux.Items[0].Title)
	assert.Equal(t, []string{srv.URL + "/page"}, aux.Items[0].Refs)
	assert.Equal(t, "alice/other", aux.Items[1].Title)
	assert.Equal(t, "bob/tool", aux.Items[2].Title)
	assert.Equal(t, "2026-10-19 07:00:00", aux.Items[2].SeenAt)
}

func TestDiscoveryAllPagesFailed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d, err := NewDiscovery(newTestFetcher(), newTestArtifacts(t), testDiscoveryConfig(srv.URL), fixedClock(time.Now()), nil)
	require.NoError(t, err)
	assert.ErrorIs(t, d.Refresh(context.Background()), domain.ErrSourceUnavailable)
}

func TestDiscoveryRejectsBadPattern(t *testing.T) {
	t.Parallel()

	cfg := testDiscoveryConfig()
	cfg.RepoPattern = "("
	_, err := NewDiscovery(newTestFetcher(), newTestArtifacts(t), cfg, fixedClock(time.Now()), nil)
	assert.Error(t, err)
}

func TestRepoFromURL(t *testing.T) {
	t.Parallel()

	repo, ok := repoFromURL("https://github.com/a/b.git")
	assert.True(t, ok)
	assert.Equal(t, "a/b", repo)

	_, ok = repoFromURL("https://github.com/topics/llm")
	assert.False(t, ok)
}
