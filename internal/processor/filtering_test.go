package processor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, BucketResearch, Classify(domain.Item{Tags: []string{"arxiv", "cs.AI"}}))
	assert.Equal(t, BucketResearch, Classify(domain.Item{URL: "https://arxiv.org/abs/1"}))
	assert.Equal(t, BucketResearch, Classify(domain.Item{Tags: []string{"Blog"}}))
	assert.Equal(t, BucketCode, Classify(domain.Item{Tags: []string{"trending"}}))
	assert.Equal(t, BucketCode, Classify(domain.Item{URL: "https://github.com/a/b"}))
	assert.Equal(t, BucketOther, Classify(domain.Item{URL: "https://example.com"}))
}

func TestFilterTopNWithDayWindow(t *testing.T) {
	t.Parallel()

	f := NewFilter(config.LimitsConfig{TopN: 3, DaysWindow: 7}, fixedClock(testNow), nil)
	day := func(daysAgo int) string { return testNow.AddDate(0, 0, -daysAgo).Format(time.RFC3339) }

	batch := &domain.Batch{Items: []domain.Item{
		{ID: "old", Score: 100, PublishedAt: day(8)},
		{ID: "edge", Score: 1, PublishedAt: day(7)},
		{ID: "tie-a", Score: 5, PublishedAt: day(1)},
		{ID: "unknown", Score: 9, PublishedAt: "n/a"},
		{ID: "tie-b", Score: 5, PublishedAt: day(0)},
	}}

	require.NoError(t, f.Process(context.Background(), batch))
	assert.Equal(t, []string{"unknown", "tie-a", "tie-b"}, ids(batch.Items))
}

func TestFilterQuotaMode(t *testing.T) {
	t.Parallel()

	var items []domain.Item
	for i := 0; i < 10; i++ {
		items = append(items,
			domain.Item{ID: fmt.Sprintf("paper-%d", i), Tags: []string{"arxiv"}, Score: float64(i)},
			domain.Item{ID: fmt.Sprintf("repo-%d", i), Tags: []string{"trending"}, Score: float64(i) + 0.5},
			domain.Item{ID: fmt.Sprintf("misc-%d", i), URL: "https://example.com", Score: 100 + float64(i)},
		)
	}

	limits := config.LimitsConfig{TopN: 5, DaysWindow: 7, ResearchQuota: intPtr(5), CodeQuota: intPtr(4)}
	f := NewFilter(limits, fixedClock(testNow), nil)
	batch := &domain.Batch{Items: items}

	require.NoError(t, f.Process(context.Background(), batch))
	assert.Equal(t, []string{
		"repo-9", "paper-9", "repo-8", "paper-8", "repo-7", "paper-7", "repo-6", "paper-6", "paper-5",
	}, ids(batch.Items))
}

func TestFilterQuotaLargerThanBucket(t *testing.T) {
	t.Parallel()

	limits := config.LimitsConfig{TopN: 1, ResearchQuota: intPtr(3), CodeQuota: intPtr(0)}
	f := NewFilter(limits, fixedClock(testNow), nil)
	batch := &domain.Batch{Items: []domain.Item{
		{ID: "p", Tags: []string{"paper"}, Score: 1},
		{ID: "r", Tags: []string{"trending"}, Score: 9},
	}}

	require.NoError(t, f.Process(context.Background(), batch))
	assert.Equal(t, []string{"p"}, ids(batch.Items))
}
