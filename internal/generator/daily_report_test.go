package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/processor"
)

var testNow = time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)

type fakeChat struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeChat) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type memReports struct {
	reports []domain.Report
}

func (m *memReports) AppendReport(_ context.Context, r domain.Report) error {
	m.reports = append(m.reports, r)
	return nil
}

func (m *memReports) ListReports(context.Context) ([]domain.Report, error) {
	return m.reports, nil
}

type memArtifacts map[string][]byte

func (m memArtifacts) ReadJSON(name string, v any) bool {
	raw, ok := m[name]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func (m memArtifacts) WriteJSON(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m[name] = raw
	return nil
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	f.sent = append(f.sent, digest)
	return f.err
}

func newTestReport(chat *fakeChat, reports *memReports, artifacts memArtifacts, notifier *fakeNotifier) *DailyReport {
	deps := DailyReportDeps{
		Chat:      chat,
		Reports:   reports,
		Artifacts: artifacts,
		Limits:    config.LimitsConfig{TopN: 2},
		Report:    config.ReportConfig{AuxiliaryCount: 1},
		Clock:     clock.New(time.UTC, func() time.Time { return testNow }),
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	g := NewDailyReport(deps)
	g.newID = func() string { return "report-1" }
	return g
}

func sampleItems() []domain.Item {
	return []domain.Item{
		{ID: "a", Title: "Agent runtime", URL: "https://github.com/octo/agent", Source: "GitHub Trending", Score: 9.5, Tags: []string{"trending"}},
		{ID: "b", Title: "Sparse attention", URL: "https://arxiv.org/abs/2610.00001", Source: "arXiv cs.LG", Score: 7, Tags: []string{"arxiv"}},
		{ID: "c", Title: "Left out", URL: "https://example.com/c", Source: "Blog", Score: 1},
	}
}

func TestDailyReportGenerates(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{reply: "  Today: agents.  "}
	reports := &memReports{}
	artifacts := memArtifacts{}
	require.NoError(t, artifacts.WriteJSON(AuxiliaryFile, domain.AuxiliaryLog{Items: []domain.AuxiliaryItem{
		{Title: "alice/proj", URL: "https://github.com/alice/proj"},
		{Title: "bob/tool", URL: "https://github.com/bob/tool"},
	}}))
	notifier := &fakeNotifier{}

	batch := domain.Batch{Items: sampleItems(), Trends: &domain.TrendStats{Rising: []string{"Rust"}}}
	require.NoError(t, newTestReport(chat, reports, artifacts, notifier).Generate(context.Background(), batch))

	require.Len(t, chat.prompts, 1)
	prompt := chat.prompts[0]
	assert.Contains(t, prompt, "1. [GitHub Trending] Agent runtime (code)")
	assert.Contains(t, prompt, "2. [arXiv cs.LG] Sparse attention (paper)")
	assert.NotContains(t, prompt, "Left out")
	assert.Contains(t, prompt, "Rising: Rust")
	assert.Contains(t, prompt, "alice/proj")
	assert.NotContains(t, prompt, "bob/tool")

	assert.Equal(t, []domain.Report{{
		ID:          "report-1",
		Date:        "2026-10-19",
		Content:     "Today: agents.",
		GeneratedAt: "2026-10-19 08:30:00",
	}}, reports.reports)
	assert.Equal(t, []string{"Today: agents."}, notifier.sent)
	assert.Len(t, batch.Items, 3)
}

func TestDailyReportQuotaModeKeepsWholeSelection(t *testing.T) {
	t.Parallel()

	research, code := 5, 4
	var items []domain.Item
	for i := 0; i < code; i++ {
		items = append(items, domain.Item{ID: fmt.Sprintf("repo-%d", i), Title: fmt.Sprintf("repo-%d", i), Score: 20 - float64(i), Tags: []string{"trending"}})
	}
	for i := 0; i < research; i++ {
		items = append(items, domain.Item{ID: fmt.Sprintf("paper-%d", i), Title: fmt.Sprintf("paper-%d", i), Score: 10 - float64(i), Tags: []string{"arxiv"}})
	}

	chat := &fakeChat{reply: "digest"}
	g := newTestReport(chat, &memReports{}, memArtifacts{}, nil)
	g.limits = config.LimitsConfig{TopN: 5, ResearchQuota: &research, CodeQuota: &code}

	require.NoError(t, g.Generate(context.Background(), domain.Batch{Items: items}))
	require.Len(t, chat.prompts, 1)
	for _, item := range items {
		assert.Contains(t, chat.prompts[0], "] "+item.Title+" (")
	}
}

func TestDailyReportAfterQuotaFilter(t *testing.T) {
	t.Parallel()

	research, code := 5, 4
	limits := config.LimitsConfig{TopN: 5, DaysWindow: 7, ResearchQuota: &research, CodeQuota: &code}
	clk := clock.New(time.UTC, func() time.Time { return testNow })

	var items []domain.Item
	for i := 0; i < 10; i++ {
		items = append(items,
			domain.Item{ID: fmt.Sprintf("paper-%d", i), Title: fmt.Sprintf("paper-%d", i), Score: float64(i), Tags: []string{"arxiv"}},
			domain.Item{ID: fmt.Sprintf("repo-%d", i), Title: fmt.Sprintf("repo-%d", i), Score: float64(100 + i), Tags: []string{"trending"}},
		)
	}
	batch := &domain.Batch{Items: items}
	require.NoError(t, processor.NewFilter(limits, clk, nil).Process(context.Background(), batch))
	require.Len(t, batch.Items, research+code)

	chat := &fakeChat{reply: "digest"}
	g := newTestReport(chat, &memReports{}, memArtifacts{}, nil)
	g.limits = limits
	require.NoError(t, g.Generate(context.Background(), *batch))

	papers := strings.Count(chat.prompts[0], "(paper)")
	repos := strings.Count(chat.prompts[0], "(code)")
	assert.Equal(t, research, papers)
	assert.Equal(t, code, repos)
}

func TestDailyReportEmptyBatchAppendsFallback(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{reply: "unused"}
	reports := &memReports{}
	require.NoError(t, newTestReport(chat, reports, memArtifacts{}, nil).Generate(context.Background(), domain.Batch{}))

	assert.Empty(t, chat.prompts)
	require.Len(t, reports.reports, 1)
	assert.Equal(t, NoUpdatesContent, reports.reports[0].Content)
}

func TestDailyReportEmptyCompletionFails(t *testing.T) {
	t.Parallel()

	reports := &memReports{}
	err := newTestReport(&fakeChat{reply: "   "}, reports, memArtifacts{}, nil).
		Generate(context.Background(), domain.Batch{Items: sampleItems()})

	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Empty(t, reports.reports)
}

func TestDailyReportChatErrorFails(t *testing.T) {
	t.Parallel()

	reports := &memReports{}
	chatErr := fmt.Errorf("%w: status 429", domain.ErrGenerationFailed)
	err := newTestReport(&fakeChat{err: chatErr}, reports, memArtifacts{}, nil).
		Generate(context.Background(), domain.Batch{Items: sampleItems()})

	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Empty(t, reports.reports)
}

func TestDailyReportPublishFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	reports := &memReports{}
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	err := newTestReport(&fakeChat{reply: "digest"}, reports, memArtifacts{}, notifier).
		Generate(context.Background(), domain.Batch{Items: sampleItems()})

	require.NoError(t, err)
	assert.Len(t, reports.reports, 1)
	assert.Equal(t, []string{"digest"}, notifier.sent)
}

func TestBuildPromptUsesProvidedSignals(t *testing.T) {
	t.Parallel()

	items := sampleItems()[:1]
	signals := []domain.Signal{{ID: "a", Type: domain.SignalBlog}}
	prompt := BuildPrompt(items, signalsFor(items, signals), nil, nil)

	assert.Contains(t, prompt, "Agent runtime (blog)")
	assert.NotContains(t, prompt, "Trending languages")
	assert.NotContains(t, prompt, "Also mentioned")
}
