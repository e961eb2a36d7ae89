package processor

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"

	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

const (
	// TrendingHistoryFile is the artifact the GitHub trending collector maintains.
	TrendingHistoryFile = "trending_history.json"

	trendWindowDays = 14
	trendTopK       = 5
	unknownLanguage = "Unknown"
)

// TrendAnalyzer classifies languages of the trending history as rising, falling or stable.
type TrendAnalyzer struct {
	store  ports.ArtifactStore
	logger *slog.Logger
}

var _ ports.Processor = (*TrendAnalyzer)(nil)

// NewTrendAnalyzer builds the trend processor over the artifact store.
func NewTrendAnalyzer(store ports.ArtifactStore, log *slog.Logger) *TrendAnalyzer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &TrendAnalyzer{store: store, logger: log}
}

// Name implements ports.Processor.
func (t *TrendAnalyzer) Name() string { return "trend_analyzer" }

// Process implements ports.Processor. Items are left untouched; the result lands in batch.Trends.
func (t *TrendAnalyzer) Process(_ context.Context, batch *domain.Batch) error {
	var history domain.TrendingHistory
	t.store.ReadJSON(TrendingHistoryFile, &history)

	stats := AnalyzeTrends(history.History)
	batch.Trends = &stats

	t.logger.Info("trend stats",
		"days", len(history.History),
		"rising", stats.Rising,
		"falling", stats.Falling,
		"stable", stats.Stable)
	return nil
}

type categoryValue struct {
	name  string
	value float64
}

// AnalyzeTrends compares the older and newer halves of the last 14 days of history.
// With fewer than two days it ranks raw totals as rising only.
func AnalyzeTrends(history []domain.TrendingDay) domain.TrendStats {
	if len(history) == 0 {
		return domain.TrendStats{}
	}

	days := history
	if len(days) > trendWindowDays {
		days = days[len(days)-trendWindowDays:]
	}

	if len(days) < 2 {
		totals := rankByMagnitude(sumByLanguage(days))
		return domain.TrendStats{
			Rising:  topNames(totals),
			Falling: []string{},
			Stable:  []string{},
		}
	}

	mid := len(days) / 2
	older := sumByLanguage(days[:mid])
	newer := sumByLanguage(days[mid:])

	deltas := make(map[string]float64, len(older)+len(newer))
	for lang, v := range newer {
		deltas[lang] += v
	}
	for lang, v := range older {
		deltas[lang] -= v
	}

	rising, falling, stable := map[string]float64{}, map[string]float64{}, map[string]float64{}
	for lang, delta := range deltas {
		switch {
		case delta > 0:
			rising[lang] = delta
		case delta < 0:
			falling[lang] = delta
		default:
			stable[lang] = delta
		}
	}

	return domain.TrendStats{
		Rising:  topNames(rankByMagnitude(rising)),
		Falling: topNames(rankByMagnitude(falling)),
		Stable:  topNames(rankByMagnitude(stable)),
	}
}

func sumByLanguage(days []domain.TrendingDay) map[string]float64 {
	totals := map[string]float64{}
	for _, day := range days {
		for _, entry := range day.Items {
			lang := strings.TrimSpace(entry.Language)
			if lang == "" {
				lang = unknownLanguage
			}
			totals[lang] += float64(entry.StarsToday)
		}
	}
	return totals
}

// rankByMagnitude orders categories by |value| descending, ties by name.
func rankByMagnitude(values map[string]float64) []categoryValue {
	ranked := make([]categoryValue, 0, len(values))
	for name, v := range values {
		ranked = append(ranked, categoryValue{name: name, value: v})
	}
	sort.Slice(ranked, func(i, j int) bool {
		ai, aj := math.Abs(ranked[i].value), math.Abs(ranked[j].value)
		if ai != aj {
			return ai > aj
		}
		return ranked[i].name < ranked[j].name
	})
	return ranked
}

func topNames(ranked []categoryValue) []string {
	if len(ranked) > trendTopK {
		ranked = ranked[:trendTopK]
	}
	names := make([]string, 0, len(ranked))
	for _, c := range ranked {
		names = append(names, c.name)
	}
	return names
}
