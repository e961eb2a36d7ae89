package processor

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

const (
	maxTrendingScore     = 10.0
	maxRecencyScore      = 10.0
	neutralRecencyScore  = 5.0
	recencyHorizonHours  = 24.0
	starsPerTrendingUnit = 100.0
)

// Scorer assigns each item a relevance score from keyword hits, trend metric and freshness.
type Scorer struct {
	cfg    config.ScoringConfig
	clock  clock.Clock
	logger *slog.Logger
}

var _ ports.Processor = (*Scorer)(nil)

// NewScorer builds the scoring processor.
func NewScorer(cfg config.ScoringConfig, clk clock.Clock, log *slog.Logger) *Scorer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scorer{cfg: cfg, clock: clk, logger: log}
}

// Name implements ports.Processor.
func (s *Scorer) Name() string { return "scoring" }

// Process implements ports.Processor. Order and membership of the batch are left untouched.
func (s *Scorer) Process(_ context.Context, batch *domain.Batch) error {
	for i := range batch.Items {
		batch.Items[i].Score = s.Score(batch.Items[i])
	}
	s.logger.Debug("scored items", "count", len(batch.Items))
	return nil
}

// Score computes keyword + trending + recency for one item.
func (s *Scorer) Score(item domain.Item) float64 {
	return s.keywordScore(item) + s.trendingScore(item) + s.recencyScore(item)
}

func (s *Scorer) keywordScore(item domain.Item) float64 {
	hits := 0
	for _, kw := range s.cfg.Keywords {
		if kw != "" && strings.Contains(item.Title, kw) {
			hits++
		}
	}
	return float64(hits) * s.cfg.KeywordWeight
}

func (s *Scorer) trendingScore(item domain.Item) float64 {
	if item.StarsToday <= 0 {
		return 0
	}
	return math.Min(float64(item.StarsToday)/starsPerTrendingUnit, maxTrendingScore) * s.cfg.TrendingWeight
}

func (s *Scorer) recencyScore(item domain.Item) float64 {
	published, ok := clock.ParsePublished(item.PublishedAt, s.clock.Location())
	if !ok {
		return neutralRecencyScore * s.cfg.RecencyWeight
	}
	hours := s.clock.Now().Sub(published).Hours()
	decay := (recencyHorizonHours - hours) / recencyHorizonHours * maxRecencyScore
	return math.Max(0, decay) * s.cfg.RecencyWeight
}
