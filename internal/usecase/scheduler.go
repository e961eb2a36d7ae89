package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

// ErrForceWithoutStage rejects a forced run that does not name a stage.
var ErrForceWithoutStage = errors.New("force requires a stage")

// Outcome is what happened to one stage during a run.
type Outcome string

const (
	OutcomeExecuted       Outcome = "executed"
	OutcomeFailed         Outcome = "failed"
	OutcomeSkippedDone    Outcome = "skipped_done_today"
	OutcomeSkippedPending Outcome = "skipped_predecessor_pending"
)

// StageResult reports a single stage decision.
type StageResult struct {
	Stage    domain.Stage
	Outcome  Outcome
	Duration time.Duration
	Err      error
}

// RunOptions selects what a run executes. The zero value is the normal daily cycle.
type RunOptions struct {
	// Stage limits the run to one stage; empty means every stage in order.
	Stage domain.Stage
	// Force bypasses the done-today check and the predecessor gate. Requires Stage.
	Force bool
}

type stageRunner interface {
	RunStage(ctx context.Context, stage domain.Stage, batch *domain.Batch) error
}

// SchedulerDeps wires the scheduler.
type SchedulerDeps struct {
	Pipeline stageRunner
	States   ports.StateStore
	Ticker   ports.Ticker
	Clock    clock.Clock
	Logger   *slog.Logger
}

// Scheduler decides per calendar day and per stage whether to run, and records success
// only after a stage returns without error.
type Scheduler struct {
	pipeline stageRunner
	states   ports.StateStore
	ticker   ports.Ticker
	clock    clock.Clock
	logger   *slog.Logger
	newRunID func() string
}

// NewScheduler returns the stage scheduler.
func NewScheduler(deps SchedulerDeps) *Scheduler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		pipeline: deps.Pipeline,
		states:   deps.States,
		ticker:   deps.Ticker,
		clock:    deps.Clock,
		logger:   logger,
		newRunID: uuid.NewString,
	}
}

// Run executes one cycle. Stage failures are reported in the results and logs, never as the error;
// the error covers invalid options only.
func (s *Scheduler) Run(ctx context.Context, opts RunOptions) ([]StageResult, error) {
	if opts.Force && opts.Stage == "" {
		return nil, ErrForceWithoutStage
	}

	stages := domain.Stages
	if opts.Stage != "" {
		if _, err := domain.ParseStage(string(opts.Stage)); err != nil {
			return nil, err
		}
		stages = []domain.Stage{opts.Stage}
	}

	logger := s.logger.With("run_id", s.newRunID())
	today := s.clock.Today()
	logger.Info("run started", "date", today, "stage", string(opts.Stage), "force", opts.Force)

	batch := &domain.Batch{}
	results := make([]StageResult, 0, len(stages))
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if !opts.Force {
			if outcome, skip := s.gate(logger, stage, today); skip {
				results = append(results, StageResult{Stage: stage, Outcome: outcome})
				continue
			}
		}

		results = append(results, s.execute(ctx, logger, stage, today, batch))
	}

	logger.Info("run finished", "stages", len(results))
	return results, nil
}

func (s *Scheduler) gate(logger *slog.Logger, stage domain.Stage, today string) (Outcome, bool) {
	if s.states.StageLastSuccess(stage) == today {
		logger.Info("stage already done today, skipping", "stage", stage)
		return OutcomeSkippedDone, true
	}
	if prev, ok := stage.Predecessor(); ok && s.states.StageLastSuccess(prev) != today {
		logger.Info("predecessor not done today, skipping", "stage", stage, "predecessor", prev)
		return OutcomeSkippedPending, true
	}
	return "", false
}

func (s *Scheduler) execute(ctx context.Context, logger *slog.Logger, stage domain.Stage, today string, batch *domain.Batch) StageResult {
	start := time.Now()
	logger.Info("stage started", "stage", stage)

	err := s.pipeline.RunStage(ctx, stage, batch)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error("stage failed", "stage", stage, "duration", elapsed, "error", err)
		return StageResult{Stage: stage, Outcome: OutcomeFailed, Duration: elapsed, Err: err}
	}

	if err := s.states.SetStageLastSuccess(stage, today); err != nil {
		err = fmt.Errorf("record success: %w", err)
		logger.Error("stage succeeded but marker not saved", "stage", stage, "error", err)
		return StageResult{Stage: stage, Outcome: OutcomeFailed, Duration: elapsed, Err: err}
	}

	logger.Info("stage finished", "stage", stage, "duration", elapsed)
	return StageResult{Stage: stage, Outcome: OutcomeExecuted, Duration: elapsed}
}

// Start registers the normal daily cycle with the ticker.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.ticker == nil {
		return nil
	}

	job := func(ctx context.Context) {
		if _, err := s.Run(ctx, RunOptions{}); err != nil {
			s.logger.Error("scheduled run aborted", "error", err)
		}
	}

	return s.ticker.Start(ctx, job)
}

// Stop gracefully tears down the underlying ticker.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.ticker == nil {
		return nil
	}

	return s.ticker.Stop(ctx)
}
