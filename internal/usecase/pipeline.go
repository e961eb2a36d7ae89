package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/ports"
)

// Stage artifacts.
const (
	CollectedFile = "collected_updates.json"
	UpdatesFile   = "updates.json"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Store      ports.ArtifactStore
	Signals    []ports.SignalContributor
	Contents   []ports.ContentContributor
	Processors []ports.Processor
	Generators []ports.Generator
	Clock      clock.Clock
	Logger     *slog.Logger
}

// Pipeline executes the body of one stage at a time. Each stage rebuilds its output from
// the persisted artifact of its predecessor when the working batch is empty.
type Pipeline struct {
	store      ports.ArtifactStore
	signals    []ports.SignalContributor
	contents   []ports.ContentContributor
	processors []ports.Processor
	generators []ports.Generator
	clock      clock.Clock
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		store:      deps.Store,
		signals:    deps.Signals,
		contents:   deps.Contents,
		processors: deps.Processors,
		generators: deps.Generators,
		clock:      deps.Clock,
		logger:     logger,
	}
}

// RunStage executes stage against batch.
func (p *Pipeline) RunStage(ctx context.Context, stage domain.Stage, batch *domain.Batch) error {
	if batch == nil {
		batch = &domain.Batch{}
	}
	switch stage {
	case domain.StageCollect:
		return p.collect(ctx, batch)
	case domain.StageProcess:
		return p.process(ctx, batch)
	case domain.StageGenerate:
		return p.generate(ctx, batch)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownStage, stage)
	}
}

func (p *Pipeline) collect(ctx context.Context, batch *domain.Batch) error {
	batch.Reset()

	for _, contributor := range p.signals {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := contributor.Refresh(ctx); err != nil {
			if p.isolated(contributor.Name(), err) {
				continue
			}
			return fmt.Errorf("signal contributor %s: %w", contributor.Name(), err)
		}
	}

	for _, contributor := range p.contents {
		if err := ctx.Err(); err != nil {
			return err
		}
		items, err := contributor.Collect(ctx)
		if err != nil {
			if p.isolated(contributor.Name(), err) {
				continue
			}
			return fmt.Errorf("content contributor %s: %w", contributor.Name(), err)
		}
		p.logger.Info("collected", "contributor", contributor.Name(), "items", len(items))
		batch.Items = append(batch.Items, items...)
	}

	if err := p.persist(CollectedFile, batch.Items); err != nil {
		return err
	}
	p.logger.Info("collect finished", "items", len(batch.Items))
	return nil
}

func (p *Pipeline) process(ctx context.Context, batch *domain.Batch) error {
	if len(batch.Items) == 0 {
		batch.Items = p.load(CollectedFile)
	}

	for _, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return err
		}
		before := len(batch.Items)
		if err := processor.Process(ctx, batch); err != nil {
			return fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
		p.logger.Debug("processor done", "processor", processor.Name(), "before", before, "after", len(batch.Items))
	}

	if err := p.persist(UpdatesFile, batch.Items); err != nil {
		return err
	}
	p.logger.Info("process finished", "items", len(batch.Items))
	return nil
}

func (p *Pipeline) generate(ctx context.Context, batch *domain.Batch) error {
	if len(batch.Items) == 0 {
		batch.Items = p.load(UpdatesFile)
	}

	for _, generator := range p.generators {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := generator.Generate(ctx, *batch); err != nil {
			return fmt.Errorf("generator %s: %w", generator.Name(), err)
		}
	}
	return nil
}

// isolated reports whether err is a single-source failure that must not abort the stage.
func (p *Pipeline) isolated(name string, err error) bool {
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		return false
	}
	p.logger.Warn("source unavailable, skipping", "contributor", name, "error", err)
	return true
}

func (p *Pipeline) persist(name string, items []domain.Item) error {
	if items == nil {
		items = []domain.Item{}
	}
	snapshot := domain.ItemSnapshot{Date: p.clock.Today(), Updates: items}
	if err := p.store.WriteJSON(name, snapshot); err != nil {
		return fmt.Errorf("persist %s: %w", name, err)
	}
	return nil
}

func (p *Pipeline) load(name string) []domain.Item {
	var snapshot domain.ItemSnapshot
	if !p.store.ReadJSON(name, &snapshot) {
		p.logger.Warn("stage input missing, starting empty", "artifact", name)
		return nil
	}
	p.logger.Info("loaded stage input", "artifact", name, "date", snapshot.Date, "items", len(snapshot.Updates))
	return snapshot.Updates
}
