package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"SignalDigest/internal/clock"
	"SignalDigest/internal/config"
	"SignalDigest/internal/domain"
	"SignalDigest/internal/generator"
	"SignalDigest/internal/infrastructure/llm"
	"SignalDigest/internal/infrastructure/parser"
	"SignalDigest/internal/infrastructure/scheduler"
	"SignalDigest/internal/infrastructure/storage"
	"SignalDigest/internal/infrastructure/telegram"
	"SignalDigest/internal/ports"
	"SignalDigest/internal/processor"
	"SignalDigest/internal/registry"
	"SignalDigest/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	scheduler *usecase.Scheduler
	closers   []io.Closer
}

// New builds the application from a loaded configuration. The caller owns the logger.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = slog.New(slog.DiscardHandler)
	}
	app := &Application{cfg: cfg, logger: baseLogger}
	component := func(name string) *slog.Logger { return baseLogger.With("component", name) }

	clk := clock.New(cfg.System.Location(), nil)

	store, err := storage.NewJSONStore(cfg.Storage.DataDir, component("storage"))
	if err != nil {
		return nil, fmt.Errorf("open data dir: %w", err)
	}
	states := storage.NewStateStore(store)

	reports, err := app.reportRepository(store)
	if err != nil {
		return nil, err
	}

	fetcher := parser.NewFetcher(cfg.HTTP, nil, component("fetcher"))
	discovery, err := parser.NewDiscovery(fetcher, store, cfg.Discovery, clk, component("collector.discovery"))
	if err != nil {
		app.Close()
		return nil, err
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram)
	}

	reg := registry.New()
	reg.Register(discovery)
	reg.Register(parser.NewGitHubTrending(fetcher, store, cfg.GitHub, clk, component("collector.github_trending")))
	reg.Register(parser.NewArxivScanner(fetcher, cfg.Arxiv, clk, component("collector.arxiv")))
	reg.Register(parser.NewResearchFeeds(fetcher, cfg.ResearchFeeds, clk, component("collector.research_feeds")))
	reg.Register(parser.NewBloggers(fetcher, store, cfg.Bloggers, clk, component("collector.bloggers")))
	reg.Register(processor.NewDeduplicator(states, clk, domain.MaxFingerprints, component("processor.deduplicate")))
	reg.Register(processor.NewScorer(cfg.Scoring, clk, component("processor.scoring")))
	reg.Register(processor.NewFilter(cfg.Limits, clk, component("processor.filtering")))
	reg.Register(processor.NewSignalNormalizer(component("processor.signal_normalizer")))
	reg.Register(processor.NewTrendAnalyzer(store, component("processor.trend_analyzer")))
	reg.Register(generator.NewDailyReport(generator.DailyReportDeps{
		Chat:      llm.NewChatGPTClient(cfg.Report, component("llm")),
		Reports:   reports,
		Artifacts: store,
		Notifier:  notifier,
		Limits:    cfg.Limits,
		Report:    cfg.Report,
		Clock:     clk,
		Logger:    component("generator.daily_report"),
	}))

	signals := resolve[ports.SignalContributor](baseLogger, reg, "signal contributor", cfg.Collectors.Signal)
	contents := resolve[ports.ContentContributor](baseLogger, reg, "content contributor", cfg.Collectors.Content)
	processors := resolve[ports.Processor](baseLogger, reg, "processor", cfg.Processors)
	generators := resolve[ports.Generator](baseLogger, reg, "generator", cfg.Generators)

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Store:      store,
		Signals:    signals,
		Contents:   contents,
		Processors: processors,
		Generators: generators,
		Clock:      clk,
		Logger:     component("pipeline"),
	})

	app.scheduler = usecase.NewScheduler(usecase.SchedulerDeps{
		Pipeline: pipeline,
		States:   states,
		Ticker:   scheduler.NewIntervalTicker(cfg.Scheduler.Interval),
		Clock:    clk,
		Logger:   component("scheduler"),
	})
	return app, nil
}

func (a *Application) reportRepository(store *storage.JSONStore) (ports.ReportRepository, error) {
	if a.cfg.Storage.ReportBackend != "sqlite" {
		return storage.NewReportLog(store), nil
	}
	archive, err := storage.OpenSQLiteArchive(a.cfg.ArchivePath())
	if err != nil {
		return nil, fmt.Errorf("open report archive: %w", err)
	}
	a.closers = append(a.closers, archive)
	return archive, nil
}

func resolve[T any](logger *slog.Logger, reg *registry.Registry, role string, names []string) []T {
	components, errs := registry.ResolveAll[T](reg, names)
	for _, err := range errs {
		logger.Warn("skipping configured "+role, "error", err)
	}
	return components
}

// Run performs one invocation: the normal daily cycle, or a single stage when stage is set.
// It fails when any stage that was attempted failed.
func (a *Application) Run(ctx context.Context, stage string, force bool) error {
	opts := usecase.RunOptions{Force: force}
	if stage != "" {
		parsed, err := domain.ParseStage(stage)
		if err != nil {
			return err
		}
		opts.Stage = parsed
	}

	results, err := a.scheduler.Run(ctx, opts)
	if err != nil {
		return err
	}

	var failed []error
	for _, r := range results {
		if r.Outcome == usecase.OutcomeFailed {
			failed = append(failed, fmt.Errorf("stage %s: %w", r.Stage, r.Err))
		}
	}
	return errors.Join(failed...)
}

// RunDaemon repeats the normal daily cycle on the configured interval until ctx is done.
func (a *Application) RunDaemon(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("daemon started", "interval", a.cfg.Scheduler.Interval)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.scheduler.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	a.logger.Info("daemon stopped")
	return nil
}

// Close releases the report archive, if any.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
