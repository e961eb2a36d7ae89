package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"SignalDigest/internal/app"
	"SignalDigest/internal/config"
	"SignalDigest/internal/logging"
)

type rootOptions struct {
	configPath string
	stage      string
	force      bool
	daemon     bool

	// envErr is the result of loading .env at startup.
	envErr error
}

var errForceWithoutStage = errors.New("--force requires --stage")

func newRootCmd(envErr error) *cobra.Command {
	opts := &rootOptions{envErr: envErr}

	cmd := &cobra.Command{
		Use:   "signaldigest",
		Short: "Daily technology signal digest",
		Long: "signaldigest collects papers, trending repositories and research posts, ranks them and writes one " +
			"LLM digest per day. Without flags it runs the daily cycle collect, process, generate; stages already " +
			"done today are skipped.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml (default $SIGNAL_DIGEST_CONFIG or ./config.yaml)")
	cmd.Flags().StringVarP(&opts.stage, "stage", "s", "", "run a single stage: collect, process or generate")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "run --stage even if done today or its predecessor is pending")
	cmd.Flags().BoolVar(&opts.daemon, "daemon", false, "repeat the daily cycle on scheduler.interval until interrupted")
	cmd.MarkFlagsMutuallyExclusive("daemon", "stage")
	return cmd
}

func (o *rootOptions) validate() error {
	if o.force && o.stage == "" {
		return errForceWithoutStage
	}
	return nil
}

func run(parent context.Context, opts *rootOptions) error {
	if err := opts.validate(); err != nil {
		return err
	}
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.System)
	if err != nil {
		return err
	}
	defer closer.Close()
	noteEnv(logger, opts.envErr)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if opts.daemon {
		return application.RunDaemon(ctx)
	}
	return application.Run(ctx, opts.stage, opts.force)
}

func noteEnv(logger *slog.Logger, err error) {
	if err != nil {
		logger.Debug(".env not loaded", "error", err)
	}
}
