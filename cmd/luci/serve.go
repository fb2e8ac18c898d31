package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keshon/luci/internal/backend"
	"github.com/keshon/luci/internal/command"
	"github.com/keshon/luci/internal/config"
	"github.com/keshon/luci/internal/discord"
	"github.com/keshon/luci/internal/httpapi"
	"github.com/keshon/luci/internal/logging"
	"github.com/keshon/luci/internal/mind"
	"github.com/keshon/luci/internal/observability"
	"github.com/keshon/luci/internal/sentiment"
	"github.com/keshon/luci/internal/version"
	"github.com/keshon/luci/pkg/jobmgr"
)

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	files, _ := cmd.Flags().GetStringSlice("env-file")
	return config.Load(files...)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and run the engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.RequireDiscord(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, closer := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Pretty: cfg.LogPretty})
	defer closer.Close()
	logger.Info().Str("version", version.String()).Msgf("starting %s", version.AppName)

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store, err := backend.Open(ctx, cfg.BackendURL, backend.Options{
		Timeout: cfg.BackendTimeout,
		RPS:     cfg.BackendRPS,
		Logger:  logging.Component(logger, "backend"),
	})
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer store.Close()

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}

	collab := backend.Collaborators(store)
	collab.Notifier = discord.NewNotifier(session)
	collab.Classifier = sentiment.New(cfg.OffensiveWords...)

	engine := mind.New(collab, mind.Options{
		RecentCap:      cfg.RecentCap,
		BackendTimeout: cfg.BackendTimeout,
		TrackInterval:  cfg.TrackInterval,
		BoredomWindow:  cfg.BoredomWindow,
		MonitorWorkers: cfg.MonitorWorkers,
		IdleTTL:        cfg.MemoryIdleTTL,
		Logger:         &logger,
		Metrics:        metrics,
	})

	snap := mind.NewSnapshotter(engine.Memory(), cfg.SnapshotPath, cfg.SnapshotInterval, logging.Component(logger, "snapshot"))

	// Jobs outlive ctx so shutdown can stop them in order.
	jobs := jobmgr.NewManager(context.WithoutCancel(ctx), logging.Component(logger, "jobs"))
	err = jobs.StartSync("restore", func(context.Context) error {
		n, err := snap.Load()
		if err != nil {
			return err
		}
		logger.Info().Int("records", n).Msg("short-term memory restored")
		return nil
	})
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.SnapshotPath).Msg("short-term memory not restored")
	}

	bot := discord.NewBot(session, engine, command.Default(), cfg.CommandPrefix, logging.Component(logger, "discord"))

	start := map[string]func(context.Context) error{
		"monitor":  mind.NewMonitor(engine).Run,
		"snapshot": snap.Run,
		"discord":  bot.Run,
	}
	if cfg.HTTPAddr != "" {
		api := httpapi.New(engine, metrics, logging.Component(logger, "http"))
		start["http"] = func(ctx context.Context) error { return api.Serve(ctx, cfg.HTTPAddr) }
	}
	for name, run := range start {
		if err := jobs.StartAsync(name, stopOthersOnExit(jobs, run)); err != nil {
			jobs.StopAll()
			return errors.Join(err, jobs.Wait())
		}
	}
	logger.Info().Str("jobs", jobs.Status()).Msg("running")
	defer context.AfterFunc(ctx, func() { shutdown(jobs) })()

	err = jobs.Wait()
	logger.Info().Msg("stopped")
	return err
}

// shutdownOrder lists the jobs that feed short-term memory. They stop first
// so the snapshot job saves everything they wrote.
var shutdownOrder = []string{"discord", "http", "monitor"}

func shutdown(jobs *jobmgr.Manager) {
	for _, name := range shutdownOrder {
		_ = jobs.Stop(name)
	}
	jobs.StopAll()
}

// stopOthersOnExit ends the whole process when a job returns on its own. A
// job stopped from outside leaves the others running.
func stopOthersOnExit(jobs *jobmgr.Manager, run func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		err := run(ctx)
		if ctx.Err() == nil {
			jobs.StopAll()
		}
		return err
	}
}
