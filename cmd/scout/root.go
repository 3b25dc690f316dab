package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/scout/internal/config"
	"github.com/FranksOps/scout/internal/logging"
	"github.com/FranksOps/scout/internal/metrics"
)

type rootOptions struct {
	configFile  string
	metricsPort int
}

// session is what every subcommand gets after the persistent pre-run.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	cleanup []func()
}

func (s *session) close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	sess := &session{}

	root := &cobra.Command{
		Use:           "scout",
		Short:         "Find and vet recent news articles for a list of topics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("metrics-port") {
				cfg.Metrics.Port = opts.metricsPort
			}

			logger, closer, err := logging.New(logging.Config{
				Level:      cfg.Log.Level,
				Format:     cfg.Log.Format,
				File:       cfg.Log.File,
				MaxSizeMB:  cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAgeDays: cfg.Log.MaxAgeDays,
			})
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			sess.cfg = cfg
			sess.logger = logger
			sess.cleanup = append(sess.cleanup, func() { _ = closer.Close() })

			if cfg.Metrics.Port > 0 {
				srv := metrics.Start(cfg.Metrics.Port, logger)
				logger.Info("metrics server listening", "port", cfg.Metrics.Port)
				sess.cleanup = append(sess.cleanup, func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Stop(ctx)
				})
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			sess.close()
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (yaml, toml or json)")
	root.PersistentFlags().IntVar(&opts.metricsPort, "metrics-port", 0, "expose Prometheus metrics on this port (0 disables)")

	root.AddCommand(
		newRunCmd(sess),
		newWatchCmd(sess),
		newHistoryCmd(sess),
	)
	return root
}
