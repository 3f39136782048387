package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedscope/internal/config"
	"feedscope/internal/storage"
	"feedscope/internal/storage/postgres"
	"feedscope/internal/watch"
)

func runWatch(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWatch(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	targets, err := loadTargets(cfg)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("at least one target is required (--target or --targets-file)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := buildStack(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	var sink storage.Storage
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sink = store
	} else {
		sink = storage.NewJsonlStorage(cfg.Out)
	}

	watcher := watch.NewWatcher(watch.Config{
		Interval:     cfg.Interval,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Targets:      targets,
		StateName:    cfg.StateName,
	}, s.service, sink, logger)

	logger.Info("watch start",
		zap.Duration("interval", cfg.Interval),
		zap.Int("targets", len(targets)),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)

	if err := watcher.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func loadTargets(cfg config.WatchConfig) ([]watch.Target, error) {
	if cfg.TargetsFile != "" {
		raw, err := os.ReadFile(cfg.TargetsFile)
		if err != nil {
			return nil, fmt.Errorf("read targets: %w", err)
		}
		var targets []watch.Target
		if err := json.Unmarshal(raw, &targets); err != nil {
			return nil, fmt.Errorf("parse targets: %w", err)
		}
		return targets, nil
	}

	pairs, err := config.ParseTargetPairs(cfg.Targets)
	if err != nil {
		return nil, err
	}
	targets := make([]watch.Target, 0, len(pairs))
	for _, pair := range pairs {
		targets = append(targets, watch.Target{
			TokenAddress: pair.TokenAddress,
			ChainID:      pair.ChainID,
		})
	}
	return targets, nil
}
