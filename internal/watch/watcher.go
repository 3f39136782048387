package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"feedscope/internal/model"
	"feedscope/internal/storage"
)

// PriceGetter resolves one token price. The getter is single-attempt;
// this package owns the retry policy around it.
type PriceGetter interface {
	GetTokenPrice(ctx context.Context, tokenAddress string, chainID uint64) (model.ResolvedPrice, error)
}

// ProgressStore persists sweep progress between runs. Implemented by
// the Postgres store; other sinks simply skip progress tracking.
type ProgressStore interface {
	LoadState(ctx context.Context, name string) (uint64, bool, error)
	SaveState(ctx context.Context, name string, ts uint64) error
}

// Target is one (token, chain) pair to poll.
type Target struct {
	TokenAddress string `json:"tokenAddress"`
	ChainID      uint64 `json:"chainId"`
}

// Config holds runtime settings for the watcher.
type Config struct {
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Targets      []Target
	StateName    string
}

// Watcher polls target prices on an interval and writes them to
// storage.
type Watcher struct {
	cfg     Config
	prices  PriceGetter
	storage storage.Storage
	logger  *zap.Logger
	now     func() time.Time
}

// NewWatcher builds a Watcher with its dependencies.
func NewWatcher(cfg Config, prices PriceGetter, storageSink storage.Storage, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		cfg:     cfg,
		prices:  prices,
		storage: storageSink,
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes the polling loop until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if w.prices == nil {
		return fmt.Errorf("price getter is nil")
	}
	if w.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if w.cfg.Interval <= 0 {
		return fmt.Errorf("interval must be greater than zero")
	}
	if len(w.cfg.Targets) == 0 {
		return fmt.Errorf("at least one target is required")
	}

	if progress, ok := w.storage.(ProgressStore); ok && w.cfg.StateName != "" {
		if ts, found, err := progress.LoadState(ctx, w.cfg.StateName); err != nil {
			w.logger.Warn("load watch state failed", zap.Error(err))
		} else if found {
			w.logger.Info("resume watch", zap.String("name", w.cfg.StateName), zap.Uint64("last_polled_ts", ts))
		}
	}

	w.sweep(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep resolves every target once and stores the batch. One target
// failing never aborts the sweep.
func (w *Watcher) sweep(ctx context.Context) {
	batch := make([]model.ResolvedPrice, 0, len(w.cfg.Targets))
	for _, target := range w.cfg.Targets {
		price, err := w.resolveWithRetry(ctx, target)
		if err != nil {
			if errors.Is(err, model.ErrNoFeedAvailable) {
				w.logger.Info("no feed for target",
					zap.String("token", target.TokenAddress),
					zap.Uint64("chain_id", target.ChainID),
				)
			} else {
				w.logger.Warn("target resolution failed",
					zap.String("token", target.TokenAddress),
					zap.Uint64("chain_id", target.ChainID),
					zap.Error(err),
				)
			}
			continue
		}
		batch = append(batch, price)
	}

	if err := w.storage.PutPriceBatch(batch); err != nil {
		w.logger.Error("store prices failed", zap.Error(err), zap.Int("prices", len(batch)))
		return
	}

	if progress, ok := w.storage.(ProgressStore); ok && w.cfg.StateName != "" {
		if err := progress.SaveState(ctx, w.cfg.StateName, uint64(w.now().Unix())); err != nil {
			w.logger.Warn("save watch state failed", zap.Error(err))
		}
	}

	w.logger.Info("sweep complete", zap.Int("prices", len(batch)), zap.Int("targets", len(w.cfg.Targets)))
}

// resolveWithRetry retries transient failures with exponential
// backoff. Permanent outcomes (validation, unsupported chain, no
// feed) are returned immediately without burning attempts.
func (w *Watcher) resolveWithRetry(ctx context.Context, target Target) (model.ResolvedPrice, error) {
	var (
		price     model.ResolvedPrice
		permanent error
	)
	err := withRetry(ctx, w.cfg.MaxRetries, w.cfg.RetryBackoff, func(ctx context.Context) error {
		p, err := w.prices.GetTokenPrice(ctx, target.TokenAddress, target.ChainID)
		if err != nil {
			if !model.Retryable(err) {
				permanent = err
				return nil
			}
			w.logger.Warn("price resolution attempt failed",
				zap.String("token", target.TokenAddress),
				zap.Uint64("chain_id", target.ChainID),
				zap.Error(err),
			)
			return err
		}
		price = p
		return nil
	})
	if permanent != nil {
		return model.ResolvedPrice{}, permanent
	}
	if err != nil {
		return model.ResolvedPrice{}, err
	}
	return price, nil
}
