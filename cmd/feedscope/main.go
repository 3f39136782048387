package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"feedscope/internal/cache/redis"
	"feedscope/internal/chain"
	"feedscope/internal/config"
	"feedscope/internal/feed"
	"feedscope/internal/oracle"
	"feedscope/internal/pricing"
)

func main() {
	root := &cobra.Command{
		Use:          "feedscope",
		Short:        "Chainlink price feed resolver",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	priceCmd := &cobra.Command{
		Use:   "price <chainID> <tokenAddress>",
		Short: "Resolve the current USD price of a token",
		Args:  cobra.ExactArgs(2),
		RunE:  runPrice,
	}
	addStackFlags(priceCmd)
	root.AddCommand(priceCmd)

	valueCmd := &cobra.Command{
		Use:   "value <positions.json>",
		Short: "Value a set of token positions in USD",
		Args:  cobra.ExactArgs(1),
		RunE:  runValue,
	}
	addStackFlags(valueCmd)
	root.AddCommand(valueCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll target prices on an interval and store them",
		RunE:  runWatch,
	}
	addStackFlags(watchCmd)
	watchCmd.Flags().Duration("interval", 30*time.Second, "polling interval")
	watchCmd.Flags().Int("max-retries", 5, "maximum retry attempts per target")
	watchCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	watchCmd.Flags().StringSlice("target", nil, "polling targets as chainID=tokenAddress (comma-separated)")
	watchCmd.Flags().String("targets-file", "", "JSON file with polling targets")
	watchCmd.Flags().String("out", "./data/prices.jsonl", "output JSONL path")
	watchCmd.Flags().String("pg-dsn", "", "Postgres DSN (overrides --out)")
	watchCmd.Flags().String("state-name", "watch", "progress state name")
	root.AddCommand(watchCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve price resolution over HTTP",
		RunE:  runServe,
	}
	addStackFlags(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addStackFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("chain", nil, "RPC endpoints as chainID=url (comma-separated)")
	cmd.Flags().String("metadata-url", "", "remote feed metadata document URL")
	cmd.Flags().Duration("metadata-ttl", feed.DefaultMetadataTTL, "feed metadata cache TTL")
	cmd.Flags().Duration("price-ttl", pricing.DefaultPriceTTL, "resolved price cache TTL")
	cmd.Flags().Duration("stale-after", oracle.DefaultStaleAfter, "staleness warning window")
	cmd.Flags().String("redis-addr", "", "Redis address for the price cache (empty uses memory)")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// stack is the wired resolution pipeline shared by every command.
type stack struct {
	pool     *chain.Pool
	registry *feed.Registry
	service  *pricing.Service
	redis    *redis.Client
}

func buildStack(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stack, error) {
	rpcURLs := feed.DefaultChainURLs()
	overrides, err := config.ParseChainURLs(cfg.Chains)
	if err != nil {
		return nil, err
	}
	for chainID, url := range overrides {
		rpcURLs[chainID] = url
	}
	pool := chain.NewPool(rpcURLs)

	var source feed.Source = feed.NewStaticSource()
	if cfg.MetadataURL != "" {
		remote := feed.NewRemoteSource(cfg.MetadataURL, cfg.MetadataTTL, logger)
		source = feed.NewFallbackSource(remote, feed.NewStaticSource(), logger)
	}
	registry := feed.NewRegistry(source, feed.DefaultTokenFeeds(), logger)

	oracleClient := oracle.NewClient(pool, logger)
	oracleClient.SetStaleAfter(cfg.StaleAfter)

	s := &stack{pool: pool, registry: registry}

	var prices pricing.PriceCache
	if cfg.RedisAddr != "" {
		client, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			pool.Close()
			return nil, err
		}
		s.redis = client
		prices = redis.NewPriceCache(client, cfg.PriceTTL)
	} else {
		prices = pricing.NewMemoryPriceCache(cfg.PriceTTL)
	}

	s.service = pricing.NewService(registry, oracleClient, prices, logger)
	return s, nil
}

func (s *stack) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	s.pool.Close()
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
