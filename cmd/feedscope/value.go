package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"feedscope/internal/config"
	"feedscope/internal/model"
	"feedscope/internal/valuation"
)

// positionEntry is one line of the positions file: a token holding
// plus its unclaimed fee amount, both in raw integer units.
type positionEntry struct {
	TokenAddress string `json:"tokenAddress"`
	ChainID      uint64 `json:"chainId"`
	Decimals     uint8  `json:"decimals"`
	RawAmount    string `json:"rawAmount"`
	FeeRawAmount string `json:"feeRawAmount,omitempty"`
}

func runValue(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	entries, err := readPositions(args[0])
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("positions file %s is empty", args[0])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := buildStack(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	position := make([]valuation.Entry, 0, len(entries))
	fees := make([]valuation.Entry, 0, len(entries))
	for _, entry := range entries {
		amount, err := parseRawAmount(entry.RawAmount)
		if err != nil {
			return fmt.Errorf("position %s: %w", entry.TokenAddress, err)
		}
		feeAmount, err := parseRawAmount(entry.FeeRawAmount)
		if err != nil {
			return fmt.Errorf("position %s: %w", entry.TokenAddress, err)
		}

		var priceUSD *float64
		resolved, err := s.service.GetTokenPrice(ctx, entry.TokenAddress, entry.ChainID)
		if err != nil {
			if !model.Retryable(err) && ctx.Err() == nil {
				logger.Info("position has no price, contributes zero",
					zap.String("token", entry.TokenAddress),
					zap.Uint64("chain_id", entry.ChainID),
					zap.Error(err),
				)
			} else {
				return err
			}
		} else {
			p, _ := resolved.Price.Float64()
			priceUSD = &p
		}

		position = append(position, valuation.Entry{
			Decimals:  entry.Decimals,
			RawAmount: amount,
			PriceUSD:  priceUSD,
		})
		fees = append(fees, valuation.Entry{
			Decimals:  entry.Decimals,
			RawAmount: feeAmount,
			PriceUSD:  priceUSD,
		})
	}

	result := valuation.Valuation(position, fees)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func readPositions(path string) ([]positionEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	var entries []positionEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse positions: %w", err)
	}
	return entries, nil
}

func parseRawAmount(input string) (*big.Int, error) {
	if input == "" {
		return nil, nil
	}
	amount, ok := new(big.Int).SetString(input, 10)
	if !ok {
		return nil, fmt.Errorf("invalid raw amount %q", input)
	}
	return amount, nil
}
