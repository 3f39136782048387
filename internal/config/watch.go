package config

import (
	"time"

	"github.com/spf13/pflag"
)

// WatchConfig holds configuration for the watch command.
type WatchConfig struct {
	Config
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Targets      []string
	TargetsFile  string
	Out          string
	PGDSN        string
	StateName    string
}

// LoadWatch merges config file, environment variables, and flags into
// WatchConfig.
func LoadWatch(cfgFile string, flags *pflag.FlagSet) (WatchConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return WatchConfig{}, err
	}

	v.SetDefault("interval", 30*time.Second)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("out", "./data/prices.jsonl")
	v.SetDefault("state-name", "watch")

	return WatchConfig{
		Config:       fromViper(v),
		Interval:     v.GetDuration("interval"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		Targets:      getStringSlice(v, "target"),
		TargetsFile:  v.GetString("targets-file"),
		Out:          v.GetString("out"),
		PGDSN:        v.GetString("pg-dsn"),
		StateName:    v.GetString("state-name"),
	}, nil
}
