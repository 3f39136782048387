package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the shared resolution stack settings loaded from flags,
// env, or config file.
type Config struct {
	Chains        []string
	MetadataURL   string
	MetadataTTL   time.Duration
	PriceTTL      time.Duration
	StaleAfter    time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LogLevel      string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v), nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("FEEDSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("metadata-ttl", time.Hour)
	v.SetDefault("price-ttl", 30*time.Second)
	v.SetDefault("stale-after", 24*time.Hour)
	v.SetDefault("redis-db", 0)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		Chains:        getStringSlice(v, "chain"),
		MetadataURL:   v.GetString("metadata-url"),
		MetadataTTL:   v.GetDuration("metadata-ttl"),
		PriceTTL:      v.GetDuration("price-ttl"),
		StaleAfter:    v.GetDuration("stale-after"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		LogLevel:      v.GetString("log-level"),
	}
}

// ParseChainURLs parses chainID=url pairs into an RPC endpoint map.
func ParseChainURLs(pairs []string) (map[uint64]string, error) {
	out := make(map[uint64]string, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid chain mapping %q, expected chainID=url", pair)
		}
		chainID, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil || chainID == 0 {
			return nil, fmt.Errorf("invalid chain id in %q", pair)
		}
		url := strings.TrimSpace(parts[1])
		if url == "" {
			return nil, fmt.Errorf("empty rpc url in %q", pair)
		}
		out[chainID] = url
	}
	return out, nil
}

// TargetPair is a parsed chainID=token polling target.
type TargetPair struct {
	ChainID      uint64
	TokenAddress string
}

// ParseTargetPairs parses chainID=tokenAddress pairs.
func ParseTargetPairs(pairs []string) ([]TargetPair, error) {
	out := make([]TargetPair, 0, len(pairs))
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid target %q, expected chainID=tokenAddress", pair)
		}
		chainID, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil || chainID == 0 {
			return nil, fmt.Errorf("invalid chain id in %q", pair)
		}
		token := strings.TrimSpace(parts[1])
		if token == "" {
			return nil, fmt.Errorf("empty token address in %q", pair)
		}
		out = append(out, TargetPair{ChainID: chainID, TokenAddress: token})
	}
	return out, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
