package config

import (
	"testing"
)

func TestParseChainURLs(t *testing.T) {
	urls, err := ParseChainURLs([]string{
		"42161=https://arb1.arbitrum.io/rpc",
		"1=https://eth.llamarpc.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(urls))
	}
	if urls[42161] != "https://arb1.arbitrum.io/rpc" {
		t.Fatalf("unexpected url for 42161: %s", urls[42161])
	}
}

func TestParseChainURLsRejectsMalformedPairs(t *testing.T) {
	cases := []string{
		"42161",
		"abc=https://example.com",
		"0=https://example.com",
		"42161=",
	}
	for _, input := range cases {
		if _, err := ParseChainURLs([]string{input}); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestParseTargetPairs(t *testing.T) {
	targets, err := ParseTargetPairs([]string{
		"42161=0x82af49447d8a07e3bd95bd0d56f35241523fbab1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("expected 1 target, got %d", len(targets))
	}
	if targets[0].ChainID != 42161 {
		t.Fatalf("unexpected chain id %d", targets[0].ChainID)
	}
	if targets[0].TokenAddress != "0x82af49447d8a07e3bd95bd0d56f35241523fbab1" {
		t.Fatalf("unexpected token %s", targets[0].TokenAddress)
	}
}

func TestParseTargetPairsRejectsMalformedPairs(t *testing.T) {
	cases := []string{"0xabc", "x=0xabc", "42161="}
	for _, input := range cases {
		if _, err := ParseTargetPairs([]string{input}); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MetadataTTL.Hours() != 1 {
		t.Fatalf("unexpected metadata ttl %s", cfg.MetadataTTL)
	}
	if cfg.PriceTTL.Seconds() != 30 {
		t.Fatalf("unexpected price ttl %s", cfg.PriceTTL)
	}
	if cfg.StaleAfter.Hours() != 24 {
		t.Fatalf("unexpected stale-after %s", cfg.StaleAfter)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("unexpected log level %s", cfg.LogLevel)
	}
}
