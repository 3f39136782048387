package feed

import (
	"context"

	"feedscope/internal/model"
)

// StaticSource serves the built-in feed set. Only Arbitrum One feeds
// ship hardcoded; the other supported chains resolve through the
// remote document when one is configured.
type StaticSource struct{}

// NewStaticSource creates the hardcoded source.
func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

var _ Source = (*StaticSource)(nil)

var staticNetworks = map[string]model.NetworkFeedSet{
	"arbitrum-mainnet": {
		NetworkName: "arbitrum-mainnet",
		BaseRPCURL:  "https://arb1.arbitrum.io/rpc",
		Feeds: []model.FeedDescriptor{
			{Name: "ETH/USD", ProxyAddress: "0x639Fe6ab55C921f74e7fac1ee960C0B6293ba612", FeedCategory: model.CategoryLow},
			{Name: "BTC/USD", ProxyAddress: "0x6ce185860a4963106506C203335A2910413708e9", FeedCategory: model.CategoryLow},
			{Name: "WBTC/USD", ProxyAddress: "0xd0C7101eACbB49F3deCcCc166d238410D6D46d57", FeedCategory: model.CategoryMedium},
			{Name: "ARB/USD", ProxyAddress: "0xb2A8BA74cbca38508BA1632761b56C897060147C", FeedCategory: model.CategoryLow},
			{Name: "USDC/USD", ProxyAddress: "0x50834F3163758fcC1Df9973b6e91f0F0F0434aD3", FeedCategory: model.CategoryLow},
			{Name: "USDT/USD", ProxyAddress: "0x3f3f5dF88dC9F13eac63DF89EC16ef6e7E25DdE7", FeedCategory: model.CategoryLow},
			{Name: "DAI/USD", ProxyAddress: "0xc5C8E77B397E531B8EC06BFb0048328B30E9eCfB", FeedCategory: model.CategoryLow},
		},
	},
}

// Networks returns the built-in feed sets.
func (s *StaticSource) Networks(_ context.Context) (map[string]model.NetworkFeedSet, error) {
	return staticNetworks, nil
}

// DefaultChainURLs returns built-in RPC endpoints for the chains whose
// feeds ship hardcoded. Callers overlay their own endpoints on top.
func DefaultChainURLs() map[uint64]string {
	urls := make(map[uint64]string)
	for chainID, networkName := range ChainNetworks {
		if network, ok := staticNetworks[networkName]; ok && network.BaseRPCURL != "" {
			urls[chainID] = network.BaseRPCURL
		}
	}
	return urls
}

// DefaultTokenFeeds maps token addresses to the feed name pricing
// them in USD, per chain. Keys are lowercased by the registry.
func DefaultTokenFeeds() map[uint64]map[string]string {
	return map[uint64]map[string]string{
		42161: {
			"0x82af49447d8a07e3bd95bd0d56f35241523fbab1": "ETH/USD",  // WETH
			"0x2f2a2543b76a4166549f7aab2e75bef0aefc5b0f": "WBTC/USD", // WBTC
			"0x912ce59144191c1204e64559fe8253a0e49e6548": "ARB/USD",  // ARB
			"0xaf88d065e77c8cc2239327c5edb3a432268e5831": "USDC/USD", // USDC
			"0xff970a61a04b1ca14834a43f5de4533ebddb5cc8": "USDC/USD", // USDC.e
			"0xfd086bc7cd5c481dcc9c85ebe478a1c0b69fcbb9": "USDT/USD", // USDT
			"0xda10009cbd5d07dd0cecc66161fc93d7c9000da1": "DAI/USD",  // DAI
		},
	}
}
