package model

// FeedCategory classifies a price feed per the reference data document.
type FeedCategory string

const (
	CategoryLow         FeedCategory = "low"
	CategoryMedium      FeedCategory = "medium"
	CategoryHigh        FeedCategory = "high"
	CategoryHidden      FeedCategory = "hidden"
	CategoryCustom      FeedCategory = "custom"
	CategoryDeprecating FeedCategory = "deprecating"
)

// Active reports whether a feed in this category may be selected for
// price resolution.
func (c FeedCategory) Active() bool {
	return c != CategoryHidden && c != CategoryDeprecating
}

// FeedDescriptor identifies one on-chain price aggregator contract.
type FeedDescriptor struct {
	Name         string       `json:"name"`
	ProxyAddress string       `json:"proxyAddress"`
	FeedCategory FeedCategory `json:"feedCategory"`
}

// NetworkFeedSet holds the feeds known for one network.
type NetworkFeedSet struct {
	NetworkName string           `json:"networkName"`
	BaseRPCURL  string           `json:"baseUrl"`
	Feeds       []FeedDescriptor `json:"feeds"`
}

// FeedLookupResult is the resolved answer to "which feed serves this
// token on this chain".
type FeedLookupResult struct {
	Feed        FeedDescriptor `json:"feed"`
	NetworkName string         `json:"networkName"`
	RPCURL      string         `json:"rpcUrl"`
}
