package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"feedscope/internal/cache"
	"feedscope/internal/model"
)

const (
	// DefaultMetadataTTL bounds how long a fetched metadata document
	// is reused before refetching.
	DefaultMetadataTTL = time.Hour

	// DefaultFetchTimeout bounds one metadata fetch.
	DefaultFetchTimeout = 10 * time.Second

	metadataCacheKey = "feed-metadata"
)

// remoteNetworkDoc is the wire shape of one network in the remote
// document: { [networkName]: { baseUrl, feeds } }.
type remoteNetworkDoc struct {
	BaseURL string                 `json:"baseUrl"`
	Feeds   []model.FeedDescriptor `json:"feeds"`
}

// RemoteSource fetches feed metadata from a remote JSON document and
// memoizes it through a TTL cache. The document is untrusted input
// and is validated before use.
type RemoteSource struct {
	http   *resty.Client
	url    string
	cache  *cache.Cache[map[string]model.NetworkFeedSet]
	ttl    time.Duration
	logger *zap.Logger
}

var _ Source = (*RemoteSource)(nil)

// NewRemoteSource creates a RemoteSource for the given document URL.
func NewRemoteSource(url string, ttl time.Duration, logger *zap.Logger) *RemoteSource {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteSource{
		http:   resty.New().SetTimeout(DefaultFetchTimeout),
		url:    url,
		cache:  cache.New[map[string]model.NetworkFeedSet](),
		ttl:    ttl,
		logger: logger,
	}
}

// Networks returns the feed sets from the remote document, served
// from cache while unexpired. Fetch and parse failures are reported
// as model.ErrMetadataFetch so callers can tell infrastructure
// problems apart from an unmapped token.
func (s *RemoteSource) Networks(ctx context.Context) (map[string]model.NetworkFeedSet, error) {
	if entry, ok := s.cache.Get(metadataCacheKey); ok {
		return entry.Data, nil
	}

	resp, err := s.http.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", model.ErrMetadataFetch, s.url, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: get %s: status %d %s", model.ErrMetadataFetch, s.url, resp.StatusCode(), resp.Status())
	}

	var doc map[string]remoteNetworkDoc
	if err := json.Unmarshal(resp.Body(), &doc); err != nil {
		return nil, fmt.Errorf("%w: parse document: %v", model.ErrMetadataFetch, err)
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: document has no networks", model.ErrMetadataFetch)
	}

	networks := make(map[string]model.NetworkFeedSet, len(doc))
	for name, network := range doc {
		if name == "" {
			return nil, fmt.Errorf("%w: empty network name", model.ErrMetadataFetch)
		}
		feeds := make([]model.FeedDescriptor, 0, len(network.Feeds))
		for _, feed := range network.Feeds {
			if feed.Name == "" || !common.IsHexAddress(feed.ProxyAddress) {
				return nil, fmt.Errorf("%w: network %s has malformed feed entry %+v", model.ErrMetadataFetch, name, feed)
			}
			feeds = append(feeds, feed)
		}
		networks[name] = model.NetworkFeedSet{
			NetworkName: name,
			BaseRPCURL:  network.BaseURL,
			Feeds:       feeds,
		}
	}

	s.cache.Set(metadataCacheKey, networks, s.ttl)
	s.logger.Debug("feed metadata refreshed",
		zap.String("url", s.url),
		zap.Int("networks", len(networks)),
	)
	return networks, nil
}

// Invalidate drops the cached document so the next call refetches.
func (s *RemoteSource) Invalidate() {
	s.cache.Delete(metadataCacheKey)
}

// FallbackSource tries a primary source and falls back to a secondary
// when the primary fails. It lets a remote-backed registry degrade to
// the hardcoded feed set instead of going dark.
type FallbackSource struct {
	primary   Source
	secondary Source
	logger    *zap.Logger
}

// NewFallbackSource composes primary over secondary.
func NewFallbackSource(primary, secondary Source, logger *zap.Logger) *FallbackSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackSource{primary: primary, secondary: secondary, logger: logger}
}

var _ Source = (*FallbackSource)(nil)

// Networks returns the primary's networks, or the secondary's when
// the primary fails.
func (s *FallbackSource) Networks(ctx context.Context) (map[string]model.NetworkFeedSet, error) {
	networks, err := s.primary.Networks(ctx)
	if err == nil {
		return networks, nil
	}
	s.logger.Warn("primary feed source failed, using fallback", zap.Error(err))
	return s.secondary.Networks(ctx)
}
