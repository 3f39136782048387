package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedscope/internal/model"
)

const validDoc = `{
  "arbitrum-mainnet": {
    "baseUrl": "https://arb1.arbitrum.io/rpc",
    "feeds": [
      {"name": "ETH/USD", "proxyAddress": "0x639Fe6ab55C921f74e7fac1ee960C0B6293ba612", "feedCategory": "low"},
      {"name": "OLD/USD", "proxyAddress": "0x6ce185860a4963106506C203335A2910413708e9", "feedCategory": "deprecating"}
    ]
  }
}`

func newMetadataServer(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestRemoteSourceFetchAndParse(t *testing.T) {
	server, _ := newMetadataServer(t, http.StatusOK, validDoc)
	source := NewRemoteSource(server.URL, time.Hour, nil)

	networks, err := source.Networks(context.Background())
	require.NoError(t, err)
	require.Contains(t, networks, "arbitrum-mainnet")

	set := networks["arbitrum-mainnet"]
	assert.Equal(t, "arbitrum-mainnet", set.NetworkName)
	assert.Equal(t, "https://arb1.arbitrum.io/rpc", set.BaseRPCURL)
	require.Len(t, set.Feeds, 2)
	assert.Equal(t, "ETH/USD", set.Feeds[0].Name)
	assert.Equal(t, model.CategoryDeprecating, set.Feeds[1].FeedCategory)
}

func TestRemoteSourceCachesDocument(t *testing.T) {
	server, hits := newMetadataServer(t, http.StatusOK, validDoc)
	source := NewRemoteSource(server.URL, time.Hour, nil)

	_, err := source.Networks(context.Background())
	require.NoError(t, err)
	_, err = source.Networks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), hits.Load(), "second call within TTL must be served from cache")

	source.Invalidate()
	_, err = source.Networks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load(), "invalidation must force a refetch")
}

func TestRemoteSourceHTTPError(t *testing.T) {
	server, _ := newMetadataServer(t, http.StatusInternalServerError, `{"error":"down"}`)
	source := NewRemoteSource(server.URL, time.Hour, nil)

	_, err := source.Networks(context.Background())
	require.ErrorIs(t, err, model.ErrMetadataFetch)
	assert.Contains(t, err.Error(), "500")
}

func TestRemoteSourceParseError(t *testing.T) {
	server, _ := newMetadataServer(t, http.StatusOK, `{not json`)
	source := NewRemoteSource(server.URL, time.Hour, nil)

	_, err := source.Networks(context.Background())
	require.ErrorIs(t, err, model.ErrMetadataFetch)
}

func TestRemoteSourceRejectsMalformedFeed(t *testing.T) {
	doc := `{"arbitrum-mainnet": {"baseUrl": "x", "feeds": [{"name": "ETH/USD", "proxyAddress": "not-an-address"}]}}`
	server, _ := newMetadataServer(t, http.StatusOK, doc)
	source := NewRemoteSource(server.URL, time.Hour, nil)

	_, err := source.Networks(context.Background())
	require.ErrorIs(t, err, model.ErrMetadataFetch)
}

func TestRemoteSourceFailuresDoNotPoison(t *testing.T) {
	var status atomic.Int64
	status.Store(http.StatusBadGateway)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(validDoc))
	}))
	t.Cleanup(server.Close)

	source := NewRemoteSource(server.URL, time.Hour, nil)

	_, err := source.Networks(context.Background())
	require.ErrorIs(t, err, model.ErrMetadataFetch)

	// Failures are not cached; recovery is picked up on the next call.
	status.Store(http.StatusOK)
	networks, err := source.Networks(context.Background())
	require.NoError(t, err)
	assert.Contains(t, networks, "arbitrum-mainnet")
}

func TestFallbackSourceUsesSecondary(t *testing.T) {
	server, _ := newMetadataServer(t, http.StatusServiceUnavailable, "")
	remote := NewRemoteSource(server.URL, time.Hour, nil)
	source := NewFallbackSource(remote, NewStaticSource(), nil)

	networks, err := source.Networks(context.Background())
	require.NoError(t, err)
	assert.Contains(t, networks, "arbitrum-mainnet")
}
