package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedscope/internal/model"
)

type fakeService struct {
	price     model.ResolvedPrice
	priceErr  error
	available bool
	feeds     []model.FeedDescriptor
	feedsErr  error
}

func (f *fakeService) GetTokenPrice(_ context.Context, token string, chainID uint64) (model.ResolvedPrice, error) {
	if f.priceErr != nil {
		return model.ResolvedPrice{}, f.priceErr
	}
	p := f.price
	p.TokenAddress = token
	p.ChainID = chainID
	return p, nil
}

func (f *fakeService) IsAvailable(context.Context) bool { return f.available }

func (f *fakeService) Feeds(context.Context, uint64) ([]model.FeedDescriptor, error) {
	return f.feeds, f.feedsErr
}

func newTestServer(svc *fakeService) *httptest.Server {
	s := New("127.0.0.1:0", svc, svc, nil)
	return httptest.NewServer(s.Router())
}

func TestPriceEndpoint(t *testing.T) {
	svc := &fakeService{
		price: model.ResolvedPrice{
			Price:       decimal.NewFromInt(2000),
			Decimals:    8,
			FeedName:    "ETH/USD",
			FeedAddress: "0x639Fe6ab55C921f74e7fac1ee960C0B6293ba612",
			Source:      model.PriceSourceChainlink,
			UpdatedAt:   time.Now().UTC(),
		},
		available: true,
	}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/price/42161/0x82af49447d8a07e3bd95bd0d56f35241523fbab1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "2000", body["price"])
	assert.Equal(t, "ETH/USD", body["feed_name"])
	assert.Equal(t, float64(42161), body["chain_id"])
}

func TestPriceEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", fmt.Errorf("%w: bad address", model.ErrValidation), http.StatusBadRequest},
		{"unsupported chain", fmt.Errorf("%w: chain 7", model.ErrUnsupportedChain), http.StatusBadRequest},
		{"no feed", fmt.Errorf("%w: token", model.ErrNoFeedAvailable), http.StatusNotFound},
		{"metadata", fmt.Errorf("%w: 500", model.ErrMetadataFetch), http.StatusBadGateway},
		{"oracle", fmt.Errorf("%w: timeout", model.ErrOracleRead), http.StatusBadGateway},
		{"invalid data", fmt.Errorf("%w: zero answer", model.ErrInvalidPriceData), http.StatusBadGateway},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(&fakeService{priceErr: tc.err})
			defer ts.Close()

			resp, err := http.Get(ts.URL + "/v1/price/42161/0x82af49447d8a07e3bd95bd0d56f35241523fbab1")
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestPriceEndpointRejectsBadChainID(t *testing.T) {
	ts := newTestServer(&fakeService{available: true})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/price/not-a-chain/0xabc")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFeedsEndpoint(t *testing.T) {
	svc := &fakeService{
		feeds: []model.FeedDescriptor{
			{Name: "ETH/USD", ProxyAddress: "0x639Fe6ab55C921f74e7fac1ee960C0B6293ba612"},
		},
	}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/feeds/42161")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ChainID uint64                 `json:"chain_id"`
		Feeds   []model.FeedDescriptor `json:"feeds"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, uint64(42161), body.ChainID)
	require.Len(t, body.Feeds, 1)
	assert.Equal(t, "ETH/USD", body.Feeds[0].Name)
}

func TestFeedsEndpointEmptyListIsNotNull(t *testing.T) {
	ts := newTestServer(&fakeService{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/feeds/42161")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Feeds []model.FeedDescriptor `json:"feeds"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotNil(t, body.Feeds)
	assert.Empty(t, body.Feeds)
}

func TestHealthAndReadiness(t *testing.T) {
	svc := &fakeService{available: true}
	ts := newTestServer(svc)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	svc.available = false
	resp, err = http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(&fakeService{available: true})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
