package watch

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"feedscope/internal/model"
)

type scriptedGetter struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (g *scriptedGetter) GetTokenPrice(_ context.Context, token string, chainID uint64) (model.ResolvedPrice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var err error
	if g.calls < len(g.errs) {
		err = g.errs[g.calls]
	}
	g.calls++
	if err != nil {
		return model.ResolvedPrice{}, err
	}
	return model.ResolvedPrice{
		TokenAddress: token,
		ChainID:      chainID,
		Price:        decimal.NewFromInt(2000),
	}, nil
}

type memorySink struct {
	mu      sync.Mutex
	batches [][]model.ResolvedPrice
}

func (s *memorySink) PutPriceBatch(prices []model.ResolvedPrice) error {
	s.mu.Lock()
	s.batches = append(s.batches, prices)
	s.mu.Unlock()
	return nil
}

func testWatcher(getter PriceGetter, sink *memorySink, targets []Target) *Watcher {
	return NewWatcher(Config{
		Interval:     time.Minute,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		Targets:      targets,
	}, getter, sink, nil)
}

func TestSweepRetriesTransientFailures(t *testing.T) {
	getter := &scriptedGetter{errs: []error{
		fmt.Errorf("%w: timeout", model.ErrOracleRead),
		nil,
	}}
	sink := &memorySink{}
	w := testWatcher(getter, sink, []Target{{TokenAddress: "0xabc", ChainID: 42161}})

	w.sweep(context.Background())

	if getter.calls != 2 {
		t.Fatalf("expected retry after transient failure, calls=%d", getter.calls)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("expected one stored price, batches=%+v", sink.batches)
	}
}

func TestSweepDoesNotRetryPermanentFailures(t *testing.T) {
	getter := &scriptedGetter{errs: []error{
		fmt.Errorf("%w: token 0xabc on chain 42161", model.ErrNoFeedAvailable),
	}}
	sink := &memorySink{}
	w := testWatcher(getter, sink, []Target{{TokenAddress: "0xabc", ChainID: 42161}})

	w.sweep(context.Background())

	if getter.calls != 1 {
		t.Fatalf("no-feed must not be retried, calls=%d", getter.calls)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 0 {
		t.Fatalf("expected empty batch, batches=%+v", sink.batches)
	}
}

func TestSweepOneTargetFailureDoesNotAbort(t *testing.T) {
	getter := &scriptedGetter{errs: []error{
		fmt.Errorf("%w: chain 7", model.ErrUnsupportedChain),
		nil,
	}}
	sink := &memorySink{}
	w := testWatcher(getter, sink, []Target{
		{TokenAddress: "0xbad", ChainID: 7},
		{TokenAddress: "0xgood", ChainID: 42161},
	})

	w.sweep(context.Background())

	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("expected surviving target stored, batches=%+v", sink.batches)
	}
	if sink.batches[0][0].TokenAddress != "0xgood" {
		t.Fatalf("unexpected stored token %s", sink.batches[0][0].TokenAddress)
	}
}

func TestRunValidatesConfig(t *testing.T) {
	sink := &memorySink{}
	getter := &scriptedGetter{}

	if err := NewWatcher(Config{Interval: time.Minute}, getter, sink, nil).Run(context.Background()); err == nil {
		t.Fatalf("expected error for empty target list")
	}
	if err := NewWatcher(Config{Targets: []Target{{TokenAddress: "0xabc", ChainID: 1}}}, getter, sink, nil).Run(context.Background()); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if err := NewWatcher(Config{Interval: time.Minute, Targets: []Target{{TokenAddress: "0xabc", ChainID: 1}}}, getter, nil, nil).Run(context.Background()); err == nil {
		t.Fatalf("expected error for nil storage")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	sink := &memorySink{}
	getter := &scriptedGetter{}
	w := NewWatcher(Config{
		Interval: 10 * time.Millisecond,
		Targets:  []Target{{TokenAddress: "0xabc", ChainID: 42161}},
	}, getter, sink, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("watcher did not stop on cancel")
	}
}
