package chain

import (
	"context"
	"fmt"
	"sync"

	"feedscope/internal/model"
)

// Pool manages one Client per chain id, dialed lazily on first use.
// Multiple price lookups for different chains can be in flight at
// once, so the client table is mutex-guarded.
type Pool struct {
	rpcURLs map[uint64]string

	mu      sync.Mutex
	clients map[uint64]*Client
}

// NewPool creates a Pool from a chain id to RPC URL mapping.
func NewPool(rpcURLs map[uint64]string) *Pool {
	urls := make(map[uint64]string, len(rpcURLs))
	for id, url := range rpcURLs {
		urls[id] = url
	}
	return &Pool{
		rpcURLs: urls,
		clients: make(map[uint64]*Client),
	}
}

// Supported reports whether the pool has an RPC endpoint for the chain.
func (p *Pool) Supported(chainID uint64) bool {
	_, ok := p.rpcURLs[chainID]
	return ok
}

// Get returns the client for a chain, dialing it on first use. It
// fails with model.ErrUnsupportedChain when no RPC URL is configured.
func (p *Pool) Get(ctx context.Context, chainID uint64) (*Client, error) {
	url, ok := p.rpcURLs[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: chain %d has no rpc endpoint", model.ErrUnsupportedChain, chainID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[chainID]; ok {
		return client, nil
	}

	client, err := NewClient(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial chain %d: %w", chainID, err)
	}
	p.clients[chainID] = client
	return client, nil
}

// Close closes all dialed clients.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, client := range p.clients {
		client.Close()
		delete(p.clients, id)
	}
}
