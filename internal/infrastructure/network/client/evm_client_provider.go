package client

import (
	"fmt"
	"sync"
	"time"

	"portfolio_preview/internal/app/port"
	"portfolio_preview/internal/domain/entity"
)

const defaultConnectionTimeout = 10 * time.Second

// evmClientProvider implements port.BlockchainClientProvider, caching one
// client per chain so repeated reconciliation does not reconnect.
type evmClientProvider struct {
	clients        map[string]port.BlockchainClient
	mu             sync.Mutex
	rpcCallTimeout time.Duration
	logger         port.Logger
}

// NewEVMClientProvider creates a new BlockchainClientProvider.
func NewEVMClientProvider(rpcCallTimeout time.Duration, logger port.Logger) port.BlockchainClientProvider {
	return &evmClientProvider{
		clients:        make(map[string]port.BlockchainClient),
		rpcCallTimeout: rpcCallTimeout,
		logger:         logger,
	}
}

// GetClient retrieves (or creates and caches) the RPC client for a chain.
func (p *evmClientProvider) GetClient(chain entity.ChainDefinition) (port.BlockchainClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[chain.Key]; ok {
		return c, nil
	}

	p.logger.Debug("Creating new EVM client", "chain", chain.Key, "rpc", chain.RPCURL)
	c, err := NewEVMClient(chain, defaultConnectionTimeout, p.rpcCallTimeout)
	if err != nil {
		p.logger.Error("Failed to create EVM client", "chain", chain.Key, "error", err)
		return nil, fmt.Errorf("failed to create EVM client for %s: %w", chain.Key, err)
	}
	p.clients[chain.Key] = c
	return c, nil
}
