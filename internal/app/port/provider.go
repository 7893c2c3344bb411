package port

import (
	"context"
	"math/big"

	"portfolio_preview/internal/domain/entity"
)

// ChainScanner is one provider strategy able to scan a single chain for a
// wallet's holdings. The balance acquisition engine ranks scanners and
// short-circuits on the first success per chain.
type ChainScanner interface {
	// Name identifies the provider for diagnostics ("indexer", "explorer").
	Name() string

	// ScanChain returns the wallet's holdings on one chain as raw positions.
	// truncated reports that the provider's page/window limit was reached
	// before the full history was consumed.
	ScanChain(ctx context.Context, chain entity.ChainDefinition, address string) (positions []entity.RawPosition, truncated bool, err error)
}

// PriceRegistry resolves canonical token identity and market quotes by
// symbol. Implementations merge the registry's info and quote lookups into
// one record set per symbol.
type PriceRegistry interface {
	Lookup(ctx context.Context, symbols []string) (map[string][]entity.RegistryAsset, error)
}

// BlockchainClient performs point balance queries against one chain's RPC
// endpoint. Used to reconcile reconstructed balances with exact on-chain
// values.
type BlockchainClient interface {
	NativeBalance(ctx context.Context, walletAddress string) (*big.Int, error)
	TokenBalance(ctx context.Context, contractAddress, walletAddress string) (*big.Int, error)
}

// BlockchainClientProvider hands out (and caches) per-chain RPC clients.
type BlockchainClientProvider interface {
	GetClient(chain entity.ChainDefinition) (BlockchainClient, error)
}
