package chains

import (
	"strings"

	"portfolio_preview/internal/domain/entity"
)

// ScopeAuto scans every free-tier chain.
const ScopeAuto = "auto"

// definitions is the static chain table. Read-only for the process lifetime;
// it drives which chains the wallet connector is allowed to scan and which
// provider keys each scan uses.
var definitions = []entity.ChainDefinition{
	{
		Key: "eth", ChainID: 1, Label: "Ethereum", NativeSymbol: "ETH", NativeDecimals: 18,
		IndexerKey: "eth", ExplorerBase: "https://api.etherscan.io/api", RPCURL: "https://eth.llamarpc.com",
		FreeTier: true, Keywords: []string{"ethereum", "eth", "erc20"},
	},
	{
		Key: "polygon", ChainID: 137, Label: "Polygon", NativeSymbol: "POL", NativeDecimals: 18,
		IndexerKey: "polygon", ExplorerBase: "https://api.polygonscan.com/api", RPCURL: "https://polygon-rpc.com",
		FreeTier: true, Keywords: []string{"polygon", "matic", "pol"},
	},
	{
		Key: "bsc", ChainID: 56, Label: "BNB Smart Chain", NativeSymbol: "BNB", NativeDecimals: 18,
		IndexerKey: "bsc", ExplorerBase: "https://api.bscscan.com/api", RPCURL: "https://bsc-dataseed.binance.org",
		FreeTier: true, Keywords: []string{"bnb", "bsc", "binance", "bep20"},
	},
	{
		Key: "arbitrum", ChainID: 42161, Label: "Arbitrum One", NativeSymbol: "ETH", NativeDecimals: 18,
		IndexerKey: "arbitrum", ExplorerBase: "https://api.arbiscan.io/api", RPCURL: "https://arb1.arbitrum.io/rpc",
		FreeTier: true, Keywords: []string{"arbitrum", "arb"},
	},
	{
		Key: "optimism", ChainID: 10, Label: "Optimism", NativeSymbol: "ETH", NativeDecimals: 18,
		IndexerKey: "optimism", ExplorerBase: "https://api-optimistic.etherscan.io/api", RPCURL: "https://mainnet.optimism.io",
		FreeTier: true, Keywords: []string{"optimism", "op mainnet"},
	},
	{
		Key: "base", ChainID: 8453, Label: "Base", NativeSymbol: "ETH", NativeDecimals: 18,
		IndexerKey: "base", ExplorerBase: "https://api.basescan.org/api", RPCURL: "https://mainnet.base.org",
		FreeTier: true, Keywords: []string{"base"},
	},
	{
		Key: "avalanche", ChainID: 43114, Label: "Avalanche C-Chain", NativeSymbol: "AVAX", NativeDecimals: 18,
		IndexerKey: "avalanche", ExplorerBase: "https://api.snowtrace.io/api", RPCURL: "https://api.avax.network/ext/bc/C/rpc",
		FreeTier: true, Keywords: []string{"avalanche", "avax"},
	},
	{
		Key: "fantom", ChainID: 250, Label: "Fantom Opera", NativeSymbol: "FTM", NativeDecimals: 18,
		IndexerKey: "fantom", ExplorerBase: "https://api.ftmscan.com/api", RPCURL: "https://rpc.ftm.tools",
		FreeTier: false, Keywords: []string{"fantom", "ftm"},
	},
}

// aliases maps accepted chain spellings to canonical keys.
var aliases = map[string]string{
	"ethereum": "eth",
	"mainnet":  "eth",
	"matic":    "polygon",
	"binance":  "bsc",
	"bnb":      "bsc",
	"arb":      "arbitrum",
	"op":       "optimism",
	"avax":     "avalanche",
	"ftm":      "fantom",
}

// Registry resolves chain keys and scan scopes against the static chain
// table.
type Registry struct {
	byKey map[string]entity.ChainDefinition
	order []string
}

// NewRegistry builds a Registry over the built-in chain table.
func NewRegistry() *Registry {
	r := &Registry{byKey: make(map[string]entity.ChainDefinition, len(definitions))}
	for _, def := range definitions {
		r.byKey[def.Key] = def
		r.order = append(r.order, def.Key)
	}
	return r
}

// Get returns the definition for a chain key or alias.
func (r *Registry) Get(key string) (entity.ChainDefinition, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	if canonical, ok := aliases[k]; ok {
		k = canonical
	}
	def, ok := r.byKey[k]
	return def, ok
}

// All returns every chain definition in table order.
func (r *Registry) All() []entity.ChainDefinition {
	out := make([]entity.ChainDefinition, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

// FreeTier returns every free-tier eligible chain in table order.
func (r *Registry) FreeTier() []entity.ChainDefinition {
	var out []entity.ChainDefinition
	for _, k := range r.order {
		if def := r.byKey[k]; def.FreeTier {
			out = append(out, def)
		}
	}
	return out
}

// ResolveScope turns a requested scope into an ordered, deduplicated list of
// chains to scan plus the unknown keys that were requested. The scope is a
// single key, the "auto" directive, or a comma-separated list. The first
// resolved chain is the primary chain. Unknown keys never fail resolution;
// the caller reports them as a non-fatal warning.
func (r *Registry) ResolveScope(scope string) (resolved []entity.ChainDefinition, unknown []string) {
	scope = strings.TrimSpace(scope)
	if scope == "" || strings.EqualFold(scope, ScopeAuto) {
		return r.FreeTier(), nil
	}

	seen := make(map[string]struct{})
	for _, part := range strings.Split(scope, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		def, ok := r.Get(part)
		if !ok {
			unknown = append(unknown, part)
			continue
		}
		if _, dup := seen[def.Key]; dup {
			continue
		}
		seen[def.Key] = struct{}{}
		resolved = append(resolved, def)
	}
	return resolved, unknown
}
