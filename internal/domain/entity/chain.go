package entity

// ChainDefinition holds the static configuration for one scannable chain.
// Read-only for the process lifetime.
type ChainDefinition struct {
	Key            string `json:"key" yaml:"key"`
	ChainID        uint64 `json:"chainId" yaml:"chainId"`
	Label          string `json:"label" yaml:"label"`
	NativeSymbol   string `json:"nativeSymbol" yaml:"nativeSymbol"`
	NativeDecimals uint8  `json:"nativeDecimals" yaml:"nativeDecimals"`
	IndexerKey     string `json:"indexerKey,omitempty" yaml:"indexerKey,omitempty"`
	ExplorerBase   string `json:"explorerBase,omitempty" yaml:"explorerBase,omitempty"`
	RPCURL         string `json:"rpcUrl,omitempty" yaml:"rpcUrl,omitempty"`
	FreeTier       bool   `json:"freeTier" yaml:"freeTier"`
	// Keywords are chain hints matched against registry platform names when
	// binding a symbol to a contract address during enrichment.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
}

// RegistryContract is one contract address a registry asset is deployed at,
// together with the registry's platform label for the hosting chain.
type RegistryContract struct {
	Platform string `json:"platform"`
	Address  string `json:"address"`
}

// RegistryAsset is one canonical token identity record from the
// price/identity registry, merged from its info and quote lookups.
type RegistryAsset struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	Symbol       string             `json:"symbol"`
	Rank         int                `json:"rank"`
	PriceUSD     float64            `json:"price_usd"`
	MarketCapUSD float64            `json:"market_cap_usd"`
	Contracts    []RegistryContract `json:"contracts,omitempty"`
}
