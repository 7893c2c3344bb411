package entity

// Meta keys used on RawPosition.Meta. Sources tag positions with provenance
// so the filter and assembler stages can act on them without knowing which
// adapter produced the row.
const (
	MetaChain            = "chain"
	MetaContractAddress  = "contract_address"
	MetaDecimals         = "decimals"
	MetaSource           = "source"
	MetaNativeToken      = "native_token"
	MetaPossibleSpam     = "possible_spam"
	MetaVerifiedContract = "verified_contract"
	MetaBalanceRaw       = "balance_raw"
	MetaRegistryID       = "registry_id"
	MetaReconciled       = "reconciled"
)

// RawPosition is one discovered or parsed holding, pre-validation.
// Source adapters create it, the enrichment engine mutates it in place
// (price, value, identity), and the filter/assembler stages read it.
type RawPosition struct {
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name,omitempty"`
	Quantity float64        `json:"quantity"`
	PriceUSD float64        `json:"price_usd,omitempty"`
	ValueUSD float64        `json:"value_usd,omitempty"`
	Currency string         `json:"currency,omitempty"`
	Role     string         `json:"role,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// MetaString returns a string meta value, or "" when absent or not a string.
func (p *RawPosition) MetaString(key string) string {
	if p.Meta == nil {
		return ""
	}
	if v, ok := p.Meta[key].(string); ok {
		return v
	}
	return ""
}

// MetaBool returns a boolean meta value, or false when absent.
func (p *RawPosition) MetaBool(key string) bool {
	if p.Meta == nil {
		return false
	}
	if v, ok := p.Meta[key].(bool); ok {
		return v
	}
	return false
}

// SetMeta lazily initializes the meta map and stores a value.
func (p *RawPosition) SetMeta(key string, value any) {
	if p.Meta == nil {
		p.Meta = make(map[string]any)
	}
	p.Meta[key] = value
}
