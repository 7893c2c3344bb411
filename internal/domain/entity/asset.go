package entity

// Risk classes assigned by the assembler. Free-form hints from source data
// are normalized to these canonical keys.
const (
	RiskStablecoin   = "stablecoin"
	RiskCryptoMajor  = "crypto_major"
	RiskCryptoAlt    = "crypto_alt"
	RiskDeFi         = "defi"
	RiskEquity       = "equity"
	RiskUnclassified = "unclassified"
)

// Portfolio roles.
const (
	RoleCore      = "core"
	RoleSatellite = "satellite"
	RoleLiquidity = "liquidity"
)

// ProposedAsset is a validated, weight-normalized output row consumed by the
// downstream allocation engine.
type ProposedAsset struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	RiskClass      string   `json:"risk_class"`
	Role           string   `json:"role"`
	CurrentWeight  float64  `json:"current_weight"`
	ExpectedReturn float64  `json:"expected_return"`
	Volatility     float64  `json:"volatility"`
	SourceValueUSD *float64 `json:"source_value_usd"`
}
