package entity

// Warning codes. Data-quality issues are always surfaced with a stable code
// so the boundary can render or log them without re-deriving the cause.
const (
	WarnUnknownChainKeys    = "UNKNOWN_CHAIN_KEYS"
	WarnScanChainError      = "SCAN_CHAIN_ERROR"
	WarnScanTruncated       = "SCAN_TRUNCATED"
	WarnProviderFallback    = "PROVIDER_FALLBACK"
	WarnEnrichUnavailable   = "ENRICH_UNAVAILABLE"
	WarnPriceMissing        = "PRICE_MISSING"
	WarnEqualWeightFallback = "EQUAL_WEIGHT_FALLBACK"
	WarnAllFiltered         = "ALL_POSITIONS_FILTERED"

	WarnFilteredNoSymbol         = "FILTERED_NO_SYMBOL"
	WarnFilteredSymbolAddress    = "FILTERED_SYMBOL_IS_ADDRESS"
	WarnFilteredPlaceholder      = "FILTERED_PLACEHOLDER_NAME"
	WarnFilteredSpam             = "FILTERED_POSSIBLE_SPAM"
	WarnFilteredUnverified       = "FILTERED_UNVERIFIED"
	WarnFilteredBadQuantity      = "FILTERED_NON_POSITIVE_QUANTITY"
	WarnFilteredNoValue          = "FILTERED_NO_VALUE"
	WarnFilteredNoPrice          = "FILTERED_NO_PRICE"
	WarnFilteredContractMismatch = "FILTERED_CONTRACT_MISMATCH"
)

// Error codes for fatal failures.
const (
	ErrEmptyInput           = "EMPTY_INPUT"
	ErrMalformedJSON        = "MALFORMED_JSON"
	ErrInvalidAddress       = "INVALID_ADDRESS"
	ErrNoProviderConfigured = "NO_PROVIDER_CONFIGURED"
	ErrPrimaryChainFailed   = "PRIMARY_CHAIN_FAILED"
	ErrUnknownConnector     = "UNKNOWN_CONNECTOR"
)

// Warning is a structured, non-fatal diagnostic attached to a PreviewResult.
type Warning struct {
	Code    string   `json:"code"`
	Detail  string   `json:"detail"`
	Samples []string `json:"samples,omitempty"`
}

// PreviewError is a fatal failure. Code identifies the taxonomy entry,
// Message carries the human-readable cause.
type PreviewError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PreviewRequest identifies a connector and carries its payload. Exactly one
// of the payload groups is used depending on the connector id.
type PreviewRequest struct {
	ConnectorID string `json:"connector_id"`
	CSVText     string `json:"csv_text,omitempty"`
	JSONText    string `json:"json_text,omitempty"`
	Chain       string `json:"chain,omitempty"`
	Address     string `json:"address,omitempty"`
}

// PreviewResult is the pipeline's single response contract, constructed once
// per request and immutable after return.
type PreviewResult struct {
	OK             bool            `json:"ok"`
	Summary        string          `json:"summary,omitempty"`
	Warnings       []Warning       `json:"warnings,omitempty"`
	Errors         []PreviewError  `json:"errors,omitempty"`
	RawPositions   []RawPosition   `json:"raw_positions,omitempty"`
	ProposedAssets []ProposedAsset `json:"proposed_assets,omitempty"`
}

// Failed builds an ok:false result with a single error.
func Failed(code, message string) PreviewResult {
	return PreviewResult{
		OK:     false,
		Errors: []PreviewError{{Code: code, Message: message}},
	}
}
