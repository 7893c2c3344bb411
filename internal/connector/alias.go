package connector

import (
	"strconv"
	"strings"
)

// Canonical field names resolved from source-specific headers/keys.
const (
	fieldSymbol   = "symbol"
	fieldName     = "name"
	fieldQuantity = "quantity"
	fieldPrice    = "price_usd"
	fieldValue    = "value_usd"
	fieldCurrency = "currency"
	fieldRole     = "role"
	fieldRisk     = "risk_class"
	fieldChain    = "chain"
	fieldContract = "contract_address"
)

// fieldAliases maps lower-cased source headers/keys to canonical fields.
// Shared by the CSV and JSON adapters so both sources accept the same
// vocabulary.
var fieldAliases = map[string]string{
	"symbol": fieldSymbol, "ticker": fieldSymbol, "asset": fieldSymbol,
	"coin": fieldSymbol, "token": fieldSymbol, "id": fieldSymbol,

	"name": fieldName, "asset_name": fieldName, "description": fieldName,
	"label": fieldName, "title": fieldName,

	"quantity": fieldQuantity, "qty": fieldQuantity, "amount": fieldQuantity,
	"units": fieldQuantity, "balance": fieldQuantity, "shares": fieldQuantity,
	"holdings": fieldQuantity,

	"price": fieldPrice, "price_usd": fieldPrice, "priceusd": fieldPrice,
	"unit_price": fieldPrice, "usd_price": fieldPrice, "last_price": fieldPrice,

	"value": fieldValue, "value_usd": fieldValue, "valueusd": fieldValue,
	"usd_value": fieldValue, "total": fieldValue, "total_value": fieldValue,
	"market_value": fieldValue, "worth": fieldValue,

	"currency": fieldCurrency, "ccy": fieldCurrency, "quote_currency": fieldCurrency,

	"role": fieldRole, "bucket": fieldRole, "sleeve": fieldRole,

	"risk": fieldRisk, "risk_class": fieldRisk, "riskclass": fieldRisk,
	"category": fieldRisk,

	"chain": fieldChain, "network": fieldChain,

	"contract": fieldContract, "contract_address": fieldContract,
	"address": fieldContract, "token_address": fieldContract,
}

// resolveAlias maps a header/key to its canonical field, or "" when unknown.
func resolveAlias(header string) string {
	return fieldAliases[strings.ToLower(strings.TrimSpace(header))]
}

// parseNumber parses a numeric cell, tolerating currency symbols, thousands
// separators and surrounding whitespace. Returns 0 on anything unparsable.
func parseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
